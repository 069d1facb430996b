package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/arzormc/warden/internal/model"
)

// Layout is the moderation workflow definition loaded from a TOML file:
// punishment categories with their severity ladders, reason-capture
// keywords, and workflow behavior toggles. It reloads at runtime, so
// consumers must take it from the coordinator rather than caching it.
type Layout struct {
	TimeoutSeconds         int  `toml:"timeout_seconds"`
	AllowSessionReplace    bool `toml:"allow_session_replace"`
	SilentDefault          bool `toml:"silent_default"`
	AllowNoneWord          bool `toml:"allow_none_word"`
	CancelSessionsOnReload bool `toml:"cancel_sessions_on_reload"`

	CancelWords []string `toml:"cancel_words"`
	NoneWords   []string `toml:"none_words"`

	Categories []LayoutCategory `toml:"category"`

	// parsed keeps the decoded category ladders, built by finish().
	parsed map[string]model.Category
}

// LayoutCategory is one [[category]] table: an id plus level tokens in the
// "<id>=<TYPE>[:duration]" format.
type LayoutCategory struct {
	ID     string   `toml:"id"`
	Levels []string `toml:"levels"`
}

// DefaultLayout returns a usable layout for servers run without a TOML
// file: sensible keywords, a 45-second capture window, no categories.
func DefaultLayout() *Layout {
	l := &Layout{
		TimeoutSeconds:         45,
		AllowNoneWord:          true,
		CancelSessionsOnReload: true,
		CancelWords:            []string{"cancel", "abort", "stop"},
		NoneWords:              []string{"none", "skip", "-"},
	}
	l.parsed = map[string]model.Category{}
	return l
}

// LoadLayout decodes and validates a workflow layout file.
func LoadLayout(path string) (*Layout, error) {
	l := DefaultLayout()
	if _, err := toml.DecodeFile(path, l); err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	if err := l.finish(); err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// ParseLayout decodes a layout from TOML text. Used by tests and by the
// reload endpoint when the layout is pushed rather than read from disk.
func ParseLayout(data string) (*Layout, error) {
	l := DefaultLayout()
	if _, err := toml.Decode(data, l); err != nil {
		return nil, err
	}
	if err := l.finish(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layout) finish() error {
	l.parsed = make(map[string]model.Category, len(l.Categories))
	for _, raw := range l.Categories {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			return fmt.Errorf("category with empty id")
		}
		if _, dup := l.parsed[strings.ToLower(id)]; dup {
			return fmt.Errorf("duplicate category %q", id)
		}
		if len(raw.Levels) == 0 {
			return fmt.Errorf("category %q has no levels", id)
		}

		cat := model.Category{ID: id}
		seen := map[int]bool{}
		for _, token := range raw.Levels {
			spec, err := model.ParseLevelSpec(token)
			if err != nil {
				return fmt.Errorf("category %q: %w", id, err)
			}
			if seen[spec.ID] {
				return fmt.Errorf("category %q: duplicate level %d", id, spec.ID)
			}
			seen[spec.ID] = true
			cat.Levels = append(cat.Levels, spec)
		}
		l.parsed[strings.ToLower(id)] = cat
	}
	return nil
}

// PromptTimeout is the reason-capture window. Non-positive means the
// window never expires.
func (l *Layout) PromptTimeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Category looks up a category by id (case-insensitive).
func (l *Layout) Category(id string) (model.Category, bool) {
	c, ok := l.parsed[strings.ToLower(strings.TrimSpace(id))]
	return c, ok
}

// CategoryIDs returns the configured category ids in file order.
func (l *Layout) CategoryIDs() []string {
	out := make([]string, 0, len(l.Categories))
	for _, c := range l.Categories {
		out = append(out, c.ID)
	}
	return out
}

// IsCancelWord reports whether captured text is a cancel keyword.
func (l *Layout) IsCancelWord(text string) bool {
	return matchWord(l.CancelWords, text)
}

// IsNoneWord reports whether captured text is a no-reason keyword. The
// allow_none_word toggle is checked by the caller, not here.
func (l *Layout) IsNoneWord(text string) bool {
	return matchWord(l.NoneWords, text)
}

func matchWord(words []string, text string) bool {
	t := strings.TrimSpace(text)
	for _, w := range words {
		if strings.EqualFold(t, w) {
			return true
		}
	}
	return false
}
