package model

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrLevelBeforeCategory is returned when a level is selected before a
// category; the surrounding workflow must set the category first.
var ErrLevelBeforeCategory = errors.New("level selected before category")

// ErrEmptyCategory is returned for blank category ids.
var ErrEmptyCategory = errors.New("category id is empty")

// Session holds one moderator's in-progress workflow against one subject.
// The subject identity is fixed at creation; selections accumulate until
// the session is dispatch-ready. Methods are safe for concurrent use —
// selection requests and capture completions arrive on different
// goroutines.
type Session struct {
	ID            string    `json:"id"`
	Moderator     string    `json:"moderator"`
	ModeratorName string    `json:"moderator_name"`
	Subject       string    `json:"subject"`
	SubjectName   string    `json:"subject_name"`
	CreatedAt     time.Time `json:"created_at"`

	mu         sync.Mutex
	categoryID string
	level      *LevelSpec
	// reason is three-valued: nil = unset, empty = explicitly none,
	// non-empty = text.
	reason    *string
	silent    bool
	silentSet bool
}

// NewSession creates a session for a moderator targeting a subject.
func NewSession(id, moderator, moderatorName, subject, subjectName string) *Session {
	return &Session{
		ID:            id,
		Moderator:     moderator,
		ModeratorName: strings.TrimSpace(moderatorName),
		Subject:       subject,
		SubjectName:   strings.TrimSpace(subjectName),
		CreatedAt:     time.Now().UTC(),
	}
}

// SetCategory records the category selection. Blank ids are rejected.
func (s *Session) SetCategory(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryID = trimmed
	return nil
}

// SetLevel records the level selection. Selecting a level before a category
// is a workflow programming error and is rejected.
func (s *Session) SetLevel(level LevelSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryID == "" {
		return ErrLevelBeforeCategory
	}
	l := level
	s.level = &l
	return nil
}

// SetReason records the captured reason. Whitespace-only text collapses to
// the explicit-empty reason.
func (s *Session) SetReason(reason string) {
	trimmed := strings.TrimSpace(reason)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reason = &trimmed
}

// SetSilent records an explicit silent choice; once set, configuration
// defaults no longer apply.
func (s *Session) SetSilent(silent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = silent
	s.silentSet = true
}

// ApplySilentDefault applies the configured default unless the moderator
// has explicitly chosen.
func (s *Session) ApplySilentDefault(silentDefault bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.silentSet {
		return
	}
	s.silent = silentDefault
}

// Category returns the selected category id ("" until chosen).
func (s *Session) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryID
}

// Level returns the selected level, if any.
func (s *Session) Level() (LevelSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.level == nil {
		return LevelSpec{}, false
	}
	return *s.level, true
}

// Reason returns the captured reason and whether one has been set at all.
func (s *Session) Reason() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reason == nil {
		return "", false
	}
	return *s.reason, true
}

// Silent returns the effective silent flag.
func (s *Session) Silent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.silent
}

// DispatchReady reports whether the session can be handed to the
// dispatcher: category chosen, level chosen, and a reason set (explicit
// empty counts; unset does not).
func (s *Session) DispatchReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryID != "" && s.level != nil && s.reason != nil
}

// Snapshot is an immutable JSON view of the session for API responses.
type SessionSnapshot struct {
	ID            string     `json:"id"`
	Moderator     string     `json:"moderator"`
	ModeratorName string     `json:"moderator_name"`
	Subject       string     `json:"subject"`
	SubjectName   string     `json:"subject_name"`
	CreatedAt     time.Time  `json:"created_at"`
	Category      string     `json:"category,omitempty"`
	Level         *LevelSpec `json:"level,omitempty"`
	Reason        *string    `json:"reason,omitempty"`
	Silent        bool       `json:"silent"`
	DispatchReady bool       `json:"dispatch_ready"`
}

// Snapshot captures the session's current state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		ID:            s.ID,
		Moderator:     s.Moderator,
		ModeratorName: s.ModeratorName,
		Subject:       s.Subject,
		SubjectName:   s.SubjectName,
		CreatedAt:     s.CreatedAt,
		Category:      s.categoryID,
		Silent:        s.silent,
		DispatchReady: s.categoryID != "" && s.level != nil && s.reason != nil,
	}
	if s.level != nil {
		l := *s.level
		snap.Level = &l
	}
	if s.reason != nil {
		r := *s.reason
		snap.Reason = &r
	}
	return snap
}
