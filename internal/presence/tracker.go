// Package presence tracks which moderators are currently connected.
//
// The Tracker maintains an in-memory map of online moderators, updated by
// heartbeat requests from the game side. A background reaper goroutine
// marks silent moderators offline after a configurable threshold; their
// sessions and prompts are cancelled through the OnOffline callback, so a
// crashed client never leaves a subject locked forever.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Entry represents a single moderator's live presence state.
type Entry struct {
	Moderator  string    `json:"moderator"`
	Name       string    `json:"name,omitempty"`
	LastSeen   time.Time `json:"last_seen"`
	FirstSeen  time.Time `json:"first_seen"`
	LastEvent  string    `json:"last_event"` // "join", "heartbeat", "quit"
	IdleSecs   float64   `json:"idle_secs"`
	EventCount int64     `json:"event_count"`
	Reaped     bool      `json:"reaped,omitempty"`
	ReapedAt   time.Time `json:"reaped_at,omitempty"`
}

// Heartbeat is one presence signal from the game side.
type Heartbeat struct {
	Moderator string // moderator uuid
	Name      string // display name, when known
	Event     string // "join", "heartbeat", "quit"
}

// ReaperConfig configures the background offline reaper.
type ReaperConfig struct {
	// OfflineThreshold is how long a moderator must be silent before being
	// marked offline. Default: 2 minutes.
	OfflineThreshold time.Duration

	// EvictAfter is how long after going offline before a moderator is
	// removed from the in-memory map. Default: 30 minutes.
	EvictAfter time.Duration

	// SweepInterval is how often the reaper scans. Default: 15 seconds.
	SweepInterval time.Duration

	// OnOffline is called for each moderator newly marked offline.
	// Called outside the lock — safe to make blocking calls.
	OnOffline func(moderator string)
}

// Tracker maintains an in-memory roster of connected moderators.
type Tracker struct {
	mu      sync.RWMutex
	mods    map[string]*modState
	started time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type modState struct {
	name       string
	firstSeen  time.Time
	lastSeen   time.Time
	lastEvent  string
	eventCount int64
	reaped     bool
	reapedAt   time.Time
}

// New creates a new presence tracker.
func New() *Tracker {
	return &Tracker{
		mods:    make(map[string]*modState),
		started: time.Now(),
	}
}

// Record updates the presence state for a moderator. A "quit" event marks
// them offline immediately; the OnOffline cleanup path is the caller's
// responsibility for explicit quits (the server cancels the session in the
// same request).
func (t *Tracker) Record(hb Heartbeat) {
	if hb.Moderator == "" {
		return
	}

	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.mods[hb.Moderator]
	if !ok {
		state = &modState{firstSeen: now}
		t.mods[hb.Moderator] = state
	}

	if hb.Event == "quit" {
		state.lastSeen = now
		state.lastEvent = "quit"
		state.eventCount++
		state.reaped = true
		state.reapedAt = now
		return
	}

	// A heartbeat from a reaped moderator brings them back.
	if state.reaped {
		slog.Info("presence: moderator reconnected", "moderator", hb.Moderator)
		state.reaped = false
		state.reapedAt = time.Time{}
	}

	state.lastSeen = now
	state.lastEvent = hb.Event
	state.eventCount++
	if hb.Name != "" {
		state.name = hb.Name
	}
}

// Online reports whether the moderator is currently connected.
func (t *Tracker) Online(moderator string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.mods[moderator]
	return ok && !state.reaped
}

// Roster returns a snapshot of all tracked moderators, most recently active
// first. staleThreshold excludes moderators idle longer than it; pass 0 to
// include everyone ever seen.
func (t *Tracker) Roster(staleThreshold time.Duration) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := time.Now()
	entries := make([]Entry, 0, len(t.mods))

	for moderator, state := range t.mods {
		idle := now.Sub(state.lastSeen)
		if staleThreshold > 0 && idle > staleThreshold {
			continue
		}

		firstSeen := state.firstSeen
		if firstSeen.IsZero() {
			firstSeen = t.started
		}

		entries = append(entries, Entry{
			Moderator:  moderator,
			Name:       state.name,
			LastSeen:   state.lastSeen,
			FirstSeen:  firstSeen,
			LastEvent:  state.lastEvent,
			IdleSecs:   idle.Seconds(),
			EventCount: state.eventCount,
			Reaped:     state.reaped,
			ReapedAt:   state.reapedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})

	return entries
}

// StartReaper launches a background goroutine that periodically marks
// silent moderators offline. Call Stop() to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.OfflineThreshold == 0 {
		cfg.OfflineThreshold = 2 * time.Minute
	}
	if cfg.EvictAfter == 0 {
		cfg.EvictAfter = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 15 * time.Second
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"offline_threshold", cfg.OfflineThreshold,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := time.Now()

	var newlyOffline []string

	t.mu.Lock()
	for moderator, state := range t.mods {
		if state.reaped {
			if !state.reapedAt.IsZero() && now.Sub(state.reapedAt) > cfg.EvictAfter {
				delete(t.mods, moderator)
			}
			continue
		}
		if now.Sub(state.lastSeen) > cfg.OfflineThreshold {
			state.reaped = true
			state.reapedAt = now
			newlyOffline = append(newlyOffline, moderator)
		}
	}
	t.mu.Unlock()

	for _, moderator := range newlyOffline {
		slog.Info("presence: reaper marked moderator offline",
			"moderator", moderator,
			"threshold", cfg.OfflineThreshold)
		if cfg.OnOffline != nil {
			cfg.OnOffline(moderator)
		}
	}
}
