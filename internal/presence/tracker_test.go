package presence

import (
	"testing"
	"time"
)

func TestRecord_BasicTracking(t *testing.T) {
	tr := New()

	tr.Record(Heartbeat{Moderator: "mod-a", Name: "Steve", Event: "join"})

	roster := tr.Roster(0)
	if len(roster) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(roster))
	}

	e := roster[0]
	if e.Moderator != "mod-a" {
		t.Errorf("expected moderator mod-a, got %s", e.Moderator)
	}
	if e.Name != "Steve" {
		t.Errorf("expected name Steve, got %s", e.Name)
	}
	if e.LastEvent != "join" {
		t.Errorf("expected last_event join, got %s", e.LastEvent)
	}
	if e.EventCount != 1 {
		t.Errorf("expected event_count 1, got %d", e.EventCount)
	}
	if !tr.Online("mod-a") {
		t.Error("expected mod-a online")
	}
}

func TestRecord_UpdatesExistingModerator(t *testing.T) {
	tr := New()

	tr.Record(Heartbeat{Moderator: "mod-b", Name: "Alex", Event: "join"})
	tr.Record(Heartbeat{Moderator: "mod-b", Event: "heartbeat"})
	tr.Record(Heartbeat{Moderator: "mod-b", Event: "heartbeat"})

	roster := tr.Roster(0)
	if len(roster) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(roster))
	}

	e := roster[0]
	if e.EventCount != 3 {
		t.Errorf("expected 3 events, got %d", e.EventCount)
	}
	if e.Name != "Alex" {
		t.Errorf("name lost on heartbeat without name: %s", e.Name)
	}
	if e.LastEvent != "heartbeat" {
		t.Errorf("expected last_event heartbeat, got %s", e.LastEvent)
	}
}

func TestRecord_IgnoresEmptyModerator(t *testing.T) {
	tr := New()

	tr.Record(Heartbeat{Moderator: "", Event: "join"})

	if len(tr.Roster(0)) != 0 {
		t.Fatal("expected 0 entries for empty moderator")
	}
}

func TestRecord_QuitMarksOffline(t *testing.T) {
	tr := New()

	tr.Record(Heartbeat{Moderator: "mod-a", Event: "join"})
	tr.Record(Heartbeat{Moderator: "mod-a", Event: "quit"})

	if tr.Online("mod-a") {
		t.Error("expected mod-a offline after quit")
	}

	// Rejoining brings them back.
	tr.Record(Heartbeat{Moderator: "mod-a", Event: "join"})
	if !tr.Online("mod-a") {
		t.Error("expected mod-a online after rejoin")
	}
}

func TestRoster_StaleThreshold(t *testing.T) {
	tr := New()

	tr.Record(Heartbeat{Moderator: "old-mod", Event: "join"})
	tr.Record(Heartbeat{Moderator: "new-mod", Event: "join"})

	tr.mu.Lock()
	tr.mods["old-mod"].lastSeen = time.Now().Add(-20 * time.Minute)
	tr.mu.Unlock()

	roster := tr.Roster(10 * time.Minute)
	if len(roster) != 1 {
		t.Fatalf("expected 1 entry with threshold, got %d", len(roster))
	}
	if roster[0].Moderator != "new-mod" {
		t.Errorf("expected new-mod, got %s", roster[0].Moderator)
	}

	if all := tr.Roster(0); len(all) != 2 {
		t.Fatalf("expected 2 entries without threshold, got %d", len(all))
	}
}

func TestRoster_SortedByMostRecent(t *testing.T) {
	tr := New()

	tr.Record(Heartbeat{Moderator: "first", Event: "join"})
	time.Sleep(5 * time.Millisecond)
	tr.Record(Heartbeat{Moderator: "second", Event: "join"})
	time.Sleep(5 * time.Millisecond)
	tr.Record(Heartbeat{Moderator: "third", Event: "join"})

	roster := tr.Roster(0)
	if len(roster) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(roster))
	}
	if roster[0].Moderator != "third" {
		t.Errorf("expected third first, got %s", roster[0].Moderator)
	}
	if roster[2].Moderator != "first" {
		t.Errorf("expected first last, got %s", roster[2].Moderator)
	}
}

func TestSweep_MarksSilentModeratorsOffline(t *testing.T) {
	tr := New()

	tr.Record(Heartbeat{Moderator: "idle-mod", Event: "join"})

	tr.mu.Lock()
	tr.mods["idle-mod"].lastSeen = time.Now().Add(-5 * time.Minute)
	tr.mu.Unlock()

	var offline []string
	cfg := &ReaperConfig{
		OfflineThreshold: 2 * time.Minute,
		EvictAfter:       30 * time.Minute,
		SweepInterval:    time.Second,
		OnOffline: func(moderator string) {
			offline = append(offline, moderator)
		},
	}

	tr.sweep(cfg)

	if len(offline) != 1 || offline[0] != "idle-mod" {
		t.Errorf("expected idle-mod to be reaped, got %v", offline)
	}
	if tr.Online("idle-mod") {
		t.Error("expected idle-mod offline after sweep")
	}
}

func TestSweep_ReconnectedModeratorNotReaped(t *testing.T) {
	tr := New()

	tr.Record(Heartbeat{Moderator: "zombie", Event: "join"})
	tr.mu.Lock()
	tr.mods["zombie"].lastSeen = time.Now().Add(-5 * time.Minute)
	tr.mu.Unlock()

	cfg := &ReaperConfig{OfflineThreshold: 2 * time.Minute, EvictAfter: 30 * time.Minute}
	tr.sweep(cfg)

	tr.Record(Heartbeat{Moderator: "zombie", Event: "heartbeat"})

	if !tr.Online("zombie") {
		t.Error("expected zombie back online after heartbeat")
	}
}

func TestSweep_EvictsLongOffline(t *testing.T) {
	tr := New()

	tr.Record(Heartbeat{Moderator: "gone", Event: "join"})
	tr.mu.Lock()
	state := tr.mods["gone"]
	state.reaped = true
	state.reapedAt = time.Now().Add(-45 * time.Minute)
	tr.mu.Unlock()

	cfg := &ReaperConfig{OfflineThreshold: 2 * time.Minute, EvictAfter: 30 * time.Minute}
	tr.sweep(cfg)

	tr.mu.RLock()
	_, exists := tr.mods["gone"]
	tr.mu.RUnlock()
	if exists {
		t.Error("expected long-offline moderator to be evicted")
	}
}

func TestStartReaper_StopsCleanly(t *testing.T) {
	tr := New()

	tr.StartReaper(&ReaperConfig{SweepInterval: 50 * time.Millisecond})

	time.Sleep(150 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		tr.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return within 2 seconds")
	}
}
