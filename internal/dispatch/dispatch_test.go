package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/arzormc/warden/internal/events"
	"github.com/arzormc/warden/internal/model"
)

func TestCommand(t *testing.T) {
	for _, tc := range []struct {
		name   string
		level  model.LevelSpec
		target string
		reason string
		silent bool
		want   string
	}{
		{
			name:  "Warn",
			level: model.LevelSpec{Type: model.TypeWarn},
			target: "Grumm", reason: "spam",
			want: "warn Grumm spam",
		},
		{
			name:  "Kick",
			level: model.LevelSpec{Type: model.TypeKick},
			target: "Grumm", reason: "afk farming",
			want: "kick Grumm afk farming",
		},
		{
			name:  "TempMute",
			level: model.LevelSpec{Type: model.TypeTempMute, Duration: "30m"},
			target: "Grumm", reason: "spam",
			want: "tempmute Grumm 30m spam",
		},
		{
			name:  "TempMutePermToken",
			level: model.LevelSpec{Type: model.TypeTempMute, Duration: "perm"},
			target: "Grumm", reason: "spam",
			want: "mute Grumm spam",
		},
		{
			name:  "TempBan",
			level: model.LevelSpec{Type: model.TypeTempBan, Duration: "7d"},
			target: "Grumm", reason: "griefing",
			want: "tempban Grumm 7d griefing",
		},
		{
			name:  "PermanentBan",
			level: model.LevelSpec{Type: model.TypeBan},
			target: "Grumm", reason: "hacking",
			want: "ban Grumm hacking",
		},
		{
			name:  "BanWithDuration",
			level: model.LevelSpec{Type: model.TypeBan, Duration: "14d"},
			target: "Grumm", reason: "hacking",
			want: "tempban Grumm 14d hacking",
		},
		{
			name:  "SilentFlag",
			level: model.LevelSpec{Type: model.TypeBan},
			target: "Grumm", reason: "hacking", silent: true,
			want: "ban -s Grumm hacking",
		},
		{
			name:  "NoReason",
			level: model.LevelSpec{Type: model.TypeTempMute, Duration: "1h"},
			target: "Grumm",
			want: "tempmute Grumm 1h",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := Command(tc.level, tc.target, tc.reason, tc.silent)
			if got != tc.want {
				t.Errorf("Command = %q, want %q", got, tc.want)
			}
		})
	}
}

// memPublisher records the last dispatch event.
type memPublisher struct {
	mu   sync.Mutex
	last events.DispatchIssued
	n    int
}

func (p *memPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(events.DispatchIssued); ok {
		p.last = ev
		p.n++
	}
	return nil
}

func (p *memPublisher) Close() error { return nil }

func readySession(t *testing.T) *model.Session {
	t.Helper()
	s := model.NewSession("wd-1", "mod-a", "Steve", "subj-1", "Grumm")
	if err := s.SetCategory("chat"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLevel(model.LevelSpec{ID: 2, Type: model.TypeTempMute, Duration: "30m"}); err != nil {
		t.Fatal(err)
	}
	s.SetReason("spamming")
	return s
}

func TestIssue(t *testing.T) {
	pub := &memPublisher{}
	d := New(pub)

	cmd, err := d.Issue(context.Background(), readySession(t))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if cmd != "tempmute Grumm 30m spamming" {
		t.Errorf("cmd = %q", cmd)
	}
	if pub.n != 1 || pub.last.Command != cmd || pub.last.Subject != "subj-1" {
		t.Errorf("published = %+v (n=%d)", pub.last, pub.n)
	}
}

func TestIssueNotReady(t *testing.T) {
	d := New(&memPublisher{})
	s := model.NewSession("wd-1", "mod-a", "Steve", "subj-1", "Grumm")

	if _, err := d.Issue(context.Background(), s); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}
