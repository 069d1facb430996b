// Package dispatch turns a completed session into a punishment command for
// the game-side executor. Commands use the LiteBans verb set; warden never
// applies punishments itself.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/arzormc/warden/internal/events"
	"github.com/arzormc/warden/internal/model"
)

// ErrNotReady is returned when the session is missing a category, level, or
// captured reason.
var ErrNotReady = errors.New("session is not dispatch-ready")

// Dispatcher publishes built commands for the game side to execute.
type Dispatcher struct {
	pub events.Publisher
}

// New creates a dispatcher.
func New(pub events.Publisher) *Dispatcher {
	return &Dispatcher{pub: pub}
}

// Issue builds the command for a dispatch-ready session and publishes it on
// the dispatch topic. The caller completes the session afterwards.
func (d *Dispatcher) Issue(ctx context.Context, s *model.Session) (string, error) {
	snap := s.Snapshot()
	if !snap.DispatchReady {
		return "", ErrNotReady
	}

	cmd := Command(*snap.Level, s.SubjectName, *snap.Reason, snap.Silent)
	if err := d.pub.Publish(ctx, events.TopicDispatchIssued, events.DispatchIssued{
		SessionID: snap.ID,
		Moderator: snap.Moderator,
		Subject:   snap.Subject,
		Command:   cmd,
		Silent:    snap.Silent,
	}); err != nil {
		slog.Warn("failed to publish dispatch event", "session", snap.ID, "error", err)
	}
	return cmd, nil
}

// Command renders one punishment command. A temporary type with a permanent
// duration token degrades to its permanent verb ("tempmute" with "perm"
// becomes "mute"); a permanent type with a real duration upgrades to its
// temporary verb. The silent flag renders as LiteBans' "-s" switch.
func Command(level model.LevelSpec, target, reason string, silent bool) string {
	perm := level.Permanent()

	var verb string
	switch level.Type {
	case model.TypeWarn:
		verb = "warn"
	case model.TypeKick:
		verb = "kick"
	case model.TypeTempMute:
		verb = "tempmute"
		if perm {
			verb = "mute"
		}
	case model.TypeTempBan:
		verb = "tempban"
		if perm {
			verb = "ban"
		}
	case model.TypeBan:
		verb = "ban"
		if !perm {
			verb = "tempban"
		}
	default:
		verb = strings.ToLower(string(level.Type))
	}

	parts := []string{verb}
	if silent {
		parts = append(parts, "-s")
	}
	parts = append(parts, target)
	if !perm && level.Type.SupportsDuration() {
		parts = append(parts, level.Duration)
	}
	if reason != "" {
		parts = append(parts, reason)
	}
	return strings.Join(parts, " ")
}
