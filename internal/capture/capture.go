// Package capture implements single-shot reason capture: one open prompt
// per moderator, resolved exactly once by a chat message, an explicit
// cancel, or a timeout. Chat delivery and timer expiry race; an atomic
// claim on the prompt decides the winner and the loser becomes a no-op.
package capture

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/arzormc/warden/internal/config"
	"github.com/arzormc/warden/internal/events"
)

// Outcome classifies how a prompt resolved.
type Outcome int

const (
	// OutcomeReason: free-form text was captured.
	OutcomeReason Outcome = iota
	// OutcomeNone: the moderator chose to give no reason.
	OutcomeNone
	// OutcomeCancelled: the cancel keyword, or the prompt was replaced
	// by a newer one for the same moderator.
	OutcomeCancelled
	// OutcomeTimeout: the capture window elapsed.
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReason:
		return "reason"
	case OutcomeNone:
		return "none"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeTimeout:
		return "timeout"
	}
	return "unknown"
}

// Result is the single resolution of a prompt.
type Result struct {
	Outcome Outcome
	// Reason is the captured text; empty for OutcomeNone, OutcomeCancelled
	// and OutcomeTimeout.
	Reason string
}

// Handler receives the prompt resolution. It is called exactly once per
// prompt, never under the service lock.
type Handler func(Result)

// prompt is one open capture window. claimed is the single-shot guard:
// whichever path swaps it first owns the resolution.
type prompt struct {
	sessionID string
	moderator string
	handler   Handler
	timer     Timer
	claimed   atomic.Bool
}

// claim attempts to take ownership of the prompt's resolution.
func (p *prompt) claim() bool {
	return p.claimed.CompareAndSwap(false, true)
}

// stopTimer is nil-safe: a prompt with an infinite window has no timer.
func (p *prompt) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
	}
}

// Service tracks open prompts keyed by moderator.
type Service struct {
	timers TimerService
	layout func() *config.Layout
	pub    events.Publisher

	mu      sync.Mutex
	prompts map[string]*prompt
}

// NewService creates a capture service. layout is read per message so a
// runtime reload changes keyword sets for prompts already open.
func NewService(timers TimerService, layout func() *config.Layout, pub events.Publisher) *Service {
	return &Service{
		timers:  timers,
		layout:  layout,
		pub:     pub,
		prompts: make(map[string]*prompt),
	}
}

// Begin opens a prompt for the moderator. An existing open prompt for the
// same moderator is cancelled first; its handler observes OutcomeCancelled.
func (s *Service) Begin(ctx context.Context, sessionID, moderator string, handler Handler) {
	p := &prompt{sessionID: sessionID, moderator: moderator, handler: handler}

	s.mu.Lock()
	prev := s.prompts[moderator]
	s.prompts[moderator] = p
	timeout := s.layout().PromptTimeout()
	// A non-positive timeout means the window never expires.
	if timeout > 0 {
		p.timer = s.timers.AfterFunc(timeout, func() { s.expire(ctx, p) })
	}
	s.mu.Unlock()

	if prev != nil && prev.claim() {
		prev.stopTimer()
		s.publish(ctx, events.TopicPromptCancelled, events.PromptCancelled{
			SessionID: prev.sessionID, Moderator: prev.moderator,
		})
		prev.handler(Result{Outcome: OutcomeCancelled})
	}

	s.publish(ctx, events.TopicPromptOpened, events.PromptOpened{
		SessionID:      sessionID,
		Moderator:      moderator,
		TimeoutSeconds: int(timeout.Seconds()),
	})
}

// HandleMessage feeds one chat line from the moderator into their open
// prompt. It reports whether the line was consumed; unconsumed lines (no
// prompt open, prompt already resolved, or blank text) flow on to normal
// chat. Keyword classification happens before the claim so a blank line
// never burns the prompt.
func (s *Service) HandleMessage(ctx context.Context, moderator, text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	s.mu.Lock()
	p := s.prompts[moderator]
	s.mu.Unlock()
	if p == nil {
		return false
	}

	if !p.claim() {
		// Lost the race against the timeout or a cancel.
		return false
	}
	p.stopTimer()
	s.remove(moderator, p)

	layout := s.layout()
	switch {
	case layout.IsCancelWord(trimmed):
		s.publish(ctx, events.TopicPromptCancelled, events.PromptCancelled{
			SessionID: p.sessionID, Moderator: moderator,
		})
		p.handler(Result{Outcome: OutcomeCancelled})
	case layout.AllowNoneWord && layout.IsNoneWord(trimmed):
		s.publish(ctx, events.TopicPromptCaptured, events.PromptCaptured{
			SessionID: p.sessionID, Moderator: moderator, None: true,
		})
		p.handler(Result{Outcome: OutcomeNone})
	default:
		s.publish(ctx, events.TopicPromptCaptured, events.PromptCaptured{
			SessionID: p.sessionID, Moderator: moderator, Reason: trimmed,
		})
		p.handler(Result{Outcome: OutcomeReason, Reason: trimmed})
	}
	return true
}

// Cancel removes the moderator's open prompt administratively: no handler
// call, no event. Used when the owning workflow is torn down for reasons
// unrelated to the prompt itself. Returns false when no prompt is open or
// it already resolved.
func (s *Service) Cancel(ctx context.Context, moderator string) bool {
	s.mu.Lock()
	p := s.prompts[moderator]
	s.mu.Unlock()
	if p == nil || !p.claim() {
		return false
	}
	p.stopTimer()
	s.remove(moderator, p)
	return true
}

// CancelAll removes every open prompt administratively. Used on layout
// reload and shutdown.
func (s *Service) CancelAll(ctx context.Context) {
	s.mu.Lock()
	open := make([]*prompt, 0, len(s.prompts))
	for _, p := range s.prompts {
		open = append(open, p)
	}
	s.prompts = make(map[string]*prompt)
	s.mu.Unlock()

	for _, p := range open {
		if p.claim() {
			p.stopTimer()
		}
	}
}

// Active reports whether the moderator has an open prompt.
func (s *Service) Active(moderator string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[moderator] != nil
}

// expire is the timeout path. It competes for the same claim as message
// delivery, so a message that arrives as the timer fires resolves the
// prompt and the expiry becomes a no-op.
func (s *Service) expire(ctx context.Context, p *prompt) {
	if !p.claim() {
		return
	}
	s.remove(p.moderator, p)

	s.publish(ctx, events.TopicPromptTimeout, events.PromptTimeout{
		SessionID: p.sessionID, Moderator: p.moderator,
	})
	p.handler(Result{Outcome: OutcomeTimeout})
}

// remove drops the prompt from the table if it is still the current one for
// the moderator (Begin may have replaced it).
func (s *Service) remove(moderator string, p *prompt) {
	s.mu.Lock()
	if s.prompts[moderator] == p {
		delete(s.prompts, moderator)
	}
	s.mu.Unlock()
}

func (s *Service) publish(ctx context.Context, topic string, event any) {
	if err := s.pub.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish capture event", "topic", topic, "error", err)
	}
}
