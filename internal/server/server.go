// Package server exposes the moderation workflow over HTTP and fans
// domain events out to SSE consumers.
package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/arzormc/warden/internal/capture"
	"github.com/arzormc/warden/internal/config"
	"github.com/arzormc/warden/internal/dispatch"
	"github.com/arzormc/warden/internal/events"
	"github.com/arzormc/warden/internal/history"
	"github.com/arzormc/warden/internal/presence"
	"github.com/arzormc/warden/internal/session"
	"github.com/arzormc/warden/internal/store"
)

// Options configures a Server. Store is required; a nil Publisher
// falls back to events.NoopPublisher, a nil Timers to the wall clock,
// and a nil Layout to the built-in default.
type Options struct {
	Store      store.Store
	Publisher  events.Publisher
	Layout     *config.Layout
	LayoutPath string
	Presence   *presence.Tracker
	Timers     capture.TimerService
}

// Server wires the coordinator, capture service, history engine and
// dispatcher behind the HTTP surface. Events published by any of them
// pass through the server's tap so SSE clients see the same stream as
// NATS subscribers.
type Server struct {
	pub        events.Publisher
	layout     atomic.Pointer[config.Layout]
	layoutPath string

	coordinator *session.Coordinator
	capture     *capture.Service
	history     *history.Engine
	dispatcher  *dispatch.Dispatcher
	Presence    *presence.Tracker

	sseHub *sseHub

	// staged maps a moderator to their pending history action id. One
	// staged action per moderator at a time.
	stagedMu sync.Mutex
	staged   map[string]string
}

// New creates a Server and the domain services it fronts.
func New(opts Options) *Server {
	s := &Server{
		layoutPath: opts.LayoutPath,
		Presence:   opts.Presence,
		sseHub:     newSSEHub(),
		staged:     make(map[string]string),
	}

	layout := opts.Layout
	if layout == nil {
		layout = config.DefaultLayout()
	}
	s.layout.Store(layout)

	inner := opts.Publisher
	if inner == nil {
		inner = &events.NoopPublisher{}
	}
	s.pub = &tapPublisher{inner: inner, hub: s.sseHub}

	timers := opts.Timers
	if timers == nil {
		timers = capture.WallClock{}
	}

	var online func(string) bool
	if s.Presence != nil {
		online = s.Presence.Online
	}

	s.coordinator = session.NewCoordinator(s.Layout, s.pub, online)
	s.capture = capture.NewService(timers, s.Layout, s.pub)
	s.history = history.NewEngine(opts.Store, s.pub)
	s.dispatcher = dispatch.New(s.pub)
	return s
}

// Layout returns the current layout. Reload swaps it atomically, so
// callers must not cache the pointer across requests.
func (s *Server) Layout() *config.Layout {
	return s.layout.Load()
}

// Coordinator exposes the session coordinator for embedding callers.
func (s *Server) Coordinator() *session.Coordinator {
	return s.coordinator
}

// HandleChat feeds one raw chat line into capture arbitration. It
// reports whether a pending capture consumed the line; unconsumed lines
// are the caller's to deliver onward. Chat activity counts as a
// liveness signal.
func (s *Server) HandleChat(ctx context.Context, moderator, text string) bool {
	if s.Presence != nil {
		s.Presence.Record(presence.Heartbeat{Moderator: moderator, Event: "heartbeat"})
	}
	return s.capture.HandleMessage(ctx, moderator, text)
}

// HandleOffline tears down the moderator's session and any open
// capture. Wired to the presence reaper.
func (s *Server) HandleOffline(moderator string) {
	ctx := context.Background()
	s.capture.Cancel(ctx, moderator)
	s.dropStaged(moderator)
	if _, err := s.coordinator.Cancel(ctx, moderator, session.CauseOffline); err == nil {
		slog.Info("session cancelled for offline moderator", "moderator", moderator)
	}
}

// Shutdown cancels all live sessions and captures.
func (s *Server) Shutdown(ctx context.Context) {
	s.capture.CancelAll(ctx)
	n := s.coordinator.CancelAll(ctx, session.CauseShutdown)
	if n > 0 {
		slog.Info("cancelled sessions on shutdown", "count", n)
	}
}

func (s *Server) setStaged(moderator, actionID string) {
	s.stagedMu.Lock()
	defer s.stagedMu.Unlock()
	if old, ok := s.staged[moderator]; ok {
		s.history.CancelAction(old)
	}
	s.staged[moderator] = actionID
}

func (s *Server) takeStaged(moderator string) (string, bool) {
	s.stagedMu.Lock()
	defer s.stagedMu.Unlock()
	id, ok := s.staged[moderator]
	if ok {
		delete(s.staged, moderator)
	}
	return id, ok
}

func (s *Server) dropStaged(moderator string) {
	if id, ok := s.takeStaged(moderator); ok {
		s.history.CancelAction(id)
	}
}

// tapPublisher forwards events to the inner publisher and mirrors them
// onto the SSE hub.
type tapPublisher struct {
	inner events.Publisher
	hub   *sseHub
}

func (p *tapPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.hub.broadcastEvent(topic, event)
	return p.inner.Publish(ctx, topic, event)
}

func (p *tapPublisher) Close() error {
	return p.inner.Close()
}
