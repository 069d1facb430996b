// Package session coordinates moderator workflow sessions and the per-subject
// target locks that keep two moderators from punishing the same player at
// once. A moderator holds at most one session; a subject is held by at most
// one session. Losing requesters are queued as waiters and notified when the
// holder cancels, never when the holder completes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/arzormc/warden/internal/config"
	"github.com/arzormc/warden/internal/events"
	"github.com/arzormc/warden/internal/idgen"
	"github.com/arzormc/warden/internal/model"
)

// Cancellation causes, carried on the session.cancelled event.
const (
	CauseOwner    = "owner"
	CauseReplaced = "replaced"
	CauseTimeout  = "timeout"
	CauseReload   = "reload"
	CauseOffline  = "offline"
	CauseShutdown = "shutdown"
)

// ErrNoSession is returned when the moderator has no active session.
var ErrNoSession = errors.New("no active session")

// LockedError reports a denied acquisition and who holds the lock. The
// requester has been queued as a waiter.
type LockedError struct {
	Subject string
	Holder  string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("subject %s is locked by %s", e.Subject, e.Holder)
}

// targetLock is one held subject plus the moderators waiting on it.
type targetLock struct {
	owner   string
	waiters map[string]struct{}
}

// StartResult is the outcome of a successful Start.
type StartResult struct {
	Session *model.Session
	// Reused is true when the moderator's existing session was returned
	// as-is: same subject, or a conflict with replacement disabled.
	Reused bool
	// Replaced is the id of the moderator's previous session on another
	// subject, cancelled to make room for this one.
	Replaced string
}

// Coordinator owns the session and lock tables.
type Coordinator struct {
	layout func() *config.Layout
	pub    events.Publisher
	online func(moderator string) bool

	mu       sync.Mutex
	sessions map[string]*model.Session // moderator -> session
	locks    map[string]*targetLock    // subject -> lock
}

// NewCoordinator creates a coordinator. online filters waiter notification
// to moderators still connected; pass nil to notify all waiters.
func NewCoordinator(layout func() *config.Layout, pub events.Publisher, online func(string) bool) *Coordinator {
	if online == nil {
		online = func(string) bool { return true }
	}
	return &Coordinator{
		layout:   layout,
		pub:      pub,
		online:   online,
		sessions: make(map[string]*model.Session),
		locks:    make(map[string]*targetLock),
	}
}

// Start opens a session for the moderator against the subject, acquiring
// the subject's target lock.
//
// A subject locked by another moderator yields a *LockedError, queues this
// moderator as a waiter, and hands back any session they already own. A
// session the moderator holds on this subject is reused; one on a
// different subject is replaced when the layout allows it and otherwise
// returned unchanged. Replacing releases the old lock without waiter
// notification: walking away by choice is not an abandonment.
func (c *Coordinator) Start(ctx context.Context, moderator, moderatorName, subject, subjectName string) (StartResult, error) {
	c.mu.Lock()

	// Every attempt starts from a clean slate of waiter registrations.
	for _, l := range c.locks {
		delete(l.waiters, moderator)
	}

	existing := c.sessions[moderator]

	if l := c.locks[subject]; l != nil && l.owner != moderator {
		l.waiters[moderator] = struct{}{}
		holder := l.owner
		c.mu.Unlock()

		c.publish(ctx, events.TopicLockDenied, events.LockDenied{
			Subject: subject, Holder: holder, Requester: moderator,
		})
		return StartResult{Session: existing}, &LockedError{Subject: subject, Holder: holder}
	}

	if existing != nil {
		if existing.Subject == subject || !c.layout().AllowSessionReplace {
			c.mu.Unlock()
			return StartResult{Session: existing, Reused: true}, nil
		}
	}

	// Release the old lock quietly before taking the new one.
	var replaced *model.Session
	if existing != nil {
		replaced = existing
		c.releaseLocked(moderator, existing.Subject)
	}

	id, err := idgen.Generate()
	if err != nil {
		c.mu.Unlock()
		return StartResult{}, err
	}

	s := model.NewSession(id, moderator, moderatorName, subject, subjectName)
	s.ApplySilentDefault(c.layout().SilentDefault)
	c.sessions[moderator] = s
	c.locks[subject] = &targetLock{owner: moderator, waiters: make(map[string]struct{})}
	c.mu.Unlock()

	res := StartResult{Session: s}
	if replaced != nil {
		res.Replaced = replaced.ID
		c.publish(ctx, events.TopicSessionCancelled, events.SessionCancelled{
			Session: replaced.Snapshot(), Cause: CauseReplaced,
		})
	}
	c.publish(ctx, events.TopicSessionStarted, events.SessionStarted{
		Session: s.Snapshot(), Replaced: res.Replaced,
	})
	return res, nil
}

// Get returns the moderator's active session.
func (c *Coordinator) Get(moderator string) (*model.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sessions[moderator]
	return s, s != nil
}

// Holder returns the moderator holding the subject's lock, if any.
func (c *Coordinator) Holder(subject string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.locks[subject]
	if l == nil {
		return "", false
	}
	return l.owner, true
}

// Cancel ends the moderator's session without dispatching. Waiters on the
// subject are notified only for owner-initiated cancellations; a timeout or
// reload cancel releases the lock silently.
func (c *Coordinator) Cancel(ctx context.Context, moderator, cause string) (*model.Session, error) {
	c.mu.Lock()
	s := c.sessions[moderator]
	if s == nil {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	delete(c.sessions, moderator)
	waiters := c.releaseLocked(moderator, s.Subject)
	c.mu.Unlock()

	c.publish(ctx, events.TopicSessionCancelled, events.SessionCancelled{
		Session: s.Snapshot(), Cause: cause,
	})
	if cause == CauseOwner {
		c.notifyWaiters(ctx, s.Subject, moderator, waiters)
	}
	return s, nil
}

// Complete ends the moderator's session after a successful dispatch. The
// lock is released but waiters are not notified: the subject was just
// punished and piling on is not useful.
func (c *Coordinator) Complete(ctx context.Context, moderator, command string) (*model.Session, error) {
	c.mu.Lock()
	s := c.sessions[moderator]
	if s == nil {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	delete(c.sessions, moderator)
	c.releaseLocked(moderator, s.Subject)
	c.mu.Unlock()

	c.publish(ctx, events.TopicSessionCompleted, events.SessionCompleted{
		Session: s.Snapshot(), Command: command,
	})
	return s, nil
}

// CancelAll runs the cancel-and-notify sequence for every session with the
// given cause, then clears all lock and waiter state.
func (c *Coordinator) CancelAll(ctx context.Context, cause string) int {
	type cancelled struct {
		session *model.Session
		waiters []string
	}

	c.mu.Lock()
	all := make([]cancelled, 0, len(c.sessions))
	for moderator, s := range c.sessions {
		all = append(all, cancelled{session: s, waiters: c.releaseLocked(moderator, s.Subject)})
	}
	c.sessions = make(map[string]*model.Session)
	c.locks = make(map[string]*targetLock)
	c.mu.Unlock()

	for _, x := range all {
		c.publish(ctx, events.TopicSessionCancelled, events.SessionCancelled{
			Session: x.session.Snapshot(), Cause: cause,
		})
		c.notifyWaiters(ctx, x.session.Subject, x.session.Moderator, x.waiters)
	}
	if len(all) > 0 {
		slog.Info("cancelled all sessions", "count", len(all), "cause", cause)
	}
	return len(all)
}

// Active returns snapshots of all live sessions.
func (c *Coordinator) Active() []model.SessionSnapshot {
	c.mu.Lock()
	sessions := make([]*model.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mu.Unlock()

	out := make([]model.SessionSnapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// releaseLocked drops the subject's lock if owned by the moderator and
// returns its waiters. Caller holds c.mu.
func (c *Coordinator) releaseLocked(moderator, subject string) []string {
	l := c.locks[subject]
	if l == nil || l.owner != moderator {
		return nil
	}
	delete(c.locks, subject)

	waiters := make([]string, 0, len(l.waiters))
	for w := range l.waiters {
		waiters = append(waiters, w)
	}
	return waiters
}

// notifyWaiters tells still-online waiters the subject is free again.
// Runs on its own goroutine: presence lookups must not extend the hot path.
func (c *Coordinator) notifyWaiters(ctx context.Context, subject, owner string, waiters []string) {
	if len(waiters) == 0 {
		return
	}
	go func() {
		online := make([]string, 0, len(waiters))
		for _, w := range waiters {
			if c.online(w) {
				online = append(online, w)
			}
		}
		if len(online) == 0 {
			return
		}
		sort.Strings(online)
		c.publish(ctx, events.TopicLockCancelledByOwner, events.LockCancelledByOwner{
			Subject: subject, Owner: owner, Waiters: online,
		})
	}()
}

func (c *Coordinator) publish(ctx context.Context, topic string, event any) {
	if err := c.pub.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish session event", "topic", topic, "error", err)
	}
}
