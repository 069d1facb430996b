// Package history implements audit-safe mutation of punishment records:
// pardons and reinstatements that rewrite a single row while preserving the
// full removal trail in the legacy removed_by_reason column. Mutations are
// staged first and applied on confirm; the row is re-validated inside the
// confirming transaction, since another moderator (or the punishment
// backend itself) may have changed it in between.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arzormc/warden/internal/events"
	"github.com/arzormc/warden/internal/idgen"
	"github.com/arzormc/warden/internal/model"
	"github.com/arzormc/warden/internal/store"
)

// Action types for staged mutations.
const (
	ActionPardon    = "pardon"
	ActionReinstate = "reinstate"
)

var (
	// ErrNotPardonable: the entry is not currently in force.
	ErrNotPardonable = errors.New("entry is not active")
	// ErrNotReinstatable: the entry is in force or was never removed.
	ErrNotReinstatable = errors.New("entry cannot be reinstated")
	// ErrReinstateExpired: the entry's original term has already run out,
	// so there is nothing left to put back in force.
	ErrReinstateExpired = errors.New("entry term has expired")
	// ErrImmutableKind: kicks have no removal lifecycle.
	ErrImmutableKind = errors.New("punishment kind cannot be modified")
	// ErrUnknownAction: no staged action with that id.
	ErrUnknownAction = errors.New("unknown pending action")
)

// PendingAction is a staged mutation awaiting confirmation.
type PendingAction struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Kind     model.Kind `json:"kind"`
	EntryID  int64      `json:"entry_id"`
	Subject  string     `json:"subject"`
	Actor    string     `json:"actor"`
	Reason   string     `json:"reason"`
	StagedAt time.Time  `json:"staged_at"`
}

// Engine stages and applies history mutations.
type Engine struct {
	store store.Store
	pub   events.Publisher
	now   func() time.Time

	mu      sync.Mutex
	pending map[string]*PendingAction
}

// NewEngine creates a history engine.
func NewEngine(st store.Store, pub events.Publisher) *Engine {
	return &Engine{
		store:   st,
		pub:     pub,
		now:     time.Now,
		pending: make(map[string]*PendingAction),
	}
}

// Browse returns the subject's full punishment history, newest first.
func (e *Engine) Browse(ctx context.Context, subject string) ([]*model.Entry, error) {
	return e.store.ListHistory(ctx, subject)
}

// StagePardon validates and stages a pardon of the entry. The mutation is
// not applied until Confirm.
func (e *Engine) StagePardon(ctx context.Context, kind model.Kind, entryID int64, actor, reason string) (*PendingAction, error) {
	entry, err := e.fetchMutable(ctx, kind, entryID)
	if err != nil {
		return nil, err
	}
	if err := e.checkPardonable(entry); err != nil {
		return nil, err
	}
	return e.stage(ActionPardon, entry, actor, reason)
}

// StageReinstate validates and stages a reinstatement of the entry.
func (e *Engine) StageReinstate(ctx context.Context, kind model.Kind, entryID int64, actor, reason string) (*PendingAction, error) {
	entry, err := e.fetchMutable(ctx, kind, entryID)
	if err != nil {
		return nil, err
	}
	if err := e.checkReinstatable(entry); err != nil {
		if errors.Is(err, ErrReinstateExpired) {
			e.publishReinstateExpired(ctx, entry, actor)
		}
		return nil, err
	}
	return e.stage(ActionReinstate, entry, actor, reason)
}

// Pending returns the staged action, if present.
func (e *Engine) Pending(actionID string) (*PendingAction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.pending[actionID]
	return a, ok
}

// CancelAction discards a staged action.
func (e *Engine) CancelAction(actionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.pending[actionID]; !ok {
		return false
	}
	delete(e.pending, actionID)
	return true
}

// Confirm applies a staged action. The entry is re-read and re-validated in
// the same transaction as the write, so a row mutated since staging fails
// eligibility instead of being silently overwritten.
func (e *Engine) Confirm(ctx context.Context, actionID string) (*model.Entry, error) {
	e.mu.Lock()
	a, ok := e.pending[actionID]
	if !ok {
		e.mu.Unlock()
		return nil, ErrUnknownAction
	}
	delete(e.pending, actionID)
	e.mu.Unlock()

	var result *model.Entry
	err := e.store.RunInTransaction(ctx, func(tx store.Store) error {
		entry, err := tx.GetEntry(ctx, a.Kind, a.EntryID)
		if err != nil {
			return fmt.Errorf("reload entry: %w", err)
		}

		switch a.Type {
		case ActionPardon:
			if err := e.checkPardonable(entry); err != nil {
				return err
			}
			column := model.ComposePardonColumn(a.Reason, entry.RemovedByReason)
			if err := tx.Deactivate(ctx, a.Kind, a.EntryID, a.Actor, column, e.nowMillis()); err != nil {
				return err
			}
		case ActionReinstate:
			if err := e.checkReinstatable(entry); err != nil {
				return err
			}
			column := model.AppendReissue(entry.RemovedByReason, a.Actor, e.nowMillis(), a.Reason)
			until := model.StoredUnit(entry.UntilMillis, entry.UntilWasSeconds)
			if err := tx.Reactivate(ctx, a.Kind, a.EntryID, until, column); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown action type %q", a.Type)
		}

		result, err = tx.GetEntry(ctx, a.Kind, a.EntryID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrReinstateExpired) {
			e.publish(ctx, events.TopicHistoryReinstateExpired, events.HistoryReinstateExpired{
				Kind: a.Kind, EntryID: a.EntryID, Subject: a.Subject, Actor: a.Actor,
			})
		}
		return nil, err
	}

	switch a.Type {
	case ActionPardon:
		e.publish(ctx, events.TopicHistoryPardoned, events.HistoryPardoned{
			Kind: a.Kind, EntryID: a.EntryID, Subject: a.Subject, Actor: a.Actor, Reason: a.Reason,
		})
	case ActionReinstate:
		e.publish(ctx, events.TopicHistoryReinstated, events.HistoryReinstated{
			Kind: a.Kind, EntryID: a.EntryID, Subject: a.Subject, Actor: a.Actor, Reason: a.Reason,
		})
	}
	return result, nil
}

func (e *Engine) fetchMutable(ctx context.Context, kind model.Kind, entryID int64) (*model.Entry, error) {
	if !kind.Mutable() {
		return nil, ErrImmutableKind
	}
	return e.store.GetEntry(ctx, kind, entryID)
}

func (e *Engine) checkPardonable(entry *model.Entry) error {
	if !entry.Kind.Mutable() {
		return ErrImmutableKind
	}
	if !entry.ActiveNow(e.nowMillis()) {
		return ErrNotPardonable
	}
	return nil
}

func (e *Engine) checkReinstatable(entry *model.Entry) error {
	if !entry.Kind.Mutable() {
		return ErrImmutableKind
	}
	now := e.nowMillis()
	if entry.ActiveNow(now) || !entry.EverRemoved() {
		return ErrNotReinstatable
	}
	if !entry.CanReinstate(now) {
		return ErrReinstateExpired
	}
	return nil
}

func (e *Engine) publishReinstateExpired(ctx context.Context, entry *model.Entry, actor string) {
	e.publish(ctx, events.TopicHistoryReinstateExpired, events.HistoryReinstateExpired{
		Kind: entry.Kind, EntryID: entry.ID, Subject: entry.Subject, Actor: actor,
	})
}

func (e *Engine) stage(typ string, entry *model.Entry, actor, reason string) (*PendingAction, error) {
	id, err := idgen.GenerateWithPrefix("act-")
	if err != nil {
		return nil, err
	}
	a := &PendingAction{
		ID:       id,
		Type:     typ,
		Kind:     entry.Kind,
		EntryID:  entry.ID,
		Subject:  entry.Subject,
		Actor:    actor,
		Reason:   reason,
		StagedAt: e.now().UTC(),
	}
	e.mu.Lock()
	e.pending[id] = a
	e.mu.Unlock()
	return a, nil
}

func (e *Engine) nowMillis() int64 {
	return e.now().UnixMilli()
}

func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if err := e.pub.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish history event", "topic", topic, "error", err)
	}
}
