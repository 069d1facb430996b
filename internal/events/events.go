package events

import (
	"context"

	"github.com/arzormc/warden/internal/model"
)

// Event topic constants
const (
	// Session lifecycle
	TopicSessionStarted   = "warden.session.started"
	TopicSessionCompleted = "warden.session.completed"
	TopicSessionCancelled = "warden.session.cancelled"

	// Target lock outcomes
	TopicLockDenied           = "warden.lock.denied"
	TopicLockCancelledByOwner = "warden.lock.cancelled_by_owner"

	// Reason capture
	TopicPromptOpened    = "warden.prompt.opened"
	TopicPromptCaptured  = "warden.prompt.captured"
	TopicPromptCancelled = "warden.prompt.cancelled"
	TopicPromptTimeout   = "warden.prompt.timeout"

	// History mutation
	TopicHistoryPardoned         = "warden.history.pardoned"
	TopicHistoryReinstated       = "warden.history.reinstated"
	TopicHistoryReinstateExpired = "warden.history.reinstate_expired"

	// Punishment dispatch (consumed by the game-side executor)
	TopicDispatchIssued = "warden.dispatch.issued"

	// Chat intake (emitted by the game side, consumed by warden).
	TopicChatIncoming = "warden.chat.incoming"
)

// Event types

type SessionStarted struct {
	Session model.SessionSnapshot `json:"session"`
	// Replaced is the id of the owner's previous session on another
	// subject, when replacement is allowed and occurred.
	Replaced string `json:"replaced,omitempty"`
}

type SessionCompleted struct {
	Session model.SessionSnapshot `json:"session"`
	Command string                `json:"command"`
}

type SessionCancelled struct {
	Session model.SessionSnapshot `json:"session"`
	// Cause distinguishes owner cancels from timeouts, reloads, and
	// presence expiry.
	Cause string `json:"cause"`
}

type LockDenied struct {
	Subject   string `json:"subject"`
	Holder    string `json:"holder"`
	Requester string `json:"requester"`
}

type LockCancelledByOwner struct {
	Subject string   `json:"subject"`
	Owner   string   `json:"owner"`
	Waiters []string `json:"waiters,omitempty"`
}

type PromptOpened struct {
	SessionID      string `json:"session_id"`
	Moderator      string `json:"moderator"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type PromptCaptured struct {
	SessionID string `json:"session_id"`
	Moderator string `json:"moderator"`
	Reason    string `json:"reason"`
	// None marks an explicit no-reason capture.
	None bool `json:"none,omitempty"`
}

type PromptCancelled struct {
	SessionID string `json:"session_id"`
	Moderator string `json:"moderator"`
}

type PromptTimeout struct {
	SessionID string `json:"session_id"`
	Moderator string `json:"moderator"`
}

type HistoryPardoned struct {
	Kind    model.Kind `json:"kind"`
	EntryID int64      `json:"entry_id"`
	Subject string     `json:"subject"`
	Actor   string     `json:"actor"`
	Reason  string     `json:"reason"`
}

type HistoryReinstated struct {
	Kind    model.Kind `json:"kind"`
	EntryID int64      `json:"entry_id"`
	Subject string     `json:"subject"`
	Actor   string     `json:"actor"`
	Reason  string     `json:"reason"`
}

// HistoryReinstateExpired reports a reinstate blocked because the
// entry's original term has already run out. It gets its own topic so
// the actor sees why the action was refused rather than a generic
// failure.
type HistoryReinstateExpired struct {
	Kind    model.Kind `json:"kind"`
	EntryID int64      `json:"entry_id"`
	Subject string     `json:"subject"`
	Actor   string     `json:"actor"`
}

type DispatchIssued struct {
	SessionID string `json:"session_id"`
	Moderator string `json:"moderator"`
	Subject   string `json:"subject"`
	Command   string `json:"command"`
	Silent    bool   `json:"silent"`
}

// ChatIncoming is the payload warden consumes from the chat intake topic:
// one chat line from a player who may have a capture prompt open.
type ChatIncoming struct {
	Moderator string `json:"moderator"`
	Text      string `json:"text"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
