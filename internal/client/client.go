// Package client provides a transport-agnostic interface for the warden
// service and an HTTP/JSON implementation that talks to the warden REST API.
package client

import (
	"context"

	"github.com/arzormc/warden/internal/model"
)

// WardenClient is the interface the CLI commands use to communicate with
// the warden server. It is implemented by HTTPClient (default) and can be
// backed by any transport.
type WardenClient interface {
	// Sessions
	StartSession(ctx context.Context, req *StartSessionRequest) (*StartSessionResponse, error)
	GetSession(ctx context.Context, moderator string) (*model.SessionSnapshot, error)
	ListSessions(ctx context.Context) ([]model.SessionSnapshot, error)
	CancelSession(ctx context.Context, moderator string) (*model.SessionSnapshot, error)
	SetCategory(ctx context.Context, moderator, category string) (*model.SessionSnapshot, error)
	SetLevel(ctx context.Context, moderator string, level int) (*model.SessionSnapshot, error)
	SetSilent(ctx context.Context, moderator string, silent bool) (*model.SessionSnapshot, error)
	BeginReason(ctx context.Context, moderator string) (*CaptureResponse, error)
	Dispatch(ctx context.Context, moderator string) (*DispatchResponse, error)

	// Chat intake
	Chat(ctx context.Context, moderator, text string) (consumed bool, err error)

	// History
	BrowseHistory(ctx context.Context, req *BrowseHistoryRequest) (*BrowseHistoryResponse, error)
	StageAction(ctx context.Context, req *StageActionRequest) (*StageActionResponse, error)
	ConfirmAction(ctx context.Context, moderator string) (*HistoryEntry, error)
	CancelAction(ctx context.Context, moderator string) (cancelled bool, err error)

	// Presence
	Heartbeat(ctx context.Context, moderator, name, event string) error
	Roster(ctx context.Context) ([]RosterEntry, error)

	// Admin
	Reload(ctx context.Context) (*ReloadResponse, error)
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// StartSessionRequest opens a session against a subject.
type StartSessionRequest struct {
	Moderator     string `json:"moderator"`
	ModeratorName string `json:"moderator_name,omitempty"`
	Subject       string `json:"subject"`
	SubjectName   string `json:"subject_name,omitempty"`
}

// StartSessionResponse reports the lock outcome. Acquired=false means the
// subject is held by Holder and the caller was queued as a waiter.
type StartSessionResponse struct {
	Acquired bool                   `json:"acquired"`
	Reused   bool                   `json:"reused,omitempty"`
	Replaced string                 `json:"replaced,omitempty"`
	Holder   string                 `json:"holder,omitempty"`
	Session  *model.SessionSnapshot `json:"session,omitempty"`
}

// CaptureResponse acknowledges an opened reason prompt.
type CaptureResponse struct {
	Capturing      bool   `json:"capturing"`
	SessionID      string `json:"session_id,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// DispatchResponse carries the rendered punishment command.
type DispatchResponse struct {
	Command string                `json:"command"`
	Session model.SessionSnapshot `json:"session"`
}

// BrowseHistoryRequest filters and pages a subject's history.
type BrowseHistoryRequest struct {
	Subject string
	Kind    string
	Limit   int
	Offset  int
}

// HistoryEntry is an entry with its server-derived display fields.
type HistoryEntry struct {
	model.Entry
	Status      model.EntryStatus `json:"status"`
	TypeDisplay string            `json:"type_display"`
	Duration    string            `json:"duration,omitempty"`
}

// BrowseHistoryResponse is one page of a subject's history.
type BrowseHistoryResponse struct {
	Subject string             `json:"subject"`
	Entries []HistoryEntry     `json:"entries"`
	Total   int                `json:"total"`
	Totals  map[model.Kind]int `json:"totals"`
}

// StageActionRequest stages a pardon or reinstate. A nil Reason asks the
// server to collect one over the moderator's chat.
type StageActionRequest struct {
	Moderator string  `json:"moderator"`
	ActorName string  `json:"actor_name,omitempty"`
	Type      string  `json:"type"`
	Kind      string  `json:"kind"`
	EntryID   int64   `json:"entry_id"`
	Reason    *string `json:"reason,omitempty"`
}

// StageActionResponse is either the staged action or a capture
// acknowledgement, depending on whether a reason was supplied.
type StageActionResponse struct {
	ID             string `json:"id,omitempty"`
	Type           string `json:"type,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Capturing      bool   `json:"capturing,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// RosterEntry is one moderator on the presence roster.
type RosterEntry struct {
	Moderator string  `json:"moderator"`
	Name      string  `json:"name,omitempty"`
	IdleSecs  float64 `json:"idle_secs"`
	LastEvent string  `json:"last_event,omitempty"`
	Reaped    bool    `json:"reaped,omitempty"`
	SessionID string  `json:"session_id,omitempty"`
	Subject   string  `json:"subject,omitempty"`
	Capturing bool    `json:"capturing,omitempty"`
}

// ReloadResponse reports the result of a layout reload.
type ReloadResponse struct {
	Categories        []string `json:"categories"`
	SessionsCancelled int      `json:"sessions_cancelled"`
}
