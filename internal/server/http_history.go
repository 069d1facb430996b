package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arzormc/warden/internal/capture"
	"github.com/arzormc/warden/internal/history"
	"github.com/arzormc/warden/internal/model"
)

// historyEntry augments a raw entry with display fields derived at
// response time.
type historyEntry struct {
	*model.Entry
	Status      model.EntryStatus `json:"status"`
	TypeDisplay string            `json:"type_display"`
	Duration    string            `json:"duration,omitempty"`
}

// handleBrowseHistory handles GET /v1/history/{subject}.
// Entries merge across all four punishment tables, newest first, with
// optional kind filtering and limit/offset paging. Totals count per kind
// before paging.
func (s *Server) handleBrowseHistory(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("subject")

	entries, err := s.history.Browse(r.Context(), subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	q := r.URL.Query()
	var kindFilter model.Kind
	if v := q.Get("kind"); v != "" {
		kindFilter = model.ParseKind(v)
		if !kindFilter.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown kind: "+v)
			return
		}
	}

	totals := make(map[model.Kind]int)
	filtered := make([]*model.Entry, 0, len(entries))
	for _, e := range entries {
		totals[e.Kind]++
		if kindFilter == "" || e.Kind == kindFilter {
			filtered = append(filtered, e)
		}
	}
	total := len(filtered)

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	if offset > len(filtered) {
		offset = len(filtered)
	}
	filtered = filtered[offset:]
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(filtered) {
			filtered = filtered[:n]
		}
	}

	now := time.Now().UnixMilli()
	out := make([]historyEntry, 0, len(filtered))
	for _, e := range filtered {
		out = append(out, historyEntry{
			Entry:       e,
			Status:      e.Status(now),
			TypeDisplay: e.TypeDisplay(),
			Duration:    e.DurationDisplay(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subject": subject,
		"entries": out,
		"total":   total,
		"totals":  totals,
	})
}

type stageActionInput struct {
	Moderator string `json:"moderator"`
	ActorName string `json:"actor_name"`
	Type      string `json:"type"`
	Kind      string `json:"kind"`
	EntryID   int64  `json:"entry_id"`
	// Reason, when set, stages immediately. When absent the reason is
	// collected through a capture prompt on the moderator's chat.
	Reason *string `json:"reason"`
}

// handleStageAction handles POST /v1/history/actions.
func (s *Server) handleStageAction(w http.ResponseWriter, r *http.Request) {
	var in stageActionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Moderator == "" {
		writeError(w, http.StatusBadRequest, "moderator is required")
		return
	}
	if in.Type != history.ActionPardon && in.Type != history.ActionReinstate {
		writeError(w, http.StatusBadRequest, "type must be pardon or reinstate")
		return
	}
	kind := model.ParseKind(in.Kind)
	if !kind.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown kind: "+in.Kind)
		return
	}
	actor := in.ActorName
	if actor == "" {
		actor = in.Moderator
	}

	if in.Reason != nil {
		action, err := s.stageAction(r.Context(), in.Type, kind, in.EntryID, actor, *in.Reason)
		if err != nil {
			writeStageError(w, err)
			return
		}
		s.setStaged(in.Moderator, action.ID)
		writeJSON(w, http.StatusCreated, action)
		return
	}

	// No reason given: run eligibility up front so the moderator is not
	// prompted for a doomed action, then capture the reason over chat.
	if err := s.precheckAction(r.Context(), in.Type, kind, in.EntryID, actor); err != nil {
		writeStageError(w, err)
		return
	}

	moderator := in.Moderator
	typ := in.Type
	entryID := in.EntryID
	s.capture.Begin(r.Context(), "", moderator, func(res capture.Result) {
		if res.Outcome != capture.OutcomeReason && res.Outcome != capture.OutcomeNone {
			return
		}
		ctx := context.Background()
		action, err := s.stageAction(ctx, typ, kind, entryID, actor, res.Reason)
		if err != nil {
			slog.Warn("staging history action after capture failed",
				"moderator", moderator,
				"type", typ,
				"kind", kind,
				"entry_id", entryID,
				"error", err,
			)
			return
		}
		s.setStaged(moderator, action.ID)
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"capturing":       true,
		"timeout_seconds": s.Layout().TimeoutSeconds,
	})
}

// handleConfirmAction handles POST /v1/history/actions/{moderator}/confirm.
// Eligibility is re-checked inside the store transaction; a failed confirm
// still consumes the staged action.
func (s *Server) handleConfirmAction(w http.ResponseWriter, r *http.Request) {
	moderator := r.PathValue("moderator")
	actionID, ok := s.takeStaged(moderator)
	if !ok {
		writeError(w, http.StatusNotFound, "no staged action")
		return
	}

	entry, err := s.history.Confirm(r.Context(), actionID)
	if err != nil {
		switch {
		case errors.Is(err, history.ErrUnknownAction):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, history.ErrNotPardonable),
			errors.Is(err, history.ErrNotReinstatable),
			errors.Is(err, history.ErrReinstateExpired):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "entry not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	now := time.Now().UnixMilli()
	writeJSON(w, http.StatusOK, historyEntry{
		Entry:       entry,
		Status:      entry.Status(now),
		TypeDisplay: entry.TypeDisplay(),
		Duration:    entry.DurationDisplay(),
	})
}

// handleCancelAction handles POST /v1/history/actions/{moderator}/cancel.
func (s *Server) handleCancelAction(w http.ResponseWriter, r *http.Request) {
	moderator := r.PathValue("moderator")
	s.capture.Cancel(r.Context(), moderator)
	actionID, ok := s.takeStaged(moderator)
	if ok {
		s.history.CancelAction(actionID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": ok})
}

func (s *Server) stageAction(ctx context.Context, typ string, kind model.Kind, entryID int64, actor, reason string) (*history.PendingAction, error) {
	if typ == history.ActionPardon {
		return s.history.StagePardon(ctx, kind, entryID, actor, reason)
	}
	return s.history.StageReinstate(ctx, kind, entryID, actor, reason)
}

// precheckAction stages and immediately cancels to reuse the engine's
// eligibility checks without leaving a dangling action.
func (s *Server) precheckAction(ctx context.Context, typ string, kind model.Kind, entryID int64, actor string) error {
	action, err := s.stageAction(ctx, typ, kind, entryID, actor, "")
	if err != nil {
		return err
	}
	s.history.CancelAction(action.ID)
	return nil
}

func writeStageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrNotPardonable),
		errors.Is(err, history.ErrNotReinstatable),
		errors.Is(err, history.ErrReinstateExpired),
		errors.Is(err, history.ErrImmutableKind):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "entry not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
