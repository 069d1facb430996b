package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arzormc/warden/internal/config"
	"github.com/arzormc/warden/internal/presence"
	"github.com/arzormc/warden/internal/session"
)

// handleHeartbeat handles POST /v1/presence/heartbeat.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if s.Presence == nil {
		writeError(w, http.StatusServiceUnavailable, "presence tracking disabled")
		return
	}

	var in struct {
		Moderator string `json:"moderator"`
		Name      string `json:"name"`
		Event     string `json:"event"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Moderator == "" {
		writeError(w, http.StatusBadRequest, "moderator is required")
		return
	}
	if in.Event == "" {
		in.Event = "heartbeat"
	}

	s.Presence.Record(presence.Heartbeat{
		Moderator: in.Moderator,
		Name:      in.Name,
		Event:     in.Event,
	})

	// A quit is an explicit disconnect; tear the moderator's state down
	// now instead of waiting for the reaper.
	if in.Event == "quit" {
		s.HandleOffline(in.Moderator)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRoster handles GET /v1/presence/roster.
// Each roster entry is enriched with the moderator's current session, if
// any.
func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	if s.Presence == nil {
		writeJSON(w, http.StatusOK, map[string]any{"moderators": []any{}})
		return
	}

	// Parse optional stale_threshold_secs query param (default: 30 min).
	staleThreshold := 30 * time.Minute
	if v := r.URL.Query().Get("stale_threshold_secs"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			staleThreshold = time.Duration(secs) * time.Second
		}
	}

	entries := s.Presence.Roster(staleThreshold)

	type rosterEntry struct {
		Moderator string  `json:"moderator"`
		Name      string  `json:"name,omitempty"`
		IdleSecs  float64 `json:"idle_secs"`
		LastEvent string  `json:"last_event,omitempty"`
		Reaped    bool    `json:"reaped,omitempty"`
		SessionID string  `json:"session_id,omitempty"`
		Subject   string  `json:"subject,omitempty"`
		Capturing bool    `json:"capturing,omitempty"`
	}

	moderators := make([]rosterEntry, 0, len(entries))
	for _, e := range entries {
		re := rosterEntry{
			Moderator: e.Moderator,
			Name:      e.Name,
			IdleSecs:  e.IdleSecs,
			LastEvent: e.LastEvent,
			Reaped:    e.Reaped,
			Capturing: s.capture.Active(e.Moderator),
		}
		if sess, ok := s.coordinator.Get(e.Moderator); ok {
			re.SessionID = sess.ID
			re.Subject = sess.Subject
		}
		moderators = append(moderators, re)
	}

	writeJSON(w, http.StatusOK, map[string]any{"moderators": moderators})
}

// handleReload handles POST /v1/reload. The layout file is re-read and
// swapped in for subsequent requests. Pending captures are always
// cleared; live sessions are cancelled only when the layout says so.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.layoutPath == "" {
		writeError(w, http.StatusBadRequest, "no layout path configured")
		return
	}

	layout, err := config.LoadLayout(s.layoutPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reload layout: "+err.Error())
		return
	}
	s.layout.Store(layout)

	s.capture.CancelAll(r.Context())
	cancelled := 0
	if layout.CancelSessionsOnReload {
		cancelled = s.coordinator.CancelAll(r.Context(), session.CauseReload)
	}

	slog.Info("layout reloaded",
		"path", s.layoutPath,
		"categories", len(layout.CategoryIDs()),
		"sessions_cancelled", cancelled,
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"categories":         layout.CategoryIDs(),
		"sessions_cancelled": cancelled,
	})
}
