package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/arzormc/warden/internal/capture"
	"github.com/arzormc/warden/internal/model"
	"github.com/arzormc/warden/internal/session"
)

type startSessionInput struct {
	Moderator     string `json:"moderator"`
	ModeratorName string `json:"moderator_name"`
	Subject       string `json:"subject"`
	SubjectName   string `json:"subject_name"`
}

// handleStartSession handles POST /v1/sessions.
// A subject held by another moderator is not an HTTP error: the response
// carries acquired=false plus the holder, and the caller is queued as a
// waiter.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var in startSessionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Moderator == "" || in.Subject == "" {
		writeError(w, http.StatusBadRequest, "moderator and subject are required")
		return
	}

	res, err := s.coordinator.Start(r.Context(), in.Moderator, in.ModeratorName, in.Subject, in.SubjectName)
	if err != nil {
		var locked *session.LockedError
		if errors.As(err, &locked) {
			out := map[string]any{
				"acquired": false,
				"holder":   locked.Holder,
			}
			if res.Session != nil {
				out["session"] = res.Session.Snapshot()
			}
			writeJSON(w, http.StatusOK, out)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"acquired": true,
		"reused":   res.Reused,
		"replaced": res.Replaced,
		"session":  res.Session.Snapshot(),
	})
}

// handleListSessions handles GET /v1/sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.coordinator.Active()
	if sessions == nil {
		sessions = []model.SessionSnapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// handleGetSession handles GET /v1/sessions/{moderator}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.coordinator.Get(r.PathValue("moderator"))
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleCancelSession handles DELETE /v1/sessions/{moderator}. The owner
// walking away is the one cause that notifies waiters.
func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	moderator := r.PathValue("moderator")
	s.capture.Cancel(r.Context(), moderator)
	sess, err := s.coordinator.Cancel(r.Context(), moderator, session.CauseOwner)
	if err != nil {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleSetCategory handles PUT /v1/sessions/{moderator}/category.
func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.coordinator.Get(r.PathValue("moderator"))
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}

	var in struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cat, ok := s.Layout().Category(in.Category)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown category: "+in.Category)
		return
	}
	if err := sess.SetCategory(cat.ID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleSetLevel handles PUT /v1/sessions/{moderator}/level. Selecting a
// level before a category is a 400, not a silent default.
func (s *Server) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.coordinator.Get(r.PathValue("moderator"))
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}

	var in struct {
		Level json.Number `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	levelID, err := strconv.Atoi(in.Level.String())
	if err != nil {
		writeError(w, http.StatusBadRequest, "level must be an integer")
		return
	}

	if sess.Category() == "" {
		writeError(w, http.StatusBadRequest, model.ErrLevelBeforeCategory.Error())
		return
	}
	cat, ok := s.Layout().Category(sess.Category())
	if !ok {
		// Layout changed underneath the session.
		writeError(w, http.StatusConflict, "session category no longer exists")
		return
	}
	level, ok := cat.Level(levelID)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown level for category "+cat.ID)
		return
	}
	if err := sess.SetLevel(level); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleSetSilent handles PUT /v1/sessions/{moderator}/silent.
func (s *Server) handleSetSilent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.coordinator.Get(r.PathValue("moderator"))
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}

	var in struct {
		Silent bool `json:"silent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess.SetSilent(in.Silent)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleBeginReason handles POST /v1/sessions/{moderator}/reason. The
// prompt resolves off-request: a captured reason (or an explicit "none")
// lands on the session, a cancel word or timeout leaves it untouched.
func (s *Server) handleBeginReason(w http.ResponseWriter, r *http.Request) {
	moderator := r.PathValue("moderator")
	sess, ok := s.coordinator.Get(moderator)
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	if sess.Category() == "" {
		writeError(w, http.StatusBadRequest, "select a category and level first")
		return
	}
	if _, ok := sess.Level(); !ok {
		writeError(w, http.StatusBadRequest, "select a level first")
		return
	}

	s.capture.Begin(r.Context(), sess.ID, moderator, func(res capture.Result) {
		switch res.Outcome {
		case capture.OutcomeReason:
			sess.SetReason(res.Reason)
		case capture.OutcomeNone:
			sess.SetReason("")
		}
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"capturing":       true,
		"session_id":      sess.ID,
		"timeout_seconds": s.Layout().TimeoutSeconds,
	})
}

// handleDispatch handles POST /v1/sessions/{moderator}/dispatch.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	moderator := r.PathValue("moderator")
	sess, ok := s.coordinator.Get(moderator)
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}

	cmd, err := s.dispatcher.Issue(r.Context(), sess)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	done, err := s.coordinator.Complete(r.Context(), moderator, cmd)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"command": cmd,
		"session": done.Snapshot(),
	})
}

// handleChat handles POST /v1/chat. Consumed lines were claimed by a
// pending capture and must not be re-delivered as chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Moderator string `json:"moderator"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(in.Moderator) == "" {
		writeError(w, http.StatusBadRequest, "moderator is required")
		return
	}

	consumed := s.HandleChat(r.Context(), in.Moderator, in.Text)
	writeJSON(w, http.StatusOK, map[string]any{"consumed": consumed})
}
