package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", s.handleStartSession)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{moderator}", s.handleGetSession)
	mux.HandleFunc("DELETE /v1/sessions/{moderator}", s.handleCancelSession)
	mux.HandleFunc("PUT /v1/sessions/{moderator}/category", s.handleSetCategory)
	mux.HandleFunc("PUT /v1/sessions/{moderator}/level", s.handleSetLevel)
	mux.HandleFunc("PUT /v1/sessions/{moderator}/silent", s.handleSetSilent)
	mux.HandleFunc("POST /v1/sessions/{moderator}/reason", s.handleBeginReason)
	mux.HandleFunc("POST /v1/sessions/{moderator}/dispatch", s.handleDispatch)
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("GET /v1/history/{subject}", s.handleBrowseHistory)
	mux.HandleFunc("POST /v1/history/actions", s.handleStageAction)
	mux.HandleFunc("POST /v1/history/actions/{moderator}/confirm", s.handleConfirmAction)
	mux.HandleFunc("POST /v1/history/actions/{moderator}/cancel", s.handleCancelAction)
	mux.HandleFunc("POST /v1/presence/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("GET /v1/presence/roster", s.handleRoster)
	mux.HandleFunc("POST /v1/reload", s.handleReload)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, RecoveryMiddleware(mux))
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
