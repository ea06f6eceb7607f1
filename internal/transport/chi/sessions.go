package chi

import (
	"net/http"

	gochi "github.com/go-chi/chi/v5"
)

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: s.svc.Chat.Sessions()})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")
	turns, err := s.svc.Chat.History(id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := sessionResponse{SessionID: id, Turns: make([]turnResponse, len(turns))}
	for i, t := range turns {
		resp.Turns[i] = turnResponse{User: t.User, Assistant: t.Assistant, At: t.At.UTC()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Chat.Clear(gochi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
