package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Chat handles POST /chat. Answering failures still reply 200 with the apology text.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	reply := s.svc.Chat.Chat(ctx, req.Message, req.SessionID)
	setTokenHeaders(w, usage)

	resp := chatResponse{Response: reply.Text, SessionID: reply.SessionID}
	for _, m := range reply.Sources {
		resp.Sources = append(resp.Sources, metadataResult{Source: m.Source, Page: m.Page})
	}
	writeJSON(w, http.StatusOK, resp)
}

// DetectIntent handles POST /detect-intent.
func (s *Server) DetectIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	intent := s.svc.Intent.Detect(ctx, req.Query)
	setTokenHeaders(w, usage)

	writeJSON(w, http.StatusOK, intentResponse{Intent: string(intent)})
}
