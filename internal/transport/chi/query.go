package chi

import (
	"net/http"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	queryuc "github.com/kailas-cloud/pdfchat/internal/usecase/query"
)

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.TopK != nil && *req.TopK <= 0 {
		writeError(w, http.StatusBadRequest, "top_k must be positive")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	chunks, err := s.svc.Query.QueryResult(ctx, queryuc.Request{
		Query:  req.Query,
		TopK:   derefInt(req.TopK),
		Source: req.Source,
	})
	setTokenHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := queryResponse{Results: make([]queryResult, len(chunks))}
	for i, c := range chunks {
		resp.Results[i] = queryResult{
			ID:       c.ID,
			Content:  c.Content,
			Metadata: metadataResult{Source: c.Metadata.Source, Page: c.Metadata.Page},
			Score:    c.Score,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
