package chi

import (
	"encoding/json"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

const welcomeMessage = "Welcome to the PDF Chatbot API!"

// Services bundles the use cases the HTTP API exposes.
type Services struct {
	Chat   ChatService
	Query  QueryService
	Ingest IngestService
	Intent IntentService
	Index  IndexAdmin
	Usage  UsageService
	Health HealthService
}

// Options configures request handling.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	// AdminKeys guard destructive routes. Empty disables the check.
	AdminKeys []string
}

// Server holds the HTTP handlers of the chatbot API.
type Server struct {
	svc           Services
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, opts Options, logger *zap.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "uploaded_pdfs"
	}
	s := &Server{svc: svc, opts: opts, logger: logger}
	s.errorHandlers = defaultErrorHandlers()
	return s
}

// Routes mounts all endpoints on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/", s.Root)
	r.Post("/chat", s.Chat)
	r.Post("/query", s.Query)
	r.Post("/upload-pdf", s.UploadPDF)
	r.Post("/detect-intent", s.DetectIntent)

	r.Route("/sessions", func(r gochi.Router) {
		r.Get("/", s.ListSessions)
		r.Get("/{id}", s.GetSession)
		r.Delete("/{id}", s.DeleteSession)
	})

	r.Get("/index", s.IndexStats)
	r.With(BearerAuthMiddleware(s.opts.AdminKeys)).Delete("/index", s.DeleteIndex)

	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: welcomeMessage})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err //nolint:wrapcheck // surfaced to the client as a 400 message
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// setTokenHeaders reports provider tokens consumed by the request.
func setTokenHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	emb, llm := usage.Totals()
	if emb > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(emb))
	}
	if llm > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(llm))
	}
}
