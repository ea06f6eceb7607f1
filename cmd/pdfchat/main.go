package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/chunker"
	"github.com/kailas-cloud/pdfchat/internal/config"
	dbRedis "github.com/kailas-cloud/pdfchat/internal/db/redis"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	logpkg "github.com/kailas-cloud/pdfchat/internal/logger"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
	"github.com/kailas-cloud/pdfchat/internal/pdfextract"
	budgetrepo "github.com/kailas-cloud/pdfchat/internal/repository/budget"
	"github.com/kailas-cloud/pdfchat/internal/repository/chunkindex"
	"github.com/kailas-cloud/pdfchat/internal/repository/embcache"
	"github.com/kailas-cloud/pdfchat/internal/repository/session"
	chiTransport "github.com/kailas-cloud/pdfchat/internal/transport/chi"
	openaiProvider "github.com/kailas-cloud/pdfchat/internal/transport/openai"
	budgetuc "github.com/kailas-cloud/pdfchat/internal/usecase/budget"
	chatuc "github.com/kailas-cloud/pdfchat/internal/usecase/chat"
	completionuc "github.com/kailas-cloud/pdfchat/internal/usecase/completion"
	embeddinguc "github.com/kailas-cloud/pdfchat/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/pdfchat/internal/usecase/ingest"
	intentuc "github.com/kailas-cloud/pdfchat/internal/usecase/intent"
	queryuc "github.com/kailas-cloud/pdfchat/internal/usecase/query"
	usageuc "github.com/kailas-cloud/pdfchat/internal/usecase/usage"
	"github.com/kailas-cloud/pdfchat/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pdfchat API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("index", cfg.Index.Name),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.Register()

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o750); err != nil {
		logger.Fatal("Failed to create upload dir", zap.String("dir", cfg.Storage.UploadDir), zap.Error(err))
	}

	// One tracker per provider, shared by the decorators and the usage report.
	budgetStore := budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL)
	embBudget := newTracker(ctx, "embedding", cfg.Storage.KeyPrefix, cfg.Embedding.Budget, budgetStore, logger)
	llmBudget := newTracker(ctx, "llm", cfg.Storage.KeyPrefix, cfg.LLM.Budget, budgetStore, logger)

	embedder, err := buildEmbedder(cfg, store, embBudget, logger)
	if err != nil {
		logger.Fatal("Failed to build embedder", zap.Error(err))
	}
	completer := buildCompleter(cfg, llmBudget, logger)
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("llm_model", cfg.LLM.Model),
	)

	index := chunkindex.New(store, embedder, chunkindex.Config{
		IndexName:  cfg.Index.Name,
		KeyPrefix:  cfg.Storage.KeyPrefix,
		Dimensions: cfg.Embedding.Dimensions,
		HNSWM:      cfg.Index.HNSWM,
		HNSWEF:     cfg.Index.HNSWEFConstruct,
	}, logger)
	if err := index.EnsureReady(ctx); err != nil {
		logger.Fatal("Vector index not ready", zap.Error(err))
	}

	splitter, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.OverlapBytes())
	if err != nil {
		logger.Fatal("Invalid chunking settings", zap.Error(err))
	}
	extractor := pdfextract.New(splitter, logger)

	sessions := session.NewStore(cfg.Memory.WindowSize)

	server := chiTransport.NewServer(chiTransport.Services{
		Chat:   chatuc.New(index, completer, sessions, cfg.Retrieval.ChatTopK, logger),
		Query:  queryuc.New(index, cfg.Retrieval.DefaultTopK, cfg.Retrieval.MaxTopK),
		Ingest: ingestuc.New(extractor, index, logger),
		Intent: intentuc.New(completer, logger),
		Index:  index,
		Usage:  usageuc.New(embBudget, llmBudget),
		Health: healthuc.New(store, embedder, index),
	}, chiTransport.Options{
		UploadDir:      cfg.Storage.UploadDir,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		AdminKeys:      cfg.Auth.APIKeys,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware("/metrics"))
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newTracker(
	ctx context.Context,
	provider, keyPrefix string,
	b config.BudgetConfig,
	s budgetuc.Store,
	logger *zap.Logger,
) *budgetuc.Tracker {
	action := budgetuc.ActionWarn
	if b.Action == string(budgetuc.ActionReject) {
		action = budgetuc.ActionReject
	}
	return budgetuc.NewTracker(provider, keyPrefix, budgetuc.Limits{
		Daily:   b.DailyTokenLimit,
		Monthly: b.MonthlyTokenLimit,
		Action:  action,
	}, logger).WithStore(ctx, s)
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Cached.
// The cache is outermost so hits never count against the budget.
func buildEmbedder(
	cfg config.Config,
	store *dbRedis.Store,
	budget *budgetuc.Tracker,
	logger *zap.Logger,
) (*embcache.CachedEmbedder, error) {
	base := openaiProvider.NewEmbedder(&openaiProvider.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(base, cfg.Embedding.Model, budget, logger)

	cached, err := embcache.New(embedder, store, embcache.Config{
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		KeyPrefix:  cfg.Storage.KeyPrefix,
		Size:       cfg.Embedding.Cache.Size,
		TTL:        time.Duration(cfg.Embedding.Cache.TTLSec) * time.Second,
	}, metrics.EmbeddingCacheTotal, logger)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return cached, nil
}

func buildCompleter(cfg config.Config, budget *budgetuc.Tracker, logger *zap.Logger) domain.Completer {
	base := openaiProvider.NewCompleter(&openaiProvider.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Logger:      logger,
	})
	return completionuc.NewInstrumentedCompleter(base, cfg.LLM.Model, budget, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"status_code": http.StatusInternalServerError,
						"message":     "internal error",
						"details":     fmt.Sprint(rvr),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
