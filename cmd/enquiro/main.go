package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/config"
	"github.com/katsura919/enquiro-backend-go/internal/engine"
	"github.com/katsura919/enquiro-backend-go/internal/handler"
	"github.com/katsura919/enquiro-backend-go/internal/infra/cache"
	"github.com/katsura919/enquiro-backend-go/internal/infra/client"
	"github.com/katsura919/enquiro-backend-go/internal/infra/llm"
	"github.com/katsura919/enquiro-backend-go/internal/infra/observability"
	"github.com/katsura919/enquiro-backend-go/internal/infra/resilience"
	"github.com/katsura919/enquiro-backend-go/internal/infra/supabase"
	"github.com/katsura919/enquiro-backend-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("llm_model", cfg.LLMChatModel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("history_window_limit", cfg.HistoryWindowLimit),
		zap.Int("confidence_threshold", cfg.ConfidenceThreshold),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "enquiro-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	generator := llm.NewGenerator(llm.Config{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		ChatModel:   cfg.LLMChatModel,
		Temperature: float32(cfg.LLMTemperature),
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	}, cb, resilienceCfg, logger)

	emailClient := client.NewEmailClient(httpClient, cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, cb, resilienceCfg)
	mailboxClient := client.NewMailboxClient(httpClient, cfg.MailboxAPIURL, cfg.MailboxAPIKey, cb, resilienceCfg)

	// --- Engine ---
	eng := engine.New(engine.Config{WindowLimit: cfg.HistoryWindowLimit})

	// --- Services ---
	knowledgeCache := cache.New[*service.KnowledgeSnapshot](cfg.CacheTTL)
	knowledgeSvc := service.NewKnowledgeService(store, knowledgeCache, metrics, logger)
	chatSvc := service.NewChatService(
		store, store, store,
		knowledgeSvc,
		generator,
		emailClient,
		mailboxClient,
		eng,
		cfg.ConfidenceThreshold,
		metrics,
		logger,
	)
	businessSvc := service.NewBusinessService(store, store, knowledgeSvc, logger)
	escalationSvc := service.NewEscalationService(store, store, emailClient, mailboxClient, logger)
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Chat:       chatSvc,
		Business:   businessSvc,
		Escalation: escalationSvc,
		Auth:       authSvc,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
