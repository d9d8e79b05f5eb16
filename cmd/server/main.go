// Command server starts the AI interviewer: the chat dispatcher plus the
// admin read API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/openrouter"
	aistub "github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/session"
	tikaext "github.com/fairyhunter13/ai-interviewer/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/transport/console"
	"github.com/fairyhunter13/ai-interviewer/internal/app"
	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/prompt"
	"github.com/fairyhunter13/ai-interviewer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	turnRepo := postgres.NewTurnRepo(pool)
	vacancyRepo := postgres.NewVacancyRepo(pool)
	evalRepo := postgres.NewEvaluationRepo(pool)
	resultRepo := postgres.NewResultRepo(pool)

	if cfg.VacancySeedPath != "" {
		if err := seedVacancies(ctx, vacancyRepo, cfg.VacancySeedPath); err != nil {
			slog.Error("vacancy seeding failed", slog.Any("error", err))
		}
	}

	// Session store: Redis when configured, otherwise process-local.
	var sessions domain.SessionStore
	if cfg.RedisAddr != "" {
		sessions = session.NewRedisStore(cfg.RedisAddr, cfg.SessionTTL)
		slog.Info("session store: redis", slog.String("addr", cfg.RedisAddr))
	} else {
		sessions = session.NewMemoryStore()
		slog.Info("session store: in-memory")
	}

	var aiClient domain.CompletionClient
	switch cfg.AIProvider {
	case "stub":
		aiClient = aistub.New()
		slog.Info("completion client: stub")
	default:
		aiClient = openrouter.New(cfg)
		slog.Info("completion client: openrouter", slog.String("model", cfg.OpenRouterModel))
	}
	if !aiClient.TestConnection(ctx) {
		slog.Warn("completion backend connection check failed")
	}

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	registry, err := loadPrompts(cfg)
	if err != nil {
		slog.Error("prompt templates failed to load", slog.Any("error", err))
		os.Exit(1)
	}

	extractor := tikaext.New(cfg.TikaURL)
	evaluator := usecase.NewEvaluationService(turnRepo, evalRepo, aiClient, registry)
	interviews := usecase.NewInterviewService(sessions, turnRepo, vacancyRepo, resultRepo,
		aiClient, registry, producer, extractor, evaluator, cfg)

	srv := httpserver.NewServer(cfg, turnRepo, evalRepo, resultRepo)
	handler := httpserver.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.ChatTransport == "console" {
		transport := console.New()
		dispatcher := app.NewDispatcher(interviews, transport, cfg.TypingInterval)
		go func() {
			if err := transport.Run(runCtx, os.Stdin, dispatcher); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("console transport stopped", slog.Any("error", err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer shutdownCancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}

func loadPrompts(cfg config.Config) (*prompt.Registry, error) {
	if cfg.PromptTemplatesPath != "" {
		return prompt.LoadFile(cfg.PromptTemplatesPath)
	}
	return prompt.Load()
}
