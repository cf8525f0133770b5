package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/skillscope/internal/adapters/embedding"
	"github.com/okian/skillscope/internal/adapters/repository"
	app "github.com/okian/skillscope/internal/app"
	"github.com/okian/skillscope/internal/config"
	"github.com/okian/skillscope/internal/domain/match"
	"github.com/okian/skillscope/internal/domain/model"
	"github.com/okian/skillscope/internal/domain/roles"
	"github.com/okian/skillscope/internal/domain/scoring"
	"github.com/okian/skillscope/pkg/logger"
	"github.com/okian/skillscope/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		return
	}
	defer store.Close()

	svc := app.New(store, serviceOptions(ctx, cfg, log)...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Backfill scores for students already in the store, then let the queue
	// take over for incremental recomputes.
	go recomputeAll(ctx, store, svc, log)

	// Metrics endpoint only; the engine is driven through the store and the
	// recompute queue, not an outward API.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting metrics server", logger.String("addr", cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("metrics server failed: " + err.Error() + "\n")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "stopped")
}

// recomputeAll fans a recompute across every known student at startup.
func recomputeAll(ctx context.Context, store repository.Store, svc *app.Service, log logger.Logger) {
	students, err := store.Students(ctx)
	if err != nil {
		log.Error(ctx, "startup recompute: listing students failed", logger.Error(err))
		return
	}
	if len(students) == 0 {
		return
	}

	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}

	result := svc.RecomputeStudents(ctx, ids)
	for id, err := range result.Errors {
		log.Warn(ctx, "startup recompute failed for student",
			logger.String("student_id", id), logger.Error(err))
	}
	log.Info(ctx, "startup recompute finished",
		logger.Int("recomputed", result.Recomputed),
		logger.Int("failed", len(result.Errors)),
	)
}

// openStore selects SQLite when a path is configured, in-memory otherwise.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.SQLitePath == "" {
		return repository.NewMemoryStore(), nil
	}
	return repository.OpenSQLite(ctx, cfg.SQLitePath)
}

// serviceOptions translates process configuration into service options.
func serviceOptions(ctx context.Context, cfg *config.Config, log logger.Logger) []app.Option {
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithRuleTablesPath(cfg.RuleTablesPath),
		app.WithMinCompatibility(cfg.MinCompatibility),
		app.WithMatchLimit(cfg.MatchLimit),
		app.WithMatcherOptions(
			match.WithFuzzyThreshold(cfg.FuzzyThreshold),
			match.WithSemanticThreshold(cfg.SemanticThreshold),
			match.WithMinConfidence(cfg.MinConfidence),
		),
		app.WithAggregatorOptions(
			scoring.WithDecay(cfg.DecayWindowMonths, cfg.DecayLoss, cfg.DecayFloor),
		),
		app.WithEngineOptions(
			roles.WithMandatoryFloor(cfg.MandatoryFloor),
			roles.WithPartialCredit(cfg.PartialCredit),
			roles.WithReadinessThreshold(cfg.ReadinessThreshold),
		),
	}
	if len(cfg.SourceMultipliers) > 0 {
		opts = append(opts, app.WithMatcherOptions(
			match.WithSourceWeights(sourceWeights(cfg.SourceMultipliers), 0.8),
		))
	}
	if len(cfg.Credibility) > 0 {
		opts = append(opts, app.WithAggregatorOptions(
			scoring.WithCredibility(sourceWeights(cfg.Credibility), 0.5),
		))
	}
	if cfg.GeminiAPIKey != "" {
		emb, err := embedding.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			log.Warn(ctx, "embedder unavailable, semantic matching disabled", logger.Error(err))
		} else {
			opts = append(opts, app.WithEmbedder(emb))
		}
	}
	return opts
}

func sourceWeights(m map[string]float64) map[model.SourceKind]float64 {
	out := make(map[model.SourceKind]float64, len(m))
	for k, v := range m {
		out[model.SourceKind(k)] = v
	}
	return out
}
