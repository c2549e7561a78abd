package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/audit"
	"donation-chain/marketplace-ledger/ledger-backend/internal/config"
)

// AggregationWorker rolls the raw event trail up into per-category totals
// for dashboard consumption
type AggregationWorker struct {
	db       *sqlx.DB
	recorder *audit.PostgresRecorder
	logger   *zap.Logger
	config   AggregationWorkerConfig
	done     chan struct{}
}

// AggregationWorkerConfig configuration for the aggregation worker
type AggregationWorkerConfig struct {
	RefreshInterval time.Duration
	Window          time.Duration
}

// DefaultAggregationWorkerConfig returns default configuration
func DefaultAggregationWorkerConfig() AggregationWorkerConfig {
	return AggregationWorkerConfig{
		RefreshInterval: time.Minute,
		Window:          24 * time.Hour,
	}
}

// NewAggregationWorker creates a new aggregation worker
func NewAggregationWorker(db *sqlx.DB, logger *zap.Logger, cfg AggregationWorkerConfig) *AggregationWorker {
	return &AggregationWorker{
		db:       db,
		recorder: audit.NewPostgresRecorder(db),
		logger:   logger,
		config:   cfg,
		done:     make(chan struct{}),
	}
}

// Start starts the aggregation worker
func (w *AggregationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting aggregation worker",
		zap.Duration("refresh_interval", w.config.RefreshInterval),
		zap.Duration("window", w.config.Window))

	ticker := time.NewTicker(w.config.RefreshInterval)
	defer ticker.Stop()

	// Refresh immediately on startup
	w.refreshAggregates(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Aggregation worker shutting down")
			return nil
		case <-w.done:
			w.logger.Info("Aggregation worker stopped")
			return nil
		case <-ticker.C:
			w.refreshAggregates(ctx)
		}
	}
}

// Stop stops the aggregation worker
func (w *AggregationWorker) Stop() {
	close(w.done)
}

// aggregatedKinds are the event kinds worth rolling up by category.
var aggregatedKinds = []audit.EventKind{
	audit.KindTokenDonated,
	audit.KindTokensClaimed,
	audit.KindProductBought,
}

// refreshAggregates recomputes the per-category totals for each tracked
// event kind over the configured window and upserts them.
func (w *AggregationWorker) refreshAggregates(ctx context.Context) {
	since := time.Now().Add(-w.config.Window)

	for _, kind := range aggregatedKinds {
		totals, err := w.recorder.TotalsByCategory(ctx, kind, since)
		if err != nil {
			w.logger.Error("Failed to compute totals",
				zap.String("kind", string(kind)),
				zap.Error(err))
			continue
		}
		if err := w.updateAggregate(ctx, kind, since, totals); err != nil {
			w.logger.Error("Failed to update aggregate",
				zap.String("kind", string(kind)),
				zap.Error(err))
			continue
		}
		w.logger.Debug("Refreshed aggregate",
			zap.String("kind", string(kind)),
			zap.Int("categories", len(totals)))
	}
}

// updateAggregate upserts one kind's per-category totals as a JSON blob
func (w *AggregationWorker) updateAggregate(ctx context.Context, kind audit.EventKind, since time.Time, totals map[string]string) error {
	data, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("failed to marshal totals: %w", err)
	}

	query := `
		INSERT INTO ledger_aggregates (kind, window_start, totals, computed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (kind)
		DO UPDATE SET window_start = $2, totals = $3, computed_at = NOW()
	`
	if _, err := w.db.ExecContext(ctx, query, kind, since, data); err != nil {
		return fmt.Errorf("failed to upsert aggregate: %w", err)
	}
	return nil
}

const aggregateSchema = `
CREATE TABLE IF NOT EXISTS ledger_aggregates (
	kind         TEXT PRIMARY KEY,
	window_start TIMESTAMPTZ NOT NULL,
	totals       JSONB NOT NULL,
	computed_at  TIMESTAMPTZ NOT NULL
);
`

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found")
	}
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := audit.EnsureSchema(db); err != nil {
		logger.Fatal("Failed to ensure audit schema", zap.Error(err))
	}
	if _, err := db.Exec(aggregateSchema); err != nil {
		logger.Fatal("Failed to ensure aggregate schema", zap.Error(err))
	}

	worker := NewAggregationWorker(db, logger, DefaultAggregationWorkerConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		worker.Stop()
	}()

	if err := worker.Start(ctx); err != nil {
		logger.Fatal("Worker failed", zap.Error(err))
	}
}
