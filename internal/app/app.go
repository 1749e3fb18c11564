// Package app wires the store and services shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"domainlens/internal/config"
	"domainlens/internal/domain"
	"domainlens/internal/repository"
	"domainlens/internal/repository/memory"
	"domainlens/internal/repository/postgres"
	"domainlens/internal/service"
	"domainlens/internal/whois"
)

// OpenStore opens the store selected by cfg.Driver.
// The returned close function releases the connection pool and is never nil.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, migrate bool, logger *slog.Logger) (repository.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on exit")
		return memory.NewStore(), func() {}, nil

	case config.DriverPostgres:
		pool, err := postgres.InitDB(ctx, cfg.DatabaseDSN(), cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
		if err != nil {
			return nil, nil, err
		}
		if migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			logger.Info("Database schema applied")
		}
		logger.Info("Database connection established", "max_conns", cfg.MaxOpenConns)
		return postgres.NewStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// NewIngestService builds the ingestion service with the built-in lexicon.
// WHOIS enrichment is attached only when enabled.
func NewIngestService(cfg *config.Config, store repository.Store, logger *slog.Logger) *service.IngestService {
	var enricher service.Enricher
	if cfg.Whois.Enabled {
		enricher = whois.NewEnricher(cfg.Whois.Timeout, logger)
	}

	return service.NewIngestService(store, domain.DefaultTokenizer(), enricher, logger).
		WithMaxBatch(cfg.App.MaxIngestBatch)
}

// Services is the full service graph over one store
type Services struct {
	Ingest   *service.IngestService
	Search   *service.SearchService
	Keywords *service.KeywordService
	Monitors *service.MonitorService
	Stats    *service.StatsService
}

// NewServices builds every service over store
func NewServices(cfg *config.Config, store repository.Store, logger *slog.Logger) Services {
	ingest := NewIngestService(cfg, store, logger)
	return Services{
		Ingest:   ingest,
		Search:   service.NewSearchService(store, logger),
		Keywords: service.NewKeywordService(store, logger),
		Monitors: service.NewMonitorService(store, ingest, logger),
		Stats:    service.NewStatsService(store, logger),
	}
}
