package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"domainlens/internal/metrics"
	"domainlens/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repositories only talk to a querier, so the same code runs inside and
// outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the PostgreSQL implementation of repository.Store
type Store struct {
	db querier
}

// NewStore creates a store over a connection pool.
// The pool is owned by the caller (main), which also closes it.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

func (s *Store) Domains() repository.DomainRepository   { return &domainRepository{db: s.db} }
func (s *Store) Keywords() repository.KeywordRepository { return &keywordRepository{db: s.db} }
func (s *Store) Trends() repository.TrendRepository     { return &trendRepository{db: s.db} }
func (s *Store) Monitors() repository.MonitorRepository { return &monitorRepository{db: s.db} }

// WithinTx runs fn inside a transaction.
// pgx.BeginFunc commits when fn returns nil and rolls back otherwise.
// Called on a transactional Store it opens a savepoint instead.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&Store{db: tx})
	})
}

// InitDB initializes the database connection pool
// This is called once at application startup
func InitDB(ctx context.Context, dsn string, maxConns, minConns int, maxLifetime time.Duration) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = int32(maxConns)
	config.MinConns = int32(minConns)
	config.MaxConnLifetime = maxLifetime
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// observe records the latency of a query and counts it as failed when *err is set.
// It is deferred with the address of a named error result.
func observe(op string, start time.Time, err *error) {
	metrics.ObserveQuery(op, time.Since(start), *err)
}

func newID() string {
	return uuid.NewString()
}

// uuidArray converts string ids to a value pgx encodes as uuid[].
// Ids that are not valid UUIDs cannot match any row and are skipped.
func uuidArray(ids []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			out = append(out, u)
		}
	}
	return out
}
