package repository

import (
	"context"
	"time"

	"domainlens/internal/domain"
)

// Repository interfaces abstract the relational store behind the services.
// Two implementations exist: postgres (production) and memory (development and tests).
//
// Every implementation must honor the natural unique keys:
//   - domains.name
//   - keywords.word
//   - domain_keywords(domain_id, keyword_id)
//   - keyword_trends(keyword_id, date)
//   - tld_statistics.tld
//
// Upserts on those keys are the only concurrency control the services rely on.

// DomainRepository defines data access for domains
type DomainRepository interface {
	// FindByName returns the domain with its keyword associations, or a *domain.NotFoundError
	FindByName(ctx context.Context, name string) (*domain.Domain, error)

	// Upsert creates the domain if absent; on conflict it applies policy
	Upsert(ctx context.Context, parsed domain.ParsedName, policy domain.DomainConflictPolicy) (*domain.Domain, error)

	// Search returns one page of domains (with keywords) matching the filter and the total match count
	Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.Domain, int64, error)

	// ListCreatedSince returns up to limit domains created at or after since, newest first, with keywords
	ListCreatedSince(ctx context.Context, since time.Time, limit int) ([]*domain.Domain, error)

	// Count returns the total number of domains
	Count(ctx context.Context) (int64, error)

	// UpdateRegistration stores externally sourced metadata (WHOIS)
	UpdateRegistration(ctx context.Context, name string, reg domain.Registration) (*domain.Domain, error)

	// TLDDistribution returns the topN TLDs by domain count
	TLDDistribution(ctx context.Context, topN int) ([]domain.TLDCount, error)
}

// KeywordRepository defines data access for keywords and domain-keyword associations
type KeywordRepository interface {
	// FindByWord returns the keyword or a *domain.NotFoundError
	FindByWord(ctx context.Context, word string) (*domain.Keyword, error)

	// Upsert creates the keyword from defaults if absent; on conflict it applies policy
	Upsert(ctx context.Context, defaults domain.KeywordDefaults, policy domain.KeywordMergePolicy) (*domain.Keyword, error)

	// UpsertDomainKeyword creates the association at position; an existing association is left as is
	UpsertDomainKeyword(ctx context.Context, domainID, keywordID string, position int) (*domain.DomainKeyword, error)

	// UpdateMetrics overwrites the non-nil metrics of an existing keyword
	UpdateMetrics(ctx context.Context, word string, metrics domain.KeywordMetrics) (*domain.Keyword, error)

	// Count returns the total number of keywords
	Count(ctx context.Context) (int64, error)

	// TopBySearchVolume returns the n keywords with the highest search volume
	TopBySearchVolume(ctx context.Context, n int) ([]*domain.Keyword, error)

	// DomainsForKeyword returns up to limit domains associated with the keyword, each with its keywords
	DomainsForKeyword(ctx context.Context, keywordID string, limit int) ([]*domain.Domain, error)

	// CountDomains returns how many domains are associated with the keyword
	CountDomains(ctx context.Context, keywordID string) (int64, error)
}

// TrendRepository defines data access for keyword trends and TLD statistics
type TrendRepository interface {
	// Upsert stores the snapshot for (keywordID, day of trend.Date); counters are overwritten
	Upsert(ctx context.Context, trend *domain.KeywordTrend) error

	// ListForKeyword returns trends dated at or after since (zero = no bound), limited to limit (0 = no limit)
	ListForKeyword(ctx context.Context, keywordID string, since time.Time, limit int, order domain.SortOrder) ([]domain.KeywordTrend, error)

	// UpsertTLDStatistic stores the counters of a TLD, keyed by TLD
	UpsertTLDStatistic(ctx context.Context, stat *domain.TldStatistic) error

	// ListTLDStatistics returns all TLD statistics, highest total first
	ListTLDStatistics(ctx context.Context) ([]domain.TldStatistic, error)
}

// MonitorRepository defines data access for domain monitors and their change log
type MonitorRepository interface {
	// Create inserts a new monitor and fills in its ID
	Create(ctx context.Context, monitor *domain.DomainMonitor) error

	// Get returns a monitor by id (without nested data) or a *domain.NotFoundError
	Get(ctx context.Context, id string) (*domain.DomainMonitor, error)

	// Delete removes a monitor and its changes; a missing id is a *domain.NotFoundError
	Delete(ctx context.Context, id string) error

	// List returns matching monitors newest first, each with domain, keywords and the most recent changes
	List(ctx context.Context, filter domain.MonitorFilter) ([]*domain.DomainMonitor, error)

	// CountActive returns the number of active monitors
	CountActive(ctx context.Context) (int64, error)

	// AppendChange records a detected change and updates the monitor's last_checked
	AppendChange(ctx context.Context, change *domain.DomainChange) error
}

// Store bundles the repositories over one connection or transaction.
// It is constructed by the process entry point and injected into services.
type Store interface {
	Domains() DomainRepository
	Keywords() KeywordRepository
	Trends() TrendRepository
	Monitors() MonitorRepository

	// WithinTx runs fn against a Store bound to a single transaction.
	// If fn returns an error every write made through the transactional
	// Store is rolled back and the error is returned unchanged.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
