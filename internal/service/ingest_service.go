package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/metrics"
	"domainlens/internal/repository"
	"domainlens/pkg/validator"
)

// ErrEnrichmentDisabled is returned by Enrich when no WHOIS enricher is configured.
var ErrEnrichmentDisabled = errors.New("whois enrichment is disabled")

// Enricher resolves registration metadata for a domain name
type Enricher interface {
	Lookup(ctx context.Context, name string) (*domain.Registration, error)
}

// IngestService turns raw domain names into stored domains, keywords and
// keyword associations.
//
// Two write paths exist:
//   - IngestDomains: bulk path. Existing domains are touched, keywords are
//     created with zero search volume and never modified.
//   - Seed: volume-aware path. Existing domains are left alone, keyword
//     search volume only ever rises.
//
// Both run a whole batch in one transaction.
type IngestService struct {
	store     repository.Store
	tokenizer *domain.Tokenizer
	enricher  Enricher // nil when WHOIS is disabled
	logger    *slog.Logger
	now       func() time.Time
	rand      *rand.Rand
	maxBatch  int // 0 = unlimited
}

// NewIngestService creates an ingestion service
func NewIngestService(store repository.Store, tokenizer *domain.Tokenizer, enricher Enricher, logger *slog.Logger) *IngestService {
	return &IngestService{
		store:     store,
		tokenizer: tokenizer,
		enricher:  enricher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		rand:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x646f6d61696e)),
	}
}

// WithMaxBatch caps the number of names accepted by one IngestDomains call
func (s *IngestService) WithMaxBatch(n int) *IngestService {
	s.maxBatch = n
	return s
}

// IngestDomains stores every name of the batch and returns the resulting domains
// with their keywords, in input order. Duplicate names are ingested once.
// Either the whole batch is committed or none of it.
func (s *IngestService) IngestDomains(ctx context.Context, rawNames []string) ([]*domain.Domain, error) {
	if err := validator.ValidateDomainList(rawNames, s.maxBatch); err != nil {
		return nil, domain.NewValidationError("domains", err.Error())
	}

	names := make([]domain.ParsedName, 0, len(rawNames))
	seen := make(map[string]struct{}, len(rawNames))
	for _, raw := range rawNames {
		parsed := domain.ParseName(raw)
		if _, dup := seen[parsed.Name]; dup {
			continue
		}
		seen[parsed.Name] = struct{}{}
		names = append(names, parsed)
	}

	var (
		results  []*domain.Domain
		keywords int
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		results = results[:0]
		keywords = 0
		for _, parsed := range names {
			d, n, err := s.ingestOne(ctx, tx, parsed)
			if err != nil {
				return err
			}
			results = append(results, d)
			keywords += n
		}
		return nil
	})
	if err != nil {
		metrics.RecordIngestRollback()
		return nil, fmt.Errorf("failed to ingest domains: %w", err)
	}

	metrics.RecordIngest(len(results), keywords)
	s.logger.Info("Domains ingested", "domains", len(results), "keywords", keywords)
	return results, nil
}

// ingestOne writes one domain on the bulk path and returns it re-read with its keywords.
func (s *IngestService) ingestOne(ctx context.Context, tx repository.Store, parsed domain.ParsedName) (*domain.Domain, int, error) {
	d, err := tx.Domains().Upsert(ctx, parsed, domain.DomainTouch)
	if err != nil {
		return nil, 0, err
	}

	// Positions come from the token sequence, before any write happens.
	tokens := s.tokenizer.Tokenize(parsed.SLD)
	links := 0
	seen := make(map[string]struct{}, len(tokens))
	for position, word := range tokens {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}

		kw, err := tx.Keywords().Upsert(ctx, domain.KeywordDefaults{Word: word}, domain.KeywordKeep)
		if err != nil {
			return nil, 0, err
		}
		if _, err := tx.Keywords().UpsertDomainKeyword(ctx, d.ID, kw.ID, position); err != nil {
			return nil, 0, err
		}
		links++
	}

	d, err = tx.Domains().FindByName(ctx, parsed.Name)
	if err != nil {
		return nil, 0, err
	}
	return d, links, nil
}

// EnsureDomain returns the stored domain for rawName, creating it when absent.
// An existing domain is not modified and no keywords are extracted.
func (s *IngestService) EnsureDomain(ctx context.Context, rawName string) (*domain.Domain, error) {
	parsed := domain.ParseName(rawName)
	if parsed.Name == "" {
		return nil, domain.NewValidationError("domainName", "is required")
	}

	d, err := s.store.Domains().Upsert(ctx, parsed, domain.DomainKeep)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure domain: %w", err)
	}
	return d, nil
}

// SeedDomain is one entry of a volume-aware seed batch.
// Keywords and SearchVolumes are parallel; a missing volume counts as zero.
type SeedDomain struct {
	Name          string
	Keywords      []string
	SearchVolumes []int64
}

// SeedTLDs are the TLDs that get a statistics row when seeding.
var SeedTLDs = []string{".com", ".net", ".org", ".io", ".ai", ".tech", ".app", ".store", ".agency", ".network"}

// trendDays is how many days of trend history Seed fills in.
const trendDays = 30

// Seed loads a curated sample set through the volume-aware path: existing
// domains are left untouched, keyword search volumes never decrease, missing
// trend days and TLD statistics are filled with sample counters.
func (s *IngestService) Seed(ctx context.Context, batch []SeedDomain) error {
	if len(batch) == 0 {
		return domain.NewValidationError("domains", "must be a non-empty list")
	}

	today := domain.TruncateDay(s.now())
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		for _, entry := range batch {
			if err := s.seedOne(ctx, tx, entry, today); err != nil {
				return fmt.Errorf("seed %s: %w", entry.Name, err)
			}
		}
		return s.seedTLDStatistics(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}

	s.logger.Info("Seed completed", "domains", len(batch))
	return nil
}

func (s *IngestService) seedOne(ctx context.Context, tx repository.Store, entry SeedDomain, today time.Time) error {
	parsed := domain.ParseName(entry.Name)
	if parsed.Name == "" {
		return domain.NewValidationError("name", "must not be blank")
	}

	d, err := tx.Domains().Upsert(ctx, parsed, domain.DomainKeep)
	if err != nil {
		return err
	}
	if d.RegisteredAt == nil {
		// Sample registration date within the last year.
		age := time.Duration(s.rand.Int64N(int64(365 * 24 * time.Hour)))
		registeredAt := s.now().Add(-age)
		if _, err := tx.Domains().UpdateRegistration(ctx, d.Name, domain.Registration{RegisteredAt: &registeredAt}); err != nil {
			return err
		}
	}

	for position, raw := range entry.Keywords {
		word := strings.ToLower(strings.TrimSpace(raw))
		if word == "" {
			continue
		}
		var volume int64
		if position < len(entry.SearchVolumes) {
			volume = entry.SearchVolumes[position]
		}
		cpc := s.rand.Float64()*5 + 0.5
		competition := s.rand.Float64()

		kw, err := tx.Keywords().Upsert(ctx, domain.KeywordDefaults{
			Word:         word,
			SearchVolume: volume,
			CPC:          &cpc,
			Competition:  &competition,
		}, domain.KeywordMaxVolume)
		if err != nil {
			return err
		}
		if _, err := tx.Keywords().UpsertDomainKeyword(ctx, d.ID, kw.ID, position); err != nil {
			return err
		}
		if err := s.seedTrends(ctx, tx, kw.ID, today); err != nil {
			return err
		}
	}
	return nil
}

// seedTrends fills the trend days of the last month that have no snapshot yet.
func (s *IngestService) seedTrends(ctx context.Context, tx repository.Store, keywordID string, today time.Time) error {
	since := today.AddDate(0, 0, -(trendDays - 1))
	existing, err := tx.Trends().ListForKeyword(ctx, keywordID, since, 0, domain.SortAsc)
	if err != nil {
		return err
	}
	have := make(map[time.Time]struct{}, len(existing))
	for _, t := range existing {
		have[domain.TruncateDay(t.Date)] = struct{}{}
	}

	for day := 0; day < trendDays; day++ {
		date := today.AddDate(0, 0, -day)
		if _, ok := have[date]; ok {
			continue
		}
		trend := &domain.KeywordTrend{
			KeywordID:   keywordID,
			Date:        date,
			DomainCount: s.rand.IntN(100) + 50,
			NewDomains:  s.rand.IntN(20),
		}
		if err := tx.Trends().Upsert(ctx, trend); err != nil {
			return err
		}
	}
	return nil
}

// seedTLDStatistics creates the sample statistics of SeedTLDs that do not exist yet.
func (s *IngestService) seedTLDStatistics(ctx context.Context, tx repository.Store) error {
	existing, err := tx.Trends().ListTLDStatistics(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]struct{}, len(existing))
	for _, stat := range existing {
		have[stat.TLD] = struct{}{}
	}

	for _, tld := range SeedTLDs {
		if _, ok := have[tld]; ok {
			continue
		}
		stat := &domain.TldStatistic{
			TLD:          tld,
			TotalDomains: s.rand.IntN(10000) + 1000,
			NewDomains:   s.rand.IntN(500) + 50,
			Date:         s.now(),
		}
		if err := tx.Trends().UpsertTLDStatistic(ctx, stat); err != nil {
			return err
		}
	}
	return nil
}

// Enrich looks up WHOIS data for a stored domain and saves it.
func (s *IngestService) Enrich(ctx context.Context, name string) (*domain.Domain, error) {
	if s.enricher == nil {
		return nil, ErrEnrichmentDisabled
	}

	parsed := domain.ParseName(name)
	if err := validator.ValidateDomainName(parsed.Name); err != nil {
		return nil, domain.NewValidationError("name", err.Error())
	}
	if _, err := s.store.Domains().FindByName(ctx, parsed.Name); err != nil {
		return nil, fmt.Errorf("failed to load domain: %w", err)
	}

	reg, err := s.enricher.Lookup(ctx, parsed.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", parsed.Name, err)
	}

	d, err := s.store.Domains().UpdateRegistration(ctx, parsed.Name, *reg)
	if err != nil {
		return nil, fmt.Errorf("failed to save registration: %w", err)
	}

	s.logger.Info("Domain enriched", "domain", d.Name, "registrar", d.Registrar != nil)
	return d, nil
}

// SampleDomains is the curated data set loaded by the seed command.
var SampleDomains = []SeedDomain{
	{Name: "techstartup.com", Keywords: []string{"tech", "startup"}, SearchVolumes: []int64{15000, 8000}},
	{Name: "cloudhosting.net", Keywords: []string{"cloud", "hosting"}, SearchVolumes: []int64{12000, 20000}},
	{Name: "aitools.io", Keywords: []string{"ai", "tools"}, SearchVolumes: []int64{25000, 10000}},
	{Name: "webdesign.com", Keywords: []string{"web", "design"}, SearchVolumes: []int64{18000, 22000}},
	{Name: "ecommerce.store", Keywords: []string{"ecommerce"}, SearchVolumes: []int64{30000}},
	{Name: "digitalmarketing.agency", Keywords: []string{"digital", "marketing"}, SearchVolumes: []int64{14000, 35000}},
	{Name: "blockchain.tech", Keywords: []string{"blockchain"}, SearchVolumes: []int64{40000}},
	{Name: "machinelearning.ai", Keywords: []string{"machine", "learning"}, SearchVolumes: []int64{28000, 32000}},
	{Name: "cybersecurity.com", Keywords: []string{"cybersecurity"}, SearchVolumes: []int64{24000}},
	{Name: "dataanalytics.io", Keywords: []string{"data", "analytics"}, SearchVolumes: []int64{16000, 19000}},
	{Name: "mobilegaming.app", Keywords: []string{"mobile", "gaming"}, SearchVolumes: []int64{11000, 26000}},
	{Name: "socialmedia.network", Keywords: []string{"social", "media"}, SearchVolumes: []int64{21000, 29000}},
	{Name: "fintech.solutions", Keywords: []string{"fintech"}, SearchVolumes: []int64{17000}},
	{Name: "healthtech.care", Keywords: []string{"health", "tech"}, SearchVolumes: []int64{13000, 15000}},
	{Name: "edtech.education", Keywords: []string{"edtech"}, SearchVolumes: []int64{9000}},
}
