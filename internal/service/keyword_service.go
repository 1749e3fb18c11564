package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/repository"
)

// Trend query defaults
const (
	DefaultTrendPeriodDays = 30
	DefaultTrendLimit      = 10
)

const (
	analysisTrendLimit  = 30
	analysisDomainLimit = 20
	trendingSampleSize  = 5
	maxTrendPeriodDays  = 365
	maxTrendLimit       = 100
)

// KeywordAnalysis is the detail view of one keyword
type KeywordAnalysis struct {
	Keyword      *domain.Keyword
	TotalDomains int64
	Trends       []domain.KeywordTrend // Newest first
	TopDomains   []*domain.Domain
}

// TrendQuery selects either one keyword's history (Keyword set) or the trending keywords
type TrendQuery struct {
	Keyword    string
	PeriodDays int
	Limit      int
}

// KeywordHistory is the trend history of one keyword, oldest first
type KeywordHistory struct {
	Keyword *domain.Keyword
	Trends  []domain.KeywordTrend
}

// TrendingKeyword is a high-volume keyword with its latest snapshot and example domains
type TrendingKeyword struct {
	Keyword       *domain.Keyword
	RecentTrend   *domain.KeywordTrend
	SampleDomains []string
}

// TrendsResult holds the answer of a TrendQuery; exactly one field is set
type TrendsResult struct {
	History  *KeywordHistory
	Trending []TrendingKeyword
}

// KeywordService handles keyword analysis, metrics and trend history
type KeywordService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewKeywordService creates a keyword service
func NewKeywordService(store repository.Store, logger *slog.Logger) *KeywordService {
	return &KeywordService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func normalizeWord(word string) (string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", domain.NewValidationError("word", "is required")
	}
	return word, nil
}

// Analyze returns a keyword with its domain count, recent trends and top domains
func (s *KeywordService) Analyze(ctx context.Context, word string) (*KeywordAnalysis, error) {
	word, err := normalizeWord(word)
	if err != nil {
		return nil, err
	}

	kw, err := s.store.Keywords().FindByWord(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword: %w", err)
	}

	total, err := s.store.Keywords().CountDomains(ctx, kw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count keyword domains: %w", err)
	}

	trends, err := s.store.Trends().ListForKeyword(ctx, kw.ID, time.Time{}, analysisTrendLimit, domain.SortDesc)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword trends: %w", err)
	}

	domains, err := s.store.Keywords().DomainsForKeyword(ctx, kw.ID, analysisDomainLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword domains: %w", err)
	}

	return &KeywordAnalysis{
		Keyword:      kw,
		TotalDomains: total,
		Trends:       trends,
		TopDomains:   domains,
	}, nil
}

// UpdateMetrics overwrites the given metrics of an existing keyword.
// This is an operator correction, not ingestion, so search volume may go down.
func (s *KeywordService) UpdateMetrics(ctx context.Context, word string, metrics domain.KeywordMetrics) (*domain.Keyword, error) {
	word, err := normalizeWord(word)
	if err != nil {
		return nil, err
	}
	if metrics.IsEmpty() {
		return nil, domain.NewValidationError("body", "at least one of searchVolume, cpc, competition is required")
	}
	if metrics.SearchVolume != nil && *metrics.SearchVolume < 0 {
		return nil, domain.NewValidationError("searchVolume", "must be >= 0")
	}
	if metrics.CPC != nil && *metrics.CPC < 0 {
		return nil, domain.NewValidationError("cpc", "must be >= 0")
	}
	if metrics.Competition != nil && (*metrics.Competition < 0 || *metrics.Competition > 1) {
		return nil, domain.NewValidationError("competition", "must be between 0 and 1")
	}

	kw, err := s.store.Keywords().UpdateMetrics(ctx, word, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to update keyword: %w", err)
	}

	s.logger.Info("Keyword metrics updated", "word", kw.Word)
	return kw, nil
}

// Trends answers a TrendQuery after applying its defaults
func (s *KeywordService) Trends(ctx context.Context, q TrendQuery) (*TrendsResult, error) {
	if q.PeriodDays == 0 {
		q.PeriodDays = DefaultTrendPeriodDays
	}
	if q.Limit == 0 {
		q.Limit = DefaultTrendLimit
	}
	if q.PeriodDays < 1 || q.PeriodDays > maxTrendPeriodDays {
		return nil, domain.NewValidationError("period", "must be between 1 and 365 days")
	}
	if q.Limit < 1 || q.Limit > maxTrendLimit {
		return nil, domain.NewValidationError("limit", "must be between 1 and 100")
	}

	since := domain.TruncateDay(s.now().AddDate(0, 0, -q.PeriodDays))

	if strings.TrimSpace(q.Keyword) != "" {
		history, err := s.history(ctx, q.Keyword, since)
		if err != nil {
			return nil, err
		}
		return &TrendsResult{History: history}, nil
	}

	trending, err := topKeywords(ctx, s.store, since, q.Limit, trendingSampleSize)
	if err != nil {
		return nil, err
	}
	return &TrendsResult{Trending: trending}, nil
}

func (s *KeywordService) history(ctx context.Context, word string, since time.Time) (*KeywordHistory, error) {
	word, err := normalizeWord(word)
	if err != nil {
		return nil, err
	}

	kw, err := s.store.Keywords().FindByWord(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword: %w", err)
	}

	trends, err := s.store.Trends().ListForKeyword(ctx, kw.ID, since, 0, domain.SortAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword trends: %w", err)
	}
	return &KeywordHistory{Keyword: kw, Trends: trends}, nil
}

// topKeywords returns the keywords with the highest search volume, each with
// its newest trend since the given day (skipped when since is zero) and up to
// samples domain names.
func topKeywords(ctx context.Context, store repository.Store, since time.Time, limit, samples int) ([]TrendingKeyword, error) {
	keywords, err := store.Keywords().TopBySearchVolume(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top keywords: %w", err)
	}

	out := make([]TrendingKeyword, 0, len(keywords))
	for _, kw := range keywords {
		item := TrendingKeyword{Keyword: kw, SampleDomains: []string{}}

		if !since.IsZero() {
			latest, err := store.Trends().ListForKeyword(ctx, kw.ID, since, 1, domain.SortDesc)
			if err != nil {
				return nil, fmt.Errorf("failed to get keyword trends: %w", err)
			}
			if len(latest) > 0 {
				item.RecentTrend = &latest[0]
			}
		}

		domains, err := store.Keywords().DomainsForKeyword(ctx, kw.ID, samples)
		if err != nil {
			return nil, fmt.Errorf("failed to get keyword domains: %w", err)
		}
		for _, d := range domains {
			item.SampleDomains = append(item.SampleDomains, d.Name)
		}

		out = append(out, item)
	}
	return out, nil
}

// RecordTrend stores the counters of a keyword for the day of date.
// A second call for the same day overwrites the counters.
func (s *KeywordService) RecordTrend(ctx context.Context, word string, date time.Time, domainCount, newDomains int) (*domain.KeywordTrend, error) {
	word, err := normalizeWord(word)
	if err != nil {
		return nil, err
	}
	if domainCount < 0 {
		return nil, domain.NewValidationError("domainCount", "must be >= 0")
	}
	if newDomains < 0 {
		return nil, domain.NewValidationError("newDomains", "must be >= 0")
	}
	if date.IsZero() {
		date = s.now()
	}

	kw, err := s.store.Keywords().FindByWord(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword: %w", err)
	}

	trend := &domain.KeywordTrend{
		KeywordID:   kw.ID,
		Date:        date,
		DomainCount: domainCount,
		NewDomains:  newDomains,
	}
	if err := s.store.Trends().Upsert(ctx, trend); err != nil {
		return nil, fmt.Errorf("failed to record trend: %w", err)
	}
	return trend, nil
}
