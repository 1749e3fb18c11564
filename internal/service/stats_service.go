package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/repository"
)

const (
	dashboardRecentLimit   = 10
	dashboardTrendingLimit = 10
	dashboardSampleSize    = 3
	dashboardTLDLimit      = 10
)

// Dashboard is the overview shown on the landing page
type Dashboard struct {
	TotalDomains     int64
	TotalKeywords    int64
	TotalMonitors    int64 // Active monitors only
	RecentDomains    []*domain.Domain
	TrendingKeywords []TrendingKeyword
	TLDDistribution  []domain.TLDCount
}

// StatsService computes aggregate statistics
type StatsService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewStatsService creates a statistics service
func NewStatsService(store repository.Store, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard gathers counts, recent domains, trending keywords and the TLD distribution
func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		out Dashboard
		err error
	)

	if out.TotalDomains, err = s.store.Domains().Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count domains: %w", err)
	}
	if out.TotalKeywords, err = s.store.Keywords().Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count keywords: %w", err)
	}
	if out.TotalMonitors, err = s.store.Monitors().CountActive(ctx); err != nil {
		return nil, fmt.Errorf("failed to count monitors: %w", err)
	}

	since := s.now().Add(-domain.RecentWindow)
	if out.RecentDomains, err = s.store.Domains().ListCreatedSince(ctx, since, dashboardRecentLimit); err != nil {
		return nil, fmt.Errorf("failed to list recent domains: %w", err)
	}

	if out.TrendingKeywords, err = topKeywords(ctx, s.store, time.Time{}, dashboardTrendingLimit, dashboardSampleSize); err != nil {
		return nil, err
	}

	if out.TLDDistribution, err = s.store.Domains().TLDDistribution(ctx, dashboardTLDLimit); err != nil {
		return nil, fmt.Errorf("failed to get tld distribution: %w", err)
	}

	return &out, nil
}

// TLDStatistics returns the stored per-TLD counters, largest first
func (s *StatsService) TLDStatistics(ctx context.Context) ([]domain.TldStatistic, error) {
	stats, err := s.store.Trends().ListTLDStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tld statistics: %w", err)
	}
	return stats, nil
}
