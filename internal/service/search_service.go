package service

import (
	"context"
	"fmt"
	"log/slog"

	"domainlens/internal/domain"
	"domainlens/internal/repository"
)

// SearchService answers domain search and lookup requests
type SearchService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewSearchService creates a search service
func NewSearchService(store repository.Store, logger *slog.Logger) *SearchService {
	return &SearchService{store: store, logger: logger}
}

// Search returns one page of domains matching the filter
func (s *SearchService) Search(ctx context.Context, filter domain.SearchFilter) (*domain.SearchResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	domains, total, err := s.store.Domains().Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search domains: %w", err)
	}

	return domain.NewSearchResult(domains, total, filter), nil
}

// GetDomain returns a stored domain with its keywords
func (s *SearchService) GetDomain(ctx context.Context, name string) (*domain.Domain, error) {
	parsed := domain.ParseName(name)
	if parsed.Name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}

	d, err := s.store.Domains().FindByName(ctx, parsed.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	return d, nil
}
