package domain

import (
	"math"
	"strconv"
	"time"
)

// Search defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100

	// MaxPage keeps (Page-1)*Limit within int for every valid limit.
	MaxPage = math.MaxInt / MaxLimit
)

// SortField enumerates the columns a domain search may be ordered by.
type SortField string

const (
	SortByCreatedAt    SortField = "createdAt"
	SortByUpdatedAt    SortField = "updatedAt"
	SortByName         SortField = "name"
	SortByRegisteredAt SortField = "registeredAt"
	SortByTLD          SortField = "tld"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchFilter is the complete set of options a domain search understands.
type SearchFilter struct {
	Query     string    // Case-insensitive substring of name or sld; empty = all
	TLD       string    // Exact TLD including the dot; empty = all
	Page      int       // 1-based
	Limit     int       // 1..MaxLimit
	SortBy    SortField // Defaults to SortByCreatedAt
	SortOrder SortOrder // Defaults to SortDesc
}

// NewSearchFilter returns a filter with every default applied.
func NewSearchFilter() SearchFilter {
	return SearchFilter{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    SortByCreatedAt,
		SortOrder: SortDesc,
	}
}

// Offset is the number of rows skipped for the current page.
func (f SearchFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Validate checks the filter against the recognized options.
func (f SearchFilter) Validate() error {
	if f.Page < 1 || f.Page > MaxPage {
		return NewValidationError("page", "must be between 1 and "+strconv.Itoa(MaxPage))
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return NewValidationError("limit", "must be between 1 and 100")
	}
	switch f.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByName, SortByRegisteredAt, SortByTLD:
	default:
		return NewValidationError("sortBy", "unsupported sort field "+string(f.SortBy))
	}
	switch f.SortOrder {
	case SortAsc, SortDesc:
	default:
		return NewValidationError("sortOrder", "must be asc or desc")
	}
	return nil
}

// SearchResult is one page of domains plus paging totals.
type SearchResult struct {
	Domains    []*Domain
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewSearchResult computes TotalPages from total and the filter's limit.
func NewSearchResult(domains []*Domain, total int64, f SearchFilter) *SearchResult {
	pages := 0
	if f.Limit > 0 {
		pages = int((total + int64(f.Limit) - 1) / int64(f.Limit))
	}
	return &SearchResult{
		Domains:    domains,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: pages,
	}
}

// RecentWindow is how far back the dashboard looks for recently added domains.
const RecentWindow = 7 * 24 * time.Hour
