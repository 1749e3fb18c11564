package domain

import "time"

// Keyword is a normalized lowercase token extracted from one or more SLDs.
type Keyword struct {
	ID           string
	Word         string
	SearchVolume int64
	CPC          *float64
	Competition  *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// KeywordDefaults are the values used when a keyword upsert creates the row.
// With KeywordMaxVolume, SearchVolume is also merged into an existing row.
type KeywordDefaults struct {
	Word         string
	SearchVolume int64
	CPC          *float64
	Competition  *float64
}

// KeywordMergePolicy decides what an upsert does when the keyword already exists.
type KeywordMergePolicy int

const (
	// KeywordKeep leaves an existing keyword untouched (bulk ingestion path).
	KeywordKeep KeywordMergePolicy = iota
	// KeywordMaxVolume raises SearchVolume to max(new, stored) (seed path).
	KeywordMaxVolume
)

func (p KeywordMergePolicy) String() string {
	switch p {
	case KeywordKeep:
		return "keep"
	case KeywordMaxVolume:
		return "max_volume"
	default:
		return "unknown"
	}
}

// MergeVolume returns the search volume an existing keyword ends up with.
func (p KeywordMergePolicy) MergeVolume(stored, incoming int64) int64 {
	if p == KeywordMaxVolume && incoming > stored {
		return incoming
	}
	return stored
}

// KeywordMetrics is a partial update of the externally supplied keyword metrics.
// Nil fields are left unchanged.
type KeywordMetrics struct {
	SearchVolume *int64
	CPC          *float64
	Competition  *float64
}

// IsEmpty reports whether the update carries no field at all.
func (m KeywordMetrics) IsEmpty() bool {
	return m.SearchVolume == nil && m.CPC == nil && m.Competition == nil
}

// Apply copies the non-nil fields of m onto k.
func (m KeywordMetrics) Apply(k *Keyword) {
	if m.SearchVolume != nil {
		k.SearchVolume = *m.SearchVolume
	}
	if m.CPC != nil {
		k.CPC = m.CPC
	}
	if m.Competition != nil {
		k.Competition = m.Competition
	}
}

// DomainKeyword records that a keyword appears in a domain's SLD.
// Position is the zero-based first appearance and is never rewritten.
type DomainKeyword struct {
	ID        string
	DomainID  string
	KeywordID string
	Position  int

	Keyword *Keyword
	Domain  *Domain
}

// KeywordTrend is a per-day snapshot of a keyword's registration activity.
type KeywordTrend struct {
	ID          string
	KeywordID   string
	Date        time.Time // Always truncated to UTC midnight
	DomainCount int
	NewDomains  int
}

// TldStatistic holds externally maintained counts per top-level label.
type TldStatistic struct {
	ID           string
	TLD          string
	TotalDomains int
	NewDomains   int
	Date         time.Time
	UpdatedAt    time.Time
}

// TLDCount is one row of the TLD distribution aggregate.
type TLDCount struct {
	TLD   string
	Count int64
}

// TruncateDay zeroes the time-of-day of t in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
