package http

import (
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/service"
)

// Request/Response DTOs.
// API contracts stay stable even when the domain models change.

const dateLayout = "2006-01-02"

type IngestDomainsRequest struct {
	Domains []string `json:"domains"`
}

type UpdateKeywordRequest struct {
	SearchVolume *int64   `json:"searchVolume,omitempty"`
	CPC          *float64 `json:"cpc,omitempty"`
	Competition  *float64 `json:"competition,omitempty"`
}

type RecordTrendRequest struct {
	Date        string `json:"date"` // YYYY-MM-DD
	DomainCount int    `json:"domainCount"`
	NewDomains  int    `json:"newDomains"`
}

type CreateMonitorRequest struct {
	DomainName string  `json:"domainName"`
	UserID     *string `json:"userId,omitempty"`
	AlertEmail *string `json:"alertEmail,omitempty"`
}

type RecordChangeRequest struct {
	ChangeType string     `json:"changeType"`
	OldValue   *string    `json:"oldValue,omitempty"`
	NewValue   *string    `json:"newValue,omitempty"`
	DetectedAt *time.Time `json:"detectedAt,omitempty"`
}

type KeywordResponse struct {
	ID           string    `json:"id"`
	Word         string    `json:"word"`
	SearchVolume int64     `json:"searchVolume"`
	CPC          *float64  `json:"cpc"`
	Competition  *float64  `json:"competition"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type DomainKeywordResponse struct {
	Word         string `json:"word"`
	Position     int    `json:"position"`
	SearchVolume int64  `json:"searchVolume"`
}

type DomainResponse struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	SLD          string                  `json:"sld"`
	TLD          string                  `json:"tld"`
	Status       *string                 `json:"status"`
	Registrar    *string                 `json:"registrar"`
	RegisteredAt *time.Time              `json:"registeredAt"`
	ExpiresAt    *time.Time              `json:"expiresAt"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
	Score        int                     `json:"score"`
	Keywords     []DomainKeywordResponse `json:"keywords"`
}

type SearchResponse struct {
	Domains    []DomainResponse `json:"domains"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	Limit      int              `json:"limit"`
}

type TrendPoint struct {
	Date        string `json:"date"`
	DomainCount int    `json:"domainCount"`
	NewDomains  int    `json:"newDomains"`
}

type KeywordAnalysisResponse struct {
	KeywordResponse
	TotalDomains int64            `json:"totalDomains"`
	Trends       []TrendPoint     `json:"trends"`
	TopDomains   []DomainResponse `json:"topDomains"`
}

type KeywordHistoryResponse struct {
	Keyword string       `json:"keyword"`
	Trends  []TrendPoint `json:"trends"`
}

type TrendingKeywordResponse struct {
	Word          string      `json:"word"`
	SearchVolume  int64       `json:"searchVolume"`
	CPC           *float64    `json:"cpc"`
	Competition   *float64    `json:"competition"`
	RecentTrend   *TrendPoint `json:"recentTrend,omitempty"`
	SampleDomains []string    `json:"sampleDomains"`
}

type ChangeResponse struct {
	ID         string    `json:"id"`
	ChangeType string    `json:"changeType"`
	OldValue   *string   `json:"oldValue"`
	NewValue   *string   `json:"newValue"`
	DetectedAt time.Time `json:"detectedAt"`
}

type MonitorResponse struct {
	ID          string           `json:"id"`
	DomainID    string           `json:"domainId"`
	UserID      *string          `json:"userId"`
	AlertEmail  *string          `json:"alertEmail"`
	IsActive    bool             `json:"isActive"`
	LastChecked time.Time        `json:"lastChecked"`
	CreatedAt   time.Time        `json:"createdAt"`
	Domain      *DomainResponse  `json:"domain,omitempty"`
	Changes     []ChangeResponse `json:"changes"`
}

type TLDCountResponse struct {
	TLD   string `json:"tld"`
	Count int64  `json:"count"`
}

type DashboardResponse struct {
	TotalDomains     int64                     `json:"totalDomains"`
	TotalKeywords    int64                     `json:"totalKeywords"`
	TotalMonitors    int64                     `json:"totalMonitors"`
	RecentDomains    []DomainResponse          `json:"recentDomains"`
	TrendingKeywords []TrendingKeywordResponse `json:"trendingKeywords"`
	TLDDistribution  []TLDCountResponse        `json:"tldDistribution"`
}

type TLDStatisticResponse struct {
	TLD          string    `json:"tld"`
	TotalDomains int       `json:"totalDomains"`
	NewDomains   int       `json:"newDomains"`
	Date         time.Time `json:"date"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toKeywordResponse(k *domain.Keyword) KeywordResponse {
	return KeywordResponse{
		ID:           k.ID,
		Word:         k.Word,
		SearchVolume: k.SearchVolume,
		CPC:          k.CPC,
		Competition:  k.Competition,
		CreatedAt:    k.CreatedAt,
		UpdatedAt:    k.UpdatedAt,
	}
}

// toDomainResponse renders a domain with its score as of now
func toDomainResponse(d *domain.Domain, now time.Time) DomainResponse {
	keywords := make([]DomainKeywordResponse, 0, len(d.Keywords))
	for _, dk := range d.Keywords {
		item := DomainKeywordResponse{Position: dk.Position}
		if dk.Keyword != nil {
			item.Word = dk.Keyword.Word
			item.SearchVolume = dk.Keyword.SearchVolume
		}
		keywords = append(keywords, item)
	}

	return DomainResponse{
		ID:           d.ID,
		Name:         d.Name,
		SLD:          d.SLD,
		TLD:          d.TLD,
		Status:       d.Status,
		Registrar:    d.Registrar,
		RegisteredAt: d.RegisteredAt,
		ExpiresAt:    d.ExpiresAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Score:        d.Score(now),
		Keywords:     keywords,
	}
}

func toDomainResponses(domains []*domain.Domain, now time.Time) []DomainResponse {
	out := make([]DomainResponse, 0, len(domains))
	for _, d := range domains {
		out = append(out, toDomainResponse(d, now))
	}
	return out
}

func toTrendPoint(t domain.KeywordTrend) TrendPoint {
	return TrendPoint{
		Date:        t.Date.UTC().Format(dateLayout),
		DomainCount: t.DomainCount,
		NewDomains:  t.NewDomains,
	}
}

func toTrendPoints(trends []domain.KeywordTrend) []TrendPoint {
	out := make([]TrendPoint, 0, len(trends))
	for _, t := range trends {
		out = append(out, toTrendPoint(t))
	}
	return out
}

func toTrendingResponses(trending []service.TrendingKeyword) []TrendingKeywordResponse {
	out := make([]TrendingKeywordResponse, 0, len(trending))
	for _, tk := range trending {
		item := TrendingKeywordResponse{
			Word:          tk.Keyword.Word,
			SearchVolume:  tk.Keyword.SearchVolume,
			CPC:           tk.Keyword.CPC,
			Competition:   tk.Keyword.Competition,
			SampleDomains: tk.SampleDomains,
		}
		if item.SampleDomains == nil {
			item.SampleDomains = []string{}
		}
		if tk.RecentTrend != nil {
			point := toTrendPoint(*tk.RecentTrend)
			item.RecentTrend = &point
		}
		out = append(out, item)
	}
	return out
}

func toChangeResponse(c domain.DomainChange) ChangeResponse {
	return ChangeResponse{
		ID:         c.ID,
		ChangeType: c.ChangeType,
		OldValue:   c.OldValue,
		NewValue:   c.NewValue,
		DetectedAt: c.DetectedAt,
	}
}

func toMonitorResponse(m *domain.DomainMonitor, now time.Time) MonitorResponse {
	resp := MonitorResponse{
		ID:          m.ID,
		DomainID:    m.DomainID,
		UserID:      m.UserID,
		AlertEmail:  m.AlertEmail,
		IsActive:    m.IsActive,
		LastChecked: m.LastChecked,
		CreatedAt:   m.CreatedAt,
		Changes:     make([]ChangeResponse, 0, len(m.Changes)),
	}
	if m.Domain != nil {
		d := toDomainResponse(m.Domain, now)
		resp.Domain = &d
	}
	for _, c := range m.Changes {
		resp.Changes = append(resp.Changes, toChangeResponse(c))
	}
	return resp
}
