package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/service"
	"domainlens/pkg/logger"
)

// maxBodyBytes caps every request body
const maxBodyBytes = 1 << 20

// IngestService is the write side used by the domain endpoints
type IngestService interface {
	IngestDomains(ctx context.Context, rawNames []string) ([]*domain.Domain, error)
	Enrich(ctx context.Context, name string) (*domain.Domain, error)
}

// SearchService is the read side used by the domain endpoints
type SearchService interface {
	Search(ctx context.Context, filter domain.SearchFilter) (*domain.SearchResult, error)
	GetDomain(ctx context.Context, name string) (*domain.Domain, error)
}

// KeywordService backs the keyword and trend endpoints
type KeywordService interface {
	Analyze(ctx context.Context, word string) (*service.KeywordAnalysis, error)
	UpdateMetrics(ctx context.Context, word string, metrics domain.KeywordMetrics) (*domain.Keyword, error)
	Trends(ctx context.Context, q service.TrendQuery) (*service.TrendsResult, error)
	RecordTrend(ctx context.Context, word string, date time.Time, domainCount, newDomains int) (*domain.KeywordTrend, error)
}

// MonitorService backs the monitor endpoints
type MonitorService interface {
	Create(ctx context.Context, in service.CreateMonitorInput) (*domain.DomainMonitor, error)
	List(ctx context.Context, filter domain.MonitorFilter) ([]*domain.DomainMonitor, error)
	Delete(ctx context.Context, id string) error
	RecordChange(ctx context.Context, monitorID string, in service.ChangeInput) (*domain.DomainChange, error)
}

// StatsService backs the dashboard endpoints
type StatsService interface {
	Dashboard(ctx context.Context) (*service.Dashboard, error)
	TLDStatistics(ctx context.Context) ([]domain.TldStatistic, error)
}

// Services groups the dependencies of the handler
type Services struct {
	Ingest   IngestService
	Search   SearchService
	Keywords KeywordService
	Monitors MonitorService
	Stats    StatsService
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	ingest   IngestService
	search   SearchService
	keywords KeywordService
	monitors MonitorService
	stats    StatsService
	logger   *logger.Logger
	now      func() time.Time // Reference time for domain scores
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, log *logger.Logger) *Handler {
	return &Handler{
		ingest:   services.Ingest,
		search:   services.Search,
		keywords: services.Keywords,
		monitors: services.Monitors,
		stats:    services.Stats,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register mounts every API route on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/domains", h.SearchDomains)
	mux.HandleFunc("POST /api/v1/domains", h.IngestDomains)
	mux.HandleFunc("GET /api/v1/domains/{name}", h.GetDomain)
	mux.HandleFunc("POST /api/v1/domains/{name}/enrich", h.EnrichDomain)

	mux.HandleFunc("GET /api/v1/keywords/{word}", h.GetKeyword)
	mux.HandleFunc("PUT /api/v1/keywords/{word}", h.UpdateKeyword)
	mux.HandleFunc("POST /api/v1/keywords/{word}/trends", h.RecordTrend)
	mux.HandleFunc("GET /api/v1/trends", h.GetTrends)

	mux.HandleFunc("GET /api/v1/monitors", h.ListMonitors)
	mux.HandleFunc("POST /api/v1/monitors", h.CreateMonitor)
	mux.HandleFunc("DELETE /api/v1/monitors/{id}", h.DeleteMonitor)
	mux.HandleFunc("POST /api/v1/monitors/{id}/changes", h.RecordChange)

	mux.HandleFunc("GET /api/v1/stats", h.GetStats)
	mux.HandleFunc("GET /api/v1/tlds", h.GetTLDStatistics)

	mux.HandleFunc("GET /health/live", h.HealthCheck)
}

// HealthCheck handles GET /health/live
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleError logs err and writes the matching error envelope
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status, code, message, details := classifyError(err)

	log := h.logger.WithContext(r.Context()).WithFields(map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"action": action,
		"code":   code,
	})
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	} else {
		log.Warn("Request rejected", "error", err)
	}

	respondError(w, status, code, message, details)
}

// decodeJSON strictly decodes a single JSON object into dst.
// Unknown fields, trailing data and oversized bodies are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("body", "must not be empty")
		default:
			return domain.NewValidationError("body", "invalid JSON: "+err.Error())
		}
	}
	if dec.More() {
		return domain.NewValidationError("body", "must contain a single JSON object")
	}
	return nil
}

var errBodyTooLarge = errors.New("request body too large")

// bindJSON decodes the body and writes the error response itself on failure
func (h *Handler) bindJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeJSON(w, r, dst)
	if err == nil {
		return true
	}
	if errors.Is(err, errBodyTooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, err.Error(), nil)
		return false
	}
	h.handleError(w, r, "decode body", err)
	return false
}

// checkQuery rejects query parameters outside allowed
func checkQuery(r *http.Request, allowed ...string) error {
	for _, key := range slices.Sorted(maps.Keys(r.URL.Query())) {
		if !slices.Contains(allowed, key) {
			return domain.NewValidationError(key, fmt.Sprintf("unknown query parameter (allowed: %v)", allowed))
		}
	}
	return nil
}
