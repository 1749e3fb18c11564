package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/service"
)

// GetKeyword handles GET /api/v1/keywords/{word}
func (h *Handler) GetKeyword(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.keywords.Analyze(r.Context(), r.PathValue("word"))
	if err != nil {
		h.handleError(w, r, "analyze keyword", err)
		return
	}

	respondSuccess(w, http.StatusOK, KeywordAnalysisResponse{
		KeywordResponse: toKeywordResponse(analysis.Keyword),
		TotalDomains:    analysis.TotalDomains,
		Trends:          toTrendPoints(analysis.Trends),
		TopDomains:      toDomainResponses(analysis.TopDomains, h.now()),
	}, "")
}

// UpdateKeyword handles PUT /api/v1/keywords/{word}.
// Only the fields present in the body are written.
func (h *Handler) UpdateKeyword(w http.ResponseWriter, r *http.Request) {
	var req UpdateKeywordRequest
	if !h.bindJSON(w, r, &req) {
		return
	}

	kw, err := h.keywords.UpdateMetrics(r.Context(), r.PathValue("word"), domain.KeywordMetrics{
		SearchVolume: req.SearchVolume,
		CPC:          req.CPC,
		Competition:  req.Competition,
	})
	if err != nil {
		h.handleError(w, r, "update keyword", err)
		return
	}

	respondSuccess(w, http.StatusOK, toKeywordResponse(kw), "Keyword updated")
}

// RecordTrend handles POST /api/v1/keywords/{word}/trends
func (h *Handler) RecordTrend(w http.ResponseWriter, r *http.Request) {
	var req RecordTrendRequest
	if !h.bindJSON(w, r, &req) {
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.handleError(w, r, "record trend", domain.NewValidationError("date", "must be formatted as YYYY-MM-DD"))
		return
	}

	trend, err := h.keywords.RecordTrend(r.Context(), r.PathValue("word"), date, req.DomainCount, req.NewDomains)
	if err != nil {
		h.handleError(w, r, "record trend", err)
		return
	}

	respondSuccess(w, http.StatusOK, toTrendPoint(*trend), "Trend recorded")
}

// GetTrends handles GET /api/v1/trends.
// With ?keyword= it returns that keyword's history, otherwise the trending keywords.
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	if err := checkQuery(r, "keyword", "period", "limit"); err != nil {
		h.handleError(w, r, "get trends", err)
		return
	}

	q := r.URL.Query()
	period, err := parsePeriod(q.Get("period"))
	if err != nil {
		h.handleError(w, r, "get trends", err)
		return
	}
	limit, err := intParam(q.Get("limit"), "limit", service.DefaultTrendLimit)
	if err != nil {
		h.handleError(w, r, "get trends", err)
		return
	}

	result, err := h.keywords.Trends(r.Context(), service.TrendQuery{
		Keyword:    q.Get("keyword"),
		PeriodDays: period,
		Limit:      limit,
	})
	if err != nil {
		h.handleError(w, r, "get trends", err)
		return
	}

	if result.History != nil {
		respondSuccess(w, http.StatusOK, KeywordHistoryResponse{
			Keyword: result.History.Keyword.Word,
			Trends:  toTrendPoints(result.History.Trends),
		}, "")
		return
	}
	respondSuccess(w, http.StatusOK, toTrendingResponses(result.Trending), "")
}

// parsePeriod accepts a day count with an optional "d" suffix, e.g. "30d" or "7"
func parsePeriod(raw string) (int, error) {
	if raw == "" {
		return service.DefaultTrendPeriodDays, nil
	}
	days, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(raw), "d"))
	if err != nil {
		return 0, domain.NewValidationError("period", "must be a number of days such as 30d")
	}
	return days, nil
}
