package http

import (
	"net/http"
)

// GetStats handles GET /api/v1/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	dash, err := h.stats.Dashboard(r.Context())
	if err != nil {
		h.handleError(w, r, "get stats", err)
		return
	}

	tlds := make([]TLDCountResponse, 0, len(dash.TLDDistribution))
	for _, c := range dash.TLDDistribution {
		tlds = append(tlds, TLDCountResponse{TLD: c.TLD, Count: c.Count})
	}

	respondSuccess(w, http.StatusOK, DashboardResponse{
		TotalDomains:     dash.TotalDomains,
		TotalKeywords:    dash.TotalKeywords,
		TotalMonitors:    dash.TotalMonitors,
		RecentDomains:    toDomainResponses(dash.RecentDomains, h.now()),
		TrendingKeywords: toTrendingResponses(dash.TrendingKeywords),
		TLDDistribution:  tlds,
	}, "")
}

// GetTLDStatistics handles GET /api/v1/tlds
func (h *Handler) GetTLDStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.TLDStatistics(r.Context())
	if err != nil {
		h.handleError(w, r, "get tld statistics", err)
		return
	}

	out := make([]TLDStatisticResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, TLDStatisticResponse{
			TLD:          s.TLD,
			TotalDomains: s.TotalDomains,
			NewDomains:   s.NewDomains,
			Date:         s.Date,
			UpdatedAt:    s.UpdatedAt,
		})
	}
	respondSuccess(w, http.StatusOK, out, "")
}
