package http

import (
	"fmt"
	"net/http"
	"strconv"

	"domainlens/internal/domain"
)

var searchParams = []string{"q", "tld", "page", "limit", "sortBy", "sortOrder"}

// SearchDomains handles GET /api/v1/domains
func (h *Handler) SearchDomains(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r)
	if err != nil {
		h.handleError(w, r, "search domains", err)
		return
	}

	result, err := h.search.Search(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, "search domains", err)
		return
	}

	respondSuccess(w, http.StatusOK, SearchResponse{
		Domains:    toDomainResponses(result.Domains, h.now()),
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
		Limit:      result.Limit,
	}, "")
}

// parseSearchFilter builds a SearchFilter from the query string.
// Absent parameters keep their defaults; range checks happen in SearchFilter.Validate.
func parseSearchFilter(r *http.Request) (domain.SearchFilter, error) {
	filter := domain.NewSearchFilter()
	if err := checkQuery(r, searchParams...); err != nil {
		return filter, err
	}

	q := r.URL.Query()
	filter.Query = q.Get("q")
	if tld := q.Get("tld"); tld != "" {
		filter.TLD = domain.NormalizeTLD(tld)
	}

	var err error
	if filter.Page, err = intParam(q.Get("page"), "page", filter.Page); err != nil {
		return filter, err
	}
	if filter.Limit, err = intParam(q.Get("limit"), "limit", filter.Limit); err != nil {
		return filter, err
	}
	if v := q.Get("sortBy"); v != "" {
		filter.SortBy = domain.SortField(v)
	}
	if v := q.Get("sortOrder"); v != "" {
		filter.SortOrder = domain.SortOrder(v)
	}
	return filter, nil
}

// intParam parses an integer query parameter, returning def when it is absent
func intParam(raw, field string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(field, "must be an integer")
	}
	return v, nil
}

// IngestDomains handles POST /api/v1/domains
func (h *Handler) IngestDomains(w http.ResponseWriter, r *http.Request) {
	var req IngestDomainsRequest
	if !h.bindJSON(w, r, &req) {
		return
	}

	domains, err := h.ingest.IngestDomains(r.Context(), req.Domains)
	if err != nil {
		h.handleError(w, r, "ingest domains", err)
		return
	}

	respondSuccess(w, http.StatusOK, toDomainResponses(domains, h.now()),
		fmt.Sprintf("Successfully added %d domains", len(domains)))
}

// GetDomain handles GET /api/v1/domains/{name}
func (h *Handler) GetDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.search.GetDomain(r.Context(), r.PathValue("name"))
	if err != nil {
		h.handleError(w, r, "get domain", err)
		return
	}

	respondSuccess(w, http.StatusOK, toDomainResponse(d, h.now()), "")
}

// EnrichDomain handles POST /api/v1/domains/{name}/enrich
func (h *Handler) EnrichDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.ingest.Enrich(r.Context(), r.PathValue("name"))
	if err != nil {
		h.handleError(w, r, "enrich domain", err)
		return
	}

	respondSuccess(w, http.StatusOK, toDomainResponse(d, h.now()), "Registration data updated")
}
