package http

import (
	"net/http"
	"strconv"

	"domainlens/internal/domain"
	"domainlens/internal/service"
)

// ListMonitors handles GET /api/v1/monitors
func (h *Handler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMonitorFilter(r)
	if err != nil {
		h.handleError(w, r, "list monitors", err)
		return
	}

	monitors, err := h.monitors.List(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, "list monitors", err)
		return
	}

	now := h.now()
	out := make([]MonitorResponse, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, toMonitorResponse(m, now))
	}
	respondSuccess(w, http.StatusOK, out, "")
}

func parseMonitorFilter(r *http.Request) (domain.MonitorFilter, error) {
	var filter domain.MonitorFilter
	if err := checkQuery(r, "userId", "isActive"); err != nil {
		return filter, err
	}

	q := r.URL.Query()
	if userID := q.Get("userId"); userID != "" {
		filter.UserID = &userID
	}
	if raw := q.Get("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, domain.NewValidationError("isActive", "must be true or false")
		}
		filter.IsActive = &active
	}
	return filter, nil
}

// CreateMonitor handles POST /api/v1/monitors
func (h *Handler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	var req CreateMonitorRequest
	if !h.bindJSON(w, r, &req) {
		return
	}

	monitor, err := h.monitors.Create(r.Context(), service.CreateMonitorInput{
		DomainName: req.DomainName,
		UserID:     req.UserID,
		AlertEmail: req.AlertEmail,
	})
	if err != nil {
		h.handleError(w, r, "create monitor", err)
		return
	}

	respondSuccess(w, http.StatusCreated, toMonitorResponse(monitor, h.now()), "Domain monitoring started successfully")
}

// DeleteMonitor handles DELETE /api/v1/monitors/{id}
func (h *Handler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	if err := h.monitors.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.handleError(w, r, "delete monitor", err)
		return
	}

	respondSuccess(w, http.StatusOK, nil, "Monitor deleted successfully")
}

// RecordChange handles POST /api/v1/monitors/{id}/changes
func (h *Handler) RecordChange(w http.ResponseWriter, r *http.Request) {
	var req RecordChangeRequest
	if !h.bindJSON(w, r, &req) {
		return
	}

	change, err := h.monitors.RecordChange(r.Context(), r.PathValue("id"), service.ChangeInput{
		ChangeType: req.ChangeType,
		OldValue:   req.OldValue,
		NewValue:   req.NewValue,
		DetectedAt: req.DetectedAt,
	})
	if err != nil {
		h.handleError(w, r, "record change", err)
		return
	}

	respondSuccess(w, http.StatusCreated, toChangeResponse(*change), "")
}
