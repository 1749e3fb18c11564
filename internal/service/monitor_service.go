package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/metrics"
	"domainlens/internal/repository"
	"domainlens/pkg/validator"
)

// DomainEnsurer returns the stored domain for a name, creating it when absent
type DomainEnsurer interface {
	EnsureDomain(ctx context.Context, rawName string) (*domain.Domain, error)
}

// CreateMonitorInput is the payload of a new monitor
type CreateMonitorInput struct {
	DomainName string
	UserID     *string
	AlertEmail *string
}

// ChangeInput is a domain change reported by an external detector
type ChangeInput struct {
	ChangeType string
	OldValue   *string
	NewValue   *string
	DetectedAt *time.Time // Defaults to now
}

// MonitorService manages domain monitors and their change log.
// Change detection itself happens outside this service.
type MonitorService struct {
	store   repository.Store
	domains DomainEnsurer
	logger  *slog.Logger
}

// NewMonitorService creates a monitor service
func NewMonitorService(store repository.Store, domains DomainEnsurer, logger *slog.Logger) *MonitorService {
	return &MonitorService{store: store, domains: domains, logger: logger}
}

// Create starts monitoring a domain, creating the domain if it is not known yet
func (s *MonitorService) Create(ctx context.Context, in CreateMonitorInput) (*domain.DomainMonitor, error) {
	if strings.TrimSpace(in.DomainName) == "" {
		return nil, domain.NewValidationError("domainName", "is required")
	}
	userID := emptyToNil(in.UserID)
	alertEmail := emptyToNil(in.AlertEmail)
	if alertEmail != nil {
		if err := validator.ValidateEmail(*alertEmail); err != nil {
			return nil, domain.NewValidationError("alertEmail", err.Error())
		}
	}

	d, err := s.domains.EnsureDomain(ctx, in.DomainName)
	if err != nil {
		return nil, err
	}

	monitor := domain.NewMonitor(d.ID, userID, alertEmail)
	if err := s.store.Monitors().Create(ctx, monitor); err != nil {
		return nil, fmt.Errorf("failed to create monitor: %w", err)
	}
	monitor.Domain = d

	metrics.RecordMonitorCreated()
	s.logger.Info("Monitor created", "monitor_id", monitor.ID, "domain", d.Name)
	return monitor, nil
}

// List returns the monitors matching filter, newest first
func (s *MonitorService) List(ctx context.Context, filter domain.MonitorFilter) ([]*domain.DomainMonitor, error) {
	monitors, err := s.store.Monitors().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitors: %w", err)
	}
	return monitors, nil
}

// Delete removes a monitor and its change log
func (s *MonitorService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError("id", "is required")
	}
	if err := s.store.Monitors().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete monitor: %w", err)
	}

	s.logger.Info("Monitor deleted", "monitor_id", id)
	return nil
}

// RecordChange appends a change to a monitor's log and updates its last check time
func (s *MonitorService) RecordChange(ctx context.Context, monitorID string, in ChangeInput) (*domain.DomainChange, error) {
	if err := validator.ValidateChangeType(in.ChangeType); err != nil {
		return nil, domain.NewValidationError("changeType", err.Error())
	}

	change := &domain.DomainChange{
		MonitorID:  monitorID,
		ChangeType: strings.TrimSpace(in.ChangeType),
		OldValue:   in.OldValue,
		NewValue:   in.NewValue,
	}
	if in.DetectedAt != nil {
		change.DetectedAt = in.DetectedAt.UTC()
	}

	if err := s.store.Monitors().AppendChange(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to record change: %w", err)
	}
	return change, nil
}

// emptyToNil treats blank optional strings as absent
func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
