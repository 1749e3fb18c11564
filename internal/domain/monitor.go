package domain

import "time"

// RecentChangesLimit is how many changes are attached to a listed monitor.
const RecentChangesLimit = 5

// DomainMonitor is a user's subscription to change notifications for a domain.
type DomainMonitor struct {
	ID          string
	DomainID    string
	UserID      *string
	AlertEmail  *string
	IsActive    bool
	LastChecked time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Domain  *Domain
	Changes []DomainChange // Most recent first
}

// DomainChange is one entry of a monitor's append-only change log.
type DomainChange struct {
	ID         string
	MonitorID  string
	ChangeType string
	OldValue   *string
	NewValue   *string
	DetectedAt time.Time
}

// MonitorFilter selects monitors; nil fields do not filter.
type MonitorFilter struct {
	UserID   *string
	IsActive *bool
}

// NewMonitor creates an active monitor for a domain.
func NewMonitor(domainID string, userID, alertEmail *string) *DomainMonitor {
	now := time.Now().UTC()
	return &DomainMonitor{
		DomainID:    domainID,
		UserID:      userID,
		AlertEmail:  alertEmail,
		IsActive:    true,
		LastChecked: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Matches reports whether the monitor passes the filter.
func (f MonitorFilter) Matches(m *DomainMonitor) bool {
	if f.UserID != nil && (m.UserID == nil || *m.UserID != *f.UserID) {
		return false
	}
	if f.IsActive != nil && m.IsActive != *f.IsActive {
		return false
	}
	return true
}
