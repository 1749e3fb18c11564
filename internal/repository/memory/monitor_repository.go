package memory

import (
	"cmp"
	"context"
	"slices"

	"domainlens/internal/domain"
)

type monitorRepository struct {
	db *database
}

func (r *monitorRepository) Create(ctx context.Context, monitor *domain.DomainMonitor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.st.domains[monitor.DomainID]; !ok {
		return domain.NewNotFoundError("domain", monitor.DomainID)
	}

	monitor.ID = newID()
	row := *monitor
	row.Domain = nil
	row.Changes = nil
	r.db.st.monitors[monitor.ID] = row
	return nil
}

func (r *monitorRepository) Get(ctx context.Context, id string) (*domain.DomainMonitor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	m, ok := r.db.st.monitors[id]
	if !ok {
		return nil, domain.NewNotFoundError("monitor", id)
	}
	return &m, nil
}

func (r *monitorRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.st.monitors[id]; !ok {
		return domain.NewNotFoundError("monitor", id)
	}
	delete(r.db.st.monitors, id)
	r.db.st.changes = slices.DeleteFunc(r.db.st.changes, func(c domain.DomainChange) bool {
		return c.MonitorID == id
	})
	return nil
}

func (r *monitorRepository) List(ctx context.Context, filter domain.MonitorFilter) ([]*domain.DomainMonitor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*domain.DomainMonitor
	for _, m := range r.db.st.monitors {
		if !filter.Matches(&m) {
			continue
		}
		m.Domain = r.db.st.domainWithKeywords(m.DomainID)
		m.Changes = r.recentChanges(m.ID)
		out = append(out, &m)
	}

	slices.SortFunc(out, func(a, b *domain.DomainMonitor) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// recentChanges returns the newest changes of a monitor. Callers must hold db.mu.
func (r *monitorRepository) recentChanges(monitorID string) []domain.DomainChange {
	var out []domain.DomainChange
	for _, c := range r.db.st.changes {
		if c.MonitorID == monitorID {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.DomainChange) int {
		return b.DetectedAt.Compare(a.DetectedAt)
	})
	if len(out) > domain.RecentChangesLimit {
		out = out[:domain.RecentChangesLimit]
	}
	return out
}

func (r *monitorRepository) CountActive(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, m := range r.db.st.monitors {
		if m.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *monitorRepository) AppendChange(ctx context.Context, change *domain.DomainChange) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.st.monitors[change.MonitorID]
	if !ok {
		return domain.NewNotFoundError("monitor", change.MonitorID)
	}

	change.ID = newID()
	if change.DetectedAt.IsZero() {
		change.DetectedAt = r.db.now()
	}
	r.db.st.changes = append(r.db.st.changes, *change)

	m.LastChecked = change.DetectedAt
	m.UpdatedAt = r.db.now()
	r.db.st.monitors[m.ID] = m
	return nil
}
