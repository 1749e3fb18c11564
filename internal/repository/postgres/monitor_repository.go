package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"domainlens/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const monitorColumns = `m.id, m.domain_id, m.user_id, m.alert_email, m.is_active,
	m.last_checked, m.created_at, m.updated_at`

// monitorRepository is the PostgreSQL implementation of repository.MonitorRepository
type monitorRepository struct {
	db querier
}

func scanMonitor(row pgx.Row) (*domain.DomainMonitor, error) {
	m := &domain.DomainMonitor{}
	err := row.Scan(
		&m.ID,
		&m.DomainID,
		&m.UserID,
		&m.AlertEmail,
		&m.IsActive,
		&m.LastChecked,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func (r *monitorRepository) Create(ctx context.Context, monitor *domain.DomainMonitor) (err error) {
	defer observe("monitor_create", time.Now(), &err)

	if _, perr := uuid.Parse(monitor.DomainID); perr != nil {
		return domain.NewNotFoundError("domain", monitor.DomainID)
	}

	// The SELECT yields no row for an unknown domain, which surfaces as ErrNoRows.
	query := `
		INSERT INTO domain_monitors (id, domain_id, user_id, alert_email, is_active, last_checked, created_at, updated_at)
		SELECT $1::uuid, d.id, $3::text, $4::text, $5::boolean, $6::timestamptz, $7::timestamptz, $7::timestamptz
		FROM domains d WHERE d.id = $2::uuid
		RETURNING id`

	err = r.db.QueryRow(ctx, query,
		newID(),
		monitor.DomainID,
		monitor.UserID,
		monitor.AlertEmail,
		monitor.IsActive,
		monitor.LastChecked,
		monitor.CreatedAt,
	).Scan(&monitor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewNotFoundError("domain", monitor.DomainID)
		}
		return domain.NewStoreError("create monitor", err)
	}
	return nil
}

func (r *monitorRepository) Get(ctx context.Context, id string) (m *domain.DomainMonitor, err error) {
	defer observe("monitor_get", time.Now(), &err)

	if _, perr := uuid.Parse(id); perr != nil {
		return nil, domain.NewNotFoundError("monitor", id)
	}

	m, err = scanMonitor(r.db.QueryRow(ctx, `SELECT `+monitorColumns+` FROM domain_monitors m WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("monitor", id)
		}
		return nil, domain.NewStoreError("get monitor", err)
	}
	return m, nil
}

func (r *monitorRepository) Delete(ctx context.Context, id string) (err error) {
	defer observe("monitor_delete", time.Now(), &err)

	if _, perr := uuid.Parse(id); perr != nil {
		return domain.NewNotFoundError("monitor", id)
	}

	// domain_changes rows go with the monitor through ON DELETE CASCADE.
	tag, err := r.db.Exec(ctx, `DELETE FROM domain_monitors WHERE id = $1`, id)
	if err != nil {
		return domain.NewStoreError("delete monitor", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("monitor", id)
	}
	return nil
}

func (r *monitorRepository) List(ctx context.Context, filter domain.MonitorFilter) (out []*domain.DomainMonitor, err error) {
	defer observe("monitor_list", time.Now(), &err)

	var (
		conds []string
		args  []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("m.user_id = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conds = append(conds, fmt.Sprintf("m.is_active = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	query := `SELECT ` + monitorColumns + `, ` + domainColumns + `
		FROM domain_monitors m
		JOIN domains d ON d.id = m.domain_id` + where + `
		ORDER BY m.created_at DESC, m.id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreError("list monitors", err)
	}
	defer rows.Close()

	var domains []*domain.Domain
	for rows.Next() {
		m := &domain.DomainMonitor{}
		d := &domain.Domain{}
		err = rows.Scan(
			&m.ID, &m.DomainID, &m.UserID, &m.AlertEmail, &m.IsActive,
			&m.LastChecked, &m.CreatedAt, &m.UpdatedAt,
			&d.ID, &d.Name, &d.SLD, &d.TLD, &d.Status, &d.Registrar,
			&d.RegisteredAt, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, domain.NewStoreError("scan monitor", err)
		}
		m.Domain = d
		domains = append(domains, d)
		out = append(out, m)
	}
	if err = rows.Err(); err != nil {
		return nil, domain.NewStoreError("iterate monitors", err)
	}
	rows.Close()

	if err = attachKeywords(ctx, r.db, domains); err != nil {
		return nil, err
	}
	if err = r.attachRecentChanges(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachRecentChanges loads the newest changes of every monitor in one query.
func (r *monitorRepository) attachRecentChanges(ctx context.Context, monitors []*domain.DomainMonitor) error {
	if len(monitors) == 0 {
		return nil
	}

	byID := make(map[string]*domain.DomainMonitor, len(monitors))
	ids := make([]string, 0, len(monitors))
	for _, m := range monitors {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	query := `
		SELECT id, monitor_id, change_type, old_value, new_value, detected_at
		FROM (
			SELECT c.*, ROW_NUMBER() OVER (PARTITION BY c.monitor_id ORDER BY c.detected_at DESC) AS rn
			FROM domain_changes c
			WHERE c.monitor_id = ANY($1)
		) ranked
		WHERE rn <= $2
		ORDER BY monitor_id, detected_at DESC`

	rows, err := r.db.Query(ctx, query, uuidArray(ids), domain.RecentChangesLimit)
	if err != nil {
		return domain.NewStoreError("load monitor changes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.DomainChange
		if err := rows.Scan(&c.ID, &c.MonitorID, &c.ChangeType, &c.OldValue, &c.NewValue, &c.DetectedAt); err != nil {
			return domain.NewStoreError("scan monitor change", err)
		}
		if m, ok := byID[c.MonitorID]; ok {
			m.Changes = append(m.Changes, c)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.NewStoreError("iterate monitor changes", err)
	}
	return nil
}

func (r *monitorRepository) CountActive(ctx context.Context) (n int64, err error) {
	defer observe("monitor_count", time.Now(), &err)

	if err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM domain_monitors WHERE is_active`).Scan(&n); err != nil {
		return 0, domain.NewStoreError("count monitors", err)
	}
	return n, nil
}

func (r *monitorRepository) AppendChange(ctx context.Context, change *domain.DomainChange) (err error) {
	defer observe("monitor_change", time.Now(), &err)

	if _, perr := uuid.Parse(change.MonitorID); perr != nil {
		return domain.NewNotFoundError("monitor", change.MonitorID)
	}
	if change.DetectedAt.IsZero() {
		change.DetectedAt = time.Now().UTC()
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE domain_monitors SET last_checked = $2, updated_at = now() WHERE id = $1`,
			change.MonitorID, change.DetectedAt)
		if err != nil {
			return domain.NewStoreError("touch monitor", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFoundError("monitor", change.MonitorID)
		}

		change.ID = newID()
		_, err = tx.Exec(ctx, `
			INSERT INTO domain_changes (id, monitor_id, change_type, old_value, new_value, detected_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			change.ID, change.MonitorID, change.ChangeType, change.OldValue, change.NewValue, change.DetectedAt)
		if err != nil {
			return domain.NewStoreError("insert monitor change", err)
		}
		return nil
	})
}
