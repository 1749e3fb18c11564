package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"domainlens/internal/domain"

	"github.com/jackc/pgx/v5"
)

const domainColumns = `d.id, d.name, d.sld, d.tld, d.status, d.registrar,
	d.registered_at, d.expires_at, d.created_at, d.updated_at`

// sortColumns maps every recognized sort field to its column.
// Only values from this map are ever interpolated into SQL.
var sortColumns = map[domain.SortField]string{
	domain.SortByCreatedAt:    "d.created_at",
	domain.SortByUpdatedAt:    "d.updated_at",
	domain.SortByName:         "d.name",
	domain.SortByRegisteredAt: "d.registered_at",
	domain.SortByTLD:          "d.tld",
}

// domainRepository is the PostgreSQL implementation of repository.DomainRepository
type domainRepository struct {
	db querier
}

func scanDomain(row pgx.Row) (*domain.Domain, error) {
	d := &domain.Domain{}
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.SLD,
		&d.TLD,
		&d.Status, // pgx handles NULL -> nil for pointer fields
		&d.Registrar,
		&d.RegisteredAt,
		&d.ExpiresAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}

func (r *domainRepository) FindByName(ctx context.Context, name string) (d *domain.Domain, err error) {
	defer observe("domain_find", time.Now(), &err)

	query := `SELECT ` + domainColumns + ` FROM domains d WHERE d.name = $1`

	d, err = scanDomain(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("domain", name)
		}
		return nil, domain.NewStoreError("find domain", err)
	}

	if err := attachKeywords(ctx, r.db, []*domain.Domain{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// Upsert relies on INSERT ... ON CONFLICT so that concurrent ingestion of the
// same name resolves to a single row. DomainKeep still performs a self-assignment
// so RETURNING yields the existing row.
func (r *domainRepository) Upsert(ctx context.Context, parsed domain.ParsedName, policy domain.DomainConflictPolicy) (d *domain.Domain, err error) {
	defer observe("domain_upsert", time.Now(), &err)

	onConflict := `UPDATE SET name = d.name`
	if policy == domain.DomainTouch {
		onConflict = `UPDATE SET updated_at = now()`
	}

	query := `
		INSERT INTO domains AS d (id, name, sld, tld, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (name) DO ` + onConflict + `
		RETURNING ` + domainColumns

	d, err = scanDomain(r.db.QueryRow(ctx, query,
		newID(),
		parsed.Name,
		parsed.SLD,
		parsed.TLD,
		domain.StatusActive,
	))
	if err != nil {
		return nil, domain.NewStoreError("upsert domain", err)
	}
	return d, nil
}

func (r *domainRepository) Search(ctx context.Context, filter domain.SearchFilter) (page []*domain.Domain, total int64, err error) {
	defer observe("domain_search", time.Now(), &err)

	var (
		conds []string
		args  []any
	)
	if filter.Query != "" {
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		conds = append(conds, fmt.Sprintf("(d.name ILIKE $%d OR d.sld ILIKE $%d)", len(args), len(args)))
	}
	if filter.TLD != "" {
		args = append(args, filter.TLD)
		conds = append(conds, fmt.Sprintf("d.tld = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	if err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM domains d`+where, args...).Scan(&total); err != nil {
		return nil, 0, domain.NewStoreError("count search", err)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns[domain.SortByCreatedAt]
	}
	direction := "DESC"
	if filter.SortOrder == domain.SortAsc {
		direction = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM domains d%s ORDER BY %s %s NULLS LAST, d.name ASC LIMIT $%d OFFSET $%d`,
		domainColumns, where, column, direction, len(args)-1, len(args))

	page, err = queryDomains(ctx, r.db, query, args...)
	if err != nil {
		return nil, 0, domain.NewStoreError("search domains", err)
	}
	if err = attachKeywords(ctx, r.db, page); err != nil {
		return nil, 0, err
	}
	return page, total, nil
}

func (r *domainRepository) ListCreatedSince(ctx context.Context, since time.Time, limit int) (out []*domain.Domain, err error) {
	defer observe("domain_recent", time.Now(), &err)

	query := `SELECT ` + domainColumns + ` FROM domains d
		WHERE d.created_at >= $1
		ORDER BY d.created_at DESC
		LIMIT $2`

	out, err = queryDomains(ctx, r.db, query, since, limit)
	if err != nil {
		return nil, domain.NewStoreError("list recent domains", err)
	}
	if err = attachKeywords(ctx, r.db, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *domainRepository) Count(ctx context.Context) (n int64, err error) {
	defer observe("domain_count", time.Now(), &err)

	if err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM domains`).Scan(&n); err != nil {
		return 0, domain.NewStoreError("count domains", err)
	}
	return n, nil
}

func (r *domainRepository) UpdateRegistration(ctx context.Context, name string, reg domain.Registration) (d *domain.Domain, err error) {
	defer observe("domain_registration", time.Now(), &err)

	// COALESCE keeps stored values for fields the lookup did not return.
	query := `
		UPDATE domains AS d SET
			status        = COALESCE($2, d.status),
			registrar     = COALESCE($3, d.registrar),
			registered_at = COALESCE($4, d.registered_at),
			expires_at    = COALESCE($5, d.expires_at),
			updated_at    = now()
		WHERE d.name = $1
		RETURNING ` + domainColumns

	d, err = scanDomain(r.db.QueryRow(ctx, query, name, reg.Status, reg.Registrar, reg.RegisteredAt, reg.ExpiresAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("domain", name)
		}
		return nil, domain.NewStoreError("update registration", err)
	}
	if err = attachKeywords(ctx, r.db, []*domain.Domain{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *domainRepository) TLDDistribution(ctx context.Context, topN int) (out []domain.TLDCount, err error) {
	defer observe("tld_distribution", time.Now(), &err)

	query := `
		SELECT tld, COUNT(*) AS count
		FROM domains
		GROUP BY tld
		ORDER BY count DESC, tld ASC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, topN)
	if err != nil {
		return nil, domain.NewStoreError("tld distribution", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.TLDCount
		if err = rows.Scan(&c.TLD, &c.Count); err != nil {
			return nil, domain.NewStoreError("scan tld distribution", err)
		}
		out = append(out, c)
	}
	if err = rows.Err(); err != nil {
		return nil, domain.NewStoreError("iterate tld distribution", err)
	}
	return out, nil
}

// queryDomains runs a query selecting domainColumns and collects the rows.
func queryDomains(ctx context.Context, db querier, query string, args ...any) ([]*domain.Domain, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// attachKeywords loads the keyword associations of all given domains in one query.
func attachKeywords(ctx context.Context, db querier, domains []*domain.Domain) error {
	if len(domains) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Domain, len(domains))
	ids := make([]string, 0, len(domains))
	for _, d := range domains {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	query := `
		SELECT dk.id, dk.domain_id, dk.keyword_id, dk.position,
		       k.word, k.search_volume, k.cpc, k.competition, k.created_at, k.updated_at
		FROM domain_keywords dk
		JOIN keywords k ON k.id = dk.keyword_id
		WHERE dk.domain_id = ANY($1)
		ORDER BY dk.domain_id, dk.position`

	rows, err := db.Query(ctx, query, uuidArray(ids))
	if err != nil {
		return domain.NewStoreError("load domain keywords", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			link domain.DomainKeyword
			kw   domain.Keyword
		)
		err := rows.Scan(
			&link.ID,
			&link.DomainID,
			&link.KeywordID,
			&link.Position,
			&kw.Word,
			&kw.SearchVolume,
			&kw.CPC,
			&kw.Competition,
			&kw.CreatedAt,
			&kw.UpdatedAt,
		)
		if err != nil {
			return domain.NewStoreError("scan domain keyword", err)
		}
		kw.ID = link.KeywordID
		link.Keyword = &kw

		if d, ok := byID[link.DomainID]; ok {
			d.Keywords = append(d.Keywords, link)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.NewStoreError("iterate domain keywords", err)
	}
	return nil
}

// escapeLike escapes LIKE wildcards so the query is matched literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
