package postgres

import (
	"context"
	"fmt"
	"time"

	"domainlens/internal/domain"
)

// trendRepository is the PostgreSQL implementation of repository.TrendRepository
type trendRepository struct {
	db querier
}

func (r *trendRepository) Upsert(ctx context.Context, trend *domain.KeywordTrend) (err error) {
	defer observe("trend_upsert", time.Now(), &err)

	trend.Date = domain.TruncateDay(trend.Date)

	query := `
		INSERT INTO keyword_trends AS t (id, keyword_id, date, domain_count, new_domains)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (keyword_id, date) DO UPDATE SET
			domain_count = EXCLUDED.domain_count,
			new_domains  = EXCLUDED.new_domains
		RETURNING t.id`

	err = r.db.QueryRow(ctx, query, newID(), trend.KeywordID, trend.Date, trend.DomainCount, trend.NewDomains).
		Scan(&trend.ID)
	if err != nil {
		return domain.NewStoreError("upsert trend", err)
	}
	return nil
}

func (r *trendRepository) ListForKeyword(ctx context.Context, keywordID string, since time.Time, limit int, order domain.SortOrder) (out []domain.KeywordTrend, err error) {
	defer observe("trend_list", time.Now(), &err)

	direction := "ASC"
	if order == domain.SortDesc {
		direction = "DESC"
	}

	// A zero since and a zero limit disable their bounds.
	query := fmt.Sprintf(`
		SELECT id, keyword_id, date, domain_count, new_domains
		FROM keyword_trends
		WHERE keyword_id = $1 AND ($2::date IS NULL OR date >= $2::date)
		ORDER BY date %s
		LIMIT NULLIF($3, 0)`, direction)

	var sinceArg *time.Time
	if !since.IsZero() {
		sinceArg = &since
	}

	rows, err := r.db.Query(ctx, query, keywordID, sinceArg, limit)
	if err != nil {
		return nil, domain.NewStoreError("list trends", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.KeywordTrend
		if err = rows.Scan(&t.ID, &t.KeywordID, &t.Date, &t.DomainCount, &t.NewDomains); err != nil {
			return nil, domain.NewStoreError("scan trend", err)
		}
		t.Date = domain.TruncateDay(t.Date)
		out = append(out, t)
	}
	if err = rows.Err(); err != nil {
		return nil, domain.NewStoreError("iterate trends", err)
	}
	return out, nil
}

func (r *trendRepository) UpsertTLDStatistic(ctx context.Context, stat *domain.TldStatistic) (err error) {
	defer observe("tld_statistic_upsert", time.Now(), &err)

	if stat.Date.IsZero() {
		stat.Date = time.Now().UTC()
	}

	query := `
		INSERT INTO tld_statistics AS s (id, tld, total_domains, new_domains, date, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (tld) DO UPDATE SET
			total_domains = EXCLUDED.total_domains,
			new_domains   = EXCLUDED.new_domains,
			date          = EXCLUDED.date,
			updated_at    = now()
		RETURNING s.id, s.updated_at`

	err = r.db.QueryRow(ctx, query, newID(), stat.TLD, stat.TotalDomains, stat.NewDomains, stat.Date).
		Scan(&stat.ID, &stat.UpdatedAt)
	if err != nil {
		return domain.NewStoreError("upsert tld statistic", err)
	}
	return nil
}

func (r *trendRepository) ListTLDStatistics(ctx context.Context) (out []domain.TldStatistic, err error) {
	defer observe("tld_statistic_list", time.Now(), &err)

	rows, err := r.db.Query(ctx, `
		SELECT id, tld, total_domains, new_domains, date, updated_at
		FROM tld_statistics
		ORDER BY total_domains DESC, tld ASC`)
	if err != nil {
		return nil, domain.NewStoreError("list tld statistics", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.TldStatistic
		if err = rows.Scan(&s.ID, &s.TLD, &s.TotalDomains, &s.NewDomains, &s.Date, &s.UpdatedAt); err != nil {
			return nil, domain.NewStoreError("scan tld statistic", err)
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, domain.NewStoreError("iterate tld statistics", err)
	}
	return out, nil
}
