package postgres

import (
	"context"
	"errors"
	"time"

	"domainlens/internal/domain"

	"github.com/jackc/pgx/v5"
)

const keywordColumns = `k.id, k.word, k.search_volume, k.cpc, k.competition, k.created_at, k.updated_at`

// keywordRepository is the PostgreSQL implementation of repository.KeywordRepository
type keywordRepository struct {
	db querier
}

func scanKeyword(row pgx.Row) (*domain.Keyword, error) {
	k := &domain.Keyword{}
	err := row.Scan(&k.ID, &k.Word, &k.SearchVolume, &k.CPC, &k.Competition, &k.CreatedAt, &k.UpdatedAt)
	return k, err
}

func (r *keywordRepository) FindByWord(ctx context.Context, word string) (k *domain.Keyword, err error) {
	defer observe("keyword_find", time.Now(), &err)

	k, err = scanKeyword(r.db.QueryRow(ctx, `SELECT `+keywordColumns+` FROM keywords k WHERE k.word = $1`, word))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("keyword", word)
		}
		return nil, domain.NewStoreError("find keyword", err)
	}
	return k, nil
}

func (r *keywordRepository) Upsert(ctx context.Context, defaults domain.KeywordDefaults, policy domain.KeywordMergePolicy) (k *domain.Keyword, err error) {
	defer observe("keyword_upsert", time.Now(), &err)

	onConflict := `UPDATE SET word = k.word`
	if policy == domain.KeywordMaxVolume {
		onConflict = `UPDATE SET
			search_volume = GREATEST(k.search_volume, EXCLUDED.search_volume),
			updated_at    = now()`
	}

	query := `
		INSERT INTO keywords AS k (id, word, search_volume, cpc, competition, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (word) DO ` + onConflict + `
		RETURNING ` + keywordColumns

	k, err = scanKeyword(r.db.QueryRow(ctx, query,
		newID(),
		defaults.Word,
		defaults.SearchVolume,
		defaults.CPC,
		defaults.Competition,
	))
	if err != nil {
		return nil, domain.NewStoreError("upsert keyword", err)
	}
	return k, nil
}

func (r *keywordRepository) UpsertDomainKeyword(ctx context.Context, domainID, keywordID string, position int) (link *domain.DomainKeyword, err error) {
	defer observe("domain_keyword_upsert", time.Now(), &err)

	// An existing association keeps its original position.
	query := `
		INSERT INTO domain_keywords AS dk (id, domain_id, keyword_id, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (domain_id, keyword_id) DO UPDATE SET position = dk.position
		RETURNING dk.id, dk.domain_id, dk.keyword_id, dk.position`

	link = &domain.DomainKeyword{}
	err = r.db.QueryRow(ctx, query, newID(), domainID, keywordID, position).
		Scan(&link.ID, &link.DomainID, &link.KeywordID, &link.Position)
	if err != nil {
		return nil, domain.NewStoreError("upsert domain keyword", err)
	}
	return link, nil
}

func (r *keywordRepository) UpdateMetrics(ctx context.Context, word string, metrics domain.KeywordMetrics) (k *domain.Keyword, err error) {
	defer observe("keyword_metrics", time.Now(), &err)

	query := `
		UPDATE keywords AS k SET
			search_volume = COALESCE($2, k.search_volume),
			cpc           = COALESCE($3, k.cpc),
			competition   = COALESCE($4, k.competition),
			updated_at    = now()
		WHERE k.word = $1
		RETURNING ` + keywordColumns

	k, err = scanKeyword(r.db.QueryRow(ctx, query, word, metrics.SearchVolume, metrics.CPC, metrics.Competition))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("keyword", word)
		}
		return nil, domain.NewStoreError("update keyword metrics", err)
	}
	return k, nil
}

func (r *keywordRepository) Count(ctx context.Context) (n int64, err error) {
	defer observe("keyword_count", time.Now(), &err)

	if err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM keywords`).Scan(&n); err != nil {
		return 0, domain.NewStoreError("count keywords", err)
	}
	return n, nil
}

func (r *keywordRepository) TopBySearchVolume(ctx context.Context, n int) (out []*domain.Keyword, err error) {
	defer observe("keyword_top", time.Now(), &err)

	query := `SELECT ` + keywordColumns + ` FROM keywords k
		ORDER BY k.search_volume DESC, k.word ASC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, domain.NewStoreError("top keywords", err)
	}
	defer rows.Close()

	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, domain.NewStoreError("scan keyword", err)
		}
		out = append(out, k)
	}
	if err = rows.Err(); err != nil {
		return nil, domain.NewStoreError("iterate keywords", err)
	}
	return out, nil
}

func (r *keywordRepository) DomainsForKeyword(ctx context.Context, keywordID string, limit int) (out []*domain.Domain, err error) {
	defer observe("keyword_domains", time.Now(), &err)

	query := `SELECT ` + domainColumns + ` FROM domains d
		JOIN domain_keywords dk ON dk.domain_id = d.id
		WHERE dk.keyword_id = $1
		ORDER BY d.created_at ASC, d.name ASC
		LIMIT $2`

	out, err = queryDomains(ctx, r.db, query, keywordID, limit)
	if err != nil {
		return nil, domain.NewStoreError("domains for keyword", err)
	}
	if err = attachKeywords(ctx, r.db, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *keywordRepository) CountDomains(ctx context.Context, keywordID string) (n int64, err error) {
	defer observe("keyword_domain_count", time.Now(), &err)

	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM domain_keywords WHERE keyword_id = $1`, keywordID).Scan(&n)
	if err != nil {
		return 0, domain.NewStoreError("count keyword domains", err)
	}
	return n, nil
}
