package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"domainlens/internal/domain"
)

type trendRepository struct {
	db *database
}

func (r *trendRepository) Upsert(ctx context.Context, trend *domain.KeywordTrend) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	trend.Date = domain.TruncateDay(trend.Date)
	key := trendKey{keywordID: trend.KeywordID, day: trend.Date}
	if existing, ok := r.db.st.trends[key]; ok {
		trend.ID = existing.ID
	} else {
		trend.ID = newID()
	}
	r.db.st.trends[key] = *trend
	return nil
}

func (r *trendRepository) ListForKeyword(ctx context.Context, keywordID string, since time.Time, limit int, order domain.SortOrder) ([]domain.KeywordTrend, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []domain.KeywordTrend
	for key, trend := range r.db.st.trends {
		if key.keywordID != keywordID {
			continue
		}
		if !since.IsZero() && trend.Date.Before(since) {
			continue
		}
		out = append(out, trend)
	}

	slices.SortFunc(out, func(a, b domain.KeywordTrend) int {
		if order == domain.SortDesc {
			return b.Date.Compare(a.Date)
		}
		return a.Date.Compare(b.Date)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *trendRepository) UpsertTLDStatistic(ctx context.Context, stat *domain.TldStatistic) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if existing, ok := r.db.st.tldStats[stat.TLD]; ok {
		stat.ID = existing.ID
	} else {
		stat.ID = newID()
	}
	if stat.Date.IsZero() {
		stat.Date = r.db.now()
	}
	stat.UpdatedAt = r.db.now()
	r.db.st.tldStats[stat.TLD] = *stat
	return nil
}

func (r *trendRepository) ListTLDStatistics(ctx context.Context) ([]domain.TldStatistic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]domain.TldStatistic, 0, len(r.db.st.tldStats))
	for _, stat := range r.db.st.tldStats {
		out = append(out, stat)
	}
	slices.SortFunc(out, func(a, b domain.TldStatistic) int {
		if c := cmp.Compare(b.TotalDomains, a.TotalDomains); c != 0 {
			return c
		}
		return cmp.Compare(a.TLD, b.TLD)
	})
	return out, nil
}
