package memory

import (
	"cmp"
	"context"
	"slices"

	"domainlens/internal/domain"
)

type keywordRepository struct {
	db *database
}

func (r *keywordRepository) FindByWord(ctx context.Context, word string) (*domain.Keyword, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.st.keywordByWord[word]
	if !ok {
		return nil, domain.NewNotFoundError("keyword", word)
	}
	kw := r.db.st.keywords[id]
	return &kw, nil
}

func (r *keywordRepository) Upsert(ctx context.Context, defaults domain.KeywordDefaults, policy domain.KeywordMergePolicy) (*domain.Keyword, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	st := r.db.st
	if id, ok := st.keywordByWord[defaults.Word]; ok {
		existing := st.keywords[id]
		if policy == domain.KeywordMaxVolume {
			existing.SearchVolume = policy.MergeVolume(existing.SearchVolume, defaults.SearchVolume)
			existing.UpdatedAt = r.db.now()
			st.keywords[id] = existing
		}
		return &existing, nil
	}

	now := r.db.now()
	kw := domain.Keyword{
		ID:           newID(),
		Word:         defaults.Word,
		SearchVolume: defaults.SearchVolume,
		CPC:          defaults.CPC,
		Competition:  defaults.Competition,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	st.keywords[kw.ID] = kw
	st.keywordByWord[kw.Word] = kw.ID

	return &kw, nil
}

func (r *keywordRepository) UpsertDomainKeyword(ctx context.Context, domainID, keywordID string, position int) (*domain.DomainKeyword, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := linkKey{domainID: domainID, keywordID: keywordID}
	if existing, ok := r.db.st.links[key]; ok {
		return &existing, nil
	}

	link := domain.DomainKeyword{
		ID:        newID(),
		DomainID:  domainID,
		KeywordID: keywordID,
		Position:  position,
	}
	r.db.st.links[key] = link
	return &link, nil
}

func (r *keywordRepository) UpdateMetrics(ctx context.Context, word string, metrics domain.KeywordMetrics) (*domain.Keyword, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	id, ok := r.db.st.keywordByWord[word]
	if !ok {
		return nil, domain.NewNotFoundError("keyword", word)
	}
	kw := r.db.st.keywords[id]
	metrics.Apply(&kw)
	kw.UpdatedAt = r.db.now()
	r.db.st.keywords[id] = kw

	return &kw, nil
}

func (r *keywordRepository) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.st.keywords)), nil
}

func (r *keywordRepository) TopBySearchVolume(ctx context.Context, n int) ([]*domain.Keyword, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := make([]domain.Keyword, 0, len(r.db.st.keywords))
	for _, kw := range r.db.st.keywords {
		all = append(all, kw)
	}
	slices.SortFunc(all, func(a, b domain.Keyword) int {
		if c := cmp.Compare(b.SearchVolume, a.SearchVolume); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})
	if len(all) > n {
		all = all[:n]
	}

	out := make([]*domain.Keyword, len(all))
	for i := range all {
		out[i] = &all[i]
	}
	return out, nil
}

func (r *keywordRepository) DomainsForKeyword(ctx context.Context, keywordID string, limit int) ([]*domain.Domain, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var ids []string
	for key := range r.db.st.links {
		if key.keywordID == keywordID {
			ids = append(ids, key.domainID)
		}
	}
	// Oldest association first, matching the insertion order of the SQL store.
	slices.SortFunc(ids, func(a, b string) int {
		x, y := r.db.st.domains[a], r.db.st.domains[b]
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*domain.Domain, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.db.st.domainWithKeywords(id))
	}
	return out, nil
}

func (r *keywordRepository) CountDomains(ctx context.Context, keywordID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for key := range r.db.st.links {
		if key.keywordID == keywordID {
			n++
		}
	}
	return n, nil
}
