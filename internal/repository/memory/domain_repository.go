package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"domainlens/internal/domain"
)

type domainRepository struct {
	db *database
}

func (r *domainRepository) FindByName(ctx context.Context, name string) (*domain.Domain, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.st.domainByName[name]
	if !ok {
		return nil, domain.NewNotFoundError("domain", name)
	}
	return r.db.st.domainWithKeywords(id), nil
}

func (r *domainRepository) Upsert(ctx context.Context, parsed domain.ParsedName, policy domain.DomainConflictPolicy) (*domain.Domain, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	st := r.db.st
	if id, ok := st.domainByName[parsed.Name]; ok {
		existing := st.domains[id]
		if policy == domain.DomainTouch {
			existing.UpdatedAt = r.db.now()
			st.domains[id] = existing
		}
		return &existing, nil
	}

	d := domain.NewDomain(parsed)
	d.ID = newID()
	d.CreatedAt = r.db.now()
	d.UpdatedAt = d.CreatedAt
	st.domains[d.ID] = *d
	st.domainByName[d.Name] = d.ID

	return d, nil
}

func (r *domainRepository) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.Domain, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	query := strings.ToLower(filter.Query)
	var matches []domain.Domain
	for _, d := range r.db.st.domains {
		if query != "" && !strings.Contains(d.Name, query) && !strings.Contains(d.SLD, query) {
			continue
		}
		if filter.TLD != "" && d.TLD != filter.TLD {
			continue
		}
		matches = append(matches, d)
	}

	sortDomains(matches, filter.SortBy, filter.SortOrder)

	total := int64(len(matches))
	start := filter.Offset()
	if start < 0 || start > len(matches) {
		// An overflowed offset lies past any page.
		start = len(matches)
	}
	end := min(start+filter.Limit, len(matches))

	page := make([]*domain.Domain, 0, end-start)
	for _, d := range matches[start:end] {
		page = append(page, r.db.st.domainWithKeywords(d.ID))
	}
	return page, total, nil
}

func (r *domainRepository) ListCreatedSince(ctx context.Context, since time.Time, limit int) ([]*domain.Domain, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matches []domain.Domain
	for _, d := range r.db.st.domains {
		if !d.CreatedAt.Before(since) {
			matches = append(matches, d)
		}
	}
	sortDomains(matches, domain.SortByCreatedAt, domain.SortDesc)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*domain.Domain, 0, len(matches))
	for _, d := range matches {
		out = append(out, r.db.st.domainWithKeywords(d.ID))
	}
	return out, nil
}

func (r *domainRepository) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.st.domains)), nil
}

func (r *domainRepository) UpdateRegistration(ctx context.Context, name string, reg domain.Registration) (*domain.Domain, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	id, ok := r.db.st.domainByName[name]
	if !ok {
		return nil, domain.NewNotFoundError("domain", name)
	}
	d := r.db.st.domains[id]
	d.ApplyRegistration(reg)
	d.UpdatedAt = r.db.now()
	r.db.st.domains[id] = d

	return r.db.st.domainWithKeywords(id), nil
}

func (r *domainRepository) TLDDistribution(ctx context.Context, topN int) ([]domain.TLDCount, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[string]int64)
	for _, d := range r.db.st.domains {
		counts[d.TLD]++
	}

	out := make([]domain.TLDCount, 0, len(counts))
	for tld, n := range counts {
		out = append(out, domain.TLDCount{TLD: tld, Count: n})
	}
	slices.SortFunc(out, func(a, b domain.TLDCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.TLD, b.TLD)
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// sortDomains orders like the SQL store: the sort field in the requested
// direction with missing registration dates last, then name ascending.
func sortDomains(ds []domain.Domain, by domain.SortField, order domain.SortOrder) {
	slices.SortStableFunc(ds, func(a, b domain.Domain) int {
		var c int
		switch by {
		case domain.SortByName:
			c = cmp.Compare(a.Name, b.Name)
		case domain.SortByTLD:
			c = cmp.Compare(a.TLD, b.TLD)
		case domain.SortByUpdatedAt:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case domain.SortByRegisteredAt:
			if a.RegisteredAt == nil || b.RegisteredAt == nil {
				c = compareTimePtr(a.RegisteredAt, b.RegisteredAt)
				if c != 0 {
					return c
				}
			} else {
				c = a.RegisteredAt.Compare(*b.RegisteredAt)
			}
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if order == domain.SortDesc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.Name, b.Name)
		}
		return c
	})
}

// compareTimePtr orders nil after every set time.
func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func sortLinks(links []domain.DomainKeyword) {
	slices.SortFunc(links, func(a, b domain.DomainKeyword) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return cmp.Compare(a.KeywordID, b.KeywordID)
	})
}
