package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/repository"

	"github.com/google/uuid"
)

// Store is an in-memory implementation of repository.Store.
// It backs DB_DRIVER=memory for local development and the service tests.
//
// Transactions are emulated with a snapshot: WithinTx serializes transactions,
// copies the state, runs fn and restores the copy if fn fails. Reads and
// writes outside a transaction are not isolated from a running one.
type Store struct {
	db   *database
	inTx bool
}

type trendKey struct {
	keywordID string
	day       time.Time
}

type linkKey struct {
	domainID  string
	keywordID string
}

// state holds every table. Rows are stored by value so a shallow map copy is a snapshot.
type state struct {
	domains       map[string]domain.Domain
	domainByName  map[string]string
	keywords      map[string]domain.Keyword
	keywordByWord map[string]string
	links         map[linkKey]domain.DomainKeyword
	trends        map[trendKey]domain.KeywordTrend
	tldStats      map[string]domain.TldStatistic
	monitors      map[string]domain.DomainMonitor
	changes       []domain.DomainChange
}

type database struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   *state
	now  func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		db: &database{
			st:  newState(),
			now: func() time.Time { return time.Now().UTC() },
		},
	}
}

func newState() *state {
	return &state{
		domains:       make(map[string]domain.Domain),
		domainByName:  make(map[string]string),
		keywords:      make(map[string]domain.Keyword),
		keywordByWord: make(map[string]string),
		links:         make(map[linkKey]domain.DomainKeyword),
		trends:        make(map[trendKey]domain.KeywordTrend),
		tldStats:      make(map[string]domain.TldStatistic),
		monitors:      make(map[string]domain.DomainMonitor),
	}
}

func (s *state) clone() *state {
	return &state{
		domains:       maps.Clone(s.domains),
		domainByName:  maps.Clone(s.domainByName),
		keywords:      maps.Clone(s.keywords),
		keywordByWord: maps.Clone(s.keywordByWord),
		links:         maps.Clone(s.links),
		trends:        maps.Clone(s.trends),
		tldStats:      maps.Clone(s.tldStats),
		monitors:      maps.Clone(s.monitors),
		changes:       append([]domain.DomainChange(nil), s.changes...),
	}
}

func (s *Store) Domains() repository.DomainRepository   { return &domainRepository{db: s.db} }
func (s *Store) Keywords() repository.KeywordRepository { return &keywordRepository{db: s.db} }
func (s *Store) Trends() repository.TrendRepository     { return &trendRepository{db: s.db} }
func (s *Store) Monitors() repository.MonitorRepository { return &monitorRepository{db: s.db} }

// WithinTx runs fn with snapshot rollback. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	s.db.mu.RLock()
	snapshot := s.db.st.clone()
	s.db.mu.RUnlock()

	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.mu.Lock()
		s.db.st = snapshot
		s.db.mu.Unlock()
		return err
	}

	return nil
}

func newID() string {
	return uuid.NewString()
}

// keywordsFor returns the keyword associations of a domain in position order.
// Callers must hold db.mu.
func (st *state) keywordsFor(domainID string) []domain.DomainKeyword {
	var out []domain.DomainKeyword
	for key, link := range st.links {
		if key.domainID != domainID {
			continue
		}
		kw := st.keywords[key.keywordID]
		link.Keyword = &kw
		out = append(out, link)
	}
	sortLinks(out)
	return out
}

// domainWithKeywords returns a copy of the domain with keywords attached.
// Callers must hold db.mu.
func (st *state) domainWithKeywords(id string) *domain.Domain {
	d, ok := st.domains[id]
	if !ok {
		return nil
	}
	d.Keywords = st.keywordsFor(id)
	return &d
}
