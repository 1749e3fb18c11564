package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repository.Store = (*Store)(nil)

func TestDomainUpsert_Policies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	parsed := domain.ParseName("TechStartup.com")

	created, err := store.Domains().Upsert(ctx, parsed, domain.DomainKeep)
	require.NoError(t, err)
	require.NotNil(t, created.Status)
	assert.Equal(t, domain.StatusActive, *created.Status)

	kept, err := store.Domains().Upsert(ctx, parsed, domain.DomainKeep)
	require.NoError(t, err)
	assert.Equal(t, created.ID, kept.ID)
	assert.Equal(t, created.UpdatedAt, kept.UpdatedAt)

	later := created.UpdatedAt.Add(time.Hour)
	store.db.now = func() time.Time { return later }

	touched, err := store.Domains().Upsert(ctx, parsed, domain.DomainTouch)
	require.NoError(t, err)
	assert.Equal(t, created.ID, touched.ID)
	assert.Equal(t, later, touched.UpdatedAt)
	assert.Equal(t, created.CreatedAt, touched.CreatedAt)

	count, err := store.Domains().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestKeywordUpsert_MergePolicies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	kw := store.Keywords()

	_, err := kw.Upsert(ctx, domain.KeywordDefaults{Word: "tech", SearchVolume: 15000}, domain.KeywordMaxVolume)
	require.NoError(t, err)

	lower, err := kw.Upsert(ctx, domain.KeywordDefaults{Word: "tech", SearchVolume: 100}, domain.KeywordMaxVolume)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), lower.SearchVolume)

	higher, err := kw.Upsert(ctx, domain.KeywordDefaults{Word: "tech", SearchVolume: 20000}, domain.KeywordMaxVolume)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), higher.SearchVolume)

	kept, err := kw.Upsert(ctx, domain.KeywordDefaults{Word: "tech", SearchVolume: 90000}, domain.KeywordKeep)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), kept.SearchVolume)
}

func TestUpsertDomainKeyword_PositionIsStable(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	d, err := store.Domains().Upsert(ctx, domain.ParseName("webdesign.com"), domain.DomainKeep)
	require.NoError(t, err)
	k, err := store.Keywords().Upsert(ctx, domain.KeywordDefaults{Word: "design"}, domain.KeywordKeep)
	require.NoError(t, err)

	first, err := store.Keywords().UpsertDomainKeyword(ctx, d.ID, k.ID, 1)
	require.NoError(t, err)
	again, err := store.Keywords().UpsertDomainKeyword(ctx, d.ID, k.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, again.Position)

	n, err := store.Keywords().CountDomains(ctx, k.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	_, err := store.Domains().Upsert(ctx, domain.ParseName("before.com"), domain.DomainKeep)
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Domains().Upsert(ctx, domain.ParseName("inside.com"), domain.DomainKeep); err != nil {
			return err
		}
		// Nested transactions join the outer one.
		return tx.WithinTx(ctx, func(inner repository.Store) error {
			if _, err := inner.Keywords().Upsert(ctx, domain.KeywordDefaults{Word: "inside"}, domain.KeywordKeep); err != nil {
				return err
			}
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Domains().FindByName(ctx, "inside.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Keywords().FindByWord(ctx, "inside")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.Domains().FindByName(ctx, "before.com")
	assert.NoError(t, err)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		_, err := tx.Domains().Upsert(ctx, domain.ParseName("inside.com"), domain.DomainKeep)
		return err
	})
	require.NoError(t, err)

	_, err = store.Domains().FindByName(ctx, "inside.com")
	assert.NoError(t, err)
}

func TestSearch_FilterSortAndPaginate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for _, name := range []string{"cloudhosting.net", "webdesign.com", "cloudstore.com", "aitools.io"} {
		_, err := store.Domains().Upsert(ctx, domain.ParseName(name), domain.DomainKeep)
		require.NoError(t, err)
	}

	filter := domain.NewSearchFilter()
	filter.Query = "CLOUD"
	filter.SortBy = domain.SortByName
	filter.SortOrder = domain.SortAsc

	page, total, err := store.Domains().Search(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 2)
	assert.Equal(t, "cloudhosting.net", page[0].Name)
	assert.Equal(t, "cloudstore.com", page[1].Name)

	filter = domain.NewSearchFilter()
	filter.TLD = ".com"
	filter.Limit = 1
	filter.Page = 2
	filter.SortBy = domain.SortByName
	filter.SortOrder = domain.SortDesc

	page, total, err = store.Domains().Search(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, "cloudstore.com", page[0].Name)

	filter.Page = 5
	page, _, err = store.Domains().Search(ctx, filter)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMonitors_DeleteMissingLeavesTableUnchanged(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	d, err := store.Domains().Upsert(ctx, domain.ParseName("watch.me"), domain.DomainKeep)
	require.NoError(t, err)
	m := domain.NewMonitor(d.ID, nil, nil)
	require.NoError(t, store.Monitors().Create(ctx, m))

	err = store.Monitors().Delete(ctx, "does-not-exist")
	require.ErrorIs(t, err, domain.ErrNotFound)

	monitors, err := store.Monitors().List(ctx, domain.MonitorFilter{})
	require.NoError(t, err)
	require.Len(t, monitors, 1)
	assert.Equal(t, m.ID, monitors[0].ID)
}

func TestMonitors_RecentChangesAreCapped(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	d, err := store.Domains().Upsert(ctx, domain.ParseName("watch.me"), domain.DomainKeep)
	require.NoError(t, err)
	m := domain.NewMonitor(d.ID, nil, nil)
	require.NoError(t, store.Monitors().Create(ctx, m))

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		change := &domain.DomainChange{MonitorID: m.ID, ChangeType: "status", DetectedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, store.Monitors().AppendChange(ctx, change))
	}

	monitors, err := store.Monitors().List(ctx, domain.MonitorFilter{})
	require.NoError(t, err)
	require.Len(t, monitors, 1)
	require.Len(t, monitors[0].Changes, domain.RecentChangesLimit)
	assert.Equal(t, base.Add(7*time.Hour), monitors[0].Changes[0].DetectedAt)
	assert.Equal(t, base.Add(7*time.Hour), monitors[0].LastChecked)
	require.NotNil(t, monitors[0].Domain)
	assert.Equal(t, "watch.me", monitors[0].Domain.Name)
}

func TestTrends_UpsertByDay(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	k, err := store.Keywords().Upsert(ctx, domain.KeywordDefaults{Word: "cloud"}, domain.KeywordKeep)
	require.NoError(t, err)

	morning := time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 5, 4, 20, 15, 0, 0, time.UTC)

	require.NoError(t, store.Trends().Upsert(ctx, &domain.KeywordTrend{KeywordID: k.ID, Date: morning, DomainCount: 10}))
	require.NoError(t, store.Trends().Upsert(ctx, &domain.KeywordTrend{KeywordID: k.ID, Date: evening, DomainCount: 12, NewDomains: 2}))

	trends, err := store.Trends().ListForKeyword(ctx, k.ID, time.Time{}, 0, domain.SortAsc)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), trends[0].Date)
	assert.Equal(t, 12, trends[0].DomainCount)
	assert.Equal(t, 2, trends[0].NewDomains)
}

func TestSearch_NegativeOffsetReturnsEmptyPage(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, err := store.Domains().Upsert(ctx, domain.ParseName("cloudstore.com"), domain.DomainKeep)
	require.NoError(t, err)

	filter := domain.NewSearchFilter()
	filter.Page = 92233720368547760
	filter.Limit = 100

	page, total, err := store.Domains().Search(ctx, filter)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, page)
}
