package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellebook/catalog/internal/cache"
	"github.com/bellebook/catalog/internal/domain"
	"github.com/bellebook/catalog/internal/filter"
	"github.com/bellebook/catalog/pkg/logging"
)

type fakeSource struct {
	calls int
	raw   any
	err   error
}

func (f *fakeSource) FetchServices(_ context.Context) (any, error) {
	f.calls++
	return f.raw, f.err
}

type fakeRepo struct {
	records   []domain.Service
	replaced  int
	listErr   error
	statsResp domain.CatalogStats
}

func (r *fakeRepo) ReplaceAll(_ context.Context, services []domain.Service) error {
	r.replaced++
	r.records = services
	return nil
}

func (r *fakeRepo) List(_ context.Context) ([]domain.Service, error) {
	return r.records, r.listErr
}

func (r *fakeRepo) Stream(_ context.Context, fn func(*domain.Service) error) error {
	for i := range r.records {
		if err := fn(&r.records[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) Categories(_ context.Context, _ int) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, svc := range r.records {
		if svc.Category != "" && !seen[svc.Category] {
			seen[svc.Category] = true
			out = append(out, svc.Category)
		}
	}
	return out, nil
}

func (r *fakeRepo) Stats(_ context.Context) (*domain.CatalogStats, error) {
	stats := r.statsResp
	stats.TotalServices = len(r.records)
	return &stats, nil
}

func decodeJSON(t *testing.T, s string) any {
	t.Helper()

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	require.NoError(t, dec.Decode(&v))

	return v
}

const upstreamJSON = `[
	{"id": 1, "ownerId": 7, "title": "Box braids", "description": "d", "category": "Hair", "price": 1000, "location": "Nairobi", "isMobileService": false, "isActive": true},
	{"id": 2, "ownerId": "7", "title": "Gel nails", "description": "d", "category": "Nails", "price": 500, "location": "Mombasa", "isMobileService": true, "isActive": true},
	{"id": 3, "ownerId": 8, "title": "Locs retwist", "description": "d", "category": "Hair", "price": 1500, "location": "Nairobi", "isMobileService": false, "isActive": true},
	{"bad": "record"}
]`

func newCatalog(t *testing.T, repo *fakeRepo, source *fakeSource) *Catalog {
	t.Helper()
	return NewCatalog(repo, source, cache.NewMemoryCache(), nil, logging.NewNop())
}

func TestListAppliesCriteria(t *testing.T) {
	source := &fakeSource{raw: decodeJSON(t, upstreamJSON)}
	c := newCatalog(t, &fakeRepo{}, source)

	out, err := c.List(context.Background(), domain.Criteria{Location: "nairobi", Sort: domain.SortPriceDesc})
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, int64(3), out[0].ID)
	assert.Equal(t, int64(1), out[1].ID)
}

func TestListCachesRawPayload(t *testing.T) {
	source := &fakeSource{raw: decodeJSON(t, upstreamJSON)}
	c := newCatalog(t, &fakeRepo{}, source)

	_, err := c.List(context.Background(), domain.Criteria{})
	require.NoError(t, err)
	_, err = c.List(context.Background(), domain.Criteria{})
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
}

func TestListServesSnapshotWhenUpstreamDown(t *testing.T) {
	repo := &fakeRepo{records: []domain.Service{
		{ID: 10, OwnerID: "7", Title: "Pedicure", Category: "Nails", Price: domain.Float(300)},
	}}
	source := &fakeSource{err: errors.New("connection refused")}
	c := newCatalog(t, repo, source)

	out, err := c.List(context.Background(), domain.Criteria{})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, int64(10), out[0].ID)
}

func TestListByOwnerTypeTolerant(t *testing.T) {
	source := &fakeSource{raw: decodeJSON(t, upstreamJSON)}
	c := newCatalog(t, &fakeRepo{}, source)

	out, err := c.ListByOwner(context.Background(), "7", filter.OwnerOptions{})
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, int64(2), out[1].ID)
}

func TestSyncStoresValidRecordsAndInvalidatesCache(t *testing.T) {
	repo := &fakeRepo{}
	source := &fakeSource{raw: decodeJSON(t, upstreamJSON)}
	mem := cache.NewMemoryCache()
	c := NewCatalog(repo, source, mem, nil, logging.NewNop())

	require.NoError(t, mem.Set(context.Background(), cache.KeyCatalogCategories, []byte(`["stale"]`), cache.TTLCategories))

	require.NoError(t, c.Sync(context.Background()))

	assert.Equal(t, 1, repo.replaced)
	assert.Len(t, repo.records, 3)

	_, err := mem.Get(context.Background(), cache.KeyCatalogCategories)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestSyncKeepsSnapshotWhenNothingValidates(t *testing.T) {
	repo := &fakeRepo{records: []domain.Service{{ID: 1, OwnerID: "7", Title: "t"}}}
	source := &fakeSource{raw: decodeJSON(t, `[{"bad": 1}, {"worse": 2}]`)}
	c := NewCatalog(repo, source, cache.NewNoOpCache(), nil, logging.NewNop())

	require.NoError(t, c.Sync(context.Background()))

	assert.Zero(t, repo.replaced)
	assert.Len(t, repo.records, 1)
}

func TestSyncPropagatesFetchError(t *testing.T) {
	c := newCatalog(t, &fakeRepo{}, &fakeSource{err: errors.New("boom")})

	assert.Error(t, c.Sync(context.Background()))
}

func TestCategoriesCached(t *testing.T) {
	repo := &fakeRepo{records: []domain.Service{
		{ID: 1, Category: "Hair"},
		{ID: 2, Category: "Nails"},
	}}
	c := newCatalog(t, repo, &fakeSource{})

	first, err := c.Categories(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hair", "Nails"}, first)

	// served from cache even after the snapshot changes
	repo.records = nil
	second, err := c.Categories(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExportCSV(t *testing.T) {
	repo := &fakeRepo{records: []domain.Service{
		{ID: 1, OwnerID: "7", Title: "Box braids", Category: "Hair", Price: domain.Float(1000)},
		{ID: 2, OwnerID: "8", Title: "Gel nails", Category: "Nails"},
	}}
	c := newCatalog(t, repo, &fakeSource{})

	var buf bytes.Buffer
	require.NoError(t, c.ExportCSV(context.Background(), &buf, []string{"id", "title", "price"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,title,price", lines[0])
	assert.Equal(t, "1,Box braids,1000.00", lines[1])
	assert.Equal(t, "2,Gel nails,", lines[2])
}

func TestExportJSON(t *testing.T) {
	repo := &fakeRepo{records: []domain.Service{
		{ID: 1, OwnerID: "7", Title: "Box braids"},
	}}
	c := newCatalog(t, repo, &fakeSource{})

	var buf bytes.Buffer
	require.NoError(t, c.ExportJSON(context.Background(), &buf))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "7", out[0]["ownerId"])
}
