package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/bellebook/catalog/internal/cache"
	"github.com/bellebook/catalog/internal/diag"
	"github.com/bellebook/catalog/internal/domain"
	"github.com/bellebook/catalog/internal/filter"
	"github.com/bellebook/catalog/pkg/logging"
)

// Source supplies raw service records from the marketplace backend.
type Source interface {
	FetchServices(ctx context.Context) (any, error)
}

// Catalog provides the listing views: reconciled, validated, filtered and
// sorted service records, backed by the upstream API with a cache in front
// and a local snapshot behind.
type Catalog struct {
	repo     domain.ServiceRepository
	source   Source
	cache    cache.Cache
	reporter *diag.Reporter
	log      *logging.Logger
}

// NewCatalog creates a new Catalog service.
func NewCatalog(
	repo domain.ServiceRepository,
	source Source,
	c cache.Cache,
	reporter *diag.Reporter,
	log *logging.Logger,
) *Catalog {
	return &Catalog{
		repo:     repo,
		source:   source,
		cache:    c,
		reporter: reporter,
		log:      log,
	}
}

// List returns the public listing view: validated records narrowed and
// ordered by the user's criteria. When the upstream API is unreachable the
// local snapshot serves the request instead.
func (s *Catalog) List(ctx context.Context, criteria domain.Criteria) ([]domain.Service, error) {
	raw, err := s.fetchRaw(ctx)
	if err != nil {
		s.log.Warn("upstream unavailable, serving listing from snapshot", "err", err)

		records, repoErr := s.repo.List(ctx)
		if repoErr != nil {
			return nil, fmt.Errorf("list services: %w", repoErr)
		}

		return filter.Apply(records, criteria), nil
	}

	records := filter.Records(s.reporter, raw, "catalog.List")

	return filter.Apply(records, criteria), nil
}

// ListByOwner returns the records belonging to one owner, tolerant of the
// upstream's id type drift. owner is the already-normalized id string.
func (s *Catalog) ListByOwner(ctx context.Context, owner string, opts filter.OwnerOptions) ([]domain.Service, error) {
	raw, err := s.fetchRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch services: %w", err)
	}

	return filter.ByOwner(s.reporter, raw, owner, opts), nil
}

// Sync refreshes the local snapshot from the upstream API and invalidates
// the catalog cache. Only structurally valid records enter the snapshot. A
// response that yields no valid records from a non-empty payload keeps the
// previous snapshot, so one bad upstream response does not wipe the catalog.
func (s *Catalog) Sync(ctx context.Context) error {
	raw, err := s.source.FetchServices(ctx)
	if err != nil {
		return fmt.Errorf("sync fetch: %w", err)
	}

	records := filter.Records(s.reporter, raw, "catalog.Sync")

	if len(records) == 0 {
		if items, ok := raw.([]any); ok && len(items) > 0 {
			s.log.Warn("sync yielded no valid records from a non-empty payload, keeping previous snapshot",
				"received", len(items))
			return nil
		}
	}

	if err := s.repo.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("sync store: %w", err)
	}

	if err := s.cache.DeleteByPattern(ctx, cache.KeyPrefixCatalog+"*"); err != nil {
		s.log.Warn("cache invalidation failed after sync", "err", err)
	}

	s.log.Info("catalog snapshot refreshed", "records", len(records))

	return nil
}

// Categories returns the distinct categories of the snapshot.
func (s *Catalog) Categories(ctx context.Context, limit int) ([]string, error) {
	if data, err := s.cache.Get(ctx, cache.KeyCatalogCategories); err == nil {
		var categories []string
		if err := json.Unmarshal(data, &categories); err == nil {
			return categories, nil
		}
	}

	categories, err := s.repo.Categories(ctx, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(categories); err == nil {
		_ = s.cache.Set(ctx, cache.KeyCatalogCategories, data, cache.TTLCategories)
	}

	return categories, nil
}

// Stats returns aggregate statistics over the snapshot.
func (s *Catalog) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	if data, err := s.cache.Get(ctx, cache.KeyCatalogStats); err == nil {
		var stats domain.CatalogStats
		if err := json.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, cache.KeyCatalogStats, data, cache.TTLStats)
	}

	return stats, nil
}

// fetchRaw returns the decoded upstream payload, cache-aside with a short
// TTL so repeated listing requests do not hammer the backend.
func (s *Catalog) fetchRaw(ctx context.Context) (any, error) {
	if data, err := s.cache.Get(ctx, cache.KeyCatalogRaw); err == nil {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		var v any
		if err := dec.Decode(&v); err == nil {
			return v, nil
		}

		// poisoned entry, drop it and refetch
		_ = s.cache.Delete(ctx, cache.KeyCatalogRaw)
	}

	raw, err := s.source.FetchServices(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(raw); err == nil {
		_ = s.cache.Set(ctx, cache.KeyCatalogRaw, data, cache.TTLRaw)
	}

	return raw, nil
}
