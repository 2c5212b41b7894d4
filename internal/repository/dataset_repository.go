package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	"PriceOpt/pkg/cache"
)

const (
	datasetPrefix  = "dataset"
	enrichedPrefix = "enriched"
)

// DatasetRepository keeps sessions in the injected KV store under
// dataset:<id> and enriched:<id>.
type DatasetRepository struct {
	store cache.Store
	ttl   time.Duration
}

func NewDatasetRepository(store cache.Store, ttl time.Duration) *DatasetRepository {
	return &DatasetRepository{store: store, ttl: ttl}
}

func (r *DatasetRepository) SaveDataset(ctx context.Context, ds *models.Dataset) error {
	if ds.ID == "" {
		return fmt.Errorf("dataset id is empty")
	}
	if err := r.store.Set(ctx, cache.GenerateKey(datasetPrefix, ds.ID), ds, r.ttl); err != nil {
		return fmt.Errorf("save dataset %s: %w", ds.ID, err)
	}
	// a re-upload invalidates the previous analysis
	if err := r.store.Delete(ctx, cache.GenerateKey(enrichedPrefix, ds.ID)); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return fmt.Errorf("drop stale enrichment %s: %w", ds.ID, err)
	}
	return nil
}

func (r *DatasetRepository) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	var ds models.Dataset
	if err := r.get(ctx, cache.GenerateKey(datasetPrefix, id), &ds); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", id, err)
	}
	return &ds, nil
}

func (r *DatasetRepository) SaveEnrichment(ctx context.Context, res *models.EnrichmentResult) error {
	if err := r.store.Set(ctx, cache.GenerateKey(enrichedPrefix, res.SessionID), res, r.ttl); err != nil {
		return fmt.Errorf("save enrichment %s: %w", res.SessionID, err)
	}
	// keep the dataset alive as long as its result
	if _, err := r.store.Expire(ctx, cache.GenerateKey(datasetPrefix, res.SessionID), r.ttl); err != nil {
		return fmt.Errorf("refresh dataset ttl %s: %w", res.SessionID, err)
	}
	return nil
}

func (r *DatasetRepository) GetEnrichment(ctx context.Context, id string) (*models.EnrichmentResult, error) {
	var res models.EnrichmentResult
	if err := r.get(ctx, cache.GenerateKey(enrichedPrefix, id), &res); err != nil {
		return nil, fmt.Errorf("enrichment %s: %w", id, err)
	}
	return &res, nil
}

// ListSessions returns the ids of stored datasets, sorted.
func (r *DatasetRepository) ListSessions(ctx context.Context) ([]string, error) {
	keys, err := r.store.ListByPrefix(ctx, cache.GenerateKey(datasetPrefix, ""))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, datasetPrefix+":"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *DatasetRepository) get(ctx context.Context, key string, dest interface{}) error {
	err := r.store.Get(ctx, key, dest)
	if errors.Is(err, cache.ErrCacheMiss) {
		return domrepo.ErrNotFound
	}
	return err
}

var _ domrepo.DatasetRepository = (*DatasetRepository)(nil)
