package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	"PriceOpt/pkg/cache"

	"github.com/stretchr/testify/require"
)

func TestDatasetRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer store.Close()
	repo := NewDatasetRepository(store, time.Hour)

	_, err := repo.GetDataset(ctx, "s-1")
	require.ErrorIs(t, err, domrepo.ErrNotFound)

	ds := &models.Dataset{ID: "s-1", Header: []string{"price", "quantity"}, Rows: []models.Row{{Index: 0, Price: 10, Quantity: 5}}}
	require.NoError(t, repo.SaveDataset(ctx, ds))
	require.NoError(t, repo.SaveDataset(ctx, &models.Dataset{ID: "s-0"}))

	got, err := repo.GetDataset(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, ds.Rows, got.Rows)

	require.NoError(t, repo.SaveEnrichment(ctx, &models.EnrichmentResult{SessionID: "s-1"}))
	res, err := repo.GetEnrichment(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, "s-1", res.SessionID)

	ids, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"s-0", "s-1"}, ids)

	// re-upload drops the stale result
	require.NoError(t, repo.SaveDataset(ctx, ds))
	_, err = repo.GetEnrichment(ctx, "s-1")
	require.ErrorIs(t, err, domrepo.ErrNotFound)
}

type fakeExec struct {
	queries []string
	args    [][]interface{}
	err     error
}

func (f *fakeExec) ExecContext(_ context.Context, q string, args ...interface{}) (sql.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, q)
	f.args = append(f.args, args)
	return nil, nil
}

func (f *fakeExec) PingContext(context.Context) error { return nil }

func TestClickHouseStoreBatchChunksAndNulls(t *testing.T) {
	db := &fakeExec{}
	s := newClickHouseAnalysisStore(db, "pricing.analyses", 2)

	recs := []models.AnalysisRecord{
		{ProductID: "A", Elasticity: -1.5, RelativeElasticity: math.NaN(), RelativeVolume: 1.2, OptimalPrice: 10},
		{ProductID: ""},
		{ProductID: "B", Elasticity: math.NaN(), RelativeElasticity: math.NaN(), RelativeVolume: math.NaN(), OptimalPrice: math.NaN()},
	}
	require.NoError(t, s.StoreBatch(context.Background(), recs))

	require.Len(t, db.queries, 2)
	require.Equal(t, 1, strings.Count(db.queries[0], "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	require.True(t, strings.HasPrefix(db.queries[0], "INSERT INTO pricing.analyses (computed_at,"))

	first := db.args[0]
	require.Equal(t, -1.5, first[5])
	require.Nil(t, first[8])
	require.Equal(t, 1.2, first[9])
	require.Nil(t, db.args[1][5])
}

func TestClickHouseStoreBatchError(t *testing.T) {
	s := newClickHouseAnalysisStore(&fakeExec{err: errors.New("readonly")}, "t", 10)
	err := s.StoreBatch(context.Background(), []models.AnalysisRecord{{ProductID: "A"}})
	require.ErrorContains(t, err, "insert analyses")
	require.NoError(t, s.StoreBatch(context.Background(), nil))
}

func TestAnalysisSchema(t *testing.T) {
	stmts := AnalysisSchema("pricing", "analyses")
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS pricing.analyses")
}
