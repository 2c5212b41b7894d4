package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	"PriceOpt/internal/repository"
	"PriceOpt/internal/service/progress"
	"PriceOpt/pkg/cache"
	"PriceOpt/pkg/logger"
	"PriceOpt/pkg/queue"
)

func newRepo(t *testing.T) *repository.DatasetRepository {
	t.Helper()
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mc.Close() })
	return repository.NewDatasetRepository(mc, time.Hour)
}

func TestEnrichmentStoresResultAndEmitsProgress(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.SaveDataset(ctx, sampleDataset()))

	broker := progress.NewBroker(16)
	events, cancel := broker.Subscribe("s1")
	defer cancel()

	store := &captureStore{}
	m := newRecordingMetrics()
	e := NewEnrichment(repo, store, broker, m, logger.Nop(), 2, 3)

	res, err := e.Enrich(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", res.SessionID)

	stored, err := e.Result(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, stored.Rows, len(res.Rows))

	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], len(res.Products))
	assert.Equal(t, "enrichment", store.batches[0][0].Source)
	assert.Contains(t, m.published, "clickhouse")

	var stages []models.ProgressStage
	for len(events) > 0 {
		stages = append(stages, (<-events).Stage)
	}
	require.NotEmpty(t, stages)
	assert.Equal(t, models.StageStart, stages[0])
	assert.Equal(t, models.StageComplete, stages[len(stages)-1])
	assert.Contains(t, stages, models.StageProgress)
}

func TestEnrichmentToleratesStoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.SaveDataset(ctx, sampleDataset()))
	m := newRecordingMetrics()
	e := NewEnrichment(repo, &captureStore{err: errors.New("clickhouse down")}, nil, m, logger.Nop(), 1, 3)

	_, err := e.Enrich(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, m.errors, "analysis_store")
}

func TestEnrichmentUnknownSession(t *testing.T) {
	e := NewEnrichment(newRepo(t), &captureStore{}, nil, newRecordingMetrics(), logger.Nop(), 1, 3)
	_, err := e.Enrich(context.Background(), "missing")
	require.ErrorIs(t, err, domrepo.ErrNotFound)
	_, err = e.Result(context.Background(), "missing")
	require.ErrorIs(t, err, domrepo.ErrNotFound)
}

func TestDatasetsUploadAndGroups(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	d := NewDatasets(repo, logger.Nop(), 3)

	csv := "price,quantity,category\n1,100,A\n2,25,A\n5,4,A\n3,9,B\n"
	ds, err := d.Upload(ctx, "", []byte(csv))
	require.NoError(t, err)
	require.NotEmpty(t, ds.ID)

	groups, err := d.GroupEstimates(ctx, ds.ID)
	require.NoError(t, err)
	require.NotEmpty(t, groups)
	assert.Equal(t, "A", groups[0].Group)
	require.NotNil(t, groups[0].Elasticity)
	assert.InDelta(t, -2.0, *groups[0].Elasticity, 1e-9)

	_, err = d.GroupEstimates(ctx, "nope")
	require.ErrorIs(t, err, domrepo.ErrNotFound)
}

func TestEnrichmentJobRunsThroughQueue(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.SaveDataset(ctx, sampleDataset()))
	e := NewEnrichment(repo, &captureStore{}, nil, newRecordingMetrics(), logger.Nop(), 1, 3)

	q := queue.NewMemoryQueue(logger.Nop(), queue.QueueConfig{Workers: 1, QueueSize: 4, RetryLimit: 0})
	q.RegisterJob(NewEnrichmentJob(e))
	require.NoError(t, q.Start())
	defer func() { _ = q.Stop(ctx) }()

	s := NewQueueScheduler(q, repo)
	id, err := s.Schedule(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		_, err := e.Result(ctx, "s1")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	_, err = s.Schedule(ctx, "missing")
	require.ErrorIs(t, err, domrepo.ErrNotFound)
}

func TestEnrichmentJobRejectsEmptySession(t *testing.T) {
	j := NewEnrichmentJob(nil)
	require.Error(t, j.Handle(context.Background(), []byte(`{"session_id":""}`)))
}
