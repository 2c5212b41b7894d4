package usecase

import (
	"context"
	"errors"
	"sync"

	"PriceOpt/internal/domain/models"
)

type recordingMetrics struct {
	mu        sync.Mutex
	errors    []string
	published []string
	optimal   map[string]float64
	elastic   map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{optimal: map[string]float64{}, elastic: map[string]float64{}}
}

func (m *recordingMetrics) RecordPublished(b string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, b)
}

func (m *recordingMetrics) RecordError(k string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, k)
}

func (m *recordingMetrics) RecordOptimalPrice(p string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optimal[p] = v
}

func (m *recordingMetrics) RecordElasticity(p string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elastic[p] = v
}

func (m *recordingMetrics) RecordLatency(string, float64) {}

type captureStore struct {
	mu      sync.Mutex
	batches [][]models.AnalysisRecord
	err     error
}

func (s *captureStore) StoreBatch(_ context.Context, recs []models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, recs)
	return nil
}

func (s *captureStore) Health(context.Context) error { return nil }

type capturePublisher struct {
	mu     sync.Mutex
	events []*models.RecommendationEvent
	fail   bool
}

func (p *capturePublisher) Publish(_ context.Context, ev *models.RecommendationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) PublishBatch(ctx context.Context, evs []*models.RecommendationEvent) error {
	for _, ev := range evs {
		if err := p.Publish(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
