package repository

import (
	"context"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
)

// NoopAnalysisStore is used when ClickHouse is disabled.
type NoopAnalysisStore struct{}

func (NoopAnalysisStore) StoreBatch(context.Context, []models.AnalysisRecord) error { return nil }
func (NoopAnalysisStore) Health(context.Context) error                              { return nil }

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.RecommendationEvent) error        { return nil }
func (NoopPublisher) PublishBatch(context.Context, []*models.RecommendationEvent) error { return nil }

var (
	_ domrepo.AnalysisStore           = NoopAnalysisStore{}
	_ domrepo.RecommendationPublisher = NoopPublisher{}
)
