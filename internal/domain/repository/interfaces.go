package repository

import (
	"context"
	"errors"

	"PriceOpt/internal/domain/models"
)

var (
	// ErrNotFound is returned when a session has no stored dataset or result.
	ErrNotFound = errors.New("not found")
	// ErrBusy is returned when another writer holds the record's lock.
	ErrBusy = errors.New("resource busy")
)

// DatasetRepository persists uploaded datasets and their enrichment results per session.
type DatasetRepository interface {
	SaveDataset(ctx context.Context, ds *models.Dataset) error
	GetDataset(ctx context.Context, id string) (*models.Dataset, error)
	SaveEnrichment(ctx context.Context, res *models.EnrichmentResult) error
	GetEnrichment(ctx context.Context, id string) (*models.EnrichmentResult, error)
	ListSessions(ctx context.Context) ([]string, error)
}

// AnalysisStore is the append-only analytics sink (ClickHouse).
type AnalysisStore interface {
	StoreBatch(ctx context.Context, records []models.AnalysisRecord) error
	Health(ctx context.Context) error
}

// RecommendationPublisher ships refreshed recommendations downstream (Kafka).
type RecommendationPublisher interface {
	Publish(ctx context.Context, ev *models.RecommendationEvent) error
	PublishBatch(ctx context.Context, evs []*models.RecommendationEvent) error
}

// ProgressBroker fans enrichment progress out to subscribers of a session.
type ProgressBroker interface {
	Publish(ev models.ProgressEvent)
	Subscribe(sessionID string) (<-chan models.ProgressEvent, func())
}

type Metrics interface {
	RecordPublished(backend string)
	RecordError(kind string)
	RecordOptimalPrice(product string, price float64)
	RecordElasticity(product string, e float64)
	RecordLatency(op string, seconds float64)
}

// ChatRepository stores per-user conversation history with a sliding TTL.
type ChatRepository interface {
	// Append adds messages under the user's lock and keeps at most max entries.
	Append(ctx context.Context, userID string, msgs ...models.ChatMessage) (*models.ChatSession, error)
	// Get returns an empty session when none is stored.
	Get(ctx context.Context, userID string) (*models.ChatSession, error)
	Clear(ctx context.Context, userID string) error
}
