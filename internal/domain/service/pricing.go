package service

import (
	"context"

	"PriceOpt/internal/domain/models"
)

// DatasetService ingests uploads and estimates per-group elasticities.
type DatasetService interface {
	Upload(ctx context.Context, sessionID string, data []byte) (*models.Dataset, error)
	GroupEstimates(ctx context.Context, sessionID string) ([]models.GroupEstimate, error)
}

// Enricher runs the full per-product analysis of a stored dataset.
type Enricher interface {
	Enrich(ctx context.Context, sessionID string) (*models.EnrichmentResult, error)
	Result(ctx context.Context, sessionID string) (*models.EnrichmentResult, error)
}

// EnrichmentScheduler runs an enrichment in the background and returns the job id.
type EnrichmentScheduler interface {
	Schedule(ctx context.Context, sessionID string) (string, error)
}
