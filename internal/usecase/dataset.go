package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	domsvc "PriceOpt/internal/domain/service"
	svcmetrics "PriceOpt/internal/service/metrics"
	"PriceOpt/internal/services/elasticity"
	"PriceOpt/internal/services/ingest"
	"PriceOpt/pkg/logger"
	"PriceOpt/pkg/util"
)

// Datasets handles uploads and per-group estimates.
type Datasets struct {
	repo    domrepo.DatasetRepository
	logger  *logger.Logger
	options ingest.Options
}

func NewDatasets(repo domrepo.DatasetRepository, lgr *logger.Logger, minObservations int) *Datasets {
	return &Datasets{repo: repo, logger: lgr, options: ingest.Options{MinObservations: minObservations}}
}

// Upload parses the CSV and stores it under sessionID (a new id when empty).
func (d *Datasets) Upload(ctx context.Context, sessionID string, data []byte) (*models.Dataset, error) {
	ds, err := ingest.Parse(data, d.options)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ds.ID = sessionID
	ds.CreatedAt = time.Now().UTC()

	if err := d.repo.SaveDataset(ctx, ds); err != nil {
		return nil, err
	}
	d.logger.Info("dataset uploaded",
		logger.String("session", sessionID),
		logger.Int("rows", len(ds.Rows)),
		logger.Int("groups", len(ds.Groups)),
		logger.String("delimiter", ds.Delimiter),
		logger.String("locale", ds.Locale))
	return ds, nil
}

// GroupEstimates fits each kept group of the session's dataset, in upload order.
func (d *Datasets) GroupEstimates(ctx context.Context, sessionID string) ([]models.GroupEstimate, error) {
	ds, err := d.repo.GetDataset(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]models.GroupEstimate, 0, len(ds.Groups))
	for _, g := range ds.Groups {
		est := elasticity.Estimate(g.Observations)
		svcmetrics.ObserveEstimate("group", est.Defined(), est.Warnings)
		out = append(out, models.GroupEstimate{
			Group:        g.Name,
			Elasticity:   util.FinitePtr(est.Elasticity),
			DemandFactor: util.FinitePtr(est.DemandFactor),
			R2:           est.R2,
			NPoints:      est.NPoints,
			Warnings:     est.Warnings,
		})
	}
	return out, nil
}

var _ domsvc.DatasetService = (*Datasets)(nil)
