package usecase

import (
	"context"
	"fmt"
	"time"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	domsvc "PriceOpt/internal/domain/service"
	svcmetrics "PriceOpt/internal/service/metrics"
	"PriceOpt/pkg/logger"
	"PriceOpt/pkg/util"
)

// Enrichment loads a session's dataset, analyses it and stores the result.
type Enrichment struct {
	repo     domrepo.DatasetRepository
	store    domrepo.AnalysisStore
	progress domrepo.ProgressBroker
	metrics  domrepo.Metrics
	logger   *logger.Logger
	opts     AnalyzeOptions
}

func NewEnrichment(
	repo domrepo.DatasetRepository,
	store domrepo.AnalysisStore,
	progress domrepo.ProgressBroker,
	metrics domrepo.Metrics,
	lgr *logger.Logger,
	workers, minObservations int,
) *Enrichment {
	return &Enrichment{
		repo:     repo,
		store:    store,
		progress: progress,
		metrics:  metrics,
		logger:   lgr,
		opts:     AnalyzeOptions{Workers: workers, MinObservations: minObservations},
	}
}

func (e *Enrichment) Enrich(ctx context.Context, sessionID string) (*models.EnrichmentResult, error) {
	start := time.Now()
	ds, err := e.repo.GetDataset(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	e.emit(sessionID, models.StageStart, "Enrichment started", 0, 0)
	opts := e.opts
	opts.OnProgress = func(done, total int) {
		e.emit(sessionID, models.StageProgress, fmt.Sprintf("Processed %d/%d categories", done, total), done, total)
	}

	res, err := AnalyzeDataset(ctx, ds, opts)
	if err != nil {
		e.fail(sessionID, err)
		return nil, err
	}
	if err := e.repo.SaveEnrichment(ctx, res); err != nil {
		e.fail(sessionID, err)
		return nil, err
	}

	// the analytics sink is best effort; the session result is already saved
	if err := e.store.StoreBatch(ctx, analysisRecords(res)); err != nil {
		e.metrics.RecordError("analysis_store")
		e.logger.Warn("store analyses failed", logger.String("session", sessionID), logger.Error(err))
	} else {
		e.metrics.RecordPublished("clickhouse")
	}

	for _, p := range res.Products {
		svcmetrics.ObserveEstimate("enrichment", p.Elasticity != nil, p.Warnings)
		svcmetrics.RolesTotal.WithLabelValues(string(p.Classification.Role)).Inc()
	}
	elapsed := time.Since(start)
	svcmetrics.EnrichmentDuration.WithLabelValues("session").Observe(elapsed.Seconds())
	e.metrics.RecordLatency("enrich", elapsed.Seconds())

	e.emit(sessionID, models.StageComplete,
		fmt.Sprintf("Enriched %d rows across %d products", len(res.Rows), len(res.Products)),
		len(res.Categories), len(res.Categories))
	e.logger.Info("enrichment complete",
		logger.String("session", sessionID),
		logger.Int("rows", len(res.Rows)),
		logger.Int("products", len(res.Products)),
		logger.Duration("elapsed_ms", elapsed))
	return res, nil
}

// Result returns the stored result of a previous enrichment.
func (e *Enrichment) Result(ctx context.Context, sessionID string) (*models.EnrichmentResult, error) {
	return e.repo.GetEnrichment(ctx, sessionID)
}

func (e *Enrichment) emit(sessionID string, stage models.ProgressStage, msg string, done, total int) {
	if e.progress == nil {
		return
	}
	e.progress.Publish(models.ProgressEvent{
		SessionID: sessionID,
		Stage:     stage,
		Message:   msg,
		Done:      done,
		Total:     total,
		Time:      time.Now().UTC(),
	})
}

func (e *Enrichment) fail(sessionID string, err error) {
	e.metrics.RecordError("enrich")
	e.emit(sessionID, models.StageFailed, err.Error(), 0, 0)
	e.logger.Error("enrichment failed", logger.String("session", sessionID), logger.Error(err))
}

func analysisRecords(res *models.EnrichmentResult) []models.AnalysisRecord {
	out := make([]models.AnalysisRecord, 0, len(res.Products))
	for _, p := range res.Products {
		out = append(out, models.AnalysisRecord{
			Source:             "enrichment",
			SessionID:          res.SessionID,
			Category:           p.Category,
			ProductID:          p.Product,
			Elasticity:         util.Deref(p.Elasticity),
			R2:                 p.R2,
			NPoints:            p.NPoints,
			RelativeElasticity: util.Deref(p.RelativeElasticity),
			RelativeVolume:     util.Deref(p.RelativeVolume),
			Recommendation:     string(p.Classification.PriceRecommendation),
			Role:               string(p.Classification.Role),
			OptimalPrice:       util.Deref(p.OptimalPriceLinear),
			ComputedAt:         res.GeneratedAt,
		})
	}
	return out
}

var _ domsvc.Enricher = (*Enrichment)(nil)
