package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	svcmetrics "PriceOpt/internal/service/metrics"
	"PriceOpt/internal/services/elasticity"
	"PriceOpt/internal/services/optimizer"
	"PriceOpt/internal/services/regression"
	"PriceOpt/internal/services/strategy"
	"PriceOpt/pkg/logger"
	"PriceOpt/pkg/util"
)

type productWindow struct {
	category string
	obs      []models.ObservationEvent
}

// ObservationProcessor keeps a rolling window of sales per product and
// refreshes the product's estimate on every accepted observation.
type ObservationProcessor struct {
	pub       domrepo.RecommendationPublisher
	store     domrepo.AnalysisStore
	metrics   domrepo.Metrics
	logger    *logger.Logger
	window    int
	batchSize int
	now       func() time.Time

	mu      sync.Mutex
	windows map[string]*productWindow

	bufMu   sync.Mutex
	pending []models.AnalysisRecord
}

func NewObservationProcessor(
	pub domrepo.RecommendationPublisher,
	store domrepo.AnalysisStore,
	metrics domrepo.Metrics,
	lgr *logger.Logger,
	window, batchSize int,
) *ObservationProcessor {
	if window < regression.MinCrossPoints {
		window = regression.MinCrossPoints
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &ObservationProcessor{
		pub:       pub,
		store:     store,
		metrics:   metrics,
		logger:    lgr,
		window:    window,
		batchSize: batchSize,
		now:       time.Now,
		windows:   make(map[string]*productWindow),
	}
}

// Process appends ev to its product window and, once enough points exist,
// publishes a refreshed recommendation. An event already in the window (same
// timestamp, prices and quantity) is not appended again, so a retry after a
// failed publish or a redelivered Kafka message only republishes.
func (p *ObservationProcessor) Process(ctx context.Context, ev *models.ObservationEvent) error {
	start := p.now()
	snapshot, category := p.append(ev)

	obs := make([]models.Observation, 0, len(snapshot))
	var cross []models.CrossObservation
	for _, o := range snapshot {
		obs = append(obs, models.Observation{Price: o.Price, Quantity: o.Quantity})
		if o.CompetitorPrice != nil {
			cross = append(cross, models.CrossObservation{OwnPrice: o.Price, OwnQuantity: o.Quantity, CompetitorPrice: *o.CompetitorPrice})
		}
	}
	if len(obs) < regression.MinPoints {
		return nil
	}

	est := elasticity.Estimate(obs)
	svcmetrics.ObserveEstimate("stream", est.Defined(), est.Warnings)

	out := &models.RecommendationEvent{
		ProductID:    ev.ProductID,
		Category:     category,
		Elasticity:   util.FinitePtr(est.Elasticity),
		DemandFactor: util.FinitePtr(est.DemandFactor),
		R2:           est.R2,
		NPoints:      est.NPoints,
		LastPrice:    ev.Price,
		Warnings:     append([]string(nil), est.Warnings...),
		ComputedAt:   start.UTC(),
	}
	var abs *float64
	if out.Elasticity != nil {
		a := math.Abs(*out.Elasticity)
		abs = &a
		p.metrics.RecordElasticity(ev.ProductID, *out.Elasticity)
	}
	out.Recommendation = strategy.RecommendPrice(abs)

	if len(cross) >= regression.MinCrossPoints {
		ce := elasticity.EstimateCross(cross)
		out.CrossElasticity = util.FinitePtr(ce.CrossElasticity)
	}
	lin := elasticity.EstimateLinear(obs)
	if opt := optimizer.LinearOutcome(lin.Alpha, lin.Beta); opt.Valid {
		out.OptimalPrice = util.FinitePtr(opt.Price)
		p.metrics.RecordOptimalPrice(ev.ProductID, opt.Price)
	}

	if err := p.pub.Publish(ctx, out); err != nil {
		p.metrics.RecordError("publish_recommendation")
		return err
	}
	p.metrics.RecordPublished("kafka")

	p.buffer(ctx, models.AnalysisRecord{
		Source:             "stream",
		Category:           category,
		ProductID:          ev.ProductID,
		Elasticity:         est.Elasticity,
		R2:                 est.R2,
		NPoints:            est.NPoints,
		RelativeElasticity: math.NaN(),
		RelativeVolume:     math.NaN(),
		Recommendation:     string(out.Recommendation),
		OptimalPrice:       util.Deref(out.OptimalPrice),
		ComputedAt:         out.ComputedAt,
	})
	p.metrics.RecordLatency("stream_process", p.now().Sub(start).Seconds())
	return nil
}

func (p *ObservationProcessor) append(ev *models.ObservationEvent) ([]models.ObservationEvent, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.windows[ev.ProductID]
	if !ok {
		w = &productWindow{}
		p.windows[ev.ProductID] = w
	}
	if ev.Category != "" {
		w.category = ev.Category
	}
	if !w.contains(ev) {
		w.obs = append(w.obs, *ev)
	}
	if over := len(w.obs) - p.window; over > 0 {
		w.obs = append(w.obs[:0], w.obs[over:]...)
	}
	return append([]models.ObservationEvent(nil), w.obs...), w.category
}

func (w *productWindow) contains(ev *models.ObservationEvent) bool {
	for i := len(w.obs) - 1; i >= 0; i-- {
		o := &w.obs[i]
		if o.Timestamp == ev.Timestamp && o.Price == ev.Price && o.Quantity == ev.Quantity &&
			sameCompetitorPrice(o.CompetitorPrice, ev.CompetitorPrice) {
			return true
		}
	}
	return false
}

func sameCompetitorPrice(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// buffer queues a record and writes the batch once it is full.
func (p *ObservationProcessor) buffer(ctx context.Context, rec models.AnalysisRecord) {
	p.bufMu.Lock()
	p.pending = append(p.pending, rec)
	if len(p.pending) < p.batchSize {
		p.bufMu.Unlock()
		return
	}
	batch := p.pending
	p.pending = nil
	p.bufMu.Unlock()
	p.storeBatch(ctx, batch)
}

// Flush writes buffered analysis records.
func (p *ObservationProcessor) Flush(ctx context.Context) {
	p.bufMu.Lock()
	batch := p.pending
	p.pending = nil
	p.bufMu.Unlock()
	p.storeBatch(ctx, batch)
}

func (p *ObservationProcessor) storeBatch(ctx context.Context, batch []models.AnalysisRecord) {
	if len(batch) == 0 {
		return
	}
	if err := p.store.StoreBatch(ctx, batch); err != nil {
		p.metrics.RecordError("analysis_store")
		p.logger.Warn("store stream analyses failed", logger.Int("records", len(batch)), logger.Error(err))
		return
	}
	p.metrics.RecordPublished("clickhouse")
}

// Products returns how many products currently hold a window.
func (p *ObservationProcessor) Products() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.windows)
}

// RunFlusher flushes buffered records every interval until ctx ends, then once more.
func (p *ObservationProcessor) RunFlusher(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// the run context is gone; give the final write its own deadline
			fctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			p.Flush(fctx)
			cancel()
			return
		case <-ticker.C:
			p.Flush(ctx)
		}
	}
}
