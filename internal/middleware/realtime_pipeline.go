package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
)

// ErrInvalidObservation marks events that can never be processed.
var ErrInvalidObservation = errors.New("invalid observation")

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, ev *models.ObservationEvent) error
}

// RealtimePipeline sits between the observation consumer and the estimator.
// It validates, throttles per product, and buffers while downstream fails.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxRPS  int
	bufSize int
	bufCh   chan *models.ObservationEvent
	stopCh  chan struct{}
	done    chan struct{}
	now     func() time.Time
	sleep   func(time.Duration)

	mu       sync.Mutex
	started  bool
	lastSeen map[string]time.Time

	transform func(*models.ObservationEvent) *models.ObservationEvent
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS caps accepted observations per second per product; 0 disables throttling.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets how many failed observations are held for retry.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform rewrites events before validation of the result.
func WithTransform(fn func(*models.ObservationEvent) *models.ObservationEvent) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

func withClock(now func() time.Time) PipelineOption {
	return func(p *RealtimePipeline) { p.now = now }
}

func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   50,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
		sleep:    time.Sleep,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.ObservationEvent, p.bufSize)
	return p
}

// Start launches the retry loop for buffered observations.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case ev := <-p.bufCh:
				if err := p.proc.Process(ctx, ev); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					p.sleep(backoff)
					select {
					case p.bufCh <- ev:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
					continue
				}
				backoff = 50 * time.Millisecond
			}
		}
	}()
}

// Stop ends the retry loop and waits for it to exit.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.done
}

// Buffered returns the number of observations waiting for retry.
func (p *RealtimePipeline) Buffered() int { return len(p.bufCh) }

// Process validates, throttles and forwards ev, buffering it when downstream fails.
// Throttled events are dropped without error.
func (p *RealtimePipeline) Process(ctx context.Context, ev *models.ObservationEvent) error {
	start := p.now()
	if err := validateObservation(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		ev = p.transform(ev)
		if err := validateObservation(ev); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(ev.ProductID, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, ev); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- ev:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", p.now().Sub(start).Seconds())
	return nil
}

func validateObservation(ev *models.ObservationEvent) error {
	switch {
	case ev == nil:
		return fmt.Errorf("%w: nil event", ErrInvalidObservation)
	case ev.ProductID == "":
		return fmt.Errorf("%w: product_id empty", ErrInvalidObservation)
	case ev.Timestamp <= 0:
		return fmt.Errorf("%w: timestamp invalid", ErrInvalidObservation)
	case !(ev.Price > 0) || math.IsInf(ev.Price, 0):
		return fmt.Errorf("%w: price must be positive", ErrInvalidObservation)
	case !(ev.Quantity >= 0) || math.IsInf(ev.Quantity, 0):
		return fmt.Errorf("%w: quantity must be non-negative", ErrInvalidObservation)
	case ev.CompetitorPrice != nil && !(*ev.CompetitorPrice > 0):
		return fmt.Errorf("%w: competitor_price must be positive", ErrInvalidObservation)
	}
	return nil
}

func (p *RealtimePipeline) allow(product string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[product]
	if ok && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[product] = now
	return true
}
