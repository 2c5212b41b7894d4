package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"PriceOpt/internal/domain/models"
	"PriceOpt/internal/middleware"
	"PriceOpt/pkg/logger"
	"PriceOpt/pkg/util"
)

// ObservationsHandler decodes observation events from Kafka and feeds the pipeline.
type ObservationsHandler struct {
	topic    string
	pipeline middleware.Proc
	logger   *logger.Logger
}

func NewObservationsHandler(topic string, pipeline middleware.Proc, lgr *logger.Logger) *ObservationsHandler {
	return &ObservationsHandler{topic: topic, pipeline: pipeline, logger: lgr}
}

func (h *ObservationsHandler) Topic() string { return h.topic }

// Handle returns an error only for undecodable payloads so they reach the DLQ.
// Invalid events are dropped and downstream failures are left to the pipeline buffer.
func (h *ObservationsHandler) Handle(ctx context.Context, data []byte) error {
	var ev models.ObservationEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode observation: %w", err)
	}
	if ev.Timestamp == 0 {
		if t, ok := util.ParseTime(ev.Time); ok {
			ev.Timestamp = t.UnixMilli()
		}
	}
	// producers sending unix seconds
	if ev.Timestamp > 0 && ev.Timestamp < 1e12 {
		ev.Timestamp *= 1000
	}
	if err := h.pipeline.Process(ctx, &ev); err != nil {
		if errors.Is(err, middleware.ErrInvalidObservation) {
			h.logger.Warn("dropping observation", logger.String("product", ev.ProductID), logger.Error(err))
			return nil
		}
		h.logger.Debug("observation buffered for retry", logger.String("product", ev.ProductID), logger.Error(err))
	}
	return nil
}
