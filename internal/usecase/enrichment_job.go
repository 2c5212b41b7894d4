package usecase

import (
	"context"
	"fmt"

	domrepo "PriceOpt/internal/domain/repository"
	domsvc "PriceOpt/internal/domain/service"
	"PriceOpt/pkg/queue"
)

const EnrichJobType = "enrich_session"

type enrichPayload struct {
	SessionID string `json:"session_id"`
}

// EnrichmentJob runs queued enrichments.
type EnrichmentJob struct {
	enricher domsvc.Enricher
}

func NewEnrichmentJob(enricher domsvc.Enricher) *EnrichmentJob {
	return &EnrichmentJob{enricher: enricher}
}

func (j *EnrichmentJob) Name() string { return "enrich-session" }
func (j *EnrichmentJob) Type() string { return EnrichJobType }

func (j *EnrichmentJob) Handle(ctx context.Context, payload []byte) error {
	p, err := queue.ParsePayload[enrichPayload](payload)
	if err != nil {
		return err
	}
	if p.SessionID == "" {
		return fmt.Errorf("enrich job: empty session id")
	}
	_, err = j.enricher.Enrich(ctx, p.SessionID)
	return err
}

// QueueScheduler enqueues enrichments of existing sessions on the job queue.
type QueueScheduler struct {
	q    queue.Queue
	repo domrepo.DatasetRepository
}

func NewQueueScheduler(q queue.Queue, repo domrepo.DatasetRepository) *QueueScheduler {
	return &QueueScheduler{q: q, repo: repo}
}

func (s *QueueScheduler) Schedule(ctx context.Context, sessionID string) (string, error) {
	if _, err := s.repo.GetDataset(ctx, sessionID); err != nil {
		return "", err
	}
	return s.q.Enqueue(ctx, EnrichJobType, enrichPayload{SessionID: sessionID})
}

var (
	_ queue.Job                  = (*EnrichmentJob)(nil)
	_ domsvc.EnrichmentScheduler = (*QueueScheduler)(nil)
)
