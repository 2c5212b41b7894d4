package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PriceOpt/pkg/logger"
)

// MemoryQueue runs jobs in-process. Used when redis is disabled and in tests.
type MemoryQueue struct {
	logger *logger.Logger
	config QueueConfig
	jobs   map[string]Job
	ch     chan Message
	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	run    bool
}

func NewMemoryQueue(lgr *logger.Logger, config QueueConfig) *MemoryQueue {
	config.normalize()
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryQueue{
		logger: lgr,
		config: config,
		jobs:   make(map[string]Job),
		ch:     make(chan Message, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (q *MemoryQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[job.Type()] = job
}

func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.run {
		return fmt.Errorf("queue already running")
	}
	q.run = true
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.logger.Info("memory queue started", logger.Int("workers", q.config.Workers))
	return nil
}

func (q *MemoryQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.run {
		q.mu.Unlock()
		return nil
	}
	q.run = false
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timeout: %w", ctx.Err())
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) (string, error) {
	q.mu.RLock()
	_, ok := q.jobs[msgType]
	running := q.run
	q.mu.RUnlock()
	if !running {
		return "", fmt.Errorf("queue not running")
	}
	if !ok {
		return "", fmt.Errorf("no job registered for type: %s", msgType)
	}
	msg, err := newMessage(msgType, payload)
	if err != nil {
		return "", err
	}
	select {
	case q.ch <- msg:
		return msg.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		return "", fmt.Errorf("queue full")
	}
}

func (q *MemoryQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case msg := <-q.ch:
			q.process(msg)
		}
	}
}

func (q *MemoryQueue) process(msg Message) {
	q.mu.RLock()
	job := q.jobs[msg.Type]
	q.mu.RUnlock()

	for {
		err := job.Handle(q.ctx, msg.Payload)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		q.logger.Error("message processing error",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()),
			logger.Int("attempt", msg.Attempts+1),
			logger.Error(err))
		if msg.Attempts >= q.config.RetryLimit {
			q.logger.Error("max retries reached", logger.String("id", msg.ID), logger.String("job", job.Name()))
			return
		}
		msg.Attempts++
		select {
		case <-time.After(q.config.RetryDelay):
		case <-q.ctx.Done():
			return
		}
	}
}
