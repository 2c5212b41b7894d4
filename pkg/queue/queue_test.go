package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"PriceOpt/pkg/logger"

	"github.com/stretchr/testify/require"
)

type enrichPayload struct {
	SessionID string `json:"session_id"`
}

type countingJob struct {
	failures int32
	calls    atomic.Int32
	got      chan string
}

func (j *countingJob) Name() string { return "enrich-dataset" }
func (j *countingJob) Type() string { return "enrich" }

func (j *countingJob) Handle(_ context.Context, payload []byte) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("transient")
	}
	p, err := ParsePayload[enrichPayload](payload)
	if err != nil {
		return err
	}
	j.got <- p.SessionID
	return nil
}

func TestMemoryQueueRetriesThenSucceeds(t *testing.T) {
	q := NewMemoryQueue(logger.Nop(), QueueConfig{Workers: 1, RetryLimit: 2, RetryDelay: time.Millisecond})
	job := &countingJob{failures: 2, got: make(chan string, 1)}
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	id, err := q.Enqueue(context.Background(), "enrich", enrichPayload{SessionID: "s-1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case got := <-job.got:
		require.Equal(t, "s-1", got)
	case <-time.After(2 * time.Second):
		t.Fatal("job not handled")
	}
	require.Equal(t, int32(3), job.calls.Load())
}

func TestMemoryQueueRejectsUnknownType(t *testing.T) {
	q := NewMemoryQueue(logger.Nop(), QueueConfig{})
	_, err := q.Enqueue(context.Background(), "enrich", nil)
	require.ErrorContains(t, err, "not running")

	require.NoError(t, q.Start())
	defer q.Stop(context.Background())
	_, err = q.Enqueue(context.Background(), "export", nil)
	require.ErrorContains(t, err, "no job registered")
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[enrichPayload]([]byte(`{"session_id":"abc"}`))
	require.NoError(t, err)
	require.Equal(t, "abc", p.SessionID)

	_, err = ParsePayload[enrichPayload]([]byte(`{`))
	require.Error(t, err)
}
