package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	"PriceOpt/pkg/cache"
)

func msg(text string) models.ChatMessage { return models.ChatMessage{Role: "user", Text: text} }

func TestChatRepositoryAppendTrimsHistory(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer store.Close()
	repo := NewChatRepository(store, time.Hour, 2)

	empty, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, empty.History)
	require.NotNil(t, empty.History)

	_, err = repo.Append(ctx, "u1", msg("a"))
	require.NoError(t, err)
	_, err = repo.Append(ctx, "u1", msg("b"))
	require.NoError(t, err)
	sess, err := repo.Append(ctx, "u1", msg("c"))
	require.NoError(t, err)
	require.Len(t, sess.History, 2)
	require.Equal(t, "b", sess.History[0].Text)
	require.Equal(t, "c", sess.History[1].Text)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, sess.History, got.History)

	other, err := repo.Get(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, other.History)

	require.NoError(t, repo.Clear(ctx, "u1"))
	require.NoError(t, repo.Clear(ctx, "u1"))
	got, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, got.History)
}

func TestChatRepositoryBusyWhileLocked(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer store.Close()
	repo := NewChatRepository(store, time.Hour, 0)

	ok, err := store.TryLock(ctx, cache.GenerateKey("lock", chatPrefix, "u1"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = repo.Append(ctx, "u1", msg("a"))
	require.ErrorIs(t, err, domrepo.ErrBusy)

	require.NoError(t, store.Unlock(ctx, cache.GenerateKey("lock", chatPrefix, "u1")))
	sess, err := repo.Append(ctx, "u1", msg("a"))
	require.NoError(t, err)
	require.Len(t, sess.History, 1)
}

func TestChatRepositoryKeepsSessionsApartFromDatasets(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer store.Close()
	_, err := NewChatRepository(store, time.Hour, 10).Append(ctx, "u1", msg("a"))
	require.NoError(t, err)

	ids, err := NewDatasetRepository(store, time.Hour).ListSessions(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}
