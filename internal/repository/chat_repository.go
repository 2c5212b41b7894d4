package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	"PriceOpt/pkg/cache"
)

const (
	chatPrefix  = "chat"
	chatLockTTL = 5 * time.Second
)

// ChatRepository keeps one JSON document per user under chat:<user>. Appends
// are serialized with a store lock so concurrent posts do not drop messages.
type ChatRepository struct {
	store      cache.Store
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
}

func NewChatRepository(store cache.Store, ttl time.Duration, maxHistory int) *ChatRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ChatRepository{store: store, ttl: ttl, maxHistory: maxHistory, now: time.Now}
}

func (r *ChatRepository) Append(ctx context.Context, userID string, msgs ...models.ChatMessage) (*models.ChatSession, error) {
	lockKey := cache.GenerateKey("lock", chatPrefix, userID)
	ok, err := r.store.TryLock(ctx, lockKey, chatLockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock chat %s: %w", userID, err)
	}
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", userID, domrepo.ErrBusy)
	}
	defer func() { _ = r.store.Unlock(context.WithoutCancel(ctx), lockKey) }()

	sess, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.History = append(sess.History, msgs...)
	if over := len(sess.History) - r.maxHistory; r.maxHistory > 0 && over > 0 {
		sess.History = append(sess.History[:0], sess.History[over:]...)
	}
	sess.UpdatedAt = r.now().UTC()

	if err := r.store.Set(ctx, cache.GenerateKey(chatPrefix, userID), sess, r.ttl); err != nil {
		return nil, fmt.Errorf("save chat %s: %w", userID, err)
	}
	return sess, nil
}

func (r *ChatRepository) Get(ctx context.Context, userID string) (*models.ChatSession, error) {
	sess := &models.ChatSession{UserID: userID}
	err := r.store.Get(ctx, cache.GenerateKey(chatPrefix, userID), sess)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return &models.ChatSession{UserID: userID, History: []models.ChatMessage{}}, nil
	case err != nil:
		return nil, fmt.Errorf("chat %s: %w", userID, err)
	}
	if sess.History == nil {
		sess.History = []models.ChatMessage{}
	}
	return sess, nil
}

func (r *ChatRepository) Clear(ctx context.Context, userID string) error {
	err := r.store.Delete(ctx, cache.GenerateKey(chatPrefix, userID))
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return fmt.Errorf("clear chat %s: %w", userID, err)
	}
	return nil
}

var _ domrepo.ChatRepository = (*ChatRepository)(nil)
