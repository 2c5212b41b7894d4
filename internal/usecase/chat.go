package usecase

import (
	"context"
	"time"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	"PriceOpt/pkg/logger"
)

// Chat records per-user conversation history. Generating replies is left to
// an external assistant that reads the history.
type Chat struct {
	repo   domrepo.ChatRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewChat(repo domrepo.ChatRepository, lgr *logger.Logger) *Chat {
	return &Chat{repo: repo, logger: lgr, now: time.Now}
}

// Post appends a user message and returns the updated session.
func (c *Chat) Post(ctx context.Context, userID, text string) (*models.ChatSession, error) {
	sess, err := c.repo.Append(ctx, userID, models.ChatMessage{Role: "user", Text: text, At: c.now().UTC()})
	if err != nil {
		c.logger.Warn("chat append failed", logger.String("user", userID), logger.Error(err))
		return nil, err
	}
	c.logger.Debug("chat message saved", logger.String("user", userID), logger.Int("history", len(sess.History)))
	return sess, nil
}

func (c *Chat) History(ctx context.Context, userID string) (*models.ChatSession, error) {
	return c.repo.Get(ctx, userID)
}

func (c *Chat) Clear(ctx context.Context, userID string) error {
	if err := c.repo.Clear(ctx, userID); err != nil {
		return err
	}
	c.logger.Info("chat history cleared", logger.String("user", userID))
	return nil
}
