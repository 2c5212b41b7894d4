package repository

import (
	"context"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	pkgkafka "PriceOpt/pkg/kafka"
)

// KafkaRecommendationPublisher keys messages by product id so one product's
// recommendations stay ordered on a partition.
type KafkaRecommendationPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaRecommendationPublisher(producer *pkgkafka.Producer, topic string) *KafkaRecommendationPublisher {
	return &KafkaRecommendationPublisher{producer: producer, topic: topic}
}

func (p *KafkaRecommendationPublisher) Publish(ctx context.Context, ev *models.RecommendationEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.ProductID), ev)
}

func (p *KafkaRecommendationPublisher) PublishBatch(ctx context.Context, evs []*models.RecommendationEvent) error {
	if len(evs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(evs))
	for i, ev := range evs {
		msgs[i] = pkgkafka.Message{Key: []byte(ev.ProductID), Value: ev}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

var _ domrepo.RecommendationPublisher = (*KafkaRecommendationPublisher)(nil)
