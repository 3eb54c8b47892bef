package repository

import (
	"context"
	"fmt"

	"BarScan/internal/domain/models"
	domainrepo "BarScan/internal/domain/repository"
	"BarScan/pkg/kafka"
	"BarScan/pkg/logger"
)

// KafkaSignalPublisher pushes finished signals onto a topic, keyed by
// ticker so one ticker's signals stay ordered within a partition.
type KafkaSignalPublisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

func NewKafkaSignalPublisher(producer *kafka.Producer, topic string, log *logger.Logger) domainrepo.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic, log: log}
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(signals))
	for _, sig := range signals {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(sig.Ticker),
			Value: sig,
		})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish %d signals to %s: %w", len(signals), p.topic, err)
	}

	p.log.Info("signals published",
		logger.String("topic", p.topic),
		logger.Int("count", len(signals)))
	return nil
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}
