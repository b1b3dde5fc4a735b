package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ndefokin/botarmy/models"
)

// KafkaPublisher broadcasts completed training runs to a Kafka topic so
// downstream consumers (dashboards, sync workers) can react without blocking
// the training path.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 100 * time.Millisecond,
		},
	}
}

// PublishTrainingRun emits one training-run event
func (k *KafkaPublisher) PublishTrainingRun(ctx context.Context, run *models.TrainingRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal training run: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(run.StartedAt.Unix(), 10)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish training run: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer
func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
