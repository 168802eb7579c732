package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/climatesphere/internal/config"
	"github.com/couchcryptid/climatesphere/internal/domain"
)

// Publisher produces simulation snapshots to a Kafka topic.
// It implements pipeline.SnapshotPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes sim and writes it keyed by run id, so every snapshot of
// a run lands on the same partition.
func (p *Publisher) Publish(ctx context.Context, sim domain.Simulation) error {
	msg, err := serializeToMessage(sim)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", sim.ID, err)
	}
	p.logger.Debug("snapshot published", "id", sim.ID, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Simulation into a Kafka message.
func serializeToMessage(sim domain.Simulation) (kafkago.Message, error) {
	data, err := json.Marshal(sim)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize simulation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(sim.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "target", Value: []byte(sim.Target)},
			{Key: "region", Value: []byte(sim.RegionID)},
			{Key: "created_at", Value: []byte(sim.CreatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
