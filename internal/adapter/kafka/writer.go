package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces loaded-plant messages to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes the plant events in a single WriteMessages
// call. Messages are keyed by event id so a plant always lands on the same
// partition.
func (w *Writer) Publish(ctx context.Context, events []domain.PlantEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d plant events: %w", len(msgs), err)
	}
	w.logger.Debug("published plant events", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PlantEvent into a Kafka message.
func serializeToMessage(event domain.PlantEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize plant event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "scenario_id", Value: []byte(strconv.Itoa(event.ScenarioID))},
			{Key: "run_id", Value: []byte(event.RunID)},
			{Key: "loaded_at", Value: []byte(event.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
