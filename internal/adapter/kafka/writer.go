// Package kafka publishes finished ET products to the sink topic for
// downstream ingestion.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/ssebop-etl/internal/asset"
	"github.com/couchcryptid/ssebop-etl/internal/config"
	"github.com/couchcryptid/ssebop-etl/internal/pipeline"
)

// Writer produces product messages to a Kafka topic.
// It implements pipeline.ProductSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Store serializes and publishes one product. Keyed by scene ID so re-runs
// of the same scene land on the same partition and compact cleanly.
func (w *Writer) Store(ctx context.Context, p *pipeline.Product) error {
	msg, err := serializeToMessage(p)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a product into a Kafka message.
func serializeToMessage(p *pipeline.Product) (kafkago.Message, error) {
	data, err := json.Marshal(asset.EncodeProduct(p))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize product: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(p.SceneID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "date", Value: []byte(p.Date.Format("2006-01-02"))},
			{Key: "sensor", Value: []byte(p.Sensor)},
			{Key: "processed_at", Value: []byte(p.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
