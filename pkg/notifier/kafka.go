package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/benmeehan/locator/internal/models"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaNotifier.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes each batch as one Kafka message keyed by the first device id,
// so batches for the same leading device land on the same partition.
type KafkaNotifier struct {
	writer MessageWriter
	logger zerolog.Logger
}

// NewKafkaNotifier creates a KafkaNotifier writing to topic on brokers.
func NewKafkaNotifier(brokers []string, topic string, logger zerolog.Logger) *KafkaNotifier {
	return NewKafkaNotifierWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}, logger)
}

// NewKafkaNotifierWithWriter creates a KafkaNotifier around an existing writer.
func NewKafkaNotifierWithWriter(writer MessageWriter, logger zerolog.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, logger: logger}
}

// Notify writes the batch and logs the outcome.
func (k *KafkaNotifier) Notify(records []models.LocationTimestamp) {
	payload, err := json.Marshal(Batch{Records: records})
	if err != nil {
		k.logger.Error().Err(err).Msg("Failed to serialize derived-computation batch")
		return
	}

	var key []byte
	if len(records) > 0 {
		key = []byte(records[0].ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload}); err != nil {
		k.logger.Error().Err(err).Int("records", len(records)).Msg("Failed to write derived-computation batch to Kafka")
		return
	}

	k.logger.Debug().Int("records", len(records)).Msg("Derived-computation batch written to Kafka")
}

// Close flushes and closes the writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
