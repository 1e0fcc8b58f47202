package notifier

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/benmeehan/locator/internal/models"
	"github.com/benmeehan/locator/pkg/mqtt"
	"github.com/rs/zerolog"
)

const publishTimeout = 10 * time.Second

// Batch is the wire format published to the derived-computation topic.
type Batch struct {
	Records []models.LocationTimestamp `json:"records"`
}

// MQTTNotifier publishes each batch as a JSON message on a topic.
type MQTTNotifier struct {
	topic      string
	qos        int
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
}

// NewMQTTNotifier creates an MQTTNotifier.
func NewMQTTNotifier(topic string, qos int, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// Notify publishes the batch and logs the outcome.
func (n *MQTTNotifier) Notify(records []models.LocationTimestamp) {
	payload, err := json.Marshal(Batch{Records: records})
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to serialize derived-computation batch")
		return
	}

	token := n.mqttClient.Publish(n.topic, byte(n.qos), false, payload)
	if !token.WaitTimeout(publishTimeout) {
		n.logger.Error().Err(errors.New("publish timed out")).Str("topic", n.topic).Msg("Failed to publish derived-computation batch")
		return
	}
	if err := token.Error(); err != nil {
		n.logger.Error().Err(err).Str("topic", n.topic).Msg("Failed to publish derived-computation batch")
		return
	}

	n.logger.Debug().Str("topic", n.topic).Int("records", len(records)).Msg("Derived-computation batch published")
}
