package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/locator/internal/models"
	"github.com/benmeehan/locator/pkg/mqtt"
	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Ingester ingests a single location report.
type Ingester interface {
	Ingest(ctx context.Context, report models.LocationReport) ([]models.LocationTimestamp, error)
}

// MQTTIngestService subscribes to the report topic and feeds every message to the ingester.
type MQTTIngestService struct {
	// Configuration fields
	topic      string
	qos        int
	constraint *semver.Constraints

	// Dependencies
	mqttClient mqtt.MQTTClient
	ingester   Ingester
	logger     zerolog.Logger

	// Internal state management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewMQTTIngestService creates a new MQTTIngestService. acceptedVersions is a semver
// constraint on the report schema_version; empty accepts every report.
func NewMQTTIngestService(topic string, qos int, acceptedVersions string, mqttClient mqtt.MQTTClient,
	ingester Ingester, logger zerolog.Logger) (*MQTTIngestService, error) {
	var constraint *semver.Constraints
	if acceptedVersions != "" {
		c, err := semver.NewConstraint(acceptedVersions)
		if err != nil {
			return nil, fmt.Errorf("invalid accepted_versions %q: %w", acceptedVersions, err)
		}
		constraint = c
	}

	return &MQTTIngestService{
		topic:      topic,
		qos:        qos,
		constraint: constraint,
		mqttClient: mqttClient,
		ingester:   ingester,
		logger:     logger,
	}, nil
}

// Start subscribes to the report topic.
func (s *MQTTIngestService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn().Msg("MQTTIngestService is already running")
		return errors.New("mqtt ingest service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	token := s.mqttClient.Subscribe(s.topic, byte(s.qos), s.HandleReport)
	token.Wait()
	if err := token.Error(); err != nil {
		s.cancel()
		s.logger.Error().Err(err).Str("topic", s.topic).Msg("Failed to subscribe to MQTT topic")
		return err
	}

	s.running = true
	s.logger.Info().Str("topic", s.topic).Int("qos", s.qos).Msg("MQTTIngestService started")
	return nil
}

// Stop unsubscribes and waits for in-flight reports.
func (s *MQTTIngestService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("MQTTIngestService is not running")
		return errors.New("mqtt ingest service is not running")
	}
	s.running = false
	s.mu.Unlock()

	token := s.mqttClient.Unsubscribe(s.topic)
	token.Wait()
	unsubErr := token.Error()

	s.wg.Wait()
	s.cancel()

	if unsubErr != nil {
		s.logger.Error().Err(unsubErr).Str("topic", s.topic).Msg("Failed to unsubscribe from MQTT topic")
		return unsubErr
	}
	s.logger.Info().Msg("MQTTIngestService stopped")
	return nil
}

// HandleReport decodes one report message and ingests it. Failures are logged only.
func (s *MQTTIngestService) HandleReport(_ MQTT.Client, msg MQTT.Message) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Warn().Str("topic", msg.Topic()).Msg("Received report but service is stopping, ignoring")
		return
	}
	s.wg.Add(1)
	ctx := s.ctx
	s.mu.Unlock()
	defer s.wg.Done()

	var report models.LocationReport
	if err := json.Unmarshal(msg.Payload(), &report); err != nil {
		s.logger.Error().Err(err).Str("topic", msg.Topic()).Msg("Failed to decode location report")
		return
	}

	if err := s.checkSchemaVersion(report.SchemaVersion); err != nil {
		s.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Dropping location report")
		return
	}

	records, err := s.ingester.Ingest(ctx, report)
	if err != nil {
		s.logger.Error().Err(err).Str("topic", msg.Topic()).Msg("Failed to ingest location report")
		return
	}
	s.logger.Debug().Str("topic", msg.Topic()).Int("records", len(records)).Msg("MQTT location report ingested")
}

// checkSchemaVersion accepts reports without a schema_version.
func (s *MQTTIngestService) checkSchemaVersion(version string) error {
	if s.constraint == nil || version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid schema_version %q: %w", version, err)
	}
	if !s.constraint.Check(v) {
		return fmt.Errorf("schema_version %s does not satisfy %s", v, s.constraint)
	}
	return nil
}
