package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/locator/internal/constants"
	"github.com/benmeehan/locator/pkg/file"
	"github.com/go-playground/validator/v10"
)

// Config represents the structure of the configuration file.
type Config struct {
	Logging struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"` // Minimum log level
		Pretty bool   `yaml:"pretty"`                                                       // Human-readable console output
	} `yaml:"logging"`

	Server struct {
		Enabled         bool          `yaml:"enabled"`          // Enable/disable the HTTP API
		Address         string        `yaml:"address"`          // Listen address, e.g. ":8080"
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Grace period for in-flight requests
	} `yaml:"server"`

	Store struct {
		Driver string `yaml:"driver" validate:"oneof=memory redis mongo"` // Persistence gateway backend

		Redis struct {
			Addr      string        `yaml:"addr"`                // host:port
			Password  string        `yaml:"password"`            // AUTH password
			DB        int           `yaml:"db" validate:"gte=0"` // Logical database
			Namespace string        `yaml:"namespace"`           // Key namespace prefix
			Timeout   time.Duration `yaml:"timeout"`             // Dial/read/write timeout
		} `yaml:"redis"`

		Mongo struct {
			URI      string        `yaml:"uri"`      // Connection string
			Database string        `yaml:"database"` // Database name
			Timeout  time.Duration `yaml:"timeout"`  // Connect timeout
		} `yaml:"mongo"`
	} `yaml:"store"`

	Ingestion struct {
		Workers      int           `yaml:"workers" validate:"gte=0"`    // Background workers for derived-computation triggers
		QueueSize    int           `yaml:"queue_size" validate:"gte=0"` // Buffered trigger queue size
		WriteTimeout time.Duration `yaml:"write_timeout"`               // Timeout per persistence call
	} `yaml:"ingestion"`

	Derived struct {
		Driver string `yaml:"driver" validate:"oneof=log mqtt kafka"` // Derived-computation notifier

		MQTT struct {
			Topic string `yaml:"topic"`                      // Topic receiving record batches
			QOS   int    `yaml:"qos" validate:"gte=0,lte=2"` // MQTT QoS level
		} `yaml:"mqtt"`

		Kafka struct {
			Brokers []string `yaml:"brokers"` // Bootstrap brokers
			Topic   string   `yaml:"topic"`   // Topic receiving record batches
		} `yaml:"kafka"`
	} `yaml:"derived"`

	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate, empty for plain TCP
		Username      string `yaml:"username"`       // Broker username
		Password      string `yaml:"password"`       // Broker password
	} `yaml:"mqtt"`

	Services struct {
		MQTTIngest struct {
			Enabled          bool   `yaml:"enabled"`                    // Enable/disable MQTT report ingestion
			Topic            string `yaml:"topic"`                      // Topic devices publish reports to
			QOS              int    `yaml:"qos" validate:"gte=0,lte=2"` // MQTT QoS level for the subscription
			AcceptedVersions string `yaml:"accepted_versions"`          // Semver constraint on report schema_version
		} `yaml:"mqtt_ingest"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file, applies defaults
// and validates it.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults fills every unset field that has a default.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}
	if c.Store.Driver == "" {
		c.Store.Driver = constants.StoreMemory
	}
	if c.Store.Mongo.Database == "" {
		c.Store.Mongo.Database = "locator"
	}
	if c.Ingestion.Workers == 0 {
		c.Ingestion.Workers = constants.DefaultWorkers
	}
	if c.Ingestion.QueueSize == 0 {
		c.Ingestion.QueueSize = constants.DefaultQueueSize
	}
	if c.Ingestion.WriteTimeout == 0 {
		c.Ingestion.WriteTimeout = constants.DefaultWriteTimeout
	}
	if c.Derived.Driver == "" {
		c.Derived.Driver = constants.NotifierLog
	}
	if c.Derived.MQTT.Topic == "" {
		c.Derived.MQTT.Topic = "locator/derived"
	}
	if c.Services.MQTTIngest.Topic == "" {
		c.Services.MQTTIngest.Topic = "locator/reports"
	}
}

// Validate checks struct tags and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Store.Driver == constants.StoreRedis && c.Store.Redis.Addr == "" {
		return errors.New("invalid configuration: store.redis.addr is required for the redis driver")
	}
	if c.Store.Driver == constants.StoreMongo && c.Store.Mongo.URI == "" {
		return errors.New("invalid configuration: store.mongo.uri is required for the mongo driver")
	}
	if c.Derived.Driver == constants.NotifierKafka && (len(c.Derived.Kafka.Brokers) == 0 || c.Derived.Kafka.Topic == "") {
		return errors.New("invalid configuration: derived.kafka.brokers and derived.kafka.topic are required for the kafka driver")
	}
	if c.NeedsMQTT() && c.MQTT.Broker == "" {
		return errors.New("invalid configuration: mqtt.broker is required when MQTT ingest or the mqtt notifier is enabled")
	}
	return nil
}

// NeedsMQTT reports whether any component uses the shared MQTT connection.
func (c *Config) NeedsMQTT() bool {
	return c.Services.MQTTIngest.Enabled || c.Derived.Driver == constants.NotifierMQTT
}
