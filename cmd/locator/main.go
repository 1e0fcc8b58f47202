package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benmeehan/locator/internal/constants"
	"github.com/benmeehan/locator/internal/diagnostics"
	"github.com/benmeehan/locator/internal/service_registry"
	"github.com/benmeehan/locator/internal/services"
	"github.com/benmeehan/locator/internal/utils"
	"github.com/benmeehan/locator/pkg/file"
	"github.com/benmeehan/locator/pkg/mqtt"
	"github.com/benmeehan/locator/pkg/notifier"
	"github.com/benmeehan/locator/pkg/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Bootstrap logger until the configured one is available
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}
	log = newLogger(config)

	ctx := context.Background()

	// Persistence gateway
	gateway, err := newGateway(ctx, config, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", config.Store.Driver).Msg("Failed to initialize store")
	}

	// Initialize the shared MQTT connection when a component needs it
	var mqttClient mqtt.MQTTClient
	if config.NeedsMQTT() {
		// Generate a unique MQTT Client ID by appending a UUID
		config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
		log.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

		mqttService := mqtt.NewMqttService(fileClient)
		err = mqttService.Initialize(mqtt.Options{
			Broker:        config.MQTT.Broker,
			ClientID:      config.MQTT.ClientID,
			CACertificate: config.MQTT.CACertificate,
			Username:      config.MQTT.Username,
			Password:      config.MQTT.Password,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
		mqttClient = mqttService
	}

	derived, closeNotifier := newNotifier(config, mqttClient, log)

	// Background executor for derived-computation triggers
	pool := utils.NewWorkerPool(config.Ingestion.Workers, config.Ingestion.QueueSize, log)

	ingestion := services.NewIngestionService(
		gateway,
		services.NewFlagResolver(gateway, log),
		derived,
		pool,
		config.Ingestion.WriteTimeout,
		log,
	)
	query := services.NewQueryService(gateway, log)

	metrics := diagnostics.NewRegistry(config.Ingestion.WriteTimeout, log)
	diagnostics.RegisterDefaults(metrics, gateway, log)

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, ingestion, query, metrics, log)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config); err != nil {
		log.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Strs("services", serviceRegistry.Names()).Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Some services failed to stop")
	}

	// Triggers already queued still reach the notifier
	pool.Shutdown()
	if err := closeNotifier(); err != nil {
		log.Error().Err(err).Msg("Failed to close notifier")
	}

	closeCtx, cancel := context.WithTimeout(ctx, config.Server.ShutdownTimeout)
	defer cancel()
	if err := gateway.Close(closeCtx); err != nil {
		log.Error().Err(err).Msg("Failed to close store")
	}

	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
	log.Info().Msg("Shutdown complete")
}

func newLogger(config *utils.Config) zerolog.Logger {
	var out io.Writer = os.Stdout
	if config.Logging.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(config.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "locator").Logger()
}

func newGateway(ctx context.Context, config *utils.Config, log zerolog.Logger) (store.Gateway, error) {
	switch config.Store.Driver {
	case constants.StoreRedis:
		gateway := store.NewRedisStore(store.RedisOpts{
			Addr:      config.Store.Redis.Addr,
			Password:  config.Store.Redis.Password,
			DB:        config.Store.Redis.DB,
			Namespace: config.Store.Redis.Namespace,
			Timeout:   config.Store.Redis.Timeout,
		})
		pctx, cancel := context.WithTimeout(ctx, config.Ingestion.WriteTimeout)
		defer cancel()
		if err := gateway.Ping(pctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info().Str("addr", config.Store.Redis.Addr).Msg("Connected to Redis")
		return gateway, nil
	case constants.StoreMongo:
		return store.NewMongoStore(ctx, store.MongoOpts{
			URI:      config.Store.Mongo.URI,
			Database: config.Store.Mongo.Database,
			Timeout:  config.Store.Mongo.Timeout,
		}, log)
	default:
		log.Warn().Msg("Using the in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}
}

func newNotifier(config *utils.Config, mqttClient mqtt.MQTTClient, log zerolog.Logger) (notifier.Notifier, func() error) {
	noop := func() error { return nil }

	switch config.Derived.Driver {
	case constants.NotifierMQTT:
		return notifier.NewMQTTNotifier(config.Derived.MQTT.Topic, config.Derived.MQTT.QOS, mqttClient, log), noop
	case constants.NotifierKafka:
		k := notifier.NewKafkaNotifier(config.Derived.Kafka.Brokers, config.Derived.Kafka.Topic, log)
		return k, k.Close
	default:
		return notifier.NewLogNotifier(log), noop
	}
}
