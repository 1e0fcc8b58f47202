package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/locator/internal/api"
	"github.com/benmeehan/locator/internal/diagnostics"
	"github.com/benmeehan/locator/internal/services"
	"github.com/benmeehan/locator/internal/utils"
	"github.com/benmeehan/locator/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Service is the interface for all plug-in services
type Service interface {
	Start() error
	Stop() error
}

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]Service // Stores registered services
	serviceKeys []string           // Maintains order of service registration
	mqttClient  mqtt.MQTTClient    // nil when no component needs MQTT
	ingester    services.Ingester
	query       api.Querier
	metrics     *diagnostics.Registry
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, ingester services.Ingester, query api.Querier,
	metrics *diagnostics.Registry, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]Service),
		mqttClient: mqttClient,
		ingester:   ingester,
		query:      query,
		metrics:    metrics,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Names returns the registered service names in start order.
func (sr *ServiceRegistry) Names() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config) error {
	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (Service, error)
	}{
		{
			name:    "http",
			enabled: config.Server.Enabled,
			constructor: func() (Service, error) {
				return api.NewHTTPService(
					config.Server.Address,
					config.Server.ShutdownTimeout,
					sr.ingester,
					sr.query,
					sr.metrics,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "mqtt_ingest",
			enabled: config.Services.MQTTIngest.Enabled,
			constructor: func() (Service, error) {
				if sr.mqttClient == nil {
					return nil, errors.New("mqtt ingest requires an MQTT client")
				}
				return services.NewMQTTIngestService(
					config.Services.MQTTIngest.Topic,
					config.Services.MQTTIngest.QOS,
					config.Services.MQTTIngest.AcceptedVersions,
					sr.mqttClient,
					sr.ingester,
					sr.Logger,
				)
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
