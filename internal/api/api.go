// Package api exposes the locator services over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/benmeehan/locator/internal/diagnostics"
	"github.com/benmeehan/locator/internal/models"
	"github.com/benmeehan/locator/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Querier is the read side used by the handlers.
type Querier interface {
	GetLastLocations(ctx context.Context, deviceID string, n int) ([]models.LocationTimestamp, error)
	GetTrackees(ctx context.Context) ([]models.Trackee, error)
	GetTrackeeByID(ctx context.Context, id string) (models.Trackee, error)
	UpdateTrackee(ctx context.Context, trackee models.Trackee) error
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Ping(ctx context.Context) error
}

// HTTPService serves the HTTP API.
type HTTPService struct {
	// Configuration fields
	address         string
	shutdownTimeout time.Duration

	// Dependencies
	ingester services.Ingester
	query    Querier
	metrics  *diagnostics.Registry
	logger   zerolog.Logger

	// Internal state management
	app     *fiber.App
	ln      net.Listener
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewHTTPService creates a new HTTPService and registers its routes.
func NewHTTPService(address string, shutdownTimeout time.Duration, ingester services.Ingester, query Querier,
	metrics *diagnostics.Registry, logger zerolog.Logger) *HTTPService {
	h := &HTTPService{
		address:         address,
		shutdownTimeout: shutdownTimeout,
		ingester:        ingester,
		query:           query,
		metrics:         metrics,
		logger:          logger,
	}

	h.app = fiber.New(fiber.Config{
		AppName:               "locator",
		DisableStartupMessage: true,
		ErrorHandler:          h.errorHandler,
	})
	h.app.Use(recover.New())
	h.app.Use(h.requestLogger)
	h.registerRoutes()
	return h
}

// App returns the underlying fiber application.
func (h *HTTPService) App() *fiber.App {
	return h.app
}

// Start begins listening in the background.
func (h *HTTPService) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		h.logger.Warn().Msg("HTTPService is already running")
		return errors.New("http service is already running")
	}

	ln, err := net.Listen("tcp", h.address)
	if err != nil {
		h.logger.Error().Err(err).Str("address", h.address).Msg("Failed to listen")
		return err
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.app.Listener(ln); err != nil {
			h.logger.Error().Err(err).Msg("HTTP server stopped with error")
		}
	}()

	h.ln = ln
	h.running = true
	h.logger.Info().Str("address", ln.Addr().String()).Msg("HTTPService started")
	return nil
}

// Stop shuts the server down, waiting up to the shutdown timeout for in-flight requests.
func (h *HTTPService) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		h.logger.Warn().Msg("HTTPService is not running")
		return errors.New("http service is not running")
	}

	err := h.app.ShutdownWithTimeout(h.shutdownTimeout)
	// Serve may not have picked the listener up yet
	_ = h.ln.Close()
	h.wg.Wait()
	h.running = false

	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to shut down HTTP server cleanly")
		return err
	}
	h.logger.Info().Msg("HTTPService stopped")
	return nil
}

func (h *HTTPService) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	if err := c.Next(); err != nil {
		if herr := h.errorHandler(c, err); herr != nil {
			return herr
		}
	}
	h.logger.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("HTTP request")
	return nil
}
