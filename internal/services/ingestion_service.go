package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/benmeehan/locator/internal/constants"
	"github.com/benmeehan/locator/internal/models"
	"github.com/benmeehan/locator/internal/utils"
	"github.com/benmeehan/locator/pkg/notifier"
	"github.com/benmeehan/locator/pkg/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// IngestionService turns one multi-device report into per-device location records,
// appends them to each device's history and triggers the derived computation.
type IngestionService struct {
	gateway      store.Gateway
	flags        *FlagResolver
	notifier     notifier.Notifier
	pool         *utils.WorkerPool
	writeTimeout time.Duration
	now          func() time.Time
	logger       zerolog.Logger
}

// NewIngestionService creates a new IngestionService. A zero writeTimeout falls back to the default.
func NewIngestionService(gateway store.Gateway, flags *FlagResolver, n notifier.Notifier, pool *utils.WorkerPool,
	writeTimeout time.Duration, logger zerolog.Logger) *IngestionService {
	if writeTimeout <= 0 {
		writeTimeout = constants.DefaultWriteTimeout
	}
	return &IngestionService{
		gateway:      gateway,
		flags:        flags,
		notifier:     n,
		pool:         pool,
		writeTimeout: writeTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock replaces the clock used to timestamp records.
func (s *IngestionService) WithClock(now func() time.Time) *IngestionService {
	s.now = now
	return s
}

// Ingest validates report, persists one record per identified device and returns them.
// The derived computation is triggered in the background once every append succeeded.
func (s *IngestionService) Ingest(ctx context.Context, report models.LocationReport) ([]models.LocationTimestamp, error) {
	logger := s.logger.With().Str("request_id", uuid.NewString()).Logger()

	base, err := validateReport(report)
	if err != nil {
		logger.Debug().Err(err).Msg("Rejected location report")
		return nil, err
	}

	location, multiplier, err := s.resolveBase(ctx, base)
	if err != nil {
		logger.Warn().Err(err).Str("path", base.path()).Msg("Failed to resolve base location")
		return nil, err
	}
	logger.Debug().
		Str("path", base.path()).
		Float64("latitude", location.Latitude).
		Float64("longitude", location.Longitude).
		Float64("accuracy", location.Accuracy).
		Float64("multiplier", multiplier).
		Msg("Resolved base location")

	records := BuildRecords(location, s.now().UnixMilli(), report.Devices, multiplier)

	if err := s.persist(ctx, records); err != nil {
		logger.Error().Err(err).Int("records", len(records)).Msg("Failed to persist location records")
		return nil, err
	}

	s.trigger(logger, records)

	logger.Info().
		Str("path", base.path()).
		Int("devices", len(report.Devices)).
		Int("records", len(records)).
		Msg("Location report ingested")
	return records, nil
}

func (s *IngestionService) resolveBase(ctx context.Context, base reportBase) (models.Location, float64, error) {
	switch b := base.(type) {
	case flagBase:
		rctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()

		flag, err := s.flags.Resolve(rctx, b.name)
		if err != nil {
			return models.Location{}, 0, err
		}
		location, multiplier := flagBaseLocation(flag)
		return location, multiplier, nil
	case directBase:
		return b.location, constants.DefaultDirectMultiplier, nil
	default:
		return models.Location{}, 0, ErrInvalidLocation
	}
}

// persist appends every record concurrently. The first failure cancels the
// remaining appends; appends that already landed stay.
func (s *IngestionService) persist(ctx context.Context, records []models.LocationTimestamp) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, record := range records {
		g.Go(func() error {
			key := constants.DeviceKeyPrefix + record.ID
			payload, err := json.Marshal(record)
			if err != nil {
				return persistenceError("encode", key, err)
			}

			wctx, cancel := context.WithTimeout(gctx, s.writeTimeout)
			defer cancel()
			if err := s.gateway.AppendHistory(wctx, key, payload); err != nil {
				return persistenceError("append", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *IngestionService) trigger(logger zerolog.Logger, records []models.LocationTimestamp) {
	err := s.pool.Submit(func() {
		s.notifier.Notify(records)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Derived computation not triggered")
	}
}
