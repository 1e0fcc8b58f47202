package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/benmeehan/locator/internal/constants"
	"github.com/benmeehan/locator/internal/models"
	"github.com/benmeehan/locator/pkg/store"
	"github.com/rs/zerolog"
)

// QueryService answers device history and trackee lookups against the persistence gateway.
type QueryService struct {
	gateway store.Gateway
	logger  zerolog.Logger
}

// NewQueryService creates a new QueryService.
func NewQueryService(gateway store.Gateway, logger zerolog.Logger) *QueryService {
	return &QueryService{gateway: gateway, logger: logger}
}

// GetLastLocations returns the n most recent records of deviceID, newest first.
// n <= 0 means 1.
func (q *QueryService) GetLastLocations(ctx context.Context, deviceID string, n int) ([]models.LocationTimestamp, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device id is required", ErrInvalidInput)
	}
	if n <= 0 {
		n = constants.DefaultLastLocations
	}

	key := constants.DeviceKeyPrefix + deviceID
	raw, err := q.gateway.ReadHistory(ctx, key, n)
	if err != nil {
		return nil, persistenceError("read history", key, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}

	records := make([]models.LocationTimestamp, 0, len(raw))
	for _, doc := range raw {
		var record models.LocationTimestamp
		if err := json.Unmarshal(doc, &record); err != nil {
			q.logger.Warn().Err(err).Str("device_id", deviceID).Msg("Skipping undecodable history record")
			continue
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}

	// Only the fetched window is ordered; history itself stays in append order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
	if len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// GetTrackees returns every stored trackee.
func (q *QueryService) GetTrackees(ctx context.Context) ([]models.Trackee, error) {
	raw, err := q.gateway.List(ctx, constants.TrackeeKeyPrefix)
	if err != nil {
		return nil, persistenceError("list", constants.TrackeeKeyPrefix, err)
	}

	trackees := make([]models.Trackee, 0, len(raw))
	for _, doc := range raw {
		var trackee models.Trackee
		if err := json.Unmarshal(doc, &trackee); err != nil {
			q.logger.Warn().Err(err).Msg("Skipping undecodable trackee")
			continue
		}
		trackees = append(trackees, trackee)
	}
	return trackees, nil
}

// GetTrackeeByID returns the trackee stored under id.
func (q *QueryService) GetTrackeeByID(ctx context.Context, id string) (models.Trackee, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: trackee id is required", ErrInvalidInput)
	}

	key := constants.TrackeeKeyPrefix + id
	doc, err := q.gateway.Read(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("trackee %s: %w", id, ErrNotFound)
		}
		return nil, persistenceError("read", key, err)
	}

	var trackee models.Trackee
	if err := json.Unmarshal(doc, &trackee); err != nil {
		return nil, persistenceError("decode", key, err)
	}
	return trackee, nil
}

// UpdateTrackee upserts trackee under its own id field.
func (q *QueryService) UpdateTrackee(ctx context.Context, trackee models.Trackee) error {
	id := trackee.ID()
	if id == "" {
		return fmt.Errorf("%w: trackee id is required", ErrInvalidInput)
	}

	payload, err := json.Marshal(trackee)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	key := constants.TrackeeKeyPrefix + id
	if err := q.gateway.Write(ctx, key, payload); err != nil {
		return persistenceError("write", key, err)
	}
	q.logger.Debug().Str("trackee_id", id).Msg("Trackee updated")
	return nil
}

// Get reads a diagnostic value. Only used to verify store connectivity.
func (q *QueryService) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidInput)
	}
	full := constants.DiagnosticKeyPrefix + key
	doc, err := q.gateway.Read(ctx, full)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("key %s: %w", key, ErrNotFound)
		}
		return nil, persistenceError("read", full, err)
	}
	return json.RawMessage(doc), nil
}

// Set writes a diagnostic value. value must be valid JSON.
func (q *QueryService) Set(ctx context.Context, key string, value json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidInput)
	}
	if !json.Valid(value) {
		return fmt.Errorf("%w: value must be valid JSON", ErrInvalidInput)
	}
	full := constants.DiagnosticKeyPrefix + key
	if err := q.gateway.Write(ctx, full, value); err != nil {
		return persistenceError("write", full, err)
	}
	return nil
}

// Ping checks that the persistence gateway is reachable.
func (q *QueryService) Ping(ctx context.Context) error {
	if err := q.gateway.Ping(ctx); err != nil {
		return persistenceError("ping", "", err)
	}
	return nil
}
