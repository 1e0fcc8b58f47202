// Package notifier delivers freshly persisted location records to the
// downstream derived-location computation.
//
// Notify has no return value: a notifier logs its own failures and the
// ingestion path never observes them.
package notifier

import (
	"github.com/benmeehan/locator/internal/models"
	"github.com/rs/zerolog"
)

// Notifier hands a batch of records to the derived-computation collaborator.
type Notifier interface {
	Notify(records []models.LocationTimestamp)
}

// LogNotifier only logs the batch. It is the default when no transport is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the device ids of the batch.
func (l *LogNotifier) Notify(records []models.LocationTimestamp) {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	l.logger.Info().Strs("devices", ids).Int("records", len(records)).Msg("Derived computation triggered")
}
