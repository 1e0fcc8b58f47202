package mocks

import (
	"sync"

	"github.com/benmeehan/locator/internal/models"
)

// RecordingNotifier captures every batch it is notified with.
type RecordingNotifier struct {
	mu      sync.Mutex
	batches [][]models.LocationTimestamp
	calls   chan struct{}
}

// NewRecordingNotifier creates a RecordingNotifier.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{calls: make(chan struct{}, 128)}
}

func (r *RecordingNotifier) Notify(records []models.LocationTimestamp) {
	r.mu.Lock()
	r.batches = append(r.batches, records)
	r.mu.Unlock()
	r.calls <- struct{}{}
}

// Calls is signalled once per Notify.
func (r *RecordingNotifier) Calls() <-chan struct{} {
	return r.calls
}

// Batches returns the batches received so far.
func (r *RecordingNotifier) Batches() [][]models.LocationTimestamp {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]models.LocationTimestamp, len(r.batches))
	copy(out, r.batches)
	return out
}
