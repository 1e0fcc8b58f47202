package services_test

import (
	"testing"
	"time"

	"github.com/benmeehan/locator/internal/mocks"
	"github.com/benmeehan/locator/internal/models"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

// waitForBatch waits for the next Notify call and returns its batch.
func waitForBatch(t *testing.T, n *mocks.RecordingNotifier) []models.LocationTimestamp {
	t.Helper()
	select {
	case <-n.Calls():
	case <-time.After(2 * time.Second):
		require.FailNow(t, "derived computation was not triggered")
	}
	batches := n.Batches()
	return batches[len(batches)-1]
}
