package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/benmeehan/locator/internal/mocks"
	"github.com/benmeehan/locator/internal/models"
	"github.com/benmeehan/locator/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeIngester struct {
	mu      sync.Mutex
	reports []models.LocationReport
	err     error
}

func (f *fakeIngester) Ingest(_ context.Context, report models.LocationReport) ([]models.LocationTimestamp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return nil, f.err
}

func (f *fakeIngester) received() []models.LocationReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LocationReport(nil), f.reports...)
}

func newStartedIngest(t *testing.T, constraint string, ingester services.Ingester) (*services.MQTTIngestService, *mocks.MockMQTTClient) {
	t.Helper()
	client := new(mocks.MockMQTTClient)
	client.On("Subscribe", "locator/reports", byte(1), mock.Anything).Return(mocks.NewDoneToken(nil))
	client.On("Unsubscribe", []string{"locator/reports"}).Return(mocks.NewDoneToken(nil)).Maybe()

	svc, err := services.NewMQTTIngestService("locator/reports", 1, constraint, client, ingester, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	return svc, client
}

// TestMQTTIngestService_StartStop tests the subscription lifecycle.
func TestMQTTIngestService_StartStop(t *testing.T) {
	// Setup
	svc, client := newStartedIngest(t, "", &fakeIngester{})

	// Try to start again (should fail)
	err := svc.Start()
	assert.Error(t, err)
	assert.Equal(t, "mqtt ingest service is already running", err.Error())

	// Execute
	require.NoError(t, svc.Stop())

	// Assert
	err = svc.Stop()
	assert.Error(t, err)
	assert.Equal(t, "mqtt ingest service is not running", err.Error())
	client.AssertExpectations(t)
}

// TestMQTTIngestService_Start_SubscribeError tests that a failed subscription fails Start.
func TestMQTTIngestService_Start_SubscribeError(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	client.On("Subscribe", "locator/reports", byte(0), mock.Anything).Return(mocks.NewDoneToken(errors.New("not authorized")))

	svc, err := services.NewMQTTIngestService("locator/reports", 0, "", client, &fakeIngester{}, zerolog.Nop())
	require.NoError(t, err)

	err = svc.Start()

	assert.EqualError(t, err, "not authorized")
	assert.Error(t, svc.Stop())
}

// TestMQTTIngestService_HandleReport tests decoding and forwarding of a report.
func TestMQTTIngestService_HandleReport(t *testing.T) {
	// Setup
	ingester := &fakeIngester{}
	svc, _ := newStartedIngest(t, "^1.0", ingester)
	defer svc.Stop()

	payload := []byte(`{"schema_version":"1.2.0","flag":"zoneA","devices":[{"id":"d1","distance":2}]}`)

	// Execute
	svc.HandleReport(nil, mocks.NewMockMessage("locator/reports", payload))

	// Assert
	reports := ingester.received()
	require.Len(t, reports, 1)
	assert.Equal(t, "zoneA", reports[0].Flag)
	assert.Equal(t, []models.DeviceDistance{{ID: "d1", Distance: 2}}, reports[0].Devices)
}

// TestMQTTIngestService_HandleReport_Dropped tests the messages that never reach the ingester.
func TestMQTTIngestService_HandleReport_Dropped(t *testing.T) {
	cases := map[string]string{
		"malformed json":      `{"devices":`,
		"unsupported version": `{"schema_version":"2.0.0","flag":"a","devices":[]}`,
		"invalid version":     `{"schema_version":"latest","flag":"a","devices":[]}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			ingester := &fakeIngester{}
			svc, _ := newStartedIngest(t, "^1.0", ingester)
			defer svc.Stop()

			svc.HandleReport(nil, mocks.NewMockMessage("locator/reports", []byte(payload)))

			assert.Empty(t, ingester.received())
		})
	}
}

// TestMQTTIngestService_HandleReport_NoVersion tests that reports without schema_version are accepted.
func TestMQTTIngestService_HandleReport_NoVersion(t *testing.T) {
	ingester := &fakeIngester{err: services.ErrInvalidLocation}
	svc, _ := newStartedIngest(t, "^1.0", ingester)
	defer svc.Stop()

	svc.HandleReport(nil, mocks.NewMockMessage("locator/reports", []byte(`{"devices":[]}`)))

	assert.Len(t, ingester.received(), 1)
}

// TestMQTTIngestService_HandleReport_Stopped tests that messages after Stop are ignored.
func TestMQTTIngestService_HandleReport_Stopped(t *testing.T) {
	ingester := &fakeIngester{}
	svc, _ := newStartedIngest(t, "", ingester)
	require.NoError(t, svc.Stop())

	svc.HandleReport(nil, mocks.NewMockMessage("locator/reports", []byte(`{"flag":"a","devices":[]}`)))

	assert.Empty(t, ingester.received())
}

// TestNewMQTTIngestService_InvalidConstraint tests constructor validation of accepted versions.
func TestNewMQTTIngestService_InvalidConstraint(t *testing.T) {
	_, err := services.NewMQTTIngestService("t", 0, "not a constraint", new(mocks.MockMQTTClient), &fakeIngester{}, zerolog.Nop())
	assert.Error(t, err)
}
