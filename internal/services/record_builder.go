package services

import (
	"github.com/benmeehan/locator/internal/models"
)

// BuildRecords assembles one LocationTimestamp per device that has an id. Devices
// without an id are skipped. Every record shares base's coordinates and timestamp;
// only the accuracy differs.
func BuildRecords(base models.Location, timestamp int64, devices []models.DeviceDistance, multiplier float64) []models.LocationTimestamp {
	records := make([]models.LocationTimestamp, 0, len(devices))
	for _, device := range devices {
		if device.ID == "" {
			continue
		}
		records = append(records, models.LocationTimestamp{
			ID:        device.ID,
			Timestamp: timestamp,
			Location: models.Location{
				Latitude:  base.Latitude,
				Longitude: base.Longitude,
				Accuracy:  ComputeAccuracy(base.Accuracy, device.Distance, multiplier),
			},
		})
	}
	return records
}
