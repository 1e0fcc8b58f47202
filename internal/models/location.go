package models

// Location represents a resolved geographical position with its accuracy radius in meters.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// ReportLocation is the caller-supplied base location of a report.
// Pointers distinguish a missing coordinate from a zero coordinate.
type ReportLocation struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// DeviceDistance is one device's distance offset from the report's base location.
type DeviceDistance struct {
	ID       string  `json:"id,omitempty"`
	Distance float64 `json:"distance"`
}

// LocationReport is an inbound multi-device report.
//
// The base is taken from Flag when set, otherwise from Location, otherwise
// from a raw NMEA GGA sentence. A nil Devices slice means the field was absent.
type LocationReport struct {
	Location      *ReportLocation  `json:"location,omitempty"`
	Devices       []DeviceDistance `json:"devices"`
	Flag          string           `json:"flag,omitempty"`
	NMEA          string           `json:"nmea,omitempty"`
	SchemaVersion string           `json:"schema_version,omitempty"`
}

// FlagLocation is a named, pre-stored override location.
type FlagLocation struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Accuracy   *float64 `json:"accuracy,omitempty"`
	Multiplier *float64 `json:"multiplier,omitempty"`
}

// LocationTimestamp is one persisted, immutable location record for a device.
type LocationTimestamp struct {
	ID        string   `json:"id"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds
	Location  Location `json:"location"`
}
