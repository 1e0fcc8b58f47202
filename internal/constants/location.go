package constants

const (
	// DefaultBaseAccuracy is used when a base location carries no accuracy value (meters).
	DefaultBaseAccuracy = 20.0

	// DefaultDirectMultiplier scales device distances on the direct (non-flag) path.
	DefaultDirectMultiplier = 1.0

	// DefaultLastLocations is the number of records returned when the caller does not ask for a count.
	DefaultLastLocations = 1
)

// Persistence key prefixes
const (
	// FlagKeyPrefix namespaces stored flag locations.
	FlagKeyPrefix = "flag:"
	// DeviceKeyPrefix namespaces per-device location history.
	DeviceKeyPrefix = "device:"
	// TrackeeKeyPrefix namespaces trackee documents.
	TrackeeKeyPrefix = "trackee:"
	// DiagnosticKeyPrefix namespaces connectivity check documents.
	DiagnosticKeyPrefix = "diag:"
)

// Base resolution paths, used in logs and responses
const (
	PathDirect = "direct"
	PathFlag   = "flag"
	PathNMEA   = "nmea"
)
