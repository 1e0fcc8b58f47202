package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the ingestion and query services. Callers classify
// failures with errors.Is against the top-level sentinels.
var (
	// ErrInvalidInput reports a malformed or incomplete request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound reports a missing flag, device history or trackee.
	ErrNotFound = errors.New("not found")
	// ErrPersistence reports a persistence gateway failure.
	ErrPersistence = errors.New("persistence error")

	// ErrInvalidLocation means the report has neither a usable location nor a flag.
	ErrInvalidLocation = fmt.Errorf("%w: location with latitude and longitude, or flag, is required", ErrInvalidInput)
	// ErrInvalidDevices means the report's devices field is missing.
	ErrInvalidDevices = fmt.Errorf("%w: devices must be an array", ErrInvalidInput)
	// ErrInvalidDistance means a device distance is NaN or infinite.
	ErrInvalidDistance = fmt.Errorf("%w: device distance must be a finite number", ErrInvalidInput)
	// ErrFlagNotFound means the report names a flag that is not stored.
	ErrFlagNotFound = fmt.Errorf("flag %w", ErrNotFound)
)

func persistenceError(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrPersistence, op, key, err)
}
