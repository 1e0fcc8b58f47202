package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/adrianmo/go-nmea"
	"github.com/benmeehan/locator/internal/constants"
	"github.com/benmeehan/locator/internal/models"
)

// reportBase is the validated base of a report: exactly one of directBase or flagBase.
type reportBase interface {
	path() string
}

// directBase carries a caller-supplied location with its accuracy default already applied.
type directBase struct {
	location models.Location
	source   string
}

func (d directBase) path() string { return d.source }

// flagBase names a stored flag to resolve.
type flagBase struct {
	name string
}

func (flagBase) path() string { return constants.PathFlag }

// validateReport checks the report shape without any I/O and selects its base.
// A flag takes precedence over a location, and a location over an NMEA sentence.
func validateReport(report models.LocationReport) (reportBase, error) {
	base, err := selectBase(report)
	if err != nil {
		return nil, err
	}
	if report.Devices == nil {
		return nil, ErrInvalidDevices
	}
	for _, device := range report.Devices {
		if device.ID != "" && !finite(device.Distance) {
			return nil, fmt.Errorf("%w: device %s", ErrInvalidDistance, device.ID)
		}
	}
	return base, nil
}

// finite rejects values JSON cannot encode, so every built record stays persistable.
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func selectBase(report models.LocationReport) (reportBase, error) {
	if flag := strings.TrimSpace(report.Flag); flag != "" {
		return flagBase{name: flag}, nil
	}

	if loc := report.Location; loc != nil && loc.Latitude != nil && loc.Longitude != nil {
		accuracy := constants.DefaultBaseAccuracy
		if loc.Accuracy != nil {
			accuracy = *loc.Accuracy
		}
		if !finite(*loc.Latitude, *loc.Longitude, accuracy) {
			return nil, fmt.Errorf("%w: coordinates and accuracy must be finite numbers", ErrInvalidLocation)
		}
		return directBase{
			location: models.Location{Latitude: *loc.Latitude, Longitude: *loc.Longitude, Accuracy: accuracy},
			source:   constants.PathDirect,
		}, nil
	}

	if report.NMEA != "" {
		location, err := parseNMEALocation(report.NMEA)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
		}
		return directBase{location: location, source: constants.PathNMEA}, nil
	}

	return nil, ErrInvalidLocation
}

// parseNMEALocation reads a GGA sentence, using HDOP as a proxy for accuracy.
func parseNMEALocation(sentence string) (models.Location, error) {
	s, err := nmea.Parse(strings.TrimSpace(sentence))
	if err != nil {
		return models.Location{}, fmt.Errorf("nmea: %w", err)
	}

	gga, ok := s.(nmea.GGA)
	if !ok {
		return models.Location{}, fmt.Errorf("nmea: unsupported sentence type %s", s.DataType())
	}
	if gga.FixQuality == nmea.Invalid {
		return models.Location{}, errors.New("nmea: no position fix")
	}

	return models.Location{
		Latitude:  gga.Latitude,
		Longitude: gga.Longitude,
		Accuracy:  gga.HDOP,
	}, nil
}

// flagBaseLocation applies the accuracy and multiplier defaults to a stored flag.
func flagBaseLocation(flag models.FlagLocation) (models.Location, float64) {
	accuracy := constants.DefaultBaseAccuracy
	if flag.Accuracy != nil {
		accuracy = *flag.Accuracy
	}
	multiplier := constants.DefaultDirectMultiplier
	if flag.Multiplier != nil {
		multiplier = *flag.Multiplier
	}
	return models.Location{Latitude: flag.Latitude, Longitude: flag.Longitude, Accuracy: accuracy}, multiplier
}
