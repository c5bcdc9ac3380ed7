package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownCarrier is returned when a logistics name has no registered speed.
var ErrUnknownCarrier = errors.New("unknown carrier")

// Carrier speed coefficients. Values are in (0,1]; lower values stretch the
// provider's time estimate, modeling slower carriers.
var carrierSpeeds = map[string]float64{
	"SF_EXPRESS": 1.0,
	"EMS":        0.7,
	"ZTO":        0.8,
	"YTO":        0.75,
	"STO":        0.75,
	"YUNDA":      0.8,
	"JD":         0.9,
}

// Carriers returns the registered carrier names and their speed coefficients.
func Carriers() map[string]float64 {
	out := make(map[string]float64, len(carrierSpeeds))
	for name, speed := range carrierSpeeds {
		out[name] = speed
	}
	return out
}

// ResolveCarrierSpeed returns the speed coefficient for a carrier name.
func ResolveCarrierSpeed(name string) (float64, error) {
	speed, ok := carrierSpeeds[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCarrier, name)
	}
	return speed, nil
}
