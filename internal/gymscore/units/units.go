package units

import (
	"fmt"
	"math"
	"strings"
)

type Unit string

const (
	Kilograms Unit = "kg"
	Pounds    Unit = "lbs"
)

const (
	KgToLbs = 2.20462
	LbsToKg = 0.453592

	MaxKilograms = 500.0
	MaxPounds    = 660.0
)

func (u Unit) String() string {
	return string(u)
}

func (u Unit) IsValid() bool {
	switch u {
	case Kilograms, Pounds:
		return true
	default:
		return false
	}
}

// Max returns the entry cap for the unit.
func (u Unit) Max() float64 {
	if u == Pounds {
		return MaxPounds
	}
	return MaxKilograms
}

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "kg", "kgs", "kilograms":
		return Kilograms, nil
	case "lb", "lbs", "pounds":
		return Pounds, nil
	default:
		return "", fmt.Errorf("unknown unit: %s", s)
	}
}

// Clamp bounds a raw entry to [0, cap] in its own unit (500 kg / 660 lbs).
// It is the entry guard and has to run before any conversion or scoring.
// NaN is treated as 0.
func Clamp(value float64, unit Unit) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if limit := unit.Max(); value > limit {
		return limit
	}
	return value
}

// Normalize applies the entry guard and converts to kilograms.
func Normalize(value float64, unit Unit) float64 {
	return ToKilograms(Clamp(value, unit), unit)
}

// massCap is MaxKilograms expressed in the given unit.
func massCap(unit Unit) float64 {
	if unit == Pounds {
		return MaxKilograms * KgToLbs
	}
	return MaxKilograms
}

func bound(value float64, unit Unit) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if limit := massCap(unit); value > limit {
		return limit
	}
	return value
}

// ToKilograms converts to kilograms. Inputs above 500 kg worth of mass are
// bounded to it, so converted values survive a round trip.
func ToKilograms(value float64, unit Unit) float64 {
	value = bound(value, unit)
	if unit == Pounds {
		return math.Min(value*LbsToKg, MaxKilograms)
	}
	return value
}

// ToPounds converts to pounds, bounded the same way as ToKilograms.
func ToPounds(value float64, unit Unit) float64 {
	value = bound(value, unit)
	if unit == Pounds {
		return value
	}
	return value * KgToLbs
}

// DisplayPounds is for presentation only; scoring always stays in kilograms.
func DisplayPounds(kg float64) int {
	return int(math.Round(ToPounds(kg, Kilograms)))
}
