package domain

import "fmt"

// Solar capacity factor bounds by Pacific hour of day.
const (
	NightMaxCapacityFactor = 0.01
	nightStartHour         = 21 // 21:00 through 04:59
	nightEndHour           = 4
	middayStartHour        = 10 // 10:00 through 14:59
	middayEndHour          = 14
)

// HourlyCapacityFactor is the average capacity factor of a set of plants at
// one hour of day in Pacific time.
type HourlyCapacityFactor struct {
	PacificHour int
	Average     float64
	Samples     int64
}

// SolarViolation is an hour whose average breaks the day/night bounds.
type SolarViolation struct {
	HourlyCapacityFactor
	Reason string
}

func (v SolarViolation) String() string {
	return fmt.Sprintf("hour %02d: average %.4f over %d samples: %s", v.PacificHour, v.Average, v.Samples, v.Reason)
}

// IsNightHour reports whether a Pacific hour is dark year round.
func IsNightHour(h int) bool { return h >= nightStartHour || h <= nightEndHour }

// IsMiddayHour reports whether a Pacific hour is light year round.
func IsMiddayHour(h int) bool { return h >= middayStartHour && h <= middayEndHour }

// CheckSolarProfile returns the hours where PV output is implausible: above
// NightMaxCapacityFactor at night or zero at midday. A midday hour with no
// samples at all is also reported, since it means the profile is missing.
func CheckSolarProfile(hours []HourlyCapacityFactor) []SolarViolation {
	var out []SolarViolation
	seen := make(map[int]bool, len(hours))
	for _, h := range hours {
		seen[h.PacificHour] = true
		switch {
		case IsNightHour(h.PacificHour) && h.Average > NightMaxCapacityFactor:
			out = append(out, SolarViolation{h, fmt.Sprintf("night average exceeds %.2f", NightMaxCapacityFactor)})
		case IsMiddayHour(h.PacificHour) && h.Average <= 0:
			out = append(out, SolarViolation{h, "no output at midday"})
		}
	}
	if len(hours) == 0 {
		return out
	}
	for hour := middayStartHour; hour <= middayEndHour; hour++ {
		if !seen[hour] {
			out = append(out, SolarViolation{HourlyCapacityFactor{PacificHour: hour}, "no samples at midday"})
		}
	}
	return out
}
