package services

import (
	"fmt"
	"math"
)

const metersPerMile = 1609.34

// formatPace renders seconds-per-unit as "M:SS".
func formatPace(seconds float64) string {
	if seconds <= 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// speedToPace converts meters per second to a "M:SS" per-km pace string.
func speedToPace(mps float64) string {
	if mps <= 0 {
		return "0:00"
	}
	return formatPace(1000 / mps)
}
