package services

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
)

// paceZone defines one training pace derived from VO2 max.
type paceZone struct {
	name        string
	intensity   float64
	hrZone      string
	description string
}

// Intensity fractions follow the Daniels training zones.
var paceZones = []paceZone{
	{"easy", 0.70, "Zone 2 (65-75% max HR)", "Conversational aerobic running; the bulk of weekly volume"},
	{"marathon", 0.84, "Zone 3 (75-82% max HR)", "Steady effort sustainable for the full marathon"},
	{"threshold", 0.88, "Zone 4 (82-89% max HR)", "Comfortably hard tempo effort, 20-40 minute blocks"},
	{"interval", 0.98, "Zone 5 (89-95% max HR)", "3-5 minute repeats at close to vVO2 max"},
}

// PaceService derives training pace targets from the aerobic profile
// and adjusts them for the conditions the athlete actually trains in.
type PaceService struct {
	logger *logrus.Logger
}

// NewPaceService creates a new pace guidance builder.
func NewPaceService(logger *logrus.Logger) *PaceService {
	return &PaceService{logger: logger}
}

// Guide computes the zone targets from the VO2 max estimate. The heat
// adjusted column adds the weather pace degradation, converted from the
// per-mile estimate.
func (s *PaceService) Guide(vo2 models.VO2MaxEstimate, weather models.WeatherImpact, load models.TrainingLoadMetrics) models.PaceGuidance {
	adjustPerKm := weather.PaceDegradationSecPerMile / (metersPerMile / 1000)

	targets := make([]models.PaceTarget, 0, len(paceZones))
	for _, zone := range paceZones {
		secPerKm := paceAtIntensity(vo2.Value, zone.intensity)
		if secPerKm <= 0 {
			continue
		}

		description := zone.description
		if zone.name != "easy" && loadDiscouragesIntensity(load) {
			description += "; hold off until recovery improves"
		}

		targets = append(targets, models.PaceTarget{
			Name:          zone.name,
			PacePerKm:     formatPace(secPerKm),
			HeatAdjusted:  formatPace(secPerKm + adjustPerKm),
			HeartRateZone: zone.hrZone,
			Description:   description,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"targets":           len(targets),
		"heat_adjust_ppmile": weather.PaceDegradationSecPerMile,
	}).Info("Pace guidance built")

	return models.PaceGuidance{
		Targets:            targets,
		WeatherAdjustedSec: weather.PaceDegradationSecPerMile,
	}
}

// paceAtIntensity inverts the Daniels oxygen-cost quadratic at a
// fraction of VO2 max and returns seconds per km.
func paceAtIntensity(vo2max, intensity float64) float64 {
	if vo2max <= 0 {
		return 0
	}
	vo2AtPace := vo2max * intensity

	const (
		a = 0.000104
		b = 0.182258
	)
	c := -4.60 - vo2AtPace

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0
	}
	velocity := (-b + math.Sqrt(discriminant)) / (2 * a) // meters per minute
	if velocity <= 0 {
		return 0
	}
	return 1000 / velocity * 60
}

// loadDiscouragesIntensity reports whether the current recovery state
// argues against hard sessions.
func loadDiscouragesIntensity(load models.TrainingLoadMetrics) bool {
	return load.RecoveryStatus == models.RecoveryOvertrained ||
		load.RecoveryStatus == models.RecoveryOverreaching
}
