package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
	"github.com/stridelab/stridecoach/pkg/openmeteo"
)

// Running comfort thresholds in Celsius and percent relative humidity.
const (
	idealTempLow   = 10.0
	idealTempHigh  = 20.0
	heatStressTemp = 25.0
	highHumidity   = 70.0
)

// WeatherProvider fetches archived conditions for one location and hour.
type WeatherProvider interface {
	HistoricalHour(ctx context.Context, latitude, longitude float64, at time.Time) (*openmeteo.Observation, error)
}

// WeatherService correlates training history with the conditions each
// run happened in.
type WeatherService struct {
	provider   WeatherProvider
	maxLookups int
	logger     *logrus.Logger
}

// NewWeatherService creates a weather impact analyzer. maxLookups caps
// the number of archive API calls per analysis.
func NewWeatherService(provider WeatherProvider, maxLookups int, logger *logrus.Logger) *WeatherService {
	if maxLookups <= 0 {
		maxLookups = 30
	}
	return &WeatherService{provider: provider, maxLookups: maxLookups, logger: logger}
}

// Analyze fetches per-run weather and aggregates heat exposure,
// acclimation, and pace impact. Provider failures degrade to the
// fallback built from whatever conditions the activities embed.
func (s *WeatherService) Analyze(ctx context.Context, activities []models.ActivitySample) models.WeatherImpact {
	observations := s.collectObservations(ctx, activities)
	if len(observations) == 0 {
		return s.fallbackImpact(activities)
	}

	var tempSum, humiditySum float64
	heatStressRuns := 0
	idealRuns := 0
	for _, obs := range observations {
		tempSum += obs.TemperatureC
		humiditySum += obs.HumidityPct
		if obs.TemperatureC > heatStressTemp || obs.HumidityPct > highHumidity {
			heatStressRuns++
		}
		if obs.TemperatureC >= idealTempLow && obs.TemperatureC <= idealTempHigh {
			idealRuns++
		}
	}

	avgTemp := tempSum / float64(len(observations))
	avgHumidity := humiditySum / float64(len(observations))
	heatIndexC := heatIndex(avgTemp, avgHumidity)

	impact := models.WeatherImpact{
		AvgTempC:                  math.Round(avgTemp*10) / 10,
		AvgHumidityPct:            math.Round(avgHumidity*10) / 10,
		HeatStressRuns:            heatStressRuns,
		IdealConditionRuns:        idealRuns,
		SamplesAnalyzed:           len(observations),
		PaceDegradationSecPerMile: paceDegradation(avgTemp, avgHumidity, heatIndexC),
		HeatAcclimation:           heatAcclimation(heatStressRuns, len(observations)),
		ImpactLevel:               impactLevel(heatStressRuns, len(observations), avgTemp),
		OptimalTrainingTimes:      optimalTrainingTimes(avgTemp),
	}

	s.logger.WithFields(logrus.Fields{
		"samples":  impact.SamplesAnalyzed,
		"avg_temp": impact.AvgTempC,
		"impact":   impact.ImpactLevel,
	}).Info("Weather impact analysis complete")

	return impact
}

// collectObservations looks up archived weather for located activities,
// most recent first, skipping lookups that fail.
func (s *WeatherService) collectObservations(ctx context.Context, activities []models.ActivitySample) []openmeteo.Observation {
	var observations []openmeteo.Observation
	for _, a := range activities {
		if len(observations) >= s.maxLookups {
			break
		}
		if !a.HasLocation() {
			continue
		}
		lat, _ := a.StartLatitude.Float64()
		lon, _ := a.StartLongitude.Float64()

		obs, err := s.provider.HistoricalHour(ctx, lat, lon, a.ActivityDate)
		if err != nil {
			s.logger.WithError(err).WithField("activity_id", a.ID).
				Warn("Failed to fetch historical weather")
			continue
		}
		observations = append(observations, *obs)
	}
	return observations
}

// heatIndex computes the feels-like temperature in Celsius using the
// Rothfusz regression, which only applies above 80F.
func heatIndex(tempC, humidity float64) float64 {
	tempF := tempC*9/5 + 32
	if tempF < 80 {
		return tempC
	}

	hi := -42.379 + 2.04901523*tempF + 10.14333127*humidity
	hi -= 0.22475541 * tempF * humidity
	hi -= 0.00683783 * tempF * tempF
	hi -= 0.05481717 * humidity * humidity
	hi += 0.00122874 * tempF * tempF * humidity
	hi += 0.00085282 * tempF * humidity * humidity
	hi -= 0.00000199 * tempF * tempF * humidity * humidity

	return (hi - 32) * 5 / 9
}

// paceDegradation estimates seconds per mile lost to heat and humidity.
func paceDegradation(tempC, humidity, heatIndexC float64) float64 {
	degradation := 0.0
	if tempC > heatStressTemp {
		degradation += (tempC - heatStressTemp) * 4
	}
	if humidity > highHumidity {
		degradation += (humidity - highHumidity) * 0.5
	}
	if heatIndexC > 30 {
		degradation += (heatIndexC - 30) * 2
	}
	return math.Round(degradation*10) / 10
}

func impactLevel(heatStressRuns, totalRuns int, avgTemp float64) models.WeatherImpactLevel {
	if totalRuns == 0 {
		return models.ImpactMinimal
	}
	heatRatio := float64(heatStressRuns) / float64(totalRuns)
	switch {
	case heatRatio > 0.5 || avgTemp > 28:
		return models.ImpactSevere
	case heatRatio > 0.3 || avgTemp > 25:
		return models.ImpactSignificant
	case heatRatio > 0.15 || avgTemp > 22:
		return models.ImpactModerate
	default:
		return models.ImpactMinimal
	}
}

func heatAcclimation(heatStressRuns, totalRuns int) models.HeatAcclimation {
	if totalRuns == 0 {
		return models.AcclimationNone
	}
	heatRatio := float64(heatStressRuns) / float64(totalRuns)
	switch {
	case heatRatio > 0.4 && heatStressRuns >= 8:
		return models.AcclimationWellAcclimated
	case heatRatio > 0.15 && heatStressRuns >= 4:
		return models.AcclimationDeveloping
	default:
		return models.AcclimationNone
	}
}

func optimalTrainingTimes(avgTemp float64) []string {
	switch {
	case avgTemp > 25:
		return []string{"5:00-7:00 AM (coolest)", "8:00-10:00 PM (evening cool-down)"}
	case avgTemp > 20:
		return []string{"6:00-8:00 AM (mild)", "7:00-9:00 PM (comfortable)"}
	default:
		return []string{"10:00 AM-4:00 PM (warmest)", "Any time (good conditions)"}
	}
}

// fallbackImpact is used when no archived weather could be fetched. It
// falls back to conditions recorded on the activities themselves, then
// to temperate defaults.
func (s *WeatherService) fallbackImpact(activities []models.ActivitySample) models.WeatherImpact {
	s.logger.Warn("No weather observations available, using fallback impact")

	avgTemp := 15.0
	avgHumidity := 60.0

	var tempSum, humiditySum float64
	var tempN, humidityN int
	for _, a := range activities {
		if a.AvgTemperatureC != nil {
			t, _ := a.AvgTemperatureC.Float64()
			tempSum += t
			tempN++
		}
		if a.HumidityPct != nil {
			h, _ := a.HumidityPct.Float64()
			humiditySum += h
			humidityN++
		}
	}
	if tempN > 0 {
		avgTemp = tempSum / float64(tempN)
	}
	if humidityN > 0 {
		avgHumidity = humiditySum / float64(humidityN)
	}

	return models.WeatherImpact{
		AvgTempC:             math.Round(avgTemp*10) / 10,
		AvgHumidityPct:       math.Round(avgHumidity*10) / 10,
		ImpactLevel:          models.ImpactMinimal,
		HeatAcclimation:      models.AcclimationNone,
		OptimalTrainingTimes: []string{"6:00-8:00 AM", "7:00-9:00 PM"},
	}
}
