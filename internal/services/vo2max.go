package services

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
)

// Estimation method identifiers, ordered by reliability.
const (
	methodRacePerformance = "race_performance"
	methodPowerData       = "power_data"
	methodHeartRate       = "heart_rate"
	methodDefault         = "default"
)

// Physiological bounds for a plausible running VO2 max (ml/kg/min).
const (
	vo2Floor = 20.0
	vo2Ceil  = 85.0

	// Riegel endurance fatigue exponent.
	riegelExponent = 1.06

	// Default athlete mass when the profile has none.
	defaultMassKg = 70.0
)

// raceDistance is a standard race used for effort matching and predictions.
type raceDistance struct {
	name string
	km   float64
}

// Declaration order matters: predictions are emitted shortest first.
var standardRaces = []raceDistance{
	{"5K", 5.0},
	{"10K", 10.0},
	{"Half Marathon", 21.0975},
	{"Marathon", 42.195},
}

// bestEffort is the fastest recorded activity near a standard distance.
type bestEffort struct {
	race           raceDistance
	distanceMeters float64
	elapsedSeconds int
}

// VO2MaxService estimates aerobic capacity from race efforts, running
// power, and heart rate, then projects race times from the estimate.
type VO2MaxService struct {
	logger *logrus.Logger
}

// NewVO2MaxService creates a new VO2 max estimator.
func NewVO2MaxService(logger *logrus.Logger) *VO2MaxService {
	return &VO2MaxService{logger: logger}
}

// Estimate blends the available estimation methods into a single VO2 max
// figure with race-effort estimates weighted double. With no usable
// signal it returns the recreational-runner fallback rather than an
// error.
func (s *VO2MaxService) Estimate(activities []models.ActivitySample, profile models.AthleteProfile) models.VO2MaxEstimate {
	if len(activities) == 0 {
		return s.fallbackEstimate()
	}

	efforts := s.bestEfforts(activities)

	var estimates []float64
	var methods []string

	for _, effort := range efforts {
		if vo2, ok := vo2FromRaceTime(effort.distanceMeters, effort.elapsedSeconds); ok {
			estimates = append(estimates, vo2)
			methods = append(methods, methodRacePerformance)
		}
	}

	if avgWatts, ok := averagePower(activities); ok {
		mass := defaultMassKg
		if m, _ := profile.MassKg.Float64(); m > 0 {
			mass = m
		}
		estimates = append(estimates, vo2FromPower(avgWatts/mass))
		methods = append(methods, methodPowerData)
	}

	if vo2, ok := vo2FromHeartRate(activities); ok {
		estimates = append(estimates, vo2)
		methods = append(methods, methodHeartRate)
	}

	if len(estimates) == 0 {
		return s.fallbackEstimate()
	}

	var weightedSum, weightTotal float64
	for i, v := range estimates {
		w := 1.0
		if methods[i] == methodRacePerformance {
			w = 2.0
		}
		weightedSum += v * w
		weightTotal += w
	}
	vo2max := weightedSum / weightTotal

	primaryMethod := methods[0]

	hasPower := anyPower(activities)
	hasHR := anyHeartRate(activities)

	estimate := models.VO2MaxEstimate{
		Value:           math.Round(vo2max*10) / 10,
		Method:          primaryMethod,
		FitnessLevel:    fitnessLevel(vo2max),
		VVO2MaxPace:     s.vVO2MaxPace(efforts),
		RacePredictions: s.predictRaces(efforts, vo2max),
		DataQuality:     dataQuality(primaryMethod, len(activities), hasPower, hasHR),
	}

	s.logger.WithFields(logrus.Fields{
		"athlete_id": profile.AthleteID,
		"vo2max":     estimate.Value,
		"method":     estimate.Method,
		"fitness":    estimate.FitnessLevel,
	}).Info("VO2 max estimation complete")

	return estimate
}

// bestEfforts picks the fastest activity within 10 percent of each
// standard race distance, ordered shortest race first.
func (s *VO2MaxService) bestEfforts(activities []models.ActivitySample) []bestEffort {
	best := make(map[string]bestEffort)

	for _, a := range activities {
		meters, _ := a.DistanceMeters.Float64()
		if meters <= 0 || a.ElapsedSeconds <= 0 {
			continue
		}
		for _, race := range standardRaces {
			raceMeters := race.km * 1000
			if meters < 0.9*raceMeters || meters > 1.1*raceMeters {
				continue
			}
			current, seen := best[race.name]
			if !seen || a.ElapsedSeconds < current.elapsedSeconds {
				best[race.name] = bestEffort{
					race:           race,
					distanceMeters: meters,
					elapsedSeconds: a.ElapsedSeconds,
				}
			}
		}
	}

	efforts := make([]bestEffort, 0, len(best))
	for _, e := range best {
		efforts = append(efforts, e)
	}
	sort.Slice(efforts, func(i, j int) bool {
		return efforts[i].race.km < efforts[j].race.km
	})
	return efforts
}

// vo2FromRaceTime applies the Daniels & Gilbert oxygen-cost formula at
// the effort's velocity, then scales by the sustainable intensity
// fraction for that race distance.
func vo2FromRaceTime(distanceMeters float64, elapsedSeconds int) (float64, bool) {
	if elapsedSeconds <= 0 || distanceMeters <= 0 {
		return 0, false
	}
	velocity := distanceMeters / float64(elapsedSeconds) * 60 // meters per minute
	vo2 := -4.60 + 0.182258*velocity + 0.000104*velocity*velocity
	vo2max := vo2 / raceIntensity(distanceMeters/1000)
	return clampVO2(vo2max), true
}

// vo2FromPower uses the Stryd elite relation with a 4 percent trained
// runner efficiency adjustment.
func vo2FromPower(wattsPerKg float64) float64 {
	return clampVO2(12.63 * wattsPerKg * 0.96)
}

// vo2FromHeartRate applies the Uth–Sørensen–Overgaard–Pedersen relation
// against an assumed resting rate of 65 bpm.
func vo2FromHeartRate(activities []models.ActivitySample) (float64, bool) {
	maxHR := 0
	for _, a := range activities {
		if a.MaxHeartRate != nil && *a.MaxHeartRate > maxHR {
			maxHR = *a.MaxHeartRate
		}
	}
	if maxHR == 0 {
		return 0, false
	}
	const restingHR = 65.0
	return clampVO2(15.3 * float64(maxHR) / restingHR), true
}

// raceIntensity is the fraction of VO2 max sustainable at a distance.
func raceIntensity(distanceKm float64) float64 {
	switch {
	case distanceKm >= 40:
		return 0.85
	case distanceKm >= 20:
		return 0.88
	case distanceKm >= 10:
		return 0.92
	case distanceKm >= 5:
		return 0.95
	default:
		return 0.98
	}
}

func clampVO2(v float64) float64 {
	return math.Max(vo2Floor, math.Min(vo2Ceil, v))
}

// vVO2MaxPace derives the velocity-at-VO2max pace as 7 percent faster
// than the athlete's best near-5K effort.
func (s *VO2MaxService) vVO2MaxPace(efforts []bestEffort) *string {
	for _, e := range efforts {
		if e.distanceMeters >= 4500 && e.distanceMeters <= 5500 {
			velocity := e.distanceMeters / float64(e.elapsedSeconds) * 1.07
			pace := speedToPace(velocity)
			return &pace
		}
	}
	return nil
}

// predictRaces projects a time for each standard distance by averaging a
// Riegel extrapolation from the longest best effort with an inverse
// Daniels solve at the estimated VO2 max.
func (s *VO2MaxService) predictRaces(efforts []bestEffort, vo2max float64) []models.RacePrediction {
	if len(efforts) == 0 {
		return nil
	}

	anchor := efforts[0]
	for _, e := range efforts[1:] {
		if e.distanceMeters > anchor.distanceMeters {
			anchor = e
		}
	}

	predictions := make([]models.RacePrediction, 0, len(standardRaces))
	for _, race := range standardRaces {
		riegel := predictRiegel(anchor.distanceMeters, anchor.elapsedSeconds, race.km*1000)
		daniels := predictFromVO2Max(vo2max, race.km)
		predicted := (riegel + daniels) / 2

		confidence := models.ConfidenceMedium
		if math.Abs(float64(riegel-daniels)) < 180 {
			confidence = models.ConfidenceHigh
		}

		predictions = append(predictions, models.RacePrediction{
			DistanceName:     race.name,
			DistanceKm:       race.km,
			PredictedSeconds: predicted,
			PacePerKm:        formatPace(float64(predicted) / race.km),
			Confidence:       confidence,
		})
	}
	return predictions
}

// predictRiegel extrapolates one race time to another distance.
func predictRiegel(knownMeters float64, knownSeconds int, targetMeters float64) int {
	return int(float64(knownSeconds) * math.Pow(targetMeters/knownMeters, riegelExponent))
}

// predictFromVO2Max inverts the Daniels oxygen-cost quadratic to find
// the velocity sustainable at race intensity, then converts to time.
func predictFromVO2Max(vo2max, distanceKm float64) int {
	vo2AtPace := vo2max * raceIntensity(distanceKm)

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
	return int(distanceKm * 1000 / velocity * 60)
}

func fitnessLevel(vo2max float64) string {
	switch {
	case vo2max >= 65:
		return "elite"
	case vo2max >= 55:
		return "excellent"
	case vo2max >= 45:
		return "good"
	case vo2max >= 35:
		return "average"
	default:
		return "below_average"
	}
}

// dataQuality scores the estimate on method reliability, sample volume,
// and sensor coverage, capped at 1.0.
func dataQuality(method string, activityCount int, hasPower, hasHR bool) float64 {
	quality := 0.5

	switch method {
	case methodRacePerformance:
		quality += 0.3
	case methodPowerData:
		quality += 0.25
	case methodHeartRate:
		quality += 0.15
	}

	switch {
	case activityCount >= 20:
		quality += 0.15
	case activityCount >= 10:
		quality += 0.10
	}

	if hasPower && hasHR {
		quality += 0.05
	}

	return math.Round(math.Min(1.0, quality)*100) / 100
}

func averagePower(activities []models.ActivitySample) (float64, bool) {
	var sum float64
	var n int
	for _, a := range activities {
		if a.AvgPowerWatts != nil && *a.AvgPowerWatts > 0 {
			sum += float64(*a.AvgPowerWatts)
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func anyPower(activities []models.ActivitySample) bool {
	for _, a := range activities {
		if a.AvgPowerWatts != nil && *a.AvgPowerWatts > 0 {
			return true
		}
	}
	return false
}

func anyHeartRate(activities []models.ActivitySample) bool {
	for _, a := range activities {
		if a.AvgHeartRate != nil && *a.AvgHeartRate > 0 {
			return true
		}
	}
	return false
}

func (s *VO2MaxService) fallbackEstimate() models.VO2MaxEstimate {
	s.logger.Warn("Insufficient data for VO2 max estimation, using fallback")
	return models.VO2MaxEstimate{
		Value:        40.0,
		Method:       methodDefault,
		FitnessLevel: "average",
		DataQuality:  0.3,
	}
}
