package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/internal/models"
)

// raceEffort builds an activity at an exact distance and elapsed time.
func raceEffort(meters float64, elapsedSec int) models.ActivitySample {
	return models.ActivitySample{
		ID:             "effort",
		AthleteID:      "athlete-1",
		DistanceMeters: decimal.NewFromFloat(meters),
		ElapsedSeconds: elapsedSec,
		MovingSeconds:  elapsedSec,
		ActivityDate:   time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC),
	}
}

func TestEstimate_FromRaceEffort(t *testing.T) {
	svc := NewVO2MaxService(testServiceLogger())

	// A 20:00 5K: 250 m/min, which lands right around 50 ml/kg/min.
	estimate := svc.Estimate([]models.ActivitySample{raceEffort(5000, 1200)}, models.AthleteProfile{})

	assert.InDelta(t, 50.0, estimate.Value, 0.5)
	assert.Equal(t, methodRacePerformance, estimate.Method)
	assert.Equal(t, "good", estimate.FitnessLevel)
	assert.InDelta(t, 0.8, estimate.DataQuality, 0.001)

	require.NotNil(t, estimate.VVO2MaxPace)
	assert.Equal(t, "3:44", *estimate.VVO2MaxPace)

	require.Len(t, estimate.RacePredictions, 4)
	assert.Equal(t, "5K", estimate.RacePredictions[0].DistanceName)
	assert.Equal(t, "Marathon", estimate.RacePredictions[3].DistanceName)

	// Predicted times must grow strictly with distance.
	for i := 1; i < len(estimate.RacePredictions); i++ {
		assert.Greater(t, estimate.RacePredictions[i].PredictedSeconds,
			estimate.RacePredictions[i-1].PredictedSeconds,
			"%s should be slower than %s",
			estimate.RacePredictions[i].DistanceName, estimate.RacePredictions[i-1].DistanceName)
	}

	// A 20:00 5K projects to roughly a 41-42 minute 10K.
	tenK := estimate.RacePredictions[1]
	assert.Greater(t, tenK.PredictedSeconds, 2350)
	assert.Less(t, tenK.PredictedSeconds, 2600)
	assert.Equal(t, models.ConfidenceHigh, tenK.Confidence)
}

func TestEstimate_FromPowerData(t *testing.T) {
	svc := NewVO2MaxService(testServiceLogger())

	activity := raceEffort(7000, 2400)
	activity.AvgPowerWatts = intPtr(300)

	t.Run("uses profile mass", func(t *testing.T) {
		profile := models.AthleteProfile{MassKg: decimal.NewFromInt(75)}
		estimate := svc.Estimate([]models.ActivitySample{activity}, profile)

		// 4.0 W/kg * 12.63 * 0.96 = 48.5
		assert.InDelta(t, 48.5, estimate.Value, 0.1)
		assert.Equal(t, methodPowerData, estimate.Method)
	})

	t.Run("defaults to 70kg without profile mass", func(t *testing.T) {
		estimate := svc.Estimate([]models.ActivitySample{activity}, models.AthleteProfile{})
		assert.InDelta(t, 52.0, estimate.Value, 0.1)
	})
}

func TestEstimate_FromHeartRateOnly(t *testing.T) {
	svc := NewVO2MaxService(testServiceLogger())

	activity := raceEffort(7000, 2400)
	activity.AvgHeartRate = intPtr(155)
	activity.MaxHeartRate = intPtr(190)

	estimate := svc.Estimate([]models.ActivitySample{activity}, models.AthleteProfile{})

	// 15.3 * 190 / 65 = 44.7
	assert.InDelta(t, 44.7, estimate.Value, 0.1)
	assert.Equal(t, methodHeartRate, estimate.Method)
	assert.Nil(t, estimate.VVO2MaxPace)
	assert.Empty(t, estimate.RacePredictions)
}

func TestEstimate_RaceEstimatesWeightedDouble(t *testing.T) {
	svc := NewVO2MaxService(testServiceLogger())

	activity := raceEffort(5000, 1200)
	activity.AvgHeartRate = intPtr(160)
	activity.MaxHeartRate = intPtr(185)

	estimate := svc.Estimate([]models.ActivitySample{activity}, models.AthleteProfile{})

	// Race estimate ~50.0 at weight 2, HR estimate 43.5 at weight 1.
	assert.InDelta(t, 47.8, estimate.Value, 0.2)
	assert.Equal(t, methodRacePerformance, estimate.Method)
}

func TestEstimate_ClampedToPhysiologicalBounds(t *testing.T) {
	svc := NewVO2MaxService(testServiceLogger())

	// An implausible 11:40 5K stays capped at the ceiling.
	estimate := svc.Estimate([]models.ActivitySample{raceEffort(5000, 700)}, models.AthleteProfile{})
	assert.LessOrEqual(t, estimate.Value, 85.0)
	assert.Equal(t, "elite", estimate.FitnessLevel)
}

func TestEstimate_PicksFastestEffortPerDistance(t *testing.T) {
	svc := NewVO2MaxService(testServiceLogger())

	estimate := svc.Estimate([]models.ActivitySample{
		raceEffort(5000, 1300),
		raceEffort(5000, 1200),
	}, models.AthleteProfile{})

	// The vVO2 pace derives from the faster of the two 5Ks.
	require.NotNil(t, estimate.VVO2MaxPace)
	assert.Equal(t, "3:44", *estimate.VVO2MaxPace)
}

func TestEstimate_FallbackCases(t *testing.T) {
	svc := NewVO2MaxService(testServiceLogger())

	tests := []struct {
		name       string
		activities []models.ActivitySample
	}{
		{"no activities", nil},
		{
			// 7 km is outside the 10% tolerance of every standard
			// distance, and there is no power or heart rate signal.
			"no usable estimation signal",
			[]models.ActivitySample{raceEffort(7000, 2400)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimate := svc.Estimate(tt.activities, models.AthleteProfile{})
			assert.Equal(t, 40.0, estimate.Value)
			assert.Equal(t, methodDefault, estimate.Method)
			assert.Equal(t, "average", estimate.FitnessLevel)
			assert.Equal(t, 0.3, estimate.DataQuality)
			assert.Empty(t, estimate.RacePredictions)
		})
	}
}

func TestDataQuality(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		count    int
		hasPower bool
		hasHR    bool
		expected float64
	}{
		{"race with full sensors and volume caps at one", methodRacePerformance, 25, true, true, 1.0},
		{"race with moderate volume", methodRacePerformance, 12, false, false, 0.9},
		{"power only", methodPowerData, 5, true, false, 0.75},
		{"heart rate only", methodHeartRate, 5, false, true, 0.65},
		{"single sensor earns no pairing bonus", methodRacePerformance, 5, true, false, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dataQuality(tt.method, tt.count, tt.hasPower, tt.hasHR), 0.001)
		})
	}
}

func TestFitnessLevel(t *testing.T) {
	tests := []struct {
		vo2      float64
		expected string
	}{
		{70, "elite"},
		{60, "excellent"},
		{50, "good"},
		{40, "average"},
		{30, "below_average"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, fitnessLevel(tt.vo2), "vo2 %.0f", tt.vo2)
	}
}

func TestPredictRiegel(t *testing.T) {
	// A 20:00 5K extrapolates to about 41:41 for 10K.
	predicted := predictRiegel(5000, 1200, 10000)
	assert.InDelta(t, 2501, predicted, 2)

	// Identity at the same distance.
	assert.Equal(t, 1200, predictRiegel(5000, 1200, 5000))
}
