package services

import (
	"math"
	"sort"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
)

const (
	// Minimum runs before a pace trend is meaningful.
	trendMinRuns  = 6
	trendSmaSpan  = 3
	trendDeadband = 0.03

	consistencyWeeks = 8
)

// PerformanceService summarizes recent mileage, pace, and direction of
// travel across the training block.
type PerformanceService struct {
	logger *logrus.Logger
}

// NewPerformanceService creates a new performance summarizer.
func NewPerformanceService(logger *logrus.Logger) *PerformanceService {
	return &PerformanceService{logger: logger}
}

// Summarize reduces the activity history to weekly mileage, schedule
// consistency, average pace, and a smoothed pace trend as of the given
// time.
func (s *PerformanceService) Summarize(activities []models.ActivitySample, asOf time.Time) models.PerformanceSummary {
	if len(activities) == 0 {
		return models.PerformanceSummary{
			AvgPacePerKm: "0:00",
			Trend:        models.PerformanceStable,
		}
	}

	summary := models.PerformanceSummary{
		WeeklyMileageKm: s.weeklyMileage(activities, asOf),
		Consistency:     s.consistency(activities, asOf),
		AvgPacePerKm:    s.averagePace(activities),
		Trend:           s.paceTrend(activities),
	}

	s.logger.WithFields(logrus.Fields{
		"weekly_km":   summary.WeeklyMileageKm,
		"consistency": summary.Consistency,
		"trend":       summary.Trend,
	}).Info("Performance summary complete")

	return summary
}

// weeklyMileage averages distance per week over the trailing 28 days.
func (s *PerformanceService) weeklyMileage(activities []models.ActivitySample, asOf time.Time) float64 {
	cutoff := asOf.AddDate(0, 0, -28)
	var km float64
	for _, a := range activities {
		if a.ActivityDate.Before(cutoff) || a.ActivityDate.After(asOf) {
			continue
		}
		km += a.DistanceKm()
	}
	return math.Round(km/4*10) / 10
}

// consistency is the fraction of the trailing weeks with at least two
// runs.
func (s *PerformanceService) consistency(activities []models.ActivitySample, asOf time.Time) float64 {
	runsPerWeek := make(map[int]int)
	for _, a := range activities {
		age := asOf.Sub(a.ActivityDate)
		if age < 0 {
			continue
		}
		week := int(age.Hours() / 24 / 7)
		if week < consistencyWeeks {
			runsPerWeek[week]++
		}
	}

	activeWeeks := 0
	for _, runs := range runsPerWeek {
		if runs >= 2 {
			activeWeeks++
		}
	}
	return math.Round(float64(activeWeeks)/consistencyWeeks*100) / 100
}

func (s *PerformanceService) averagePace(activities []models.ActivitySample) string {
	var totalKm, totalSeconds float64
	for _, a := range activities {
		totalKm += a.DistanceKm()
		totalSeconds += float64(a.MovingSeconds)
	}
	if totalKm == 0 {
		return "0:00"
	}
	return formatPace(totalSeconds / totalKm)
}

// paceTrend smooths the chronological per-run pace series with a short
// SMA and compares the ends of the smoothed line. Faster is improving.
func (s *PerformanceService) paceTrend(activities []models.ActivitySample) models.PerformanceTrend {
	ordered := make([]models.ActivitySample, len(activities))
	copy(ordered, activities)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ActivityDate.Before(ordered[j].ActivityDate)
	})

	var paces []float64
	for _, a := range ordered {
		km := a.DistanceKm()
		if km <= 0 || a.MovingSeconds <= 0 {
			continue
		}
		paces = append(paces, float64(a.MovingSeconds)/km)
	}
	if len(paces) < trendMinRuns {
		return models.PerformanceStable
	}

	smaIndicator := trend.NewSmaWithPeriod[float64](trendSmaSpan)
	smoothed := helper.ChanToSlice(smaIndicator.Compute(helper.SliceToChan(paces)))
	if len(smoothed) < 2 {
		return models.PerformanceStable
	}

	first := smoothed[0]
	last := smoothed[len(smoothed)-1]
	if first <= 0 {
		return models.PerformanceStable
	}

	change := (last - first) / first
	switch {
	case change < -trendDeadband:
		return models.PerformanceImproving
	case change > trendDeadband:
		return models.PerformanceDeclining
	default:
		return models.PerformanceStable
	}
}
