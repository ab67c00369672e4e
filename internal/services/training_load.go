package services

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
)

// ACWR thresholds (Gabbett et al.) and weekly TSS bands used by the
// recovery heuristics.
const (
	acwrOptimalLow   = 0.8
	acwrOptimalHigh  = 1.3
	acwrHighRisk     = 1.5
	acwrVeryHighRisk = 1.8

	tssEasyWeek = 200
	tssHardWeek = 500
	tssPeakWeek = 700

	// Chronic load below this while undertraining reads as detraining
	// rather than a deliberate taper.
	detrainingChronicFloor = 200
)

// TrainingLoadService computes per-activity stress scores and rolling
// load ratios. All methods are pure given the supplied as-of time.
type TrainingLoadService struct {
	logger *logrus.Logger
}

// NewTrainingLoadService creates a new training load estimator.
func NewTrainingLoadService(logger *logrus.Logger) *TrainingLoadService {
	return &TrainingLoadService{logger: logger}
}

// IntensityFactor estimates how hard one activity was relative to
// threshold effort. Heart rate wins when present; otherwise pace against
// the athlete's threshold pace; otherwise a moderate-effort default.
func (s *TrainingLoadService) IntensityFactor(activity models.ActivitySample, profile models.AthleteProfile) float64 {
	if activity.HasHeartRate() {
		hrPct := float64(*activity.AvgHeartRate) / float64(*activity.MaxHeartRate)
		switch {
		case hrPct < 0.65:
			return 0.55
		case hrPct < 0.75:
			return 0.70
		case hrPct < 0.85:
			return 0.85
		default:
			return 0.95
		}
	}

	if activity.AvgSpeedMps != nil && profile.ThresholdPaceSecPerKm != nil {
		speed, _ := activity.AvgSpeedMps.Float64()
		thresholdPace, _ := profile.ThresholdPaceSecPerKm.Float64()
		if speed > 0 && thresholdPace > 0 {
			pace := 1000.0 / speed // seconds per km
			intensity := thresholdPace / pace
			return math.Min(1.2, math.Max(0.5, intensity))
		}
	}

	return 0.70
}

// StressScore computes the Training Stress Score for one activity:
// moving hours * IF^2 * 100, rounded to one decimal.
func (s *TrainingLoadService) StressScore(activity models.ActivitySample, intensityFactor float64) float64 {
	tss := activity.MovingHours() * intensityFactor * intensityFactor * 100
	return math.Round(tss*10) / 10
}

// WindowLoad sums TSS over activities dated within the trailing window
// ending at asOf.
func (s *TrainingLoadService) WindowLoad(activities []models.ActivitySample, profile models.AthleteProfile, windowDays int, asOf time.Time) float64 {
	cutoff := asOf.AddDate(0, 0, -windowDays)
	var total float64
	for _, a := range activities {
		if a.ActivityDate.Before(cutoff) || a.ActivityDate.After(asOf) {
			continue
		}
		total += s.StressScore(a, s.IntensityFactor(a, profile))
	}
	return math.Round(total*10) / 10
}

// Analyze computes the full load picture as of the supplied time. An
// empty activity list yields the documented zero-valued fallback, not an
// error: that is a valid "insufficient data" result.
func (s *TrainingLoadService) Analyze(activities []models.ActivitySample, profile models.AthleteProfile, asOf time.Time) models.TrainingLoadMetrics {
	if len(activities) == 0 {
		s.logger.WithField("athlete_id", profile.AthleteID).
			Warn("No activities, returning fallback training load metrics")
		return fallbackTrainingLoad()
	}

	acute := s.WindowLoad(activities, profile, 7, asOf)
	// Chronic load is the average weekly load across the 28-day block so
	// that a perfectly steady month lands at ACWR 1.0.
	chronic := math.Round(s.WindowLoad(activities, profile, 28, asOf)/4*10) / 10
	weeklyTSS := acute

	acwr := 0.0
	if chronic > 0 {
		acwr = math.Round(acute/chronic*100) / 100
	}

	priorChronic := math.Round(s.windowLoadBetween(activities, profile, asOf.AddDate(0, 0, -56), asOf.AddDate(0, 0, -28))/4*10) / 10

	metrics := models.TrainingLoadMetrics{
		AcuteLoad7d:    acute,
		ChronicLoad28d: chronic,
		ACWR:           acwr,
		WeeklyTSS:      weeklyTSS,
		WeeklyVolumeKm: s.weeklyVolumeKm(activities, asOf),
		RecoveryStatus: recoveryStatus(acwr, weeklyTSS),
		InjuryRisk:     injuryRisk(acwr),
		Trend:          loadTrend(acwr, chronic),
		FitnessTrend:   fitnessTrend(chronic, priorChronic),
	}

	s.logger.WithFields(logrus.Fields{
		"athlete_id": profile.AthleteID,
		"acwr":       metrics.ACWR,
		"recovery":   metrics.RecoveryStatus,
		"risk":       metrics.InjuryRisk,
	}).Info("Training load analysis complete")

	return metrics
}

// windowLoadBetween sums TSS over activities dated in [from, to).
func (s *TrainingLoadService) windowLoadBetween(activities []models.ActivitySample, profile models.AthleteProfile, from, to time.Time) float64 {
	var total float64
	for _, a := range activities {
		if a.ActivityDate.Before(from) || !a.ActivityDate.Before(to) {
			continue
		}
		total += s.StressScore(a, s.IntensityFactor(a, profile))
	}
	return math.Round(total*10) / 10
}

func (s *TrainingLoadService) weeklyVolumeKm(activities []models.ActivitySample, asOf time.Time) float64 {
	cutoff := asOf.AddDate(0, 0, -7)
	var km float64
	for _, a := range activities {
		if a.ActivityDate.Before(cutoff) || a.ActivityDate.After(asOf) {
			continue
		}
		km += a.DistanceKm()
	}
	return math.Round(km*10) / 10
}

// injuryRisk bands the workload ratio. Both the detraining zone and the
// optimal zone read as low risk.
func injuryRisk(acwr float64) models.InjuryRisk {
	switch {
	case acwr <= acwrOptimalLow:
		return models.InjuryRiskLow
	case acwr <= acwrOptimalHigh:
		return models.InjuryRiskLow
	case acwr <= acwrHighRisk:
		return models.InjuryRiskModerate
	case acwr <= acwrVeryHighRisk:
		return models.InjuryRiskHigh
	default:
		return models.InjuryRiskVeryHigh
	}
}

// recoveryStatus applies the banded heuristics in strict precedence
// order; the first match wins.
func recoveryStatus(acwr, weeklyTSS float64) models.RecoveryStatus {
	switch {
	case acwr > acwrVeryHighRisk:
		return models.RecoveryOvertrained
	case acwr > acwrHighRisk && weeklyTSS > tssHardWeek:
		return models.RecoveryOverreaching
	case acwr > acwrOptimalHigh || weeklyTSS > tssPeakWeek:
		return models.RecoveryFatigued
	case acwr < acwrOptimalLow || weeklyTSS < tssEasyWeek:
		return models.RecoveryWellRecovered
	default:
		return models.RecoveryAdequate
	}
}

func loadTrend(acwr, chronic float64) models.LoadTrend {
	switch {
	case acwr > 1.2:
		return models.LoadTrendRampingUp
	case acwr < acwrOptimalLow && chronic < detrainingChronicFloor:
		return models.LoadTrendDetraining
	case acwr < acwrOptimalLow:
		return models.LoadTrendTapering
	default:
		return models.LoadTrendSteady
	}
}

func fitnessTrend(chronic, priorChronic float64) models.FitnessTrend {
	if priorChronic == 0 {
		return models.FitnessInsufficientData
	}
	changePct := (chronic - priorChronic) / priorChronic * 100
	switch {
	case changePct > 10:
		return models.FitnessImproving
	case changePct < -10:
		return models.FitnessDeclining
	default:
		return models.FitnessMaintaining
	}
}

func fallbackTrainingLoad() models.TrainingLoadMetrics {
	return models.TrainingLoadMetrics{
		RecoveryStatus: models.RecoveryWellRecovered,
		InjuryRisk:     models.InjuryRiskLow,
		Trend:          models.LoadTrendSteady,
		FitnessTrend:   models.FitnessInsufficientData,
	}
}
