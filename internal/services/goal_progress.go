package services

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
)

// GoalService scores active goals against current fitness.
type GoalService struct {
	logger *logrus.Logger
}

// NewGoalService creates a new goal assessor.
func NewGoalService(logger *logrus.Logger) *GoalService {
	return &GoalService{logger: logger}
}

// Assess evaluates each active goal against the race predictions,
// performance summary, and raw history. Goals the athlete has no data
// for degrade to needs_adjustment rather than being dropped.
func (s *GoalService) Assess(
	goals []models.RunningGoal,
	activities []models.ActivitySample,
	performance models.PerformanceSummary,
	vo2 models.VO2MaxEstimate,
	asOf time.Time,
) []models.GoalAssessment {
	assessments := make([]models.GoalAssessment, 0, len(goals))
	for _, goal := range goals {
		if !goal.IsActive {
			continue
		}

		var assessment models.GoalAssessment
		switch goal.GoalType {
		case models.GoalTypeRaceTime:
			assessment = s.assessRaceTime(goal, vo2)
		case models.GoalTypeDistance:
			assessment = s.assessDistance(goal, activities, performance)
		case models.GoalTypeConsistency:
			assessment = s.assessConsistency(goal, performance)
		default:
			assessment = models.GoalAssessment{
				Status:           models.GoalNeedsAdjustment,
				FeasibilityScore: 0.1,
				Notes:            []string{fmt.Sprintf("Unsupported goal type %q", goal.GoalType)},
			}
		}

		assessment.GoalID = goal.ID
		assessment.GoalType = goal.GoalType

		if goal.TargetDate != nil && goal.TargetDate.Before(asOf) && assessment.ProgressPct < 100 {
			assessment.Status = models.GoalNeedsAdjustment
			assessment.Notes = append(assessment.Notes, "Target date has passed; set a new timeline")
		}

		assessments = append(assessments, assessment)
	}

	s.logger.WithField("goals_assessed", len(assessments)).Info("Goal assessment complete")
	return assessments
}

// assessRaceTime compares the matching race prediction against the
// goal's target time.
func (s *GoalService) assessRaceTime(goal models.RunningGoal, vo2 models.VO2MaxEstimate) models.GoalAssessment {
	if goal.TargetSeconds == nil || *goal.TargetSeconds <= 0 {
		return models.GoalAssessment{
			Status:           models.GoalNeedsAdjustment,
			FeasibilityScore: 0.1,
			Notes:            []string{"Race time goal has no target time"},
		}
	}

	targetKm, _ := goal.TargetDistanceKm.Float64()
	prediction := matchPrediction(vo2.RacePredictions, targetKm)
	if prediction == nil {
		return models.GoalAssessment{
			Status:           models.GoalNeedsAdjustment,
			FeasibilityScore: 0.3,
			Notes:            []string{"Not enough race efforts to project this distance yet"},
		}
	}

	target := float64(*goal.TargetSeconds)
	predicted := float64(prediction.PredictedSeconds)
	gap := (predicted - target) / target
	progress := math.Round(math.Min(100, target/predicted*100)*10) / 10

	var status models.GoalStatus
	var feasibility float64
	switch {
	case gap <= 0:
		status, feasibility = models.GoalAhead, 0.95
	case gap <= 0.03:
		status, feasibility = models.GoalOnTrack, 0.8
	case gap <= 0.10:
		status, feasibility = models.GoalBehind, 0.55
	default:
		status, feasibility = models.GoalNeedsAdjustment, 0.25
	}

	note := fmt.Sprintf("Predicted %s vs target %s for %s",
		formatPace(predicted), formatPace(target), prediction.DistanceName)

	return models.GoalAssessment{
		Status:           status,
		ProgressPct:      progress,
		FeasibilityScore: feasibility,
		Notes:            []string{note},
	}
}

// assessDistance measures the longest recent run against the target.
func (s *GoalService) assessDistance(goal models.RunningGoal, activities []models.ActivitySample, performance models.PerformanceSummary) models.GoalAssessment {
	targetKm, _ := goal.TargetDistanceKm.Float64()
	if targetKm <= 0 {
		return models.GoalAssessment{
			Status:           models.GoalNeedsAdjustment,
			FeasibilityScore: 0.1,
			Notes:            []string{"Distance goal has no target distance"},
		}
	}

	var longest float64
	for _, a := range activities {
		if km := a.DistanceKm(); km > longest {
			longest = km
		}
	}

	progress := math.Round(math.Min(100, longest/targetKm*100)*10) / 10

	var status models.GoalStatus
	switch {
	case progress >= 100:
		status = models.GoalAhead
	case progress >= 75:
		status = models.GoalOnTrack
	case progress >= 40:
		status = models.GoalBehind
	default:
		status = models.GoalNeedsAdjustment
	}

	trendBonus := 0.0
	switch performance.Trend {
	case models.PerformanceImproving:
		trendBonus = 0.2
	case models.PerformanceStable:
		trendBonus = 0.1
	}
	feasibility := math.Min(1.0, math.Max(0.1, progress/100+trendBonus))

	return models.GoalAssessment{
		Status:           status,
		ProgressPct:      progress,
		FeasibilityScore: math.Round(feasibility*100) / 100,
		Notes:            []string{fmt.Sprintf("Longest recent run %.1f km of %.1f km target", longest, targetKm)},
	}
}

// assessConsistency scores the goal on the share of recent weeks with
// regular running.
func (s *GoalService) assessConsistency(goal models.RunningGoal, performance models.PerformanceSummary) models.GoalAssessment {
	progress := math.Round(performance.Consistency*100*10) / 10

	var status models.GoalStatus
	switch {
	case progress >= 90:
		status = models.GoalAhead
	case progress >= 75:
		status = models.GoalOnTrack
	case progress >= 50:
		status = models.GoalBehind
	default:
		status = models.GoalNeedsAdjustment
	}

	return models.GoalAssessment{
		Status:           status,
		ProgressPct:      progress,
		FeasibilityScore: math.Round(math.Max(0.1, performance.Consistency)*100) / 100,
		Notes:            []string{fmt.Sprintf("Running regularly in %.0f%% of recent weeks", progress)},
	}
}

// matchPrediction finds the race prediction within 10 percent of the
// goal distance.
func matchPrediction(predictions []models.RacePrediction, targetKm float64) *models.RacePrediction {
	for i := range predictions {
		p := &predictions[i]
		if targetKm >= 0.9*p.DistanceKm && targetKm <= 1.1*p.DistanceKm {
			return p
		}
	}
	return nil
}
