package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
)

// Workout type labels used in the weekly plan.
const (
	workoutRest      = "rest"
	workoutEasy      = "easy_run"
	workoutLong      = "long_run"
	workoutThreshold = "threshold"
	workoutInterval  = "intervals"
	workoutStrides   = "strides"
)

// WorkoutService builds a seven-day schedule from the recovery state
// and the derived pace targets.
type WorkoutService struct {
	logger *logrus.Logger
}

// NewWorkoutService creates a new workout planner.
func NewWorkoutService(logger *logrus.Logger) *WorkoutService {
	return &WorkoutService{logger: logger}
}

// Plan lays out the next seven days. The harder the athlete has been
// training relative to their base, the more the week tilts toward
// recovery. Output is deterministic for a given input.
func (s *WorkoutService) Plan(load models.TrainingLoadMetrics, guidance models.PaceGuidance) models.WorkoutPlan {
	paces := paceIndex(guidance)

	var workouts []models.PlannedWorkout
	switch load.RecoveryStatus {
	case models.RecoveryOvertrained:
		workouts = []models.PlannedWorkout{
			{Day: 1, WorkoutType: workoutRest, Description: "Full rest; training load is well above your base"},
			{Day: 2, WorkoutType: workoutRest, Description: "Full rest or gentle walking"},
			{Day: 3, WorkoutType: workoutEasy, Description: "20-30 min very easy" + atPace(paces, "easy")},
			{Day: 4, WorkoutType: workoutRest, Description: "Full rest"},
			{Day: 5, WorkoutType: workoutEasy, Description: "30 min easy" + atPace(paces, "easy")},
			{Day: 6, WorkoutType: workoutRest, Description: "Full rest"},
			{Day: 7, WorkoutType: workoutEasy, Description: "30-40 min easy if feeling fresh" + atPace(paces, "easy")},
		}
	case models.RecoveryOverreaching:
		workouts = []models.PlannedWorkout{
			{Day: 1, WorkoutType: workoutRest, Description: "Rest day to absorb the recent block"},
			{Day: 2, WorkoutType: workoutEasy, Description: "40 min easy" + atPace(paces, "easy")},
			{Day: 3, WorkoutType: workoutEasy, Description: "30 min easy" + atPace(paces, "easy")},
			{Day: 4, WorkoutType: workoutRest, Description: "Rest day"},
			{Day: 5, WorkoutType: workoutEasy, Description: "40 min easy" + atPace(paces, "easy")},
			{Day: 6, WorkoutType: workoutStrides, Description: "30 min easy plus 4x20s relaxed strides"},
			{Day: 7, WorkoutType: workoutEasy, Description: "45 min easy" + atPace(paces, "easy")},
		}
	case models.RecoveryFatigued:
		workouts = []models.PlannedWorkout{
			{Day: 1, WorkoutType: workoutEasy, Description: "40 min easy" + atPace(paces, "easy")},
			{Day: 2, WorkoutType: workoutRest, Description: "Rest day"},
			{Day: 3, WorkoutType: workoutEasy, Description: "45 min easy" + atPace(paces, "easy")},
			{Day: 4, WorkoutType: workoutStrides, Description: "35 min easy plus 6x20s strides"},
			{Day: 5, WorkoutType: workoutRest, Description: "Rest day"},
			{Day: 6, WorkoutType: workoutLong, Description: "60-75 min relaxed long run" + atPace(paces, "easy")},
			{Day: 7, WorkoutType: workoutEasy, Description: "30 min recovery jog"},
		}
	case models.RecoveryWellRecovered:
		workouts = []models.PlannedWorkout{
			{Day: 1, WorkoutType: workoutEasy, Description: "45 min easy" + atPace(paces, "easy")},
			{Day: 2, WorkoutType: workoutInterval, Description: "5x1000m" + atPace(paces, "interval") + " with 3 min jog recovery"},
			{Day: 3, WorkoutType: workoutEasy, Description: "40 min easy" + atPace(paces, "easy")},
			{Day: 4, WorkoutType: workoutThreshold, Description: "3x10 min" + atPace(paces, "threshold") + " with 2 min float"},
			{Day: 5, WorkoutType: workoutRest, Description: "Rest day"},
			{Day: 6, WorkoutType: workoutLong, Description: "90 min long run, last 20 min" + atPace(paces, "marathon")},
			{Day: 7, WorkoutType: workoutEasy, Description: "30-40 min recovery jog"},
		}
	default: // adequate
		workouts = []models.PlannedWorkout{
			{Day: 1, WorkoutType: workoutEasy, Description: "45 min easy" + atPace(paces, "easy")},
			{Day: 2, WorkoutType: workoutThreshold, Description: "20 min continuous" + atPace(paces, "threshold")},
			{Day: 3, WorkoutType: workoutEasy, Description: "40 min easy" + atPace(paces, "easy")},
			{Day: 4, WorkoutType: workoutRest, Description: "Rest day"},
			{Day: 5, WorkoutType: workoutStrides, Description: "40 min easy plus 6x20s strides"},
			{Day: 6, WorkoutType: workoutLong, Description: "75-90 min long run" + atPace(paces, "easy")},
			{Day: 7, WorkoutType: workoutRest, Description: "Rest day"},
		}
	}

	plan := models.WorkoutPlan{
		Workouts: workouts,
		Basis: fmt.Sprintf("recovery %s, ACWR %.2f, weekly TSS %.0f",
			load.RecoveryStatus, load.ACWR, load.WeeklyTSS),
	}

	s.logger.WithFields(logrus.Fields{
		"recovery": load.RecoveryStatus,
		"workouts": len(plan.Workouts),
	}).Info("Workout plan built")

	return plan
}

func paceIndex(guidance models.PaceGuidance) map[string]string {
	paces := make(map[string]string, len(guidance.Targets))
	for _, target := range guidance.Targets {
		paces[target.Name] = target.PacePerKm
	}
	return paces
}

// atPace renders " at M:SS/km" when the zone pace is known.
func atPace(paces map[string]string, zone string) string {
	pace, ok := paces[zone]
	if !ok || pace == "0:00" {
		return ""
	}
	return fmt.Sprintf(" at %s/km", pace)
}
