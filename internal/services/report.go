package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
	"github.com/stridelab/stridecoach/internal/pipeline"
)

// Stage names in the analysis graph.
const (
	stageInput        = "input"
	stagePerformance  = "performance_trend"
	stageTrainingLoad = "training_load"
	stageVO2Max       = "vo2max_estimation"
	stageWeather      = "weather_impact"
	stageGoals        = "goal_progress"
	stagePaces        = "pace_guidance"
	stageWorkouts     = "workout_plan"
	stageInsights     = "insights"
	stageSynthesis    = "synthesis"
)

// ReportInput is the seeded data every stage reads from shared state.
type ReportInput struct {
	AthleteID  string
	Activities []models.ActivitySample
	Profile    models.AthleteProfile
	Goals      []models.RunningGoal
	AsOf       time.Time
}

// ReportService orchestrates the full coaching analysis: it wires the
// estimator stages into a pipeline, runs them concurrently, and folds
// the results into a FinalReport.
type ReportService struct {
	loads    *TrainingLoadService
	vo2      *VO2MaxService
	weather  *WeatherService
	perf     *PerformanceService
	goals    *GoalService
	paces    *PaceService
	workouts *WorkoutService
	insights *InsightsService
	executor *pipeline.Executor
	logger   *logrus.Logger
}

// NewReportService builds the service and its estimators.
func NewReportService(weatherProvider WeatherProvider, maxWeatherLookups int, generator TextGenerator, logger *logrus.Logger) *ReportService {
	if generator == nil {
		generator = NewRuleBasedGenerator()
	}
	return &ReportService{
		loads:    NewTrainingLoadService(logger),
		vo2:      NewVO2MaxService(logger),
		weather:  NewWeatherService(weatherProvider, maxWeatherLookups, logger),
		perf:     NewPerformanceService(logger),
		goals:    NewGoalService(logger),
		paces:    NewPaceService(logger),
		workouts: NewWorkoutService(logger),
		insights: NewInsightsService(generator, logger),
		executor: pipeline.NewExecutor(logger),
		logger:   logger,
	}
}

// GenerateReport runs the stage graph for one athlete. The only error
// it returns is a pipeline configuration error; estimator and
// collaborator failures are folded into the report's StageErrors.
func (s *ReportService) GenerateReport(ctx context.Context, input ReportInput) (*models.FinalReport, error) {
	state := pipeline.NewSharedState()
	if err := state.Seed(stageInput, map[string]any{
		"athlete_id": input.AthleteID,
		"activities": input.Activities,
		"profile":    input.Profile,
		"goals":      input.Goals,
		"as_of":      input.AsOf,
	}); err != nil {
		return nil, err
	}

	result, err := s.executor.Run(ctx, s.registry(), state)
	if err != nil {
		return nil, err
	}

	report, ok := stateValue[*models.FinalReport](result.State, stageSynthesis, "report")
	if !ok {
		// Synthesis never ran (deadline starved it); assemble what we can.
		report = s.synthesize(result.State)
	}

	report.ReportID = result.RunID
	report.AthleteID = input.AthleteID
	report.GeneratedAt = time.Now().UTC()
	report.StagesCompleted = result.Completed
	report.StageDurations = result.Durations
	report.StageErrors = make([]models.StageError, 0, len(result.Failures))
	for _, f := range result.Failures {
		report.StageErrors = append(report.StageErrors, models.StageError{
			Stage:   f.Stage,
			Message: f.Message,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"athlete_id": input.AthleteID,
		"report_id":  report.ReportID,
		"stages":     len(report.StagesCompleted),
		"errors":     len(report.StageErrors),
	}).Info("Coaching report generated")

	return report, nil
}

// registry declares the stage graph. Independent estimators run first
// and concurrently; derived stages join on their inputs; synthesis runs
// last and sees everything.
func (s *ReportService) registry() *pipeline.Registry {
	reg := pipeline.NewRegistry()

	reg.Register(stagePerformance, nil, func(_ context.Context, state *pipeline.SharedState) (map[string]any, error) {
		activities, asOf := seededInput(state)
		return map[string]any{"summary": s.perf.Summarize(activities, asOf)}, nil
	})

	reg.Register(stageTrainingLoad, nil, func(_ context.Context, state *pipeline.SharedState) (map[string]any, error) {
		activities, asOf := seededInput(state)
		profile, _ := stateValue[models.AthleteProfile](state, stageInput, "profile")
		return map[string]any{"metrics": s.loads.Analyze(activities, profile, asOf)}, nil
	})

	reg.Register(stageVO2Max, nil, func(_ context.Context, state *pipeline.SharedState) (map[string]any, error) {
		activities, _ := seededInput(state)
		profile, _ := stateValue[models.AthleteProfile](state, stageInput, "profile")
		return map[string]any{"estimate": s.vo2.Estimate(activities, profile)}, nil
	})

	reg.Register(stageWeather, nil, func(ctx context.Context, state *pipeline.SharedState) (map[string]any, error) {
		activities, _ := seededInput(state)
		return map[string]any{"impact": s.weather.Analyze(ctx, activities)}, nil
	})

	reg.Register(stageGoals, []string{stagePerformance, stageVO2Max}, func(_ context.Context, state *pipeline.SharedState) (map[string]any, error) {
		activities, asOf := seededInput(state)
		goals, _ := stateValue[[]models.RunningGoal](state, stageInput, "goals")
		summary, _ := stateValue[models.PerformanceSummary](state, stagePerformance, "summary")
		estimate, _ := stateValue[models.VO2MaxEstimate](state, stageVO2Max, "estimate")
		return map[string]any{"assessments": s.goals.Assess(goals, activities, summary, estimate, asOf)}, nil
	})

	reg.Register(stagePaces, []string{stageVO2Max, stageWeather, stageTrainingLoad}, func(_ context.Context, state *pipeline.SharedState) (map[string]any, error) {
		estimate, _ := stateValue[models.VO2MaxEstimate](state, stageVO2Max, "estimate")
		impact, _ := stateValue[models.WeatherImpact](state, stageWeather, "impact")
		metrics, _ := stateValue[models.TrainingLoadMetrics](state, stageTrainingLoad, "metrics")
		return map[string]any{"guidance": s.paces.Guide(estimate, impact, metrics)}, nil
	})

	reg.Register(stageWorkouts, []string{stageTrainingLoad, stagePaces}, func(_ context.Context, state *pipeline.SharedState) (map[string]any, error) {
		metrics, _ := stateValue[models.TrainingLoadMetrics](state, stageTrainingLoad, "metrics")
		guidance, _ := stateValue[models.PaceGuidance](state, stagePaces, "guidance")
		return map[string]any{"plan": s.workouts.Plan(metrics, guidance)}, nil
	})

	reg.Register(stageInsights, []string{stageTrainingLoad, stageVO2Max, stageWeather}, func(ctx context.Context, state *pipeline.SharedState) (map[string]any, error) {
		metrics, _ := stateValue[models.TrainingLoadMetrics](state, stageTrainingLoad, "metrics")
		estimate, _ := stateValue[models.VO2MaxEstimate](state, stageVO2Max, "estimate")
		impact, _ := stateValue[models.WeatherImpact](state, stageWeather, "impact")
		insights, err := s.insights.Generate(ctx, InsightsInput{
			TrainingLoad: metrics,
			VO2Max:       estimate,
			Weather:      impact,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"insights": insights}, nil
	})

	reg.Register(stageSynthesis, []string{
		stagePerformance, stageTrainingLoad, stageVO2Max, stageWeather,
		stageGoals, stagePaces, stageWorkouts, stageInsights,
	}, func(_ context.Context, state *pipeline.SharedState) (map[string]any, error) {
		return map[string]any{"report": s.synthesize(state)}, nil
	})

	return reg
}

// synthesize folds every available stage output into the report
// skeleton. Failed or missing stages leave their section nil; a failed
// insights stage is replaced with canned rule-based text.
func (s *ReportService) synthesize(state *pipeline.SharedState) *models.FinalReport {
	report := &models.FinalReport{}

	if metrics, ok := stateValue[models.TrainingLoadMetrics](state, stageTrainingLoad, "metrics"); ok {
		report.TrainingLoad = &metrics
	}
	if estimate, ok := stateValue[models.VO2MaxEstimate](state, stageVO2Max, "estimate"); ok {
		report.VO2Max = &estimate
	}
	if impact, ok := stateValue[models.WeatherImpact](state, stageWeather, "impact"); ok {
		report.Weather = &impact
	}
	if summary, ok := stateValue[models.PerformanceSummary](state, stagePerformance, "summary"); ok {
		report.Performance = &summary
	}
	if assessments, ok := stateValue[[]models.GoalAssessment](state, stageGoals, "assessments"); ok {
		report.Goals = assessments
	}
	if guidance, ok := stateValue[models.PaceGuidance](state, stagePaces, "guidance"); ok {
		report.PaceGuidance = &guidance
	}
	if plan, ok := stateValue[models.WorkoutPlan](state, stageWorkouts, "plan"); ok {
		report.WorkoutPlan = &plan
	}

	if insights, ok := stateValue[models.Insights](state, stageInsights, "insights"); ok {
		report.Insights = &insights
	} else {
		report.Insights = s.cannedInsights(report)
	}

	return report
}

// cannedInsights is the substitute narrative when the insights stage
// failed: rule-based text from whatever metrics made it into the
// report, marked as not collaborator-generated.
func (s *ReportService) cannedInsights(report *models.FinalReport) *models.Insights {
	input := InsightsInput{}
	if report.TrainingLoad != nil {
		input.TrainingLoad = *report.TrainingLoad
	}
	if report.VO2Max != nil {
		input.VO2Max = *report.VO2Max
	}
	if report.Weather != nil {
		input.Weather = *report.Weather
	}

	insights, err := NewRuleBasedGenerator().GenerateInsights(context.Background(), input)
	if err != nil || insights == nil {
		return &models.Insights{
			Recommendations: []string{"Keep training consistently and regenerate this report soon"},
		}
	}
	insights.Generated = false
	return insights
}

// seededInput pulls the activity history and reference time every stage
// starts from.
func seededInput(state *pipeline.SharedState) ([]models.ActivitySample, time.Time) {
	activities, _ := stateValue[[]models.ActivitySample](state, stageInput, "activities")
	asOf, ok := stateValue[time.Time](state, stageInput, "as_of")
	if !ok || asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return activities, asOf
}

// stateValue reads one typed key from a stage's published output.
func stateValue[T any](state *pipeline.SharedState, stage, key string) (T, bool) {
	var zero T
	v, ok := state.Value(stage, key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, ok
}
