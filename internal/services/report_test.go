package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/internal/models"
	"github.com/stridelab/stridecoach/pkg/openmeteo"
)

func reportInput(asOf time.Time) ReportInput {
	var activities []models.ActivitySample
	for day := 1; day <= 28; day++ {
		a := hrRun(asOf, day, 8, 45, 150, 185)
		a.StartLatitude = decimalPtr(40.7128)
		a.StartLongitude = decimalPtr(-74.0060)
		activities = append(activities, a)
	}
	// One 5K race effort so the VO2 path has a race anchor.
	effort := raceEffort(5000, 1200)
	effort.ActivityDate = asOf.AddDate(0, 0, -5)
	activities = append(activities, effort)

	return ReportInput{
		AthleteID:  "athlete-1",
		Activities: activities,
		Profile:    models.AthleteProfile{AthleteID: "athlete-1"},
		Goals:      []models.RunningGoal{raceGoal(10.0, 2520)},
		AsOf:       asOf,
	}
}

func mildWeatherProvider() *stubWeatherProvider {
	return &stubWeatherProvider{obs: []openmeteo.Observation{
		{TemperatureC: 15, HumidityPct: 55},
	}}
}

func TestGenerateReport_FullPipeline(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	svc := NewReportService(mildWeatherProvider(), 30, nil, testServiceLogger())

	report, err := svc.GenerateReport(context.Background(), reportInput(asOf))
	require.NoError(t, err)

	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, "athlete-1", report.AthleteID)
	assert.Empty(t, report.StageErrors)

	// All nine stages completed, synthesis strictly last.
	require.Len(t, report.StagesCompleted, 9)
	assert.Equal(t, "synthesis", report.StagesCompleted[8])
	assert.Len(t, report.StageDurations, 9)

	require.NotNil(t, report.TrainingLoad)
	assert.InDelta(t, 1.0, report.TrainingLoad.ACWR, 0.15)

	require.NotNil(t, report.VO2Max)
	assert.Greater(t, report.VO2Max.Value, 40.0)
	assert.NotEmpty(t, report.VO2Max.RacePredictions)

	require.NotNil(t, report.Weather)
	assert.Equal(t, models.ImpactMinimal, report.Weather.ImpactLevel)

	require.NotNil(t, report.Performance)
	require.Len(t, report.Goals, 1)
	require.NotNil(t, report.PaceGuidance)
	assert.NotEmpty(t, report.PaceGuidance.Targets)
	require.NotNil(t, report.WorkoutPlan)
	assert.Len(t, report.WorkoutPlan.Workouts, 7)
	require.NotNil(t, report.Insights)
	assert.True(t, report.Insights.Generated)
}

func TestGenerateReport_InsightsFailureDegrades(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	failing := &stubGenerator{err: errors.New("model unavailable")}
	svc := NewReportService(mildWeatherProvider(), 30, failing, testServiceLogger())

	report, err := svc.GenerateReport(context.Background(), reportInput(asOf))
	require.NoError(t, err)

	require.Len(t, report.StageErrors, 1)
	assert.Equal(t, "insights", report.StageErrors[0].Stage)
	assert.Contains(t, report.StageErrors[0].Message, "model unavailable")

	// Canned substitute text, explicitly not collaborator-generated.
	require.NotNil(t, report.Insights)
	assert.False(t, report.Insights.Generated)
	assert.NotEmpty(t, report.Insights.Recommendations)

	// Every other section is intact.
	assert.NotNil(t, report.TrainingLoad)
	assert.NotNil(t, report.VO2Max)
	assert.NotNil(t, report.WorkoutPlan)
	assert.Len(t, report.StagesCompleted, 9)
}

func TestGenerateReport_EmptyHistoryUsesFallbacks(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	svc := NewReportService(mildWeatherProvider(), 30, nil, testServiceLogger())

	report, err := svc.GenerateReport(context.Background(), ReportInput{
		AthleteID: "athlete-2",
		AsOf:      asOf,
	})
	require.NoError(t, err)

	assert.Empty(t, report.StageErrors)
	require.NotNil(t, report.TrainingLoad)
	assert.Equal(t, models.RecoveryWellRecovered, report.TrainingLoad.RecoveryStatus)
	assert.Equal(t, models.InjuryRiskLow, report.TrainingLoad.InjuryRisk)

	require.NotNil(t, report.VO2Max)
	assert.Equal(t, 40.0, report.VO2Max.Value)
	assert.Equal(t, 0.3, report.VO2Max.DataQuality)

	require.NotNil(t, report.Weather)
	assert.Equal(t, 15.0, report.Weather.AvgTempC)
	assert.Empty(t, report.Goals)
}

func TestGenerateReport_DeterministicSections(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	input := reportInput(asOf)

	first, err := NewReportService(mildWeatherProvider(), 30, nil, testServiceLogger()).
		GenerateReport(context.Background(), input)
	require.NoError(t, err)

	second, err := NewReportService(mildWeatherProvider(), 30, nil, testServiceLogger()).
		GenerateReport(context.Background(), input)
	require.NoError(t, err)

	assert.NotEqual(t, first.ReportID, second.ReportID)
	assert.Equal(t, first.TrainingLoad, second.TrainingLoad)
	assert.Equal(t, first.VO2Max, second.VO2Max)
	assert.Equal(t, first.Weather, second.Weather)
	assert.Equal(t, first.Performance, second.Performance)
	assert.Equal(t, first.Goals, second.Goals)
	assert.Equal(t, first.PaceGuidance, second.PaceGuidance)
	assert.Equal(t, first.WorkoutPlan, second.WorkoutPlan)
	assert.Equal(t, first.Insights, second.Insights)
}

func TestGenerateReport_WeatherProviderOutage(t *testing.T) {
	asOf := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	broken := &stubWeatherProvider{err: errors.New("archive unavailable")}
	svc := NewReportService(broken, 30, nil, testServiceLogger())

	report, err := svc.GenerateReport(context.Background(), reportInput(asOf))
	require.NoError(t, err)

	// Weather degrades per-sample, not as a stage failure.
	assert.Empty(t, report.StageErrors)
	require.NotNil(t, report.Weather)
	assert.Equal(t, 0, report.Weather.SamplesAnalyzed)
	assert.Equal(t, models.ImpactMinimal, report.Weather.ImpactLevel)
}
