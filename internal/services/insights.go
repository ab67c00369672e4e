package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
)

// InsightsInput is the metric bundle the narrative is written from.
type InsightsInput struct {
	TrainingLoad models.TrainingLoadMetrics
	VO2Max       models.VO2MaxEstimate
	Weather      models.WeatherImpact
}

// TextGenerator produces the coaching narrative for a report. The
// production implementation may call an external service; failures are
// surfaced to the caller and the report degrades to canned text.
type TextGenerator interface {
	GenerateInsights(ctx context.Context, input InsightsInput) (*models.Insights, error)
}

// InsightsService wraps a TextGenerator with logging and validation.
type InsightsService struct {
	generator TextGenerator
	logger    *logrus.Logger
}

// NewInsightsService creates a new insights service.
func NewInsightsService(generator TextGenerator, logger *logrus.Logger) *InsightsService {
	return &InsightsService{generator: generator, logger: logger}
}

// Generate asks the collaborator for strengths and recommendations.
// The error is propagated so the stage records a failure instead of
// shipping an empty narrative.
func (s *InsightsService) Generate(ctx context.Context, input InsightsInput) (models.Insights, error) {
	insights, err := s.generator.GenerateInsights(ctx, input)
	if err != nil {
		return models.Insights{}, fmt.Errorf("failed to generate insights: %w", err)
	}
	if insights == nil || (len(insights.Strengths) == 0 && len(insights.Recommendations) == 0) {
		return models.Insights{}, fmt.Errorf("insights generator returned no content")
	}

	s.logger.WithFields(logrus.Fields{
		"strengths":       len(insights.Strengths),
		"recommendations": len(insights.Recommendations),
	}).Info("Insights generated")

	return *insights, nil
}

// RuleBasedGenerator derives the narrative directly from the metrics.
// It is the default TextGenerator and always succeeds.
type RuleBasedGenerator struct{}

// NewRuleBasedGenerator creates the deterministic generator.
func NewRuleBasedGenerator() *RuleBasedGenerator {
	return &RuleBasedGenerator{}
}

// GenerateInsights builds strengths and recommendations from threshold
// rules over the load, aerobic, and weather metrics.
func (g *RuleBasedGenerator) GenerateInsights(_ context.Context, input InsightsInput) (*models.Insights, error) {
	var strengths []string
	var recommendations []string

	load := input.TrainingLoad
	if load.ACWR >= 0.8 && load.ACWR <= 1.3 && load.ACWR > 0 {
		strengths = append(strengths, fmt.Sprintf(
			"Training load is balanced: workload ratio %.2f sits in the optimal range", load.ACWR))
	}
	switch load.RecoveryStatus {
	case models.RecoveryOvertrained:
		recommendations = append(recommendations,
			"Cut volume sharply this week; your recent load far exceeds your base")
	case models.RecoveryOverreaching:
		recommendations = append(recommendations,
			"Schedule a recovery week; sustained load at this level invites injury")
	case models.RecoveryFatigued:
		recommendations = append(recommendations,
			"Favor easy running for a few days before the next hard session")
	case models.RecoveryWellRecovered:
		recommendations = append(recommendations,
			"You are fresh; this is a good week for a harder workout or a long run")
	}
	if load.InjuryRisk == models.InjuryRiskHigh || load.InjuryRisk == models.InjuryRiskVeryHigh {
		recommendations = append(recommendations,
			"Ramp down the weekly increase; keep load growth under 10% per week")
	}

	vo2 := input.VO2Max
	switch vo2.FitnessLevel {
	case "elite", "excellent":
		strengths = append(strengths, fmt.Sprintf(
			"Aerobic engine is a major asset: estimated VO2 max %.1f ml/kg/min", vo2.Value))
	case "good":
		strengths = append(strengths, fmt.Sprintf(
			"Solid aerobic fitness: estimated VO2 max %.1f ml/kg/min", vo2.Value))
	}
	if vo2.DataQuality < 0.5 {
		recommendations = append(recommendations,
			"Record heart rate or race a 5K to sharpen the fitness estimate")
	}

	weather := input.Weather
	if weather.HeatAcclimation == models.AcclimationWellAcclimated {
		strengths = append(strengths, "Well acclimated to training in the heat")
	}
	switch weather.ImpactLevel {
	case models.ImpactSevere, models.ImpactSignificant:
		recommendations = append(recommendations, fmt.Sprintf(
			"Heat is costing roughly %.0fs per mile; shift key sessions to %s",
			weather.PaceDegradationSecPerMile, firstOr(weather.OptimalTrainingTimes, "cooler hours")))
	}

	if len(strengths) == 0 {
		strengths = append(strengths, "Building a running habit; every week of consistency compounds")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations,
			"Keep the current structure and reassess in four weeks")
	}

	return &models.Insights{
		Strengths:       strengths,
		Recommendations: recommendations,
		Generated:       true,
	}, nil
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
