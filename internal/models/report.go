package models

import (
	"time"
)

// RecoveryStatus classifies how recovered the athlete currently is.
type RecoveryStatus string

const (
	RecoveryWellRecovered RecoveryStatus = "well_recovered"
	RecoveryAdequate      RecoveryStatus = "adequate"
	RecoveryFatigued      RecoveryStatus = "fatigued"
	RecoveryOverreaching  RecoveryStatus = "overreaching"
	RecoveryOvertrained   RecoveryStatus = "overtrained"
)

// InjuryRisk classifies injury risk derived from the workload ratio.
type InjuryRisk string

const (
	InjuryRiskLow      InjuryRisk = "low"
	InjuryRiskModerate InjuryRisk = "moderate"
	InjuryRiskHigh     InjuryRisk = "high"
	InjuryRiskVeryHigh InjuryRisk = "very_high"
)

// LoadTrend is the direction the training load is moving.
type LoadTrend string

const (
	LoadTrendRampingUp  LoadTrend = "ramping_up"
	LoadTrendSteady     LoadTrend = "steady"
	LoadTrendTapering   LoadTrend = "tapering"
	LoadTrendDetraining LoadTrend = "detraining"
)

// FitnessTrend compares the current chronic load against the prior block.
type FitnessTrend string

const (
	FitnessImproving        FitnessTrend = "improving"
	FitnessMaintaining      FitnessTrend = "maintaining"
	FitnessDeclining        FitnessTrend = "declining"
	FitnessInsufficientData FitnessTrend = "insufficient_data"
)

// TrainingLoadMetrics is the output of the training load estimator.
type TrainingLoadMetrics struct {
	AcuteLoad7d    float64        `json:"acute_load_7d"`
	ChronicLoad28d float64        `json:"chronic_load_28d"`
	ACWR           float64        `json:"acwr"`
	WeeklyTSS      float64        `json:"weekly_tss"`
	WeeklyVolumeKm float64        `json:"weekly_volume_km"`
	RecoveryStatus RecoveryStatus `json:"recovery_status"`
	InjuryRisk     InjuryRisk     `json:"injury_risk"`
	Trend          LoadTrend      `json:"trend"`
	FitnessTrend   FitnessTrend   `json:"fitness_trend"`
}

// PredictionConfidence grades how much to trust a race prediction.
type PredictionConfidence string

const (
	ConfidenceHigh   PredictionConfidence = "high"
	ConfidenceMedium PredictionConfidence = "medium"
	ConfidenceLow    PredictionConfidence = "low"
)

// RacePrediction is a predicted finish time for a standard distance.
type RacePrediction struct {
	DistanceName     string               `json:"distance_name"`
	DistanceKm       float64              `json:"distance_km"`
	PredictedSeconds int                  `json:"predicted_seconds"`
	PacePerKm        string               `json:"pace_per_km"`
	Confidence       PredictionConfidence `json:"confidence"`
}

// VO2MaxEstimate is the output of the aerobic capacity estimator.
// Value is bounded to [20, 85] ml/kg/min.
type VO2MaxEstimate struct {
	Value           float64          `json:"value"`
	Method          string           `json:"method"`
	FitnessLevel    string           `json:"fitness_level"`
	VVO2MaxPace     *string          `json:"vvo2max_pace,omitempty"`
	RacePredictions []RacePrediction `json:"race_predictions"`
	DataQuality     float64          `json:"data_quality"`
}

// HeatAcclimation grades the athlete's adaptation to warm conditions.
type HeatAcclimation string

const (
	AcclimationNone           HeatAcclimation = "none"
	AcclimationDeveloping     HeatAcclimation = "developing"
	AcclimationWellAcclimated HeatAcclimation = "well_acclimated"
)

// WeatherImpactLevel grades how much weather is costing the athlete.
type WeatherImpactLevel string

const (
	ImpactMinimal     WeatherImpactLevel = "minimal"
	ImpactModerate    WeatherImpactLevel = "moderate"
	ImpactSignificant WeatherImpactLevel = "significant"
	ImpactSevere      WeatherImpactLevel = "severe"
)

// WeatherImpact is the output of the weather impact estimator.
type WeatherImpact struct {
	AvgTempC                  float64            `json:"avg_temp_c"`
	AvgHumidityPct            float64            `json:"avg_humidity_pct"`
	HeatStressRuns            int                `json:"heat_stress_runs"`
	IdealConditionRuns        int                `json:"ideal_condition_runs"`
	SamplesAnalyzed           int                `json:"samples_analyzed"`
	PaceDegradationSecPerMile float64            `json:"pace_degradation_sec_per_mile"`
	HeatAcclimation           HeatAcclimation    `json:"heat_acclimation"`
	ImpactLevel               WeatherImpactLevel `json:"impact_level"`
	OptimalTrainingTimes      []string           `json:"optimal_training_times"`
}

// PerformanceTrend is the direction recent performance is moving.
type PerformanceTrend string

const (
	PerformanceImproving PerformanceTrend = "improving"
	PerformanceStable    PerformanceTrend = "stable"
	PerformanceDeclining PerformanceTrend = "declining"
)

// PerformanceSummary is the output of the performance trend stage.
type PerformanceSummary struct {
	WeeklyMileageKm float64          `json:"weekly_mileage_km"`
	Consistency     float64          `json:"consistency"`
	AvgPacePerKm    string           `json:"avg_pace_per_km"`
	Trend           PerformanceTrend `json:"trend"`
}

// GoalStatus summarizes whether the athlete is tracking toward a goal.
type GoalStatus string

const (
	GoalOnTrack         GoalStatus = "on_track"
	GoalBehind          GoalStatus = "behind"
	GoalAhead           GoalStatus = "ahead"
	GoalNeedsAdjustment GoalStatus = "needs_adjustment"
)

// GoalAssessment is the per-goal output of the goal progress stage.
type GoalAssessment struct {
	GoalID           string     `json:"goal_id"`
	GoalType         GoalType   `json:"goal_type"`
	Status           GoalStatus `json:"status"`
	ProgressPct      float64    `json:"progress_pct"`
	FeasibilityScore float64    `json:"feasibility_score"`
	Notes            []string   `json:"notes"`
}

// PaceTarget is a recommended training pace band.
type PaceTarget struct {
	Name          string `json:"name"`
	PacePerKm     string `json:"pace_per_km"`
	HeatAdjusted  string `json:"heat_adjusted_pace_per_km"`
	HeartRateZone string `json:"heart_rate_zone"`
	Description   string `json:"description"`
}

// PaceGuidance is the output of the pace guidance stage.
type PaceGuidance struct {
	Targets            []PaceTarget `json:"targets"`
	WeatherAdjustedSec float64      `json:"weather_adjustment_sec_per_mile"`
}

// PlannedWorkout is one day of the workout plan.
type PlannedWorkout struct {
	Day         int    `json:"day"`
	WorkoutType string `json:"workout_type"`
	Description string `json:"description"`
}

// WorkoutPlan is the output of the workout planning stage.
type WorkoutPlan struct {
	Workouts []PlannedWorkout `json:"workouts"`
	Basis    string           `json:"basis"`
}

// Insights carries the free-text strengths and recommendations, either
// collaborator-generated or rule-based fallback.
type Insights struct {
	Strengths       []string `json:"strengths"`
	Recommendations []string `json:"recommendations"`
	Generated       bool     `json:"generated"`
}

// StageError records one isolated stage failure.
type StageError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// FinalReport is the reduced output of one pipeline run. It is always
// produced, even when individual stages failed; the only signal of a
// partial outage is StageErrors.
type FinalReport struct {
	ReportID        string                   `json:"report_id"`
	AthleteID       string                   `json:"athlete_id"`
	GeneratedAt     time.Time                `json:"generated_at"`
	TrainingLoad    *TrainingLoadMetrics     `json:"training_load,omitempty"`
	VO2Max          *VO2MaxEstimate          `json:"vo2max,omitempty"`
	Weather         *WeatherImpact           `json:"weather,omitempty"`
	Performance     *PerformanceSummary      `json:"performance,omitempty"`
	Goals           []GoalAssessment         `json:"goals,omitempty"`
	PaceGuidance    *PaceGuidance            `json:"pace_guidance,omitempty"`
	WorkoutPlan     *WorkoutPlan             `json:"workout_plan,omitempty"`
	Insights        *Insights                `json:"insights,omitempty"`
	StagesCompleted []string                 `json:"stages_completed"`
	StageDurations  map[string]time.Duration `json:"stage_durations"`
	StageErrors     []StageError             `json:"stage_errors"`
}
