package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivitySample is the normalized view of one completed run, as produced
// by the sync layer. It is immutable once constructed; every estimator
// consumes it read-only.
type ActivitySample struct {
	ID              string           `json:"id" db:"id"`
	AthleteID       string           `json:"athlete_id" db:"athlete_id"`
	DistanceMeters  decimal.Decimal  `json:"distance_meters" db:"distance_meters"`
	ElapsedSeconds  int              `json:"elapsed_seconds" db:"elapsed_seconds"`
	MovingSeconds   int              `json:"moving_seconds" db:"moving_seconds"`
	AvgHeartRate    *int             `json:"avg_heart_rate,omitempty" db:"avg_heart_rate"`
	MaxHeartRate    *int             `json:"max_heart_rate,omitempty" db:"max_heart_rate"`
	AvgPowerWatts   *int             `json:"avg_power_watts,omitempty" db:"avg_power_watts"`
	AvgSpeedMps     *decimal.Decimal `json:"avg_speed_mps,omitempty" db:"avg_speed_mps"`
	ActivityDate    time.Time        `json:"activity_date" db:"activity_date"`
	StartLatitude   *decimal.Decimal `json:"start_latitude,omitempty" db:"start_latitude"`
	StartLongitude  *decimal.Decimal `json:"start_longitude,omitempty" db:"start_longitude"`
	AvgTemperatureC *decimal.Decimal `json:"avg_temperature_c,omitempty" db:"avg_temperature_c"`
	HumidityPct     *decimal.Decimal `json:"humidity_pct,omitempty" db:"humidity_pct"`
}

// DistanceKm returns the activity distance in kilometers.
func (a *ActivitySample) DistanceKm() float64 {
	km, _ := a.DistanceMeters.Div(decimal.NewFromInt(1000)).Float64()
	return km
}

// MovingHours returns the moving time in hours.
func (a *ActivitySample) MovingHours() float64 {
	return float64(a.MovingSeconds) / 3600.0
}

// HasHeartRate reports whether both average and max heart rate are present.
func (a *ActivitySample) HasHeartRate() bool {
	return a.AvgHeartRate != nil && a.MaxHeartRate != nil && *a.MaxHeartRate > 0
}

// HasLocation reports whether the activity has start coordinates.
func (a *ActivitySample) HasLocation() bool {
	return a.StartLatitude != nil && a.StartLongitude != nil
}

// AthleteProfile holds the athlete attributes the estimators depend on.
type AthleteProfile struct {
	AthleteID             string           `json:"athlete_id" db:"athlete_id"`
	MassKg                decimal.Decimal  `json:"mass_kg" db:"mass_kg"`
	ThresholdPaceSecPerKm *decimal.Decimal `json:"threshold_pace_sec_per_km,omitempty" db:"threshold_pace_sec_per_km"`
	MaxHeartRate          *int             `json:"max_heart_rate,omitempty" db:"max_heart_rate"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
}

// GoalType categorizes a running goal.
type GoalType string

const (
	GoalTypeRaceTime    GoalType = "race_time"
	GoalTypeDistance    GoalType = "distance"
	GoalTypeConsistency GoalType = "consistency"
)

// RunningGoal is an active goal the athlete is training toward.
type RunningGoal struct {
	ID               string          `json:"id" db:"id"`
	AthleteID        string          `json:"athlete_id" db:"athlete_id"`
	GoalType         GoalType        `json:"goal_type" db:"goal_type"`
	TargetDistanceKm decimal.Decimal `json:"target_distance_km" db:"target_distance_km"`
	TargetSeconds    *int            `json:"target_seconds,omitempty" db:"target_seconds"`
	TargetDate       *time.Time      `json:"target_date,omitempty" db:"target_date"`
	IsActive         bool            `json:"is_active" db:"is_active"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}
