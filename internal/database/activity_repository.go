package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stridelab/stridecoach/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// ErrProfileNotFound is returned when an athlete has no stored profile.
var ErrProfileNotFound = errors.New("athlete profile not found")

// ActivityRepository loads the athlete data the report pipeline runs on.
type ActivityRepository struct {
	pool DatabasePool
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(pool DatabasePool) *ActivityRepository {
	return &ActivityRepository{
		pool: pool,
	}
}

// FetchRecentActivities returns up to limit activities for the athlete,
// most recent first.
func (r *ActivityRepository) FetchRecentActivities(ctx context.Context, athleteID string, limit int) ([]models.ActivitySample, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, athlete_id, distance_meters, elapsed_seconds, moving_seconds,
		       avg_heart_rate, max_heart_rate, avg_power_watts, avg_speed_mps,
		       activity_date, start_latitude, start_longitude,
		       avg_temperature_c, humidity_pct
		FROM activities
		WHERE athlete_id = $1
		ORDER BY activity_date DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, athleteID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer rows.Close()

	var activities []models.ActivitySample
	for rows.Next() {
		var a models.ActivitySample
		if err := rows.Scan(
			&a.ID,
			&a.AthleteID,
			&a.DistanceMeters,
			&a.ElapsedSeconds,
			&a.MovingSeconds,
			&a.AvgHeartRate,
			&a.MaxHeartRate,
			&a.AvgPowerWatts,
			&a.AvgSpeedMps,
			&a.ActivityDate,
			&a.StartLatitude,
			&a.StartLongitude,
			&a.AvgTemperatureC,
			&a.HumidityPct,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activities: %w", err)
	}

	return activities, nil
}

// FetchAthleteProfile returns the stored profile for an athlete.
func (r *ActivityRepository) FetchAthleteProfile(ctx context.Context, athleteID string) (*models.AthleteProfile, error) {
	query := `
		SELECT athlete_id, mass_kg, threshold_pace_sec_per_km, max_heart_rate,
		       created_at, updated_at
		FROM athlete_profiles
		WHERE athlete_id = $1
	`

	var profile models.AthleteProfile
	err := r.pool.QueryRow(ctx, query, athleteID).Scan(
		&profile.AthleteID,
		&profile.MassKg,
		&profile.ThresholdPaceSecPerKm,
		&profile.MaxHeartRate,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to fetch athlete profile: %w", err)
	}

	return &profile, nil
}

// FetchActiveGoals returns the athlete's active goals, newest first.
func (r *ActivityRepository) FetchActiveGoals(ctx context.Context, athleteID string) ([]models.RunningGoal, error) {
	query := `
		SELECT id, athlete_id, goal_type, target_distance_km, target_seconds,
		       target_date, is_active, created_at
		FROM running_goals
		WHERE athlete_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goals: %w", err)
	}
	defer rows.Close()

	var goals []models.RunningGoal
	for rows.Next() {
		var g models.RunningGoal
		if err := rows.Scan(
			&g.ID,
			&g.AthleteID,
			&g.GoalType,
			&g.TargetDistanceKm,
			&g.TargetSeconds,
			&g.TargetDate,
			&g.IsActive,
			&g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read goals: %w", err)
	}

	return goals, nil
}
