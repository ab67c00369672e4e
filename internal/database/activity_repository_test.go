package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/internal/models"
)

// MockPoolAdapter wraps pgxmock.PgxPoolIface to implement DatabasePool interface
type MockPoolAdapter struct {
	mock pgxmock.PgxPoolIface
}

func NewMockPoolAdapter(mock pgxmock.PgxPoolIface) DatabasePool {
	return &MockPoolAdapter{mock: mock}
}

func (m *MockPoolAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return m.mock.QueryRow(ctx, sql, args...)
}

func (m *MockPoolAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	result, err := m.mock.Exec(ctx, sql, args...)
	if err == nil {
		rows := result.RowsAffected()
		return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", rows)), nil
	}
	return pgconn.CommandTag{}, err
}

func (m *MockPoolAdapter) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return m.mock.Query(ctx, sql, args...)
}

var activityColumns = []string{
	"id", "athlete_id", "distance_meters", "elapsed_seconds", "moving_seconds",
	"avg_heart_rate", "max_heart_rate", "avg_power_watts", "avg_speed_mps",
	"activity_date", "start_latitude", "start_longitude",
	"avg_temperature_c", "humidity_pct",
}

func TestActivityRepository_FetchRecentActivities_Success(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewActivityRepository(NewMockPoolAdapter(mockPool))
	ctx := context.Background()

	first := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	second := time.Date(2026, 3, 8, 7, 0, 0, 0, time.UTC)
	hr := 152
	maxHR := 185

	mockPool.ExpectQuery(`SELECT id, athlete_id, distance_meters`).
		WithArgs("athlete-1", 50).
		WillReturnRows(
			pgxmock.NewRows(activityColumns).
				AddRow("act-1", "athlete-1", decimal.NewFromInt(10000), 3100, 3000,
					&hr, &maxHR, nil, nil, first, nil, nil, nil, nil).
				AddRow("act-2", "athlete-1", decimal.NewFromInt(8000), 2500, 2400,
					nil, nil, nil, nil, second, nil, nil, nil, nil),
		)

	activities, err := repo.FetchRecentActivities(ctx, "athlete-1", 50)
	assert.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "act-1", activities[0].ID)
	assert.Equal(t, 10.0, activities[0].DistanceKm())
	assert.True(t, activities[0].HasHeartRate())
	assert.Equal(t, "act-2", activities[1].ID)
	assert.False(t, activities[1].HasHeartRate())

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestActivityRepository_FetchRecentActivities_DefaultsLimit(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewActivityRepository(NewMockPoolAdapter(mockPool))

	mockPool.ExpectQuery(`SELECT id, athlete_id, distance_meters`).
		WithArgs("athlete-1", 100).
		WillReturnRows(pgxmock.NewRows(activityColumns))

	activities, err := repo.FetchRecentActivities(context.Background(), "athlete-1", 0)
	assert.NoError(t, err)
	assert.Empty(t, activities)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestActivityRepository_FetchRecentActivities_QueryError(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewActivityRepository(NewMockPoolAdapter(mockPool))

	mockPool.ExpectQuery(`SELECT id, athlete_id, distance_meters`).
		WithArgs("athlete-1", 50).
		WillReturnError(fmt.Errorf("connection reset"))

	activities, err := repo.FetchRecentActivities(context.Background(), "athlete-1", 50)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch activities")
	assert.Nil(t, activities)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestActivityRepository_FetchAthleteProfile_Success(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewActivityRepository(NewMockPoolAdapter(mockPool))

	created := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	threshold := decimal.NewFromInt(255)
	maxHR := 190

	mockPool.ExpectQuery(`SELECT athlete_id, mass_kg, threshold_pace_sec_per_km`).
		WithArgs("athlete-1").
		WillReturnRows(
			pgxmock.NewRows([]string{
				"athlete_id", "mass_kg", "threshold_pace_sec_per_km",
				"max_heart_rate", "created_at", "updated_at",
			}).AddRow("athlete-1", decimal.NewFromFloat(72.5), &threshold, &maxHR, created, created),
		)

	profile, err := repo.FetchAthleteProfile(context.Background(), "athlete-1")
	assert.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "athlete-1", profile.AthleteID)
	assert.True(t, profile.MassKg.Equal(decimal.NewFromFloat(72.5)))
	require.NotNil(t, profile.ThresholdPaceSecPerKm)
	assert.True(t, profile.ThresholdPaceSecPerKm.Equal(decimal.NewFromInt(255)))
	require.NotNil(t, profile.MaxHeartRate)
	assert.Equal(t, 190, *profile.MaxHeartRate)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestActivityRepository_FetchAthleteProfile_NotFound(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewActivityRepository(NewMockPoolAdapter(mockPool))

	mockPool.ExpectQuery(`SELECT athlete_id, mass_kg, threshold_pace_sec_per_km`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	profile, err := repo.FetchAthleteProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Nil(t, profile)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestActivityRepository_FetchActiveGoals_Success(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewActivityRepository(NewMockPoolAdapter(mockPool))

	created := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	target := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	targetSeconds := 2520

	mockPool.ExpectQuery(`SELECT id, athlete_id, goal_type, target_distance_km`).
		WithArgs("athlete-1").
		WillReturnRows(
			pgxmock.NewRows([]string{
				"id", "athlete_id", "goal_type", "target_distance_km",
				"target_seconds", "target_date", "is_active", "created_at",
			}).
				AddRow("goal-1", "athlete-1", models.GoalTypeRaceTime, decimal.NewFromInt(10),
					&targetSeconds, &target, true, created).
				AddRow("goal-2", "athlete-1", models.GoalTypeConsistency, decimal.Zero,
					nil, nil, true, created.Add(-24*time.Hour)),
		)

	goals, err := repo.FetchActiveGoals(context.Background(), "athlete-1")
	assert.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, models.GoalTypeRaceTime, goals[0].GoalType)
	require.NotNil(t, goals[0].TargetSeconds)
	assert.Equal(t, 2520, *goals[0].TargetSeconds)
	assert.Equal(t, models.GoalTypeConsistency, goals[1].GoalType)
	assert.Nil(t, goals[1].TargetSeconds)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestActivityRepository_FetchActiveGoals_Empty(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewActivityRepository(NewMockPoolAdapter(mockPool))

	mockPool.ExpectQuery(`SELECT id, athlete_id, goal_type, target_distance_km`).
		WithArgs("athlete-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "athlete_id", "goal_type", "target_distance_km",
			"target_seconds", "target_date", "is_active", "created_at",
		}))

	goals, err := repo.FetchActiveGoals(context.Background(), "athlete-1")
	assert.NoError(t, err)
	assert.Empty(t, goals)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
