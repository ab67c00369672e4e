package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/internal/models"
)

func setupReportCache(t *testing.T, ttl time.Duration) (*ReportCache, *miniredis.Miniredis) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
		s.Close()
	})

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return NewReportCache(client, ttl, logger), s
}

func sampleReport(athleteID string) *models.FinalReport {
	return &models.FinalReport{
		ReportID:    "run-123",
		AthleteID:   athleteID,
		GeneratedAt: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		TrainingLoad: &models.TrainingLoadMetrics{
			AcuteLoad7d:    380.0,
			ChronicLoad28d: 360.0,
			ACWR:           1.06,
			RecoveryStatus: models.RecoveryAdequate,
			InjuryRisk:     models.InjuryRiskLow,
			Trend:          models.LoadTrendSteady,
		},
		StagesCompleted: []string{"input", "training_load"},
		StageDurations:  map[string]time.Duration{},
		StageErrors:     []models.StageError{},
	}
}

func TestReportCache_SetAndGet(t *testing.T) {
	cache, _ := setupReportCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, sampleReport("athlete-1")))

	got, err := cache.Get(ctx, "athlete-1")
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run-123", got.ReportID)
	assert.Equal(t, "athlete-1", got.AthleteID)
	require.NotNil(t, got.TrainingLoad)
	assert.InDelta(t, 1.06, got.TrainingLoad.ACWR, 0.001)
	assert.Equal(t, models.RecoveryAdequate, got.TrainingLoad.RecoveryStatus)
}

func TestReportCache_GetMiss(t *testing.T) {
	cache, _ := setupReportCache(t, time.Hour)

	got, err := cache.Get(context.Background(), "unknown")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestReportCache_Expiry(t *testing.T) {
	cache, s := setupReportCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, sampleReport("athlete-1")))

	s.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, "athlete-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestReportCache_CorruptedEntryIsMiss(t *testing.T) {
	cache, s := setupReportCache(t, time.Hour)

	require.NoError(t, s.Set("stridecoach:report:athlete-1", "{not json"))

	got, err := cache.Get(context.Background(), "athlete-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestReportCache_Invalidate(t *testing.T) {
	cache, _ := setupReportCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, sampleReport("athlete-1")))
	require.NoError(t, cache.Invalidate(ctx, "athlete-1"))

	got, err := cache.Get(ctx, "athlete-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestReportCache_RejectsNilReport(t *testing.T) {
	cache, _ := setupReportCache(t, time.Hour)

	err := cache.Set(context.Background(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nil report")
}

func TestReportCache_DefaultTTL(t *testing.T) {
	cache, _ := setupReportCache(t, 0)
	assert.Equal(t, time.Hour, cache.ttl)
}
