package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/models"
)

const reportKeyPrefix = "stridecoach:report:"

// ReportCache keeps recently generated coaching reports in Redis so that
// repeated requests for the same athlete do not re-run the pipeline.
type ReportCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logrus.Logger
}

// NewReportCache creates a report cache. A zero or negative ttl disables
// expiration-based reuse and falls back to one hour.
func NewReportCache(client redis.Cmdable, ttl time.Duration, logger *logrus.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ReportCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func reportKey(athleteID string) string {
	return reportKeyPrefix + athleteID
}

// Get returns the cached report for the athlete, or (nil, nil) on a miss.
func (c *ReportCache) Get(ctx context.Context, athleteID string) (*models.FinalReport, error) {
	data, err := c.client.Get(ctx, reportKey(athleteID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached report: %w", err)
	}

	var report models.FinalReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		// A corrupted entry is treated as a miss so the pipeline can
		// regenerate and overwrite it.
		c.logger.WithFields(logrus.Fields{
			"athlete_id": athleteID,
			"error":      err.Error(),
		}).Warn("Discarding unreadable cached report")
		return nil, nil
	}

	return &report, nil
}

// Set stores the report under the athlete's key with the configured TTL.
func (c *ReportCache) Set(ctx context.Context, report *models.FinalReport) error {
	if report == nil {
		return fmt.Errorf("cannot cache nil report")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	if err := c.client.Set(ctx, reportKey(report.AthleteID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}

	return nil
}

// Invalidate drops the cached report for the athlete, if any.
func (c *ReportCache) Invalidate(ctx context.Context, athleteID string) error {
	if err := c.client.Del(ctx, reportKey(athleteID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached report: %w", err)
	}
	return nil
}
