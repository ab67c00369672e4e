package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stridelab/stridecoach/internal/database"
	"github.com/stridelab/stridecoach/internal/logging"
	"github.com/stridelab/stridecoach/internal/middleware"
	"github.com/stridelab/stridecoach/internal/models"
	"github.com/stridelab/stridecoach/internal/services"
	"github.com/stridelab/stridecoach/internal/utils"
)

// ReportGenerator runs the analysis pipeline for one athlete.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, input services.ReportInput) (*models.FinalReport, error)
}

// ActivityStore loads the athlete data the pipeline consumes.
type ActivityStore interface {
	FetchRecentActivities(ctx context.Context, athleteID string, limit int) ([]models.ActivitySample, error)
	FetchAthleteProfile(ctx context.Context, athleteID string) (*models.AthleteProfile, error)
	FetchActiveGoals(ctx context.Context, athleteID string) ([]models.RunningGoal, error)
}

// ReportCacher stores generated reports between requests.
type ReportCacher interface {
	Get(ctx context.Context, athleteID string) (*models.FinalReport, error)
	Set(ctx context.Context, report *models.FinalReport) error
}

// ReportHandler serves coaching report generation and retrieval.
type ReportHandler struct {
	generator       ReportGenerator
	store           ActivityStore
	cache           ReportCacher
	activityLimit   int
	pipelineTimeout time.Duration
	logger          *logrus.Logger
}

func NewReportHandler(generator ReportGenerator, store ActivityStore, cache ReportCacher, activityLimit int, logger *logrus.Logger) *ReportHandler {
	if activityLimit <= 0 {
		activityLimit = 200
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ReportHandler{
		generator:       generator,
		store:           store,
		cache:           cache,
		activityLimit:   activityLimit,
		pipelineTimeout: 60 * time.Second,
		logger:          logger,
	}
}

// WithPipelineTimeout overrides the per-request pipeline deadline.
func (h *ReportHandler) WithPipelineTimeout(timeout time.Duration) *ReportHandler {
	if timeout > 0 {
		h.pipelineTimeout = timeout
	}
	return h
}

// GetReport returns the cached report for the athlete, generating one on
// a cache miss.
func (h *ReportHandler) GetReport(c *gin.Context) {
	athleteID := c.Param("athleteID")
	if athleteID == "" {
		err := utils.NewFieldValidationError("athlete_id", "must not be empty")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.cache != nil {
		cached, err := h.cache.Get(c.Request.Context(), athleteID)
		if err != nil {
			h.logger.WithError(err).Warn("Report cache lookup failed")
		} else if cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	h.generateAndRespond(c, athleteID)
}

// GenerateReport always runs the pipeline fresh and refreshes the cache.
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	athleteID := c.Param("athleteID")
	if athleteID == "" {
		err := utils.NewFieldValidationError("athlete_id", "must not be empty")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.generateAndRespond(c, athleteID)
}

func (h *ReportHandler) generateAndRespond(c *gin.Context, athleteID string) {
	ctx := c.Request.Context()
	log := logging.WithAthlete(h.logger, athleteID)

	activities, err := h.store.FetchRecentActivities(ctx, athleteID, h.activityLimit)
	if err != nil {
		log.WithError(err).Error("Failed to load activities")
		middleware.RecordError(c, err, "failed to load activity history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity history"})
		return
	}

	profile, err := h.store.FetchAthleteProfile(ctx, athleteID)
	if err != nil {
		if !errors.Is(err, database.ErrProfileNotFound) {
			log.WithError(err).Error("Failed to load athlete profile")
			middleware.RecordError(c, err, "failed to load athlete profile")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load athlete profile"})
			return
		}
		// No stored profile: estimators fall back to population defaults.
		profile = &models.AthleteProfile{AthleteID: athleteID}
	}

	goals, err := h.store.FetchActiveGoals(ctx, athleteID)
	if err != nil {
		log.WithError(err).Error("Failed to load goals")
		middleware.RecordError(c, err, "failed to load goals")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load goals"})
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, h.pipelineTimeout)
	defer cancel()

	report, err := h.generator.GenerateReport(runCtx, services.ReportInput{
		AthleteID:  athleteID,
		Activities: activities,
		Profile:    *profile,
		Goals:      goals,
		AsOf:       time.Now().UTC(),
	})
	if err != nil {
		log.WithError(err).Error("Pipeline configuration error")
		middleware.RecordError(c, err, "pipeline configuration error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, report); err != nil {
			log.WithError(err).Warn("Failed to cache report")
		}
	}

	c.JSON(http.StatusOK, report)
}
