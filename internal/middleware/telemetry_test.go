package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/internal/telemetry"
)

func setupTracedRouter(t *testing.T) (*gin.Engine, *bytes.Buffer, *telemetry.Provider) {
	t.Helper()

	var buf bytes.Buffer
	provider, err := telemetry.Init(telemetry.Config{
		Enabled:     true,
		Environment: "test",
		Writer:      &buf,
	})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Tracing())

	return router, &buf, provider
}

func TestTracing_RecordsRequestSpan(t *testing.T) {
	router, buf, provider := setupTracedRouter(t)

	router.GET("/api/v1/athletes/:athleteID/report", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/athletes/athlete-1/report", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, provider.Shutdown(context.Background()))
	exported := buf.String()
	assert.Contains(t, exported, "HTTP GET /api/v1/athletes/athlete-1/report")
	assert.Contains(t, exported, "athlete.id")
}

func TestTracing_SkipsHealthProbes(t *testing.T) {
	router, buf, provider := setupTracedRouter(t)

	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.NotContains(t, buf.String(), "/health/live")
}

func TestTracing_MarksErrorsOnFailureStatus(t *testing.T) {
	router, buf, provider := setupTracedRouter(t)

	router.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "HTTP 500")
}
