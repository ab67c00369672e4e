package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stridelab/stridecoach/internal/config"
)

// Client is an HTTP client for the Open-Meteo historical archive API.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	timeout    time.Duration
}

// NewClient creates a new Open-Meteo client instance.
func NewClient(cfg *config.WeatherConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout: timeout,
	}
}

// HistoricalHour fetches the archived conditions at a location for the
// hour containing the given time.
func (c *Client) HistoricalHour(ctx context.Context, latitude, longitude float64, at time.Time) (*Observation, error) {
	dateStr := at.Format("2006-01-02")

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", longitude))
	params.Set("start_date", dateStr)
	params.Set("end_date", dateStr)
	params.Set("hourly", "temperature_2m,relative_humidity_2m,wind_speed_10m,precipitation,weather_code")
	params.Set("timezone", "auto")

	var response ArchiveResponse
	if err := c.makeRequest(ctx, "?"+params.Encode(), &response); err != nil {
		return nil, err
	}

	hourIndex := at.Hour()
	hourly := response.Hourly
	if len(hourly.Temperature2m) <= hourIndex || len(hourly.RelativeHumidity2m) <= hourIndex {
		return nil, fmt.Errorf("no weather data available for %s hour %d", dateStr, hourIndex)
	}

	obs := &Observation{
		TemperatureC: hourly.Temperature2m[hourIndex],
		HumidityPct:  hourly.RelativeHumidity2m[hourIndex],
		Timestamp:    at,
	}
	if len(hourly.WindSpeed10m) > hourIndex {
		obs.WindSpeedKmh = hourly.WindSpeed10m[hourIndex]
	}
	if len(hourly.Precipitation) > hourIndex {
		obs.PrecipitationMm = hourly.Precipitation[hourIndex]
	}
	if len(hourly.WeatherCode) > hourIndex {
		obs.WeatherCode = hourly.WeatherCode[hourIndex]
	}
	return obs, nil
}

// makeRequest is a helper method to make HTTP requests to the archive API.
func (c *Client) makeRequest(ctx context.Context, query string, result interface{}) error {
	url := c.BaseURL + query

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "StrideCoach/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Reason != "" {
			return fmt.Errorf("open-meteo error (%d): %s", resp.StatusCode, errorResp.Reason)
		}
		return fmt.Errorf("open-meteo error (%d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// Close closes the HTTP client (if needed for cleanup)
func (c *Client) Close() error {
	// HTTP client doesn't need explicit closing, but this method
	// is provided for interface compatibility
	return nil
}
