package openmeteo

import "time"

// ArchiveResponse is the Open-Meteo historical weather archive payload.
type ArchiveResponse struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Timezone  string      `json:"timezone"`
	Hourly    HourlyBlock `json:"hourly"`
}

// HourlyBlock carries parallel per-hour series for one day.
type HourlyBlock struct {
	Time               []string  `json:"time"`
	Temperature2m      []float64 `json:"temperature_2m"`
	RelativeHumidity2m []float64 `json:"relative_humidity_2m"`
	WindSpeed10m       []float64 `json:"wind_speed_10m"`
	Precipitation      []float64 `json:"precipitation"`
	WeatherCode        []int     `json:"weather_code"`
}

// ErrorResponse is the Open-Meteo error payload.
type ErrorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Observation is the weather at one location and hour.
type Observation struct {
	TemperatureC    float64   `json:"temperature_c"`
	HumidityPct     float64   `json:"humidity_pct"`
	WindSpeedKmh    float64   `json:"wind_speed_kmh"`
	PrecipitationMm float64   `json:"precipitation_mm"`
	WeatherCode     int       `json:"weather_code"`
	Timestamp       time.Time `json:"timestamp"`
}
