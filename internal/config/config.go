package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Weather     WeatherConfig  `mapstructure:"weather"`
	Analysis    AnalysisConfig `mapstructure:"analysis"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WeatherConfig points at the Open-Meteo archive API. No API key is
// required for the free tier.
type WeatherConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// AnalysisConfig tunes the report pipeline.
type AnalysisConfig struct {
	ActivityWindowDays int    `mapstructure:"activity_window_days"`
	MaxWeatherLookups  int    `mapstructure:"max_weather_lookups"`
	PipelineTimeout    string `mapstructure:"pipeline_timeout"`
	ReportCacheTTL     string `mapstructure:"report_cache_ttl"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if _, err := time.ParseDuration(config.Analysis.PipelineTimeout); err != nil {
		return nil, fmt.Errorf("invalid pipeline timeout duration: %w", err)
	}
	if _, err := time.ParseDuration(config.Analysis.ReportCacheTTL); err != nil {
		return nil, fmt.Errorf("invalid report cache TTL duration: %w", err)
	}
	if config.Analysis.ActivityWindowDays <= 0 {
		return nil, fmt.Errorf("activity window must be positive, got %d", config.Analysis.ActivityWindowDays)
	}

	return &config, nil
}

// PipelineTimeoutDuration returns the parsed pipeline timeout. Load
// validated the string already.
func (c *Config) PipelineTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Analysis.PipelineTimeout)
	return d
}

// ReportCacheTTLDuration returns the parsed report cache TTL.
func (c *Config) ReportCacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.Analysis.ReportCacheTTL)
	return d
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Set database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "stridecoach")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Weather
	viper.SetDefault("weather.base_url", "https://archive-api.open-meteo.com/v1/archive")
	viper.SetDefault("weather.timeout", 30)

	// Analysis
	viper.SetDefault("analysis.activity_window_days", 90)
	viper.SetDefault("analysis.max_weather_lookups", 30)
	viper.SetDefault("analysis.pipeline_timeout", "60s")
	viper.SetDefault("analysis.report_cache_ttl", "1h")
}
