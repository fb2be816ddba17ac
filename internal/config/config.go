package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	Log    LogConfig
	App    AppConfig
	TWC    TWCConfig
	ArcGIS ArcGISConfig
	Cache  CacheConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port    int
	GinMode string // debug, release, test
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	TimestampZone string // utc, station
}

// TWCConfig holds The Weather Company API settings
type TWCConfig struct {
	APIKey  string
	BaseURL string
}

// ArcGISConfig holds the portal used to resolve web-map items
type ArcGISConfig struct {
	PortalURL string
}

// CacheConfig selects where rendered collections are cached
type CacheConfig struct {
	Backend   string // memory, redis, none
	RedisAddr string
}

const (
	TimestampZoneUTC     = "utc"
	TimestampZoneStation = "station"
)

// Load reads configuration from .env, config file and environment variables
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	// A missing .env file is the normal case outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.twc-observations")

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.ginmode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("app.timestampZone", TimestampZoneUTC)
	v.SetDefault("twc.apiKey", "")
	v.SetDefault("twc.baseURL", "https://api.weather.com/v1")
	v.SetDefault("arcgis.portalURL", "http://www.arcgis.com/sharing/rest")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redisAddr", "localhost:6379")

	// Read from environment variables
	v.SetEnvPrefix("TWC_OBSERVATIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The API key keeps its historical unprefixed variable name
	if err := v.BindEnv("twc.apiKey", "TWC_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind TWC_API_KEY: %w", err)
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch strings.ToLower(cfg.App.TimestampZone) {
	case TimestampZoneUTC, TimestampZoneStation:
		cfg.App.TimestampZone = strings.ToLower(cfg.App.TimestampZone)
	default:
		return nil, fmt.Errorf("invalid app.timestampZone %q: want %q or %q",
			cfg.App.TimestampZone, TimestampZoneUTC, TimestampZoneStation)
	}

	return &cfg, nil
}

// GetServerAddr returns the server address in the format ":port"
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// NewLogger creates a new slog.Logger based on the configuration
func (c *Config) NewLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Create handler options
	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Choose handler based on format
	var handler slog.Handler
	switch strings.ToLower(c.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default: // "text" or anything else
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
