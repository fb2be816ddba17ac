package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TWC_API_KEY", "")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, TimestampZoneUTC, cfg.App.TimestampZone)
	assert.Equal(t, "https://api.weather.com/v1", cfg.TWC.BaseURL)
	assert.Equal(t, "http://www.arcgis.com/sharing/rest", cfg.ArcGIS.PortalURL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Empty(t, cfg.TWC.APIKey)
}

func TestLoad_APIKeySources(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		file    string
		wantKey string
	}{
		{
			name:    "config file only",
			file:    "twc:\n  apiKey: from-file\n",
			wantKey: "from-file",
		},
		{
			name:    "environment only",
			env:     "from-env",
			wantKey: "from-env",
		},
		{
			name:    "environment wins over config file",
			env:     "from-env",
			file:    "twc:\n  apiKey: from-file\n",
			wantKey: "from-env",
		},
		{
			name:    "neither set",
			wantKey: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			if tt.file != "" {
				writeConfigFile(t, dir, tt.file)
			}
			if tt.env != "" {
				t.Setenv("TWC_API_KEY", tt.env)
			} else {
				t.Setenv("TWC_API_KEY", "")
				require.NoError(t, os.Unsetenv("TWC_API_KEY"))
			}

			cfg, err := load(viper.New())
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, cfg.TWC.APIKey)
		})
	}
}

func TestLoad_InvalidTimestampZone(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfigFile(t, dir, "app:\n  timestampZone: mars\n")

	_, err := load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid app.timestampZone")
}

func TestConfig_GetServerAddr(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 9090}}
	assert.Equal(t, ":9090", cfg.GetServerAddr())
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{Log: LogConfig{Level: tt.level, Format: "json"}}
			logger := cfg.NewLogger()
			assert.True(t, logger.Enabled(t.Context(), tt.want))
			if tt.want > slog.LevelDebug {
				assert.False(t, logger.Enabled(t.Context(), tt.want-1))
			}
		})
	}
}
