package config

import (
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int     `envconfig:"PORT" default:"8080"`
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins string  `envconfig:"ALLOWED_ORIGINS" default:"localhost:5173,localhost:3000"`
	RasterScale    float64 `envconfig:"RASTER_SCALE" default:"2"`
	RasterPadding  float64 `envconfig:"RASTER_PADDING" default:"4"`
	MaxTextureSize int     `envconfig:"MAX_TEXTURE_SIZE" default:"8192"`
	HistoryLimit   int     `envconfig:"HISTORY_LIMIT" default:"0"`
	SampleDocument bool    `envconfig:"SAMPLE_DOCUMENT" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level maps LOG_LEVEL onto a slog level, falling back to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Origins splits ALLOWED_ORIGINS into websocket origin patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
