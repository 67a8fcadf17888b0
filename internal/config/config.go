// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/echolabs/shadowtrack-api/internal/segment"
)

// Static errors for configuration validation.
var (
	// ErrInvalidPort is returned when PORT is outside the TCP port range.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrInvalidFrameMs is returned when FRAME_MS is not a supported
	// classification window.
	ErrInvalidFrameMs = errors.New("config: FRAME_MS must be 10, 20, or 30")
	// ErrInvalidExportFormat is returned when EXPORT_FORMAT is neither mp3
	// nor wav.
	ErrInvalidExportFormat = errors.New("config: EXPORT_FORMAT must be mp3 or wav")
	// ErrInvalidUploadCap is returned when MAX_UPLOAD_MB is not positive.
	ErrInvalidUploadCap = errors.New("config: MAX_UPLOAD_MB must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Storage settings. An empty WorkDir means a "shadowtrack" directory
	// under the OS temp directory.
	WorkDir string `env:"WORK_DIR" json:"work_dir,omitempty"`

	// Segmentation settings. A zero VADThreshold means the classifier's
	// built-in default.
	FrameMs       int     `env:"FRAME_MS, default=30" json:"frame_ms"`
	VADThreshold  float64 `env:"VAD_THRESHOLD" json:"vad_threshold,omitempty"`
	PresetFile    string  `env:"PRESET_FILE" json:"preset_file,omitempty"`
	DefaultPreset string  `env:"DEFAULT_PRESET, default=sentences" json:"default_preset"`

	// Output settings
	ExportFormat  string   `env:"EXPORT_FORMAT, default=mp3" json:"export_format"`
	MP3Bitrate    string   `env:"MP3_BITRATE, default=192k" json:"mp3_bitrate"`
	MaxUploadMB   int64    `env:"MAX_UPLOAD_MB, default=100" json:"max_upload_mb"`
	SubtitleLangs []string `env:"SUBTITLE_LANGS, default=he,en" json:"subtitle_langs"`

	// External tool paths; empty means look the tool up in PATH.
	FFmpegPath  string `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath string `env:"FFPROBE_PATH" json:"ffprobe_path,omitempty"`
	YTDLPPath   string `env:"YTDLP_PATH" json:"ytdlp_path,omitempty"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=json" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// MaxUploadBytes returns the upload size cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable: port and upload cap
// in range, a supported frame duration and export format, and a default
// preset that resolves against the loaded preset table.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Port)
	}
	if c.FrameMs != 10 && c.FrameMs != 20 && c.FrameMs != 30 {
		return fmt.Errorf("%w: got %d", ErrInvalidFrameMs, c.FrameMs)
	}
	if c.ExportFormat != "mp3" && c.ExportFormat != "wav" {
		return fmt.Errorf("%w: got %q", ErrInvalidExportFormat, c.ExportFormat)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidUploadCap, c.MaxUploadMB)
	}

	presets, err := c.Presets()
	if err != nil {
		return err
	}
	if _, err := presets.Get(c.DefaultPreset); err != nil {
		return fmt.Errorf("config: DEFAULT_PRESET: %w", err)
	}
	return nil
}

// Presets returns the segmentation preset table: the built-ins, overlaid
// with the definitions from PresetFile when one is set. Every preset is
// validated here, at load time, so the detector can assume its thresholds
// hold.
func (c *Config) Presets() (segment.Presets, error) {
	presets := segment.BuiltinPresets()

	if c.PresetFile != "" {
		data, err := os.ReadFile(c.PresetFile) // #nosec G304 - operator-provided path
		if err != nil {
			return nil, fmt.Errorf("config: read preset file: %w", err)
		}
		custom := map[string]segment.Preset{}
		if err := yaml.Unmarshal(data, &custom); err != nil {
			return nil, fmt.Errorf("config: parse preset file: %w", err)
		}
		for name, p := range custom {
			presets[name] = p
		}
	}

	for name, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("config: preset %q: %w", name, err)
		}
	}
	return presets, nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, WorkDir: %s, FrameMs: %d, DefaultPreset: %s, ExportFormat: %s, SubtitleLangs: %v, MaxUploadMB: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.WorkDir,
		c.FrameMs,
		c.DefaultPreset,
		c.ExportFormat,
		c.SubtitleLangs,
		c.MaxUploadMB,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
