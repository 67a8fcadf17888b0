// Package bootstrap provides dependency initialization for the shadow-practice API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/echolabs/shadowtrack-api/internal/config"
	"github.com/echolabs/shadowtrack-api/internal/download"
	"github.com/echolabs/shadowtrack-api/internal/media"
	"github.com/echolabs/shadowtrack-api/internal/practice"
	"github.com/echolabs/shadowtrack-api/internal/storage"
	"github.com/echolabs/shadowtrack-api/internal/tone"
	"github.com/echolabs/shadowtrack-api/internal/track"
	"github.com/echolabs/shadowtrack-api/internal/vad"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	TrackService *track.Service
	Store        storage.Storage
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Load segmentation presets (built-ins plus the optional overlay file)
	presets, err := cfg.Presets()
	if err != nil {
		return nil, err
	}

	// Initialize pipeline components
	classifier := vad.NewEnergyClassifier(cfg.VADThreshold)
	processor := media.NewFFmpegProcessor(cfg.FFmpegPath, cfg.FFprobePath)
	downloader := download.NewYTDLP(cfg.YTDLPPath)
	builder := practice.NewBuilder(tone.NewGenerator(tone.DefaultVolume))

	// Initialize track repository
	repo := track.NewMemoryRepository()

	defaults := track.NewDefaults()
	defaults.Preset = cfg.DefaultPreset
	defaults.Format = cfg.ExportFormat
	defaults.Languages = cfg.SubtitleLangs
	defaults.MP3Bitrate = cfg.MP3Bitrate

	opts := []track.Option{
		track.WithPresets(presets),
		track.WithFrameMs(cfg.FrameMs),
		track.WithDefaults(defaults),
	}
	// An empty WorkDir leaves both storage and service on the shared
	// "shadowtrack" directory under the OS temp directory.
	if cfg.WorkDir != "" {
		opts = append(opts, track.WithWorkDir(cfg.WorkDir))
	}

	svc := track.NewService(
		repo,
		downloader,
		processor,
		store,
		builder,
		classifier,
		logger,
		opts...,
	)

	return &Dependencies{
		TrackService: svc,
		Store:        store,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.WorkDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("work_dir", localStore.WorkDir()),
	)
	return localStore, nil
}
