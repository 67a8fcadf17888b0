package track

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/echolabs/shadowtrack-api/internal/download"
	"github.com/echolabs/shadowtrack-api/internal/media"
	"github.com/echolabs/shadowtrack-api/internal/pcm"
	"github.com/echolabs/shadowtrack-api/internal/practice"
	"github.com/echolabs/shadowtrack-api/internal/segment"
	"github.com/echolabs/shadowtrack-api/internal/storage"
	"github.com/echolabs/shadowtrack-api/internal/subtitle"
	"github.com/echolabs/shadowtrack-api/internal/track/id"
	"github.com/echolabs/shadowtrack-api/internal/vad"
)

// Static errors for the processing service.
var (
	// ErrNoAudioSource is returned when a process request names neither a
	// registered track nor a readable local file.
	ErrNoAudioSource = errors.New("no valid audio source provided")
	// ErrUnknownFormat is returned for export formats other than mp3 and wav.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Export formats accepted by Process.
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

// Defaults are the processing values applied when a request leaves the
// corresponding field unset.
type Defaults struct {
	Preset          string
	Speed           float64
	PlaybackRepeats int
	UserRepeats     int
	Format          string
	Languages       []string
	MP3Bitrate      string
}

// NewDefaults returns the standard processing defaults.
func NewDefaults() Defaults {
	return Defaults{
		Preset:          segment.DefaultPresetName,
		Speed:           1.0,
		PlaybackRepeats: practice.DefaultPlaybackRepeats,
		UserRepeats:     practice.DefaultUserRepeats,
		Format:          FormatMP3,
		Languages:       []string{"he", "en"},
		MP3Bitrate:      media.DefaultMP3Bitrate,
	}
}

// Service orchestrates the full pipeline: retrieval, segmentation,
// caption alignment, timeline assembly, and export.
type Service struct {
	repo       Repository
	downloader download.Downloader
	processor  media.Processor
	store      storage.Storage
	builder    *practice.Builder
	classifier vad.Classifier
	logger     *slog.Logger

	presets  segment.Presets
	frameMs  int
	workDir  string
	defaults Defaults
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithPresets replaces the built-in segmentation presets.
func WithPresets(presets segment.Presets) Option {
	return func(s *Service) { s.presets = presets }
}

// WithFrameMs sets the classification window duration.
func WithFrameMs(frameMs int) Option {
	return func(s *Service) { s.frameMs = frameMs }
}

// WithWorkDir sets the directory used for per-track downloads.
func WithWorkDir(dir string) Option {
	return func(s *Service) { s.workDir = dir }
}

// WithDefaults replaces the processing defaults.
func WithDefaults(d Defaults) Option {
	return func(s *Service) { s.defaults = d }
}

// NewService creates a Service with its collaborators injected.
func NewService(
	repo Repository,
	downloader download.Downloader,
	processor media.Processor,
	store storage.Storage,
	builder *practice.Builder,
	classifier vad.Classifier,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:       repo,
		downloader: downloader,
		processor:  processor,
		store:      store,
		builder:    builder,
		classifier: classifier,
		logger:     logger,
		presets:    segment.BuiltinPresets(),
		frameMs:    segment.DefaultFrameMs,
		workDir:    filepath.Join(os.TempDir(), "shadowtrack"),
		defaults:   NewDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DownloadInput identifies a remote video and an optional clip window.
type DownloadInput struct {
	// URL is the YouTube video URL.
	URL string
	// Start optionally clips the download, as seconds or a clock time.
	Start string
	// End optionally clips the download, as seconds or a clock time.
	End string
	// Languages are the caption languages to fetch; empty means the
	// configured defaults.
	Languages []string
}

// DownloadOutput summarizes a registered download.
type DownloadOutput struct {
	// ID is the new track's identifier.
	ID string
	// Title is the video title.
	Title string
	// Duration is the source length in seconds.
	Duration float64
	// Subtitles maps each found language to a flattened text preview.
	Subtitles map[string]string
	// AudioFile is the path of the downloaded WAV file.
	AudioFile string
}

// DownloadFromYouTube fetches a video's audio and captions, registers a
// track for them, and returns its metadata.
func (s *Service) DownloadFromYouTube(ctx context.Context, in DownloadInput) (*DownloadOutput, error) {
	trackID := id.New()
	dir := filepath.Join(s.workDir, trackID)

	s.logger.Info("downloading from YouTube",
		slog.String("track_id", trackID),
		slog.String("url", in.URL),
	)

	info, err := s.downloader.FetchInfo(ctx, in.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch video info: %w", err)
	}

	audioPath, err := s.downloader.DownloadAudio(ctx, in.URL, dir, info, download.Range{Start: in.Start, End: in.End})
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}

	langs := in.Languages
	if len(langs) == 0 {
		langs = s.defaults.Languages
	}
	subs, err := s.downloader.DownloadSubtitles(ctx, in.URL, dir, langs)
	if err != nil {
		return nil, fmt.Errorf("download subtitles: %w", err)
	}

	tr := NewWithID(trackID)
	tr.SetSource(info.Title, in.URL)
	tr.SetAudio(audioPath, info.Duration)
	tr.SetSubtitles(subs)
	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, fmt.Errorf("save track: %w", err)
	}

	s.logger.Info("download complete",
		slog.String("track_id", trackID),
		slog.String("title", info.Title),
		slog.Int("subtitle_tracks", len(subs)),
	)

	return &DownloadOutput{
		ID:        trackID,
		Title:     info.Title,
		Duration:  info.Duration,
		Subtitles: flattenSubtitles(subs),
		AudioFile: audioPath,
	}, nil
}

// Upload registers raw uploaded audio under a new track ID.
// The duration probe is best-effort: files ffprobe cannot read still
// register, with a zero duration.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (*Track, error) {
	trackID := id.New()

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}
	path, err := s.store.Save(trackID+ext, data)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	duration, err := s.processor.Duration(ctx, path)
	if err != nil {
		s.logger.Warn("probe upload duration",
			slog.String("track_id", trackID),
			slog.String("error", err.Error()),
		)
		duration = 0
	}

	tr := NewWithID(trackID)
	tr.SetSource(filename, "")
	tr.SetAudio(path, duration)
	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, fmt.Errorf("save track: %w", err)
	}

	s.logger.Info("upload registered",
		slog.String("track_id", trackID),
		slog.String("file", filename),
		slog.Float64("duration_sec", duration),
	)
	return tr.Clone(), nil
}

// ProcessInput selects an audio source and overrides for one processing
// run. Pointer fields distinguish an explicit zero from an absent value;
// nil means "use the configured default".
type ProcessInput struct {
	// TrackID selects a registered track. Checked before LocalFile.
	TrackID string
	// LocalFile processes an audio file straight from disk instead.
	LocalFile string
	// Preset names the segmentation preset; empty means the default.
	Preset string
	// Speed is the playback tempo factor.
	Speed *float64
	// PlaybackRepeats is how many times each segment plays back.
	PlaybackRepeats *int
	// UserRepeats is how many silent repeat slots the learner gets.
	UserRepeats *int
	// Format selects the export container, "mp3" or "wav"; empty means
	// the default.
	Format string
	// SubtitleLang aligns a single caption language; empty aligns every
	// available language.
	SubtitleLang string
}

// ProcessOutput is the result of one processing run.
type ProcessOutput struct {
	// OutputFile is the exported file's name inside storage.
	OutputFile string
	// DownloadURL is the published URL, empty for local-only storage.
	DownloadURL string
	// Segments are the detected (and possibly rescaled) segments with any
	// aligned caption text.
	Segments []segment.Segment
}

// Process runs the pipeline over a registered track or a local file:
// decode, detect segments, align captions, optionally tempo-shift,
// assemble the practice timeline, and export it.
func (s *Service) Process(ctx context.Context, in ProcessInput) (*ProcessOutput, error) {
	audioPath, tr, subs, err := s.resolveSource(ctx, in)
	if err != nil {
		return nil, err
	}

	presetName := in.Preset
	if presetName == "" {
		presetName = s.defaults.Preset
	}
	preset, err := s.presets.Get(presetName)
	if err != nil {
		return nil, err
	}

	speed := s.defaults.Speed
	if in.Speed != nil {
		speed = *in.Speed
	}
	format := in.Format
	if format == "" {
		format = s.defaults.Format
	}
	if format != FormatMP3 && format != FormatWAV {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	opts := practice.Options{
		PlaybackRepeats: s.defaults.PlaybackRepeats,
		UserRepeats:     s.defaults.UserRepeats,
	}
	if in.PlaybackRepeats != nil {
		opts.PlaybackRepeats = *in.PlaybackRepeats
	}
	if in.UserRepeats != nil {
		opts.UserRepeats = *in.UserRepeats
	}

	s.logger.Info("processing audio",
		slog.String("source", audioPath),
		slog.String("preset", presetName),
		slog.Float64("speed", speed),
		slog.String("format", format),
	)

	pcmData, err := s.processor.DecodePCM(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}

	detector, err := segment.NewDetector(s.classifier, preset, s.frameMs)
	if err != nil {
		return nil, fmt.Errorf("configure detector: %w", err)
	}
	segs := detector.Detect(pcmData)

	if in.SubtitleLang != "" {
		for _, lt := range subs {
			if lt.Language == in.SubtitleLang {
				subtitle.Align(segs, lt.Captions)
				break
			}
		}
	} else {
		subtitle.AlignAll(segs, subs)
	}

	// Segments are detected on the original-speed audio and rescaled to
	// the shifted time axis afterwards.
	if speed != 1.0 {
		pcmData, err = s.processor.ChangeSpeed(ctx, pcmData, speed)
		if err != nil {
			return nil, fmt.Errorf("change speed: %w", err)
		}
		for i := range segs {
			segs[i].Rescale(speed)
		}
	}

	timeline := s.builder.Build(pcmData, segs, opts)

	outputName := id.New() + "_practice." + format
	outputPath, err := s.store.Path(outputName)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatWAV:
		if err := pcm.WriteWAVFile(outputPath, timeline); err != nil {
			return nil, fmt.Errorf("export wav: %w", err)
		}
	case FormatMP3:
		if err := s.processor.EncodeMP3(ctx, timeline, outputPath, s.defaults.MP3Bitrate); err != nil {
			return nil, fmt.Errorf("export mp3: %w", err)
		}
	}

	var downloadURL string
	switch url, err := s.store.Publish(ctx, outputName); {
	case err == nil:
		downloadURL = url
	case errors.Is(err, storage.ErrPublishUnsupported):
		// Local-only storage; the file is served from the download route.
	default:
		return nil, fmt.Errorf("publish output: %w", err)
	}

	if tr != nil {
		tr.SetResult(segs, outputName)
		if err := s.repo.Save(ctx, tr); err != nil {
			return nil, fmt.Errorf("save track: %w", err)
		}
	}

	s.logger.Info("processing complete",
		slog.String("output", outputName),
		slog.Int("segments", len(segs)),
		slog.Int("timeline_ms", pcm.DurationMs(timeline)),
	)

	return &ProcessOutput{
		OutputFile:  outputName,
		DownloadURL: downloadURL,
		Segments:    segs,
	}, nil
}

// resolveSource picks the audio to process: a registered track if the ID
// resolves, else a readable local file, else nothing.
func (s *Service) resolveSource(ctx context.Context, in ProcessInput) (string, *Track, []subtitle.LanguageTrack, error) {
	if in.TrackID != "" {
		tr, err := s.repo.FindByID(ctx, in.TrackID)
		switch {
		case err == nil:
			return tr.AudioPath, tr, tr.Subtitles, nil
		case !errors.Is(err, ErrNotFound):
			return "", nil, nil, err
		}
	}
	if in.LocalFile != "" {
		if _, err := os.Stat(in.LocalFile); err == nil {
			return in.LocalFile, nil, nil, nil
		}
	}
	return "", nil, nil, ErrNoAudioSource
}

// Get retrieves a track by ID.
func (s *Service) Get(ctx context.Context, trackID string) (*Track, error) {
	return s.repo.FindByID(ctx, trackID)
}

// List returns all registered tracks.
func (s *Service) List(ctx context.Context) ([]*Track, error) {
	return s.repo.List(ctx)
}

// Subtitles returns a track's caption tracks.
func (s *Service) Subtitles(ctx context.Context, trackID string) ([]subtitle.LanguageTrack, error) {
	tr, err := s.repo.FindByID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	return tr.Subtitles, nil
}

// flattenSubtitles joins each track's caption text into one preview
// string per language.
func flattenSubtitles(tracks []subtitle.LanguageTrack) map[string]string {
	out := make(map[string]string, len(tracks))
	for _, lt := range tracks {
		lines := make([]string, len(lt.Captions))
		for i, c := range lt.Captions {
			lines[i] = c.Text
		}
		out[lt.Language] = strings.Join(lines, "\n")
	}
	return out
}
