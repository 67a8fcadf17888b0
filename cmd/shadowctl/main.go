// Command shadowctl builds shadow-practice audio from YouTube videos or
// local recordings, and can run the HTTP API in place of cmd/server.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/echolabs/shadowtrack-api/internal/bootstrap"
	"github.com/echolabs/shadowtrack-api/internal/config"
	"github.com/echolabs/shadowtrack-api/internal/download"
	"github.com/echolabs/shadowtrack-api/internal/media"
	"github.com/echolabs/shadowtrack-api/internal/pcm"
	"github.com/echolabs/shadowtrack-api/internal/practice"
	"github.com/echolabs/shadowtrack-api/internal/segment"
	"github.com/echolabs/shadowtrack-api/internal/server"
	"github.com/echolabs/shadowtrack-api/internal/subtitle"
	"github.com/echolabs/shadowtrack-api/internal/tone"
	"github.com/echolabs/shadowtrack-api/internal/vad"
)

const usage = `Usage: shadowctl <command> [flags]

Commands:
  youtube <url>      Download a YouTube video and build practice audio
  local <files...>   Build practice audio from local recordings
  serve              Start the HTTP API server

Run 'shadowctl <command> -h' for command flags.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	// .env is optional; missing files fall back to the process environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "youtube":
		return youtubeCommand(ctx, args[1:])
	case "local":
		return localCommand(ctx, args[1:])
	case "serve":
		return serveCommand(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(os.Stderr, usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// commonFlags are shared by the youtube and local commands.
type commonFlags struct {
	speed           float64
	preset          string
	playbackRepeats int
	userRepeats     int
	format          string
	output          string
	langs           string
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	fl := &commonFlags{}
	fs.Float64Var(&fl.speed, "speed", 0.8, "source playback speed")
	fs.StringVar(&fl.preset, "preset", segment.DefaultPresetName, "segmentation preset")
	fs.IntVar(&fl.playbackRepeats, "playback-repeats", practice.DefaultPlaybackRepeats, "listens per segment")
	fs.IntVar(&fl.userRepeats, "user-repeats", practice.DefaultUserRepeats, "silent repeat slots per segment")
	fs.StringVar(&fl.format, "format", "mp3", "output format: mp3 or wav")
	fs.StringVar(&fl.output, "output", defaultOutputDir(), "output directory")
	fs.StringVar(&fl.langs, "langs", "he,en", "subtitle languages by priority, comma-separated")
	return fl
}

func (fl *commonFlags) validate() error {
	if fl.speed <= 0 || fl.speed > 4 {
		return fmt.Errorf("speed must be in (0, 4], got %g", fl.speed)
	}
	if fl.format != "mp3" && fl.format != "wav" {
		return fmt.Errorf("unknown format %q (want mp3 or wav)", fl.format)
	}
	return nil
}

func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "practice_output"
	}
	return filepath.Join(home, "downloads", "practice_output")
}

// toolchain bundles the pieces every command wires the same way.
type toolchain struct {
	cfg        *config.Config
	presets    segment.Presets
	classifier vad.Classifier
	processor  media.Processor
	builder    *practice.Builder
}

func newToolchain() (*toolchain, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	presets, err := cfg.Presets()
	if err != nil {
		return nil, err
	}
	return &toolchain{
		cfg:        cfg,
		presets:    presets,
		classifier: vad.NewEnergyClassifier(cfg.VADThreshold),
		processor:  media.NewFFmpegProcessor(cfg.FFmpegPath, cfg.FFprobePath),
		builder:    practice.NewBuilder(tone.NewGenerator(tone.DefaultVolume)),
	}, nil
}

func youtubeCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("shadowctl youtube", flag.ExitOnError)
	fl := registerCommon(fs)
	start := fs.String("start", "", "clip start time, seconds or mm:ss")
	end := fs.String("end", "", "clip end time, seconds or mm:ss")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: shadowctl youtube [flags] <url>")
	}
	if err := fl.validate(); err != nil {
		return err
	}
	url := fs.Arg(0)

	tc, err := newToolchain()
	if err != nil {
		return err
	}
	dl := download.NewYTDLP(tc.cfg.YTDLPPath)

	fmt.Printf("Downloading: %s\n", url)
	info, err := dl.FetchInfo(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch info: %w", err)
	}

	dlDir := filepath.Join(fl.output, "_downloads")
	audioPath, err := dl.DownloadAudio(ctx, url, dlDir, info, download.Range{Start: *start, End: *end})
	if err != nil {
		return fmt.Errorf("download audio: %w", err)
	}
	fmt.Printf("Downloaded: %s (%.0fs)\n", info.Title, info.Duration)

	tracks, err := dl.DownloadSubtitles(ctx, url, dlDir, splitLangs(fl.langs))
	if err != nil {
		return fmt.Errorf("download subtitles: %w", err)
	}
	if len(tracks) > 0 {
		names := make([]string, len(tracks))
		for i, tr := range tracks {
			names[i] = tr.Language
		}
		fmt.Printf("Subtitles: %s\n", strings.Join(names, ", "))
	}

	pcmData, err := tc.processor.DecodePCM(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}

	drill, segments, err := tc.buildDrill(ctx, pcmData, tracks, fl, os.Stdout)
	if err != nil {
		return err
	}

	name := download.SanitizeTitle(info.Title)
	if name == "" {
		name = info.ID
	}
	outPath, err := tc.export(ctx, drill, fl.output, name, fl.format)
	if err != nil {
		return err
	}
	fmt.Printf("Output: %s\n", outPath)
	printSegments(os.Stdout, segments)
	return nil
}

func localCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("shadowctl local", flag.ExitOnError)
	fl := registerCommon(fs)
	concurrency := fs.Int("concurrency", 2, "files processed in parallel")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: shadowctl local [flags] <files...>")
	}
	if err := fl.validate(); err != nil {
		return err
	}

	files, err := expandGlobs(fs.Args())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no audio files found")
	}

	tc, err := newToolchain()
	if err != nil {
		return err
	}

	fmt.Printf("Processing %d file(s)\n", len(files))

	limit := *concurrency
	if limit < 1 {
		limit = 1
	}

	// Each file renders its report into a private buffer; the mutex keeps
	// whole reports from interleaving on stdout.
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, path := range files {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := tc.processFile(ctx, path, fl, &buf); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			mu.Lock()
			defer mu.Unlock()
			_, err := os.Stdout.Write(buf.Bytes())
			return err
		})
	}
	return g.Wait()
}

func serveCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("shadowctl serve", flag.ExitOnError)
	port := fs.Int("port", 0, "listen port (overrides PORT)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	handlers := server.NewHandlers(deps.TrackService, deps.Store, logger,
		server.WithUploadLimit(cfg.MaxUploadBytes()))
	router := server.NewRouter(handlers, logger, server.DefaultConfig())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Allow for long downloads and exports
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

// processFile builds one practice drill, writing its report to w so
// concurrent files keep their output grouped.
func (tc *toolchain) processFile(ctx context.Context, path string, fl *commonFlags, w io.Writer) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fmt.Fprintf(w, "\n--- %s ---\n", name)

	pcmData, err := tc.processor.DecodePCM(ctx, path)
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}

	drill, segments, err := tc.buildDrill(ctx, pcmData, nil, fl, w)
	if err != nil {
		return err
	}

	outPath, err := tc.export(ctx, drill, fl.output, name, fl.format)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Output: %s\n", outPath)
	printSegments(w, segments)
	return nil
}

// buildDrill segments decoded PCM, aligns the first available subtitle
// language, applies the speed change, and assembles the practice timeline.
func (tc *toolchain) buildDrill(ctx context.Context, pcmData []byte, tracks []subtitle.LanguageTrack, fl *commonFlags, w io.Writer) ([]byte, []segment.Segment, error) {
	preset, err := tc.presets.Get(fl.preset)
	if err != nil {
		return nil, nil, err
	}
	det, err := segment.NewDetector(tc.classifier, preset, tc.cfg.FrameMs)
	if err != nil {
		return nil, nil, err
	}
	segments := det.Detect(pcmData)
	fmt.Fprintf(w, "Found %d segments\n", len(segments))

	if tr, ok := findTrack(tracks, splitLangs(fl.langs)); ok {
		subtitle.Align(segments, tr.Captions)
		fmt.Fprintf(w, "Aligned subtitles: %s\n", tr.Language)
	}

	if fl.speed != 1.0 {
		fmt.Fprintf(w, "Applying speed: %gx\n", fl.speed)
		pcmData, err = tc.processor.ChangeSpeed(ctx, pcmData, fl.speed)
		if err != nil {
			return nil, nil, fmt.Errorf("change speed: %w", err)
		}
		for i := range segments {
			segments[i].Rescale(fl.speed)
		}
	}

	fmt.Fprintln(w, "Building practice audio...")
	drill := tc.builder.Build(pcmData, segments, practice.Options{
		PlaybackRepeats: fl.playbackRepeats,
		UserRepeats:     fl.userRepeats,
	})
	return drill, segments, nil
}

// export writes the drill to <dir>/<name>_practice.<format>.
func (tc *toolchain) export(ctx context.Context, drill []byte, dir, name, format string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name+"_practice."+format)
	if format == "wav" {
		if err := pcm.WriteWAVFile(path, drill); err != nil {
			return "", err
		}
		return path, nil
	}
	if err := tc.processor.EncodeMP3(ctx, drill, path, tc.cfg.MP3Bitrate); err != nil {
		return "", err
	}
	return path, nil
}

func printSegments(w io.Writer, segments []segment.Segment) {
	for i, seg := range segments {
		text := ""
		if seg.Text != "" {
			text = fmt.Sprintf(" %q", seg.Text)
		}
		fmt.Fprintf(w, "  [%d] %.1fs - %.1fs (%dms)%s\n",
			i+1, float64(seg.StartMs)/1000, float64(seg.EndMs)/1000, seg.DurationMs(), text)
	}
}

// findTrack returns the first subtitle track matching the priority list.
func findTrack(tracks []subtitle.LanguageTrack, langs []string) (subtitle.LanguageTrack, bool) {
	for _, lang := range langs {
		for _, tr := range tracks {
			if tr.Language == lang {
				return tr, true
			}
		}
	}
	return subtitle.LanguageTrack{}, false
}

// expandGlobs resolves glob patterns and literal paths into a sorted,
// deduplicated file list.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func splitLangs(langs string) []string {
	var out []string
	for _, lang := range strings.Split(langs, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			out = append(out, lang)
		}
	}
	return out
}
