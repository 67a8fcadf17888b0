package download

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/echolabs/shadowtrack-api/internal/subtitle"
)

// maxTitleRunes bounds output filenames derived from video titles.
const maxTitleRunes = 50

// unsafeTitleChars matches everything stripped from titles before they
// become filenames. Letters in any script survive.
var unsafeTitleChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// YTDLP implements Downloader using the yt-dlp CLI.
type YTDLP struct {
	// path is the yt-dlp binary. Defaults to "yt-dlp".
	path string
}

var _ Downloader = (*YTDLP)(nil)

// NewYTDLP creates a new YTDLP adapter.
// If path is empty, it defaults to "yt-dlp" (found via PATH).
func NewYTDLP(path string) *YTDLP {
	if path == "" {
		path = "yt-dlp"
	}
	return &YTDLP{path: path}
}

// FetchInfo returns the video metadata from a metadata-only probe.
func (y *YTDLP) FetchInfo(ctx context.Context, url string) (Info, error) {
	out, err := y.run(ctx, []string{"--dump-json", "--no-download", url})
	if err != nil {
		return Info{}, err
	}

	var info Info
	if err := json.Unmarshal(out, &info); err != nil {
		return Info{}, fmt.Errorf("decode video info: %w", err)
	}
	if info.ID == "" {
		info.ID = "unknown"
	}
	if info.Title == "" {
		info.Title = "Untitled"
	}
	return info, nil
}

// DownloadAudio fetches the audio track as a 16 kHz mono WAV file.
func (y *YTDLP) DownloadAudio(ctx context.Context, url, dir string, info Info, rng Range) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := SanitizeTitle(info.Title)
	if name == "" {
		name = info.ID
	}
	audioPath := filepath.Join(dir, name+".wav")

	args := []string{
		"-x", "--audio-format", "wav",
		"--postprocessor-args", "ffmpeg:-ar 16000 -ac 1",
	}
	if rng.Start != "" || rng.End != "" {
		args = append(args, "--download-sections", buildSection(rng, info.Duration))
	}
	args = append(args, "-o", audioPath, url)

	if _, err := y.run(ctx, args); err != nil {
		return "", err
	}
	return audioPath, nil
}

// DownloadSubtitles fetches captions and parses every SRT file that
// appears in dir.
func (y *YTDLP) DownloadSubtitles(ctx context.Context, url, dir string, langs []string) ([]subtitle.LanguageTrack, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	args := []string{
		"--write-auto-sub", "--write-sub",
		"--sub-lang", strings.Join(langs, ","),
		"--sub-format", "srt",
		"--skip-download",
		"-o", filepath.Join(dir, "%(title).50s.%(ext)s"),
		url,
	}

	// Captions are best-effort: a video without any must not fail the
	// whole download, so only cancellation aborts here.
	if _, err := y.run(ctx, args); err != nil && ctx.Err() != nil {
		return nil, err
	}

	return scanSubtitles(dir, langs)
}

// scanSubtitles parses the "<title>.<lang>.srt" files in dir into language
// tracks, requested languages first.
func scanSubtitles(dir string, langs []string) ([]subtitle.LanguageTrack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan subtitle dir: %w", err)
	}

	found := make(map[string][]subtitle.Caption)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".srt") {
			continue
		}
		base := strings.TrimSuffix(name, ".srt")
		dot := strings.LastIndex(base, ".")
		if dot < 0 {
			continue
		}
		lang := base[dot+1:]

		captions, err := subtitle.ParseSRTFile(filepath.Join(dir, name))
		if err != nil || len(captions) == 0 {
			continue
		}
		found[lang] = captions
	}

	tracks := make([]subtitle.LanguageTrack, 0, len(found))
	for _, lang := range langs {
		if captions, ok := found[lang]; ok {
			tracks = append(tracks, subtitle.LanguageTrack{Language: lang, Captions: captions})
			delete(found, lang)
		}
	}

	extras := make([]string, 0, len(found))
	for lang := range found {
		extras = append(extras, lang)
	}
	sort.Strings(extras)
	for _, lang := range extras {
		tracks = append(tracks, subtitle.LanguageTrack{Language: lang, Captions: found[lang]})
	}
	return tracks, nil
}

// SanitizeTitle makes a video title safe to use as a filename.
func SanitizeTitle(title string) string {
	clean := unsafeTitleChars.ReplaceAllString(title, "")
	runes := []rune(clean)
	if len(runes) > maxTitleRunes {
		runes = runes[:maxTitleRunes]
	}
	return strings.TrimSpace(string(runes))
}

// buildSection renders the --download-sections argument for a time range.
func buildSection(rng Range, durationSec float64) string {
	start := rng.Start
	if start == "" {
		start = "0"
	}
	end := rng.End
	if end == "" {
		end = strconv.FormatFloat(durationSec, 'f', -1, 64)
	}
	return fmt.Sprintf("*%s-%s", normalizeTime(start), normalizeTime(end))
}

// normalizeTime converts plain-second strings to M:SS.ss clock times;
// values already containing a colon pass through.
func normalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		return s
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	mins := int(secs / 60)
	rem := secs - float64(mins)*60
	return fmt.Sprintf("%d:%05.2f", mins, rem)
}

// run executes yt-dlp with the given arguments and returns stdout. On
// failure the error carries the stderr output.
func (y *YTDLP) run(ctx context.Context, args []string) ([]byte, error) {
	// #nosec G204 - binary path is set by the application, not user input
	cmd := exec.CommandContext(ctx, y.path, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yt-dlp cancelled: %w", ctx.Err())
		}
		return nil, &YTDLPError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// YTDLPError represents an error from running yt-dlp, including the stderr output.
type YTDLPError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *YTDLPError) Error() string {
	return fmt.Sprintf("yt-dlp error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *YTDLPError) Unwrap() error {
	return e.Err
}
