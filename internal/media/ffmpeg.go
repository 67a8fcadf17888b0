package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/echolabs/shadowtrack-api/internal/pcm"
)

// Static errors for media operations.
var (
	// ErrInvalidSpeed is returned when the speed factor is not positive.
	ErrInvalidSpeed = errors.New("invalid speed: must be positive")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// FFmpegProcessor implements Processor using the ffmpeg CLI.
type FFmpegProcessor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

var _ Processor = (*FFmpegProcessor)(nil)

// NewFFmpegProcessor creates a new FFmpegProcessor.
// Empty paths default to "ffmpeg" and "ffprobe" (found via PATH).
func NewFFmpegProcessor(ffmpegPath, ffprobePath string) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegProcessor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// DecodePCM decodes any container ffmpeg understands into canonical
// 16 kHz mono s16le PCM, streamed over stdout.
func (p *FFmpegProcessor) DecodePCM(ctx context.Context, path string) ([]byte, error) {
	args := []string{
		"-i", path, // Input file
		"-ar", strconv.Itoa(pcm.SampleRate), // Resample to canonical rate
		"-ac", "1", // Downmix to mono
		"-f", "s16le", // Raw 16-bit little-endian output
		"pipe:1",
	}
	return p.runFFmpeg(ctx, nil, args)
}

// ChangeSpeed tempo-shifts PCM through ffmpeg's atempo filter, chaining
// stages for factors outside [0.5, 2.0]. Speed 1.0 returns the input
// slice unchanged.
func (p *FFmpegProcessor) ChangeSpeed(ctx context.Context, pcmData []byte, speed float64) ([]byte, error) {
	if speed <= 0 {
		return nil, fmt.Errorf("%w: got %.2f", ErrInvalidSpeed, speed)
	}
	if speed == 1.0 {
		return pcmData, nil
	}

	rate := strconv.Itoa(pcm.SampleRate)
	args := []string{
		"-f", "s16le", // Raw input from stdin
		"-ar", rate,
		"-ac", "1",
		"-i", "pipe:0",
		"-filter:a", buildAtempoChain(speed),
		"-ar", rate, // Keep the canonical format on the way out
		"-ac", "1",
		"-f", "s16le",
		"pipe:1",
	}
	return p.runFFmpeg(ctx, bytes.NewReader(pcmData), args)
}

// buildAtempoChain builds chained atempo filters for speeds outside the
// filter's native 0.5-2.0 range.
func buildAtempoChain(speed float64) string {
	var filters []string
	remaining := speed
	for remaining > 2.0 {
		filters = append(filters, "atempo=2.0")
		remaining /= 2.0
	}
	for remaining < 0.5 {
		filters = append(filters, "atempo=0.5")
		remaining /= 0.5
	}
	filters = append(filters, fmt.Sprintf("atempo=%.4f", remaining))
	return strings.Join(filters, ",")
}

// EncodeMP3 encodes canonical PCM from stdin into an MP3 file.
func (p *FFmpegProcessor) EncodeMP3(ctx context.Context, pcmData []byte, outputPath, bitrate string) error {
	if bitrate == "" {
		bitrate = DefaultMP3Bitrate
	}

	args := []string{
		"-y", // Overwrite output file without asking
		"-f", "s16le", // Raw input from stdin
		"-ar", strconv.Itoa(pcm.SampleRate),
		"-ac", "1",
		"-i", "pipe:0",
		"-b:a", bitrate, // Audio bitrate
		outputPath,
	}
	_, err := p.runFFmpeg(ctx, bytes.NewReader(pcmData), args)
	return err
}

// runFFmpeg executes ffmpeg with the given arguments, feeding stdin when a
// reader is provided, and returns stdout. On failure the error carries the
// stderr output.
func (p *FFmpegProcessor) runFFmpeg(ctx context.Context, stdin *bytes.Reader, args []string) ([]byte, error) {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return nil, &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return stdout.Bytes(), nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Duration returns the duration in seconds of a media file.
// It uses ffprobe to extract the duration metadata.
func (p *FFmpegProcessor) Duration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	return duration, nil
}
