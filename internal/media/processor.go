// Package media shells out to ffmpeg for the audio operations that need a
// real codec: container decoding, tempo shifts, and MP3 export.
package media

import "context"

// DefaultMP3Bitrate is used when no bitrate is given for MP3 export.
const DefaultMP3Bitrate = "192k"

// Processor defines the external audio processing operations.
// Implementations should use ffmpeg or similar tools.
type Processor interface {
	// DecodePCM decodes any audio or video container into canonical
	// 16 kHz mono 16-bit little-endian PCM.
	DecodePCM(ctx context.Context, path string) ([]byte, error)

	// ChangeSpeed tempo-shifts canonical PCM without changing pitch.
	// Speed 1.0 returns the input unchanged; speeds outside the atempo
	// range [0.5, 2.0] are reached by chaining filter stages.
	ChangeSpeed(ctx context.Context, pcmData []byte, speed float64) ([]byte, error)

	// EncodeMP3 encodes canonical PCM into an MP3 file at the given
	// bitrate. An empty bitrate means DefaultMP3Bitrate.
	EncodeMP3(ctx context.Context, pcmData []byte, outputPath, bitrate string) error

	// Duration returns the length in seconds of a media file.
	Duration(ctx context.Context, path string) (float64, error)
}
