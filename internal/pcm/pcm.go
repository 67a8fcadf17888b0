// Package pcm provides helpers for the canonical audio format used across
// the pipeline: linear PCM, 16 kHz, mono, 16-bit signed little-endian.
package pcm

// Canonical format constants. Every buffer handed between pipeline stages
// is assumed to be in this format; producing it from arbitrary source media
// is the decoder's job (see internal/media).
const (
	// SampleRate is the canonical sample rate in Hz.
	SampleRate = 16000
	// BytesPerSample is the width of one 16-bit sample.
	BytesPerSample = 2
	// BytesPerMs is the number of bytes covering one millisecond of audio.
	BytesPerMs = SampleRate * BytesPerSample / 1000
)

// MsToBytes converts a duration in milliseconds to a byte offset within a
// canonical PCM buffer. The result is always aligned to a sample boundary.
func MsToBytes(ms int) int {
	if ms < 0 {
		return 0
	}
	return ms * BytesPerMs
}

// DurationMs returns the playable duration of a canonical PCM buffer in
// milliseconds, truncating any trailing partial millisecond.
func DurationMs(pcm []byte) int {
	return len(pcm) / BytesPerMs
}

// Slice returns the samples covering [startMs, endMs), clamped to the
// buffer bounds. The returned slice aliases the input; callers that need
// an independent copy must copy it themselves.
func Slice(pcm []byte, startMs, endMs int) []byte {
	start := MsToBytes(startMs)
	end := MsToBytes(endMs)
	if start > len(pcm) {
		start = len(pcm)
	}
	if end > len(pcm) {
		end = len(pcm)
	}
	if end < start {
		end = start
	}
	return pcm[start:end]
}
