// Package vad provides the per-frame voice-activity classification
// capability consumed by the segment detector.
package vad

// Classifier decides whether a single fixed-duration PCM frame contains
// speech. The frame must be canonical PCM (16 kHz mono s16le) of exactly
// the window size the caller segmented the stream into; implementations
// may reject anything else with an error.
//
// Callers apply a fail-open policy: a frame whose classification errors is
// treated as non-speech. Implementations should therefore never panic on
// malformed input.
type Classifier interface {
	IsSpeech(frame []byte) (bool, error)
}
