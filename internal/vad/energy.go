package vad

import (
	"errors"
	"fmt"
	"math"
)

// DefaultThreshold is the normalized RMS level above which a frame counts
// as speech. Tuned against quiet spoken recordings; raise it for noisy
// sources, lower it for faint ones.
const DefaultThreshold = 0.015

// ErrInvalidFrame is returned when a frame is empty or not sample-aligned.
var ErrInvalidFrame = errors.New("invalid frame: want non-empty 16-bit aligned PCM")

// EnergyClassifier is a pure-Go Classifier that gates frames on RMS
// energy. It has no model or external runtime, which keeps the default
// pipeline dependency-free; heavier classifiers can be swapped in through
// the Classifier interface.
type EnergyClassifier struct {
	threshold float64
}

// Compile-time check that EnergyClassifier implements Classifier.
var _ Classifier = (*EnergyClassifier)(nil)

// NewEnergyClassifier creates an EnergyClassifier with the given RMS
// threshold. A non-positive threshold falls back to DefaultThreshold.
func NewEnergyClassifier(threshold float64) *EnergyClassifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &EnergyClassifier{threshold: threshold}
}

// IsSpeech reports whether the frame's RMS energy, normalized to [0, 1],
// exceeds the configured threshold.
func (c *EnergyClassifier) IsSpeech(frame []byte) (bool, error) {
	if len(frame) == 0 || len(frame)%2 != 0 {
		return false, fmt.Errorf("%w: got %d bytes", ErrInvalidFrame, len(frame))
	}

	samples := len(frame) / 2
	var sum float64
	for i := 0; i < samples; i++ {
		s := float64(int16(frame[i*2])|int16(frame[i*2+1])<<8) / 32768.0
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(samples))

	return rms > c.threshold, nil
}
