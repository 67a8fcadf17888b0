// Package tone synthesizes the cue beeps and silences that punctuate a
// practice timeline.
package tone

import (
	"encoding/binary"
	"math"

	"github.com/echolabs/shadowtrack-api/internal/pcm"
	"github.com/echolabs/shadowtrack-api/internal/practice"
)

// Cue frequencies, carried over from the companion mobile app so the audio
// language stays the same across clients.
const (
	FreqPlayback = 880.0  // playback about to start
	FreqYourTurn = 1047.0 // learner's turn, played twice
	FreqDone     = 660.0  // segment finished
)

const (
	// BeepDurationMs is the length of every single beep.
	BeepDurationMs = 150
	// DoubleBeepGapMs separates the two pulses of the your-turn cue.
	DoubleBeepGapMs = 100
	// DefaultVolume is the cue amplitude relative to full scale.
	DefaultVolume = 0.8

	fadePercent = 0.10
)

// Generator synthesizes sine-wave cues in the canonical PCM format.
type Generator struct {
	volume float64
}

var _ practice.ToneSource = (*Generator)(nil)

// NewGenerator returns a Generator at the given volume in (0, 1].
// Non-positive volumes fall back to DefaultVolume.
func NewGenerator(volume float64) *Generator {
	if volume <= 0 {
		volume = DefaultVolume
	}
	return &Generator{volume: volume}
}

// PlaybackBeep is the single 880 Hz cue before each playback repeat.
func (g *Generator) PlaybackBeep() []byte {
	return g.tone(FreqPlayback, BeepDurationMs)
}

// YourTurnBeep is the double 1047 Hz cue before the learner's turn.
func (g *Generator) YourTurnBeep() []byte {
	beep := g.tone(FreqYourTurn, BeepDurationMs)
	gap := g.Silence(DoubleBeepGapMs)

	out := make([]byte, 0, 2*len(beep)+len(gap))
	out = append(out, beep...)
	out = append(out, gap...)
	out = append(out, beep...)
	return out
}

// DoneBeep is the single 660 Hz cue closing a segment.
func (g *Generator) DoneBeep() []byte {
	return g.tone(FreqDone, BeepDurationMs)
}

// Silence returns zeroed PCM of the given duration.
func (g *Generator) Silence(durationMs int) []byte {
	return make([]byte, pcm.MsToBytes(durationMs))
}

// tone renders a sine wave with a fade-in/fade-out envelope over the first
// and last 10% of samples, so cues start and stop without clicks.
func (g *Generator) tone(frequency float64, durationMs int) []byte {
	numSamples := pcm.SampleRate * durationMs / 1000
	fadeSamples := int(float64(numSamples) * fadePercent)

	out := make([]byte, numSamples*pcm.BytesPerSample)
	for i := 0; i < numSamples; i++ {
		t := float64(i) / pcm.SampleRate
		value := math.Sin(2.0 * math.Pi * frequency * t)

		if i < fadeSamples {
			value *= float64(i) / float64(fadeSamples)
		} else if i > numSamples-fadeSamples {
			value *= float64(numSamples-i) / float64(fadeSamples)
		}

		sample := int16(value * g.volume * 32767)
		binary.LittleEndian.PutUint16(out[i*pcm.BytesPerSample:], uint16(sample))
	}
	return out
}
