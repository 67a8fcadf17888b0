// Package practice assembles shadow-practice timelines: each detected
// segment becomes a listen-then-repeat drill of cue tones, the original
// audio, and a silent gap for the learner.
package practice

import (
	"github.com/echolabs/shadowtrack-api/internal/pcm"
	"github.com/echolabs/shadowtrack-api/internal/segment"
)

// Pause durations between timeline elements, matched to the companion
// mobile app's playlist exporter.
const (
	PauseAfterBeepMs    = 300
	PauseAfterSegmentMs = 300
	PauseAfterDoneMs    = 500
)

// Default repeat counts per segment.
const (
	DefaultPlaybackRepeats = 2
	DefaultUserRepeats     = 1
)

// ToneSource provides the cue buffers spliced between segments. Buffers
// must be canonical PCM; the builder treats them as opaque bytes.
type ToneSource interface {
	PlaybackBeep() []byte
	YourTurnBeep() []byte
	DoneBeep() []byte
	Silence(durationMs int) []byte
}

// Options control how many times each segment is played back and how many
// silent repeat slots the learner gets. Negative counts are treated as
// zero; an explicit zero skips that phase.
type Options struct {
	PlaybackRepeats int
	UserRepeats     int
}

// DefaultOptions returns the standard two-listens-one-repeat drill.
func DefaultOptions() Options {
	return Options{
		PlaybackRepeats: DefaultPlaybackRepeats,
		UserRepeats:     DefaultUserRepeats,
	}
}

// Builder concatenates practice timelines out of source audio and its
// detected segments.
type Builder struct {
	tones ToneSource
}

// NewBuilder returns a Builder using the given tone source.
func NewBuilder(tones ToneSource) *Builder {
	return &Builder{tones: tones}
}

// Build assembles the complete practice timeline. Per segment, in order:
//
//  1. ×PlaybackRepeats: playback cue, pause, segment audio, pause.
//  2. ×UserRepeats: your-turn cue, pause, silence matching the segment
//     duration, pause.
//  3. Done cue, pause.
//
// The output is a pure concatenation; source audio is copied, never
// modified, and an empty segment list yields an empty timeline.
func (b *Builder) Build(audio []byte, segments []segment.Segment, opts Options) []byte {
	playbackRepeats := opts.PlaybackRepeats
	if playbackRepeats < 0 {
		playbackRepeats = 0
	}
	userRepeats := opts.UserRepeats
	if userRepeats < 0 {
		userRepeats = 0
	}

	playback := b.tones.PlaybackBeep()
	yourTurn := b.tones.YourTurnBeep()
	done := b.tones.DoneBeep()
	pauseBeep := b.tones.Silence(PauseAfterBeepMs)
	pauseSegment := b.tones.Silence(PauseAfterSegmentMs)
	pauseDone := b.tones.Silence(PauseAfterDoneMs)

	var out []byte
	for _, seg := range segments {
		slice := pcm.Slice(audio, seg.StartMs, seg.EndMs)
		quiet := b.tones.Silence(seg.DurationMs())

		for i := 0; i < playbackRepeats; i++ {
			out = append(out, playback...)
			out = append(out, pauseBeep...)
			out = append(out, slice...)
			out = append(out, pauseSegment...)
		}
		for i := 0; i < userRepeats; i++ {
			out = append(out, yourTurn...)
			out = append(out, pauseBeep...)
			out = append(out, quiet...)
			out = append(out, pauseSegment...)
		}
		out = append(out, done...)
		out = append(out, pauseDone...)
	}
	return out
}
