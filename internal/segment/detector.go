package segment

import (
	"errors"
	"fmt"
	"math"

	"github.com/echolabs/shadowtrack-api/internal/pcm"
	"github.com/echolabs/shadowtrack-api/internal/vad"
)

// Static errors for detector construction.
var (
	// ErrInvalidFrameDuration is returned for frame durations the classifier
	// window contract does not allow.
	ErrInvalidFrameDuration = errors.New("invalid frame duration: want 10, 20, or 30 ms")
	// ErrNilClassifier is returned when no classifier is provided.
	ErrNilClassifier = errors.New("classifier is required")
)

// DefaultFrameMs is the standard classification window.
const DefaultFrameMs = 30

// Detector turns a stream of per-frame speech decisions into an ordered,
// non-overlapping list of utterance intervals. It is a two-state machine
// (silence / in-speech) with three boundary policies:
//
//   - pre-buffer: a detected onset is extended backward by up to
//     PreBufferMs of lead-in, never past the previous segment's end;
//   - hysteresis close: a segment ends only after SilenceMs of sustained
//     non-speech, and the boundary is trimmed back to the onset of that
//     pause;
//   - forced split: a segment that reaches MaxMs is cut at the current
//     frame regardless of how short the silence run is.
//
// Trailing speech at end-of-stream shorter than MinMs is dropped without
// notice; callers that must capture every utterance should pad their input
// with silence.
type Detector struct {
	classifier vad.Classifier
	preset     Preset
	frameMs    int
}

// NewDetector creates a Detector. The frame duration must be 10, 20, or
// 30 ms and the preset must already satisfy Validate.
func NewDetector(classifier vad.Classifier, preset Preset, frameMs int) (*Detector, error) {
	if classifier == nil {
		return nil, ErrNilClassifier
	}
	if frameMs != 10 && frameMs != 20 && frameMs != 30 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFrameDuration, frameMs)
	}
	if err := preset.Validate(); err != nil {
		return nil, err
	}
	return &Detector{classifier: classifier, preset: preset, frameMs: frameMs}, nil
}

// Detect splits canonical PCM into fixed-duration frames, classifies each
// one, and runs the state machine over the decisions. A trailing remainder
// shorter than one frame is discarded, not classified. Classifier errors
// fail open to non-speech so a faulty frame can never extend a segment.
func (d *Detector) Detect(data []byte) []Segment {
	frameSize := pcm.SampleRate * d.frameMs / 1000 * pcm.BytesPerSample

	flags := make([]bool, 0, len(data)/frameSize)
	for off := 0; off+frameSize <= len(data); off += frameSize {
		speech, err := d.classifier.IsSpeech(data[off : off+frameSize])
		if err != nil {
			speech = false
		}
		flags = append(flags, speech)
	}
	return d.Segments(flags)
}

// Segments runs the state machine over an ordered sequence of per-frame
// speech decisions. Exposed separately from Detect so deterministic
// decision sequences can drive every transition in tests.
func (d *Detector) Segments(flags []bool) []Segment {
	silenceFrames := int(math.Round(float64(d.preset.SilenceMs) / float64(d.frameMs)))
	preBufferFrames := int(math.Round(float64(d.preset.PreBufferMs) / float64(d.frameMs)))

	var segments []Segment
	inSpeech := false
	start := 0
	silenceRun := 0
	// prevEnd floors the pre-buffer back-extension: at the head of the
	// stream it clamps to frame 0, and after a forced split it keeps the
	// next segment from reaching back across the cut.
	prevEnd := 0

	for i, speech := range flags {
		if speech {
			if !inSpeech {
				start = i - preBufferFrames
				if start < prevEnd {
					start = prevEnd
				}
				inSpeech = true
			}
			silenceRun = 0
			continue
		}
		if !inSpeech {
			continue
		}

		silenceRun++
		elapsed := (i - start) * d.frameMs

		if silenceRun >= silenceFrames && elapsed >= d.preset.MinMs {
			// Trim the trailing silence run back to its first frame so the
			// segment ends at the onset of the pause.
			end := i - silenceRun + 1
			segments = append(segments, Segment{StartMs: start * d.frameMs, EndMs: end * d.frameMs})
			prevEnd = end
			inSpeech = false
			silenceRun = 0
		} else if elapsed >= d.preset.MaxMs {
			// Forced split: cap the segment at the current frame, no trim.
			segments = append(segments, Segment{StartMs: start * d.frameMs, EndMs: i * d.frameMs})
			prevEnd = i
			inSpeech = false
			silenceRun = 0
		}
	}

	if inSpeech {
		endMs := len(flags) * d.frameMs
		if endMs-start*d.frameMs >= d.preset.MinMs {
			segments = append(segments, Segment{StartMs: start * d.frameMs, EndMs: endMs})
		}
	}
	return segments
}
