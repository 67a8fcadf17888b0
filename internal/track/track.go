// Package track provides the Track aggregate: one registered source
// recording together with its captions, detected segments, and the latest
// practice export built from it. It also hosts the processing service that
// runs the whole pipeline.
package track

import (
	"sync"
	"time"

	"github.com/echolabs/shadowtrack-api/internal/segment"
	"github.com/echolabs/shadowtrack-api/internal/subtitle"
	"github.com/echolabs/shadowtrack-api/internal/track/id"
)

// Track represents one source recording registered with the service.
// There is no status machine: processing is synchronous per request, and
// the registry exists so downloads and uploads can be processed again
// later by ID.
type Track struct {
	mu sync.RWMutex

	// ID is the short unique identifier for this track.
	ID string
	// Title is the video title or the uploaded file name.
	Title string
	// SourceURL is the original YouTube URL; empty for uploads.
	SourceURL string
	// AudioPath is the absolute path of the source audio file.
	AudioPath string
	// DurationSec is the source duration in seconds.
	DurationSec float64
	// Subtitles holds the caption tracks found for the source.
	Subtitles []subtitle.LanguageTrack
	// Segments holds the most recent detection result.
	Segments []segment.Segment
	// OutputFile is the name of the latest exported practice file.
	OutputFile string
	// CreatedAt is when the track was registered.
	CreatedAt time.Time
	// UpdatedAt is when the track last changed.
	UpdatedAt time.Time
}

// New creates a new Track with a generated ID.
func New() *Track {
	return NewWithID(id.New())
}

// NewWithID creates a new Track with the specified ID.
// Useful for testing or when the ID needs to be externally generated.
func NewWithID(trackID string) *Track {
	now := time.Now()
	return &Track{
		ID:        trackID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetSource records where the track came from.
func (t *Track) SetSource(title, sourceURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Title = title
	t.SourceURL = sourceURL
	t.UpdatedAt = time.Now()
}

// SetAudio records the source audio file and its duration.
func (t *Track) SetAudio(path string, durationSec float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.AudioPath = path
	t.DurationSec = durationSec
	t.UpdatedAt = time.Now()
}

// SetSubtitles replaces the caption tracks.
func (t *Track) SetSubtitles(tracks []subtitle.LanguageTrack) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Subtitles = tracks
	t.UpdatedAt = time.Now()
}

// SetResult records a processing outcome: the detected segments and the
// exported file name.
func (t *Track) SetResult(segments []segment.Segment, outputFile string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Segments = segments
	t.OutputFile = outputFile
	t.UpdatedAt = time.Now()
}

// Languages returns the caption languages in track order.
func (t *Track) Languages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	langs := make([]string, len(t.Subtitles))
	for i, lt := range t.Subtitles {
		langs[i] = lt.Language
	}
	return langs
}

// Clone creates a deep copy of the track for safe reads.
func (t *Track) Clone() *Track {
	t.mu.RLock()
	defer t.mu.RUnlock()

	subs := make([]subtitle.LanguageTrack, len(t.Subtitles))
	for i, lt := range t.Subtitles {
		captions := make([]subtitle.Caption, len(lt.Captions))
		copy(captions, lt.Captions)
		subs[i] = subtitle.LanguageTrack{Language: lt.Language, Captions: captions}
	}

	segs := make([]segment.Segment, len(t.Segments))
	for i, sg := range t.Segments {
		segs[i] = sg.Clone()
	}

	return &Track{
		ID:          t.ID,
		Title:       t.Title,
		SourceURL:   t.SourceURL,
		AudioPath:   t.AudioPath,
		DurationSec: t.DurationSec,
		Subtitles:   subs,
		Segments:    segs,
		OutputFile:  t.OutputFile,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
