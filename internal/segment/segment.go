// Package segment detects bounded utterance intervals in a stream of
// per-frame voice-activity decisions.
package segment

// Segment is a detected utterance interval. Start and end are milliseconds
// from the beginning of the source buffer; Text and Texts are filled in
// later by subtitle alignment and stay empty when no caption overlaps.
type Segment struct {
	StartMs int
	EndMs   int
	Text    string
	Texts   map[string]string
}

// DurationMs returns the segment length in milliseconds.
func (s Segment) DurationMs() int {
	return s.EndMs - s.StartMs
}

// Rescale maps the segment onto the time axis of audio whose tempo was
// changed by the given factor: slowing audio down (speed < 1) stretches
// the interval. Division truncates toward zero, matching the exporter's
// sample arithmetic. A non-positive or unit factor leaves the segment
// untouched.
func (s *Segment) Rescale(speed float64) {
	if speed <= 0 || speed == 1.0 {
		return
	}
	s.StartMs = int(float64(s.StartMs) / speed)
	s.EndMs = int(float64(s.EndMs) / speed)
}

// Clone returns a deep copy, including the per-language text map.
func (s Segment) Clone() Segment {
	c := s
	if s.Texts != nil {
		c.Texts = make(map[string]string, len(s.Texts))
		for lang, text := range s.Texts {
			c.Texts[lang] = text
		}
	}
	return c
}
