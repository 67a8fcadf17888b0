// Package subtitle parses caption files and aligns caption text onto
// detected audio segments by temporal overlap.
package subtitle

// Caption is one timed caption line, milliseconds from stream start.
type Caption struct {
	StartMs int
	EndMs   int
	Text    string
}

// LanguageTrack is an ordered caption list for one language. Multi-language
// alignment takes a slice of tracks; the slice order decides which language
// feeds a segment's plain Text field, so callers control it explicitly
// instead of relying on map iteration.
type LanguageTrack struct {
	Language string
	Captions []Caption
}
