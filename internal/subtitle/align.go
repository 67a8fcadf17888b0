package subtitle

import "github.com/echolabs/shadowtrack-api/internal/segment"

// Align assigns each segment the text of the caption with the greatest
// temporal overlap. A strictly greater overlap wins; ties keep the caption
// encountered first in list order. Segments with no overlapping caption
// keep their Text untouched. Alignment mutates the segments in place and
// is idempotent: it depends only on the segment bounds and the captions.
func Align(segments []segment.Segment, captions []Caption) {
	for i := range segments {
		bestOverlap := 0
		bestText := ""
		for _, c := range captions {
			if o := overlapMs(segments[i], c); o > bestOverlap {
				bestOverlap = o
				bestText = c.Text
			}
		}
		if bestOverlap > 0 {
			segments[i].Text = bestText
		}
	}
}

// AlignAll aligns every language track independently, storing results in
// each segment's Texts map. Afterwards the plain Text field is filled from
// the first track in slice order — a display convenience, not a language
// priority.
func AlignAll(segments []segment.Segment, tracks []LanguageTrack) {
	for _, track := range tracks {
		for i := range segments {
			bestOverlap := 0
			bestText := ""
			for _, c := range track.Captions {
				if o := overlapMs(segments[i], c); o > bestOverlap {
					bestOverlap = o
					bestText = c.Text
				}
			}
			if bestOverlap > 0 {
				if segments[i].Texts == nil {
					segments[i].Texts = make(map[string]string)
				}
				segments[i].Texts[track.Language] = bestText
			}
		}
	}

	if len(tracks) == 0 {
		return
	}
	first := tracks[0].Language
	for i := range segments {
		if text, ok := segments[i].Texts[first]; ok {
			segments[i].Text = text
		}
	}
}

// overlapMs returns the length of the intersection of a segment and a
// caption interval, zero when they do not intersect.
func overlapMs(seg segment.Segment, c Caption) int {
	start := seg.StartMs
	if c.StartMs > start {
		start = c.StartMs
	}
	end := seg.EndMs
	if c.EndMs < end {
		end = c.EndMs
	}
	if end <= start {
		return 0
	}
	return end - start
}
