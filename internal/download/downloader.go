// Package download retrieves audio and caption tracks from YouTube
// through the yt-dlp CLI.
package download

import (
	"context"

	"github.com/echolabs/shadowtrack-api/internal/subtitle"
)

// Info holds the metadata of a remote video.
type Info struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"` // seconds
}

// Range narrows a download to a time window. Values are either plain
// seconds ("90") or clock times ("1:30"); empty means unbounded on that
// side.
type Range struct {
	Start string
	End   string
}

// Downloader fetches remote audio and subtitle tracks.
type Downloader interface {
	// FetchInfo returns the video metadata without downloading anything.
	FetchInfo(ctx context.Context, url string) (Info, error)

	// DownloadAudio fetches the audio track as a canonical-format WAV
	// file named after the sanitized video title and returns its path.
	DownloadAudio(ctx context.Context, url, dir string, info Info, rng Range) (string, error)

	// DownloadSubtitles fetches manual and auto-generated captions for
	// the given languages and parses whatever SRT files appear.
	// Requested languages come first in request order; other discovered
	// tracks follow alphabetically. Videos without captions yield an
	// empty slice, not an error.
	DownloadSubtitles(ctx context.Context, url, dir string, langs []string) ([]subtitle.LanguageTrack, error)
}
