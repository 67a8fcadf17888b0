// Package server provides the HTTP server for the shadow-practice API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// YouTubeDownloadRequest is the HTTP request body for fetching a video's
// audio and captions.
type YouTubeDownloadRequest struct {
	// URL is the YouTube video URL.
	URL string `json:"url" validate:"required,url"`
	// Start optionally clips the download, as seconds ("90") or a clock
	// time ("1:30").
	Start string `json:"start,omitempty"`
	// End optionally clips the download, same formats as Start.
	End string `json:"end,omitempty"`
	// Languages are the caption languages to fetch; empty means the
	// configured defaults.
	Languages []string `json:"languages,omitempty"`
}

// YouTubeDownloadResponse is the HTTP response after registering a download.
type YouTubeDownloadResponse struct {
	// ID is the new track's identifier.
	ID string `json:"id"`
	// Title is the video title.
	Title string `json:"title"`
	// Duration is the source length in seconds.
	Duration float64 `json:"duration"`
	// Subtitles maps each found caption language to its flattened text.
	Subtitles map[string]string `json:"subtitles"`
	// AudioFile is the server-side path of the downloaded audio.
	AudioFile string `json:"audio_file"`
}

// ProcessRequest is the HTTP request body for one processing run.
// Numeric overrides are pointers so an explicit zero is distinguishable
// from an absent field; defaults apply only when absent.
type ProcessRequest struct {
	// TrackID selects a registered track. Checked before LocalFile.
	TrackID string `json:"track_id,omitempty"`
	// LocalFile processes a server-side audio file instead.
	LocalFile string `json:"local_file,omitempty"`
	// Preset names the segmentation preset.
	Preset string `json:"preset,omitempty"`
	// Speed is the playback tempo factor.
	Speed *float64 `json:"speed,omitempty" validate:"omitempty,gt=0,lte=4"`
	// PlaybackRepeats is how many times each segment plays back.
	PlaybackRepeats *int `json:"playback_repeats,omitempty" validate:"omitempty,min=0,max=10"`
	// UserRepeats is how many silent repeat slots the learner gets.
	UserRepeats *int `json:"user_repeats,omitempty" validate:"omitempty,min=0,max=10"`
	// Format selects the export container.
	Format string `json:"format,omitempty" validate:"omitempty,oneof=mp3 wav"`
	// SubtitleLang aligns a single caption language; empty aligns all.
	SubtitleLang string `json:"subtitle_lang,omitempty"`
}

// SegmentResponse is one detected utterance. Start and End are
// milliseconds on the exported file's time axis.
type SegmentResponse struct {
	Start int `json:"start"`
	End   int `json:"end"`
	// Text is the aligned caption text, empty when nothing overlapped.
	Text string `json:"text"`
	// Texts holds per-language caption text for multi-language alignment.
	Texts map[string]string `json:"texts,omitempty"`
}

// ProcessResponse is the HTTP response for a completed processing run.
type ProcessResponse struct {
	// OutputFile is the exported file's name, served by the download route.
	OutputFile string `json:"output_file"`
	// DownloadURL is the published URL when storage has a public side.
	DownloadURL string `json:"download_url,omitempty"`
	// Segments are the detected utterances with aligned text.
	Segments []SegmentResponse `json:"segments"`
}

// UploadResponse is the HTTP response after registering an uploaded file.
type UploadResponse struct {
	// TrackID is the new track's identifier.
	TrackID string `json:"track_id"`
	// Duration is the probed length in seconds, 0 when probing failed.
	Duration float64 `json:"duration"`
}

// CaptionResponse is one caption cue. Start and End are milliseconds.
type CaptionResponse struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// SubtitlesResponse is the HTTP response listing a track's captions.
type SubtitlesResponse struct {
	// Languages are the available caption languages, in track order.
	Languages []string `json:"languages"`
	// Subtitles maps each language to its full caption list.
	Subtitles map[string][]CaptionResponse `json:"subtitles"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
