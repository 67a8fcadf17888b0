package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/echolabs/shadowtrack-api/internal/segment"
	"github.com/echolabs/shadowtrack-api/internal/storage"
	"github.com/echolabs/shadowtrack-api/internal/track"
)

// DefaultMaxUploadBytes caps multipart uploads when no limit is configured.
const DefaultMaxUploadBytes = 100 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *track.Service
	store          storage.Storage
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithUploadLimit sets the multipart upload size cap in bytes.
func WithUploadLimit(limit int64) HandlerOption {
	return func(h *Handlers) {
		if limit > 0 {
			h.maxUploadBytes = limit
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *track.Service, store storage.Storage, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:        service,
		store:          store,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// DownloadYouTube handles POST /api/youtube/download requests.
func (h *Handlers) DownloadYouTube(w http.ResponseWriter, r *http.Request) {
	var req YouTubeDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	out, err := h.service.DownloadFromYouTube(r.Context(), track.DownloadInput{
		URL:       req.URL,
		Start:     req.Start,
		End:       req.End,
		Languages: req.Languages,
	})
	if err != nil {
		h.logger.Error("download failed",
			slog.String("url", req.URL),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "download failed: "+err.Error(), "DOWNLOAD_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, YouTubeDownloadResponse{
		ID:        out.ID,
		Title:     out.Title,
		Duration:  out.Duration,
		Subtitles: out.Subtitles,
		AudioFile: out.AudioFile,
	})
}

// Process handles POST /api/process requests.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	out, err := h.service.Process(r.Context(), track.ProcessInput{
		TrackID:         req.TrackID,
		LocalFile:       req.LocalFile,
		Preset:          req.Preset,
		Speed:           req.Speed,
		PlaybackRepeats: req.PlaybackRepeats,
		UserRepeats:     req.UserRepeats,
		Format:          req.Format,
		SubtitleLang:    req.SubtitleLang,
	})
	if err != nil {
		switch {
		case errors.Is(err, track.ErrNoAudioSource):
			writeError(w, http.StatusBadRequest, "no valid audio source provided", "NO_AUDIO_SOURCE")
		case errors.Is(err, segment.ErrUnknownPreset):
			writeError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_PRESET")
		case errors.Is(err, track.ErrUnknownFormat):
			writeError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_FORMAT")
		default:
			h.logger.Error("processing failed",
				slog.String("track_id", req.TrackID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "processing failed", "PROCESSING_FAILED")
		}
		return
	}

	segments := make([]SegmentResponse, len(out.Segments))
	for i, s := range out.Segments {
		segments[i] = SegmentResponse{
			Start: s.StartMs,
			End:   s.EndMs,
			Text:  s.Text,
			Texts: s.Texts,
		}
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		OutputFile:  out.OutputFile,
		DownloadURL: out.DownloadURL,
		Segments:    segments,
	})
}

// Upload handles POST /api/upload requests with a multipart "file" field.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit", "UPLOAD_TOO_LARGE")
			return
		}
		h.logger.Warn("invalid upload",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, `multipart field "file" is required`, "INVALID_UPLOAD")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit", "UPLOAD_TOO_LARGE")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read upload", "INVALID_UPLOAD")
		return
	}

	tr, err := h.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		h.logger.Error("failed to store upload",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to store upload", "UPLOAD_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		TrackID:  tr.ID,
		Duration: tr.DurationSec,
	})
}

// DownloadFile handles GET /api/download/{filename} requests, serving an
// exported file from storage.
func (h *Handlers) DownloadFile(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	path, err := h.store.Path(filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file name", "INVALID_FILENAME")
		return
	}
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found", "FILE_NOT_FOUND")
		return
	}

	w.Header().Set("Content-Type", mediaTypeFor(filename))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// GetSubtitles handles GET /api/subtitles/{track_id} requests.
func (h *Handlers) GetSubtitles(w http.ResponseWriter, r *http.Request) {
	trackID := r.PathValue("track_id")
	if trackID == "" {
		writeError(w, http.StatusBadRequest, "track ID is required", "MISSING_TRACK_ID")
		return
	}

	subs, err := h.service.Subtitles(r.Context(), trackID)
	if err != nil {
		if errors.Is(err, track.ErrNotFound) {
			writeError(w, http.StatusNotFound, "track not found", "TRACK_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get subtitles",
			slog.String("track_id", trackID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get subtitles", "SUBTITLES_FAILED")
		return
	}

	resp := SubtitlesResponse{
		Languages: make([]string, 0, len(subs)),
		Subtitles: make(map[string][]CaptionResponse, len(subs)),
	}
	for _, lt := range subs {
		captions := make([]CaptionResponse, len(lt.Captions))
		for i, c := range lt.Captions {
			captions[i] = CaptionResponse{Start: c.StartMs, End: c.EndMs, Text: c.Text}
		}
		resp.Languages = append(resp.Languages, lt.Language)
		resp.Subtitles[lt.Language] = captions
	}

	writeJSON(w, http.StatusOK, resp)
}

// isTooLarge reports whether the error came from the MaxBytesReader cap.
func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// mediaTypeFor picks the download content type from the file extension.
func mediaTypeFor(filename string) string {
	if strings.HasSuffix(filename, ".mp3") {
		return "audio/mpeg"
	}
	return "audio/wav"
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
