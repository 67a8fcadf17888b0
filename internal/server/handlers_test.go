package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/echolabs/shadowtrack-api/internal/download"
	"github.com/echolabs/shadowtrack-api/internal/practice"
	"github.com/echolabs/shadowtrack-api/internal/storage"
	"github.com/echolabs/shadowtrack-api/internal/subtitle"
	"github.com/echolabs/shadowtrack-api/internal/tone"
	"github.com/echolabs/shadowtrack-api/internal/track"
	"github.com/echolabs/shadowtrack-api/internal/vad"
)

// mockDownloader implements download.Downloader for testing.
type mockDownloader struct {
	mock.Mock
}

func (m *mockDownloader) FetchInfo(ctx context.Context, url string) (download.Info, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(download.Info), args.Error(1)
}

func (m *mockDownloader) DownloadAudio(ctx context.Context, url, dir string, info download.Info, rng download.Range) (string, error) {
	args := m.Called(ctx, url, dir, info, rng)
	return args.String(0), args.Error(1)
}

func (m *mockDownloader) DownloadSubtitles(ctx context.Context, url, dir string, langs []string) ([]subtitle.LanguageTrack, error) {
	args := m.Called(ctx, url, dir, langs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]subtitle.LanguageTrack), args.Error(1)
}

// mockProcessor implements media.Processor for testing.
type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) DecodePCM(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockProcessor) ChangeSpeed(ctx context.Context, pcmData []byte, speed float64) ([]byte, error) {
	args := m.Called(ctx, pcmData, speed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockProcessor) EncodeMP3(ctx context.Context, pcmData []byte, outputPath, bitrate string) error {
	args := m.Called(ctx, pcmData, outputPath, bitrate)
	return args.Error(0)
}

func (m *mockProcessor) Duration(ctx context.Context, path string) (float64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(float64), args.Error(1)
}

// speechPCM builds canonical PCM of speech frames followed by silence.
// Constant 0x4040 samples keep frame RMS near 0.5, well above the energy
// gate, so the real classifier sees them as speech.
func speechPCM(speechFrames, silenceFrames int) []byte {
	const frameBytes = 960 // 30 ms at 16 kHz mono s16le
	data := make([]byte, (speechFrames+silenceFrames)*frameBytes)
	for i := 0; i < speechFrames*frameBytes; i++ {
		data[i] = 0x40
	}
	return data
}

func newTestHandlers(t *testing.T, opts ...HandlerOption) (*Handlers, *mockDownloader, *mockProcessor, track.Repository, *storage.LocalStorage) {
	t.Helper()
	repo := track.NewMemoryRepository()
	dl := &mockDownloader{}
	proc := &mockProcessor{}
	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	builder := practice.NewBuilder(tone.NewGenerator(0))
	svc := track.NewService(repo, dl, proc, store, builder, vad.NewEnergyClassifier(0), logger,
		track.WithWorkDir(t.TempDir()),
	)

	handlers := NewHandlers(svc, store, logger, opts...)
	return handlers, dl, proc, repo, store
}

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lesson.wav")
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o600))
	return path
}

func postJSON(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	bodyJSON, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(bodyJSON))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealth(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestDownloadYouTube_Success(t *testing.T) {
	h, dl, _, _, _ := newTestHandlers(t)

	url := "https://youtube.com/watch?v=abc123xyz"
	dl.On("FetchInfo", mock.Anything, url).
		Return(download.Info{ID: "abc123xyz", Title: "Hebrew Lesson", Duration: 120.0}, nil)
	dl.On("DownloadAudio", mock.Anything, url, mock.Anything, mock.Anything, download.Range{Start: "0:30", End: "2:00"}).
		Return("/tmp/work/Hebrew Lesson.wav", nil)
	dl.On("DownloadSubtitles", mock.Anything, url, mock.Anything, []string{"he"}).
		Return([]subtitle.LanguageTrack{
			{Language: "he", Captions: []subtitle.Caption{{StartMs: 0, EndMs: 900, Text: "שלום"}}},
		}, nil)

	body := YouTubeDownloadRequest{URL: url, Start: "0:30", End: "2:00", Languages: []string{"he"}}
	rec := httptest.NewRecorder()

	h.DownloadYouTube(rec, postJSON(t, "/api/youtube/download", body))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp YouTubeDownloadResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Len(t, resp.ID, 8)
	assert.Equal(t, "Hebrew Lesson", resp.Title)
	assert.Equal(t, 120.0, resp.Duration)
	assert.Equal(t, "שלום", resp.Subtitles["he"])
	assert.Equal(t, "/tmp/work/Hebrew Lesson.wav", resp.AudioFile)
	dl.AssertExpectations(t)
}

func TestDownloadYouTube_InvalidJSON(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/youtube/download", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.DownloadYouTube(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "INVALID_JSON", resp.Code)
}

func TestDownloadYouTube_ValidationError(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	tests := []struct {
		name string
		body YouTubeDownloadRequest
	}{
		{"missing URL", YouTubeDownloadRequest{}},
		{"not a URL", YouTubeDownloadRequest{URL: "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.DownloadYouTube(rec, postJSON(t, "/api/youtube/download", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			err := json.NewDecoder(rec.Body).Decode(&resp)
			require.NoError(t, err)
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		})
	}
}

func TestDownloadYouTube_DownloadFailure(t *testing.T) {
	h, dl, _, _, _ := newTestHandlers(t)

	url := "https://youtube.com/watch?v=gone"
	dl.On("FetchInfo", mock.Anything, url).
		Return(download.Info{}, assert.AnError)

	rec := httptest.NewRecorder()
	h.DownloadYouTube(rec, postJSON(t, "/api/youtube/download", YouTubeDownloadRequest{URL: url}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "DOWNLOAD_FAILED", resp.Code)
}

func TestProcess_LocalFile(t *testing.T) {
	h, _, proc, _, store := newTestHandlers(t)

	src := writeTempAudio(t)
	// 40 speech frames (1200 ms) then enough silence to close the segment.
	proc.On("DecodePCM", mock.Anything, src).Return(speechPCM(40, 30), nil)

	rec := httptest.NewRecorder()
	h.Process(rec, postJSON(t, "/api/process", ProcessRequest{LocalFile: src, Format: "wav"}))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ProcessResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.OutputFile, "_practice.wav"), resp.OutputFile)
	assert.Empty(t, resp.DownloadURL)
	require.Len(t, resp.Segments, 1)
	assert.Equal(t, 0, resp.Segments[0].Start)
	assert.Equal(t, 1200, resp.Segments[0].End)
	assert.Empty(t, resp.Segments[0].Text)

	// The exported file is reachable through storage.
	path, err := store.Path(resp.OutputFile)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestProcess_TrackWithSubtitles(t *testing.T) {
	h, _, proc, repo, _ := newTestHandlers(t)

	src := writeTempAudio(t)
	tr := track.New()
	tr.SetAudio(src, 2.1)
	tr.SetSubtitles([]subtitle.LanguageTrack{
		{Language: "he", Captions: []subtitle.Caption{{StartMs: 100, EndMs: 1000, Text: "שלום"}}},
	})
	require.NoError(t, repo.Save(context.Background(), tr))

	proc.On("DecodePCM", mock.Anything, src).Return(speechPCM(40, 30), nil)

	rec := httptest.NewRecorder()
	h.Process(rec, postJSON(t, "/api/process", ProcessRequest{TrackID: tr.ID, Format: "wav"}))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ProcessResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp.Segments, 1)
	assert.Equal(t, "שלום", resp.Segments[0].Text)
	assert.Equal(t, map[string]string{"he": "שלום"}, resp.Segments[0].Texts)
}

func TestProcess_MP3Export(t *testing.T) {
	h, _, proc, _, _ := newTestHandlers(t)

	src := writeTempAudio(t)
	proc.On("DecodePCM", mock.Anything, src).Return(speechPCM(40, 30), nil)
	proc.On("EncodeMP3", mock.Anything, mock.Anything, mock.Anything, "192k").Return(nil)

	rec := httptest.NewRecorder()
	h.Process(rec, postJSON(t, "/api/process", ProcessRequest{LocalFile: src}))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ProcessResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.OutputFile, "_practice.mp3"), resp.OutputFile)
	proc.AssertExpectations(t)
}

func TestProcess_NoSource(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.Process(rec, postJSON(t, "/api/process", ProcessRequest{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "NO_AUDIO_SOURCE", resp.Code)
}

func TestProcess_UnknownPreset(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	src := writeTempAudio(t)
	rec := httptest.NewRecorder()
	h.Process(rec, postJSON(t, "/api/process", ProcessRequest{LocalFile: src, Preset: "paragraphs"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN_PRESET", resp.Code)
}

func TestProcess_ValidationError(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	badSpeed := -1.0
	tests := []struct {
		name string
		body ProcessRequest
	}{
		{"unsupported format", ProcessRequest{LocalFile: "/tmp/a.wav", Format: "ogg"}},
		{"non-positive speed", ProcessRequest{LocalFile: "/tmp/a.wav", Speed: &badSpeed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Process(rec, postJSON(t, "/api/process", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			err := json.NewDecoder(rec.Body).Decode(&resp)
			require.NoError(t, err)
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		})
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload_Success(t *testing.T) {
	h, _, proc, repo, _ := newTestHandlers(t)

	proc.On("Duration", mock.Anything, mock.Anything).Return(42.5, nil)

	buf, contentType := multipartBody(t, "file", "clip.mp3", []byte("audio bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Len(t, resp.TrackID, 8)
	assert.Equal(t, 42.5, resp.Duration)

	saved, err := repo.FindByID(context.Background(), resp.TrackID)
	require.NoError(t, err)
	assert.Equal(t, "clip.mp3", saved.Title)
}

func TestUpload_MissingFile(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	buf, contentType := multipartBody(t, "attachment", "clip.mp3", []byte("audio bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "INVALID_UPLOAD", resp.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t, WithUploadLimit(256))

	buf, contentType := multipartBody(t, "file", "clip.wav", bytes.Repeat([]byte{0x42}, 8192))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "UPLOAD_TOO_LARGE", resp.Code)
}

func TestDownloadFile_Success(t *testing.T) {
	h, _, _, _, store := newTestHandlers(t)

	content := []byte("mp3 bytes")
	_, err := store.Save("abc123_practice.mp3", content)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/download/abc123_practice.mp3", nil)
	req.SetPathValue("filename", "abc123_practice.mp3")
	rec := httptest.NewRecorder()

	h.DownloadFile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "abc123_practice.mp3")
	assert.Equal(t, content, rec.Body.Bytes())
}

func TestDownloadFile_WAVContentType(t *testing.T) {
	h, _, _, _, store := newTestHandlers(t)

	_, err := store.Save("abc123_practice.wav", []byte("wav bytes"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/download/abc123_practice.wav", nil)
	req.SetPathValue("filename", "abc123_practice.wav")
	rec := httptest.NewRecorder()

	h.DownloadFile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
}

func TestDownloadFile_NotFound(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/download/missing.mp3", nil)
	req.SetPathValue("filename", "missing.mp3")
	rec := httptest.NewRecorder()

	h.DownloadFile(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "FILE_NOT_FOUND", resp.Code)
}

func TestDownloadFile_RejectsTraversal(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/download/secret", nil)
	req.SetPathValue("filename", "../secret")
	rec := httptest.NewRecorder()

	h.DownloadFile(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "INVALID_FILENAME", resp.Code)
}

func TestGetSubtitles_Success(t *testing.T) {
	h, _, _, repo, _ := newTestHandlers(t)

	tr := track.New()
	tr.SetSubtitles([]subtitle.LanguageTrack{
		{Language: "he", Captions: []subtitle.Caption{{StartMs: 0, EndMs: 900, Text: "שלום"}}},
		{Language: "en", Captions: []subtitle.Caption{{StartMs: 0, EndMs: 900, Text: "hello"}}},
	})
	require.NoError(t, repo.Save(context.Background(), tr))

	req := httptest.NewRequest(http.MethodGet, "/api/subtitles/"+tr.ID, nil)
	req.SetPathValue("track_id", tr.ID)
	rec := httptest.NewRecorder()

	h.GetSubtitles(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp SubtitlesResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"he", "en"}, resp.Languages)
	require.Len(t, resp.Subtitles["he"], 1)
	assert.Equal(t, CaptionResponse{Start: 0, End: 900, Text: "שלום"}, resp.Subtitles["he"][0])
}

func TestGetSubtitles_NotFound(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/subtitles/nonexist", nil)
	req.SetPathValue("track_id", "nonexist")
	rec := httptest.NewRecorder()

	h.GetSubtitles(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "TRACK_NOT_FOUND", resp.Code)
}

func TestGetSubtitles_MissingID(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/subtitles/", nil)
	// Don't set path value to simulate missing ID
	rec := httptest.NewRecorder()

	h.GetSubtitles(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "MISSING_TRACK_ID", resp.Code)
}

func TestRouter_Integration(t *testing.T) {
	h, _, proc, _, _ := newTestHandlers(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	router := NewRouter(h, logger, DefaultConfig())

	// Test health endpoint
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Process a local file end to end
	src := writeTempAudio(t)
	proc.On("DecodePCM", mock.Anything, src).Return(speechPCM(40, 30), nil)

	req = postJSON(t, "/api/process", ProcessRequest{LocalFile: src, Format: "wav"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var processResp ProcessResponse
	err := json.NewDecoder(rec.Body).Decode(&processResp)
	require.NoError(t, err)

	// Fetch the exported file through the download route
	req = httptest.NewRequest(http.MethodGet, "/api/download/"+processResp.OutputFile, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestCORSMiddleware(t *testing.T) {
	h, _, _, _, _ := newTestHandlers(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := Config{AllowedOrigins: []string{"https://example.com"}}
	router := NewRouter(h, logger, cfg)

	// Test with allowed origin
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	// Test OPTIONS preflight
	req = httptest.NewRequest(http.MethodOptions, "/api/process", nil)
	req.Header.Set("Origin", "https://example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Disallowed origins get no CORS headers
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Create a handler that panics
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	handler := RecoveryMiddleware(logger)(panicHandler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	})

	handler := LoggingMiddleware(logger)(notFound)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"bytes":4`)
}
