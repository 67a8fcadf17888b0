package download

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "My Lesson", "My Lesson"},
		{"punctuation stripped", "Lesson #3: verbs! (part 2)", "Lesson 3 verbs part 2"},
		{"hebrew kept", "שיעור עברית 5", "שיעור עברית 5"},
		{"mixed scripts", "עברית / Hebrew — Lesson", "עברית  Hebrew  Lesson"},
		{"emoji stripped", "Fun 🎉 Time", "Fun  Time"},
		{"underscore and dash kept", "a_b-c", "a_b-c"},
		{"only symbols", "!!!???", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.title); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeTitle_TruncatesTo50Runes(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "אב"
	}

	got := SanitizeTitle(long)
	if n := len([]rune(got)); n != 50 {
		t.Errorf("got %d runes, want 50", n)
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1:30", "1:30"},
		{"00:02:00", "00:02:00"},
		{"30", "0:30.00"},
		{"90", "1:30.00"},
		{"90.5", "1:30.50"},
		{"0", "0:00.00"},
		{" 45 ", "0:45.00"},
		{"abc", "abc"},
	}

	for _, tt := range tests {
		if got := normalizeTime(tt.in); got != tt.want {
			t.Errorf("normalizeTime(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildSection(t *testing.T) {
	tests := []struct {
		name     string
		rng      Range
		duration float64
		want     string
	}{
		{"both ends", Range{Start: "30", End: "2:00"}, 300, "*0:30.00-2:00"},
		{"start only", Range{Start: "0:30"}, 300, "*0:30-5:00.00"},
		{"end only", Range{End: "120"}, 300, "*0:00.00-2:00.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSection(tt.rng, tt.duration); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func writeSRT(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

const validSRT = `1
00:00:01,000 --> 00:00:02,000
Some caption.
`

func TestScanSubtitles_RequestedOrderFirst(t *testing.T) {
	dir := t.TempDir()
	writeSRT(t, dir, "lesson.en.srt", validSRT)
	writeSRT(t, dir, "lesson.he.srt", validSRT)
	writeSRT(t, dir, "lesson.ar.srt", validSRT)

	tracks, err := scanSubtitles(dir, []string{"he", "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("got %d tracks, want 3", len(tracks))
	}

	wantOrder := []string{"he", "en", "ar"}
	for i, want := range wantOrder {
		if tracks[i].Language != want {
			t.Errorf("track %d: got %q, want %q", i, tracks[i].Language, want)
		}
	}
}

func TestScanSubtitles_MissingLanguageSkipped(t *testing.T) {
	dir := t.TempDir()
	writeSRT(t, dir, "lesson.en.srt", validSRT)

	tracks, err := scanSubtitles(dir, []string{"he", "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Language != "en" {
		t.Fatalf("got %+v, want single en track", tracks)
	}
	if len(tracks[0].Captions) != 1 {
		t.Errorf("got %d captions, want 1", len(tracks[0].Captions))
	}
}

func TestScanSubtitles_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	writeSRT(t, dir, "lesson.he.srt", validSRT)
	writeSRT(t, dir, "nolang.srt", validSRT)
	writeSRT(t, dir, "lesson.en.srt", "not a subtitle file")
	writeSRT(t, dir, "lesson.wav", "binary")

	tracks, err := scanSubtitles(dir, []string{"he", "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Language != "he" {
		t.Fatalf("got %+v, want single he track", tracks)
	}
}

func TestScanSubtitles_EmptyDir(t *testing.T) {
	tracks, err := scanSubtitles(t.TempDir(), []string{"he", "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("got %d tracks, want 0", len(tracks))
	}
}

func TestNewYTDLP_DefaultPath(t *testing.T) {
	if y := NewYTDLP(""); y.path != "yt-dlp" {
		t.Errorf("got %q, want yt-dlp", y.path)
	}
	if y := NewYTDLP("/opt/yt-dlp"); y.path != "/opt/yt-dlp" {
		t.Errorf("got %q, want /opt/yt-dlp", y.path)
	}
}
