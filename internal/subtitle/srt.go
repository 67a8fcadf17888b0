package subtitle

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Timestamp lines accept both SRT commas and VTT dots as the
	// millisecond separator.
	timestampRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)
	markupRe    = regexp.MustCompile(`<[^>]+>`)
	blockRe     = regexp.MustCompile(`\n\n+`)
)

// ParseSRT parses SubRip captions. Blocks are separated by blank lines;
// within a block the first line containing "-->" is the timestamp and the
// lines after it are the text, with inline markup stripped and multiple
// lines joined by a space. Malformed blocks are skipped silently — a
// partially broken caption file still yields whatever parsed.
func ParseSRT(r io.Reader) ([]Caption, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}

	content := strings.ReplaceAll(string(raw), "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	var captions []Caption
	for _, block := range blockRe.Split(content, -1) {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		timeLine := ""
		var textLines []string
		for _, line := range lines {
			if strings.Contains(line, "-->") {
				timeLine = line
				continue
			}
			if timeLine == "" {
				continue // index line before the timestamp
			}
			clean := strings.TrimSpace(markupRe.ReplaceAllString(line, ""))
			if clean != "" {
				textLines = append(textLines, clean)
			}
		}
		if timeLine == "" || len(textLines) == 0 {
			continue
		}

		m := timestampRe.FindStringSubmatch(strings.TrimSpace(timeLine))
		if m == nil {
			continue
		}

		captions = append(captions, Caption{
			StartMs: timestampMs(m[1], m[2], m[3], m[4]),
			EndMs:   timestampMs(m[5], m[6], m[7], m[8]),
			Text:    strings.Join(textLines, " "),
		})
	}
	return captions, nil
}

// ParseSRTFile parses captions from a file on disk.
func ParseSRTFile(path string) ([]Caption, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from directory scans we control
	if err != nil {
		return nil, fmt.Errorf("open caption file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseSRT(f)
}

// timestampMs converts matched HH, MM, SS, mmm groups to milliseconds.
// Groups already matched \d+, so Atoi cannot fail.
func timestampMs(h, m, s, ms string) int {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	mmm, _ := strconv.Atoi(ms)
	return hh*3600000 + mm*60000 + ss*1000 + mmm
}
