package segment

import (
	"errors"
	"fmt"
)

// Static errors for preset validation and lookup.
var (
	// ErrUnknownPreset is returned when a preset name has no definition.
	ErrUnknownPreset = errors.New("unknown segmentation preset")
	// ErrInvalidPreset is returned when preset thresholds are inconsistent.
	ErrInvalidPreset = errors.New("invalid segmentation preset")
)

// Preset bundles the segmentation thresholds: minimum and maximum segment
// duration, the silence run that closes a segment, and the lead-in kept
// before a detected speech onset. All values are milliseconds.
type Preset struct {
	MinMs       int `yaml:"min_ms"`
	MaxMs       int `yaml:"max_ms"`
	SilenceMs   int `yaml:"silence_ms"`
	PreBufferMs int `yaml:"pre_buffer_ms"`
}

// Validate checks the preset invariants: 0 < min <= max, silence > 0,
// pre-buffer >= 0. Presets are validated at configuration load; the
// detector assumes they hold.
func (p Preset) Validate() error {
	if p.MinMs <= 0 {
		return fmt.Errorf("%w: min_ms must be positive, got %d", ErrInvalidPreset, p.MinMs)
	}
	if p.MaxMs < p.MinMs {
		return fmt.Errorf("%w: max_ms %d below min_ms %d", ErrInvalidPreset, p.MaxMs, p.MinMs)
	}
	if p.SilenceMs <= 0 {
		return fmt.Errorf("%w: silence_ms must be positive, got %d", ErrInvalidPreset, p.SilenceMs)
	}
	if p.PreBufferMs < 0 {
		return fmt.Errorf("%w: pre_buffer_ms must not be negative, got %d", ErrInvalidPreset, p.PreBufferMs)
	}
	return nil
}

// Presets maps preset names to their thresholds.
type Presets map[string]Preset

// Get resolves a preset by name.
func (ps Presets) Get(name string) (Preset, error) {
	p, ok := ps[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// DefaultPresetName is the preset used when a request does not pick one.
const DefaultPresetName = "sentences"

// BuiltinPresets returns the four fixed named presets. The map is freshly
// allocated so callers can overlay custom presets without touching the
// built-in definitions.
func BuiltinPresets() Presets {
	return Presets{
		"sentences": {MinMs: 500, MaxMs: 8000, SilenceMs: 700, PreBufferMs: 200},
		"short":     {MinMs: 500, MaxMs: 3000, SilenceMs: 500, PreBufferMs: 200},
		"long":      {MinMs: 1000, MaxMs: 12000, SilenceMs: 1000, PreBufferMs: 300},
		"words":     {MinMs: 300, MaxMs: 2000, SilenceMs: 400, PreBufferMs: 150},
	}
}
