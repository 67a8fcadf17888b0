package pcm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Static errors for WAV decoding.
var (
	// ErrInvalidWAV is returned when the stream is not a parsable WAV container.
	ErrInvalidWAV = errors.New("not a valid WAV stream")
	// ErrUnsupportedDepth is returned for WAV files that are not 16-bit PCM.
	ErrUnsupportedDepth = errors.New("unsupported WAV bit depth, want 16-bit PCM")
	// ErrUnsupportedChannels is returned for WAV files with more than two channels.
	ErrUnsupportedChannels = errors.New("unsupported WAV channel count")
)

// DecodeWAV reads a WAV stream and returns its samples as canonical raw
// PCM. Stereo input is downmixed to mono and non-16 kHz input is resampled,
// so the result always honors the package contract.
func DecodeWAV(r io.ReadSeeker) ([]byte, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read PCM buffer: %w", err)
	}
	if buf.SourceBitDepth != 16 {
		return nil, fmt.Errorf("%w: got %d-bit", ErrUnsupportedDepth, buf.SourceBitDepth)
	}

	channels := buf.Format.NumChannels
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedChannels, channels)
	}

	data := samplesToBytes(buf.Data)
	if channels == 2 {
		data = StereoToMono(data)
	}
	if buf.Format.SampleRate != SampleRate {
		data = ResampleMono16(data, buf.Format.SampleRate, SampleRate)
	}
	return data, nil
}

// EncodeWAV writes raw canonical PCM as a 16 kHz mono 16-bit WAV container.
func EncodeWAV(w io.WriteSeeker, data []byte) error {
	enc := wav.NewEncoder(w, SampleRate, 16, 1, 1)

	samples := make([]int, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = int(int16(data[i*2]) | int16(data[i*2+1])<<8)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize WAV header: %w", err)
	}
	return nil
}

// ReadWAVFile decodes a WAV file into canonical raw PCM.
func ReadWAVFile(path string) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted internal code
	if err != nil {
		return nil, fmt.Errorf("open WAV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodeWAV(f)
}

// WriteWAVFile writes canonical raw PCM to path as a WAV file.
func WriteWAVFile(path string, data []byte) error {
	f, err := os.Create(path) // #nosec G304 - path is provided by trusted internal code
	if err != nil {
		return fmt.Errorf("create WAV file: %w", err)
	}
	if err := EncodeWAV(f, data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close WAV file: %w", err)
	}
	return nil
}

// samplesToBytes packs decoded samples into little-endian int16 bytes,
// preserving channel interleaving.
func samplesToBytes(samples []int) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
