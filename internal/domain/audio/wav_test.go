package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWavRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	// 100ms 440Hz 正弦波, 16kHz单声道
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	require.NoError(t, WriteWavFile(path, samples, 16000, 1))

	decoded, format, err := DecodeWavFile(path)
	require.NoError(t, err)
	assert.Equal(t, 16000, format.SampleRate)
	assert.Equal(t, 1, format.Channels)
	require.Len(t, decoded, len(samples))

	for i := 0; i < len(samples); i += 100 {
		assert.InDelta(t, float64(samples[i]), float64(decoded[i]), 1e-3)
	}
}

func TestDecodeWavFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-wav.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0644))

	_, _, err := DecodeWavFile(path)
	assert.Error(t, err)
}
