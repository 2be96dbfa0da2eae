package recorder

import (
	"math"
	"os"
	"testing"

	"speech-detect-server-golang/internal/domain/audio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderSegment(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecorder(dir, "session-1", 16000, 1)
	require.NoError(t, err)

	frame := make([]float32, 160)
	for i := range frame {
		frame[i] = float32(0.3 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	// 语音段外的帧被忽略
	r.Feed(frame)
	path, err := r.OnSpeechEnd()
	require.NoError(t, err)
	assert.Empty(t, path)

	// 完整语音段落盘
	r.OnSpeechStart()
	for i := 0; i < 10; i++ {
		r.Feed(frame)
	}
	path, err = r.OnSpeechEnd()
	require.NoError(t, err)
	require.NotEmpty(t, path)

	samples, format, err := audio.DecodeWavFile(path)
	require.NoError(t, err)
	assert.Equal(t, 16000, format.SampleRate)
	assert.Len(t, samples, 1600)

	// 第二段序号递增
	r.OnSpeechStart()
	r.Feed(frame)
	path2, err := r.OnSpeechEnd()
	require.NoError(t, err)
	assert.NotEqual(t, path, path2)
}

func TestRecorderFlush(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecorder(dir, "session-2", 16000, 1)
	require.NoError(t, err)

	r.OnSpeechStart()
	r.Feed(make([]float32, 160))
	r.Flush()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
