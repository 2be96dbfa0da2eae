package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCMBytesToFloat32(t *testing.T) {
	// 奇数长度报错
	_, err := PCMBytesToFloat32([]byte{0x01})
	assert.Error(t, err)

	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:], uint16(int16(0)))
	binary.LittleEndian.PutUint16(data[2:], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(data[4:], uint16(int16(-32768)))

	samples, err := PCMBytesToFloat32(data)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.0, samples[0], 1e-6)
	assert.InDelta(t, 0.5, samples[1], 1e-4)
	assert.InDelta(t, -1.0, samples[2], 1e-6)
}

func TestFloat32Int16RoundTrip(t *testing.T) {
	samples := []float32{-1.5, -1.0, -0.5, 0, 0.5, 1.0, 1.5}
	pcm := Float32ToInt16(samples)
	require.Len(t, pcm, len(samples))

	// 越界值被裁剪
	assert.Equal(t, int16(-32768), pcm[0])
	assert.Equal(t, int16(32767), pcm[6])

	back := Int16ToFloat32(pcm)
	for i := 1; i <= 5; i++ {
		assert.InDelta(t, float64(samples[i]), float64(back[i]), 1e-3)
	}
}
