package audio

import (
	"encoding/binary"
	"fmt"
)

// PCMBytesToFloat32 将小端16-bit PCM字节流转换为float32采样
func PCMBytesToFloat32(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("pcm data length must be even, got %d", len(data))
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		sample := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples, nil
}

// Int16ToFloat32 将int16采样转换为float32采样
func Int16ToFloat32(pcm []int16) []float32 {
	samples := make([]float32, len(pcm))
	for i, sample := range pcm {
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// Float32ToInt16 将float32采样转换为int16采样, 越界裁剪
func Float32ToInt16(samples []float32) []int16 {
	pcm := make([]int16, len(samples))
	for i, sample := range samples {
		switch {
		case sample > 1.0:
			pcm[i] = 32767
		case sample < -1.0:
			pcm[i] = -32768
		default:
			pcm[i] = int16(sample * 32767)
		}
	}
	return pcm
}
