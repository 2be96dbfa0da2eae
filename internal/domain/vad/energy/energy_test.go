package energy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 生成指定幅度的正弦波帧, 16kHz 10ms
func sineFrame(amplitude float64) []float32 {
	frame := make([]float32, 160)
	for i := range frame {
		frame[i] = float32(amplitude * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return frame
}

func TestEnergyVADConfidence(t *testing.T) {
	v := NewEnergyVAD(nil)

	// 空帧与全零帧置信度为0
	confidence, err := v.Confidence(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, confidence)

	confidence, err = v.Confidence(make([]float32, 160))
	require.NoError(t, err)
	assert.Equal(t, 0.0, confidence)

	// 大幅度信号饱和到1.0
	confidence, err = v.Confidence(sineFrame(0.8))
	require.NoError(t, err)
	assert.Equal(t, 1.0, confidence)

	// 小幅度信号置信度介于0和1之间
	confidence, err = v.Confidence(sineFrame(0.01))
	require.NoError(t, err)
	assert.Greater(t, confidence, 0.0)
	assert.Less(t, confidence, 1.0)
}

func TestEnergyVADIsVAD(t *testing.T) {
	v := NewEnergyVAD(map[string]interface{}{
		"reference_level": 0.05,
		"threshold":       0.5,
	})

	active, err := v.IsVAD(sineFrame(0.5))
	require.NoError(t, err)
	assert.True(t, active)

	active, err = v.IsVAD(sineFrame(0.001))
	require.NoError(t, err)
	assert.False(t, active)

	assert.NoError(t, v.Reset())
	assert.NoError(t, v.Close())
}
