package webrtc_vad

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateSineWave 生成合成音频数据
func generateSineWave(sampleRate int, frequency, duration, amplitude float64) []float32 {
	samples := int(float64(sampleRate) * duration)
	data := make([]float32, samples)
	for i := range data {
		data[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate)))
	}
	return data
}

// TestNewWebRTCVAD 测试创建 WebRTC VAD 实例
func TestNewWebRTCVAD(t *testing.T) {
	vad := NewWebRTCVAD()
	require.NotNil(t, vad)

	webrtcVAD, ok := vad.(*WebRTCVAD)
	require.True(t, ok)
	assert.Equal(t, DefaultSampleRate, webrtcVAD.sampleRate)
	assert.Equal(t, DefaultMode, webrtcVAD.mode)
	assert.False(t, webrtcVAD.initialized)

	err := vad.Close()
	assert.NoError(t, err)
}

// TestNewWebRTCVADWithConfig 测试使用配置创建 WebRTC VAD 实例
func TestNewWebRTCVADWithConfig(t *testing.T) {
	vad, err := NewWebRTCVADWithConfig(8000, 1)
	require.NoError(t, err)
	require.NotNil(t, vad)

	webrtcVAD, ok := vad.(*WebRTCVAD)
	require.True(t, ok)
	assert.Equal(t, 8000, webrtcVAD.sampleRate)
	assert.Equal(t, 1, webrtcVAD.mode)

	err = vad.Close()
	assert.NoError(t, err)

	// 无效采样率
	vad, err = NewWebRTCVADWithConfig(22050, 1)
	assert.Error(t, err)
	assert.Nil(t, vad)

	// 无效模式
	vad, err = NewWebRTCVADWithConfig(16000, 5)
	assert.Error(t, err)
	assert.Nil(t, vad)
}

// TestWebRTCVAD_IsVAD 测试语音活动检测
func TestWebRTCVAD_IsVAD(t *testing.T) {
	vad := NewWebRTCVAD()
	require.NotNil(t, vad)
	defer vad.Close()

	// 空数据
	isActive, err := vad.IsVAD([]float32{})
	assert.NoError(t, err)
	assert.False(t, isActive)

	// 静音数据（全零）
	silentData := make([]float32, 1600) // 100ms at 16kHz
	_, err = vad.IsVAD(silentData)
	assert.NoError(t, err)

	// 合成语音数据（正弦波）, 结果取决于VAD算法, 只要求不报错
	speechData := generateSineWave(16000, 440, 1.0, 0.5)
	_, err = vad.IsVAD(speechData)
	assert.NoError(t, err)

	// 数据量不足一帧
	shortData := make([]float32, 100)
	isActive, err = vad.IsVAD(shortData)
	assert.NoError(t, err)
	assert.False(t, isActive)
}

// TestWebRTCVAD_Confidence 二值判定映射为 0/1 置信度
func TestWebRTCVAD_Confidence(t *testing.T) {
	vad := NewWebRTCVAD()
	require.NotNil(t, vad)
	defer vad.Close()

	confidence, err := vad.Confidence(make([]float32, 320))
	require.NoError(t, err)
	assert.Contains(t, []float64{0.0, 1.0}, confidence)
}

// TestWebRTCVAD_SetMode 测试设置模式
func TestWebRTCVAD_SetMode(t *testing.T) {
	vad := NewWebRTCVAD()
	require.NotNil(t, vad)
	defer vad.Close()

	webrtcVAD, ok := vad.(*WebRTCVAD)
	require.True(t, ok)

	for mode := 0; mode <= 3; mode++ {
		err := webrtcVAD.SetMode(mode)
		assert.NoError(t, err)
	}

	err := webrtcVAD.SetMode(-1)
	assert.Error(t, err)

	err = webrtcVAD.SetMode(4)
	assert.Error(t, err)
}

// TestWebRTCVAD_Close 测试关闭功能
func TestWebRTCVAD_Close(t *testing.T) {
	vad := NewWebRTCVAD()
	require.NotNil(t, vad)

	// 未初始化时关闭
	err := vad.Close()
	assert.NoError(t, err)

	// 初始化后关闭, 以及重复关闭
	testData := make([]float32, 1600)
	_, err = vad.IsVAD(testData)
	assert.NoError(t, err)

	assert.NoError(t, vad.Close())
	assert.NoError(t, vad.Close())
}

// TestFloat32ToPCMBytes 测试数据类型转换与边界裁剪
func TestFloat32ToPCMBytes(t *testing.T) {
	testData := []float32{-1.0, 0.0, 1.0, 1.5, -1.5}
	pcmBytes := float32ToPCMBytes(testData)
	require.Equal(t, len(testData)*2, len(pcmBytes))

	expected := []int16{-32767, 0, 32767, 32767, -32768}
	for i, want := range expected {
		got := int16(binary.LittleEndian.Uint16(pcmBytes[i*2:]))
		assert.Equal(t, want, got)
	}
}

// TestIsValidSampleRate 测试采样率验证
func TestIsValidSampleRate(t *testing.T) {
	for _, rate := range []int{8000, 16000, 32000, 48000} {
		assert.True(t, isValidSampleRate(rate))
	}
	for _, rate := range []int{0, 22050, 44100, 96000} {
		assert.False(t, isValidSampleRate(rate))
	}
}
