package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector() *SpeechDetector {
	return NewSpeechDetector(Config{
		SpeechThreshold:    0.90,
		SpeechThresholdMs:  300,
		SilenceThresholdMs: 700,
	})
}

// feed 以10ms为间隔连续输入同一个置信度, 返回最后一次的状态
func feed(d *SpeechDetector, confidence float64, fromMs, toMs int64) Status {
	status := d.Status()
	for t := fromMs; t <= toMs; t += 10 {
		status = d.Analyze(confidence, t)
	}
	return status
}

// TestInitialStatus 新建检测器在处理任何采样前应为 NOT_SPEAKING
func TestInitialStatus(t *testing.T) {
	d := newTestDetector()
	assert.Equal(t, StatusNotSpeaking, d.Status())
	assert.Equal(t, "NOT_SPEAKING", d.Status().String())
}

// TestSpeechDebounce 高置信度需要持续超过 SpeechThresholdMs 才进入 SPEAKING
func TestSpeechDebounce(t *testing.T) {
	d := newTestDetector()

	// 0~300ms 内 diff 最大为300, 严格大于不成立, 不应翻转
	status := feed(d, 0.95, 0, 300)
	assert.Equal(t, StatusNotSpeaking, status)

	// 310ms 时 diff=310 > 300, 翻转为 SPEAKING
	status = d.Analyze(0.95, 310)
	assert.Equal(t, StatusSpeaking, status)
	assert.Equal(t, int64(310), d.LastSpeakingTime())
}

// TestSpeechRunInterrupted 候选语音段被低置信度帧打断后需要重新计时
func TestSpeechRunInterrupted(t *testing.T) {
	d := newTestDetector()

	feed(d, 0.95, 0, 200)
	// 一帧静音打断候选段
	d.Analyze(0.10, 210)
	// 再次从头积累, 到500ms仅持续280ms, 不应翻转
	status := feed(d, 0.95, 220, 500)
	assert.Equal(t, StatusNotSpeaking, status)

	// 继续输入直到超过防抖窗口
	status = feed(d, 0.95, 510, 530)
	assert.Equal(t, StatusSpeaking, status)
}

// TestSilenceDebounce 静音需要持续超过 SilenceThresholdMs 才回到 NOT_SPEAKING
func TestSilenceDebounce(t *testing.T) {
	d := newTestDetector()

	require.Equal(t, StatusSpeaking, feed(d, 0.95, 0, 400))

	// 最后一个语音帧在400ms, 静音到1100ms时 diff=700, 不足以翻转
	status := feed(d, 0.50, 410, 1100)
	assert.Equal(t, StatusSpeaking, status)

	// 1110ms 时 diff=710 > 700, 回到 NOT_SPEAKING
	status = d.Analyze(0.50, 1110)
	assert.Equal(t, StatusNotSpeaking, status)
}

// TestShortSilenceGap 短静音间隙不应打断 SPEAKING 状态
func TestShortSilenceGap(t *testing.T) {
	d := newTestDetector()

	require.Equal(t, StatusSpeaking, feed(d, 0.95, 0, 400))

	// 500ms 的静音间隙, 小于700ms阈值
	status := feed(d, 0.30, 410, 900)
	assert.Equal(t, StatusSpeaking, status)

	// 说话恢复, 状态保持且 lastSpeakingTime 前进
	status = d.Analyze(0.95, 910)
	assert.Equal(t, StatusSpeaking, status)
	assert.Equal(t, int64(910), d.LastSpeakingTime())
}

// TestThresholdBoundary 置信度恰好等于阈值按静音处理 (严格大于)
func TestThresholdBoundary(t *testing.T) {
	d := newTestDetector()

	status := feed(d, 0.90, 0, 1000)
	assert.Equal(t, StatusNotSpeaking, status)

	// 超出 [0,1] 的置信度不裁剪, 按字面值比较
	d2 := newTestDetector()
	status = feed(d2, 1.5, 0, 310)
	assert.Equal(t, StatusSpeaking, status)

	d3 := newTestDetector()
	status = feed(d3, -0.5, 0, 310)
	assert.Equal(t, StatusNotSpeaking, status)
}

// TestSteadySpeaking 持续语音时状态保持 SPEAKING 且时间戳持续前进
func TestSteadySpeaking(t *testing.T) {
	d := newTestDetector()

	require.Equal(t, StatusSpeaking, feed(d, 0.95, 0, 400))

	last := d.LastSpeakingTime()
	for ts := int64(410); ts <= 2000; ts += 10 {
		status := d.Analyze(0.95, ts)
		require.Equal(t, StatusSpeaking, status)
		require.Greater(t, ts, last)
		last = d.LastSpeakingTime()
		require.Equal(t, ts, last)
	}
}

// TestReset 复位后等同新建实例
func TestReset(t *testing.T) {
	d := newTestDetector()
	require.Equal(t, StatusSpeaking, feed(d, 0.95, 0, 400))

	d.Reset()
	assert.Equal(t, StatusNotSpeaking, d.Status())
	assert.Equal(t, int64(0), d.LastSpeakingTime())

	// 复位后防抖窗口重新计时
	status := feed(d, 0.95, 1000, 1300)
	assert.Equal(t, StatusNotSpeaking, status)
	status = d.Analyze(0.95, 1310)
	assert.Equal(t, StatusSpeaking, status)
}

// TestDefaultConfig 非法配置回退到默认值
func TestDefaultConfig(t *testing.T) {
	d := NewSpeechDetector(Config{})
	assert.Equal(t, DefaultConfig(), d.config)
}
