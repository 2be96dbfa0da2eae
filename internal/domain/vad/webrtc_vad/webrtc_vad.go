package webrtc_vad

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"speech-detect-server-golang/internal/domain/vad/inter"

	"github.com/hackers365/go-webrtcvad"
)

const (
	// DefaultSampleRate WebRTC VAD 支持的采样率 (8000, 16000, 32000, 48000)
	DefaultSampleRate = 16000
	// DefaultMode VAD 敏感度模式 (0: 最不敏感, 3: 最敏感)
	DefaultMode = 2
	// FrameDuration 帧持续时间 (ms)，WebRTC VAD 支持 10ms, 20ms, 30ms
	FrameDuration = 20
)

// WebRTCVAD WebRTC VAD 实现, 同时实现 util.Resource 接口以便池化
// 引擎只输出二值判定, 置信度按 0/1 报告
type WebRTCVAD struct {
	webrtcVad      *webrtcvad.VAD
	sampleRate     int
	mode           int
	frameSize      int // 每帧采样数
	frameSizeBytes int // 每帧字节数
	initialized    bool
	lastUsed       time.Time
	mu             sync.RWMutex
}

var vadPool *WebRTCVADPool
var once sync.Once

func AcquireVAD(config map[string]interface{}) (inter.VAD, error) {
	if vadPool == nil {
		once.Do(func() {
			poolConfig := getPoolConfigFromMap(config)
			vadConfig := getVadConfigFromMap(config)
			pool, err := NewWebRTCVADPool(vadConfig, poolConfig)
			if err != nil {
				return
			}
			vadPool = pool
		})
	}
	if vadPool == nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD pool")
	}
	return vadPool.AcquireVAD()
}

func ReleaseVAD(vad inter.VAD) error {
	if vadPool != nil {
		return vadPool.ReleaseVAD(vad)
	}
	return nil
}

// NewWebRTCVAD 创建新的 WebRTC VAD 实例 (未初始化)
func NewWebRTCVAD() inter.VAD {
	return &WebRTCVAD{
		sampleRate: DefaultSampleRate,
		mode:       DefaultMode,
		lastUsed:   time.Now(),
	}
}

// NewWebRTCVADWithConfig 使用指定配置创建并初始化 WebRTC VAD 实例
func NewWebRTCVADWithConfig(sampleRate, mode int) (inter.VAD, error) {
	if !isValidSampleRate(sampleRate) {
		return nil, fmt.Errorf("unsupported sample rate: %d, supported rates: 8000, 16000, 32000, 48000", sampleRate)
	}
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("invalid VAD mode: %d, must be 0-3", mode)
	}

	vad := &WebRTCVAD{
		sampleRate: sampleRate,
		mode:       mode,
		lastUsed:   time.Now(),
	}

	if err := vad.init(); err != nil {
		return nil, err
	}
	return vad, nil
}

// init 初始化 WebRTC VAD
func (w *WebRTCVAD) init() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.initialized {
		return nil
	}

	w.frameSize = w.sampleRate / 1000 * FrameDuration
	w.frameSizeBytes = w.frameSize * 2 // 16-bit PCM

	var err error
	w.webrtcVad, err = webrtcvad.New()
	if w.webrtcVad == nil {
		return fmt.Errorf("failed to create WebRTC VAD instance")
	}

	err = w.webrtcVad.SetMode(w.mode)
	if err != nil {
		webrtcvad.Free(w.webrtcVad)
		return fmt.Errorf("failed to set WebRTC VAD mode: %+v", err)
	}

	w.initialized = true
	w.lastUsed = time.Now()
	return nil
}

// Confidence 实现VAD接口, 有语音活动报告1.0, 否则0.0
func (w *WebRTCVAD) Confidence(pcmData []float32) (float64, error) {
	active, err := w.IsVAD(pcmData)
	if err != nil {
		return 0, err
	}
	if active {
		return 1.0, nil
	}
	return 0.0, nil
}

// IsVAD 检测音频数据中的语音活动
// 数据超过一帧时按帧切分, 过半数帧有语音则判定为语音
func (w *WebRTCVAD) IsVAD(pcmData []float32) (bool, error) {
	if len(pcmData) == 0 {
		return false, nil
	}

	// 延迟初始化, 便于池外直接使用
	if err := w.init(); err != nil {
		return false, err
	}

	w.mu.Lock()
	w.lastUsed = time.Now()
	w.mu.Unlock()

	pcmBytes := float32ToPCMBytes(pcmData)
	if len(pcmBytes) < w.frameSizeBytes {
		return false, nil
	}

	activityCount := 0
	for i := 0; i+w.frameSizeBytes <= len(pcmBytes); i += w.frameSizeBytes {
		frameData := pcmBytes[i : i+w.frameSizeBytes]
		isActive, err := w.webrtcVad.Process(w.sampleRate, frameData)
		if err != nil {
			return false, fmt.Errorf("WebRTC VAD process error: %w", err)
		}
		if isActive {
			activityCount++
		}
	}

	frameCount := len(pcmBytes) / w.frameSizeBytes
	return activityCount >= (frameCount+1)/2, nil
}

// Reset WebRTC VAD 无跨帧状态
func (w *WebRTCVAD) Reset() error {
	return nil
}

// Close 关闭并释放资源 (实现 Resource 接口)
func (w *WebRTCVAD) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.initialized && w.webrtcVad != nil {
		webrtcvad.Free(w.webrtcVad)
		w.initialized = false
	}
	return nil
}

// IsValid 检查资源是否有效 (实现 Resource 接口)
func (w *WebRTCVAD) IsValid() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.initialized && w.webrtcVad != nil
}

// SetMode 设置 VAD 敏感度模式
func (w *WebRTCVAD) SetMode(mode int) error {
	if mode < 0 || mode > 3 {
		return fmt.Errorf("invalid VAD mode: %d, must be 0-3", mode)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.mode = mode
	if w.initialized {
		return w.webrtcVad.SetMode(mode)
	}
	return nil
}

// float32ToPCMBytes 将 float32 采样转换为小端 16-bit PCM 字节流
func float32ToPCMBytes(samples []float32) []byte {
	pcmBytes := make([]byte, len(samples)*2)

	for i, sample := range samples {
		var intSample int16
		if sample > 1.0 {
			intSample = 32767
		} else if sample < -1.0 {
			intSample = -32768
		} else {
			intSample = int16(sample * 32767)
		}
		binary.LittleEndian.PutUint16(pcmBytes[i*2:], uint16(intSample))
	}

	return pcmBytes
}

// isValidSampleRate 检查采样率是否被 WebRTC VAD 支持
func isValidSampleRate(sampleRate int) bool {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
		return true
	}
	return false
}
