package silero_vad

import (
	"errors"
	"sync"

	. "speech-detect-server-golang/internal/domain/vad/inter"
	log "speech-detect-server-golang/logger"

	"github.com/streamer45/silero-vad-go/speech"
)

// VAD默认配置
var defaultVADConfig = map[string]interface{}{
	"threshold":               0.5,
	"min_silence_duration_ms": int64(100),
	"sample_rate":             16000,
	"channels":                1,
	"speech_pad_ms":           60,
}

var (
	// 全局VAD资源池实例
	globalVADResourcePool *VADResourcePool
	once                  sync.Once
)

// SileroVAD Silero VAD模型实现
// ONNX模型只输出语音段, 置信度按二值 0/1 报告
type SileroVAD struct {
	detector     *speech.Detector
	vadThreshold float32
	sampleRate   int
	channels     int
	mu           sync.Mutex
}

// NewSileroVAD 创建SileroVAD实例
func NewSileroVAD(config map[string]interface{}) (*SileroVAD, error) {
	threshold, ok := config["threshold"].(float64)
	if !ok {
		threshold = 0.5
	}

	silenceMs, ok := config["min_silence_duration_ms"].(int64)
	if !ok {
		silenceMs = 100
	}

	sampleRate, ok := config["sample_rate"].(int)
	if !ok {
		sampleRate = 16000
	}

	channels, ok := config["channels"].(int)
	if !ok {
		channels = 1
	}

	speechPadMs, ok := config["speech_pad_ms"].(int)
	if !ok {
		speechPadMs = 60
	}

	modelPath, ok := config["model_path"].(string)
	if !ok {
		return nil, errors.New("缺少模型路径配置")
	}

	detector, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           sampleRate,
		Threshold:            float32(threshold),
		MinSilenceDurationMs: int(silenceMs),
		SpeechPadMs:          speechPadMs,
		LogLevel:             speech.LogLevelWarn,
	})
	if err != nil {
		return nil, err
	}

	return &SileroVAD{
		detector:     detector,
		vadThreshold: float32(threshold),
		sampleRate:   sampleRate,
		channels:     channels,
	}, nil
}

// Confidence 实现VAD接口, 检出语音段报告1.0, 否则0.0
func (s *SileroVAD) Confidence(pcmData []float32) (float64, error) {
	active, err := s.IsVAD(pcmData)
	if err != nil {
		return 0, err
	}
	if active {
		return 1.0, nil
	}
	return 0.0, nil
}

// IsVAD 实现VAD接口的IsVAD方法
func (s *SileroVAD) IsVAD(pcmData []float32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments, err := s.detector.Detect(pcmData)
	if err != nil {
		log.Errorf("silero检测失败: %s", err)
		return false, err
	}

	for _, seg := range segments {
		log.Debugf("speech starts at %0.2fs", seg.SpeechStartAt)
		if seg.SpeechEndAt > 0 {
			log.Debugf("speech ends at %0.2fs", seg.SpeechEndAt)
		}
	}

	return len(segments) > 0, nil
}

// Reset 重置VAD检测器状态
func (s *SileroVAD) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.detector.Reset()
}

// Close 关闭并释放资源
func (s *SileroVAD) Close() error {
	if s.detector != nil {
		return s.detector.Destroy()
	}
	return nil
}

// InitVadPool 初始化全局VAD资源池, 只执行一次
func InitVadPool(config map[string]interface{}) error {
	var err error
	once.Do(func() {
		globalVADResourcePool = &VADResourcePool{
			maxSize:        defaultPoolConfig.MaxSize,
			acquireTimeout: defaultPoolConfig.AcquireTimeout,
			defaultConfig:  defaultVADConfig,
		}
		err = globalVADResourcePool.initFromConfig(config)
	})
	return err
}

// AcquireVAD 获取一个VAD实例
func AcquireVAD(config map[string]interface{}) (VAD, error) {
	if globalVADResourcePool == nil || !globalVADResourcePool.initialized {
		if err := InitVadPool(config); err != nil {
			return nil, err
		}
	}
	return globalVADResourcePool.AcquireVAD()
}

// ReleaseVAD 释放一个VAD实例
func ReleaseVAD(vad VAD) error {
	if globalVADResourcePool != nil && globalVADResourcePool.initialized {
		globalVADResourcePool.ReleaseVAD(vad)
	}
	return nil
}
