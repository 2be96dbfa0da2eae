package detector

import (
	"time"

	"speech-detect-server-golang/constants"
)

// Status 语音检测状态
type Status int

const (
	StatusNotSpeaking Status = iota
	StatusSpeaking
)

func (s Status) String() string {
	if s == StatusSpeaking {
		return "SPEAKING"
	}
	return "NOT_SPEAKING"
}

// Config 语音检测防抖配置
type Config struct {
	// 置信度阈值, 严格大于该值才算语音帧
	SpeechThreshold float64
	// 置信度需要持续超过阈值多久才进入 SPEAKING (毫秒)
	SpeechThresholdMs int64
	// 置信度需要持续低于阈值多久才回到 NOT_SPEAKING (毫秒)
	SilenceThresholdMs int64
}

// DefaultConfig 返回默认防抖配置
func DefaultConfig() Config {
	return Config{
		SpeechThreshold:    constants.DefaultSpeechThreshold,
		SpeechThresholdMs:  constants.DefaultSpeechThresholdMs,
		SilenceThresholdMs: constants.DefaultSilenceThresholdMs,
	}
}

// SpeechDetector 基于逐帧置信度的语音/静音防抖状态机
// 每路音频流创建一个实例, 由单个读帧循环串行调用, 不加锁
type SpeechDetector struct {
	config Config

	status Status
	// 当前候选语音段的起始时间 (毫秒)
	startedSpeakingTime int64
	// 最近一个语音帧的时间 (毫秒)
	lastSpeakingTime int64
	// 是否处于候选语音段中, 低于阈值的帧会打断候选段
	inSpeechRun bool
}

// NewSpeechDetector 创建检测器, 初始状态为 NOT_SPEAKING
func NewSpeechDetector(config Config) *SpeechDetector {
	if config.SpeechThresholdMs <= 0 {
		config.SpeechThresholdMs = constants.DefaultSpeechThresholdMs
	}
	if config.SilenceThresholdMs <= 0 {
		config.SilenceThresholdMs = constants.DefaultSilenceThresholdMs
	}
	if config.SpeechThreshold <= 0 {
		config.SpeechThreshold = constants.DefaultSpeechThreshold
	}
	return &SpeechDetector{
		config: config,
		status: StatusNotSpeaking,
	}
}

// Analyze 处理一个置信度采样, 返回处理后的状态
// confidence 超出 [0,1] 不做裁剪, 阈值比较为严格大于
// nowMs 为单调毫秒时间戳, 由调用方按帧到达顺序提供
func (d *SpeechDetector) Analyze(confidence float64, nowMs int64) Status {
	if confidence > d.config.SpeechThreshold {
		if d.status == StatusNotSpeaking {
			if !d.inSpeechRun {
				d.inSpeechRun = true
				d.startedSpeakingTime = nowMs
			}
			if nowMs-d.startedSpeakingTime > d.config.SpeechThresholdMs {
				d.status = StatusSpeaking
			}
		}
		if d.status == StatusSpeaking {
			d.lastSpeakingTime = nowMs
		}
	} else {
		d.inSpeechRun = false
		if d.status == StatusSpeaking {
			if nowMs-d.lastSpeakingTime > d.config.SilenceThresholdMs {
				d.status = StatusNotSpeaking
			}
		}
	}
	return d.status
}

// AnalyzeNow 使用当前时间处理一个置信度采样
func (d *SpeechDetector) AnalyzeNow(confidence float64) Status {
	return d.Analyze(confidence, time.Now().UnixMilli())
}

// Status 返回当前状态, 不推进状态机
func (d *SpeechDetector) Status() Status {
	return d.status
}

// LastSpeakingTime 返回最近一个语音帧的毫秒时间戳
func (d *SpeechDetector) LastSpeakingTime() int64 {
	return d.lastSpeakingTime
}

// Reset 复位到初始状态
func (d *SpeechDetector) Reset() {
	d.status = StatusNotSpeaking
	d.startedSpeakingTime = 0
	d.lastSpeakingTime = 0
	d.inSpeechRun = false
}
