package client

import (
	"time"

	types_audio "speech-detect-server-golang/internal/data/audio"
	"speech-detect-server-golang/internal/domain/detector"
)

// ClientState 一路音频流的全部会话状态, 由单个帧循环串行访问
type ClientState struct {
	SessionID string
	DeviceID  string
	// 客户端输入音频格式
	InputFormat types_audio.AudioFormat
	// 语音/静音防抖状态机
	Detector *detector.SpeechDetector
	// 说话状态跟踪
	VoiceStatus VoiceStatus
	// 会话统计
	Statistic Statistic
	// 是否处于listen状态, stop后丢弃音频帧
	Listening bool
}

// NewClientState 创建会话状态
func NewClientState(sessionID, deviceID string, format types_audio.AudioFormat, config detector.Config) *ClientState {
	state := &ClientState{
		SessionID:   sessionID,
		DeviceID:    deviceID,
		InputFormat: format,
		Detector:    detector.NewSpeechDetector(config),
		Listening:   true,
	}
	state.Statistic.StartTs = time.Now().UnixMilli()
	return state
}

// Reset 清空检测状态, listen重新开始时调用
func (s *ClientState) Reset() {
	s.Detector.Reset()
	s.VoiceStatus.Reset()
}
