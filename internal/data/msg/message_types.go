package msg

import (
	types_audio "speech-detect-server-golang/internal/data/audio"
)

const (
	// 设备事件发布主题前缀, 后接 device_id
	MSpeechEventTopicPrefix = "speech/events/"
)

// 客户端消息类型常量
const (
	MessageTypeHello   = "hello"   // 握手消息
	MessageTypeListen  = "listen"  // 监听控制消息
	MessageTypeGoodBye = "goodbye" // 再见消息
)

// 服务器消息类型常量
const (
	ServerMessageTypeHello  = "hello"  // 握手响应
	ServerMessageTypeSpeech = "speech" // 语音状态事件
	ServerMessageTypeError  = "error"  // 错误消息
)

// 消息状态常量
const (
	MessageStateStart = "start" // 开始状态
	MessageStateStop  = "stop"  // 停止状态
)

// ClientMessage 表示客户端消息
type ClientMessage struct {
	Type        string                   `json:"type"`
	DeviceID    string                   `json:"device_id,omitempty"`
	SessionID   string                   `json:"session_id,omitempty"`
	Token       string                   `json:"token,omitempty"`
	State       string                   `json:"state,omitempty"`
	AudioParams *types_audio.AudioFormat `json:"audio_params,omitempty"`
}

// ServerMessage 表示服务器消息
type ServerMessage struct {
	Type        string                   `json:"type"`
	SessionID   string                   `json:"session_id,omitempty"`
	Text        string                   `json:"text,omitempty"`
	AudioParams *types_audio.AudioFormat `json:"audio_params,omitempty"`
	Speech      *SpeechEvent             `json:"speech,omitempty"`
}

// SpeechEvent 语音状态变化事件
type SpeechEvent struct {
	DeviceID   string  `json:"device_id,omitempty"`
	SessionID  string  `json:"session_id,omitempty"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	// 状态翻转时刻 (毫秒)
	Timestamp int64 `json:"timestamp"`
	// 本次语音段时长, 仅在回到 NOT_SPEAKING 时有值 (毫秒)
	SpeechDurationMs int64 `json:"speech_duration_ms,omitempty"`
}
