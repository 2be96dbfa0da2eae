package client

// VoiceStatus 跟踪会话内的说话状态, 由单个帧循环串行更新
type VoiceStatus struct {
	Speaking          bool  //当前是否在说话
	SpeakingStartTime int64 //本次语音段开始时间 (毫秒)
	LastSpeakingTime  int64 //最后说话时间 (毫秒)
}

func (v *VoiceStatus) Reset() {
	v.Speaking = false
	v.SpeakingStartTime = 0
	v.LastSpeakingTime = 0
}

func (v *VoiceStatus) IsSpeaking() bool {
	return v.Speaking
}

func (v *VoiceStatus) SetSpeaking(speaking bool, nowMs int64) {
	if speaking && !v.Speaking {
		v.SpeakingStartTime = nowMs
	}
	v.Speaking = speaking
	if speaking {
		v.LastSpeakingTime = nowMs
	}
}

// SpeechDuration 返回当前/最近一次语音段的时长 (毫秒)
func (v *VoiceStatus) SpeechDuration() int64 {
	if v.SpeakingStartTime == 0 {
		return 0
	}
	return v.LastSpeakingTime - v.SpeakingStartTime
}
