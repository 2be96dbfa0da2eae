package constants

const (
	VadTypeSileroVad = "silero_vad"
	VadTypeWebRTCVad = "webrtc_vad"
	VadTypeEnergy    = "energy"
)

// 语音检测默认参数
const (
	DefaultSpeechThreshold    = 0.90
	DefaultSpeechThresholdMs  = 300
	DefaultSilenceThresholdMs = 700
	DefaultVadResetPeriodMs   = 2000
	DefaultFrameDurationMs    = 10
)

const (
	AudioFormatPcm  = "pcm"
	AudioFormatOpus = "opus"
)
