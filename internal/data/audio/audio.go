package audio

const (
	SampleRate    = 16000
	Channels      = 1
	FrameDuration = 10
	Format        = "pcm"
)

type AudioFormat struct {
	Format        string `json:"format,omitempty"`
	SampleRate    int    `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	FrameDuration int    `json:"frame_duration,omitempty"`
}

// DefaultInputAudioFormat 客户端hello未指定格式时的默认输入格式
var DefaultInputAudioFormat = AudioFormat{
	SampleRate:    SampleRate,
	Channels:      Channels,
	FrameDuration: FrameDuration,
	Format:        Format,
}

// FrameSamples 每帧采样数 (单通道)
func (f AudioFormat) FrameSamples() int {
	return f.SampleRate * f.FrameDuration / 1000
}
