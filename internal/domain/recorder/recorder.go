package recorder

import (
	"fmt"
	"os"
	"path/filepath"

	"speech-detect-server-golang/internal/domain/audio"
	"speech-detect-server-golang/internal/util"
	log "speech-detect-server-golang/logger"
)

// Recorder 把检测到的语音段落盘为WAV文件
// Feed由帧循环调用, Flush可能来自连接关闭路径, 缓冲区需要并发安全
type Recorder struct {
	dir        string
	sessionID  string
	sampleRate int
	channels   int

	buf       util.SafeBuffer
	recording bool
	index     int
}

// NewRecorder 创建语音段录制器, 目录不存在时自动创建
func NewRecorder(dir, sessionID string, sampleRate, channels int) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建录音目录失败: %v", err)
	}
	return &Recorder{
		dir:        dir,
		sessionID:  sessionID,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// OnSpeechStart 开始缓冲一个新的语音段
func (r *Recorder) OnSpeechStart() {
	r.buf.Reset()
	r.recording = true
}

// Feed 追加一帧采样, 仅在语音段内生效
func (r *Recorder) Feed(samples []float32) {
	if !r.recording {
		return
	}
	pcm := audio.Float32ToInt16(samples)
	data := make([]byte, len(pcm)*2)
	for i, sample := range pcm {
		data[i*2] = byte(sample)
		data[i*2+1] = byte(sample >> 8)
	}
	r.buf.Write(data)
}

// OnSpeechEnd 结束当前语音段并写出WAV文件, 返回文件路径
func (r *Recorder) OnSpeechEnd() (string, error) {
	if !r.recording {
		return "", nil
	}
	r.recording = false

	data := r.buf.Bytes()
	r.buf.Reset()
	if len(data) == 0 {
		return "", nil
	}

	samples, err := audio.PCMBytesToFloat32(data)
	if err != nil {
		return "", err
	}

	r.index++
	path := filepath.Join(r.dir, fmt.Sprintf("%s_%03d.wav", r.sessionID, r.index))
	if err := audio.WriteWavFile(path, samples, r.sampleRate, r.channels); err != nil {
		return "", err
	}

	log.Infof("语音段已落盘: %s (%d 采样)", path, len(samples))
	return path, nil
}

// Flush 连接关闭时写出未完成的语音段
func (r *Recorder) Flush() {
	if !r.recording {
		return
	}
	if _, err := r.OnSpeechEnd(); err != nil {
		log.Errorf("写出未完成语音段失败: %v", err)
	}
}
