package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"speech-detect-server-golang/constants"
	"speech-detect-server-golang/internal/app/server/events"
	"speech-detect-server-golang/internal/app/server/types"
	types_audio "speech-detect-server-golang/internal/data/audio"
	"speech-detect-server-golang/internal/data/client"
	"speech-detect-server-golang/internal/data/msg"
	"speech-detect-server-golang/internal/db/redis"
	"speech-detect-server-golang/internal/domain/audio"
	"speech-detect-server-golang/internal/domain/detector"
	"speech-detect-server-golang/internal/domain/recorder"
	"speech-detect-server-golang/internal/domain/vad"
	"speech-detect-server-golang/internal/domain/vad/inter"
	log "speech-detect-server-golang/logger"
)

const (
	// 握手超时 (秒)
	helloTimeout = 10
	// 音频接收超时 (秒), 超时视为连接空闲, 关闭会话
	audioTimeout = 120
	// 命令接收超时 (秒)
	cmdTimeout = 60
)

// Session 一条连接上的语音检测会话, 帧循环串行驱动状态机
type Session struct {
	conn  types.IConn
	state *client.ClientState

	vadInstance inter.VAD
	// opus输入时使用, pcm输入为nil
	processer *audio.AudioProcesser
	// processer来自池时不为nil, 归还用
	processerPool *audio.ProcesserPool
	pcmBuf        []float32

	rec       *recorder.Recorder
	publisher *events.Publisher

	// 上次重置VAD内部状态的时刻 (毫秒)
	lastVadResetMs int64

	ctx    context.Context
	cancel context.CancelFunc
	// 连接关闭回调会重入Close, 用CAS而不是sync.Once防止自锁
	closed atomic.Bool
}

// newSession 完成hello握手并装配检测管线
func (m *Manager) newSession(conn types.IConn) (*Session, error) {
	data, err := conn.RecvCmd(helloTimeout)
	if err != nil {
		return nil, fmt.Errorf("等待hello消息失败: %w", err)
	}

	var hello msg.ClientMessage
	if err := json.Unmarshal(data, &hello); err != nil {
		return nil, fmt.Errorf("解析hello消息失败: %w", err)
	}
	if hello.Type != msg.MessageTypeHello {
		return nil, fmt.Errorf("期望hello消息, 收到 %s", hello.Type)
	}

	format := types_audio.DefaultInputAudioFormat
	if hello.AudioParams != nil {
		if hello.AudioParams.Format != "" {
			format.Format = hello.AudioParams.Format
		}
		if hello.AudioParams.SampleRate > 0 {
			format.SampleRate = hello.AudioParams.SampleRate
		}
		if hello.AudioParams.Channels > 0 {
			format.Channels = hello.AudioParams.Channels
		}
		if hello.AudioParams.FrameDuration > 0 {
			format.FrameDuration = hello.AudioParams.FrameDuration
		}
	}
	if format.Format != constants.AudioFormatPcm && format.Format != constants.AudioFormatOpus {
		return nil, fmt.Errorf("不支持的音频格式: %s", format.Format)
	}

	deviceID := conn.GetDeviceID()
	if deviceID == "" {
		deviceID = hello.DeviceID
	}

	sessionID := uuid.NewString()
	state := client.NewClientState(sessionID, deviceID, format, detectorConfigFromViper())

	provider := viper.GetString("vad.provider")
	if provider == "" {
		provider = constants.VadTypeEnergy
	}
	vadInstance, err := vad.AcquireVAD(provider, viper.GetStringMap("vad."+provider))
	if err != nil {
		return nil, fmt.Errorf("获取VAD实例失败, provider %s: %w", provider, err)
	}

	session := &Session{
		conn:           conn,
		state:          state,
		vadInstance:    vadInstance,
		publisher:      m.publisher,
		lastVadResetMs: time.Now().UnixMilli(),
	}
	session.ctx, session.cancel = context.WithCancel(context.Background())

	if format.Format == constants.AudioFormatOpus {
		if err := session.setupOpusDecoder(m.processerPool, format); err != nil {
			vad.ReleaseVAD(vadInstance)
			return nil, err
		}
	}

	if viper.GetBool("recording.enable") {
		dir := viper.GetString("recording.dir")
		if dir == "" {
			dir = "recordings"
		}
		rec, err := recorder.NewRecorder(dir, sessionID, format.SampleRate, format.Channels)
		if err != nil {
			log.Warnf("创建语音段录制器失败, 关闭录制: %v", err)
		} else {
			session.rec = rec
		}
	}

	reply := msg.ServerMessage{
		Type:        msg.ServerMessageTypeHello,
		SessionID:   sessionID,
		AudioParams: &format,
	}
	payload, _ := json.Marshal(reply)
	if err := conn.SendCmd(payload); err != nil {
		session.releaseResources()
		return nil, fmt.Errorf("发送hello响应失败: %w", err)
	}

	log.Infof("检测会话已建立, session %s, device %s, format %s/%d/%d",
		sessionID, deviceID, format.Format, format.SampleRate, format.Channels)
	return session, nil
}

// setupOpusDecoder 默认格式从池借, 非默认格式单独创建
func (s *Session) setupOpusDecoder(pool *audio.ProcesserPool, format types_audio.AudioFormat) error {
	defaultFormat := types_audio.DefaultInputAudioFormat
	if pool != nil && format.SampleRate == defaultFormat.SampleRate &&
		format.Channels == defaultFormat.Channels &&
		format.FrameDuration == defaultFormat.FrameDuration {
		processer, err := pool.Borrow(s.ctx)
		if err != nil {
			return fmt.Errorf("借出opus解码器失败: %w", err)
		}
		s.processer = processer
		s.processerPool = pool
	} else {
		processer, err := audio.GetAudioProcesser(format.SampleRate, format.Channels, format.FrameDuration)
		if err != nil {
			return fmt.Errorf("创建opus解码器失败: %w", err)
		}
		s.processer = processer
	}
	s.pcmBuf = make([]float32, s.processer.FrameSamples())
	return nil
}

// audioLoop 帧循环, 驱动VAD与状态机, 连接关闭或出错时返回
func (s *Session) audioLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		data, err := s.conn.RecvAudio(audioTimeout)
		if err != nil {
			if s.ctx.Err() == nil {
				log.Infof("音频接收结束, session %s: %v", s.state.SessionID, err)
			}
			return
		}
		if len(data) == 0 {
			continue
		}

		if err := s.handleAudio(data); err != nil {
			log.Errorf("处理音频帧失败, session %s: %v", s.state.SessionID, err)
		}
	}
}

func (s *Session) handleAudio(data []byte) error {
	if !s.state.Listening {
		return nil
	}

	var samples []float32
	if s.processer != nil {
		n, err := s.processer.DecoderFloat32(data, s.pcmBuf)
		if err != nil {
			return fmt.Errorf("opus解码失败: %w", err)
		}
		samples = s.pcmBuf[:n*s.state.InputFormat.Channels]
	} else {
		pcm, err := audio.PCMBytesToFloat32(data)
		if err != nil {
			return err
		}
		samples = pcm
	}

	confidence, err := s.vadInstance.Confidence(samples)
	if err != nil {
		return fmt.Errorf("VAD推理失败: %w", err)
	}

	nowMs := time.Now().UnixMilli()
	s.processSample(confidence, samples, nowMs)
	s.maybeResetVad(nowMs)
	return nil
}

// maybeResetVad 长时间静音时周期性重置VAD内部状态, 防止模型状态漂移
func (s *Session) maybeResetVad(nowMs int64) {
	if s.state.Detector.Status() == detector.StatusSpeaking {
		s.lastVadResetMs = nowMs
		return
	}
	if nowMs-s.lastVadResetMs > constants.DefaultVadResetPeriodMs {
		if err := s.vadInstance.Reset(); err != nil {
			log.Warnf("周期性重置VAD失败, session %s: %v", s.state.SessionID, err)
		}
		s.lastVadResetMs = nowMs
	}
}

// processSample 送入一帧置信度, 状态翻转时发出事件
func (s *Session) processSample(confidence float64, samples []float32, nowMs int64) {
	state := s.state
	state.Statistic.AddFrame(nowMs)

	prev := state.Detector.Status()
	status := state.Detector.Analyze(confidence, nowMs)

	if status == detector.StatusSpeaking {
		state.VoiceStatus.SetSpeaking(true, state.Detector.LastSpeakingTime())
		if s.rec != nil {
			if prev != detector.StatusSpeaking {
				s.rec.OnSpeechStart()
			}
			s.rec.Feed(samples)
		}
	}

	if status == prev {
		return
	}

	event := &msg.SpeechEvent{
		DeviceID:   state.DeviceID,
		SessionID:  state.SessionID,
		Status:     status.String(),
		Confidence: confidence,
		Timestamp:  nowMs,
	}

	if status == detector.StatusNotSpeaking {
		duration := state.VoiceStatus.SpeechDuration()
		event.SpeechDurationMs = duration
		state.Statistic.AddSpeechRun(duration)
		state.VoiceStatus.SetSpeaking(false, nowMs)
		if s.rec != nil {
			if _, err := s.rec.OnSpeechEnd(); err != nil {
				log.Errorf("写出语音段失败, session %s: %v", state.SessionID, err)
			}
		}
	}

	log.Infof("语音状态变化, session %s: %s -> %s (confidence %.3f)",
		state.SessionID, prev, status, confidence)
	s.sendSpeechEvent(event)
}

func (s *Session) sendSpeechEvent(event *msg.SpeechEvent) {
	message := msg.ServerMessage{
		Type:      msg.ServerMessageTypeSpeech,
		SessionID: s.state.SessionID,
		Speech:    event,
	}
	payload, err := json.Marshal(message)
	if err != nil {
		log.Errorf("序列化语音事件失败: %v", err)
		return
	}
	if err := s.conn.SendCmd(payload); err != nil {
		log.Errorf("下发语音事件失败, session %s: %v", s.state.SessionID, err)
	}

	if s.publisher != nil && event.DeviceID != "" {
		if err := s.publisher.PublishSpeechEvent(event); err != nil {
			log.Errorf("发布语音事件失败, session %s: %v", s.state.SessionID, err)
		}
	}
}

// cmdLoop 处理listen/goodbye等信令
func (s *Session) cmdLoop() {
	for {
		data, err := s.conn.RecvCmd(cmdTimeout)
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			// 超时说明近期没有信令, 继续等
			continue
		}

		var message msg.ClientMessage
		if err := json.Unmarshal(data, &message); err != nil {
			log.Warnf("解析客户端消息失败, session %s: %v", s.state.SessionID, err)
			continue
		}

		switch message.Type {
		case msg.MessageTypeListen:
			s.handleListen(&message)
		case msg.MessageTypeGoodBye:
			log.Infof("客户端请求关闭会话, session %s", s.state.SessionID)
			s.Close()
			return
		case msg.MessageTypeHello:
			// 重复hello忽略
		default:
			log.Warnf("未知消息类型 %s, session %s", message.Type, s.state.SessionID)
		}
	}
}

func (s *Session) handleListen(message *msg.ClientMessage) {
	switch message.State {
	case msg.MessageStateStart:
		s.state.Reset()
		if err := s.vadInstance.Reset(); err != nil {
			log.Warnf("重置VAD失败, session %s: %v", s.state.SessionID, err)
		}
		s.state.Listening = true
		log.Infof("开始监听, session %s", s.state.SessionID)
	case msg.MessageStateStop:
		s.state.Listening = false
		if s.rec != nil {
			s.rec.Flush()
		}
		log.Infof("停止监听, session %s", s.state.SessionID)
	default:
		log.Warnf("未知listen状态 %s, session %s", message.State, s.state.SessionID)
	}
}

// Close 释放会话资源并持久化统计, 幂等
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.cancel()
	s.conn.Close()
	if s.rec != nil {
		s.rec.Flush()
	}
	s.saveStats()
	s.releaseResources()
	log.Infof("检测会话已关闭, session %s, 帧数 %d, 语音段 %d, 语音时长 %dms",
		s.state.SessionID, s.state.Statistic.FrameCount,
		s.state.Statistic.SpeechRuns, s.state.Statistic.SpeechMs)
}

func (s *Session) releaseResources() {
	if s.vadInstance != nil {
		if err := vad.ReleaseVAD(s.vadInstance); err != nil {
			log.Warnf("释放VAD实例失败: %v", err)
		}
		s.vadInstance = nil
	}
	if s.processer != nil {
		if s.processerPool != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := s.processerPool.Return(ctx, s.processer); err != nil {
				log.Warnf("归还opus解码器失败: %v", err)
			}
			cancel()
		}
		s.processer = nil
		s.processerPool = nil
	}
}

func (s *Session) saveStats() {
	stat := s.state.Statistic
	fields := map[string]interface{}{
		"device_id":   s.state.DeviceID,
		"frame_count": stat.FrameCount,
		"speech_runs": stat.SpeechRuns,
		"speech_ms":   stat.SpeechMs,
		"start_ts":    stat.StartTs,
		"end_ts":      time.Now().UnixMilli(),
	}

	ttl := viper.GetDuration("redis.stats_ttl")
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redis.SaveSessionStats(ctx, s.state.SessionID, fields, ttl); err != nil {
		log.Errorf("持久化会话统计失败, session %s: %v", s.state.SessionID, err)
	}
}

// detectorConfigFromViper 读取防抖阈值配置, 缺省用默认值
func detectorConfigFromViper() detector.Config {
	config := detector.DefaultConfig()
	if viper.IsSet("detect.speech_threshold") {
		config.SpeechThreshold = viper.GetFloat64("detect.speech_threshold")
	}
	if viper.IsSet("detect.speech_threshold_ms") {
		config.SpeechThresholdMs = viper.GetInt64("detect.speech_threshold_ms")
	}
	if viper.IsSet("detect.silence_threshold_ms") {
		config.SilenceThresholdMs = viper.GetInt64("detect.silence_threshold_ms")
	}
	return config
}
