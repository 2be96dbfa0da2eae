package detect

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speech-detect-server-golang/constants"
	"speech-detect-server-golang/internal/data/msg"
	"speech-detect-server-golang/internal/domain/detector"
)

type mockConn struct {
	deviceID string
	cmdCh    chan []byte
	audioCh  chan []byte

	mu   sync.Mutex
	sent [][]byte

	closeOnce sync.Once
	onClose   func(deviceID string)
}

func newMockConn(deviceID string) *mockConn {
	return &mockConn{
		deviceID: deviceID,
		cmdCh:    make(chan []byte, 16),
		audioCh:  make(chan []byte, 16),
	}
}

func (c *mockConn) SendCmd(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}

func (c *mockConn) RecvCmd(timeout int) ([]byte, error) {
	select {
	case data, ok := <-c.cmdCh:
		if !ok {
			return nil, errors.New("connection is closed")
		}
		return data, nil
	case <-time.After(time.Duration(timeout) * time.Second):
		return nil, errors.New("timeout")
	}
}

func (c *mockConn) RecvAudio(timeout int) ([]byte, error) {
	select {
	case data, ok := <-c.audioCh:
		if !ok {
			return nil, errors.New("connection is closed")
		}
		return data, nil
	case <-time.After(time.Duration(timeout) * time.Second):
		return nil, errors.New("timeout")
	}
}

func (c *mockConn) GetDeviceID() string { return c.deviceID }

func (c *mockConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.cmdCh)
		close(c.audioCh)
		if c.onClose != nil {
			c.onClose(c.deviceID)
		}
	})
	return nil
}

func (c *mockConn) OnClose(fn func(deviceID string)) { c.onClose = fn }

func (c *mockConn) GetTransportType() string { return "mock" }

func (c *mockConn) sentMessages(t *testing.T) []msg.ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]msg.ServerMessage, 0, len(c.sent))
	for _, data := range c.sent {
		var m msg.ServerMessage
		require.NoError(t, json.Unmarshal(data, &m))
		messages = append(messages, m)
	}
	return messages
}

func setupSession(t *testing.T) (*Session, *mockConn) {
	viper.Set("vad.provider", constants.VadTypeEnergy)
	viper.Set("recording.enable", false)

	manager := NewManager(nil)
	conn := newMockConn("device-1")

	hello := msg.ClientMessage{Type: msg.MessageTypeHello}
	payload, err := json.Marshal(hello)
	require.NoError(t, err)
	conn.cmdCh <- payload

	session, err := manager.newSession(conn)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session, conn
}

func TestSessionHandshake(t *testing.T) {
	session, conn := setupSession(t)

	assert.Equal(t, "device-1", session.state.DeviceID)
	assert.NotEmpty(t, session.state.SessionID)
	assert.Equal(t, constants.AudioFormatPcm, session.state.InputFormat.Format)
	assert.Equal(t, 16000, session.state.InputFormat.SampleRate)
	assert.True(t, session.state.Listening)

	messages := conn.sentMessages(t)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.ServerMessageTypeHello, messages[0].Type)
	assert.Equal(t, session.state.SessionID, messages[0].SessionID)
	require.NotNil(t, messages[0].AudioParams)
	assert.Equal(t, 16000, messages[0].AudioParams.SampleRate)
}

func TestSessionRejectsNonHello(t *testing.T) {
	viper.Set("vad.provider", constants.VadTypeEnergy)

	manager := NewManager(nil)
	conn := newMockConn("device-2")

	payload, err := json.Marshal(msg.ClientMessage{Type: msg.MessageTypeListen})
	require.NoError(t, err)
	conn.cmdCh <- payload

	_, err = manager.newSession(conn)
	assert.Error(t, err)
}

func TestSessionSpeechEvents(t *testing.T) {
	session, conn := setupSession(t)

	// 高置信度连续超过防抖时长后翻转到SPEAKING
	for ts := int64(0); ts <= 400; ts += 10 {
		session.processSample(1.0, nil, ts)
	}
	// 低置信度连续超过静音时长后回到NOT_SPEAKING
	for ts := int64(410); ts <= 1200; ts += 10 {
		session.processSample(0.0, nil, ts)
	}

	messages := conn.sentMessages(t)
	// hello + 两次状态翻转
	require.Len(t, messages, 3)

	speaking := messages[1]
	assert.Equal(t, msg.ServerMessageTypeSpeech, speaking.Type)
	require.NotNil(t, speaking.Speech)
	assert.Equal(t, detector.StatusSpeaking.String(), speaking.Speech.Status)
	assert.Equal(t, int64(310), speaking.Speech.Timestamp)

	notSpeaking := messages[2]
	require.NotNil(t, notSpeaking.Speech)
	assert.Equal(t, detector.StatusNotSpeaking.String(), notSpeaking.Speech.Status)
	assert.Equal(t, int64(1110), notSpeaking.Speech.Timestamp)
	// 语音段时长为翻转时刻到最后说话时刻
	assert.Equal(t, int64(90), notSpeaking.Speech.SpeechDurationMs)

	assert.Equal(t, int64(1), session.state.Statistic.SpeechRuns)
	assert.Equal(t, int64(121), session.state.Statistic.FrameCount)
}

func TestSessionListenControl(t *testing.T) {
	session, _ := setupSession(t)

	session.handleListen(&msg.ClientMessage{State: msg.MessageStateStop})
	assert.False(t, session.state.Listening)

	// stop期间音频帧被丢弃
	require.NoError(t, session.handleAudio(make([]byte, 320)))
	assert.Equal(t, int64(0), session.state.Statistic.FrameCount)

	session.handleListen(&msg.ClientMessage{State: msg.MessageStateStart})
	assert.True(t, session.state.Listening)
	assert.Equal(t, detector.StatusNotSpeaking, session.state.Detector.Status())
}

func TestSessionPCMFrame(t *testing.T) {
	session, _ := setupSession(t)

	// 320字节 = 160采样的静音帧
	require.NoError(t, session.handleAudio(make([]byte, 320)))
	assert.Equal(t, int64(1), session.state.Statistic.FrameCount)
	assert.Equal(t, detector.StatusNotSpeaking, session.state.Detector.Status())
}
