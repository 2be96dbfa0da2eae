package detect

import (
	"context"

	cmap "github.com/orcaman/concurrent-map/v2"

	"speech-detect-server-golang/internal/app/server/events"
	"speech-detect-server-golang/internal/app/server/types"
	types_audio "speech-detect-server-golang/internal/data/audio"
	"speech-detect-server-golang/internal/domain/audio"
	log "speech-detect-server-golang/logger"
)

// Manager 管理所有活跃的检测会话
type Manager struct {
	sessions  cmap.ConcurrentMap[string, *Session]
	publisher *events.Publisher
	// 默认输入格式的opus解码器池, 其他格式的会话单独创建解码器
	processerPool *audio.ProcesserPool
}

// NewManager 创建会话管理器, publisher可为nil
func NewManager(publisher *events.Publisher) *Manager {
	defaultFormat := types_audio.DefaultInputAudioFormat
	return &Manager{
		sessions:  cmap.New[*Session](),
		publisher: publisher,
		processerPool: audio.NewProcesserPool(context.Background(), 32,
			defaultFormat.SampleRate, defaultFormat.Channels, defaultFormat.FrameDuration),
	}
}

// HandleConnection 实现 types.OnNewConnection
func (m *Manager) HandleConnection(conn types.IConn) {
	go m.run(conn)
}

func (m *Manager) run(conn types.IConn) {
	session, err := m.newSession(conn)
	if err != nil {
		log.Errorf("创建检测会话失败, device %s: %v", conn.GetDeviceID(), err)
		conn.Close()
		return
	}

	sessionID := session.state.SessionID
	m.sessions.Set(sessionID, session)
	conn.OnClose(func(deviceID string) {
		session.Close()
		m.sessions.Remove(sessionID)
	})

	go session.cmdLoop()
	session.audioLoop()

	session.Close()
	m.sessions.Remove(sessionID)
}

// SessionCount 当前活跃会话数
func (m *Manager) SessionCount() int {
	return m.sessions.Count()
}

// CloseSession 按会话ID关闭会话
func (m *Manager) CloseSession(sessionID string) {
	if session, ok := m.sessions.Get(sessionID); ok {
		session.Close()
		m.sessions.Remove(sessionID)
	}
}
