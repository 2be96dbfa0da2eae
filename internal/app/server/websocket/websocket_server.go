package websocket

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"speech-detect-server-golang/internal/app/server/auth"
	"speech-detect-server-golang/internal/app/server/types"
	log "speech-detect-server-golang/logger"
)

// WebSocketServer 表示 WebSocket 服务器
type WebSocketServer struct {
	// 配置升级器
	upgrader websocket.Upgrader
	// 认证管理器
	authManager *auth.AuthManager
	// 端口
	port int

	onNewConnection types.OnNewConnection
}

// WebSocketServerOption 用于配置 WebSocketServer 的可选参数
type WebSocketServerOption func(*WebSocketServer)

// WithAuthManager 设置认证管理器
func WithAuthManager(authManager *auth.AuthManager) WebSocketServerOption {
	return func(s *WebSocketServer) {
		s.authManager = authManager
	}
}

func WithOnNewConnection(onNewConnection types.OnNewConnection) WebSocketServerOption {
	return func(s *WebSocketServer) {
		s.onNewConnection = onNewConnection
	}
}

// NewWebSocketServer 创建新的 WebSocket 服务器（WithOption 方式）
func NewWebSocketServer(port int, opts ...WebSocketServerOption) *WebSocketServer {
	s := &WebSocketServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源的连接
			},
		},
		authManager: auth.A(),
		port:        port,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start 启动 WebSocket 服务器
func (s *WebSocketServer) Start() error {
	// 启动会话清理
	go s.cleanupSessions()

	http.HandleFunc("/speech/v1/", s.handleSpeech)
	http.HandleFunc("/speech/health", s.handleHealth)

	listenAddr := fmt.Sprintf("0.0.0.0:%d", s.port)
	log.Infof("WebSocket 服务器启动在 ws://%s/speech/v1/", listenAddr)

	if err := http.ListenAndServe(listenAddr, nil); err != nil {
		log.Fatalf("WebSocket 服务器启动失败: %v", err)
		return err
	}
	return nil
}

// cleanupSessions 定期清理过期会话
func (s *WebSocketServer) cleanupSessions() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		s.authManager.CleanupSessions(30 * time.Minute)
	}
}

// handleSpeech 升级连接并移交给检测会话
func (s *WebSocketServer) handleSpeech(w http.ResponseWriter, r *http.Request) {
	deviceID := r.Header.Get("Device-Id")
	token := r.Header.Get("Authorization")

	if s.authManager != nil && !s.authManager.ValidateToken(token) {
		log.Warnf("令牌校验失败, device: %s", deviceID)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if deviceID == "" && s.authManager != nil {
		deviceID = s.authManager.DeviceIDForToken(token)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket 升级失败: %v", err)
		return
	}

	wsConn := NewWebSocketConn(conn, deviceID)
	log.Infof("新连接: device %s, remote %s", deviceID, r.RemoteAddr)

	if s.onNewConnection != nil {
		s.onNewConnection(wsConn)
	}
}

// handleHealth 健康检查
func (s *WebSocketServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
