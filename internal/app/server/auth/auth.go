package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// ClientSession 表示一个客户端会话
type ClientSession struct {
	ID        string
	DeviceID  string
	CreatedAt time.Time
	LastSeen  time.Time
}

// AuthManager 管理认证和会话
type AuthManager struct {
	sessions map[string]*ClientSession
	mutex    sync.RWMutex
	// 令牌映射 token -> deviceID
	tokens map[string]string
	// 是否启用令牌校验
	enabled bool
}

var authManager *AuthManager

func Init() error {
	authManager = NewAuthManager()
	authManager.enabled = viper.GetBool("auth.enable")

	// 从配置加载静态令牌
	for token, deviceID := range viper.GetStringMapString("auth.tokens") {
		authManager.RegisterToken(token, deviceID)
	}
	return nil
}

func A() *AuthManager {
	return authManager
}

// NewAuthManager 创建新的认证管理器
func NewAuthManager() *AuthManager {
	return &AuthManager{
		sessions: make(map[string]*ClientSession),
		tokens:   make(map[string]string),
	}
}

// Enabled 是否启用令牌校验
func (am *AuthManager) Enabled() bool {
	return am.enabled
}

// CreateSession 创建新的会话
func (am *AuthManager) CreateSession(deviceID string) (*ClientSession, error) {
	session := &ClientSession{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		CreatedAt: time.Now(),
		LastSeen:  time.Now(),
	}

	am.mutex.Lock()
	am.sessions[session.ID] = session
	am.mutex.Unlock()

	return session, nil
}

// GetSession 获取会话并刷新最后访问时间
func (am *AuthManager) GetSession(sessionID string) (*ClientSession, error) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	session, exists := am.sessions[sessionID]
	if !exists {
		return nil, errors.New("会话不存在")
	}

	session.LastSeen = time.Now()
	return session, nil
}

// RemoveSession 移除会话
func (am *AuthManager) RemoveSession(sessionID string) {
	am.mutex.Lock()
	delete(am.sessions, sessionID)
	am.mutex.Unlock()
}

// CleanupSessions 清理过期会话
func (am *AuthManager) CleanupSessions(maxAge time.Duration) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	now := time.Now()
	for id, session := range am.sessions {
		if now.Sub(session.LastSeen) > maxAge {
			delete(am.sessions, id)
		}
	}
}

// ValidateToken 验证令牌, 未启用校验时始终通过
func (am *AuthManager) ValidateToken(token string) bool {
	if !am.enabled {
		return true
	}

	token = strings.TrimPrefix(token, "Bearer ")

	am.mutex.RLock()
	_, exists := am.tokens[token]
	am.mutex.RUnlock()

	return exists
}

// DeviceIDForToken 返回令牌对应的设备ID
func (am *AuthManager) DeviceIDForToken(token string) string {
	token = strings.TrimPrefix(token, "Bearer ")

	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.tokens[token]
}

// RegisterToken 注册令牌
func (am *AuthManager) RegisterToken(token string, deviceID string) {
	token = strings.TrimPrefix(token, "Bearer ")

	am.mutex.Lock()
	am.tokens[token] = deviceID
	am.mutex.Unlock()
}
