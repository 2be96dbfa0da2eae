package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	log "speech-detect-server-golang/logger"
)

var (
	// 全局Redis客户端实例
	globalClient *redis.Client
	// 确保只初始化一次
	once sync.Once
	// 读写锁保护实例访问
	mu sync.RWMutex
	// 统计key前缀
	keyPrefix = "speech"
)

// Config Redis配置结构体
type Config struct {
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	Password string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
	// 统计key前缀
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix"`
	// 连接池配置
	PoolSize     int           `mapstructure:"pool_size" json:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" json:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries" json:"max_retries"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" json:"dial_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Host:         "localhost",
		Port:         6379,
		Password:     "",
		DB:           0,
		KeyPrefix:    "speech",
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		DialTimeout:  5 * time.Second,
	}
}

// Init 初始化Redis客户端
func Init(config *Config) error {
	var initErr error

	once.Do(func() {
		if config == nil {
			config = DefaultConfig()
		}
		if config.KeyPrefix != "" {
			keyPrefix = config.KeyPrefix
		}

		client := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Password:     config.Password,
			DB:           config.DB,
			PoolSize:     config.PoolSize,
			MinIdleConns: config.MinIdleConns,
			MaxRetries:   config.MaxRetries,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			DialTimeout:  config.DialTimeout,
		})

		// 测试连接
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			initErr = fmt.Errorf("failed to connect to redis: %w", err)
			return
		}

		mu.Lock()
		globalClient = client
		mu.Unlock()

		log.Info("Redis客户端初始化成功")
	})

	return initErr
}

// GetClient 获取Redis客户端实例
func GetClient() *redis.Client {
	mu.RLock()
	defer mu.RUnlock()

	return globalClient
}

// IsHealthy 检查Redis连接健康状态
func IsHealthy() bool {
	client := GetClient()
	if client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return client.Ping(ctx).Err() == nil
}

// SaveSessionStats 会话关闭时持久化统计信息
func SaveSessionStats(ctx context.Context, sessionID string, fields map[string]interface{}, ttl time.Duration) error {
	client := GetClient()
	if client == nil {
		// 未启用redis时静默跳过
		return nil
	}

	key := fmt.Sprintf("%s:stats:%s", keyPrefix, sessionID)
	if err := client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("保存会话统计失败: %w", err)
	}
	if ttl > 0 {
		client.Expire(ctx, key, ttl)
	}
	return nil
}

// Close 关闭Redis客户端连接
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if globalClient != nil {
		err := globalClient.Close()
		globalClient = nil
		if err != nil {
			log.Errorf("关闭Redis连接失败: %v", err)
			return err
		}
		log.Info("Redis连接已关闭")
	}

	return nil
}
