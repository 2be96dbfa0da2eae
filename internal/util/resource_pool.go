package util

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Resource 资源接口，所有被池管理的资源都需要实现此接口
type Resource interface {
	// Close 关闭资源
	Close() error
	// IsValid 检查资源是否有效
	IsValid() bool
}

// ResourceFactory 资源工厂接口，用于创建和验证资源
type ResourceFactory interface {
	// Create 创建新的资源实例
	Create() (Resource, error)
	// Validate 验证资源是否有效，返回false的资源将被销毁
	Validate(resource Resource) bool
	// Reset 资源复用前的状态清理
	Reset(resource Resource) error
}

// PoolConfig 资源池配置
type PoolConfig struct {
	// MaxSize 最大资源数量
	MaxSize int
	// MinSize 预创建的资源数量
	MinSize int
	// MaxIdle 最大空闲资源数量
	MaxIdle int
	// AcquireTimeout 获取资源超时时间
	AcquireTimeout time.Duration
	// IdleTimeout 资源空闲超时时间
	IdleTimeout time.Duration
	// ValidateOnBorrow 获取时是否验证资源
	ValidateOnBorrow bool
	// ValidateOnReturn 归还时是否验证资源
	ValidateOnReturn bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() *PoolConfig {
	return &PoolConfig{
		MaxSize:          10,
		MinSize:          1,
		MaxIdle:          5,
		AcquireTimeout:   30 * time.Second,
		IdleTimeout:      5 * time.Minute,
		ValidateOnBorrow: true,
		ValidateOnReturn: false,
	}
}

// pooledResource 池化资源包装器
type pooledResource struct {
	resource Resource
	lastUsed time.Time
	inUse    bool
}

// ResourcePool 通用资源池
type ResourcePool struct {
	config  *PoolConfig
	factory ResourceFactory

	// 可用资源队列
	available chan *pooledResource
	// 所有资源映射（包括在用和可用的）
	resources map[Resource]*pooledResource
	mu        sync.Mutex
	closed    bool
	stopCh    chan struct{}
}

// NewResourcePool 创建新的资源池
func NewResourcePool(config *PoolConfig, factory ResourceFactory) (*ResourcePool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if factory == nil {
		return nil, errors.New("factory cannot be nil")
	}
	if config.MaxSize <= 0 {
		return nil, errors.New("max size must be positive")
	}
	if config.MinSize < 0 || config.MinSize > config.MaxSize {
		return nil, errors.New("invalid min size")
	}

	pool := &ResourcePool{
		config:    config,
		factory:   factory,
		available: make(chan *pooledResource, config.MaxSize),
		resources: make(map[Resource]*pooledResource),
		stopCh:    make(chan struct{}),
	}

	// 预创建最小数量的资源
	for i := 0; i < config.MinSize; i++ {
		resource, err := factory.Create()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to pre-create resource %d: %w", i, err)
		}
		pooled := &pooledResource{resource: resource, lastUsed: time.Now()}
		pool.resources[resource] = pooled
		pool.available <- pooled
	}

	if config.IdleTimeout > 0 {
		go pool.cleanupLoop()
	}

	return pool, nil
}

// Acquire 获取资源
func (p *ResourcePool) Acquire() (Resource, error) {
	return p.AcquireWithTimeout(p.config.AcquireTimeout)
}

// AcquireWithTimeout 在指定超时时间内获取资源
func (p *ResourcePool) AcquireWithTimeout(timeout time.Duration) (Resource, error) {
	deadline := time.Now().Add(timeout)

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, errors.New("pool is closed")
		}
		p.mu.Unlock()

		select {
		case pooled := <-p.available:
			if p.config.ValidateOnBorrow {
				if !pooled.resource.IsValid() || !p.factory.Validate(pooled.resource) {
					p.destroyResource(pooled)
					continue
				}
			}
			if err := p.factory.Reset(pooled.resource); err != nil {
				p.destroyResource(pooled)
				continue
			}

			p.mu.Lock()
			pooled.inUse = true
			pooled.lastUsed = time.Now()
			p.mu.Unlock()
			return pooled.resource, nil

		default:
			// 没有可用资源，先尝试创建新的
			if resource, err := p.tryCreateResource(); err == nil {
				return resource, nil
			}
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("acquire timeout after %v", timeout)
			}
			// 池已满，等待资源释放
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// tryCreateResource 在池未满时创建新资源
func (p *ResourcePool) tryCreateResource() (Resource, error) {
	p.mu.Lock()
	if len(p.resources) >= p.config.MaxSize {
		p.mu.Unlock()
		return nil, errors.New("pool is full")
	}
	p.mu.Unlock()

	// 创建可能较慢（加载模型等），不持锁
	resource, err := p.factory.Create()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.resources) >= p.config.MaxSize {
		resource.Close()
		return nil, errors.New("pool is full")
	}
	p.resources[resource] = &pooledResource{
		resource: resource,
		lastUsed: time.Now(),
		inUse:    true,
	}
	return resource, nil
}

// Release 释放资源回池
func (p *ResourcePool) Release(resource Resource) error {
	if resource == nil {
		return errors.New("resource cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("pool is closed")
	}

	pooled, exists := p.resources[resource]
	if !exists {
		return errors.New("resource not managed by this pool")
	}
	if !pooled.inUse {
		return errors.New("resource is not in use")
	}

	if p.config.ValidateOnReturn {
		if !resource.IsValid() || !p.factory.Validate(resource) {
			p.destroyResourceLocked(pooled)
			return nil
		}
	}

	if len(p.available) >= p.config.MaxIdle {
		p.destroyResourceLocked(pooled)
		return nil
	}

	pooled.inUse = false
	pooled.lastUsed = time.Now()

	select {
	case p.available <- pooled:
	default:
		p.destroyResourceLocked(pooled)
	}
	return nil
}

func (p *ResourcePool) destroyResource(pooled *pooledResource) {
	p.mu.Lock()
	p.destroyResourceLocked(pooled)
	p.mu.Unlock()
}

func (p *ResourcePool) destroyResourceLocked(pooled *pooledResource) {
	if pooled.resource != nil {
		pooled.resource.Close()
		delete(p.resources, pooled.resource)
	}
}

// cleanupLoop 周期性清理超过空闲时限的资源, 保留MinSize个
func (p *ResourcePool) cleanupLoop() {
	ticker := time.NewTicker(p.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.cleanupIdle()
		}
	}
}

func (p *ResourcePool) cleanupIdle() {
	for {
		p.mu.Lock()
		if p.closed || len(p.resources) <= p.config.MinSize {
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		select {
		case pooled := <-p.available:
			if time.Since(pooled.lastUsed) > p.config.IdleTimeout {
				p.destroyResource(pooled)
				continue
			}
			// 未过期，放回队列后结束本轮
			select {
			case p.available <- pooled:
			default:
				p.destroyResource(pooled)
			}
			return
		default:
			return
		}
	}
}

// Close 关闭资源池并销毁所有资源
func (p *ResourcePool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.stopCh)

	for resource := range p.resources {
		resource.Close()
	}
	p.resources = make(map[Resource]*pooledResource)
	p.mu.Unlock()

	// 排空可用队列
	for {
		select {
		case <-p.available:
		default:
			return nil
		}
	}
}

// Stats 获取资源池统计信息
func (p *ResourcePool) Stats() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	inUse := 0
	for _, pooled := range p.resources {
		if pooled.inUse {
			inUse++
		}
	}

	return map[string]interface{}{
		"total":     len(p.resources),
		"in_use":    inUse,
		"available": len(p.available),
		"max_size":  p.config.MaxSize,
	}
}
