package silero_vad

import (
	"errors"
	"fmt"
	"sync"
	"time"

	. "speech-detect-server-golang/internal/domain/vad/inter"
	log "speech-detect-server-golang/logger"
)

// 资源池默认配置
var defaultPoolConfig = struct {
	MaxSize int
	// 获取超时时间（毫秒）
	AcquireTimeout int64
}{
	MaxSize:        10,
	AcquireTimeout: 3000,
}

// VADResourcePool VAD资源池管理，不与会话ID绑定
type VADResourcePool struct {
	// 可用的VAD实例队列
	availableVADs chan VAD
	// 已分配的VAD实例映射
	allocatedVADs sync.Map
	maxSize       int
	// 获取VAD超时时间（毫秒）
	acquireTimeout int64
	defaultConfig  map[string]interface{}
	mu             sync.Mutex
	initialized    bool
}

// initFromConfig 读取配置并完成资源池初始化
func (p *VADResourcePool) initFromConfig(config map[string]interface{}) error {
	if rawThreshold, ok := config["threshold"]; ok {
		if threshold, ok := rawThreshold.(float64); ok && threshold > 0 {
			p.defaultConfig["threshold"] = threshold
		}
	}
	if rawSilenceMs, ok := config["min_silence_duration_ms"]; ok {
		if silenceMs, ok := rawSilenceMs.(int64); ok && silenceMs > 0 {
			p.defaultConfig["min_silence_duration_ms"] = silenceMs
		}
	}
	if rawSampleRate, ok := config["sample_rate"]; ok {
		if sampleRate, ok := rawSampleRate.(int); ok && sampleRate > 0 {
			p.defaultConfig["sample_rate"] = sampleRate
		}
	}
	if rawChannels, ok := config["channels"]; ok {
		if channels, ok := rawChannels.(int); ok && channels > 0 {
			p.defaultConfig["channels"] = channels
		}
	}
	if rawPoolSize, ok := config["pool_size"]; ok {
		if poolSize, ok := rawPoolSize.(int); ok && poolSize > 0 {
			p.maxSize = poolSize
		}
	}
	if rawTimeout, ok := config["acquire_timeout_ms"]; ok {
		if timeout, ok := rawTimeout.(int64); ok && timeout > 0 {
			p.acquireTimeout = timeout
		}
	}

	modelPath, _ := config["model_path"].(string)
	if modelPath == "" {
		return errors.New("模型路径不能为空")
	}
	p.defaultConfig["model_path"] = modelPath

	return p.initialize()
}

// initialize 预创建VAD实例填满资源池
func (p *VADResourcePool) initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.availableVADs = make(chan VAD, p.maxSize)

	for i := 0; i < p.maxSize; i++ {
		vadInstance, err := NewSileroVAD(p.defaultConfig)
		if err != nil {
			// 关闭已创建的实例
			for j := 0; j < i; j++ {
				vad := <-p.availableVADs
				vad.Close()
			}
			close(p.availableVADs)
			p.availableVADs = nil
			return fmt.Errorf("预创建VAD实例失败: %v", err)
		}
		p.availableVADs <- vadInstance
	}

	p.initialized = true
	log.Infof("VAD资源池初始化完成，创建了 %d 个VAD实例", p.maxSize)
	return nil
}

// AcquireVAD 从资源池获取一个VAD实例
func (p *VADResourcePool) AcquireVAD() (VAD, error) {
	if !p.initialized {
		return nil, errors.New("VAD资源池未初始化")
	}

	timeout := time.After(time.Duration(p.acquireTimeout) * time.Millisecond)

	select {
	case vad := <-p.availableVADs:
		if vad == nil {
			return nil, errors.New("VAD资源池已关闭")
		}
		p.allocatedVADs.Store(vad, time.Now())
		log.Debugf("从VAD资源池获取实例，当前可用: %d/%d", len(p.availableVADs), p.maxSize)
		return vad, nil

	case <-timeout:
		return nil, fmt.Errorf("获取VAD实例超时，资源池已满载运行（%d/%d）", p.maxSize, p.maxSize)
	}
}

// ReleaseVAD 释放VAD实例回资源池
func (p *VADResourcePool) ReleaseVAD(vad VAD) {
	if vad == nil || !p.initialized {
		return
	}

	if _, exists := p.allocatedVADs.Load(vad); !exists {
		log.Warn("尝试释放非此资源池管理的VAD实例")
		return
	}
	p.allocatedVADs.Delete(vad)

	// 归还前复位内部状态, 避免跨会话串音
	if err := vad.Reset(); err != nil {
		log.Warnf("归还前复位VAD失败: %v", err)
	}

	select {
	case p.availableVADs <- vad:
		log.Debugf("VAD实例已归还资源池，当前可用: %d/%d", len(p.availableVADs), p.maxSize)
	default:
		// 资源池满了，直接关闭实例
		vad.Close()
		log.Warn("VAD资源池已满，多余实例已销毁")
	}
}

// GetActiveCount 获取当前被分配的VAD实例数量
func (p *VADResourcePool) GetActiveCount() int {
	count := 0
	p.allocatedVADs.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// GetAvailableCount 获取当前可用的VAD实例数量
func (p *VADResourcePool) GetAvailableCount() int {
	if p.availableVADs == nil {
		return 0
	}
	return len(p.availableVADs)
}
