package webrtc_vad

import "speech-detect-server-golang/internal/util"

func getPoolConfigFromMap(config map[string]interface{}) *util.PoolConfig {
	poolConfig := util.DefaultConfig()
	if raw, ok := config["pool_min_size"]; ok {
		if minSize, ok := raw.(int); ok {
			poolConfig.MinSize = minSize
		}
	}
	if raw, ok := config["pool_max_size"]; ok {
		if maxSize, ok := raw.(int); ok {
			poolConfig.MaxSize = maxSize
		}
	}
	if raw, ok := config["pool_max_idle"]; ok {
		if maxIdle, ok := raw.(int); ok {
			poolConfig.MaxIdle = maxIdle
		}
	}
	return poolConfig
}

func getVadConfigFromMap(config map[string]interface{}) WebRTCVADConfig {
	vadConfig := WebRTCVADConfig{
		SampleRate: DefaultSampleRate,
		Mode:       DefaultMode,
	}
	if raw, ok := config["sample_rate"]; ok {
		if sampleRate, ok := raw.(int); ok && sampleRate > 0 {
			vadConfig.SampleRate = sampleRate
		}
	}
	if raw, ok := config["mode"]; ok {
		if mode, ok := raw.(int); ok {
			vadConfig.Mode = mode
		}
	}
	return vadConfig
}
