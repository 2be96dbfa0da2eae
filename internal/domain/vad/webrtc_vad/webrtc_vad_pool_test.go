package webrtc_vad

import (
	"sync"
	"testing"
	"time"

	"speech-detect-server-golang/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebRTCVADPool(t *testing.T) {
	vadConfig := WebRTCVADConfig{
		SampleRate: 16000,
		Mode:       2,
	}

	poolConfig := &util.PoolConfig{
		MaxSize:          3,
		MinSize:          1,
		MaxIdle:          2,
		AcquireTimeout:   5 * time.Second,
		IdleTimeout:      1 * time.Minute,
		ValidateOnBorrow: true,
		ValidateOnReturn: true,
	}

	pool, err := NewWebRTCVADPool(vadConfig, poolConfig)
	require.NoError(t, err)
	defer pool.Close()

	vad, err := pool.AcquireVAD()
	require.NoError(t, err)

	// 20ms的16kHz音频数据
	testData := make([]float32, 320)
	for i := range testData {
		testData[i] = 0.1
	}

	_, err = vad.IsVAD(testData)
	assert.NoError(t, err)

	err = pool.ReleaseVAD(vad)
	assert.NoError(t, err)

	stats := pool.Stats()
	t.Logf("Pool stats: %+v", stats)
}

func TestWebRTCVADPoolConcurrency(t *testing.T) {
	vadConfig := WebRTCVADConfig{
		SampleRate: 16000,
		Mode:       2,
	}

	poolConfig := &util.PoolConfig{
		MaxSize:        5,
		MinSize:        2,
		MaxIdle:        3,
		AcquireTimeout: 10 * time.Second,
		IdleTimeout:    30 * time.Second,
	}

	pool, err := NewWebRTCVADPool(vadConfig, poolConfig)
	require.NoError(t, err)
	defer pool.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			vad, err := pool.AcquireVAD()
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			defer pool.ReleaseVAD(vad)

			testData := make([]float32, 320)
			if _, err := vad.IsVAD(testData); err != nil {
				t.Errorf("detect failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
