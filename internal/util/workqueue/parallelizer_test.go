package workqueue

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeUntil(t *testing.T) {
	const pieces = 10000

	var count int64
	ParallelizeUntil(context.Background(), 8, pieces, func(piece int) {
		atomic.AddInt64(&count, 1)
	})
	assert.Equal(t, int64(pieces), atomic.LoadInt64(&count))
}

func TestParallelizeUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 已取消的context下不应处理全部分片
	var count int64
	ParallelizeUntil(ctx, 2, 1000000, func(piece int) {
		atomic.AddInt64(&count, 1)
	})
	assert.Less(t, atomic.LoadInt64(&count), int64(1000000))
}
