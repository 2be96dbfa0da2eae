package audio

import (
	"context"
	"errors"
	"fmt"

	pool "github.com/jolestar/go-commons-pool/v2"
	"gopkg.in/hraban/opus.v2"
)

type AudioProcesser struct {
	sampleRate       int
	channels         int
	perFrameDuration int
	decoder          *opus.Decoder
	encoder          *opus.Encoder
}

func GetAudioProcesser(sampleRate int, channels int, perFrameDuration int) (*AudioProcesser, error) {
	decoder, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	encoder, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, err
	}

	return &AudioProcesser{
		sampleRate:       sampleRate,
		channels:         channels,
		perFrameDuration: perFrameDuration,
		decoder:          decoder,
		encoder:          encoder,
	}, nil
}

func (a *AudioProcesser) Decoder(audio []byte, pcmData []int16) (int, error) {
	if a.decoder == nil {
		return 0, errors.New("decoder is nil")
	}
	return a.decoder.Decode(audio, pcmData)
}

func (a *AudioProcesser) DecoderFloat32(audio []byte, pcmData []float32) (int, error) {
	if a.decoder == nil {
		return 0, errors.New("decoder is nil")
	}
	return a.decoder.DecodeFloat32(audio, pcmData)
}

func (a *AudioProcesser) Encoder(pcmData []int16, audio []byte) (int, error) {
	if a.encoder == nil {
		return 0, errors.New("encoder is nil")
	}
	return a.encoder.Encode(pcmData, audio)
}

// FrameSamples 每帧采样数
func (a *AudioProcesser) FrameSamples() int {
	return a.sampleRate * a.perFrameDuration / 1000 * a.channels
}

// ProcesserPool opus编解码器资源池, 创建编解码器有native开销, 跨会话复用
type ProcesserPool struct {
	pool *pool.ObjectPool
}

// NewProcesserPool 为固定音频格式创建编解码器池
func NewProcesserPool(ctx context.Context, maxTotal int, sampleRate, channels, perFrameDuration int) *ProcesserPool {
	factory := pool.NewPooledObjectFactorySimple(func(ctx context.Context) (interface{}, error) {
		return GetAudioProcesser(sampleRate, channels, perFrameDuration)
	})

	objectPool := pool.NewObjectPoolWithDefaultConfig(ctx, factory)
	if maxTotal > 0 {
		objectPool.Config.MaxTotal = maxTotal
	}

	return &ProcesserPool{pool: objectPool}
}

// Borrow 借出一个编解码器
func (p *ProcesserPool) Borrow(ctx context.Context) (*AudioProcesser, error) {
	obj, err := p.pool.BorrowObject(ctx)
	if err != nil {
		return nil, err
	}
	processer, ok := obj.(*AudioProcesser)
	if !ok {
		p.pool.ReturnObject(ctx, obj)
		return nil, fmt.Errorf("invalid object type in processer pool")
	}
	return processer, nil
}

// Return 归还编解码器
func (p *ProcesserPool) Return(ctx context.Context, processer *AudioProcesser) error {
	return p.pool.ReturnObject(ctx, processer)
}

// Close 关闭资源池
func (p *ProcesserPool) Close(ctx context.Context) {
	p.pool.Close(ctx)
}
