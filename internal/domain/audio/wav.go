package audio

import (
	"fmt"
	"io"
	"os"

	go_audio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	types_audio "speech-detect-server-golang/internal/data/audio"
)

// DecodeWav 读取整个WAV流, 返回float32采样与音频格式
func DecodeWav(r io.ReadSeeker) ([]float32, types_audio.AudioFormat, error) {
	format := types_audio.AudioFormat{}

	wavDecoder := wav.NewDecoder(r)
	if !wavDecoder.IsValidFile() {
		return nil, format, fmt.Errorf("无效的WAV文件")
	}

	wavDecoder.ReadInfo()
	wavFormat := wavDecoder.Format()
	format.SampleRate = int(wavFormat.SampleRate)
	format.Channels = int(wavFormat.NumChannels)
	format.Format = types_audio.Format
	format.FrameDuration = types_audio.FrameDuration

	bitDepth := int(wavDecoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))

	samples := make([]float32, 0, 16384)
	audioBuf := &go_audio.IntBuffer{Data: make([]int, 4096), Format: wavFormat}

	for {
		n, err := wavDecoder.PCMBuffer(audioBuf)
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			return nil, format, fmt.Errorf("读取WAV数据失败: %v", err)
		}
		for i := 0; i < n; i++ {
			samples = append(samples, float32(audioBuf.Data[i])/scale)
		}
	}

	return samples, format, nil
}

// DecodeWavFile 读取WAV文件
func DecodeWavFile(path string) ([]float32, types_audio.AudioFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types_audio.AudioFormat{}, err
	}
	defer f.Close()

	return DecodeWav(f)
}

// WriteWavFile 将float32采样写出为16-bit PCM WAV文件
func WriteWavFile(path string, samples []float32, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	pcm := Float32ToInt16(samples)
	data := make([]int, len(pcm))
	for i, sample := range pcm {
		data[i] = int(sample)
	}

	audioBuf := &go_audio.IntBuffer{
		Data: data,
		Format: &go_audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		SourceBitDepth: 16,
	}

	if err := encoder.Write(audioBuf); err != nil {
		encoder.Close()
		return fmt.Errorf("写入WAV数据失败: %v", err)
	}
	return encoder.Close()
}
