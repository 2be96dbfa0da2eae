package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/mp3"

	"speech-detect-server-golang/constants"
	"speech-detect-server-golang/internal/domain/audio"
	"speech-detect-server-golang/internal/domain/detector"
	"speech-detect-server-golang/internal/domain/vad"
	"speech-detect-server-golang/internal/util/workqueue"
	log "speech-detect-server-golang/logger"
)

// 离线分析wav/mp3文件, 按帧跑语音检测状态机并打印翻转点

var (
	vadProvider     = flag.String("vad", constants.VadTypeEnergy, "VAD提供者 (energy/silero_vad/webrtc_vad)")
	modelPath       = flag.String("model", "", "silero模型路径, 仅silero_vad需要")
	speechThreshold = flag.Float64("threshold", constants.DefaultSpeechThreshold, "语音置信度阈值")
	speechMs        = flag.Int64("speech-ms", constants.DefaultSpeechThresholdMs, "翻转到SPEAKING的防抖时长 (毫秒)")
	silenceMs       = flag.Int64("silence-ms", constants.DefaultSilenceThresholdMs, "回到NOT_SPEAKING的静音时长 (毫秒)")
	frameMs         = flag.Int("frame-ms", constants.DefaultFrameDurationMs, "分析帧长 (毫秒)")
	workers         = flag.Int("workers", 4, "并发分析的文件数")
)

type transition struct {
	offsetMs   int64
	status     detector.Status
	confidence float64
}

type fileResult struct {
	path        string
	durationMs  int64
	transitions []transition
	speechMs    int64
	err         error
}

func main() {
	flag.Parse()
	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "用法: wav2speech [flags] file1.wav [file2.mp3 ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.UseStdout()

	results := make([]fileResult, len(files))
	workqueue.ParallelizeUntil(context.Background(), *workers, len(files), func(i int) {
		results[i] = analyzeFile(files[i])
	})

	exitCode := 0
	for _, result := range results {
		printResult(&result)
		if result.err != nil {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func analyzeFile(path string) fileResult {
	result := fileResult{path: path}

	samples, sampleRate, err := decodeFile(path)
	if err != nil {
		result.err = err
		return result
	}

	vadConfig := map[string]interface{}{}
	if *modelPath != "" {
		vadConfig["model_path"] = *modelPath
	}
	vadInstance, err := vad.AcquireVAD(*vadProvider, vadConfig)
	if err != nil {
		result.err = fmt.Errorf("获取VAD实例失败: %w", err)
		return result
	}
	defer vad.ReleaseVAD(vadInstance)

	config := detector.Config{
		SpeechThreshold:    *speechThreshold,
		SpeechThresholdMs:  *speechMs,
		SilenceThresholdMs: *silenceMs,
	}
	d := detector.NewSpeechDetector(config)

	frameSamples := sampleRate * (*frameMs) / 1000
	if frameSamples <= 0 {
		result.err = fmt.Errorf("非法帧长: %dms", *frameMs)
		return result
	}

	// 用文件内的时间轴驱动状态机, 与实时无关
	clock := int64(0)
	prev := d.Status()
	for offset := 0; offset+frameSamples <= len(samples); offset += frameSamples {
		frame := samples[offset : offset+frameSamples]
		confidence, err := vadInstance.Confidence(frame)
		if err != nil {
			result.err = fmt.Errorf("VAD推理失败: %w", err)
			return result
		}

		clock += int64(*frameMs)
		status := d.Analyze(confidence, clock)
		if status != prev {
			result.transitions = append(result.transitions, transition{
				offsetMs:   clock,
				status:     status,
				confidence: confidence,
			})
			if status == detector.StatusNotSpeaking && len(result.transitions) >= 2 {
				start := result.transitions[len(result.transitions)-2].offsetMs
				result.speechMs += clock - start
			}
			prev = status
		}
	}

	result.durationMs = int64(len(samples)) * 1000 / int64(sampleRate)
	return result
}

func decodeFile(path string) ([]float32, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		samples, format, err := audio.DecodeWavFile(path)
		if err != nil {
			return nil, 0, err
		}
		return samples, format.SampleRate, nil
	case ".mp3":
		return decodeMp3(path)
	default:
		return nil, 0, fmt.Errorf("不支持的文件类型: %s", path)
	}
}

func decodeMp3(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	defer streamer.Close()

	var samples []float32
	buf := make([][2]float64, 1024)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			// 双声道取均值转单声道
			samples = append(samples, float32((buf[i][0]+buf[i][1])/2))
		}
		if !ok {
			break
		}
	}

	return samples, int(format.SampleRate), nil
}

func printResult(result *fileResult) {
	if result.err != nil {
		fmt.Printf("%s: 分析失败: %v\n", result.path, result.err)
		return
	}

	fmt.Printf("%s: 时长 %.2fs, 语音 %.2fs, %d 次状态翻转\n",
		result.path, float64(result.durationMs)/1000,
		float64(result.speechMs)/1000, len(result.transitions))
	for _, tr := range result.transitions {
		fmt.Printf("  %8.2fs  %-12s (confidence %.3f)\n",
			float64(tr.offsetMs)/1000, tr.status, tr.confidence)
	}
}
