package inter

// VAD 语音活动检测接口, 屏蔽具体引擎实现
// 置信度为 [0,1] 的概率, 只输出二值判定的引擎报告 0/1
type VAD interface {
	// Confidence 返回一帧PCM数据包含语音的置信度
	Confidence(pcmData []float32) (float64, error)
	// IsVAD 检测音频数据中是否有语音活动
	IsVAD(pcmData []float32) (bool, error)
	// Reset 重置检测器状态
	Reset() error
	// Close 关闭并释放资源
	Close() error
}
