package client

type Statistic struct {
	FrameCount    int64 //已处理帧数
	SpeechRuns    int64 //语音段数量
	SpeechMs      int64 //语音总时长 (毫秒)
	StartTs       int64 //会话开始时间 (毫秒)
	LastArrivalTs int64 //最近一帧到达时间 (毫秒)
}

func (s *Statistic) Reset() {
	s.FrameCount = 0
	s.SpeechRuns = 0
	s.SpeechMs = 0
	s.StartTs = 0
	s.LastArrivalTs = 0
}

func (s *Statistic) AddFrame(nowMs int64) {
	s.FrameCount++
	s.LastArrivalTs = nowMs
}

func (s *Statistic) AddSpeechRun(durationMs int64) {
	s.SpeechRuns++
	if durationMs > 0 {
		s.SpeechMs += durationMs
	}
}
