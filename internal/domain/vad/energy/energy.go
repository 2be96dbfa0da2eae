package energy

import (
	"math"
)

const (
	// DefaultReferenceLevel RMS能量达到该值时置信度报告为1.0
	DefaultReferenceLevel = 0.05
)

// EnergyVAD 纯Go的能量检测实现, 无需模型文件和cgo
// 以帧RMS能量与参考电平的比值作为语音置信度, 适合测试与低算力场景
type EnergyVAD struct {
	referenceLevel float64
	threshold      float64
}

// NewEnergyVAD 创建能量检测实例
// 可选配置: reference_level (RMS满量程参考), threshold (IsVAD判定阈值)
func NewEnergyVAD(config map[string]interface{}) *EnergyVAD {
	v := &EnergyVAD{
		referenceLevel: DefaultReferenceLevel,
		threshold:      0.5,
	}
	if raw, ok := config["reference_level"]; ok {
		if level, ok := raw.(float64); ok && level > 0 {
			v.referenceLevel = level
		}
	}
	if raw, ok := config["threshold"]; ok {
		if threshold, ok := raw.(float64); ok && threshold > 0 {
			v.threshold = threshold
		}
	}
	return v
}

// Confidence 返回帧能量映射出的语音置信度, 范围 [0,1]
func (v *EnergyVAD) Confidence(pcmData []float32) (float64, error) {
	if len(pcmData) == 0 {
		return 0, nil
	}
	confidence := rms(pcmData) / v.referenceLevel
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence, nil
}

// IsVAD 置信度严格大于阈值时判定为语音
func (v *EnergyVAD) IsVAD(pcmData []float32) (bool, error) {
	confidence, err := v.Confidence(pcmData)
	if err != nil {
		return false, err
	}
	return confidence > v.threshold, nil
}

// Reset 能量检测无内部状态
func (v *EnergyVAD) Reset() error {
	return nil
}

// Close 无需释放资源
func (v *EnergyVAD) Close() error {
	return nil
}

func rms(pcmData []float32) float64 {
	var sum float64
	for _, sample := range pcmData {
		sum += float64(sample) * float64(sample)
	}
	return math.Sqrt(sum / float64(len(pcmData)))
}
