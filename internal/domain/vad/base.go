package vad

import (
	"errors"

	"speech-detect-server-golang/constants"
	"speech-detect-server-golang/internal/domain/vad/energy"
	"speech-detect-server-golang/internal/domain/vad/inter"
	"speech-detect-server-golang/internal/domain/vad/silero_vad"
	"speech-detect-server-golang/internal/domain/vad/webrtc_vad"
)

func AcquireVAD(provider string, config map[string]interface{}) (inter.VAD, error) {
	switch provider {
	case constants.VadTypeSileroVad:
		return silero_vad.AcquireVAD(config)
	case constants.VadTypeWebRTCVad:
		return webrtc_vad.AcquireVAD(config)
	case constants.VadTypeEnergy:
		return energy.NewEnergyVAD(config), nil
	default:
		return nil, errors.New("invalid vad provider")
	}
}

func ReleaseVAD(vad inter.VAD) error {
	//energy 检测器无池化资源, Close即可
	switch vad.(type) {
	case *webrtc_vad.WebRTCVAD:
		return webrtc_vad.ReleaseVAD(vad)
	case *silero_vad.SileroVAD:
		return silero_vad.ReleaseVAD(vad)
	case *energy.EnergyVAD:
		return vad.Close()
	default:
		return errors.New("invalid vad type")
	}
}
