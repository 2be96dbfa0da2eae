package mqtt_server

import (
	mqttServer "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/spf13/viper"

	log "speech-detect-server-golang/logger"
)

// AuthHook 对接入broker的客户端做用户名密码校验
type AuthHook struct {
	mqttServer.HookBase
}

func (h *AuthHook) ID() string {
	return "speech-auth-hook"
}

func (h *AuthHook) Provides(b byte) bool {
	return b == mqttServer.OnConnectAuthenticate
}

func (h *AuthHook) OnConnectAuthenticate(cl *mqttServer.Client, pk packets.Packet) bool {
	if !viper.GetBool("mqtt_server.enable_auth") {
		return true
	}

	username := string(pk.Connect.Username)
	password := string(pk.Connect.Password)

	if username == viper.GetString("mqtt_server.username") &&
		password == viper.GetString("mqtt_server.password") {
		return true
	}

	log.Warnf("MQTT客户端鉴权失败: username %s, client %s", username, cl.ID)
	return false
}
