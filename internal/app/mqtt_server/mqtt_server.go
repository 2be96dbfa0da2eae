package mqtt_server

import (
	"crypto/tls"
	"errors"
	"fmt"

	mqttServer "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/spf13/viper"

	log "speech-detect-server-golang/logger"
)

// StartMqttServer 启动内嵌MQTT broker, 设备可直接订阅语音事件主题
func StartMqttServer() error {
	server := mqttServer.New(&mqttServer.Options{
		InlineClient: true,
	})

	if err := server.AddHook(&AuthHook{}, nil); err != nil {
		log.Errorf("添加 AuthHook 失败: %v", err)
		return err
	}

	if viper.GetBool("mqtt_server.tls.enable") {
		pemFile := viper.GetString("mqtt_server.tls.pem")
		keyFile := viper.GetString("mqtt_server.tls.key")
		cert, err := tls.LoadX509KeyPair(pemFile, keyFile)
		if err != nil {
			log.Errorf("加载证书失败: %v", err)
			return err
		}

		tlsConfig := &tls.Config{
			Certificates: []tls.Certificate{cert},
		}
		ssltcp := listeners.NewTCP(listeners.Config{
			ID:        "ssl",
			Address:   fmt.Sprintf(":%d", viper.GetInt("mqtt_server.tls.port")),
			TLSConfig: tlsConfig,
		})
		if err := server.AddListener(ssltcp); err != nil {
			log.Errorf("添加 TLS 监听失败: %v", err)
			return err
		}
	}

	host := viper.GetString("mqtt_server.listen_host")
	port := viper.GetInt("mqtt_server.listen_port")
	if port == 0 {
		return errors.New("mqtt_server.listen_port 配置错误，请检查配置文件")
	}

	address := fmt.Sprintf("%s:%d", host, port)
	tcp := listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "t1",
		Address: address,
	})
	if err := server.AddListener(tcp); err != nil {
		log.Errorf("添加 TCP 监听失败: %v", err)
		return err
	}

	log.Infof("MQTT 服务器启动，监听 %s 地址...", address)

	if err := server.Serve(); err != nil {
		log.Errorf("MQTT 服务器启动失败: %v", err)
		return err
	}
	return nil
}
