package server

import (
	"github.com/spf13/viper"

	"speech-detect-server-golang/internal/app/mqtt_server"
	"speech-detect-server-golang/internal/app/server/detect"
	"speech-detect-server-golang/internal/app/server/events"
	"speech-detect-server-golang/internal/app/server/websocket"
	log "speech-detect-server-golang/logger"
)

// App 统一管理 websocket 接入层, 检测会话与事件发布
type App struct {
	wsServer      *websocket.WebSocketServer
	detectManager *detect.Manager
	publisher     *events.Publisher
}

func NewApp() *App {
	app := &App{}

	if viper.GetBool("mqtt.enable") {
		publisher, err := events.NewPublisher(&events.Config{
			Broker:      viper.GetString("mqtt.broker"),
			ClientID:    viper.GetString("mqtt.client_id"),
			Username:    viper.GetString("mqtt.username"),
			Password:    viper.GetString("mqtt.password"),
			TopicPrefix: viper.GetString("mqtt.topic_prefix"),
			Qos:         byte(viper.GetUint("mqtt.qos")),
		})
		if err != nil {
			// 事件发布是旁路能力, 连不上broker时降级运行
			log.Errorf("创建MQTT事件发布器失败, 事件发布已禁用: %v", err)
		} else {
			app.publisher = publisher
		}
	}

	app.detectManager = detect.NewManager(app.publisher)
	app.wsServer = websocket.NewWebSocketServer(
		viper.GetInt("websocket.port"),
		websocket.WithOnNewConnection(app.detectManager.HandleConnection),
	)
	return app
}

func (a *App) Run() {
	if viper.GetBool("mqtt_server.enable") {
		go func() {
			if err := mqtt_server.StartMqttServer(); err != nil {
				log.Errorf("startMqttServer err: %+v", err)
			}
		}()
	}
	go a.wsServer.Start()
}

// Close 关闭事件发布器等持有的外部连接
func (a *App) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
}
