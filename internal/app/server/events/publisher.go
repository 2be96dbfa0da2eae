package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"speech-detect-server-golang/internal/data/msg"
	log "speech-detect-server-golang/logger"
)

// Config MQTT事件发布配置
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Qos         byte
}

// Publisher 把语音状态变化事件发布到MQTT, 供设备侧订阅
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	qos         byte
}

// NewPublisher 连接broker并创建事件发布器
func NewPublisher(config *Config) (*Publisher, error) {
	if config.Broker == "" {
		return nil, fmt.Errorf("mqtt broker 不能为空")
	}
	if config.TopicPrefix == "" {
		config.TopicPrefix = msg.MSpeechEventTopicPrefix
	}

	opts := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetUsername(config.Username).
		SetPassword(config.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	opts.OnConnect = func(client mqtt.Client) {
		log.Infof("MQTT事件发布器已连接: %s", config.Broker)
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Warnf("MQTT事件发布器连接断开: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("连接MQTT broker超时: %s", config.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("连接MQTT broker失败: %w", err)
	}

	return &Publisher{
		client:      client,
		topicPrefix: config.TopicPrefix,
		qos:         config.Qos,
	}, nil
}

// PublishSpeechEvent 发布一条语音状态变化事件
func (p *Publisher) PublishSpeechEvent(event *msg.SpeechEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic := p.topicPrefix + event.DeviceID
	token := p.client.Publish(topic, p.qos, false, payload)
	// 不阻塞帧循环, 发布失败只记日志
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Errorf("发布语音事件失败, topic %s: %v", topic, err)
		}
	}()
	return nil
}

// Close 断开与broker的连接
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
