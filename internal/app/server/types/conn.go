package types

// IConn 是协议无关的连接接口, 由 websocket 等协议适配器实现

const (
	TransportTypeWebsocket = "websocket"
)

type IConn interface {
	// 发送命令/信令数据
	SendCmd(msg []byte) error
	// 接收命令/信令数据
	RecvCmd(timeout int) ([]byte, error)
	// 接收语音数据
	RecvAudio(timeout int) ([]byte, error)

	GetDeviceID() string

	Close() error
	OnClose(func(deviceId string))

	GetTransportType() string
}

type OnNewConnection func(conn IConn)
