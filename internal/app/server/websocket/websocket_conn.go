package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"speech-detect-server-golang/internal/app/server/types"
	log "speech-detect-server-golang/logger"

	"github.com/gorilla/websocket"
)

// WebSocketConn 实现 types.IConn 接口, 适配 WebSocket 连接
type WebSocketConn struct {
	ctx    context.Context
	cancel context.CancelFunc

	onCloseCbList []func(deviceId string)

	conn     *websocket.Conn
	deviceID string

	recvCmdChan   chan []byte
	recvAudioChan chan []byte

	// 连接状态标记
	isClosed bool
	sync.RWMutex
}

// NewWebSocketConn 创建一个新的 WebSocketConn 实例并启动读取循环
func NewWebSocketConn(conn *websocket.Conn, deviceID string) *WebSocketConn {
	ctx, cancel := context.WithCancel(context.Background())
	instance := &WebSocketConn{
		ctx:           ctx,
		cancel:        cancel,
		conn:          conn,
		deviceID:      deviceID,
		recvCmdChan:   make(chan []byte, 100),
		recvAudioChan: make(chan []byte, 100),
	}

	go instance.readLoop()

	return instance
}

// readLoop 把文本消息与二进制音频分发到各自的通道
func (w *WebSocketConn) readLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			w.conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			msgType, data, err := w.conn.ReadMessage()
			if err != nil {
				if !w.IsClosed() {
					log.Errorf("read message error: %v", err)
				}
				w.Close()
				return
			}

			switch msgType {
			case websocket.TextMessage:
				select {
				case w.recvCmdChan <- data:
				default:
					log.Errorf("recv cmd channel is full")
				}
			case websocket.BinaryMessage:
				select {
				case w.recvAudioChan <- data:
				default:
					log.Errorf("recv audio channel is full")
				}
			}
		}
	}
}

func (w *WebSocketConn) SendCmd(msg []byte) error {
	w.Lock()
	defer w.Unlock()

	if w.isClosed {
		return errors.New("connection is closed")
	}

	err := w.conn.WriteMessage(websocket.TextMessage, msg)
	if err != nil {
		log.Errorf("send cmd error: %v", err)
		return err
	}
	return nil
}

func (w *WebSocketConn) RecvCmd(timeout int) ([]byte, error) {
	select {
	case msg, ok := <-w.recvCmdChan:
		if !ok {
			return nil, errors.New("connection is closed")
		}
		return msg, nil
	case <-time.After(time.Duration(timeout) * time.Second):
		return nil, errors.New("timeout")
	}
}

func (w *WebSocketConn) RecvAudio(timeout int) ([]byte, error) {
	select {
	case audio, ok := <-w.recvAudioChan:
		if !ok {
			return nil, errors.New("connection is closed")
		}
		return audio, nil
	case <-time.After(time.Duration(timeout) * time.Second):
		return nil, errors.New("timeout")
	}
}

func (w *WebSocketConn) Close() error {
	w.Lock()

	if w.isClosed {
		w.Unlock()
		return nil
	}
	w.isClosed = true

	w.cancel()
	w.conn.Close()
	close(w.recvCmdChan)
	close(w.recvAudioChan)
	w.Unlock()

	for _, cb := range w.onCloseCbList {
		if cb != nil {
			cb(w.deviceID)
		}
	}

	return nil
}

func (w *WebSocketConn) OnClose(cb func(deviceId string)) {
	w.onCloseCbList = append(w.onCloseCbList, cb)
}

func (w *WebSocketConn) GetDeviceID() string {
	return w.deviceID
}

func (w *WebSocketConn) GetTransportType() string {
	return types.TransportTypeWebsocket
}

// IsClosed 检查连接是否已关闭
func (w *WebSocketConn) IsClosed() bool {
	w.RLock()
	defer w.RUnlock()
	return w.isClosed
}
