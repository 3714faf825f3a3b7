package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"

	"quizhost/internal/coordinator"
)

// wsConn adapts a coder/websocket.Conn to coordinator.Conn, so the
// coordinator package never imports a transport library directly.
type wsConn struct {
	socket *websocket.Conn
}

func newWsConn(socket *websocket.Conn) *wsConn {
	return &wsConn{socket: socket}
}

func (c *wsConn) Send(msg coordinator.ServerMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.socket.Write(ctx, websocket.MessageText, raw)
}

func (c *wsConn) Close(reason string) {
	_ = c.socket.Close(websocket.StatusNormalClosure, reason)
}
