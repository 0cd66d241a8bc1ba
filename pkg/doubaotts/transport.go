package doubaotts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Channel is one bidirectional binary message connection. Receive returns
// io.EOF on a clean close. Implementations are not safe for concurrent
// use; each synthesis call owns its channel exclusively.
type Channel interface {
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens a Channel to an endpoint with the given handshake headers.
type Dialer interface {
	Dial(ctx context.Context, endpoint string, header http.Header) (Channel, error)
}

// wsDialer is the production Dialer over gorilla/websocket. The upgrade
// request carries the vendor headers passed in; the Connection/Upgrade
// tokens and the fresh Sec-WebSocket-Key come from the websocket
// handshake itself.
type wsDialer struct{}

func (wsDialer) Dial(ctx context.Context, endpoint string, header http.Header) (Channel, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("websocket connect failed: %w, status=%s, body=%s", err, resp.Status, string(body))
		}
		return nil, fmt.Errorf("websocket connect failed: %w", err)
	}
	return &wsChannel{conn: conn}, nil
}

// wsChannel adapts a websocket connection to the Channel interface.
// Context deadlines map onto connection read/write deadlines, which is
// how each protocol phase bounds its wait.
type wsChannel struct {
	conn *websocket.Conn
}

func (c *wsChannel) Send(ctx context.Context, data []byte) error {
	c.conn.SetWriteDeadline(deadlineOf(ctx))
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *wsChannel) Receive(ctx context.Context) ([]byte, error) {
	for {
		c.conn.SetReadDeadline(deadlineOf(ctx))
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		// Control frames arrive as text on some gateways; the protocol
		// itself is binary-only.
		if msgType != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

func (c *wsChannel) Close() error {
	return c.conn.Close()
}

// deadlineOf returns the context deadline, or zero (no deadline).
func deadlineOf(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Time{}
}
