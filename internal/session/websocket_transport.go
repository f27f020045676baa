package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"dashboard-summarizer/internal/dto"

	"github.com/gorilla/websocket"
)

const (
	defaultWriteWait = 10 * time.Second
	handshakeTimeout = 15 * time.Second
	maxFrameSize     = 4 << 20
)

// WebSocketTransport dials the summarization backend's websocket endpoint.
type WebSocketTransport struct {
	URL          string
	Token        string
	WriteTimeout time.Duration
	Dialer       *websocket.Dialer
}

func NewWebSocketTransport(url, token string, writeTimeout time.Duration) *WebSocketTransport {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteWait
	}
	return &WebSocketTransport{
		URL:          url,
		Token:        token,
		WriteTimeout: writeTimeout,
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (t *WebSocketTransport) Dial(ctx context.Context) (Conn, error) {
	header := http.Header{}
	if t.Token != "" {
		header.Set("Authorization", "Bearer "+t.Token)
	}

	conn, resp, err := t.Dialer.DialContext(ctx, t.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", t.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", t.URL, err)
	}
	conn.SetReadLimit(maxFrameSize)

	return &wsConn{conn: conn, writeTimeout: t.WriteTimeout}, nil
}

type wsConn struct {
	conn         *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
}

func (c *wsConn) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func (c *wsConn) Send(ctx context.Context, env dto.StreamEnvelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return err
	}
	return c.conn.WriteJSON(env)
}

func (c *wsConn) Receive() (dto.StreamEnvelope, error) {
	var env dto.StreamEnvelope
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return env, err
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return env, nil
}

func (c *wsConn) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
