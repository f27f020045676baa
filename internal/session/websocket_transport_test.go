package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dashboard-summarizer/internal/dto"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoServer(t *testing.T, wantAuth string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantAuth != "" && r.Header.Get("Authorization") != wantAuth {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var env dto.StreamEnvelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
			_ = conn.WriteJSON(dto.StreamEnvelope{Event: dto.EventComplete, RequestID: env.RequestID, Data: env.Data})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketTransportRoundTrip(t *testing.T) {
	srv := newEchoServer(t, "Bearer secret-token")
	transport := NewWebSocketTransport(wsURL(srv), "secret-token", time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := transport.Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Send(ctx, dto.StreamEnvelope{Event: dto.EventStartSummary, RequestID: "r1", Data: "{}"}))

	_, err = conn.Receive()
	assert.True(t, errors.Is(err, ErrMalformedFrame), "expected malformed frame, got %v", err)

	env, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, dto.EventComplete, env.Event)
	assert.Equal(t, "r1", env.RequestID)
	assert.Equal(t, "{}", env.Data)
}

func TestWebSocketTransportRejectedHandshake(t *testing.T) {
	srv := newEchoServer(t, "Bearer expected")
	transport := NewWebSocketTransport(wsURL(srv), "wrong", 0)

	_, err := transport.Dial(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, defaultWriteWait, transport.WriteTimeout)
}

func TestWebSocketTransportReceiveAfterClose(t *testing.T) {
	srv := newEchoServer(t, "")
	transport := NewWebSocketTransport(wsURL(srv), "", time.Second)

	conn, err := transport.Dial(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	_, err = conn.Receive()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedFrame))
}
