package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"dashboard-summarizer/internal/dto"
	"dashboard-summarizer/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// ID identifies this connection in the hub and in logs.
	ID uuid.UUID

	// Subject is the authenticated token subject, empty when auth is off.
	Subject string

	// Buffered channel of outbound frames. Never closed, done ends the writer.
	Send chan []byte

	done       chan struct{}
	summarizer service.ISummaryService
	busy       atomic.Bool
}

func newClient(hub *Hub, conn *websocket.Conn, subject string, summarizer service.ISummaryService) *Client {
	return &Client{
		Hub:        hub,
		Conn:       conn,
		ID:         uuid.New(),
		Subject:    subject,
		Send:       make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		summarizer: summarizer,
	}
}

// readPump decodes client frames and starts summaries. It owns the lifetime
// of the connection: when it returns, any running summary is cancelled.
func (c *Client) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	// The writer owns closing the connection; remove ends it through done.
	defer func() {
		cancel()
		c.Hub.remove(c)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"client_id": c.ID, "error": err.Error()})
			}
			return
		}

		var env dto.StreamEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.Hub.logger.Warn("Client", "Dropping malformed frame", map[string]interface{}{"client_id": c.ID, "error": err.Error()})
			continue
		}

		switch env.Event {
		case dto.EventStartSummary:
			c.startSummary(ctx, env)
		default:
			c.Hub.logger.Debug("Client", "Ignoring event", map[string]interface{}{"client_id": c.ID, "event": env.Event})
		}
	}
}

func (c *Client) startSummary(ctx context.Context, env dto.StreamEnvelope) {
	if !c.busy.CompareAndSwap(false, true) {
		c.Hub.logger.Warn("Client", "Summary already in flight, ignoring start-summary", map[string]interface{}{"client_id": c.ID, "request_id": env.RequestID})
		return
	}

	c.Hub.logger.Info("Client", "Summary started", map[string]interface{}{"client_id": c.ID, "request_id": env.RequestID})
	go func() {
		defer c.busy.Store(false)
		sink := &frameSink{ctx: ctx, client: c, requestID: env.RequestID}
		if err := c.summarizer.Summarize(ctx, env.Data, sink); err != nil {
			c.Hub.logger.Warn("Client", "Summary aborted", map[string]interface{}{"client_id": c.ID, "request_id": env.RequestID, "error": err.Error()})
		}
	}()
}

// writePump pumps frames from Send to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			// One frame per envelope: clients decode each text frame as one JSON value.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Hub.logger.Warn("Client", "Ping failed", map[string]interface{}{"client_id": c.ID, "error": err.Error()})
				return
			}
		}
	}
}

// frameSink turns summary progress into outbound envelopes for one request.
type frameSink struct {
	ctx       context.Context
	client    *Client
	requestID string
}

func (s *frameSink) send(event, data string) error {
	payload, err := json.Marshal(dto.StreamEnvelope{Event: event, RequestID: s.requestID, Data: data})
	if err != nil {
		return err
	}
	select {
	case s.client.Send <- payload:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *frameSink) Chunk(text string) error      { return s.send(dto.EventChunk, text) }
func (s *frameSink) Complete(payload string) error { return s.send(dto.EventComplete, payload) }
func (s *frameSink) Fail(reason string) error      { return s.send(dto.EventSummaryError, reason) }
