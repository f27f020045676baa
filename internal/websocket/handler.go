package websocket

import (
	"dashboard-summarizer/internal/service"

	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one summarization connection until the peer goes away. It
// returns only after both pumps are done with c, since the websocket
// middleware recycles c as soon as the handler returns.
func ServeWs(hub *Hub, c *websocket.Conn, subject string, summarizer service.ISummaryService) {
	client := newClient(hub, c, subject, summarizer)
	hub.add(client)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		client.writePump()
	}()
	client.readPump() // Run readPump in current goroutine (handler)
	<-writerDone
}
