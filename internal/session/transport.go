package session

import (
	"context"
	"errors"

	"dashboard-summarizer/internal/dto"
)

// ErrMalformedFrame marks a frame that could not be decoded. The connection
// itself is still usable.
var ErrMalformedFrame = errors.New("stream session: malformed frame")

// Conn is one established connection to the summarization backend.
type Conn interface {
	Send(ctx context.Context, env dto.StreamEnvelope) error
	// Receive blocks until the next frame arrives or the connection ends.
	Receive() (dto.StreamEnvelope, error)
	Close() error
}

// Transport opens connections to the summarization backend.
type Transport interface {
	Dial(ctx context.Context) (Conn, error)
}
