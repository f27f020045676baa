package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"dashboard-summarizer/internal/dto"
	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/internal/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrNotConnected    = errors.New("stream session: not connected")
	ErrSummaryInFlight = errors.New("stream session: summary already in flight")
	ErrConnectionLost  = errors.New("stream session: connection lost")
	ErrSummaryFailed   = errors.New("stream session: backend failed to summarize")
	ErrDialAborted     = errors.New("stream session: disconnected while dialing")
)

// LineBreak is inserted before heading chunks so they start on their own line.
const LineBreak = "\n"

type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventRequested
	EventChunk
	EventComplete
	EventAborted
	// EventConnectFailed reports a dial that never produced a connection.
	EventConnectFailed
)

// Event describes one applied transition. Chunks is a copy of the accumulated
// sequence after the transition.
type Event struct {
	Kind      EventKind
	RequestID string
	Chunks    []string
	Summary   string
	Err       error
}

// Observer is called for every transition, in the order transitions are
// applied. Observers may read session state but must not call Connect,
// Disconnect or Request.
type Observer func(Event)

// StreamSession owns one logical connection to the summarization backend and
// assembles one summary per request from the ordered chunk stream.
type StreamSession struct {
	transport Transport
	logger    logger.ILogger
	newID     func() string

	mu          sync.Mutex
	emitMu      sync.Mutex
	conn        Conn
	connecting  bool
	abortDial   bool
	summarizing bool
	requestID   string
	chunks      []string
	summary     string
	hasSummary  bool
	observers   map[int]Observer
	nextObs     int
}

func NewStreamSession(transport Transport, log logger.ILogger) *StreamSession {
	return &StreamSession{
		transport: transport,
		logger:    log,
		newID:     func() string { return uuid.NewString() },
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns the function that removes it.
func (s *StreamSession) Subscribe(obs Observer) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = obs
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// unlockAndEmit releases mu and delivers ev to observers. emitMu is taken
// before mu is released so deliveries keep the order of the mutations.
func (s *StreamSession) unlockAndEmit(ev Event) {
	observers := make([]Observer, 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if obs, ok := s.observers[i]; ok {
			observers = append(observers, obs)
		}
	}

	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	for _, obs := range observers {
		obs(ev)
	}
}

// Connect opens the connection if it is not already open or opening.
func (s *StreamSession) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.conn != nil || s.connecting {
		s.mu.Unlock()
		return nil
	}
	s.connecting = true
	s.abortDial = false
	s.mu.Unlock()

	conn, err := s.transport.Dial(ctx)

	s.mu.Lock()
	s.connecting = false
	if s.abortDial {
		s.abortDial = false
		s.unlockAndEmit(Event{Kind: EventDisconnected})
		if conn != nil {
			_ = conn.Close()
		}
		s.logger.Info("StreamSession", "Dial abandoned after disconnect", nil)
		return ErrDialAborted
	}
	if err != nil {
		s.unlockAndEmit(Event{Kind: EventConnectFailed, Err: err})
		s.logger.Warn("StreamSession", "Failed to connect to summarization backend", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("connect summarization backend: %w", err)
	}
	s.conn = conn
	s.unlockAndEmit(Event{Kind: EventConnected})

	s.logger.Info("StreamSession", "Connected to summarization backend", nil)
	go s.readLoop(conn)
	return nil
}

// Disconnect closes the connection. An in-flight summary is discarded, its
// partial chunks stay readable but are never promoted to a summary. A dial
// still in progress is abandoned: its connection is closed as soon as it
// arrives and Connect returns ErrDialAborted.
func (s *StreamSession) Disconnect() error {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		if s.connecting {
			s.abortDial = true
		}
		s.mu.Unlock()
		return nil
	}
	s.conn = nil
	ev := s.dropLocked(nil)
	s.unlockAndEmit(ev)

	s.logger.Info("StreamSession", "Disconnected from summarization backend", map[string]interface{}{"aborted_request": ev.RequestID})
	return conn.Close()
}

func (s *StreamSession) dropLocked(cause error) Event {
	ev := Event{Kind: EventDisconnected, Err: cause}
	if s.summarizing {
		s.summarizing = false
		ev.RequestID = s.requestID
		ev.Chunks = s.copyChunksLocked()
	}
	return ev
}

// Request emits a start-summary message for doc. It fails fast when the
// session is disconnected or a summary is already in flight, leaving the
// current accumulation untouched.
func (s *StreamSession) Request(ctx context.Context, doc *model.MetadataDocument) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode metadata document: %w", err)
	}

	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return "", ErrNotConnected
	}
	if s.summarizing {
		s.mu.Unlock()
		return "", ErrSummaryInFlight
	}

	requestID := s.newID()
	conn := s.conn
	s.summarizing = true
	s.requestID = requestID
	s.chunks = nil
	s.summary = ""
	s.hasSummary = false
	s.unlockAndEmit(Event{Kind: EventRequested, RequestID: requestID})

	err = conn.Send(ctx, dto.StreamEnvelope{
		Event:     dto.EventStartSummary,
		RequestID: requestID,
		Data:      string(payload),
	})
	if err != nil {
		s.mu.Lock()
		if s.summarizing && s.requestID == requestID {
			s.summarizing = false
			s.unlockAndEmit(Event{Kind: EventAborted, RequestID: requestID, Chunks: s.copyChunksLocked(), Err: err})
		} else {
			s.mu.Unlock()
		}
		return "", fmt.Errorf("send start-summary: %w", err)
	}

	s.logger.Info("StreamSession", "Summary requested", map[string]interface{}{"request_id": requestID, "dashboard_id": doc.DashboardID})
	return requestID, nil
}

func (s *StreamSession) readLoop(conn Conn) {
	for {
		env, err := conn.Receive()
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				s.logger.Warn("StreamSession", "Dropping malformed frame", map[string]interface{}{"error": err.Error()})
				continue
			}
			s.handleConnectionEnd(conn, err)
			return
		}

		switch env.Event {
		case dto.EventChunk:
			s.applyChunk(env)
		case dto.EventComplete:
			s.applyComplete(env)
		case dto.EventSummaryError:
			s.applyFailure(env)
		default:
			s.logger.Debug("StreamSession", "Ignoring unknown event", map[string]interface{}{"event": env.Event})
		}
	}
}

func (s *StreamSession) handleConnectionEnd(conn Conn, cause error) {
	s.mu.Lock()
	if s.conn != conn {
		// Explicit Disconnect already released this connection.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	ev := s.dropLocked(fmt.Errorf("%w: %v", ErrConnectionLost, cause))
	s.unlockAndEmit(ev)

	s.logger.Warn("StreamSession", "Connection to summarization backend lost", map[string]interface{}{"error": cause.Error(), "aborted_request": ev.RequestID})
	_ = conn.Close()
}

// acceptsLocked reports whether a server event belongs to the in-flight request.
func (s *StreamSession) acceptsLocked(env dto.StreamEnvelope) bool {
	if !s.summarizing {
		return false
	}
	return env.RequestID == "" || env.RequestID == s.requestID
}

func (s *StreamSession) applyChunk(env dto.StreamEnvelope) {
	s.mu.Lock()
	if !s.acceptsLocked(env) {
		s.mu.Unlock()
		s.logger.Debug("StreamSession", "Dropping chunk outside of a request", map[string]interface{}{"request_id": env.RequestID})
		return
	}
	s.chunks = AppendChunk(s.chunks, env.Data)
	s.unlockAndEmit(Event{Kind: EventChunk, RequestID: s.requestID, Chunks: s.copyChunksLocked()})
}

func (s *StreamSession) applyComplete(env dto.StreamEnvelope) {
	s.mu.Lock()
	if !s.acceptsLocked(env) {
		s.mu.Unlock()
		s.logger.Debug("StreamSession", "Dropping completion outside of a request", map[string]interface{}{"request_id": env.RequestID})
		return
	}
	s.summary = TrimCompletion(env.Data)
	s.hasSummary = true
	s.summarizing = false
	requestID := s.requestID
	s.unlockAndEmit(Event{Kind: EventComplete, RequestID: requestID, Chunks: s.copyChunksLocked(), Summary: s.summary})

	s.logger.Info("StreamSession", "Summary complete", map[string]interface{}{"request_id": requestID})
}

func (s *StreamSession) applyFailure(env dto.StreamEnvelope) {
	s.mu.Lock()
	if !s.acceptsLocked(env) {
		s.mu.Unlock()
		return
	}
	s.summarizing = false
	requestID := s.requestID
	err := fmt.Errorf("%w: %s", ErrSummaryFailed, env.Data)
	s.unlockAndEmit(Event{Kind: EventAborted, RequestID: requestID, Chunks: s.copyChunksLocked(), Err: err})

	s.logger.Warn("StreamSession", "Backend reported summary failure", map[string]interface{}{"request_id": requestID, "error": env.Data})
}

func (s *StreamSession) copyChunksLocked() []string {
	out := make([]string, len(s.chunks))
	copy(out, s.chunks)
	return out
}

func (s *StreamSession) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *StreamSession) Summarizing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summarizing
}

// CanRequest mirrors the enabled state of the summarize trigger.
func (s *StreamSession) CanRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && !s.summarizing
}

// Chunks returns a copy of the accumulated sequence for the latest request.
func (s *StreamSession) Chunks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyChunksLocked()
}

// Summary returns the final document of the latest request, if it completed.
func (s *StreamSession) Summary() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, s.hasSummary
}

func (s *StreamSession) RequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestID
}

// AppendChunk appends chunk to chunks. A chunk with '#' in its first two
// characters is a heading and gets a LineBreak token in front of it.
func AppendChunk(chunks []string, chunk string) []string {
	if isHeading(chunk) {
		return append(chunks, LineBreak, chunk)
	}
	return append(chunks, chunk)
}

func isHeading(chunk string) bool {
	n := 0
	for _, r := range chunk {
		if n == 2 {
			break
		}
		if r == '#' {
			return true
		}
		n++
	}
	return false
}

// TrimCompletion unwraps a completion payload: the first "```json" marker and
// every "```" marker are removed, then surrounding whitespace is trimmed. A
// payload without markers is only trimmed.
func TrimCompletion(payload string) string {
	out := strings.Replace(payload, "```json", "", 1)
	out = strings.ReplaceAll(out, "```", "")
	return strings.TrimSpace(out)
}
