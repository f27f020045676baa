package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"dashboard-summarizer/internal/constant"
	"dashboard-summarizer/internal/dto"
	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/internal/notifier"
	"dashboard-summarizer/internal/pkg/logger"
	"dashboard-summarizer/internal/service"
	"dashboard-summarizer/internal/session"
	"dashboard-summarizer/pkg/exporter"
	"dashboard-summarizer/pkg/fingerprint"
)

var (
	ErrNoMetadata        = errors.New("session controller: no metadata document loaded")
	ErrExportUnavailable = errors.New("session controller: export unavailable")
	ErrClosed            = errors.New("session controller: closed")
)

// Stream is the part of *session.StreamSession the controller drives.
type Stream interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Request(ctx context.Context, doc *model.MetadataDocument) (string, error)
	Subscribe(obs session.Observer) func()
}

type Options struct {
	Metadata     service.IMetadataService
	Cache        service.IMetadataCache
	Stream       Stream
	Exports      service.IExportService
	Feed         service.ISessionFeed
	DismissDelay time.Duration
	Logger       logger.ILogger
}

// SessionController owns the state of one dashboard tile session and drives
// the metadata cache, the extractor and the stream session from host triggers.
type SessionController struct {
	metadata service.IMetadataService
	cache    service.IMetadataCache
	stream   Stream
	exports  service.IExportService
	feed     service.ISessionFeed
	status   *notifier.StatusNotifier
	logger   logger.ILogger

	loadMu      sync.Mutex
	summarizeMu sync.Mutex
	publishMu   sync.Mutex

	mu              sync.Mutex
	started         bool
	closed          bool
	unsubscribe     func()
	host            model.TileHostData
	active          *model.MetadataDocument
	activeFP        fingerprint.Fingerprint
	pendingFP       fingerprint.Fingerprint
	loadingMetadata bool
	connecting      bool
	connected       bool
	summarizing     bool
	requestID       string
	requestFP       fingerprint.Fingerprint
	chunks          []string
	summary         string
	hasSummary      bool
}

func NewSessionController(opts Options) *SessionController {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	c := &SessionController{
		metadata: opts.Metadata,
		cache:    opts.Cache,
		stream:   opts.Stream,
		exports:  opts.Exports,
		feed:     opts.Feed,
		logger:   log,
	}
	c.status = notifier.NewStatusNotifier(opts.DismissDelay, c.onStatusChange, log)
	return c
}

// Start subscribes to the stream session and opens the connection. Every
// Start must be paired with Close, which releases both on any exit path.
// Start after Close returns ErrClosed.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.connecting = true
	c.mu.Unlock()

	unsubscribe := c.stream.Subscribe(c.onStreamEvent)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsubscribe()
		return ErrClosed
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	c.publishSnapshot()

	if err := c.stream.Connect(ctx); err != nil {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
		c.publishSnapshot()
		return err
	}
	return nil
}

// Reconnect opens a new connection after a drop. Nothing reconnects implicitly.
func (c *SessionController) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.started {
		c.mu.Unlock()
		return errors.New("session controller: not started")
	}
	c.connecting = true
	c.mu.Unlock()
	c.publishSnapshot()

	err := c.stream.Connect(ctx)
	c.mu.Lock()
	c.connecting = false
	c.mu.Unlock()
	c.publishSnapshot()
	return err
}

// Close disconnects, drops the stream subscription and cancels pending status
// dismissals. A closed controller cannot be started again.
func (c *SessionController) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if !c.started {
		c.mu.Unlock()
		c.status.Stop()
		return nil
	}
	c.started = false
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	err := c.stream.Disconnect()
	if unsubscribe != nil {
		unsubscribe()
	}
	c.status.Stop()

	c.mu.Lock()
	c.connecting = false
	c.connected = false
	c.summarizing = false
	c.mu.Unlock()
	c.publishSnapshot()
	return err
}

// Load adopts the metadata document for host. A cached document is used as is.
// Otherwise the dashboard is extracted once it has left the UNKNOWN run state,
// and the result is written through to the cache.
func (c *SessionController) Load(ctx context.Context, host model.TileHostData) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.mu.Lock()
	c.host = host
	c.mu.Unlock()

	fp, err := fingerprint.Build(host.DashboardID, host.DashboardFilters)
	if err != nil {
		c.logger.Debug("SessionController", "No dashboard to load", nil)
		return nil
	}

	if doc, ok := c.cache.Get(ctx, fp); ok {
		c.adopt(fp, doc)
		c.status.Publish(constant.StatusLoadedFromCache)
		c.logger.Info("SessionController", "Metadata loaded from cache", map[string]interface{}{"fingerprint": fp.String()})
		return nil
	}

	if host.DashboardRunState == model.RunStateUnknown {
		c.logger.Debug("SessionController", "Cache miss, waiting for dashboard run", map[string]interface{}{"fingerprint": fp.String()})
		return nil
	}

	doc, err := c.metadata.Extract(ctx, host, c)
	if err != nil {
		return err
	}

	if err := c.cache.Put(ctx, fp, doc); err != nil {
		c.logger.Warn("SessionController", "Failed to cache metadata", map[string]interface{}{"fingerprint": fp.String(), "error": err.Error()})
	}
	c.adopt(fp, doc)
	return nil
}

// Refresh reloads when the host's filters or dashboard changed, or when no
// document has been adopted yet.
func (c *SessionController) Refresh(ctx context.Context, host model.TileHostData) error {
	fp, err := fingerprint.Build(host.DashboardID, host.DashboardFilters)
	if err != nil {
		return nil
	}

	c.mu.Lock()
	current := c.active != nil && c.activeFP == fp
	c.host = host
	c.mu.Unlock()

	if current {
		return nil
	}
	return c.Load(ctx, host)
}

func (c *SessionController) adopt(fp fingerprint.Fingerprint, doc *model.MetadataDocument) {
	c.mu.Lock()
	c.active = doc
	c.activeFP = fp
	c.mu.Unlock()
	c.publishSnapshot()
}

// ReportMetadataStatus implements service.StatusReporter.
func (c *SessionController) ReportMetadataStatus(loading bool, message string) {
	c.mu.Lock()
	c.loadingMetadata = loading
	c.mu.Unlock()

	c.status.Publish(message)
}

// Summarize sends the active document to the summarization backend and
// returns the request id.
func (c *SessionController) Summarize(ctx context.Context) (string, error) {
	c.summarizeMu.Lock()
	defer c.summarizeMu.Unlock()

	c.mu.Lock()
	doc := c.active
	c.pendingFP = c.activeFP
	c.mu.Unlock()

	if doc == nil {
		return "", ErrNoMetadata
	}

	requestID, err := c.stream.Request(ctx, doc)
	if err != nil {
		c.logger.Warn("SessionController", "Summarize rejected", map[string]interface{}{"error": err.Error()})
		return "", err
	}
	return requestID, nil
}

// Export delivers the latest summary to dest and publishes the outcome as status.
func (c *SessionController) Export(ctx context.Context, dest exporter.Destination) error {
	c.mu.Lock()
	ok := c.canExportLocked()
	summary := exporter.Summary{
		DashboardID: c.host.DashboardID,
		Fingerprint: c.requestFP.String(),
		Text:        c.summary,
	}
	c.mu.Unlock()

	if !ok || c.exports == nil || !c.exports.Supports(dest) {
		return ErrExportUnavailable
	}

	status, err := c.exports.Export(ctx, dest, summary)
	c.status.Publish(status)
	return err
}

func (c *SessionController) onStreamEvent(ev session.Event) {
	var status string

	c.mu.Lock()
	switch ev.Kind {
	case session.EventConnected:
		c.connecting = false
		c.connected = true
	case session.EventDisconnected:
		c.connecting = false
		c.connected = false
		if ev.RequestID != "" {
			c.summarizing = false
			c.chunks = ev.Chunks
		}
		if ev.Err != nil {
			status = constant.StatusConnectionLost
		}
	case session.EventConnectFailed:
		c.connecting = false
		c.connected = false
		status = constant.StatusConnectFailed
	case session.EventRequested:
		c.summarizing = true
		c.requestID = ev.RequestID
		c.requestFP = c.pendingFP
		c.chunks = nil
		c.summary = ""
		c.hasSummary = false
		status = constant.StatusSummarizing
	case session.EventChunk:
		c.chunks = ev.Chunks
	case session.EventComplete:
		c.summarizing = false
		c.chunks = ev.Chunks
		c.summary = ev.Summary
		c.hasSummary = true
		status = constant.StatusSummaryReady
	case session.EventAborted:
		c.summarizing = false
		c.chunks = ev.Chunks
		status = constant.StatusSummaryFailed
	}
	c.mu.Unlock()

	c.publishSnapshot()
	if status != "" {
		c.status.Publish(status)
	}
}

func (c *SessionController) onStatusChange(notifier.Status) {
	c.publishSnapshot()
}

func (c *SessionController) publishSnapshot() {
	if c.feed == nil {
		return
	}
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	if err := c.feed.Publish(c.Snapshot()); err != nil {
		c.logger.Warn("SessionController", "Failed to publish session snapshot", map[string]interface{}{"error": err.Error()})
	}
}

func (c *SessionController) stateLocked() session.State {
	switch {
	case c.summarizing:
		return session.StateSummarizing
	case c.loadingMetadata:
		return session.StateLoadingMetadata
	case c.connecting:
		return session.StateConnecting
	case c.started && !c.connected:
		return session.StateDisconnected
	case c.hasSummary:
		return session.StateComplete
	case c.active != nil:
		return session.StateReadyToSummarize
	}
	return session.StateIdle
}

func (c *SessionController) canExportLocked() bool {
	return c.hasSummary && !c.summarizing && !c.loadingMetadata
}

func (c *SessionController) State() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// CanSummarize mirrors the summarize trigger: connected and not summarizing.
func (c *SessionController) CanSummarize() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && !c.summarizing
}

// CanExport mirrors the export triggers.
func (c *SessionController) CanExport() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canExportLocked()
}

func (c *SessionController) LoadingMetadata() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadingMetadata
}

// Metadata returns the active document and its fingerprint.
func (c *SessionController) Metadata() (*model.MetadataDocument, fingerprint.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.activeFP
}

func (c *SessionController) Status() notifier.Status {
	return c.status.Current()
}

func (c *SessionController) Snapshot() dto.SessionSnapshot {
	status := c.status.Current()

	c.mu.Lock()
	defer c.mu.Unlock()

	chunks := make([]string, len(c.chunks))
	copy(chunks, c.chunks)

	return dto.SessionSnapshot{
		State:         c.stateLocked().String(),
		Connected:     c.connected,
		Summarizing:   c.summarizing,
		LoadingMeta:   c.loadingMetadata,
		CanSummarize:  c.connected && !c.summarizing,
		CanExport:     c.canExportLocked(),
		Status:        status.Message,
		StatusVisible: status.Visible,
		RequestID:     c.requestID,
		Chunks:        chunks,
		Summary:       c.summary,
		HasSummary:    c.hasSummary,
		DashboardID:   c.host.DashboardID,
		Fingerprint:   c.activeFP.String(),
	}
}
