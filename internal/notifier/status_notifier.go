package notifier

import (
	"strings"
	"sync"
	"time"

	"dashboard-summarizer/internal/constant"
	"dashboard-summarizer/internal/pkg/logger"
)

// Status is the banner state: the last published message and whether it is shown.
type Status struct {
	Message string
	Visible bool
}

type StatusNotifier struct {
	delay    time.Duration
	markers  []string
	onChange func(Status)
	logger   logger.ILogger

	mu      sync.Mutex
	current Status
	seq     uint64
	timer   *time.Timer
	stopped bool
}

// NewStatusNotifier returns a notifier that hides messages containing one of
// constant.DismissMarkers after delay. onChange may be nil.
func NewStatusNotifier(delay time.Duration, onChange func(Status), log logger.ILogger) *StatusNotifier {
	return &StatusNotifier{
		delay:    delay,
		markers:  constant.DismissMarkers,
		onChange: onChange,
		logger:   log,
	}
}

// Publish shows msg. A pending dismissal from an earlier message is cancelled,
// so a newer message is never hidden by an older timer.
func (n *StatusNotifier) Publish(msg string) {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	n.seq++
	seq := n.seq
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = Status{Message: msg, Visible: true}
	if n.autoDismisses(msg) {
		n.timer = time.AfterFunc(n.delay, func() { n.dismiss(seq) })
	}
	status := n.current
	n.mu.Unlock()

	n.logger.Debug("StatusNotifier", "Status published", map[string]interface{}{"message": msg})
	n.notify(status)
}

func (n *StatusNotifier) dismiss(seq uint64) {
	n.mu.Lock()
	if n.stopped || seq != n.seq {
		n.mu.Unlock()
		return
	}
	n.current.Visible = false
	n.timer = nil
	status := n.current
	n.mu.Unlock()

	n.notify(status)
}

func (n *StatusNotifier) autoDismisses(msg string) bool {
	for _, marker := range n.markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (n *StatusNotifier) notify(status Status) {
	if n.onChange != nil {
		n.onChange(status)
	}
}

func (n *StatusNotifier) Current() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Stop cancels any pending dismissal. Later Publish calls are ignored.
func (n *StatusNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
