package exporter

import (
	"context"
	"errors"
	"fmt"
)

// Destination names an export target.
type Destination string

const (
	GoogleChat Destination = "google_chat"
	Slack      Destination = "slack"
	Sheets     Destination = "sheets"
)

var ErrUnknownDestination = errors.New("exporter: unknown destination")

// ParseDestination accepts the destination names used on the command line
// and in status messages.
func ParseDestination(s string) (Destination, error) {
	switch d := Destination(s); d {
	case GoogleChat, Slack, Sheets:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDestination, s)
}

// Summary is a finished dashboard summary handed to an exporter.
type Summary struct {
	DashboardID string
	Fingerprint string
	Text        string
}

type Exporter interface {
	Export(ctx context.Context, dest Destination, summary Summary) error
}

// Router dispatches each destination to the exporter registered for it.
type Router struct {
	routes map[Destination]Exporter
}

func NewRouter() *Router {
	return &Router{routes: make(map[Destination]Exporter)}
}

// Handle registers exp for dest. A nil exporter leaves dest unavailable.
func (r *Router) Handle(dest Destination, exp Exporter) *Router {
	if exp != nil {
		r.routes[dest] = exp
	}
	return r
}

// Supports reports whether an exporter is registered for dest.
func (r *Router) Supports(dest Destination) bool {
	_, ok := r.routes[dest]
	return ok
}

func (r *Router) Export(ctx context.Context, dest Destination, summary Summary) error {
	exp, ok := r.routes[dest]
	if !ok {
		return fmt.Errorf("%w: %q has no exporter configured", ErrUnknownDestination, dest)
	}
	return exp.Export(ctx, dest, summary)
}
