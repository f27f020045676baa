package main

import (
	"fmt"
	"io"
	"strings"

	"dashboard-summarizer/internal/dto"

	"github.com/fatih/color"
)

var (
	statusColor  = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	headingColor = color.New(color.FgHiWhite, color.Bold)
)

// feedRenderer draws session snapshots on a terminal: status banners on their
// own line and the summary text growing in place as chunks arrive. It is
// driven by a single feed consumer and is not safe for concurrent use.
type feedRenderer struct {
	out      io.Writer
	status   string
	printed  string
	lineOpen bool
	inFlight string
	done     chan dto.SessionSnapshot
}

func newFeedRenderer(out io.Writer) *feedRenderer {
	return &feedRenderer{out: out, done: make(chan dto.SessionSnapshot, 1)}
}

// Done yields the snapshot that finished the request being rendered.
func (r *feedRenderer) Done() <-chan dto.SessionSnapshot {
	return r.done
}

func (r *feedRenderer) Handle(s dto.SessionSnapshot) {
	r.renderStatus(s)

	if s.Summarizing {
		if s.RequestID != r.inFlight {
			r.inFlight = s.RequestID
			r.printed = ""
		}
		r.renderPartial(s.PartialText())
		return
	}

	if r.inFlight == "" || s.RequestID != r.inFlight {
		return
	}
	r.inFlight = ""
	r.printed = ""
	r.breakLine()

	if s.HasSummary {
		headingColor.Fprintln(r.out, "Summary")
		fmt.Fprintln(r.out, s.Summary)
	}

	select {
	case r.done <- s:
	default:
	}
}

func (r *feedRenderer) renderStatus(s dto.SessionSnapshot) {
	if !s.StatusVisible {
		r.status = ""
		return
	}
	if s.Status == r.status {
		return
	}
	r.status = s.Status
	r.breakLine()
	statusPalette(s.Status).Fprintf(r.out, "» %s\n", s.Status)
}

func (r *feedRenderer) renderPartial(text string) {
	if text == r.printed {
		return
	}
	if strings.HasPrefix(text, r.printed) {
		fmt.Fprint(r.out, text[len(r.printed):])
	} else {
		r.breakLine()
		fmt.Fprint(r.out, text)
	}
	r.printed = text
	r.lineOpen = text != ""
}

func (r *feedRenderer) breakLine() {
	if r.lineOpen {
		fmt.Fprintln(r.out)
		r.lineOpen = false
	}
}

func statusPalette(status string) *color.Color {
	lower := strings.ToLower(status)
	switch {
	case strings.Contains(lower, "failed"), strings.Contains(lower, "lost"), strings.Contains(lower, "could not"):
		return failureColor
	case strings.Contains(lower, "ready"), strings.Contains(lower, "exported"), strings.Contains(lower, "sent to"):
		return successColor
	}
	return statusColor
}
