package dto

import "strings"

// Stream events exchanged with the summarization backend.
const (
	EventStartSummary = "start-summary"
	EventChunk        = "chunk"
	EventComplete     = "complete"
	EventSummaryError = "summary-error"
)

// StreamEnvelope is one JSON text frame on the summarization websocket.
type StreamEnvelope struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId,omitempty"`
	Data      string `json:"data"`
}

// SessionSnapshot is what observers of a summarization session receive on every transition.
type SessionSnapshot struct {
	State         string   `json:"state"`
	Connected     bool     `json:"connected"`
	Summarizing   bool     `json:"summarizing"`
	LoadingMeta   bool     `json:"loadingMetadata"`
	CanSummarize  bool     `json:"canSummarize"`
	CanExport     bool     `json:"canExport"`
	Status        string   `json:"status,omitempty"`
	StatusVisible bool     `json:"statusVisible"`
	RequestID     string   `json:"requestId,omitempty"`
	Chunks        []string `json:"chunks,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	HasSummary    bool     `json:"hasSummary"`
	DashboardID   string   `json:"dashboardId,omitempty"`
	Fingerprint   string   `json:"fingerprint,omitempty"`
}

// PartialText renders the accumulated chunks the way the progressive view shows them.
func (s SessionSnapshot) PartialText() string {
	return strings.Join(s.Chunks, " ")
}
