package events

import "time"

// Event types published on the bus.
const (
	SUMMARY_EXPORT_REQUESTED = "SUMMARY_EXPORT_REQUESTED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SUMMARY_EXPORT_REQUESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewSummaryExportRequested builds the event a destination worker consumes
// to deliver a finished dashboard summary.
func NewSummaryExportRequested(destination, dashboardID, fingerprint, summary string) BaseEvent {
	now := time.Now()
	return BaseEvent{
		Type: SUMMARY_EXPORT_REQUESTED,
		Data: map[string]interface{}{
			"destination":  destination,
			"dashboard_id": dashboardID,
			"fingerprint":  fingerprint,
			"summary":      summary,
			"requested_at": now.Format(time.RFC3339),
		},
		OccurredAt: now,
	}
}
