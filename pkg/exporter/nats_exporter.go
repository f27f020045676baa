package exporter

import (
	"context"
	"fmt"

	"dashboard-summarizer/pkg/events"
)

// EventPublisher is satisfied by *nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// NatsExporter hands exports to the workers that own the Google Chat and
// Sheets integrations by publishing SUMMARY_EXPORT_REQUESTED.
type NatsExporter struct {
	publisher EventPublisher
}

func NewNatsExporter(publisher EventPublisher) *NatsExporter {
	return &NatsExporter{publisher: publisher}
}

func (e *NatsExporter) Export(ctx context.Context, dest Destination, summary Summary) error {
	evt := events.NewSummaryExportRequested(string(dest), summary.DashboardID, summary.Fingerprint, summary.Text)
	if err := e.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish %s export: %w", dest, err)
	}
	return nil
}
