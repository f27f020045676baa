package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSummaryExportRequested(t *testing.T) {
	evt := NewSummaryExportRequested("google_chat", "D1", `D1:{"region":"EU"}`, "## Report")

	assert.Equal(t, SUMMARY_EXPORT_REQUESTED, evt.EventType())
	assert.Equal(t, "google_chat", evt.Payload()["destination"])
	assert.Equal(t, "D1", evt.Payload()["dashboard_id"])
	assert.Equal(t, "## Report", evt.Payload()["summary"])
	assert.WithinDuration(t, time.Now(), evt.Timestamp(), time.Second)

	var _ Event = evt
}
