package constant

// Status banner texts published by the session controller.
const (
	StatusLoadingMetadata    = "Loading Dashboard Metadata"
	StatusLoadedMetadata     = "Loaded Dashboard Metadata. Click 'Summarize Dashboard' to Generate report summary."
	StatusLoadedFromCache    = "Loaded Dashboard Metadata from cache. Click 'Summarize Dashboard' to Generate report summary."
	StatusMetadataFailed     = "Failed to load Dashboard Metadata. Re-run the dashboard to retry."
	StatusSummarizing        = "Generating dashboard summary"
	StatusSummaryReady       = "Dashboard summary ready."
	StatusSummaryFailed      = "Summary generation failed. Click 'Summarize Dashboard' to retry."
	StatusConnectionLost     = "Connection to summarization service lost."
	StatusConnectFailed      = "Could not connect to summarization service."
	StatusExportedChat       = "Summary exported to Google Chat"
	StatusExportedSlack      = "Summary exported to Slack"
	StatusExportedSheets     = "Summary sent to Google Sheets"
	StatusExportFailedPrefix = "Export failed: "
)

// DismissMarkers are the phrases that make a status banner auto-dismiss.
var DismissMarkers = []string{
	"Loaded Dashboard Metadata",
	"Google Chat",
	"Slack",
}
