package service

import (
	"context"

	"dashboard-summarizer/internal/constant"
	"dashboard-summarizer/internal/pkg/logger"
	"dashboard-summarizer/pkg/exporter"
)

type IExportService interface {
	// Export delivers summary to dest and returns the status message to show.
	Export(ctx context.Context, dest exporter.Destination, summary exporter.Summary) (string, error)
	Supports(dest exporter.Destination) bool
}

type ExportService struct {
	router *exporter.Router
	logger logger.ILogger
}

func NewExportService(router *exporter.Router, log logger.ILogger) *ExportService {
	return &ExportService{router: router, logger: log}
}

func (s *ExportService) Supports(dest exporter.Destination) bool {
	return s.router.Supports(dest)
}

func (s *ExportService) Export(ctx context.Context, dest exporter.Destination, summary exporter.Summary) (string, error) {
	if err := s.router.Export(ctx, dest, summary); err != nil {
		s.logger.Error("ExportService", "Export failed", map[string]interface{}{
			"destination":  dest,
			"dashboard_id": summary.DashboardID,
			"error":        err.Error(),
		})
		return constant.StatusExportFailedPrefix + string(dest), err
	}

	s.logger.Info("ExportService", "Summary exported", map[string]interface{}{"destination": dest, "dashboard_id": summary.DashboardID})
	return exportedStatus(dest), nil
}

func exportedStatus(dest exporter.Destination) string {
	switch dest {
	case exporter.GoogleChat:
		return constant.StatusExportedChat
	case exporter.Slack:
		return constant.StatusExportedSlack
	case exporter.Sheets:
		return constant.StatusExportedSheets
	}
	return "Summary exported to " + string(dest)
}
