package service

import (
	"context"
	"errors"
	"fmt"

	"dashboard-summarizer/internal/constant"
	"dashboard-summarizer/internal/dto"
	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrHostFetch wraps any failure of a dashboard host call.
var ErrHostFetch = errors.New("dashboard host fetch failed")

// DashboardAPI is the read-only slice of the dashboard host the extractor needs.
type DashboardAPI interface {
	DashboardFilters(ctx context.Context, dashboardID string) ([]dto.DashboardFilter, error)
	DashboardElements(ctx context.Context, dashboardID string) ([]dto.DashboardElement, error)
}

// StatusReporter receives the loading flag and banner text around an extraction.
type StatusReporter interface {
	ReportMetadataStatus(loading bool, message string)
}

type IMetadataService interface {
	Extract(ctx context.Context, host model.TileHostData, status StatusReporter) (*model.MetadataDocument, error)
}

type MetadataService struct {
	api    DashboardAPI
	logger logger.ILogger
	tracer trace.Tracer
}

func NewMetadataService(api DashboardAPI, log logger.ILogger) *MetadataService {
	return &MetadataService{
		api:    api,
		logger: log,
		tracer: otel.Tracer("dashboard-summarizer/metadata"),
	}
}

// Extract fetches the dashboard's filters and elements and normalizes them into
// a MetadataDocument. The loading status is always released before returning.
func (s *MetadataService) Extract(ctx context.Context, host model.TileHostData, status StatusReporter) (doc *model.MetadataDocument, err error) {
	ctx, span := s.tracer.Start(ctx, "MetadataService.Extract", trace.WithAttributes(
		attribute.String("dashboard.id", host.DashboardID),
	))
	defer span.End()

	status.ReportMetadataStatus(true, constant.StatusLoadingMetadata)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			status.ReportMetadataStatus(false, constant.StatusMetadataFailed)
			return
		}
		status.ReportMetadataStatus(false, constant.StatusLoadedMetadata)
	}()

	filters, err := s.api.DashboardFilters(ctx, host.DashboardID)
	if err != nil {
		s.logger.Error("MetadataService", "Failed to fetch dashboard filters", map[string]interface{}{"dashboard_id": host.DashboardID, "error": err.Error()})
		return nil, fmt.Errorf("%w: filters of dashboard %s: %v", ErrHostFetch, host.DashboardID, err)
	}

	elements, err := s.api.DashboardElements(ctx, host.DashboardID)
	if err != nil {
		s.logger.Error("MetadataService", "Failed to fetch dashboard elements", map[string]interface{}{"dashboard_id": host.DashboardID, "error": err.Error()})
		return nil, fmt.Errorf("%w: elements of dashboard %s: %v", ErrHostFetch, host.DashboardID, err)
	}

	doc = &model.MetadataDocument{
		DashboardFilters: host.DashboardFilters,
		DashboardID:      host.DashboardID,
		Queries:          MapQueries(elements),
		IndexedFilters:   IndexFilters(filters),
	}

	span.SetAttributes(attribute.Int("dashboard.queries", len(doc.Queries)))
	s.logger.Info("MetadataService", "Extracted dashboard metadata", map[string]interface{}{
		"dashboard_id": host.DashboardID,
		"queries":      len(doc.Queries),
		"filters":      len(doc.IndexedFilters),
	})
	return doc, nil
}

// IndexFilters keys filter descriptors by filter name. A later duplicate name wins.
func IndexFilters(filters []dto.DashboardFilter) map[string]model.FilterDescriptor {
	indexed := make(map[string]model.FilterDescriptor, len(filters))
	for _, f := range filters {
		indexed[f.Name] = model.FilterDescriptor{
			Dimension: f.Dimension,
			Explore:   f.Explore,
			Model:     f.Model,
		}
	}
	return indexed
}

// MapQueries keeps elements that carry a direct query or a result-maker query,
// preferring the direct query, and preserves element order.
func MapQueries(elements []dto.DashboardElement) []model.QueryDescriptor {
	queries := make([]model.QueryDescriptor, 0, len(elements))
	for _, el := range elements {
		switch {
		case el.Query != nil:
			queries = append(queries, model.QueryDescriptor{
				ID:     el.Query.ID,
				Fields: el.Query.Fields,
				View:   el.Query.View,
				Model:  el.Query.Model,
			})
		case el.ResultMaker != nil && el.ResultMaker.Query != nil:
			q := el.ResultMaker.Query
			descriptor := model.QueryDescriptor{
				ID:     q.ID,
				Fields: q.Fields,
				View:   q.View,
				Model:  q.Model,
			}
			if q.DynamicFields != nil {
				descriptor.DynamicFields = *q.DynamicFields
			}
			queries = append(queries, descriptor)
		}
	}
	return queries
}
