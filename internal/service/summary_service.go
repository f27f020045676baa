package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"dashboard-summarizer/internal/constant"
	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/internal/pkg/logger"
	"dashboard-summarizer/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SummarySink receives the server side of one summarization exchange.
type SummarySink interface {
	Chunk(text string) error
	Complete(payload string) error
	Fail(reason string) error
}

type ISummaryService interface {
	// Summarize streams a summary of the serialized MetadataDocument into sink.
	// Exactly one of Complete or Fail is called unless the sink itself fails.
	Summarize(ctx context.Context, rawDocument string, sink SummarySink) error
}

type SummaryService struct {
	provider llm.LLMProvider
	logger   logger.ILogger
	tracer   trace.Tracer
}

func NewSummaryService(provider llm.LLMProvider, log logger.ILogger) *SummaryService {
	return &SummaryService{
		provider: provider,
		logger:   log,
		tracer:   otel.Tracer("dashboard-summarizer/summary"),
	}
}

func (s *SummaryService) Summarize(ctx context.Context, rawDocument string, sink SummarySink) error {
	ctx, span := s.tracer.Start(ctx, "SummaryService.Summarize")
	defer span.End()

	var doc model.MetadataDocument
	if err := json.Unmarshal([]byte(rawDocument), &doc); err != nil {
		s.logger.Warn("SummaryService", "Rejected undecodable metadata document", map[string]interface{}{"error": err.Error()})
		span.SetStatus(codes.Error, "bad document")
		return sink.Fail("invalid metadata document")
	}
	span.SetAttributes(
		attribute.String("dashboard.id", doc.DashboardID),
		attribute.Int("dashboard.queries", len(doc.Queries)),
	)

	history := []llm.Message{
		{Role: "system", Content: constant.SummarySystemPrompt},
		{Role: "user", Content: BuildSummaryPrompt(&doc)},
	}

	chunks := 0
	full, err := s.provider.ChatStream(ctx, history, func(delta string) error {
		chunks++
		return sink.Chunk(delta)
	}, llm.WithTemperature(0.3))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("SummaryService", "Summary generation failed", map[string]interface{}{
			"dashboard_id": doc.DashboardID,
			"chunks_sent":  chunks,
			"error":        err.Error(),
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return sink.Fail("summary generation failed")
	}

	s.logger.Info("SummaryService", "Summary generated", map[string]interface{}{"dashboard_id": doc.DashboardID, "chunks_sent": chunks})
	return sink.Complete(WrapCompletion(full))
}

// WrapCompletion fences the final text the way clients expect to unwrap it.
func WrapCompletion(text string) string {
	return "```json\n" + text + "\n```"
}

// BuildSummaryPrompt renders doc into constant.SummaryPrompt with stable ordering.
func BuildSummaryPrompt(doc *model.MetadataDocument) string {
	var filters strings.Builder
	for _, name := range sortedKeys(doc.DashboardFilters) {
		value := doc.DashboardFilters[name]
		if value == "" {
			value = "(any)"
		}
		fmt.Fprintf(&filters, "- %s -> %s\n", name, value)
	}
	if filters.Len() == 0 {
		filters.WriteString("- none\n")
	}

	var defs strings.Builder
	for _, name := range sortedKeys(doc.IndexedFilters) {
		f := doc.IndexedFilters[name]
		fmt.Fprintf(&defs, "- %s -> %s / %s / %s\n", name, f.Dimension, f.Explore, f.Model)
	}
	if defs.Len() == 0 {
		defs.WriteString("- none\n")
	}

	var queries strings.Builder
	for i, q := range doc.Queries {
		fmt.Fprintf(&queries, "%d. id=%s model=%s view=%s fields=[%s]", i+1, q.ID, q.Model, q.View, strings.Join(q.Fields, ", "))
		if q.DynamicFields != "" {
			fmt.Fprintf(&queries, " dynamic_fields=%s", q.DynamicFields)
		}
		queries.WriteString("\n")
	}
	if queries.Len() == 0 {
		queries.WriteString("- none\n")
	}

	return fmt.Sprintf(constant.SummaryPrompt, doc.DashboardID, filters.String(), defs.String(), queries.String())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
