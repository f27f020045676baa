package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/internal/pkg/logger"
	"dashboard-summarizer/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	deltas  []string
	err     error
	history []llm.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return p.ChatStream(ctx, history, func(string) error { return nil }, opts...)
}

func (p *scriptedProvider) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.DeltaFunc, opts ...llm.Option) (string, error) {
	p.history = history
	var full strings.Builder
	for _, d := range p.deltas {
		full.WriteString(d)
		if err := onDelta(d); err != nil {
			return full.String(), err
		}
	}
	return full.String(), p.err
}

type recordingSink struct {
	chunks    []string
	completes []string
	failures  []string
	chunkErr  error
}

func (s *recordingSink) Chunk(text string) error {
	if s.chunkErr != nil {
		return s.chunkErr
	}
	s.chunks = append(s.chunks, text)
	return nil
}

func (s *recordingSink) Complete(payload string) error {
	s.completes = append(s.completes, payload)
	return nil
}

func (s *recordingSink) Fail(reason string) error {
	s.failures = append(s.failures, reason)
	return nil
}

func encodedD1(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(model.MetadataDocument{
		DashboardFilters: model.Filters{"region": "EU", "date": ""},
		DashboardID:      "D1",
		Queries:          []model.QueryDescriptor{{ID: "q1", Fields: []string{"f1", "f2"}, View: "v", Model: "m", DynamicFields: `[{"table_calculation":"x"}]`}},
		IndexedFilters:   map[string]model.FilterDescriptor{"region": {Dimension: "d", Explore: "e", Model: "m"}},
	})
	require.NoError(t, err)
	return string(raw)
}

func TestSummarizeStreamsChunksThenCompletes(t *testing.T) {
	provider := &scriptedProvider{deltas: []string{"## Overview", " Sales", " grew."}}
	svc := NewSummaryService(provider, logger.NewNopLogger())
	sink := &recordingSink{}

	require.NoError(t, svc.Summarize(context.Background(), encodedD1(t), sink))

	assert.Equal(t, []string{"## Overview", " Sales", " grew."}, sink.chunks)
	require.Len(t, sink.completes, 1)
	assert.Equal(t, "```json\n## Overview Sales grew.\n```", sink.completes[0])
	assert.Empty(t, sink.failures)

	require.Len(t, provider.history, 2)
	assert.Equal(t, "system", provider.history[0].Role)
	assert.Contains(t, provider.history[1].Content, "Dashboard ID: D1")
}

func TestSummarizeProviderFailure(t *testing.T) {
	provider := &scriptedProvider{deltas: []string{"partial"}, err: errors.New("ollama: connection refused")}
	sink := &recordingSink{}

	require.NoError(t, NewSummaryService(provider, logger.NewNopLogger()).Summarize(context.Background(), encodedD1(t), sink))

	assert.Equal(t, []string{"partial"}, sink.chunks)
	assert.Empty(t, sink.completes)
	assert.Equal(t, []string{"summary generation failed"}, sink.failures)
}

func TestSummarizeRejectsBadDocument(t *testing.T) {
	provider := &scriptedProvider{}
	sink := &recordingSink{}

	require.NoError(t, NewSummaryService(provider, logger.NewNopLogger()).Summarize(context.Background(), "{not json", sink))
	assert.Nil(t, provider.history, "provider must not be called")
	assert.Equal(t, []string{"invalid metadata document"}, sink.failures)
}

func TestSummarizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &scriptedProvider{err: context.Canceled}
	sink := &recordingSink{}

	err := NewSummaryService(provider, logger.NewNopLogger()).Summarize(ctx, encodedD1(t), sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.completes)
	assert.Empty(t, sink.failures)
}

func TestBuildSummaryPrompt(t *testing.T) {
	var doc model.MetadataDocument
	require.NoError(t, json.Unmarshal([]byte(encodedD1(t)), &doc))

	prompt := BuildSummaryPrompt(&doc)
	assert.Contains(t, prompt, "- date -> (any)\n- region -> EU\n")
	assert.Contains(t, prompt, "- region -> d / e / m")
	assert.Contains(t, prompt, `1. id=q1 model=m view=v fields=[f1, f2] dynamic_fields=[{"table_calculation":"x"}]`)

	empty := BuildSummaryPrompt(&model.MetadataDocument{DashboardID: "D2"})
	assert.Equal(t, 3, strings.Count(empty, "- none"))
}

func TestWrapCompletionRoundTrip(t *testing.T) {
	assert.Equal(t, "```json\n{\"a\":1}\n```", WrapCompletion(`{"a":1}`))
}
