package service

import (
	"context"
	"errors"
	"testing"

	"dashboard-summarizer/internal/constant"
	"dashboard-summarizer/internal/dto"
	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDashboardAPI struct {
	filters       []dto.DashboardFilter
	elements      []dto.DashboardElement
	filtersErr    error
	elementsErr   error
	filterCalls   int
	elementsCalls int
}

func (f *fakeDashboardAPI) DashboardFilters(ctx context.Context, dashboardID string) ([]dto.DashboardFilter, error) {
	f.filterCalls++
	return f.filters, f.filtersErr
}

func (f *fakeDashboardAPI) DashboardElements(ctx context.Context, dashboardID string) ([]dto.DashboardElement, error) {
	f.elementsCalls++
	return f.elements, f.elementsErr
}

type statusEvent struct {
	loading bool
	message string
}

type recordingReporter struct {
	events []statusEvent
}

func (r *recordingReporter) ReportMetadataStatus(loading bool, message string) {
	r.events = append(r.events, statusEvent{loading: loading, message: message})
}

func strPtr(s string) *string { return &s }

func TestExtractScenario(t *testing.T) {
	api := &fakeDashboardAPI{
		filters: []dto.DashboardFilter{
			{Name: "region", Dimension: "d", Explore: "e", Model: "m"},
		},
		elements: []dto.DashboardElement{
			{Query: &dto.LookerQuery{ID: "q1", Fields: []string{"f1"}, View: "v", Model: "m"}},
		},
	}
	reporter := &recordingReporter{}
	svc := NewMetadataService(api, logger.NewNopLogger())

	doc, err := svc.Extract(context.Background(), model.TileHostData{
		DashboardID:       "D1",
		DashboardFilters:  model.Filters{},
		DashboardRunState: model.RunStateRunning,
	}, reporter)
	require.NoError(t, err)

	assert.Equal(t, "D1", doc.DashboardID)
	assert.Equal(t, model.Filters{}, doc.DashboardFilters)
	assert.Equal(t, map[string]model.FilterDescriptor{
		"region": {Dimension: "d", Explore: "e", Model: "m"},
	}, doc.IndexedFilters)
	assert.Equal(t, []model.QueryDescriptor{
		{ID: "q1", Fields: []string{"f1"}, View: "v", Model: "m"},
	}, doc.Queries)

	assert.Equal(t, []statusEvent{
		{loading: true, message: constant.StatusLoadingMetadata},
		{loading: false, message: constant.StatusLoadedMetadata},
	}, reporter.events)
}

func TestExtractReleasesLoadingOnFailure(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeDashboardAPI
	}{
		{name: "filters call fails", api: &fakeDashboardAPI{filtersErr: errors.New("401 unauthorized")}},
		{name: "elements call fails", api: &fakeDashboardAPI{elementsErr: errors.New("timeout")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reporter := &recordingReporter{}
			svc := NewMetadataService(tt.api, logger.NewNopLogger())

			doc, err := svc.Extract(context.Background(), model.TileHostData{DashboardID: "D1"}, reporter)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, ErrHostFetch)

			require.Len(t, reporter.events, 2)
			assert.True(t, reporter.events[0].loading)
			assert.False(t, reporter.events[1].loading)
			assert.Equal(t, constant.StatusMetadataFailed, reporter.events[1].message)
		})
	}
}

func TestExtractSkipsElementsAfterFilterFailure(t *testing.T) {
	api := &fakeDashboardAPI{filtersErr: errors.New("boom")}
	svc := NewMetadataService(api, logger.NewNopLogger())

	_, err := svc.Extract(context.Background(), model.TileHostData{DashboardID: "D1"}, &recordingReporter{})
	require.Error(t, err)
	assert.Equal(t, 1, api.filterCalls)
	assert.Equal(t, 0, api.elementsCalls)
}

func TestMapQueries(t *testing.T) {
	elements := []dto.DashboardElement{
		{ID: "text-tile"},
		{ResultMaker: &dto.ResultMaker{Query: &dto.LookerQuery{
			ID: "rm1", Fields: []string{"a", "b"}, View: "v1", Model: "m1", DynamicFields: strPtr(`[{"measure":"x"}]`),
		}}},
		{
			Query:       &dto.LookerQuery{ID: "direct", Fields: []string{"c"}, View: "v2", Model: "m2", DynamicFields: strPtr("ignored")},
			ResultMaker: &dto.ResultMaker{Query: &dto.LookerQuery{ID: "shadowed"}},
		},
		{ResultMaker: &dto.ResultMaker{}},
		{ResultMaker: &dto.ResultMaker{Query: &dto.LookerQuery{ID: "rm2", View: "v3", Model: "m3"}}},
	}

	got := MapQueries(elements)

	assert.Equal(t, []model.QueryDescriptor{
		{ID: "rm1", Fields: []string{"a", "b"}, View: "v1", Model: "m1", DynamicFields: `[{"measure":"x"}]`},
		{ID: "direct", Fields: []string{"c"}, View: "v2", Model: "m2"},
		{ID: "rm2", View: "v3", Model: "m3"},
	}, got)
}

func TestIndexFilters(t *testing.T) {
	got := IndexFilters([]dto.DashboardFilter{
		{Name: "date", Dimension: "orders.created_date", Explore: "orders", Model: "thelook"},
		{Name: "state", Dimension: "users.state", Explore: "users", Model: "thelook"},
		{Name: "date", Dimension: "events.created_date", Explore: "events", Model: "thelook"},
	})

	assert.Len(t, got, 2)
	assert.Equal(t, "events.created_date", got["date"].Dimension)
	assert.Equal(t, model.FilterDescriptor{Dimension: "users.state", Explore: "users", Model: "thelook"}, got["state"])
}
