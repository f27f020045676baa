package model

// Filters is the active filter state reported by the dashboard host (filter name -> value).
type Filters map[string]string

// FilterDescriptor locates a dashboard filter in the semantic model.
type FilterDescriptor struct {
	Dimension string `json:"dimension"`
	Explore   string `json:"explore"`
	Model     string `json:"model"`
}

// QueryDescriptor is the unified shape of a dashboard element query, whether it
// came from the element's direct query or from its result maker.
type QueryDescriptor struct {
	ID            string   `json:"id"`
	Fields        []string `json:"fields"`
	View          string   `json:"view"`
	Model         string   `json:"model"`
	DynamicFields string   `json:"dynamic_fields,omitempty"`
}

// MetadataDocument is the summarization request payload. It is built once per
// fingerprint and never mutated afterwards.
type MetadataDocument struct {
	DashboardFilters Filters                     `json:"dashboardFilters"`
	DashboardID      string                      `json:"dashboardId" validate:"required"`
	Queries          []QueryDescriptor           `json:"queries"`
	IndexedFilters   map[string]FilterDescriptor `json:"indexedFilters"`
}
