package dto

// Wire shapes of the Looker API 4.0 responses the metadata extractor reads.
// Only the requested fields are decoded.

type DashboardFilter struct {
	Name      string `json:"name"`
	Dimension string `json:"dimension"`
	Explore   string `json:"explore"`
	Model     string `json:"model"`
}

type DashboardFiltersResponse struct {
	DashboardFilters []DashboardFilter `json:"dashboard_filters"`
}

type LookerQuery struct {
	ID            string   `json:"id"`
	Fields        []string `json:"fields"`
	View          string   `json:"view"`
	Model         string   `json:"model"`
	DynamicFields *string  `json:"dynamic_fields"`
}

type ResultMaker struct {
	Query *LookerQuery `json:"query"`
}

type DashboardElement struct {
	ID          string       `json:"id,omitempty"`
	Query       *LookerQuery `json:"query"`
	ResultMaker *ResultMaker `json:"result_maker"`
}
