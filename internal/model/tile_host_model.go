package model

// RunState mirrors the host's dashboard run state.
type RunState string

const (
	RunStateUnknown    RunState = "UNKNOWN"
	RunStateRunning    RunState = "RUNNING"
	RunStateNotRunning RunState = "NOT_RUNNING"
)

// TileHostData is the read-only ambient state the dashboard host exposes to the tile.
type TileHostData struct {
	DashboardID       string
	DashboardFilters  Filters
	DashboardRunState RunState
}
