package main

import (
	"fmt"
	"strings"

	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/pkg/fingerprint"

	"github.com/spf13/cobra"
)

// dashboardFlags are shared by every command that addresses one dashboard state.
type dashboardFlags struct {
	dashboardID string
	filters     []string
}

func (f *dashboardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dashboardID, "dashboard", "", "dashboard id")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "active filter as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("dashboard")
}

func (f *dashboardFlags) fingerprint() (fingerprint.Fingerprint, model.Filters, error) {
	filters, err := parseFilters(f.filters)
	if err != nil {
		return "", nil, err
	}
	fp, err := fingerprint.Build(f.dashboardID, filters)
	if err != nil {
		return "", nil, err
	}
	return fp, filters, nil
}

// parseFilters turns repeated name=value pairs into a filter set. The value may
// be empty or contain '='; a later pair overrides an earlier one.
func parseFilters(pairs []string) (model.Filters, error) {
	filters := model.Filters{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q, want name=value", pair)
		}
		filters[name] = value
	}
	return filters, nil
}

func parseRunState(s string) (model.RunState, error) {
	switch state := model.RunState(strings.ToUpper(s)); state {
	case model.RunStateUnknown, model.RunStateRunning, model.RunStateNotRunning:
		return state, nil
	}
	return "", fmt.Errorf("invalid run state %q, want UNKNOWN, RUNNING or NOT_RUNNING", s)
}
