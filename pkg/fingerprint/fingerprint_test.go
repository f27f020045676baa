package fingerprint

import (
	"errors"
	"testing"

	"dashboard-summarizer/internal/model"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name        string
		dashboardID string
		filters     model.Filters
		want        Fingerprint
	}{
		{
			name:        "empty filters",
			dashboardID: "D1",
			filters:     model.Filters{},
			want:        `D1:{}`,
		},
		{
			name:        "nil filters match empty",
			dashboardID: "D1",
			filters:     nil,
			want:        `D1:{}`,
		},
		{
			name:        "keys are sorted",
			dashboardID: "42",
			filters:     model.Filters{"region": "EU", "date": "7 days"},
			want:        `42:{"date":"7 days","region":"EU"}`,
		},
		{
			name:        "lookml dashboard id",
			dashboardID: "thelook::orders",
			filters:     model.Filters{"status": "complete"},
			want:        `thelook::orders:{"status":"complete"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.dashboardID, tt.filters)
			if err != nil {
				t.Fatalf("Build returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildIsOrderInsensitive(t *testing.T) {
	a := model.Filters{}
	b := model.Filters{}
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i, k := range keys {
		a[k] = k + "-value"
		b[keys[len(keys)-1-i]] = keys[len(keys)-1-i] + "-value"
	}

	for i := 0; i < 20; i++ {
		fa, _ := Build("D1", a)
		fb, _ := Build("D1", b)
		if fa != fb {
			t.Fatalf("fingerprints differ for identical filters: %q vs %q", fa, fb)
		}
	}
}

func TestBuildDistinguishesInputs(t *testing.T) {
	base, _ := Build("D1", model.Filters{"region": "EU"})

	variants := map[string]struct {
		id      string
		filters model.Filters
	}{
		"different value":     {"D1", model.Filters{"region": "US"}},
		"different key":       {"D1", model.Filters{"country": "EU"}},
		"extra filter":        {"D1", model.Filters{"region": "EU", "date": ""}},
		"different dashboard": {"D2", model.Filters{"region": "EU"}},
		"no filters":          {"D1", model.Filters{}},
	}

	for name, v := range variants {
		t.Run(name, func(t *testing.T) {
			got, _ := Build(v.id, v.filters)
			if got == base {
				t.Errorf("Build(%q, %v) collided with base %q", v.id, v.filters, base)
			}
		})
	}
}

func TestBuildWithoutDashboard(t *testing.T) {
	fp, err := Build("", model.Filters{"region": "EU"})
	if !errors.Is(err, ErrNoDashboard) {
		t.Errorf("Build(\"\") error = %v, want ErrNoDashboard", err)
	}
	if fp != "" {
		t.Errorf("Build(\"\") = %q, want empty", fp)
	}
}
