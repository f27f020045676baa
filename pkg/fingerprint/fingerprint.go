// Package fingerprint derives the cache key for a dashboard's metadata.
package fingerprint

import (
	"encoding/json"
	"errors"
	"fmt"

	"dashboard-summarizer/internal/model"
)

// ErrNoDashboard is returned when there is no dashboard to fingerprint.
// Callers skip caching entirely in that case.
var ErrNoDashboard = errors.New("fingerprint: dashboard id is empty")

// Fingerprint is an opaque cache key.
type Fingerprint string

func (f Fingerprint) String() string {
	return string(f)
}

// Build returns "<dashboardID>:<filters as JSON>". encoding/json sorts map keys,
// so the key does not depend on filter iteration order. Nil and empty filter
// sets both serialize as "{}".
func Build(dashboardID string, filters model.Filters) (Fingerprint, error) {
	if dashboardID == "" {
		return "", ErrNoDashboard
	}
	if filters == nil {
		filters = model.Filters{}
	}

	serialized, err := json.Marshal(filters)
	if err != nil {
		return "", fmt.Errorf("fingerprint: serialize filters: %w", err)
	}

	return Fingerprint(dashboardID + ":" + string(serialized)), nil
}
