// internal/workers/analytics/fleet-summary/models.go
package fleetsummary

import (
	"load-analytics-engine/internal/engine/economics"
	"load-analytics-engine/internal/engine/fleet"
)

// FilterInput mirrors fleet.Filter with wire-friendly date strings (2006-01-02).
type FilterInput struct {
	Search   string `json:"search,omitempty"`
	DriverID string `json:"driverId,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

type SortInput struct {
	Key  string `json:"key,omitempty"`
	Desc *bool  `json:"desc,omitempty"`
}

type Input struct {
	Loads          []economics.Load      `json:"loads"`
	DispatcherFees economics.FeeSchedule `json:"dispatcherFees,omitempty"`
	DriverPayPlans economics.PayPlans    `json:"driverPayPlans,omitempty"`

	Filter FilterInput `json:"filter,omitempty"`
	Sort   SortInput   `json:"sort,omitempty"`
	Page   int         `json:"page,omitempty"`
	Size   int         `json:"size,omitempty"`

	// ViewerRole selects the revenue grouping dimension: "dispatcher" buckets
	// by driver, anything else by dispatcher name.
	ViewerRole string `json:"viewerRole,omitempty"`
}

type Output struct {
	Loads         []economics.CalculatedLoad `json:"loads"`
	FilteredCount int                        `json:"filteredCount"`
	PageCount     int                        `json:"pageCount"`
	Page          int                        `json:"page"`

	RevenueGroups []fleet.RevenueGroup `json:"revenueGroups"`
}
