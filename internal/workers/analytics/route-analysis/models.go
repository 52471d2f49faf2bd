// internal/workers/analytics/route-analysis/models.go
package routeanalysis

import (
	"load-analytics-engine/internal/engine/economics"
	"load-analytics-engine/internal/engine/routes"
)

type Input struct {
	Loads          []economics.Load      `json:"loads"`
	DispatcherFees economics.FeeSchedule `json:"dispatcherFees,omitempty"`
	DriverPayPlans economics.PayPlans    `json:"driverPayPlans,omitempty"`

	Pickup      string `json:"pickup,omitempty"`
	Destination string `json:"destination,omitempty"`
	SortBy      string `json:"sortBy,omitempty"`
}

type Output struct {
	AnalysisID    string                 `json:"analysisId"`
	Routes        []routes.RouteAnalysis `json:"routes"`
	ScatterPoints []routes.ScatterPoint  `json:"scatterPoints"`
	RouteCount    int                    `json:"routeCount"`
}
