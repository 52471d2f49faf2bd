// internal/workers/analytics/calculate-load-economics/models.go
package calculateloadeconomics

import "load-analytics-engine/internal/engine/economics"

type Input struct {
	Loads          []economics.Load      `json:"loads"`
	DispatcherFees economics.FeeSchedule `json:"dispatcherFees,omitempty"`
	DriverPayPlans economics.PayPlans    `json:"driverPayPlans,omitempty"`
	// DriverNames maps driver id to display name for annotation only.
	DriverNames map[string]string `json:"driverNames,omitempty"`
}

// Totals sums the annotated set for dashboard headline figures.
type Totals struct {
	Gross       float64 `json:"gross"`
	DispatchFee float64 `json:"dispatchFee"`
	DriverPay   float64 `json:"driverPay"`
	NetProfit   float64 `json:"netProfit"`
}

// Output carries the annotated loads back into the workflow.
type Output struct {
	CalculatedLoads []economics.CalculatedLoad `json:"calculatedLoads"`
	Totals          Totals                     `json:"totals"`
	ConfigIssues    []economics.ConfigIssue    `json:"configIssues,omitempty"`
}
