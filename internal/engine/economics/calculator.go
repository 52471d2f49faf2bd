// internal/engine/economics/calculator.go
package economics

import "fmt"

// Calculator derives dispatch fee, driver pay and net profit for loads. It is
// pure: the same load and configs always produce the same numbers, so both the
// fleet view and the route view share this one implementation.
type Calculator struct {
	fees  FeeSchedule
	plans PayPlans
}

func NewCalculator(fees FeeSchedule, plans PayPlans) *Calculator {
	if fees == nil {
		fees = FeeSchedule{}
	}
	if plans == nil {
		plans = PayPlans{}
	}
	return &Calculator{fees: fees, plans: plans}
}

// Calculate annotates one load.
//
// The two pay models are structurally different and the order of subtraction
// matters: percentage_of_net pay is computed AFTER the dispatch fee comes off
// the gross, percentage_of_gross pay is not. Fuel cost is carried entirely by
// the company under percentage_of_gross and split 50/50 under percentage_of_net.
func (c *Calculator) Calculate(load Load) CalculatedLoad {
	feePct, ok := c.fees[load.Dispatcher]
	if !ok {
		feePct = DefaultFeePercent
	}
	dispatchFee := load.Gross * feePct / 100

	plan, ok := c.plans[load.DriverID]
	if !ok {
		plan = PayPlan{Type: PayPercentageOfNet, Percentage: DefaultPayPercent}
	}

	var driverPay, companyGasShare float64
	switch plan.Type {
	case PayPercentageOfGross:
		companyGasShare = load.GasAmount
		driverPay = load.Gross * plan.Percentage / 100
	default:
		// percentage_of_net, also the fallback for unknown pay types
		driverGasShare := load.GasAmount * 0.5
		companyGasShare = load.GasAmount * 0.5
		driverPay = (load.Gross-dispatchFee)*plan.Percentage/100 - driverGasShare
	}

	// Negative driver pay is allowed: a gas bill can exceed the pay share.
	netProfit := load.Gross - dispatchFee - driverPay - companyGasShare

	return CalculatedLoad{
		Load:        load,
		DispatchFee: dispatchFee,
		DriverPay:   driverPay,
		NetProfit:   netProfit,
	}
}

// CalculateAll annotates a batch, preserving input order.
func (c *Calculator) CalculateAll(loads []Load) []CalculatedLoad {
	out := make([]CalculatedLoad, 0, len(loads))
	for _, l := range loads {
		out = append(out, c.Calculate(l))
	}
	return out
}

// ConfigIssue reports a data-quality problem in fee or pay configuration.
// Issues are advisory: calculation proceeds with the values as given.
type ConfigIssue struct {
	Subject string `json:"subject"`
	Problem string `json:"problem"`
}

// ValidateConfig flags out-of-range percentages. Percentages are intentionally
// not clamped during calculation, so a 150% fee really produces a fee above
// gross; this surfaces such configs to the hosting application instead.
func ValidateConfig(fees FeeSchedule, plans PayPlans) []ConfigIssue {
	var issues []ConfigIssue
	for name, pct := range fees {
		if pct < 0 || pct > 100 {
			issues = append(issues, ConfigIssue{
				Subject: name,
				Problem: fmt.Sprintf("fee percentage %.2f outside [0,100]", pct),
			})
		}
	}
	for driverID, plan := range plans {
		if plan.Percentage < 0 || plan.Percentage > 100 {
			issues = append(issues, ConfigIssue{
				Subject: driverID,
				Problem: fmt.Sprintf("pay percentage %.2f outside [0,100]", plan.Percentage),
			})
		}
		if plan.Type != PayPercentageOfGross && plan.Type != PayPercentageOfNet {
			issues = append(issues, ConfigIssue{
				Subject: driverID,
				Problem: fmt.Sprintf("unknown pay type %q", plan.Type),
			})
		}
	}
	return issues
}
