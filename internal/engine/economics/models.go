// internal/engine/economics/models.go
package economics

import "time"

// LoadStatus reflects whether a load's invoice has been factored yet.
type LoadStatus string

const (
	StatusFactored       LoadStatus = "Factored"
	StatusNotYetFactored LoadStatus = "NotYetFactored"
)

// PayType selects which of the two driver pay models applies.
type PayType string

const (
	PayPercentageOfGross PayType = "percentage_of_gross"
	PayPercentageOfNet   PayType = "percentage_of_net"
)

const (
	// DefaultFeePercent applies when a dispatcher has no configured fee.
	DefaultFeePercent = 12.0
	// DefaultPayPercent applies when a driver has no configured pay plan.
	DefaultPayPercent = 50.0
)

// Load is one transported shipment record as handed over by load storage.
// The engine never mutates or persists it.
type Load struct {
	ID         string     `json:"id"`
	Broker     string     `json:"broker"`
	Gross      float64    `json:"gross"`
	Miles      float64    `json:"miles"`
	GasAmount  float64    `json:"gasAmount"`
	DropDate   time.Time  `json:"dropDate"`
	Dispatcher string     `json:"dispatcher"`
	DriverID   string     `json:"driverId,omitempty"`
	Origin     string     `json:"origin"`
	Destination string    `json:"destination"`
	Status     LoadStatus `json:"status"`
}

// FeeSchedule maps dispatcher name to fee percentage. Names are the only
// correlation available here; two dispatchers sharing a name collapse into one
// entry (see ValidateConfig).
type FeeSchedule map[string]float64

// PayPlan describes how a single driver is paid.
type PayPlan struct {
	Type       PayType `json:"payType"`
	Percentage float64 `json:"payPercentage"`
}

// PayPlans maps driver id to pay plan.
type PayPlans map[string]PayPlan

// CalculatedLoad is a Load annotated with its derived financials. Recomputed on
// every request; never stored.
type CalculatedLoad struct {
	Load
	DispatchFee float64 `json:"dispatchFee"`
	DriverPay   float64 `json:"driverPay"`
	NetProfit   float64 `json:"netProfit"`
	DriverName  string  `json:"driverName,omitempty"`
}
