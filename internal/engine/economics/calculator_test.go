// internal/engine/economics/calculator_test.go
package economics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoad(gross, gas float64) Load {
	return Load{
		ID:          "load-1",
		Broker:      "Acme Logistics",
		Gross:       gross,
		Miles:       500,
		GasAmount:   gas,
		DropDate:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Dispatcher:  "A",
		DriverID:    "d1",
		Origin:      "Dallas, TX",
		Destination: "Atlanta, GA",
		Status:      StatusFactored,
	}
}

func TestCalculator_PercentageOfNet(t *testing.T) {
	calc := NewCalculator(
		FeeSchedule{"A": 12},
		PayPlans{"d1": {Type: PayPercentageOfNet, Percentage: 50}},
	)

	got := calc.Calculate(testLoad(1000, 100))

	assert.Equal(t, 120.0, got.DispatchFee)
	// (1000 - 120) * 0.5 - 50
	assert.Equal(t, 390.0, got.DriverPay)
	assert.Equal(t, 440.0, got.NetProfit)
}

func TestCalculator_PercentageOfGross(t *testing.T) {
	calc := NewCalculator(
		FeeSchedule{"A": 12},
		PayPlans{"d1": {Type: PayPercentageOfGross, Percentage: 50}},
	)

	got := calc.Calculate(testLoad(1000, 100))

	assert.Equal(t, 120.0, got.DispatchFee)
	// Pay off gross, independent of the dispatch fee.
	assert.Equal(t, 500.0, got.DriverPay)
	// Company carries all fuel: 1000 - 120 - 500 - 100
	assert.Equal(t, 280.0, got.NetProfit)
}

func TestCalculator_Defaults(t *testing.T) {
	t.Run("missing fee falls back to 12 percent", func(t *testing.T) {
		calc := NewCalculator(nil, PayPlans{"d1": {Type: PayPercentageOfNet, Percentage: 50}})
		got := calc.Calculate(testLoad(1000, 0))
		assert.Equal(t, 120.0, got.DispatchFee)
	})

	t.Run("missing pay plan falls back to 50 percent of net", func(t *testing.T) {
		calc := NewCalculator(FeeSchedule{"A": 10}, nil)
		got := calc.Calculate(testLoad(1000, 100))
		assert.Equal(t, 100.0, got.DispatchFee)
		assert.Equal(t, (1000-100.0)*0.5-50, got.DriverPay)
	})

	t.Run("unknown driver id uses default plan", func(t *testing.T) {
		calc := NewCalculator(FeeSchedule{"A": 12}, PayPlans{"other": {Type: PayPercentageOfGross, Percentage: 70}})
		got := calc.Calculate(testLoad(1000, 100))
		assert.Equal(t, 390.0, got.DriverPay)
	})
}

func TestCalculator_NetProfitIdentity(t *testing.T) {
	// netProfit = gross - dispatchFee - driverPay - companyGasShare must hold
	// exactly for both branches.
	cases := []struct {
		name    string
		payType PayType
		gross   float64
		gas     float64
		feePct  float64
		payPct  float64
	}{
		{"net model typical", PayPercentageOfNet, 2400, 310, 10, 65},
		{"gross model typical", PayPercentageOfGross, 2400, 310, 10, 65},
		{"net model zero gas", PayPercentageOfNet, 1750, 0, 12, 50},
		{"gross model zero gas", PayPercentageOfGross, 1750, 0, 12, 50},
		{"net model gas exceeds pay", PayPercentageOfNet, 200, 800, 12, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calc := NewCalculator(
				FeeSchedule{"A": tc.feePct},
				PayPlans{"d1": {Type: tc.payType, Percentage: tc.payPct}},
			)
			got := calc.Calculate(testLoad(tc.gross, tc.gas))

			companyGasShare := tc.gas
			if tc.payType == PayPercentageOfNet {
				companyGasShare = tc.gas * 0.5
			}
			assert.InDelta(t, tc.gross-got.DispatchFee-got.DriverPay-companyGasShare, got.NetProfit, 1e-9)
		})
	}
}

func TestCalculator_NegativeDriverPayAllowed(t *testing.T) {
	calc := NewCalculator(
		FeeSchedule{"A": 12},
		PayPlans{"d1": {Type: PayPercentageOfNet, Percentage: 50}},
	)

	got := calc.Calculate(testLoad(200, 800))

	// (200 - 24) * 0.5 - 400 = -312: accepted, not clamped.
	assert.Equal(t, -312.0, got.DriverPay)
}

func TestCalculator_ZeroGasDegeneratesBranches(t *testing.T) {
	net := NewCalculator(FeeSchedule{"A": 0}, PayPlans{"d1": {Type: PayPercentageOfNet, Percentage: 50}})
	gross := NewCalculator(FeeSchedule{"A": 0}, PayPlans{"d1": {Type: PayPercentageOfGross, Percentage: 50}})

	a := net.Calculate(testLoad(1000, 0))
	b := gross.Calculate(testLoad(1000, 0))

	assert.Equal(t, a.DriverPay, b.DriverPay)
	assert.Equal(t, a.NetProfit, b.NetProfit)
}

func TestCalculateAll_PreservesOrder(t *testing.T) {
	calc := NewCalculator(nil, nil)
	loads := []Load{testLoad(100, 0), testLoad(200, 0), testLoad(300, 0)}
	loads[0].ID, loads[1].ID, loads[2].ID = "a", "b", "c"

	got := calc.CalculateAll(loads)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestValidateConfig(t *testing.T) {
	issues := ValidateConfig(
		FeeSchedule{"ok": 12, "hot": 150, "neg": -5},
		PayPlans{
			"d1": {Type: PayPercentageOfNet, Percentage: 50},
			"d2": {Type: PayPercentageOfGross, Percentage: 130},
			"d3": {Type: PayType("flat_rate"), Percentage: 40},
		},
	)

	subjects := map[string]bool{}
	for _, is := range issues {
		subjects[is.Subject] = true
	}
	assert.True(t, subjects["hot"])
	assert.True(t, subjects["neg"])
	assert.True(t, subjects["d2"])
	assert.True(t, subjects["d3"])
	assert.False(t, subjects["ok"])
	assert.False(t, subjects["d1"])
}
