// internal/workers/analytics/calculate-load-economics/handler_test.go
package calculateloadeconomics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	commonerrors "load-analytics-engine/internal/common/errors"
	"load-analytics-engine/internal/common/logger"
	"load-analytics-engine/internal/engine/economics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(&Config{Timeout: 10 * time.Second}, logger.NewTestLogger(t))
}

func sampleLoad() economics.Load {
	return economics.Load{
		ID:          "load-1",
		Broker:      "Acme Logistics",
		Gross:       1000,
		Miles:       500,
		GasAmount:   100,
		DropDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Dispatcher:  "A",
		DriverID:    "d1",
		Origin:      "Dallas, TX",
		Destination: "Atlanta, GA",
		Status:      economics.StatusFactored,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_PercentageOfNet(t *testing.T) {
	handler := createTestHandler(t)

	input := &Input{
		Loads:          []economics.Load{sampleLoad()},
		DispatcherFees: economics.FeeSchedule{"A": 12},
		DriverPayPlans: economics.PayPlans{
			"d1": {Type: economics.PayPercentageOfNet, Percentage: 50},
		},
		DriverNames: map[string]string{"d1": "Bob"},
	}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, output.CalculatedLoads, 1)

	got := output.CalculatedLoads[0]
	assert.Equal(t, 120.0, got.DispatchFee)
	assert.Equal(t, 390.0, got.DriverPay)
	assert.Equal(t, 440.0, got.NetProfit)
	assert.Equal(t, "Bob", got.DriverName)

	assert.Equal(t, 1000.0, output.Totals.Gross)
	assert.Equal(t, 120.0, output.Totals.DispatchFee)
	assert.Equal(t, 390.0, output.Totals.DriverPay)
	assert.Equal(t, 440.0, output.Totals.NetProfit)
}

func TestHandler_Execute_PercentageOfGross(t *testing.T) {
	handler := createTestHandler(t)

	input := &Input{
		Loads:          []economics.Load{sampleLoad()},
		DispatcherFees: economics.FeeSchedule{"A": 12},
		DriverPayPlans: economics.PayPlans{
			"d1": {Type: economics.PayPercentageOfGross, Percentage: 50},
		},
	}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, output.CalculatedLoads, 1)

	got := output.CalculatedLoads[0]
	assert.Equal(t, 120.0, got.DispatchFee)
	assert.Equal(t, 500.0, got.DriverPay)
	assert.Equal(t, 280.0, got.NetProfit)
	assert.Empty(t, got.DriverName)
}

func TestHandler_Execute_DefaultsWhenConfigMissing(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Loads: []economics.Load{sampleLoad()},
	})
	require.NoError(t, err)
	require.Len(t, output.CalculatedLoads, 1)

	// 12% fee and 50% percentage_of_net defaults.
	got := output.CalculatedLoads[0]
	assert.Equal(t, 120.0, got.DispatchFee)
	assert.Equal(t, 390.0, got.DriverPay)
	assert.Equal(t, 440.0, got.NetProfit)
}

func TestHandler_Execute_ReportsConfigIssues(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Loads:          []economics.Load{sampleLoad()},
		DispatcherFees: economics.FeeSchedule{"A": 150},
	})
	require.NoError(t, err)
	require.Len(t, output.ConfigIssues, 1)
	assert.Equal(t, "A", output.ConfigIssues[0].Subject)

	// Calculation still proceeds with the value as given.
	assert.Equal(t, 1500.0, output.CalculatedLoads[0].DispatchFee)
}

func TestHandler_Execute_EmptyLoadSet(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Loads: []economics.Load{},
	})
	require.NoError(t, err)
	assert.Empty(t, output.CalculatedLoads)
	assert.Equal(t, Totals{}, output.Totals)
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_MissingLoadsRejected(t *testing.T) {
	handler := createTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrInvalidLoadSet)
}

func TestHandler_Execute_LoadWithoutIDRejected(t *testing.T) {
	handler := createTestHandler(t)

	bad := sampleLoad()
	bad.ID = ""
	_, err := handler.Execute(context.Background(), &Input{
		Loads: []economics.Load{bad},
	})
	assert.ErrorIs(t, err, ErrInvalidLoadSet)
}

func TestHandler_Execute_NegativeMilesRejected(t *testing.T) {
	handler := createTestHandler(t)

	bad := sampleLoad()
	bad.Miles = -10
	_, err := handler.Execute(context.Background(), &Input{
		Loads: []economics.Load{bad},
	})
	assert.ErrorIs(t, err, ErrInvalidLoadSet)
}

// ==========================
// Error Mapping Tests
// ==========================

func TestConvertToStandardError(t *testing.T) {
	t.Run("invalid load set is a business error with no retries", func(t *testing.T) {
		stdErr := convertToStandardError(fmt.Errorf("%w: loads[0].id is required", ErrInvalidLoadSet))
		assert.Equal(t, commonerrors.ErrCodeInvalidLoadSet, stdErr.Code)
		assert.False(t, stdErr.Retryable)

		bpmnErr := commonerrors.ConvertToBPMNError(stdErr)
		assert.Equal(t, "INVALID_LOAD_SET", bpmnErr.Code)
		assert.Equal(t, 0, bpmnErr.Retries)
	})

	t.Run("standard errors pass through untouched", func(t *testing.T) {
		in := commonerrors.NewQueryTimeoutError("loads")
		assert.Same(t, in, convertToStandardError(in))
	})

	t.Run("unexpected errors stay retryable", func(t *testing.T) {
		stdErr := convertToStandardError(errors.New("boom"))
		assert.True(t, stdErr.Retryable)
		assert.Equal(t, "boom", stdErr.Details)
	})
}
