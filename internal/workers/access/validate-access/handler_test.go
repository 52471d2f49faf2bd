// internal/workers/access/validate-access/handler_test.go
package validateaccess

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	commonerrors "load-analytics-engine/internal/common/errors"
	"load-analytics-engine/internal/common/logger"
	"load-analytics-engine/internal/engine/access"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubStore struct {
	acct *access.Account
	err  error
}

func (s *stubStore) FetchAccount(_ context.Context, _ string) (*access.Account, error) {
	return s.acct, s.err
}

func createTestHandler(t *testing.T, store access.Store) *Handler {
	log := logger.NewTestLogger(t)
	gate := access.NewGate(store, log, access.WithTrialDays(30))
	return NewHandlerWithGate(&Config{Timeout: 10 * time.Second, TrialDays: 30}, gate, log)
}

func accountAgedDays(days int, subscribed bool) *access.Account {
	return &access.Account{
		UserID:                "user-1",
		Role:                  "dispatcher",
		SignupDate:            time.Now().AddDate(0, 0, -days),
		HasActiveSubscription: subscribed,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Verdicts(t *testing.T) {
	tests := []struct {
		name        string
		store       access.Store
		wantVerdict string
		wantAllowed bool
	}{
		{
			name:        "29 day old account without subscription is in trial",
			store:       &stubStore{acct: accountAgedDays(29, false)},
			wantVerdict: "trial_active",
			wantAllowed: true,
		},
		{
			name:        "31 day old account without subscription is denied",
			store:       &stubStore{acct: accountAgedDays(31, false)},
			wantVerdict: "denied",
			wantAllowed: false,
		},
		{
			name:        "31 day old account with subscription is allowed",
			store:       &stubStore{acct: accountAgedDays(31, true)},
			wantVerdict: "subscription_active",
			wantAllowed: true,
		},
		{
			name: "superuser always allowed",
			store: &stubStore{acct: &access.Account{
				UserID:     "user-1",
				Role:       "superuser",
				SignupDate: time.Now().AddDate(-2, 0, 0),
			}},
			wantVerdict: "superuser_bypass",
			wantAllowed: true,
		},
		{
			name:        "store error denies",
			store:       &stubStore{err: context.DeadlineExceeded},
			wantVerdict: "denied",
			wantAllowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, tt.store)
			output, err := handler.Execute(context.Background(), &Input{UserID: "user-1"})

			require.NoError(t, err)
			assert.Equal(t, "user-1", output.UserID)
			assert.Equal(t, tt.wantVerdict, output.Verdict)
			assert.Equal(t, tt.wantAllowed, output.Allowed)
		})
	}
}

func TestHandler_Execute_MissingUserID(t *testing.T) {
	handler := createTestHandler(t, &stubStore{})

	_, err := handler.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMissingUserID)
}

// ==========================
// SQL Wiring Tests
// ==========================

func TestHandler_Execute_AgainstSQLStore(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"role", "created_at", "exists"}).
		AddRow("owner", time.Now().AddDate(0, 0, -45), true)
	mock.ExpectQuery("SELECT u.role, u.created_at").
		WithArgs("user-7").
		WillReturnRows(rows)

	handler := NewHandler(
		&Config{Timeout: 10 * time.Second, TrialDays: 30},
		db, nil, logger.NewTestLogger(t),
	)

	output, err := handler.Execute(context.Background(), &Input{UserID: "user-7"})
	require.NoError(t, err)
	assert.Equal(t, "subscription_active", output.Verdict)
	assert.True(t, output.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Mapping Tests
// ==========================

func TestConvertToStandardError(t *testing.T) {
	t.Run("missing user id is a validation error with no retries", func(t *testing.T) {
		stdErr := convertToStandardError(fmt.Errorf("%w: userId is required", ErrMissingUserID))
		assert.Equal(t, commonerrors.ErrCodeInputValidationError, stdErr.Code)
		assert.False(t, stdErr.Retryable)

		bpmnErr := commonerrors.ConvertToBPMNError(stdErr)
		assert.Equal(t, "INPUT_VALIDATION_FAILED", bpmnErr.Code)
		assert.Equal(t, 0, bpmnErr.Retries)
	})

	t.Run("access check failures keep their retry budget", func(t *testing.T) {
		in := commonerrors.NewAccessCheckFailedError(errors.New("connection refused"))
		assert.Same(t, in, convertToStandardError(in))

		bpmnErr := commonerrors.ConvertToBPMNError(in)
		assert.Equal(t, "ACCESS_CHECK_FAILED", bpmnErr.Code)
		assert.Equal(t, 3, bpmnErr.Retries)
	})

	t.Run("unexpected errors stay retryable", func(t *testing.T) {
		stdErr := convertToStandardError(errors.New("boom"))
		assert.True(t, stdErr.Retryable)
	})
}
