// internal/engine/access/gate.go

// Package access decides whether a user may reach the analytics features.
// The verdict is recomputed on every check from the signup timestamp and the
// subscription lookup; nothing is ever written back to the account record.
package access

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"load-analytics-engine/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Verdict is the access classification for a user.
type Verdict string

const (
	Denied             Verdict = "denied"
	TrialActive        Verdict = "trial_active"
	SubscriptionActive Verdict = "subscription_active"
	SuperuserBypass    Verdict = "superuser_bypass"
)

// Allowed reports whether the verdict grants access.
func (v Verdict) Allowed() bool {
	return v != Denied
}

// DefaultTrialDays is the free window granted from signup.
const DefaultTrialDays = 30

const roleSuperuser = "superuser"

// Account is the slice of a user record the gate needs.
type Account struct {
	UserID                string    `json:"userId"`
	Role                  string    `json:"role"`
	SignupDate            time.Time `json:"signupDate"`
	HasActiveSubscription bool      `json:"hasActiveSubscription"`
}

// Store looks up the account data backing a verdict.
type Store interface {
	FetchAccount(ctx context.Context, userID string) (*Account, error)
}

var ErrAccountNotFound = errors.New("account not found")

// SQLStore reads accounts and subscription state from Postgres.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) FetchAccount(ctx context.Context, userID string) (*Account, error) {
	acct := Account{UserID: userID}
	query := `SELECT u.role, u.created_at,
		EXISTS (SELECT 1 FROM subscriptions sub WHERE sub.user_id = u.id AND sub.status = 'active')
		FROM users u WHERE u.id = $1`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&acct.Role, &acct.SignupDate, &acct.HasActiveSubscription,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	return &acct, nil
}

// Classify evaluates the priority chain for one account. Superuser wins over
// everything, a live trial wins over the subscription lookup.
func Classify(acct Account, now time.Time, trialDays int) Verdict {
	if acct.Role == roleSuperuser {
		return SuperuserBypass
	}
	if now.Before(acct.SignupDate.AddDate(0, 0, trialDays)) {
		return TrialActive
	}
	if acct.HasActiveSubscription {
		return SubscriptionActive
	}
	return Denied
}

// Gate checks user access, caching verdicts briefly so dashboard navigation
// does not hammer the account tables.
type Gate struct {
	store     Store
	cache     *redis.Client
	trialDays int
	cacheTTL  time.Duration
	logger    logger.Logger
	now       func() time.Time
}

type GateOption func(*Gate)

// WithTrialDays overrides the default 30 day trial window.
func WithTrialDays(days int) GateOption {
	return func(g *Gate) { g.trialDays = days }
}

// WithVerdictCache enables Redis caching of verdicts for the given TTL.
func WithVerdictCache(cache *redis.Client, ttl time.Duration) GateOption {
	return func(g *Gate) {
		g.cache = cache
		g.cacheTTL = ttl
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

func NewGate(store Store, log logger.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		store:     store,
		trialDays: DefaultTrialDays,
		logger:    log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type cachedVerdict struct {
	Verdict Verdict `json:"verdict"`
}

// Check returns the verdict for a user. A storage failure denies access
// rather than letting an unknown account through; the error is returned
// alongside the denial so callers can tell an outage from a real denial.
func (g *Gate) Check(ctx context.Context, userID string) (Verdict, error) {
	cacheKey := "access:" + userID
	if g.cache != nil {
		if val, err := g.cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached cachedVerdict
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Verdict, nil
			}
		}
	}

	acct, err := g.store.FetchAccount(ctx, userID)
	if err != nil {
		g.logger.Error("access check failed, denying", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return Denied, fmt.Errorf("access check for %s: %w", userID, err)
	}

	verdict := Classify(*acct, g.now(), g.trialDays)

	if g.cache != nil {
		data, _ := json.Marshal(cachedVerdict{Verdict: verdict})
		if err := g.cache.Set(ctx, cacheKey, data, g.cacheTTL).Err(); err != nil {
			g.logger.Warn("failed to cache verdict", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
	}

	return verdict, nil
}
