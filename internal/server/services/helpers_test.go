package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jengacalc/jengacalc/internal/dbx"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/repositories/entitlements"
	"github.com/jengacalc/jengacalc/internal/server/repositories/payments"
	"github.com/jengacalc/jengacalc/internal/server/repositories/repomanager"
	"github.com/jengacalc/jengacalc/internal/server/repositories/repotest"
	"github.com/jengacalc/jengacalc/internal/server/repositories/sessions"
)

var errBoom = errors.New("boom")

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BaseURL = "https://calc.example.co.ke/"
	return cfg
}

// testClock is a settable clock, truncated to seconds so values survive
// the unix-seconds round trip through storage.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Now().UTC().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newManager(t *testing.T) repomanager.RepositoryManager {
	t.Helper()
	return repomanager.NewSQLRepositoryManager(repotest.NewSQLite(t), dbx.SQLite)
}

// brokenManager fails every storage call.
type brokenManager struct{}

func (brokenManager) RunMigrations(context.Context) error   { return errBoom }
func (brokenManager) Entitlements() entitlements.Repository { return brokenEntitlements{} }
func (brokenManager) Payments() payments.Repository         { return brokenPayments{} }
func (brokenManager) Sessions() sessions.Repository         { return brokenSessions{} }
func (brokenManager) Ping(context.Context) error            { return errBoom }
func (brokenManager) Close(context.Context) error           { return nil }
func (b brokenManager) WithinTx(ctx context.Context, fn func(context.Context, repomanager.RepositoryManager) error) error {
	return fn(ctx, b)
}

type brokenEntitlements struct{}

func (brokenEntitlements) FindOrCreate(context.Context, string) (*models.Entitlement, error) {
	return nil, errBoom
}
func (brokenEntitlements) Get(context.Context, string) (*models.Entitlement, error) {
	return nil, errBoom
}
func (brokenEntitlements) ConsumeFreeCalculation(context.Context, string, int64) (*models.Entitlement, bool, error) {
	return nil, false, errBoom
}
func (brokenEntitlements) ActivateSubscription(context.Context, string, time.Time) (*models.Entitlement, error) {
	return nil, errBoom
}
func (brokenEntitlements) AddTokens(context.Context, string, int64) (*models.Entitlement, error) {
	return nil, errBoom
}
func (brokenEntitlements) ResetUsage(context.Context, string) (*models.Entitlement, error) {
	return nil, errBoom
}

type brokenPayments struct{}

func (brokenPayments) Record(context.Context, *models.Payment) (bool, error) { return false, errBoom }
func (brokenPayments) ListByEmail(context.Context, string) ([]*models.Payment, error) {
	return nil, errBoom
}

type brokenSessions struct{}

func (brokenSessions) Create(context.Context, *models.Session) error { return errBoom }
func (brokenSessions) Find(context.Context, string) (*models.Session, error) {
	return nil, errBoom
}
func (brokenSessions) Delete(context.Context, string) error { return errBoom }
func (brokenSessions) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errBoom
}
