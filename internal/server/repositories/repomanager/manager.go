// Package repomanager vends repository implementations for the configured
// storage backend and scopes them to transactions.
package repomanager

import (
	"context"
	"fmt"

	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/repositories/entitlements"
	"github.com/jengacalc/jengacalc/internal/server/repositories/payments"
	"github.com/jengacalc/jengacalc/internal/server/repositories/sessions"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Entitlements() entitlements.Repository
	Payments() payments.Repository
	Sessions() sessions.Repository
	// WithinTx runs fn with a manager whose repositories share one
	// transaction. The transaction commits when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// New opens the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite, config.BackendPostgres:
		return OpenSQL(ctx, cfg.StorageBackend, cfg.DatabaseDSN)
	case config.BackendMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
