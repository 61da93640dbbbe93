package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clinicdesk/identity/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// MemoryDSN selects the in-process store.
const MemoryDSN = "memory"

// RepositoryManager vends the credential store and runs units of work
// against it.
type RepositoryManager interface {
	Users() users.Repository
	// WithinTx runs fn with a store bound to a single transaction when the
	// backend supports one. An error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error
	Close() error
}

// NewRepositoryManager opens the store named by dsn. Postgres DSNs are
// pinged and migrated before returning.
func NewRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == MemoryDSN {
		return NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return m, nil
}
