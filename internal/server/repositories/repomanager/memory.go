package repomanager

import (
	"context"

	"github.com/clinicdesk/identity/internal/server/repositories/users"
)

// MemoryRepositoryManager serves a single in-process store. It has no
// transactions; WithinTx runs fn directly against the store.
type MemoryRepositoryManager struct {
	repo *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.repo
}

func (m *MemoryRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	return fn(ctx, m.repo)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
