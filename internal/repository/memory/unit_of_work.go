package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ai-docview-be/internal/entity"
	"ai-docview-be/internal/repository/contract"
	"ai-docview-be/internal/repository/unitofwork"
)

// UnitOfWork stages the writes made inside a transaction and applies them
// together on Commit, so other units of work never observe half of one.
// Reads inside a transaction see committed rows only. Outside a transaction
// every write is applied immediately.
type UnitOfWork struct {
	store *Store

	mu      sync.Mutex
	inTx    bool
	pending []func()
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.inTx = true
	u.pending = nil
	return nil
}

func (u *UnitOfWork) Commit() error {
	u.mu.Lock()
	if !u.inTx {
		u.mu.Unlock()
		return fmt.Errorf("no transaction to commit")
	}
	steps := u.pending
	u.inTx = false
	u.pending = nil
	u.mu.Unlock()

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for _, step := range steps {
		step()
	}
	return nil
}

func (u *UnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.inTx = false
	u.pending = nil
	return nil
}

// apply runs step under the store lock, or stages it until Commit.
func (u *UnitOfWork) apply(step func()) {
	u.mu.Lock()
	if u.inTx {
		u.pending = append(u.pending, step)
		u.mu.Unlock()
		return
	}
	u.mu.Unlock()

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	step()
}

func (u *UnitOfWork) DocumentProfileRepository() contract.DocumentProfileRepository {
	return &DocumentProfileRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) IntermediateResultRepository() contract.IntermediateResultRepository {
	return &IntermediateResultRepository{store: u.store, uow: u}
}

func (u *UnitOfWork) ViewResultRepository() contract.ViewResultRepository {
	return &ViewResultRepository{store: u.store, uow: u}
}

func sortByCreated(rows []*entity.ViewResult) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].View < rows[j].View
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
}
