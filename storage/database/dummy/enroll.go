package dummydb

import (
	"context"
	"time"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/enroll"
)

type enrollRepository struct {
	db *DB
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *DB) enroll.Repository {
	return &enrollRepository{db: db}
}

func (repo *enrollRepository) GetPendingPurchase(ctx context.Context, email string, exec ...core.DBExecutor) (enroll.PendingPurchase, error) {
	lk := repo.db.rlock(exec)
	lk.Lock()
	defer lk.Unlock()

	if pp, ok := repo.db.pending[email]; ok {
		cp := *pp
		cp.Modules = append(enroll.ModuleList(nil), pp.Modules...)
		return cp, nil
	}
	return enroll.PendingPurchase{}, enroll.ErrNoPending
}

func (repo *enrollRepository) AddPendingModules(ctx context.Context, email string, moduleIDs []string, exec ...core.DBExecutor) error {
	lk := repo.db.lock(exec)
	lk.Lock()
	defer lk.Unlock()

	now := time.Now().UTC()
	pp, ok := repo.db.pending[email]
	if !ok {
		pp = &enroll.PendingPurchase{Email: email, CreatedAt: now}
		repo.db.pending[email] = pp
	}
	for _, id := range moduleIDs {
		pp.Modules = pp.Modules.Add(id)
	}
	pp.UpdatedAt = now
	return nil
}

func (repo *enrollRepository) DeletePendingPurchase(ctx context.Context, email string, exec ...core.DBExecutor) error {
	lk := repo.db.lock(exec)
	lk.Lock()
	defer lk.Unlock()

	delete(repo.db.pending, email)
	return nil
}
