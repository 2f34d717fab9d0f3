package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/enroll"
	"github.com/kusoma/backend/storage/database"
)

type enrollRepository struct {
	repoBase
	db *database.DB
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *database.DB) *enrollRepository {
	return &enrollRepository{repoBase{exec: db}, db}
}

type dbPendingPurchase struct {
	Email     string         `db:"email"`
	Modules   types.JSONText `db:"modules"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (repo enrollRepository) unpack(p dbPendingPurchase) (enroll.PendingPurchase, error) {
	pp := enroll.PendingPurchase{
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if len(p.Modules) > 0 {
		if err := json.Unmarshal(p.Modules, &pp.Modules); err != nil {
			return enroll.PendingPurchase{}, errors.Wrap(err, "unmarshalling pending modules")
		}
	}
	return pp, nil
}

func (repo enrollRepository) GetPendingPurchase(ctx context.Context, email string, exec ...core.DBExecutor) (enroll.PendingPurchase, error) {
	var p dbPendingPurchase
	q := `SELECT * FROM pending_purchase WHERE email = $1`
	if err := repo.getExec(exec).GetContext(ctx, &p, q, email); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return enroll.PendingPurchase{}, enroll.ErrNoPending
		}
		return enroll.PendingPurchase{}, errors.Wrap(err, "finding pending purchase")
	}
	return repo.unpack(p)
}

func (repo enrollRepository) AddPendingModules(ctx context.Context, email string, moduleIDs []string, exec ...core.DBExecutor) error {
	if len(exec) > 0 {
		return repo.addPendingModules(ctx, email, moduleIDs, exec[0])
	}

	// no caller transaction; run our own so the read-merge-write is atomic
	// under concurrent webhook deliveries for the same email
	maxAttempts := core.Conf.Database.TxMaxAttempts
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = repo.addPendingModulesTx(ctx, email, moduleIDs)
		if err == nil || !core.IsTxConflict(err) {
			return err
		}
	}
	return errors.Wrapf(err, "adding pending modules: retries exhausted after %d attempts", maxAttempts)
}

func (repo enrollRepository) addPendingModulesTx(ctx context.Context, email string, moduleIDs []string) error {
	tx, err := repo.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if err = repo.addPendingModules(ctx, email, moduleIDs, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (repo enrollRepository) addPendingModules(ctx context.Context, email string, moduleIDs []string, exec core.DBExecutor) error {
	existing, err := repo.GetPendingPurchase(ctx, email, exec)
	if err != nil && errors.Cause(err) != enroll.ErrNoPending {
		return err
	}
	created := errors.Cause(err) == enroll.ErrNoPending

	modules := existing.Modules
	for _, id := range moduleIDs {
		modules = modules.Add(id)
	}
	data, err := json.Marshal(modules.Normalize())
	if err != nil {
		return errors.Wrap(err, "marshalling pending modules")
	}

	now := time.Now().UTC()
	e := repo.getExec([]core.DBExecutor{exec})
	if created {
		q := `INSERT INTO pending_purchase (email, modules, created_at, updated_at) VALUES ($1, $2, $3, $4)`
		_, err = e.ExecContext(ctx, q, email, types.JSONText(data), now, now)
	} else {
		q := `UPDATE pending_purchase SET modules = $2, updated_at = $3 WHERE email = $1`
		_, err = e.ExecContext(ctx, q, email, types.JSONText(data), now)
	}
	if err != nil {
		return trapConflictErr(err, "storing pending purchase")
	}
	return nil
}

func (repo enrollRepository) DeletePendingPurchase(ctx context.Context, email string, exec ...core.DBExecutor) error {
	q := `DELETE FROM pending_purchase WHERE email = $1`
	if _, err := repo.getExec(exec).ExecContext(ctx, q, email); err != nil {
		return trapConflictErr(err, "deleting pending purchase")
	}
	return nil
}
