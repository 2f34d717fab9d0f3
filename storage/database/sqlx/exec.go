package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/storage/database"
)

// execer is the sqlx-flavored executor the repositories run against; both
// *database.DB and *database.Tx satisfy it.
type execer interface {
	core.DBExecutor

	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ execer = (*database.DB)(nil)
	_ execer = (*database.Tx)(nil)
)

type repoBase struct {
	exec execer
}

// getExec returns the service-provided transaction when one was passed,
// falling back to the repository's own handle.
func (repo repoBase) getExec(svcExec []core.DBExecutor) execer {
	if len(svcExec) > 0 {
		if e, ok := svcExec[0].(execer); ok {
			return e
		}
	}
	return repo.exec
}

// trapConflictErr maps serialization aborts to core.TxConflictError so the
// calling service can retry the whole transaction.
func trapConflictErr(err error, msg string) error {
	if database.IsSerializationErr(err) {
		return errors.Wrap(&core.TxConflictError{Err: err}, msg)
	}
	return errors.Wrap(err, msg)
}
