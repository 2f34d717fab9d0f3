package enroll

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/course"
	"github.com/kusoma/backend/core/user"
)

var (
	// errors
	ErrNoPending = errors.New("no pending purchase")
)

type (
	Repository interface {
		GetPendingPurchase(ctx context.Context, email string, exec ...core.DBExecutor) (PendingPurchase, error)
		// AddPendingModules merges the module IDs into the pending record's
		// module set, creating the record if absent. Idempotent under
		// webhook redelivery.
		AddPendingModules(ctx context.Context, email string, moduleIDs []string, exec ...core.DBExecutor) error
		// DeletePendingPurchase removes the record; absent records are a no-op.
		DeletePendingPurchase(ctx context.Context, email string, exec ...core.DBExecutor) error
	}

	Service interface {
		// Reconcile applies all pending purchases for the email to the
		// user's progress document and clears the pending record, in one
		// atomic transaction. Re-running after a successful application is
		// a no-op with Applied=false.
		Reconcile(ctx context.Context, userID, email string) (Result, error)
		// ProcessPaidOrder handles a verified paid order notification.
		ProcessPaidOrder(ctx context.Context, email, productID string) (OrderOutcome, error)
		// GrantModules records a manual module grant (comp, support) and
		// applies it immediately when a matching account exists.
		GrantModules(ctx context.Context, email string, moduleIDs ...string) (OrderOutcome, error)
	}

	service struct {
		db         core.DB
		repo       Repository
		usrRepo    user.Repository
		courseRepo course.Repository
		catalog    *course.Catalog
		logger     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	usrRepo user.Repository,
	courseRepo course.Repository,
	catalog *course.Catalog,
	logger core.Logger,
) Service {
	return &service{
		db:         db,
		repo:       repo,
		usrRepo:    usrRepo,
		courseRepo: courseRepo,
		catalog:    catalog,
		logger:     logger,
	}
}

func (svc *service) Reconcile(ctx context.Context, userID, email string) (Result, error) {
	canonical := NormalizeEmail(email)
	cleaned := core.CleanString(email, true /* lower */)

	attempts := core.Conf.Database.TxMaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var res Result
	var err error
	for i := 1; i <= attempts; i++ {
		res, err = svc.reconcileOnce(ctx, userID, canonical, cleaned)
		if err == nil || !core.IsTxConflict(err) {
			return res, err
		}
		svc.logger.Warn(fmt.Sprintf("reconcile(%s): conflicting transaction, attempt %d/%d", canonical, i, attempts))
	}
	return Result{}, errors.Wrapf(err, "reconciling %s: retries exhausted", canonical)
}

// reconcileOnce runs one attempt of the read-modify-write transaction. The
// snapshot read, the unlock writes and the pending-record deletion commit
// atomically or not at all.
func (svc *service) reconcileOnce(ctx context.Context, userID, canonical, cleaned string) (Result, error) {
	tx, err := svc.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return Result{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	pending, err := svc.repo.GetPendingPurchase(ctx, canonical, tx)
	if err != nil {
		if errors.Cause(err) == ErrNoPending {
			return Result{}, nil
		}
		return Result{}, errors.Wrap(err, "reading pending purchase")
	}

	modules := pending.Modules.Normalize()
	if len(modules) == 0 {
		// malformed or empty record: clean it up, unlock nothing
		if err = svc.repo.DeletePendingPurchase(ctx, canonical, tx); err != nil {
			return Result{}, errors.Wrap(err, "deleting empty pending purchase")
		}
		return Result{}, errors.Wrap(tx.Commit(), "committing cleanup")
	}

	doc, err := svc.courseRepo.GetProgress(ctx, userID, tx)
	var created bool
	if err != nil {
		if errors.Cause(err) != course.ErrProgressNotFound {
			return Result{}, errors.Wrap(err, "reading progress document")
		}
		// The account exists but its document is missing (signup race,
		// partial backfill). Heal with a minimal document instead of
		// blocking the unlock forever. The document carries the account
		// email, not the folded pending key.
		now := time.Now().UTC()
		doc = course.ProgressDoc{
			UserID:    userID,
			Email:     cleaned,
			Progress:  course.Progress{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		created = true
	}

	for _, moduleID := range modules {
		doc.Progress.Apply(svc.catalog.UnlockUpdates(moduleID))
	}
	doc.UpdatedAt = time.Now().UTC()

	if created {
		err = svc.courseRepo.CreateProgress(ctx, doc, tx)
	} else {
		err = svc.courseRepo.SaveProgress(ctx, doc, tx)
	}
	if err != nil {
		return Result{}, errors.Wrap(err, "writing progress document")
	}

	if err = svc.repo.DeletePendingPurchase(ctx, canonical, tx); err != nil {
		return Result{}, errors.Wrap(err, "deleting pending purchase")
	}

	if err = tx.Commit(); err != nil {
		return Result{}, errors.Wrap(err, "committing reconciliation")
	}
	return Result{Applied: true, Modules: modules}, nil
}

func (svc *service) ProcessPaidOrder(ctx context.Context, email, productID string) (OrderOutcome, error) {
	moduleIDs := svc.catalog.ModulesForProduct(productID)
	if len(moduleIDs) == 0 {
		// the provider must not redeliver for SKUs we do not sell as modules
		svc.logger.Warn(fmt.Sprintf("billing: product %q has no module mapping; acknowledging", productID))
		return OrderOutcome{UnknownProduct: true}, nil
	}
	return svc.apply(ctx, email, moduleIDs)
}

func (svc *service) GrantModules(ctx context.Context, email string, moduleIDs ...string) (OrderOutcome, error) {
	for _, id := range moduleIDs {
		if !svc.catalog.HasModule(id) {
			return OrderOutcome{}, core.NewValidationError(
				errors.Errorf("unknown module %q", id),
				core.FieldError{Field: "module", Error: fmt.Sprintf("unknown module %q", id)},
			)
		}
	}
	return svc.apply(ctx, email, moduleIDs)
}

// apply is the single purchase path: record the modules as pending, then
// reconcile right away when an account already matches the buyer's email.
// Without a match the purchase stays pending until the buyer signs up or
// logs in.
func (svc *service) apply(ctx context.Context, email string, moduleIDs []string) (OrderOutcome, error) {
	canonical := NormalizeEmail(email)
	if canonical == "" {
		return OrderOutcome{}, core.NewValidationError(
			errors.New("missing buyer email"),
			core.FieldError{Field: "email", Error: "missing buyer email"},
		)
	}
	if err := svc.repo.AddPendingModules(ctx, canonical, moduleIDs); err != nil {
		return OrderOutcome{}, errors.Wrap(err, "recording pending purchase")
	}

	usr, err := svc.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return OrderOutcome{Pending: true, Modules: moduleIDs}, nil
		}
		return OrderOutcome{}, errors.Wrap(err, "finding user by email")
	}

	res, err := svc.Reconcile(ctx, usr.ID, usr.Email)
	if err != nil {
		return OrderOutcome{}, err
	}
	return OrderOutcome{Modules: moduleIDs, Applied: res.Applied}, nil
}
