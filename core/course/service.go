package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kusoma/backend/core"
)

var ErrProgressNotFound = errors.New("progress document not found")

type (
	Repository interface {
		CreateProgress(ctx context.Context, doc ProgressDoc, exec ...core.DBExecutor) error
		GetProgress(ctx context.Context, userID string, exec ...core.DBExecutor) (ProgressDoc, error)
		SaveProgress(ctx context.Context, doc ProgressDoc, exec ...core.DBExecutor) error
	}

	Service interface {
		InitProgress(ctx context.Context, userID, email string) (ProgressDoc, error)
		GetProgress(ctx context.Context, userID string) (ProgressDoc, error)
		Catalog() *Catalog
	}

	service struct {
		repo    Repository
		catalog *Catalog
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, catalog *Catalog) Service {
	return &service{repo: repo, catalog: catalog}
}

func (svc *service) Catalog() *Catalog {
	return svc.catalog
}

// InitProgress creates the all-locked progress document for a new account.
// Safe to call twice; an existing document wins.
func (svc *service) InitProgress(ctx context.Context, userID, email string) (ProgressDoc, error) {
	if doc, err := svc.repo.GetProgress(ctx, userID); err == nil {
		return doc, nil
	} else if errors.Cause(err) != ErrProgressNotFound {
		return ProgressDoc{}, errors.Wrap(err, "checking progress document")
	}

	now := time.Now().UTC()
	doc := ProgressDoc{
		UserID:    userID,
		Email:     core.CleanString(email, true /* lower */),
		Progress:  NewProgress(svc.catalog),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.repo.CreateProgress(ctx, doc); err != nil {
		return ProgressDoc{}, errors.Wrap(err, "creating progress document")
	}
	return doc, nil
}

func (svc *service) GetProgress(ctx context.Context, userID string) (ProgressDoc, error) {
	return svc.repo.GetProgress(ctx, userID)
}
