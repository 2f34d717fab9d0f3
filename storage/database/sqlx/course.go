package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/course"
	"github.com/kusoma/backend/storage/database"
)

type courseRepository struct {
	repoBase
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *database.DB) *courseRepository {
	return &courseRepository{repoBase{exec: db}}
}

type dbProgress struct {
	UserID    string         `db:"user_id"`
	Email     string         `db:"email"`
	Progress  types.JSONText `db:"progress"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (repo courseRepository) pack(doc course.ProgressDoc) (dbProgress, error) {
	prog, err := json.Marshal(doc.Progress)
	if err != nil {
		return dbProgress{}, errors.Wrap(err, "marshalling progress")
	}
	return dbProgress{
		UserID:    doc.UserID,
		Email:     doc.Email,
		Progress:  prog,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}, nil
}

func (repo courseRepository) unpack(p dbProgress) (course.ProgressDoc, error) {
	doc := course.ProgressDoc{
		UserID:    p.UserID,
		Email:     p.Email,
		Progress:  make(course.Progress),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if len(p.Progress) > 0 {
		if err := json.Unmarshal(p.Progress, &doc.Progress); err != nil {
			return course.ProgressDoc{}, errors.Wrap(err, "unmarshalling progress")
		}
	}
	return doc, nil
}

func (repo courseRepository) CreateProgress(ctx context.Context, doc course.ProgressDoc, exec ...core.DBExecutor) error {
	p, err := repo.pack(doc)
	if err != nil {
		return err
	}
	q := `INSERT INTO user_progress (user_id, email, progress, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5)`
	if _, err = repo.getExec(exec).ExecContext(ctx, q, p.UserID, p.Email, p.Progress, p.CreatedAt, p.UpdatedAt); err != nil {
		return trapConflictErr(err, "inserting progress")
	}
	return nil
}

func (repo courseRepository) GetProgress(ctx context.Context, userID string, exec ...core.DBExecutor) (course.ProgressDoc, error) {
	var p dbProgress
	q := `SELECT * FROM user_progress WHERE user_id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &p, q, userID); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return course.ProgressDoc{}, course.ErrProgressNotFound
		}
		return course.ProgressDoc{}, errors.Wrap(err, "finding progress")
	}
	return repo.unpack(p)
}

func (repo courseRepository) SaveProgress(ctx context.Context, doc course.ProgressDoc, exec ...core.DBExecutor) error {
	doc.UpdatedAt = time.Now().UTC()
	p, err := repo.pack(doc)
	if err != nil {
		return err
	}
	q := `UPDATE user_progress SET email = $2, progress = $3, updated_at = $4 WHERE user_id = $1`
	if _, err = repo.getExec(exec).ExecContext(ctx, q, p.UserID, p.Email, p.Progress, p.UpdatedAt); err != nil {
		return trapConflictErr(err, "updating progress")
	}
	return nil
}
