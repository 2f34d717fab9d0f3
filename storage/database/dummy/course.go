package dummydb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

// copyDoc deep-copies the progress maps so callers cannot mutate the store.
func copyDoc(doc course.ProgressDoc) course.ProgressDoc {
	cp := doc
	cp.Progress = make(course.Progress, len(doc.Progress))
	for id, mp := range doc.Progress {
		mcp := mp
		if mp.Submodules != nil {
			mcp.Submodules = make(map[string]course.SubmoduleProgress, len(mp.Submodules))
			for sid, sp := range mp.Submodules {
				mcp.Submodules[sid] = sp
			}
		}
		cp.Progress[id] = mcp
	}
	return cp
}

func (repo *courseRepository) CreateProgress(ctx context.Context, doc course.ProgressDoc, exec ...core.DBExecutor) error {
	lk := repo.db.lock(exec)
	lk.Lock()
	defer lk.Unlock()

	if _, ok := repo.db.progress[doc.UserID]; ok {
		return errors.Errorf("progress already exists for user %s", doc.UserID)
	}
	cp := copyDoc(doc)
	repo.db.progress[doc.UserID] = &cp
	return nil
}

func (repo *courseRepository) GetProgress(ctx context.Context, userID string, exec ...core.DBExecutor) (course.ProgressDoc, error) {
	lk := repo.db.rlock(exec)
	lk.Lock()
	defer lk.Unlock()

	if doc, ok := repo.db.progress[userID]; ok {
		return copyDoc(*doc), nil
	}
	return course.ProgressDoc{}, course.ErrProgressNotFound
}

func (repo *courseRepository) SaveProgress(ctx context.Context, doc course.ProgressDoc, exec ...core.DBExecutor) error {
	lk := repo.db.lock(exec)
	lk.Lock()
	defer lk.Unlock()

	if _, ok := repo.db.progress[doc.UserID]; !ok {
		return course.ErrProgressNotFound
	}
	doc.UpdatedAt = time.Now().UTC()
	cp := copyDoc(doc)
	repo.db.progress[doc.UserID] = &cp
	return nil
}
