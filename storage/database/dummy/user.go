package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(
	ctx context.Context,
	username, email string,
	excludedUsers []user.User,
	exec ...core.DBExecutor,
) error {
	lk := repo.db.rlock(exec)
	lk.Lock()
	defer lk.Unlock()

	excluded := func(usr user.User) bool {
		for _, ex := range excludedUsers {
			if ex.ID == usr.ID {
				return true
			}
		}
		return false
	}

	for _, usr := range repo.db.users {
		if excluded(*usr) {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	lk := repo.db.lock(exec)
	lk.Lock()
	defer lk.Unlock()

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	lk := repo.db.rlock(exec)
	lk.Lock()
	defer lk.Unlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	lk := repo.db.rlock(exec)
	lk.Lock()
	defer lk.Unlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string, exec ...core.DBExecutor) (user.User, error) {
	lk := repo.db.rlock(exec)
	lk.Lock()
	defer lk.Unlock()

	for _, usr := range repo.db.users {
		if usr.Username == uname || usr.Email == uname {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	lk := repo.db.lock(exec)
	lk.Lock()
	defer lk.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	upd := *orig
	if usr.Name != "" {
		upd.Name = usr.Name
	}
	if usr.Username != "" {
		upd.Username = usr.Username
	}
	if usr.Email != "" {
		upd.Email = usr.Email
	}
	if usr.Roles != nil {
		upd.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		upd.PasswordHash = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		upd.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		upd.SetActive(*isActive)
	}
	upd.UpdatedAt = time.Now().UTC()
	if !usr.UpdatedAt.IsZero() {
		upd.UpdatedAt = usr.UpdatedAt
	}

	repo.db.users[upd.ID] = &upd
	return upd, nil
}
