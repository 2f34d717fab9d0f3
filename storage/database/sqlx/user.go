package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/user"
	"github.com/kusoma/backend/storage/database"
)

type userRepository struct {
	repoBase
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *database.DB) *userRepository {
	return &userRepository{repoBase{exec: db}}
}

type dbUser struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     sql.NullString `db:"username"`
	Email        sql.NullString `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (repo userRepository) pack(usr user.User) dbUser {
	u := dbUser{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     sql.NullString{String: usr.Username, Valid: usr.Username != ""},
		Email:        sql.NullString{String: usr.Email, Valid: usr.Email != ""},
		IsActive:     usr.Active(),
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
	return u
}

func (repo userRepository) unpack(u dbUser) user.User {
	usr := user.User{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username.String,
		Email:        u.Email.String,
		Roles:        u.Roles,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastLogin:    u.LastLogin.Time,
	}
	usr.SetActive(u.IsActive)
	return usr
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(
	ctx context.Context,
	username, email string,
	excludedUsers []user.User,
	exec ...core.DBExecutor,
) error {
	exclIDs := make(pq.StringArray, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		exclIDs = append(exclIDs, u.ID)
	}

	check := func(column, value string, existsErr error) error {
		if value == "" {
			return nil
		}
		var exists bool
		q := `SELECT EXISTS (SELECT 1 FROM "user" WHERE ` + column + ` = $1 AND NOT (id = ANY($2)))`
		if err := repo.getExec(exec).GetContext(ctx, &exists, q, value, exclIDs); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		if exists {
			return existsErr
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	u := repo.pack(usr)
	q := `INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := repo.getExec(exec).ExecContext(
		ctx, q,
		u.ID, u.Name, u.Username, u.Email, u.IsActive, u.Roles, u.PasswordHash, u.CreatedAt, u.UpdatedAt, u.LastLogin,
	); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unpack(u), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	var u dbUser
	q := `SELECT * FROM "user" WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &u, q, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return repo.unpack(u), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	var u dbUser
	q := `SELECT * FROM "user" WHERE email = $1`
	if err := repo.getExec(exec).GetContext(ctx, &u, q, email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by email")
	}
	return repo.unpack(u), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string, exec ...core.DBExecutor) (user.User, error) {
	var u dbUser
	q := `SELECT * FROM "user" WHERE username = $1 OR email = $1`
	if err := repo.getExec(exec).GetContext(ctx, &u, q, uname); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by username or email")
	}
	return repo.unpack(u), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	orig, err := repo.GetUserByID(ctx, usr.ID, exec...)
	if err != nil {
		return user.User{}, err
	}

	// merge non-zero fields into the stored row
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		orig.IsActive = isActive
	}
	orig.UpdatedAt = time.Now().UTC()
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}

	u := repo.pack(orig)
	q := `UPDATE "user"
	      SET name = $2, username = $3, email = $4, is_active = $5, roles = $6, password_hash = $7, updated_at = $8, last_login = $9
	      WHERE id = $1`
	if _, err = repo.getExec(exec).ExecContext(
		ctx, q,
		u.ID, u.Name, u.Username, u.Email, u.IsActive, u.Roles, u.PasswordHash, u.UpdatedAt, u.LastLogin,
	); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return repo.unpack(u), nil
}
