package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studydesk/core/user"
)

const userColumns = `id, name, email, is_active, password_hash, created_at, updated_at, last_login`

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func boilUser(usr user.User) userRow {
	hash := usr.PasswordHash
	if hash == nil {
		hash = []byte{}
	}
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		PasswordHash: hash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (row userRow) unboil() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    utc(row.CreatedAt),
		UpdatedAt:    utc(row.UpdatedAt),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	if len(usr.PasswordHash) == 0 {
		usr.PasswordHash = nil
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := `SELECT id FROM "user" WHERE email = ?`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		var err error
		q, args, err = sqlx.In(q+` AND id NOT IN (?)`, email, ids)
		if err != nil {
			return errors.Wrap(err, "building user uniqueness query")
		}
	}

	var found []string
	if err := repo.db.SelectContext(ctx, &found, repo.db.Rebind(q+` LIMIT 1`), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if len(found) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	if err := repo.CheckEmailUniqueness(ctx, usr.Email); err != nil {
		return user.User{}, err
	}

	q := `INSERT INTO "user" (` + userColumns + `)
		VALUES (:id, :name, :email, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, boilUser(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM "user" ORDER BY created_at DESC, id`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.unboil())
	}
	return users, nil
}

func (repo *userRepository) getUser(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	q := repo.db.Rebind(`SELECT ` + userColumns + ` FROM "user" WHERE ` + where + ` = ?`)
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.unboil(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "id", id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email", email)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user" SET name = :name, email = :email, is_active = :is_active, password_hash = :password_hash,
		updated_at = :updated_at, last_login = :last_login WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, boilUser(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}
