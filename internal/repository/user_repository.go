package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"gaokao/internal/entity"
)

const userColumns = `id, username, password_hash, role, created_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create вставляет пользователя. При занятом имени возвращает ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, u.Username, u.PasswordHash, u.Role).Scan(&u.ID, &u.CreatedAt)
	return translate(err, "create user")
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	var u entity.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, translate(err, "get user by username")
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*entity.User, error) {
	var u entity.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "get user by id")
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	users := make([]entity.User, 0)
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`)
	return users, translate(err, "list users")
}

// Update меняет хэш пароля и роль
func (r *UserRepository) Update(ctx context.Context, id int, passwordHash string, role entity.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, role = $2 WHERE id = $3`,
		passwordHash, role, id)
	if err != nil {
		return translate(err, "update user")
	}
	return expectRow(res.RowsAffected())
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete user")
	}
	return expectRow(res.RowsAffected())
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, translate(err, "count users")
}

func (r *UserRepository) CountByRole(ctx context.Context, role entity.Role) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = $1`, role)
	return n, translate(err, "count users by role")
}
