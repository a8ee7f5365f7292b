package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/codearena/judgecore/types"
)

// UserRepository handles persistence for user accounts.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint32) (types.User, error) {
	const query = `SELECT id, name, password_hash, role FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (types.User, error) {
	const query = `SELECT id, name, password_hash, role FROM users WHERE name = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name))
}

func (r *UserRepository) scanOne(row *sql.Row) (types.User, error) {
	var user types.User
	if err := row.Scan(&user.ID, &user.Name, &user.PasswordHash, &user.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// List returns every registered user, ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `SELECT id, name, password_hash, role FROM users ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns the number of registered users, used by contest
// validation to bound user_ids (original_source behavior: user ids
// are validated against the user count, not individual lookups).
func (r *UserRepository) Count(ctx context.Context) (uint32, error) {
	const query = `SELECT COUNT(*) FROM users`
	var count uint32
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new user, returning it with its allocated id when
// id is 0, or preserving the caller's id (used for the root bootstrap).
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if user.ID == 0 {
		const query = `
			INSERT INTO users (name, password_hash, role)
			VALUES ($1, $2, $3)
			RETURNING id`
		if err := r.db.QueryRowContext(ctx, query, user.Name, user.PasswordHash, user.Role).Scan(&user.ID); err != nil {
			return types.User{}, err
		}
		return user, nil
	}

	const query = `
		INSERT INTO users (id, name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.PasswordHash, user.Role); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// UpdatePassword overwrites a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint32, hash []byte) error {
	const query = `UPDATE users SET password_hash = $1 WHERE id = $2`
	return r.exec1(ctx, query, hash, id)
}

// UpdateRole overwrites a user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, id uint32, role types.Role) error {
	const query = `UPDATE users SET role = $1 WHERE id = $2`
	return r.exec1(ctx, query, role, id)
}

func (r *UserRepository) exec1(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
