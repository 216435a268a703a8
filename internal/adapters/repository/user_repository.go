package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/remindly/core/internal/domain/entities"
)

const userColumns = `id, username, email, password_hash, avatar, created_at, updated_at`

// UserRepository stores users in PostgreSQL
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Avatar,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", mapUniqueViolation(err))
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.getOne(ctx, "username", username)
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id uuid.UUID, username string, updatedAt time.Time) error {
	query := `UPDATE users SET username = $2, updated_at = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, username, updatedAt)
	if err != nil {
		return fmt.Errorf("update username: %w", mapUniqueViolation(err))
	}

	return expectOneRow(res, entities.ErrUserNotFound)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar *string, updatedAt time.Time) error {
	query := `UPDATE users SET avatar = $2, updated_at = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, avatar, updatedAt)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}

	return expectOneRow(res, entities.ErrUserNotFound)
}

// getOne looks a user up by one of the fixed unique columns above
func (r *UserRepository) getOne(ctx context.Context, column string, value interface{}) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}

	return &user, nil
}
