package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kinship/internal/database"
	"kinship/internal/models"
)

// UserRepository handles user account persistence
type UserRepository struct {
	q database.Queryer
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *UserRepository) WithTx(tx *database.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

// Create inserts a new user and returns it with the assigned ID
func (r *UserRepository) Create(ctx context.Context, email, passwordHash, name string) (*models.User, error) {
	now := time.Now().UTC()
	id, err := r.q.ExecReturningID(ctx, `
		INSERT INTO users (email, password_hash, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		email, passwordHash, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetByEmail returns the user with the given email, or nil if none exists
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := r.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM users WHERE email = ?`, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByID returns the user with the given ID, or nil if none exists
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := r.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, created_at, updated_at
		FROM users WHERE id = ?`, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
