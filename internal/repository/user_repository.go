package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u domain.User) error
}

type userSQLRepo struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userSQLRepo{db: db}
}

func (r *userSQLRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`
		SELECT user_id, username, created_at FROM users WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *userSQLRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`
		SELECT user_id, username, created_at FROM users
		WHERE username = ? ORDER BY created_at LIMIT 1`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *userSQLRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (user_id, username, created_at)
		VALUES (:user_id, :username, :created_at)`, u)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
