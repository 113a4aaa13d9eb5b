package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/jmoiron/sqlx"
)

type ImageRepository interface {
	Save(ctx context.Context, img domain.ImageEntity) error
	Get(ctx context.Context, imageID string) (*domain.ImageEntity, error)
	List(ctx context.Context) ([]domain.ImageEntity, error)
}

type imageSQLRepo struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) ImageRepository {
	return &imageSQLRepo{db: db}
}

func (r *imageSQLRepo) Save(ctx context.Context, img domain.ImageEntity) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO images (image_id, user_id, filepath, prompt, model_name, model_id, created_at)
		VALUES (:image_id, :user_id, :filepath, :prompt, :model_name, :model_id, :created_at)`, img)
	if err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

func (r *imageSQLRepo) Get(ctx context.Context, imageID string) (*domain.ImageEntity, error) {
	var img domain.ImageEntity
	err := r.db.GetContext(ctx, &img, r.db.Rebind(`
		SELECT image_id, user_id, filepath, prompt, model_name, model_id, created_at
		FROM images WHERE image_id = ?`), imageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return &img, nil
}

// List returns all images newest first.
func (r *imageSQLRepo) List(ctx context.Context) ([]domain.ImageEntity, error) {
	var out []domain.ImageEntity
	err := r.db.SelectContext(ctx, &out, `
		SELECT image_id, user_id, filepath, prompt, model_name, model_id, created_at
		FROM images ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return out, nil
}
