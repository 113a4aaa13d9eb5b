package services

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/osvaldoandrade/imagegenie/internal/providers"
	"github.com/osvaldoandrade/imagegenie/internal/repository"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/google/uuid"
)

type GalleryService interface {
	// List merges indexed images with files found under the output directory, newest first.
	List(ctx context.Context) ([]domain.GalleryItem, error)
	Get(ctx context.Context, imageID string) (domain.GalleryItem, error)
}

type galleryService struct {
	images repository.ImageRepository
	store  providers.ImageStore
	logger *slog.Logger
}

func NewGalleryService(images repository.ImageRepository, store providers.ImageStore, logger *slog.Logger) GalleryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &galleryService{images: images, store: store, logger: logger}
}

// fileImageID derives a stable id for an image that has no database row.
func fileImageID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(filepath.Clean(path)))).String()
}

func (s *galleryService) List(ctx context.Context) ([]domain.GalleryItem, error) {
	var out []domain.GalleryItem
	seen := map[string]bool{}

	if s.images != nil {
		rows, err := s.images.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			seen[filepath.Clean(r.FilePath)] = true
			out = append(out, domain.GalleryItem{
				ImageID:   r.ImageID,
				FilePath:  r.FilePath,
				Prompt:    r.Prompt,
				ModelName: r.ModelName,
				CreatedAt: r.CreatedAt,
				Indexed:   true,
			})
		}
	}

	if s.store != nil {
		files, err := s.store.Scan(ctx)
		if err != nil {
			s.logger.Warn("Error scanning output directory: " + err.Error())
		}
		for _, f := range files {
			if seen[filepath.Clean(f.Path)] {
				continue
			}
			out = append(out, domain.GalleryItem{
				ImageID:   fileImageID(f.Path),
				FilePath:  f.Path,
				Prompt:    f.Prompt,
				ModelName: f.ModelName,
				CreatedAt: f.ModTime,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *galleryService) Get(ctx context.Context, imageID string) (domain.GalleryItem, error) {
	if s.images != nil {
		r, err := s.images.Get(ctx, imageID)
		if err == nil {
			return domain.GalleryItem{
				ImageID:   r.ImageID,
				FilePath:  r.FilePath,
				Prompt:    r.Prompt,
				ModelName: r.ModelName,
				CreatedAt: r.CreatedAt,
				Indexed:   true,
			}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.GalleryItem{}, err
		}
	}
	items, err := s.List(ctx)
	if err != nil {
		return domain.GalleryItem{}, err
	}
	for _, it := range items {
		if it.ImageID == imageID {
			return it, nil
		}
	}
	return domain.GalleryItem{}, domain.ErrNotFound
}
