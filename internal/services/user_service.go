package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/repository"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/google/uuid"
)

type UserService interface {
	// SetUsername returns the id of the user with that name, creating it on first use.
	SetUsername(ctx context.Context, username string) (domain.User, error)
	Get(ctx context.Context, userID string) (domain.User, error)
}

type userService struct {
	repo   repository.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewUserService(repo repository.UserRepository, logger *slog.Logger, now func() time.Time) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &userService{repo: repo, logger: logger, now: now}
}

func (s *userService) SetUsername(ctx context.Context, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, domain.ErrEmptyUsername
	}
	existing, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		s.logger.Info("Welcome back, " + username + "!")
		return *existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	u := domain.User{UserID: uuid.NewString(), Username: username, CreatedAt: s.now().UTC()}
	if err := s.repo.Create(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("set username: %w", err)
	}
	s.logger.Info("Created new user: " + username)
	return u, nil
}

func (s *userService) Get(ctx context.Context, userID string) (domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		userID = domain.AnonymousUserID
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return *u, nil
}
