package service

import (
	"context"

	"github.com/blog-articles-api/internal/models"
	"github.com/blog-articles-api/internal/repository"
	"github.com/blog-articles-api/internal/validation"
	"github.com/rs/zerolog"
)

// userService is the concrete implementation of UserService
type userService struct {
	users     repository.UserRepository
	validator *validation.Validator
	log       zerolog.Logger
}

func newUserService(users repository.UserRepository, v *validation.Validator, log zerolog.Logger) *userService {
	return &userService{
		users:     users,
		validator: v,
		log:       log.With().Str("service", "user").Logger(),
	}
}

func (s *userService) Create(ctx context.Context, in *models.CreateUserInput) (*models.User, error) {
	if err := s.validator.ValidateCreateUser(in); err != nil {
		return nil, err
	}

	user := &models.User{Name: in.Name}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("User created")
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) Count(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

func (s *userService) Clear(ctx context.Context) error {
	if err := s.users.DeleteAll(ctx); err != nil {
		return err
	}
	s.log.Warn().Msg("All users cleared")
	return nil
}
