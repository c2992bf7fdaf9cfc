package service

import (
	"context"
	"errors"
	"fmt"

	"suratku-server/internal/domain"
	"suratku-server/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, transportError("find user", err)
	}

	user.Password = ""
	return user, nil
}

// Identities returns an IdentityProvider that loads the signer whose ID
// userIDFrom finds in the context.
func (s *UserService) Identities(userIDFrom func(context.Context) string) IdentityProvider {
	return IdentityFunc(func(ctx context.Context) (*domain.Identity, error) {
		userID := userIDFrom(ctx)
		if userID == "" {
			return nil, ErrUnauthenticated
		}

		user, err := s.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return nil, fmt.Errorf("%w: unknown user %s", ErrUnauthenticated, userID)
			}
			return nil, err
		}

		return &domain.Identity{
			UserID:        user.ID,
			Name:          user.FullName,
			InstitutionID: user.InstitutionID,
		}, nil
	})
}
