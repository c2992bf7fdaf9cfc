package service

import (
	"context"
	"errors"

	"suratku-server/internal/domain"
	"suratku-server/internal/repository"

	"go.uber.org/zap"
)

type LetterService struct {
	letterRepo      repository.LetterRepository
	institutionRepo repository.InstitutionRepository
	identity        IdentityProvider
	clock           Clock
	ids             IDGenerator
	logger          *zap.Logger
}

func NewLetterService(
	letterRepo repository.LetterRepository,
	institutionRepo repository.InstitutionRepository,
	identity IdentityProvider,
	clock Clock,
	ids IDGenerator,
	logger *zap.Logger,
) *LetterService {
	return &LetterService{
		letterRepo:      letterRepo,
		institutionRepo: institutionRepo,
		identity:        identity,
		clock:           clock,
		ids:             ids,
		logger:          logger.With(zap.String("service", "letter")),
	}
}

func (s *LetterService) CreateInstitution(ctx context.Context, req *domain.CreateInstitutionRequest) (*domain.Institution, error) {
	institution := &domain.Institution{
		ID:        s.ids.New(),
		Name:      req.Name,
		Slug:      req.Slug,
		LogoURL:   req.LogoURL,
		Address:   req.Address,
		Email:     req.Email,
		IsActive:  true,
		CreatedAt: s.clock.Now(),
	}

	if err := s.institutionRepo.Create(ctx, institution); err != nil {
		return nil, transportError("create institution", err)
	}

	return institution, nil
}

func (s *LetterService) GetInstitution(ctx context.Context, id string) (*domain.Institution, error) {
	institution, err := s.institutionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstitutionNotFound
		}
		return nil, transportError("fetch institution", err)
	}
	return institution, nil
}

// CreateLetter drafts an unsigned letter owned by an existing institution.
func (s *LetterService) CreateLetter(ctx context.Context, req *domain.CreateLetterRequest) (*domain.Letter, error) {
	if _, err := s.GetInstitution(ctx, req.InstitutionID); err != nil {
		return nil, err
	}

	identity, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	letter := &domain.Letter{
		ID:            s.ids.New(),
		InstitutionID: req.InstitutionID,
		LetterNumber:  req.LetterNumber,
		Subject:       req.Subject,
		Recipient:     req.Recipient,
		Content:       req.Content,
		Status:        domain.LetterStatusInProgress,
		CreatedBy:     identity.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.letterRepo.Create(ctx, letter); err != nil {
		return nil, transportError("create letter", err)
	}

	s.logger.Info("letter created",
		zap.String("letter_id", letter.ID),
		zap.String("letter_number", letter.LetterNumber),
	)

	return letter, nil
}

func (s *LetterService) GetLetter(ctx context.Context, id string) (*domain.Letter, error) {
	letter, err := s.letterRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, transportError("fetch letter", err)
	}
	return letter, nil
}

// ListLetters lists letters, newest first. An empty institutionID lists all.
func (s *LetterService) ListLetters(ctx context.Context, institutionID string) ([]*domain.Letter, error) {
	letters, err := s.letterRepo.List(ctx, institutionID)
	if err != nil {
		return nil, transportError("list letters", err)
	}
	if letters == nil {
		letters = []*domain.Letter{}
	}
	return letters, nil
}
