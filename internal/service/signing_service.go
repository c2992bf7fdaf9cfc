package service

import (
	"context"
	"errors"
	"fmt"

	"suratku-server/internal/capture"
	"suratku-server/internal/domain"
	"suratku-server/internal/repository"
	"suratku-server/pkg/hash"
	"suratku-server/pkg/qrcode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const tracerName = "suratku-server/service"

// SignNotifier is told about every completed signing so open capture
// sessions of the signer can refresh.
type SignNotifier interface {
	LetterSigned(userID string, result *domain.SignResult)
}

type SigningConfig struct {
	PublicBaseURL string
	QRSize        int
}

type SigningService struct {
	letterRepo    repository.LetterRepository
	signatureRepo repository.SignatureRepository
	identity      IdentityProvider
	clock         Clock
	ids           IDGenerator
	cfg           SigningConfig
	notifier      SignNotifier
	logger        *zap.Logger
}

func NewSigningService(
	letterRepo repository.LetterRepository,
	signatureRepo repository.SignatureRepository,
	identity IdentityProvider,
	clock Clock,
	ids IDGenerator,
	cfg SigningConfig,
	logger *zap.Logger,
) *SigningService {
	if cfg.QRSize <= 0 {
		cfg.QRSize = qrcode.DefaultSize
	}
	return &SigningService{
		letterRepo:    letterRepo,
		signatureRepo: signatureRepo,
		identity:      identity,
		clock:         clock,
		ids:           ids,
		cfg:           cfg,
		logger:        logger.With(zap.String("service", "signing")),
	}
}

// SetNotifier registers the receiver of letter_signed events. The
// websocket manager is created after the service, hence the setter.
func (s *SigningService) SetNotifier(n SignNotifier) {
	s.notifier = n
}

// Sign binds artifact to the letter on behalf of the caller in ctx. The
// letter's DocumentHash is written once; signing a signed letter fails with
// ErrAlreadySigned.
func (s *SigningService) Sign(ctx context.Context, letterID string, artifact *capture.Artifact, meta domain.RequestMeta) (*domain.SignResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "letters.sign")
	defer span.End()
	span.SetAttributes(attribute.String("letter.id", letterID))

	result, err := s.sign(ctx, letterID, artifact, meta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.notifier != nil {
		identity, _ := s.identity.Identity(ctx)
		if identity != nil {
			s.notifier.LetterSigned(identity.UserID, result)
		}
	}

	return result, nil
}

func (s *SigningService) sign(ctx context.Context, letterID string, artifact *capture.Artifact, meta domain.RequestMeta) (*domain.SignResult, error) {
	if artifact.Empty() {
		return nil, capture.ErrEmptyArtifact
	}

	identity, err := s.identity.Identity(ctx)
	if err != nil {
		var transportErr *TransportError
		if errors.Is(err, ErrUnauthenticated) || errors.As(err, &transportErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	letter, err := s.letterRepo.FindByID(ctx, letterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, transportError("fetch letter", err)
	}
	if letter.IsSigned {
		return nil, ErrAlreadySigned
	}

	signedAt := hash.FormatTimestamp(s.clock.Now())
	image := artifact.DataURL()

	documentHash, err := hash.DocumentHash(letter.ID, letter.LetterNumber, letter.Content, signedAt)
	if err != nil {
		return nil, err
	}
	signatureHash, err := hash.SignatureHash(identity.UserID, letter.ID, image, signedAt)
	if err != nil {
		return nil, err
	}

	signature := &domain.DigitalSignature{
		ID:                s.ids.New(),
		LetterID:          letter.ID,
		UserID:            identity.UserID,
		SignatureImageURL: image,
		SignatureHash:     signatureHash,
		SignedAt:          signedAt,
		IPAddress:         meta.IPAddress,
		UserAgent:         meta.UserAgent,
		CreatedAt:         s.clock.Now(),
	}
	if err := s.signatureRepo.Create(ctx, signature); err != nil {
		return nil, transportError("store signature", err)
	}

	if err := s.letterRepo.MarkSigned(ctx, letter.ID, documentHash, signedAt, signature.ID); err != nil {
		// The signature row stays behind. Verification only presents the row
		// the letter names, so it is never shown as proof.
		s.logger.Warn("letter not marked signed after storing signature",
			zap.String("letter_id", letter.ID),
			zap.String("signature_id", signature.ID),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadySigned
		}
		return nil, transportError("mark letter signed", err)
	}

	s.logger.Info("letter signed",
		zap.String("letter_id", letter.ID),
		zap.String("user_id", identity.UserID),
		zap.String("document_hash", documentHash),
	)

	return &domain.SignResult{
		LetterID:          letter.ID,
		LetterNumber:      letter.LetterNumber,
		DocumentHash:      documentHash,
		SignatureHash:     signatureHash,
		SignatureImageURL: image,
		SignedAt:          signedAt,
		VerificationURL:   hash.VerificationURL(s.cfg.PublicBaseURL, letter.ID, documentHash),
	}, nil
}

// QRCode renders the verification URL of a signed letter as a PNG.
func (s *SigningService) QRCode(ctx context.Context, letterID string) ([]byte, *domain.Letter, error) {
	letter, err := s.letterRepo.FindByID(ctx, letterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrLetterNotFound
		}
		return nil, nil, transportError("fetch letter", err)
	}
	if !letter.IsSigned || letter.DocumentHash == "" {
		return nil, nil, ErrNotSigned
	}

	png, err := qrcode.PNG(hash.VerificationURL(s.cfg.PublicBaseURL, letter.ID, letter.DocumentHash), s.cfg.QRSize)
	if err != nil {
		return nil, nil, err
	}

	return png, letter, nil
}
