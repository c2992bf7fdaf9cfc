package service

import (
	"context"
	"errors"
	"time"

	"suratku-server/internal/domain"
	"suratku-server/internal/repository"
	"suratku-server/pkg/hash"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const DefaultVerifyTimeout = 10 * time.Second

type VerificationService struct {
	letterRepo       repository.LetterRepository
	institutionRepo  repository.InstitutionRepository
	signatureRepo    repository.SignatureRepository
	verificationRepo repository.VerificationRepository
	clock            Clock
	timeout          time.Duration
	logger           *zap.Logger
}

func NewVerificationService(
	letterRepo repository.LetterRepository,
	institutionRepo repository.InstitutionRepository,
	signatureRepo repository.SignatureRepository,
	verificationRepo repository.VerificationRepository,
	clock Clock,
	timeout time.Duration,
	logger *zap.Logger,
) *VerificationService {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &VerificationService{
		letterRepo:       letterRepo,
		institutionRepo:  institutionRepo,
		signatureRepo:    signatureRepo,
		verificationRepo: verificationRepo,
		clock:            clock,
		timeout:          timeout,
		logger:           logger.With(zap.String("service", "verification")),
	}
}

// Verify runs one verification attempt and always returns a result. The
// error is non-nil only for the error state and carries the cause.
//
// Once the letter has been fetched an audit record is appended whatever the
// verdict; not_found and error attempts are not recorded.
func (s *VerificationService) Verify(ctx context.Context, letterID string, claimedHash *string, meta domain.RequestMeta) (*domain.VerificationResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "letters.verify")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := &domain.VerificationResult{
		State:    domain.VerificationPending,
		LetterID: letterID,
	}
	if claimedHash != nil {
		result.ClaimedHash = *claimedHash
	}

	letter, institution, signatures, err := s.fetch(ctx, letterID)
	switch {
	case errors.Is(err, ErrLetterNotFound):
		result.State = domain.VerificationNotFound
	case err != nil:
		result.State = domain.VerificationError
		s.logger.Error("verification fetch failed", zap.String("letter_id", letterID), zap.Error(err))
	}
	if result.State != domain.VerificationPending {
		result.VerifiedAt = s.clock.Now().UTC()
		span.SetAttributes(
			attribute.String("letter.id", letterID),
			attribute.String("verification.state", string(result.State)),
		)
		if result.State == domain.VerificationError {
			return result, err
		}
		return result, nil
	}

	valid, reasons := evaluate(letter, signatures, claimedHash)
	result.Reasons = reasons
	result.State = domain.VerificationInvalid
	if valid {
		result.State = domain.VerificationValid
	}
	result.VerifiedAt = s.clock.Now().UTC()
	result.Letter = present(letter, institution, signatures)

	record := &domain.VerificationRecord{
		LetterID:         letter.ID,
		VerificationHash: result.ClaimedHash,
		IsValid:          valid,
		VerifiedAt:       result.VerifiedAt,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
	}
	// The attempt is recorded even if the caller has gone away or the fetch
	// used up the deadline.
	auditCtx, cancelAudit := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancelAudit()
	if err := s.verificationRepo.Append(auditCtx, record); err != nil {
		s.logger.Error("failed to record verification",
			zap.String("letter_id", letter.ID),
			zap.Bool("is_valid", valid),
			zap.Error(err),
		)
	} else {
		result.Recorded = true
	}

	span.SetAttributes(
		attribute.String("letter.id", letterID),
		attribute.String("verification.state", string(result.State)),
		attribute.Bool("verification.recorded", result.Recorded),
	)

	return result, nil
}

func (s *VerificationService) fetch(ctx context.Context, letterID string) (*domain.Letter, *domain.Institution, []*domain.DigitalSignature, error) {
	letter, err := s.letterRepo.FindByID(ctx, letterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, ErrLetterNotFound
		}
		return nil, nil, nil, transportError("fetch letter", err)
	}

	var institution *domain.Institution
	if letter.InstitutionID != "" {
		institution, err = s.institutionRepo.FindByID(ctx, letter.InstitutionID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, nil, nil, transportError("fetch institution", err)
			}
			institution = nil
		}
	}

	signatures, err := s.signatureRepo.ListByLetter(ctx, letter.ID)
	if err != nil {
		return nil, nil, nil, transportError("fetch signatures", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, nil, transportError("fetch", err)
	}

	return letter, institution, signatures, nil
}

// evaluate decides validity. The claimed hash must be present and equal to
// the stored DocumentHash, the letter must be signed, and the stored hash
// must still match the letter's current fields.
func evaluate(letter *domain.Letter, signatures []*domain.DigitalSignature, claimedHash *string) (bool, []domain.MismatchReason) {
	var reasons []domain.MismatchReason

	switch {
	case claimedHash == nil || *claimedHash == "":
		reasons = append(reasons, domain.ReasonHashMissing)
	case letter.DocumentHash == "" || !hash.HashesEqual(*claimedHash, letter.DocumentHash):
		reasons = append(reasons, domain.ReasonHashMismatch)
	}

	if !letter.IsSigned {
		reasons = append(reasons, domain.ReasonNotSigned)
	}

	if letter.DocumentHash != "" {
		if _, ok := boundTimestamp(letter, signatures); !ok {
			reasons = append(reasons, domain.ReasonContentAltered)
		}
	}

	return len(reasons) == 0, reasons
}

// boundTimestamp re-derives the DocumentHash from the letter's fields and
// returns the signed_at it was computed with. Letters signed before signed_at
// was stored on the letter are tried against each signature row's timestamp.
func boundTimestamp(letter *domain.Letter, signatures []*domain.DigitalSignature) (string, bool) {
	candidates := make([]string, 0, len(signatures)+1)
	if letter.SignedAt != "" {
		candidates = append(candidates, letter.SignedAt)
	}
	for _, sig := range signatures {
		if sig.SignedAt != "" && sig.SignedAt != letter.SignedAt {
			candidates = append(candidates, sig.SignedAt)
		}
	}

	for _, signedAt := range candidates {
		derived, err := hash.DocumentHash(letter.ID, letter.LetterNumber, letter.Content, signedAt)
		if err != nil {
			continue
		}
		if hash.HashesEqual(derived, letter.DocumentHash) {
			return signedAt, true
		}
	}
	return "", false
}

// boundSignatures keeps the rows the letter's DocumentHash was issued for.
// Rows left by a failed or losing signing attempt are dropped.
func boundSignatures(letter *domain.Letter, signatures []*domain.DigitalSignature) []*domain.DigitalSignature {
	var bound []*domain.DigitalSignature
	if letter.SignatureID != "" {
		for _, sig := range signatures {
			if sig.ID == letter.SignatureID {
				bound = append(bound, sig)
			}
		}
		return bound
	}

	signedAt, ok := boundTimestamp(letter, signatures)
	if !ok {
		signedAt = letter.SignedAt
	}
	if signedAt == "" {
		return nil
	}
	for _, sig := range signatures {
		if sig.SignedAt == signedAt {
			bound = append(bound, sig)
		}
	}
	return bound
}

func present(letter *domain.Letter, institution *domain.Institution, signatures []*domain.DigitalSignature) *domain.VerifiedLetter {
	view := &domain.VerifiedLetter{
		ID:           letter.ID,
		LetterNumber: letter.LetterNumber,
		Subject:      letter.Subject,
		Recipient:    letter.Recipient,
		DocumentHash: letter.DocumentHash,
		IsSigned:     letter.IsSigned,
		CreatedAt:    letter.CreatedAt,
		SignedAt:     letter.SignedAt,
		Signatures:   []domain.VerifiedSignature{},
	}
	if institution != nil {
		view.Institution = &domain.VerifiedInstitution{
			Name:    institution.Name,
			LogoURL: institution.LogoURL,
		}
	}
	for _, sig := range boundSignatures(letter, signatures) {
		view.Signatures = append(view.Signatures, domain.VerifiedSignature{
			SignedAt:      sig.SignedAt,
			SignatureHash: sig.SignatureHash,
		})
	}
	return view
}

// ListVerifications returns the audit trail of a letter, newest first.
func (s *VerificationService) ListVerifications(ctx context.Context, letterID string) ([]*domain.VerificationRecord, error) {
	if _, err := s.letterRepo.FindByID(ctx, letterID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, transportError("fetch letter", err)
	}

	records, err := s.verificationRepo.ListByLetter(ctx, letterID)
	if err != nil {
		return nil, transportError("list verifications", err)
	}
	return records, nil
}
