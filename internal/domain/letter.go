package domain

import "time"

type LetterStatus string

const (
	LetterStatusReceived    LetterStatus = "received"
	LetterStatusReview      LetterStatus = "review"
	LetterStatusDisposition LetterStatus = "disposition"
	LetterStatusInProgress  LetterStatus = "in_progress"
	LetterStatusCompleted   LetterStatus = "completed"
	LetterStatusArchived    LetterStatus = "archived"
)

// Letter is an outgoing letter. ID, LetterNumber, Content and SignedAt are
// the hashed fields and must not change once the letter is signed.
type Letter struct {
	ID            string       `json:"id"`
	InstitutionID string       `json:"institution_id"`
	LetterNumber  string       `json:"letter_number"`
	Subject       string       `json:"subject"`
	Recipient     string       `json:"recipient"`
	Content       string       `json:"content"`
	Status        LetterStatus `json:"status"`
	CreatedBy     string       `json:"created_by,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	// SignedAt is kept as the exact string that went into DocumentHash.
	SignedAt     string `json:"signed_at,omitempty"`
	DocumentHash string `json:"document_hash,omitempty"`
	IsSigned     bool   `json:"is_signed"`
	// SignatureID names the signature row bound to DocumentHash. Empty on
	// letters signed before it was recorded.
	SignatureID string `json:"signature_id,omitempty"`
}

type CreateLetterRequest struct {
	InstitutionID string `json:"institution_id" validate:"required"`
	LetterNumber  string `json:"letter_number" validate:"required,max=100"`
	Subject       string `json:"subject" validate:"required,max=500"`
	Recipient     string `json:"recipient" validate:"required,max=500"`
	Content       string `json:"content" validate:"required"`
}

type Institution struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	LogoURL   *string   `json:"logo_url"`
	Address   string    `json:"address,omitempty"`
	Email     string    `json:"email,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateInstitutionRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Slug    string  `json:"slug" validate:"required,max=100"`
	LogoURL *string `json:"logo_url" validate:"omitempty,url"`
	Address string  `json:"address"`
	Email   string  `json:"email" validate:"omitempty,email"`
}
