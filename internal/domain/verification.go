package domain

import "time"

// VerificationState is the terminal outcome of one verification attempt.
type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationValid    VerificationState = "valid"
	VerificationInvalid  VerificationState = "invalid"
	VerificationNotFound VerificationState = "not_found"
	VerificationError    VerificationState = "error"
)

// MismatchReason explains an invalid verdict.
type MismatchReason string

const (
	ReasonHashMissing    MismatchReason = "hash_missing"
	ReasonHashMismatch   MismatchReason = "hash_mismatch"
	ReasonNotSigned      MismatchReason = "not_signed"
	ReasonContentAltered MismatchReason = "content_altered"
)

// VerificationRecord is an append-only audit row, one per verification visit.
type VerificationRecord struct {
	ID               string    `json:"id,omitempty"`
	LetterID         string    `json:"letter_id"`
	VerificationHash string    `json:"verification_hash"`
	IsValid          bool      `json:"is_valid"`
	VerifiedAt       time.Time `json:"verified_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
}

// VerifiedSignature is the public part of a signature shown to a verifier.
type VerifiedSignature struct {
	SignedAt      string `json:"signed_at"`
	SignatureHash string `json:"signature_hash"`
}

type VerifiedInstitution struct {
	Name    string  `json:"name"`
	LogoURL *string `json:"logo_url"`
}

// VerifiedLetter is what a verifier may inspect about a found letter.
type VerifiedLetter struct {
	ID           string               `json:"id"`
	LetterNumber string               `json:"letter_number"`
	Subject      string               `json:"subject"`
	Recipient    string               `json:"recipient"`
	DocumentHash string               `json:"document_hash,omitempty"`
	IsSigned     bool                 `json:"is_signed"`
	CreatedAt    time.Time            `json:"created_at"`
	SignedAt     string               `json:"signed_at,omitempty"`
	Institution  *VerifiedInstitution `json:"institution"`
	Signatures   []VerifiedSignature  `json:"signatures"`
}

// VerificationResult is the verdict of one attempt. Letter is set for valid
// and invalid verdicts only.
type VerificationResult struct {
	State       VerificationState `json:"state"`
	LetterID    string            `json:"letter_id"`
	ClaimedHash string            `json:"claimed_hash"`
	Reasons     []MismatchReason  `json:"reasons,omitempty"`
	Letter      *VerifiedLetter   `json:"letter,omitempty"`
	Recorded    bool              `json:"recorded"`
	VerifiedAt  time.Time         `json:"verified_at"`
}

func (r *VerificationResult) Valid() bool {
	return r.State == VerificationValid
}
