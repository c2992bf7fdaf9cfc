package domain

import "time"

// DigitalSignature is an append-only record of one signing action.
type DigitalSignature struct {
	ID                string    `json:"id"`
	LetterID          string    `json:"letter_id"`
	UserID            string    `json:"user_id"`
	SignatureImageURL string    `json:"signature_image_url"`
	SignatureHash     string    `json:"signature_hash"`
	SignedAt          string    `json:"signed_at"`
	IPAddress         string    `json:"ip_address,omitempty"`
	UserAgent         string    `json:"user_agent,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Point mirrors a pointer position sent by a client.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SignLetterRequest carries a signature drawn client side as raw strokes.
// Width and Height, when set, must match the server's canvas.
type SignLetterRequest struct {
	Width   int       `json:"width" validate:"gte=0"`
	Height  int       `json:"height" validate:"gte=0"`
	Origin  *Point    `json:"origin"`
	Strokes [][]Point `json:"strokes" validate:"required,min=1"`
}

// SignResult is what a signer gets back after a successful signing.
type SignResult struct {
	LetterID          string `json:"letter_id"`
	LetterNumber      string `json:"letter_number"`
	DocumentHash      string `json:"document_hash"`
	SignatureHash     string `json:"signature_hash"`
	SignatureImageURL string `json:"signature_image_url"`
	SignedAt          string `json:"signed_at"`
	VerificationURL   string `json:"verification_url"`
}

// RequestMeta is client information recorded alongside audit rows.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
