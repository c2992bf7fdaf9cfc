package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Separator joins digest fields. Fields are not escaped, so a field that
// itself contains the separator can collide with a different tuple.
const Separator = "|"

// DigestLength is the length of a hex-encoded SHA-256 digest.
const DigestLength = sha256.Size * 2

const timestampLayout = "2006-01-02T15:04:05.000Z"

var ErrInvalidInput = errors.New("invalid hash input")

// ComputeDigest hashes the ordered fields joined by Separator and returns the
// lowercase hex SHA-256 digest.
func ComputeDigest(fields ...string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: no fields", ErrInvalidInput)
	}

	for i, f := range fields {
		if !utf8.ValidString(f) {
			return "", fmt.Errorf("%w: field %d is not valid UTF-8", ErrInvalidInput, i)
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(fields, Separator)))
	return hex.EncodeToString(sum[:]), nil
}

// DocumentHash binds a letter's identity, reference number, body and the
// instant it was signed. Only the letter ID is required; other empty fields
// are hashed as empty strings, as rows signed by earlier clients were.
func DocumentHash(letterID, letterNumber, content, signedAt string) (string, error) {
	if err := required("letter_id", letterID); err != nil {
		return "", err
	}
	return ComputeDigest(letterID, letterNumber, content, signedAt)
}

// SignatureHash binds a signer, a letter and the signature image data itself.
// signatureImage must be the encoded image, not a reference to it. The signer
// and letter IDs are required.
func SignatureHash(userID, letterID, signatureImage, timestamp string) (string, error) {
	if err := required("user_id", userID, "letter_id", letterID); err != nil {
		return "", err
	}
	return ComputeDigest(userID, letterID, signatureImage, timestamp)
}

// VerificationURL renders {baseURL}/verify/{letterID}?hash={hash}.
func VerificationURL(baseURL, letterID, hash string) string {
	return fmt.Sprintf("%s/verify/%s?hash=%s",
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(letterID),
		hash,
	)
}

// HashesEqual compares digests exactly. Digests are always emitted lowercase,
// so differently cased input does not match.
func HashesEqual(a, b string) bool {
	return a == b
}

// FormatTimestamp renders t the way it is fed into a digest: UTC with
// millisecond precision, e.g. 2024-01-15T10:00:00.000Z.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return t, nil
}

func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, pairs[i])
		}
	}
	return nil
}
