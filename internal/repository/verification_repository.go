package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"suratku-server/internal/domain"
)

const verificationDocType = "letter_verification"

// VerificationRepository is the append-only verification audit log.
type VerificationRepository interface {
	Append(ctx context.Context, record *domain.VerificationRecord) error
	ListByLetter(ctx context.Context, letterID string) ([]*domain.VerificationRecord, error)
}

// verificationDoc is the stored shape of a record. CouchDB assigns _id.
type verificationDoc struct {
	ID               string    `json:"_id,omitempty"`
	Type             string    `json:"type"`
	LetterID         string    `json:"letter_id"`
	VerificationHash string    `json:"verification_hash"`
	IsValid          bool      `json:"is_valid"`
	VerifiedAt       time.Time `json:"verified_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
}

type verificationRepo struct {
	baseURL string
	client  *http.Client
}

// NewVerificationRepository talks to CouchDB's HTTP API directly; baseURL
// is the database URL including credentials.
func NewVerificationRepository(baseURL string, timeout time.Duration) VerificationRepository {
	return &verificationRepo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *verificationRepo) Append(ctx context.Context, record *domain.VerificationRecord) error {
	data, err := json.Marshal(&verificationDoc{
		Type:             verificationDocType,
		LetterID:         record.LetterID,
		VerificationHash: record.VerificationHash,
		IsValid:          record.IsValid,
		VerifiedAt:       record.VerifiedAt,
		IPAddress:        record.IPAddress,
		UserAgent:        record.UserAgent,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to append verification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("failed to append verification: status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil {
		record.ID = created.ID
	}

	return nil
}

// ListByLetter returns every record of the letter, newest first. The log is
// read page by page so no attempt is cut off.
func (r *verificationRepo) ListByLetter(ctx context.Context, letterID string) ([]*domain.VerificationRecord, error) {
	var records []*domain.VerificationRecord
	bookmark := ""

	for {
		docs, next, err := r.findPage(ctx, letterID, bookmark)
		if err != nil {
			return nil, err
		}

		for _, doc := range docs {
			records = append(records, &domain.VerificationRecord{
				ID:               doc.ID,
				LetterID:         doc.LetterID,
				VerificationHash: doc.VerificationHash,
				IsValid:          doc.IsValid,
				VerifiedAt:       doc.VerifiedAt,
				IPAddress:        doc.IPAddress,
				UserAgent:        doc.UserAgent,
			})
		}

		if len(docs) < findPageSize || next == "" || next == bookmark {
			break
		}
		bookmark = next
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].VerifiedAt.After(records[j].VerifiedAt)
	})

	return records, nil
}

func (r *verificationRepo) findPage(ctx context.Context, letterID, bookmark string) ([]verificationDoc, string, error) {
	q := map[string]interface{}{
		"selector": map[string]interface{}{
			"type":      verificationDocType,
			"letter_id": letterID,
		},
		"limit": findPageSize,
	}
	if bookmark != "" {
		q["bookmark"] = bookmark
	}

	query, err := json.Marshal(q)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/_find", bytes.NewReader(query))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list verifications: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to list verifications: status %d", resp.StatusCode)
	}

	var result struct {
		Docs     []verificationDoc `json:"docs"`
		Bookmark string            `json:"bookmark"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", err
	}

	return result.Docs, result.Bookmark, nil
}
