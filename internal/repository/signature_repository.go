package repository

import (
	"context"
	"fmt"

	"suratku-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// SignatureRepository is append-only: signatures are never updated or
// deleted.
type SignatureRepository interface {
	Create(ctx context.Context, signature *domain.DigitalSignature) error
	ListByLetter(ctx context.Context, letterID string) ([]*domain.DigitalSignature, error)
}

type signatureRepository struct {
	client *kivik.Client
	dbName string
}

func NewSignatureRepository(client *kivik.Client, dbName string) SignatureRepository {
	return &signatureRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *signatureRepository) Create(ctx context.Context, signature *domain.DigitalSignature) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("signature:%s", signature.ID)
	if _, err := db.Put(ctx, docID, signature); err != nil {
		return wrap("failed to create signature", err)
	}

	return nil
}

func (r *signatureRepository) ListByLetter(ctx context.Context, letterID string) ([]*domain.DigitalSignature, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"letter_id":      letterID,
			"signature_hash": map[string]interface{}{"$exists": true},
		},
		"limit": findPageSize,
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, wrap("failed to list signatures", err)
	}
	defer rows.Close()

	var signatures []*domain.DigitalSignature
	for rows.Next() {
		var signature domain.DigitalSignature
		if err := rows.ScanDoc(&signature); err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		signatures = append(signatures, &signature)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("failed to list signatures", err)
	}

	return signatures, nil
}
