package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"suratku-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type LetterRepository interface {
	Create(ctx context.Context, letter *domain.Letter) error
	FindByID(ctx context.Context, id string) (*domain.Letter, error)
	List(ctx context.Context, institutionID string) ([]*domain.Letter, error)
	// MarkSigned stores the signing outcome and the signature row it is bound
	// to. Only the signing fields are written; hashed fields are left untouched.
	MarkSigned(ctx context.Context, id, documentHash, signedAt, signatureID string) error
}

type letterRepository struct {
	client *kivik.Client
	dbName string
}

func NewLetterRepository(client *kivik.Client, dbName string) LetterRepository {
	return &letterRepository{
		client: client,
		dbName: dbName,
	}
}

func letterDocID(id string) string {
	return fmt.Sprintf("letter:%s", id)
}

func (r *letterRepository) Create(ctx context.Context, letter *domain.Letter) error {
	db := r.client.DB(r.dbName)

	if _, err := db.Put(ctx, letterDocID(letter.ID), letter); err != nil {
		return wrap("failed to create letter", err)
	}

	return nil
}

func (r *letterRepository) FindByID(ctx context.Context, id string) (*domain.Letter, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(ctx, letterDocID(id))

	var letter domain.Letter
	if err := row.ScanDoc(&letter); err != nil {
		return nil, wrap("failed to find letter", err)
	}

	return &letter, nil
}

func (r *letterRepository) List(ctx context.Context, institutionID string) ([]*domain.Letter, error) {
	db := r.client.DB(r.dbName)

	selector := map[string]interface{}{
		"letter_number": map[string]interface{}{"$exists": true},
	}
	if institutionID != "" {
		selector["institution_id"] = institutionID
	}

	var letters []*domain.Letter
	bookmark := ""
	for {
		query := map[string]interface{}{
			"selector": selector,
			"limit":    findPageSize,
		}
		if bookmark != "" {
			query["bookmark"] = bookmark
		}

		page, next, err := r.findPage(ctx, db, query)
		if err != nil {
			return nil, err
		}
		letters = append(letters, page...)

		if len(page) < findPageSize || next == "" || next == bookmark {
			break
		}
		bookmark = next
	}

	sort.Slice(letters, func(i, j int) bool {
		return letters[i].CreatedAt.After(letters[j].CreatedAt)
	})

	return letters, nil
}

func (r *letterRepository) findPage(ctx context.Context, db *kivik.DB, query map[string]interface{}) ([]*domain.Letter, string, error) {
	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, "", wrap("failed to list letters", err)
	}
	defer rows.Close()

	var letters []*domain.Letter
	for rows.Next() {
		var letter domain.Letter
		if err := rows.ScanDoc(&letter); err != nil {
			return nil, "", fmt.Errorf("failed to scan letter: %w", err)
		}
		letters = append(letters, &letter)
	}
	if err := rows.Err(); err != nil {
		return nil, "", wrap("failed to list letters", err)
	}

	md, err := rows.Metadata()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read find metadata: %w", err)
	}

	return letters, md.Bookmark, nil
}

func (r *letterRepository) MarkSigned(ctx context.Context, id, documentHash, signedAt, signatureID string) error {
	db := r.client.DB(r.dbName)
	docID := letterDocID(id)

	var existingDoc map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		return wrap("failed to fetch letter for signing", err)
	}

	if signed, _ := existingDoc["is_signed"].(bool); signed {
		return fmt.Errorf("letter %s already signed: %w", id, ErrConflict)
	}

	existingDoc["document_hash"] = documentHash
	existingDoc["signed_at"] = signedAt
	existingDoc["signature_id"] = signatureID
	existingDoc["is_signed"] = true
	existingDoc["status"] = domain.LetterStatusCompleted
	existingDoc["updated_at"] = time.Now()

	// existingDoc still carries _rev, so a concurrent writer makes this Put
	// fail with a conflict instead of overwriting.
	if _, err := db.Put(ctx, docID, existingDoc); err != nil {
		return wrap("failed to mark letter signed", err)
	}

	return nil
}
