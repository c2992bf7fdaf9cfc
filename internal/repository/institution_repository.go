package repository

import (
	"context"
	"fmt"

	"suratku-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type InstitutionRepository interface {
	Create(ctx context.Context, institution *domain.Institution) error
	FindByID(ctx context.Context, id string) (*domain.Institution, error)
}

type institutionRepository struct {
	client *kivik.Client
	dbName string
}

func NewInstitutionRepository(client *kivik.Client, dbName string) InstitutionRepository {
	return &institutionRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *institutionRepository) Create(ctx context.Context, institution *domain.Institution) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("institution:%s", institution.ID)
	if _, err := db.Put(ctx, docID, institution); err != nil {
		return wrap("failed to create institution", err)
	}

	return nil
}

func (r *institutionRepository) FindByID(ctx context.Context, id string) (*domain.Institution, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(ctx, fmt.Sprintf("institution:%s", id))

	var institution domain.Institution
	if err := row.ScanDoc(&institution); err != nil {
		return nil, wrap("failed to find institution", err)
	}

	return &institution, nil
}
