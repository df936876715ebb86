package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/document"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

var _ document.Repository = (*DocumentRepository)(nil)

func (r *DocumentRepository) Create(ctx context.Context, d *document.Document) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	var d document.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, document.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return &d, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*document.Document, error) {
	var out []*document.Document
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("uploaded_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return out, nil
}

// Delete locks the row, deletes it and calls release before commit. A failing
// release rolls the delete back, so the row survives whenever the blob does.
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID, release func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d document.Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&d).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return document.ErrDocumentNotFound
		}
		if err != nil {
			return fmt.Errorf("locking document: %w", err)
		}

		if err := tx.Delete(&d).Error; err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}

		if release != nil {
			if err := release(ctx); err != nil {
				return fmt.Errorf("releasing blob: %w", err)
			}
		}
		return nil
	})
}
