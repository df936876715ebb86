package document

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// ListByOwner returns the owner's documents, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Document, error)
	// Delete removes the row and runs release before committing. If release
	// fails the row is kept.
	Delete(ctx context.Context, id uuid.UUID, release func(ctx context.Context) error) error
}
