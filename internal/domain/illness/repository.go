package illness

import (
	"context"

	"github.com/google/uuid"
)

// Repository lists are always newest first.
type Repository interface {
	Create(ctx context.Context, i *Illness) error
	// GetForAuthor only matches records written by authorID, so another
	// author's record reads as ErrIllnessNotFound.
	GetForAuthor(ctx context.Context, id, authorID uuid.UUID) (*Illness, error)
	Update(ctx context.Context, i *Illness) error
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*Illness, error)
	ListByPhysician(ctx context.Context, physicianID uuid.UUID) ([]*Illness, error)
	CountByPhysician(ctx context.Context, physicianID uuid.UUID) (int64, error)
}
