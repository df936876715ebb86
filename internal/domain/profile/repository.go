package profile

import (
	"context"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/google/uuid"
)

type Repository interface {
	// GetByIdentityID returns ErrProfileNotFound when the identity has no profile.
	GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*Profile, error)
	// GetPhysician returns ErrPhysicianNotFound unless a physician profile exists.
	GetPhysician(ctx context.Context, identityID uuid.UUID) (*Profile, error)
	// GetPatient returns ErrPatientNotFound unless a patient profile exists.
	GetPatient(ctx context.Context, identityID uuid.UUID) (*Profile, error)

	ListPhysicians(ctx context.Context) ([]*Profile, error)
	ListPatientsOf(ctx context.Context, physicianID uuid.UUID) ([]*Profile, error)
	CountPatientsOf(ctx context.Context, physicianID uuid.UUID) (int64, error)

	// Save upserts p and persists owner.Role in the same transaction.
	Save(ctx context.Context, p *Profile, owner *domain.Identity) error
}
