package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ profile.Repository = (*ProfileRepository)(nil)

func (r *ProfileRepository) GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*profile.Profile, error) {
	return r.first(ctx, profile.ErrProfileNotFound, "identity_id = ?", identityID)
}

func (r *ProfileRepository) GetPhysician(ctx context.Context, identityID uuid.UUID) (*profile.Profile, error) {
	return r.first(ctx, profile.ErrPhysicianNotFound, "identity_id = ? AND kind = ?", identityID, profile.KindPhysician)
}

func (r *ProfileRepository) GetPatient(ctx context.Context, identityID uuid.UUID) (*profile.Profile, error) {
	return r.first(ctx, profile.ErrPatientNotFound, "identity_id = ? AND kind = ?", identityID, profile.KindPatient)
}

func (r *ProfileRepository) ListPhysicians(ctx context.Context) ([]*profile.Profile, error) {
	var out []*profile.Profile
	err := r.db.WithContext(ctx).
		Where("kind = ?", profile.KindPhysician).
		Order("last_name ASC, first_name ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing physicians: %w", err)
	}
	return out, nil
}

func (r *ProfileRepository) ListPatientsOf(ctx context.Context, physicianID uuid.UUID) ([]*profile.Profile, error) {
	var out []*profile.Profile
	err := r.db.WithContext(ctx).
		Where("kind = ? AND assigned_physician_id = ?", profile.KindPatient, physicianID).
		Order("last_name ASC, first_name ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients of physician: %w", err)
	}
	return out, nil
}

func (r *ProfileRepository) CountPatientsOf(ctx context.Context, physicianID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&profile.Profile{}).
		Where("kind = ? AND assigned_physician_id = ?", profile.KindPatient, physicianID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting patients of physician: %w", err)
	}
	return count, nil
}

// Save upserts the profile row and the owner's role together, so the role
// column can never disagree with the stored profile kind.
func (r *ProfileRepository) Save(ctx context.Context, p *profile.Profile, owner *domain.Identity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "identity_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"kind", "first_name", "last_name", "specialisation",
				"age_category", "assigned_physician_id", "updated_at",
			}),
		}).Create(p).Error
		if err != nil {
			return fmt.Errorf("upserting profile: %w", err)
		}

		res := tx.Model(&domain.Identity{}).
			Where("id = ?", owner.ID).
			Update("role", owner.Role)
		if res.Error != nil {
			return fmt.Errorf("updating identity role: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrIdentityNotFound
		}
		return nil
	})
}

func (r *ProfileRepository) first(ctx context.Context, notFound error, query string, args ...any) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.WithContext(ctx).Where(query, args...).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return &p, nil
}
