package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/illness"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IllnessRepository struct {
	db *gorm.DB
}

func NewIllnessRepository(db *gorm.DB) *IllnessRepository {
	return &IllnessRepository{db: db}
}

var _ illness.Repository = (*IllnessRepository)(nil)

const newestFirst = "created_at DESC, id DESC"

func (r *IllnessRepository) Create(ctx context.Context, i *illness.Illness) error {
	if err := r.db.WithContext(ctx).Create(i).Error; err != nil {
		return fmt.Errorf("inserting illness: %w", err)
	}
	return nil
}

func (r *IllnessRepository) GetForAuthor(ctx context.Context, id, authorID uuid.UUID) (*illness.Illness, error) {
	var i illness.Illness
	err := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		First(&i).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, illness.ErrIllnessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading illness: %w", err)
	}
	return &i, nil
}

// Update writes the mutable columns. The author condition is repeated in the
// WHERE clause so a stale or forged row cannot be redirected to another author.
func (r *IllnessRepository) Update(ctx context.Context, i *illness.Illness) error {
	res := r.db.WithContext(ctx).
		Model(&illness.Illness{}).
		Where("id = ? AND author_id = ?", i.ID, i.AuthorID).
		Updates(map[string]any{
			"title":                  i.Title,
			"description":            i.Description,
			"attending_physician_id": i.AttendingPhysicianID,
		})
	if res.Error != nil {
		return fmt.Errorf("updating illness: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return illness.ErrIllnessNotFound
	}
	return nil
}

func (r *IllnessRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*illness.Illness, error) {
	var out []*illness.Illness
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order(newestFirst).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing illnesses by author: %w", err)
	}
	return out, nil
}

func (r *IllnessRepository) ListByPhysician(ctx context.Context, physicianID uuid.UUID) ([]*illness.Illness, error) {
	var out []*illness.Illness
	err := r.db.WithContext(ctx).
		Where("attending_physician_id = ?", physicianID).
		Order(newestFirst).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing illnesses by physician: %w", err)
	}
	return out, nil
}

func (r *IllnessRepository) CountByPhysician(ctx context.Context, physicianID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&illness.Illness{}).
		Where("attending_physician_id = ?", physicianID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting illnesses by physician: %w", err)
	}
	return count, nil
}
