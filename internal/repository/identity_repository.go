package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create returns domain.ErrUsernameTaken when the username (case-insensitive)
// already exists.
func (r *IdentityRepository) Create(ctx context.Context, i *domain.Identity) error {
	err := r.db.WithContext(ctx).Create(i).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("inserting identity: %w", err)
	}
	return nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	var i domain.Identity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&i).Error
	return r.found(&i, err)
}

func (r *IdentityRepository) GetByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	var i domain.Identity
	err := r.db.WithContext(ctx).
		Where("lower(username) = ?", strings.ToLower(username)).
		First(&i).Error
	return r.found(&i, err)
}

func (r *IdentityRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Identity{}).
		Where("lower(username) = ?", strings.ToLower(username)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("counting identities: %w", err)
	}
	return count > 0, nil
}

// RecordLoginFailure bumps the failure counter in one statement and locks the
// account once it reaches maxAttempts.
func (r *IdentityRepository) RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error {
	lockedUntil := time.Now().UTC().Add(lockFor)
	err := r.db.WithContext(ctx).
		Model(&domain.Identity{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_count": gorm.Expr("failed_login_count + 1"),
			"locked_until": gorm.Expr(
				"CASE WHEN failed_login_count + 1 >= ? THEN ?::timestamptz ELSE locked_until END",
				maxAttempts, lockedUntil,
			),
		}).Error
	if err != nil {
		return fmt.Errorf("recording login failure: %w", err)
	}
	return nil
}

func (r *IdentityRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Identity{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_count": 0,
			"locked_until":       nil,
			"last_login_at":      time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("recording login success: %w", err)
	}
	return nil
}

func (r *IdentityRepository) found(i *domain.Identity, err error) (*domain.Identity, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading identity: %w", err)
	}
	return i, nil
}
