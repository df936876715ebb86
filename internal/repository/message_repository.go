package repository

import (
	"context"
	"fmt"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/message"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

var _ message.Repository = (*MessageRepository)(nil)

func (r *MessageRepository) Create(ctx context.Context, m *message.Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListConversation(ctx context.Context, patientID, physicianID uuid.UUID) ([]*message.Message, error) {
	var out []*message.Message
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND physician_id = ?", patientID, physicianID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing conversation: %w", err)
	}
	return out, nil
}

func (r *MessageRepository) ListForParticipant(ctx context.Context, identityID uuid.UUID, limit int) ([]*message.Message, error) {
	var out []*message.Message
	err := r.db.WithContext(ctx).
		Where("patient_id = ? OR physician_id = ?", identityID, identityID).
		Order("modified_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing recent messages: %w", err)
	}
	return out, nil
}

func (r *MessageRepository) CountByPhysician(ctx context.Context, physicianID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("physician_id = ?", physicianID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting messages by physician: %w", err)
	}
	return count, nil
}
