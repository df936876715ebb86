package message

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Message) error
	// ListConversation returns the pair's messages oldest first.
	ListConversation(ctx context.Context, patientID, physicianID uuid.UUID) ([]*Message, error)
	// ListForParticipant returns messages where identityID is the patient or
	// the physician, most recently modified first.
	ListForParticipant(ctx context.Context, identityID uuid.UUID, limit int) ([]*Message, error)
	// CountByPhysician counts messages in conversations where physicianID is
	// the physician side.
	CountByPhysician(ctx context.Context, physicianID uuid.UUID) (int64, error)
}
