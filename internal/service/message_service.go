package service

import (
	"context"
	"fmt"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/message"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// ParticipantLookup resolves both sides of a conversation.
type ParticipantLookup interface {
	GetPatient(ctx context.Context, identityID uuid.UUID) (*profile.Profile, error)
	GetPhysician(ctx context.Context, identityID uuid.UUID) (*profile.Profile, error)
}

type MessageService struct {
	repo     message.Repository
	profiles ParticipantLookup
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewMessageService(repo message.Repository, profiles ParticipantLookup, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *MessageService {
	return &MessageService{
		repo:     repo,
		profiles: profiles,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
	}
}

type CreateMessageCommand struct {
	PatientID   uuid.UUID
	PhysicianID uuid.UUID
	Content     string
}

func (s *MessageService) CreateMessage(ctx context.Context, caller domain.Caller, cmd CreateMessageCommand) (*message.Message, error) {
	content, err := message.NormalizeContent(cmd.Content)
	if err != nil {
		return nil, err
	}

	if _, err := s.profiles.GetPatient(ctx, cmd.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetPhysician(ctx, cmd.PhysicianID); err != nil {
		return nil, err
	}

	m := &message.Message{
		ID:          uuid.New(),
		AuthorID:    caller.ID,
		PatientID:   cmd.PatientID,
		PhysicianID: cmd.PhysicianID,
		Content:     content,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.log.Error("failed to create message", zap.Error(err))
		return nil, fmt.Errorf("creating message: %w", err)
	}

	s.metrics.MessagesSent.Inc()
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, resourceMessage, m.ID.String()))

	return m, nil
}

// ListConversation returns the pair's history oldest first. An empty history
// is an empty list, not an error.
func (s *MessageService) ListConversation(ctx context.Context, patientID, physicianID uuid.UUID) ([]*message.Message, error) {
	list, err := s.repo.ListConversation(ctx, patientID, physicianID)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

// ListRecent returns the caller's latest conversations' messages, most
// recently modified first.
func (s *MessageService) ListRecent(ctx context.Context, caller domain.Caller, limit int) ([]*message.Message, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	list, err := s.repo.ListForParticipant(ctx, caller.ID, limit)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}
