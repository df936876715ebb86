package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/illness"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PhysicianLookup resolves physician references.
type PhysicianLookup interface {
	GetPhysician(ctx context.Context, identityID uuid.UUID) (*profile.Profile, error)
}

type IllnessService struct {
	repo       illness.Repository
	physicians PhysicianLookup
	auditSvc   *AuditService
	metrics    *metrics.Collector
	log        *zap.Logger
}

func NewIllnessService(repo illness.Repository, physicians PhysicianLookup, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *IllnessService {
	return &IllnessService{
		repo:       repo,
		physicians: physicians,
		auditSvc:   auditSvc,
		metrics:    m,
		log:        log,
	}
}

type CreateIllnessCommand struct {
	Title                string
	Description          string
	AttendingPhysicianID *uuid.UUID
}

// CreateIllness records an illness authored by the caller.
func (s *IllnessService) CreateIllness(ctx context.Context, caller domain.Caller, cmd CreateIllnessCommand) (*illness.Illness, error) {
	i := &illness.Illness{
		ID:          uuid.New(),
		AuthorID:    caller.ID,
		Title:       strings.TrimSpace(cmd.Title),
		Description: strings.TrimSpace(cmd.Description),
	}
	if err := validateIllness(i); err != nil {
		return nil, err
	}

	if cmd.AttendingPhysicianID != nil {
		if _, err := s.physicians.GetPhysician(ctx, *cmd.AttendingPhysicianID); err != nil {
			return nil, err
		}
		physicianID := *cmd.AttendingPhysicianID
		i.AttendingPhysicianID = &physicianID
	}

	if err := s.repo.Create(ctx, i); err != nil {
		s.log.Error("failed to create illness", zap.Error(err))
		return nil, fmt.Errorf("creating illness: %w", err)
	}

	s.metrics.IllnessesRecorded.Inc()
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, resourceIllness, i.ID.String()))

	s.log.Info("illness recorded",
		zap.String("illness_id", i.ID.String()),
		zap.String("author_id", caller.ID.String()),
	)

	return i, nil
}

// UpdateIllness only ever finds records authored by the caller; anyone
// else's record is reported as not found and left untouched.
func (s *IllnessService) UpdateIllness(ctx context.Context, caller domain.Caller, id uuid.UUID, cmd illness.UpdateCommand) (*illness.Illness, error) {
	i, err := s.repo.GetForAuthor(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}

	if cmd.Title != nil {
		title := strings.TrimSpace(*cmd.Title)
		cmd.Title = &title
	}
	if cmd.Description != nil {
		desc := strings.TrimSpace(*cmd.Description)
		cmd.Description = &desc
	}
	if cmd.AttendingPhysicianID != nil {
		if _, err := s.physicians.GetPhysician(ctx, *cmd.AttendingPhysicianID); err != nil {
			return nil, err
		}
	}

	cmd.Apply(i)
	if err := validateIllness(i); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, i); err != nil {
		if errors.Is(err, illness.ErrIllnessNotFound) {
			return nil, err
		}
		s.log.Error("failed to update illness", zap.Error(err))
		return nil, fmt.Errorf("updating illness: %w", err)
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, resourceIllness, i.ID.String()))
	return i, nil
}

// ListIllnessForPatient is open to staff and to the patient themself.
func (s *IllnessService) ListIllnessForPatient(ctx context.Context, caller domain.Caller, patientID uuid.UUID) ([]*illness.Illness, error) {
	if !caller.IsStaff && caller.ID != patientID {
		return nil, ErrForbidden
	}

	list, err := s.repo.ListByAuthor(ctx, patientID)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionRead, resourceIllness, "patient:"+patientID.String()))
	return nonNil(list), nil
}

// ListIllnessForPhysician returns an empty list, not an error, when the
// physician does not exist.
func (s *IllnessService) ListIllnessForPhysician(ctx context.Context, physicianID uuid.UUID) ([]*illness.Illness, error) {
	if _, err := s.physicians.GetPhysician(ctx, physicianID); err != nil {
		if errors.Is(err, profile.ErrPhysicianNotFound) {
			return []*illness.Illness{}, nil
		}
		return nil, err
	}

	list, err := s.repo.ListByPhysician(ctx, physicianID)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

func validateIllness(i *illness.Illness) error {
	var errs fieldErrors
	switch {
	case i.Title == "":
		errs.add("title", "is required")
	case utf8.RuneCountInString(i.Title) > illness.MaxTitleLength:
		errs.add("title", fmt.Sprintf("must be at most %d characters", illness.MaxTitleLength))
	}
	return errs.err()
}
