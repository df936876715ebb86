package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/illness"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/message"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IdentityReader is the read side of the identity store that profile
// assembly needs.
type IdentityReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
}

type ProfileService struct {
	profiles   profile.Repository
	identities IdentityReader
	illnesses  illness.Repository
	messages   message.Repository
	auditSvc   *AuditService
	metrics    *metrics.Collector
	log        *zap.Logger
}

func NewProfileService(
	profiles profile.Repository,
	identities IdentityReader,
	illnesses illness.Repository,
	messages message.Repository,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *ProfileService {
	return &ProfileService{
		profiles:   profiles,
		identities: identities,
		illnesses:  illnesses,
		messages:   messages,
		auditSvc:   auditSvc,
		metrics:    m,
		log:        log,
	}
}

type CreatePhysicianCommand struct {
	FirstName      string
	LastName       string
	Specialisation string
}

type CreatePatientCommand struct {
	FirstName   string
	LastName    string
	AgeCategory string
	PhysicianID *uuid.UUID
}

type PhysicianCard struct {
	profile.PhysicianSummary
	User domain.PublicIdentity `json:"user"`
}

type PatientDetail struct {
	profile.PatientSummary
	User      domain.PublicIdentity `json:"user"`
	Physician *PhysicianCard        `json:"physician_details,omitempty"`
	Illnesses []*illness.Illness    `json:"patient_illness"`
}

type PhysicianDetail struct {
	profile.PhysicianSummary
	User     domain.PublicIdentity    `json:"user"`
	Patients []profile.PatientSummary `json:"patients"`
}

// CreatePhysicianProfile upserts the caller's physician profile. Calling it
// again overwrites the previous values.
func (s *ProfileService) CreatePhysicianProfile(ctx context.Context, caller domain.Caller, cmd CreatePhysicianCommand) (*profile.Profile, error) {
	v := profile.Physician{
		FirstName:      strings.TrimSpace(cmd.FirstName),
		LastName:       strings.TrimSpace(cmd.LastName),
		Specialisation: strings.TrimSpace(cmd.Specialisation),
	}
	if err := validatePhysician(v); err != nil {
		return nil, err
	}

	existing, err := s.existingProfile(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	return s.save(ctx, caller, existing, v, domain.ActionCreate)
}

// CreatePatientProfile requires the referenced physician to exist. Nothing is
// written when it does not.
func (s *ProfileService) CreatePatientProfile(ctx context.Context, caller domain.Caller, cmd CreatePatientCommand) (*profile.Profile, error) {
	var errs fieldErrors
	if cmd.PhysicianID == nil || *cmd.PhysicianID == uuid.Nil {
		errs.add("physician", "is required")
	}
	v := profile.Patient{
		FirstName:   strings.TrimSpace(cmd.FirstName),
		LastName:    strings.TrimSpace(cmd.LastName),
		AgeCategory: strings.TrimSpace(cmd.AgeCategory),
	}
	validatePatientFields(v, &errs)
	if err := errs.err(); err != nil {
		return nil, err
	}
	v.AssignedPhysicianID = *cmd.PhysicianID

	if err := s.checkPhysicianRef(ctx, caller.ID, v.AssignedPhysicianID); err != nil {
		return nil, err
	}

	existing, err := s.existingProfile(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	return s.save(ctx, caller, existing, v, domain.ActionCreate)
}

func (s *ProfileService) UpdatePhysicianProfile(ctx context.Context, caller domain.Caller, cmd profile.UpdatePhysicianCommand) (*profile.Profile, error) {
	existing, err := s.profiles.GetPhysician(ctx, caller.ID)
	if errors.Is(err, profile.ErrPhysicianNotFound) {
		return nil, profile.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	v := existing.Variant().(profile.Physician)
	if cmd.FirstName != nil {
		v.FirstName = strings.TrimSpace(*cmd.FirstName)
	}
	if cmd.LastName != nil {
		v.LastName = strings.TrimSpace(*cmd.LastName)
	}
	if cmd.Specialisation != nil {
		v.Specialisation = strings.TrimSpace(*cmd.Specialisation)
	}
	if err := validatePhysician(v); err != nil {
		return nil, err
	}

	return s.save(ctx, caller, existing, v, domain.ActionUpdate)
}

// UpdatePatientProfile re-validates the physician reference when it changes.
func (s *ProfileService) UpdatePatientProfile(ctx context.Context, caller domain.Caller, cmd profile.UpdatePatientCommand) (*profile.Profile, error) {
	existing, err := s.profiles.GetPatient(ctx, caller.ID)
	if errors.Is(err, profile.ErrPatientNotFound) {
		return nil, profile.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	v := existing.Variant().(profile.Patient)
	if cmd.FirstName != nil {
		v.FirstName = strings.TrimSpace(*cmd.FirstName)
	}
	if cmd.LastName != nil {
		v.LastName = strings.TrimSpace(*cmd.LastName)
	}
	if cmd.AgeCategory != nil {
		v.AgeCategory = strings.TrimSpace(*cmd.AgeCategory)
	}

	var errs fieldErrors
	validatePatientFields(v, &errs)
	if cmd.AssignedPhysicianID != nil && *cmd.AssignedPhysicianID == uuid.Nil {
		errs.add("physician", "must be a valid physician id")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if cmd.AssignedPhysicianID != nil && *cmd.AssignedPhysicianID != v.AssignedPhysicianID {
		if err := s.checkPhysicianRef(ctx, caller.ID, *cmd.AssignedPhysicianID); err != nil {
			return nil, err
		}
		v.AssignedPhysicianID = *cmd.AssignedPhysicianID
	}

	return s.save(ctx, caller, existing, v, domain.ActionUpdate)
}

// GetPatientProfile assembles the patient's own fields, their identity, the
// assigned physician and their illness history (newest first).
func (s *ProfileService) GetPatientProfile(ctx context.Context, caller domain.Caller, identityID uuid.UUID) (*PatientDetail, error) {
	p, err := s.profiles.GetPatient(ctx, identityID)
	if errors.Is(err, profile.ErrPatientNotFound) {
		return nil, profile.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	detail := &PatientDetail{PatientSummary: p.PatientSummary()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		owner, err := s.identities.GetByID(gctx, identityID)
		if err != nil {
			return fmt.Errorf("loading patient identity: %w", err)
		}
		detail.User = owner.Public()
		return nil
	})
	g.Go(func() error {
		list, err := s.illnesses.ListByAuthor(gctx, identityID)
		if err != nil {
			return err
		}
		detail.Illnesses = nonNil(list)
		return nil
	})
	if p.AssignedPhysicianID != nil {
		physicianID := *p.AssignedPhysicianID
		g.Go(func() error {
			card, err := s.physicianCard(gctx, physicianID)
			if errors.Is(err, profile.ErrPhysicianNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			detail.Physician = card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionRead, resourceProfile, identityID.String()))
	return detail, nil
}

// GetPhysicianProfile assembles the physician's own fields, their identity and
// a flat list of assigned patients.
func (s *ProfileService) GetPhysicianProfile(ctx context.Context, identityID uuid.UUID) (*PhysicianDetail, error) {
	p, err := s.profiles.GetPhysician(ctx, identityID)
	if errors.Is(err, profile.ErrPhysicianNotFound) {
		return nil, profile.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	detail := &PhysicianDetail{PhysicianSummary: p.PhysicianSummary()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		owner, err := s.identities.GetByID(gctx, identityID)
		if err != nil {
			return fmt.Errorf("loading physician identity: %w", err)
		}
		detail.User = owner.Public()
		return nil
	})
	g.Go(func() error {
		patients, err := s.profiles.ListPatientsOf(gctx, identityID)
		if err != nil {
			return err
		}
		detail.Patients = patientSummaries(patients)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return detail, nil
}

func (s *ProfileService) ListPhysicians(ctx context.Context) ([]profile.PhysicianSummary, error) {
	physicians, err := s.profiles.ListPhysicians(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]profile.PhysicianSummary, 0, len(physicians))
	for _, p := range physicians {
		out = append(out, p.PhysicianSummary())
	}
	return out, nil
}

func (s *ProfileService) ListPhysicianPatients(ctx context.Context, physicianID uuid.UUID) ([]profile.PatientSummary, error) {
	if _, err := s.profiles.GetPhysician(ctx, physicianID); err != nil {
		if errors.Is(err, profile.ErrPhysicianNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}

	patients, err := s.profiles.ListPatientsOf(ctx, physicianID)
	if err != nil {
		return nil, err
	}
	return patientSummaries(patients), nil
}

// save applies v to the caller's profile (existing may be nil), moves the
// identity to the matching role and persists both together.
func (s *ProfileService) save(ctx context.Context, caller domain.Caller, existing *profile.Profile, v profile.Variant, action domain.AuditAction) (*profile.Profile, error) {
	owner, err := s.identities.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	var p *profile.Profile
	if existing != nil {
		if _, toPatient := v.(profile.Patient); toPatient && existing.IsPhysician() {
			if err := s.checkPhysicianRetirable(ctx, caller.ID); err != nil {
				return nil, err
			}
		}
		p = existing
		p.Set(v)
	} else {
		p = profile.New(caller.ID, v)
	}

	changed, err := owner.AssignRole(p.Kind.Role())
	if err != nil {
		return nil, err
	}

	if err := s.profiles.Save(ctx, p, owner); err != nil {
		s.log.Error("failed to save profile",
			zap.String("identity_id", caller.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	s.metrics.ProfilesSaved.WithLabelValues(string(p.Kind)).Inc()
	s.auditSvc.LogAsync(ctx, auditEntry(caller, action, resourceProfile, caller.ID.String()))

	s.log.Info("profile saved",
		zap.String("identity_id", caller.ID.String()),
		zap.String("kind", string(p.Kind)),
		zap.Bool("role_changed", changed),
	)

	return p, nil
}

// checkPhysicianRetirable refuses to turn a physician into a patient while
// patients, conversations or attended illnesses still reference them as the
// physician; those references would then point at a patient profile.
func (s *ProfileService) checkPhysicianRetirable(ctx context.Context, physicianID uuid.UUID) error {
	patients, err := s.profiles.CountPatientsOf(ctx, physicianID)
	if err != nil {
		return err
	}
	if patients > 0 {
		return profile.ErrPhysicianHasPatients
	}

	var messages, illnesses int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		messages, err = s.messages.CountByPhysician(gctx, physicianID)
		return err
	})
	g.Go(func() error {
		var err error
		illnesses, err = s.illnesses.CountByPhysician(gctx, physicianID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if messages > 0 || illnesses > 0 {
		return profile.ErrPhysicianHasHistory
	}
	return nil
}

func (s *ProfileService) existingProfile(ctx context.Context, identityID uuid.UUID) (*profile.Profile, error) {
	p, err := s.profiles.GetByIdentityID(ctx, identityID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) checkPhysicianRef(ctx context.Context, callerID, physicianID uuid.UUID) error {
	if physicianID == callerID {
		return profile.ErrSelfAssignment
	}
	if _, err := s.profiles.GetPhysician(ctx, physicianID); err != nil {
		return err
	}
	return nil
}

func (s *ProfileService) physicianCard(ctx context.Context, physicianID uuid.UUID) (*PhysicianCard, error) {
	p, err := s.profiles.GetPhysician(ctx, physicianID)
	if err != nil {
		return nil, err
	}
	owner, err := s.identities.GetByID(ctx, physicianID)
	if err != nil {
		return nil, fmt.Errorf("loading physician identity: %w", err)
	}
	return &PhysicianCard{PhysicianSummary: p.PhysicianSummary(), User: owner.Public()}, nil
}

func validatePhysician(v profile.Physician) error {
	var errs fieldErrors
	validateName("first_name", v.FirstName, &errs)
	validateName("last_name", v.LastName, &errs)
	if utf8.RuneCountInString(v.Specialisation) > profile.MaxSpecialisationLength {
		errs.add("specialisation", fmt.Sprintf("must be at most %d characters", profile.MaxSpecialisationLength))
	}
	return errs.err()
}

func validatePatientFields(v profile.Patient, errs *fieldErrors) {
	validateName("first_name", v.FirstName, errs)
	validateName("last_name", v.LastName, errs)
	if utf8.RuneCountInString(v.AgeCategory) > profile.MaxAgeCategoryLength {
		errs.add("age_category", fmt.Sprintf("must be at most %d characters", profile.MaxAgeCategoryLength))
	}
}

func validateName(field, value string, errs *fieldErrors) {
	switch {
	case value == "":
		errs.add(field, "is required")
	case utf8.RuneCountInString(value) > profile.MaxNameLength:
		errs.add(field, fmt.Sprintf("must be at most %d characters", profile.MaxNameLength))
	}
}

func patientSummaries(patients []*profile.Profile) []profile.PatientSummary {
	out := make([]profile.PatientSummary, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.PatientSummary())
	}
	return out
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
