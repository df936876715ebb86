package v1

import (
	"context"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type profileService interface {
	CreatePhysicianProfile(ctx context.Context, caller domain.Caller, cmd service.CreatePhysicianCommand) (*profile.Profile, error)
	CreatePatientProfile(ctx context.Context, caller domain.Caller, cmd service.CreatePatientCommand) (*profile.Profile, error)
	UpdatePhysicianProfile(ctx context.Context, caller domain.Caller, cmd profile.UpdatePhysicianCommand) (*profile.Profile, error)
	UpdatePatientProfile(ctx context.Context, caller domain.Caller, cmd profile.UpdatePatientCommand) (*profile.Profile, error)
	GetPatientProfile(ctx context.Context, caller domain.Caller, identityID uuid.UUID) (*service.PatientDetail, error)
	GetPhysicianProfile(ctx context.Context, identityID uuid.UUID) (*service.PhysicianDetail, error)
	ListPhysicians(ctx context.Context) ([]profile.PhysicianSummary, error)
	ListPhysicianPatients(ctx context.Context, physicianID uuid.UUID) ([]profile.PatientSummary, error)
}

type ProfileHandler struct {
	svc profileService
	log *zap.Logger
}

func NewProfileHandler(svc profileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

type physicianRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialisation string `json:"specialisation"`
}

type patientRequest struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	AgeCategory string     `json:"age_category"`
	Physician   *uuid.UUID `json:"physician"`
}

type updatePhysicianRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Specialisation *string `json:"specialisation"`
}

type updatePatientRequest struct {
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	AgeCategory *string    `json:"age_category"`
	Physician   *uuid.UUID `json:"physician"`
}

func (h *ProfileHandler) CreatePhysician(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req physicianRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.CreatePhysicianProfile(c.Request.Context(), who, service.CreatePhysicianCommand{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Specialisation: req.Specialisation,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondCreated(c, p.PhysicianSummary())
}

func (h *ProfileHandler) UpdatePhysician(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req updatePhysicianRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.UpdatePhysicianProfile(c.Request.Context(), who, profile.UpdatePhysicianCommand{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Specialisation: req.Specialisation,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, p.PhysicianSummary())
}

func (h *ProfileHandler) CreatePatient(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req patientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.CreatePatientProfile(c.Request.Context(), who, service.CreatePatientCommand{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		AgeCategory: req.AgeCategory,
		PhysicianID: req.Physician,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondCreated(c, p.PatientSummary())
}

func (h *ProfileHandler) UpdatePatient(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.UpdatePatientProfile(c.Request.Context(), who, profile.UpdatePatientCommand{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		AgeCategory:         req.AgeCategory,
		AssignedPhysicianID: req.Physician,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, p.PatientSummary())
}

func (h *ProfileHandler) GetPatient(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetPatientProfile(c.Request.Context(), who, id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, detail)
}

func (h *ProfileHandler) GetPhysician(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetPhysicianProfile(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, detail)
}

func (h *ProfileHandler) ListPhysicians(c *gin.Context) {
	list, err := h.svc.ListPhysicians(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, list)
}

func (h *ProfileHandler) ListPhysicianPatients(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.svc.ListPhysicianPatients(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, list)
}
