package v1

import (
	"context"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/illness"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type illnessService interface {
	CreateIllness(ctx context.Context, caller domain.Caller, cmd service.CreateIllnessCommand) (*illness.Illness, error)
	UpdateIllness(ctx context.Context, caller domain.Caller, id uuid.UUID, cmd illness.UpdateCommand) (*illness.Illness, error)
	ListIllnessForPatient(ctx context.Context, caller domain.Caller, patientID uuid.UUID) ([]*illness.Illness, error)
	ListIllnessForPhysician(ctx context.Context, physicianID uuid.UUID) ([]*illness.Illness, error)
}

type IllnessHandler struct {
	svc illnessService
	log *zap.Logger
}

func NewIllnessHandler(svc illnessService, log *zap.Logger) *IllnessHandler {
	return &IllnessHandler{svc: svc, log: log}
}

// The author is always the caller; a "user" field in the body is ignored.
type createIllnessRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Physician   *uuid.UUID `json:"physician"`
}

type updateIllnessRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Physician   *uuid.UUID `json:"physician"`
}

func (h *IllnessHandler) Create(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req createIllnessRequest
	if !bindJSON(c, &req) {
		return
	}

	i, err := h.svc.CreateIllness(c.Request.Context(), who, service.CreateIllnessCommand{
		Title:                req.Title,
		Description:          req.Description,
		AttendingPhysicianID: req.Physician,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondCreated(c, i)
}

func (h *IllnessHandler) Update(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateIllnessRequest
	if !bindJSON(c, &req) {
		return
	}

	i, err := h.svc.UpdateIllness(c.Request.Context(), who, id, illness.UpdateCommand{
		Title:                req.Title,
		Description:          req.Description,
		AttendingPhysicianID: req.Physician,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, i)
}

func (h *IllnessHandler) ListForPatient(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.svc.ListIllnessForPatient(c.Request.Context(), who, id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, list)
}

func (h *IllnessHandler) ListForPhysician(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.svc.ListIllnessForPhysician(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, list)
}
