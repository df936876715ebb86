package v1

import (
	"context"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/message"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const noMessagesFound = "no messages found for this conversation"

type messageService interface {
	CreateMessage(ctx context.Context, caller domain.Caller, cmd service.CreateMessageCommand) (*message.Message, error)
	ListConversation(ctx context.Context, patientID, physicianID uuid.UUID) ([]*message.Message, error)
	ListRecent(ctx context.Context, caller domain.Caller, limit int) ([]*message.Message, error)
}

type MessageHandler struct {
	svc messageService
	log *zap.Logger
}

func NewMessageHandler(svc messageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, log: log}
}

type createMessageRequest struct {
	Patient   uuid.UUID `json:"patient" binding:"required"`
	Physician uuid.UUID `json:"physician" binding:"required"`
	Content   string    `json:"content"`
}

func (h *MessageHandler) Create(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req createMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.CreateMessage(c.Request.Context(), who, service.CreateMessageCommand{
		PatientID:   req.Patient,
		PhysicianID: req.Physician,
		Content:     req.Content,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondCreated(c, m)
}

func (h *MessageHandler) ListConversation(c *gin.Context) {
	patientID, ok := parseUUID(c, "patient_id")
	if !ok {
		return
	}
	physicianID, ok := parseUUID(c, "physician_id")
	if !ok {
		return
	}

	list, err := h.svc.ListConversation(c.Request.Context(), patientID, physicianID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	if len(list) == 0 {
		respondOKMessage(c, list, noMessagesFound)
		return
	}
	respondOK(c, list)
}

func (h *MessageHandler) ListRecent(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	list, err := h.svc.ListRecent(c.Request.Context(), who, parseQueryInt(c, "limit", 0))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, list)
}
