package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/document"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/illness"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/message"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/middleware"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/service"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondOKMessage(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data, Message: message})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// errorMapping turns a sentinel into a response. An empty message means the
// sentinel's own text is returned.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{target: domain.ErrIdentityNotFound, status: http.StatusNotFound},
	{target: profile.ErrProfileNotFound, status: http.StatusNotFound},
	{target: profile.ErrPhysicianNotFound, status: http.StatusNotFound},
	{target: profile.ErrPatientNotFound, status: http.StatusNotFound},
	{target: illness.ErrIllnessNotFound, status: http.StatusNotFound},
	{target: document.ErrDocumentNotFound, status: http.StatusNotFound},

	{target: profile.ErrSelfAssignment, status: http.StatusBadRequest},
	{target: profile.ErrPhysicianHasPatients, status: http.StatusBadRequest},
	{target: profile.ErrPhysicianHasHistory, status: http.StatusBadRequest},
	{target: message.ErrContentRequired, status: http.StatusBadRequest},
	{target: message.ErrContentTooLong, status: http.StatusBadRequest},
	{target: domain.ErrInvalidRole, status: http.StatusBadRequest},

	{target: service.ErrForbidden, status: http.StatusForbidden, message: "access denied"},
	{target: service.ErrInvalidCredentials, status: http.StatusUnauthorized, message: "invalid credentials"},
	{target: service.ErrAccountInactive, status: http.StatusUnauthorized, code: "ACCOUNT_INACTIVE", message: "account is inactive"},
	{target: service.ErrAccountLocked, status: http.StatusTooManyRequests, code: "ACCOUNT_LOCKED", message: "account temporarily locked"},
	{target: storage.ErrUnavailable, status: http.StatusServiceUnavailable, code: "STORAGE_UNAVAILABLE", message: "document storage is temporarily unavailable"},
}

// respondServiceError maps service and domain errors onto HTTP statuses.
// Anything unrecognised is a 500 whose cause is logged, never returned.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
		return
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = m.target.Error()
		}
		c.JSON(m.status, ErrorResponse{Error: msg, Code: m.code})
		return
	}

	log.Error("unhandled service error",
		zap.String("path", c.FullPath()),
		zap.String("request_id", middleware.RequestIDFrom(c)),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// caller returns the authenticated caller or answers 401 itself.
func caller(c *gin.Context) (domain.Caller, bool) {
	who, ok := middleware.CallerFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return domain.Caller{}, false
	}
	return who, true
}
