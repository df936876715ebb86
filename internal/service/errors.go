package service

import (
	"errors"
	"strings"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/google/uuid"
)

var ErrForbidden = errors.New("forbidden: insufficient permissions")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// fieldErrors collects per-field problems and turns into a *ValidationError
// only when something was added.
type fieldErrors []string

func (f *fieldErrors) add(field, problem string) {
	*f = append(*f, field+": "+problem)
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

type AuditEntry struct {
	UserID       uuid.UUID
	UserRole     domain.Role
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	StatusCode   int
	Changes      string
}

const (
	resourceIdentity = "identity"
	resourceProfile  = "profile"
	resourceIllness  = "illness"
	resourceMessage  = "chat_message"
	resourceDocument = "insurance_document"
)

func auditEntry(caller domain.Caller, action domain.AuditAction, resourceType, resourceID string) AuditEntry {
	return AuditEntry{
		UserID:       caller.ID,
		UserRole:     caller.Role,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    caller.IP,
		RequestID:    caller.RequestID,
	}
}
