package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/document"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// multipartOverhead is the allowance for form fields and boundaries on top
// of the file itself.
const multipartOverhead = 1 << 20

type documentService interface {
	Upload(ctx context.Context, caller domain.Caller, cmd service.UploadCommand) (*document.Document, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*document.Document, error)
	GetByID(ctx context.Context, caller domain.Caller, id uuid.UUID) (*document.Document, error)
	DownloadURL(ctx context.Context, d *document.Document) (string, error)
	Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error
}

type DocumentHandler struct {
	svc            documentService
	maxUploadBytes int64
	log            *zap.Logger
}

func NewDocumentHandler(svc documentService, maxUploadBytes int64, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, maxUploadBytes: maxUploadBytes, log: log}
}

type documentView struct {
	*document.Document
	DownloadURL string `json:"download_url,omitempty"`
}

// Upload takes multipart/form-data with a "file" part plus the
// "insurance_company" and optional "file_name" fields.
func (h *DocumentHandler) Upload(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	// FormFile parses the whole form, so it goes first: a body over the limit
	// surfaces here as *http.MaxBytesError.
	var cmd service.UploadCommand
	header, err := c.FormFile("file")
	switch {
	case err == nil:
		file, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "could not read uploaded file")
			return
		}
		defer file.Close()

		cmd.Blob = file
		cmd.BlobName = header.Filename
		cmd.Size = header.Size
		cmd.ContentType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
		// Left to the service, which reports it as a field error.
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "upload exceeds the allowed size")
			return
		}
		respondError(c, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	cmd.InsuranceCompany = c.PostForm("insurance_company")
	cmd.FileName = c.PostForm("file_name")

	d, err := h.svc.Upload(c.Request.Context(), who, cmd)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondCreated(c, d)
}

func (h *DocumentHandler) ListForOwner(c *gin.Context) {
	ownerID, ok := parseUUID(c, "owner_id")
	if !ok {
		return
	}

	list, err := h.svc.ListForOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, list)
}

// Get returns the metadata plus a short-lived download link. A storage outage
// still returns the metadata, just without the link.
func (h *DocumentHandler) Get(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.GetByID(c.Request.Context(), who, id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	view := documentView{Document: d}
	url, err := h.svc.DownloadURL(c.Request.Context(), d)
	if err != nil {
		h.log.Warn("failed to presign document download",
			zap.String("document_id", d.ID.String()),
			zap.Error(err),
		)
	} else {
		view.DownloadURL = url
	}

	respondOK(c, view)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), who, id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
