package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/document"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlobStore holds the document bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key, downloadName string) (string, error)
}

type DocumentService struct {
	repo           document.Repository
	blobs          BlobStore
	maxUploadBytes int64
	auditSvc       *AuditService
	metrics        *metrics.Collector
	log            *zap.Logger
}

func NewDocumentService(repo document.Repository, blobs BlobStore, maxUploadBytes int64, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *DocumentService {
	return &DocumentService{
		repo:           repo,
		blobs:          blobs,
		maxUploadBytes: maxUploadBytes,
		auditSvc:       auditSvc,
		metrics:        m,
		log:            log,
	}
}

type UploadCommand struct {
	InsuranceCompany string
	// FileName is the display name. Empty means document.DefaultFileName.
	FileName string

	Blob        io.Reader
	BlobName    string
	Size        int64
	ContentType string
}

// Upload stores the blob and then its metadata row. If the row cannot be
// written the blob is removed again, so neither is left behind alone.
func (s *DocumentService) Upload(ctx context.Context, caller domain.Caller, cmd UploadCommand) (*document.Document, error) {
	company := strings.TrimSpace(cmd.InsuranceCompany)
	fileName := strings.TrimSpace(cmd.FileName)
	if fileName == "" {
		fileName = document.DefaultFileName
	}

	var errs fieldErrors
	switch {
	case cmd.Blob == nil || cmd.Size <= 0:
		errs.add("file", "a non-empty file is required")
	case s.maxUploadBytes > 0 && cmd.Size > s.maxUploadBytes:
		errs.add("file", fmt.Sprintf("must be at most %d bytes", s.maxUploadBytes))
	}
	if utf8.RuneCountInString(company) > document.MaxInsuranceCompanyLength {
		errs.add("insurance_company", fmt.Sprintf("must be at most %d characters", document.MaxInsuranceCompanyLength))
	}
	if utf8.RuneCountInString(fileName) > document.MaxFileNameLength {
		errs.add("file_name", fmt.Sprintf("must be at most %d characters", document.MaxFileNameLength))
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	d := &document.Document{
		ID:               uuid.New(),
		OwnerID:          caller.ID,
		InsuranceCompany: company,
		FileName:         fileName,
		ContentType:      cmd.ContentType,
		SizeBytes:        cmd.Size,
	}
	d.StorageKey = storage.DocumentKey(caller.ID, d.ID, cmd.BlobName)

	if err := s.blobs.Put(ctx, d.StorageKey, cmd.Blob, cmd.Size, cmd.ContentType); err != nil {
		s.metrics.BlobStoreErrors.WithLabelValues("put").Inc()
		s.log.Error("failed to store document blob",
			zap.String("document_id", d.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("storing blob: %w", err)
	}

	if err := s.repo.Create(ctx, d); err != nil {
		s.log.Error("failed to insert document row, removing blob",
			zap.String("document_id", d.ID.String()),
			zap.Error(err),
		)
		// The request context may already be done; the cleanup must still run.
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), d.StorageKey); delErr != nil {
			s.metrics.BlobStoreErrors.WithLabelValues("delete").Inc()
			s.log.Error("failed to remove orphaned blob",
				zap.String("storage_key", d.StorageKey),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("creating document: %w", err)
	}

	s.metrics.DocumentsUploaded.Inc()
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, resourceDocument, d.ID.String()))

	s.log.Info("document uploaded",
		zap.String("document_id", d.ID.String()),
		zap.String("owner_id", caller.ID.String()),
		zap.Int64("size", d.SizeBytes),
	)

	return d, nil
}

func (s *DocumentService) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*document.Document, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

func (s *DocumentService) GetByID(ctx context.Context, caller domain.Caller, id uuid.UUID) (*document.Document, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionRead, resourceDocument, id.String()))
	return d, nil
}

// DownloadURL presigns a short-lived GET for the document's blob.
func (s *DocumentService) DownloadURL(ctx context.Context, d *document.Document) (string, error) {
	url, err := s.blobs.PresignGet(ctx, d.StorageKey, d.FileName)
	if err != nil {
		return "", fmt.Errorf("presigning download: %w", err)
	}
	return url, nil
}

// Delete is owner only. The row and the blob go together: if the blob cannot
// be removed the row stays.
func (s *DocumentService) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !d.OwnedBy(caller.ID) {
		s.log.Warn("document delete denied",
			zap.String("document_id", id.String()),
			zap.String("caller_id", caller.ID.String()),
		)
		return ErrForbidden
	}

	err = s.repo.Delete(ctx, id, func(ctx context.Context) error {
		return s.blobs.Delete(ctx, d.StorageKey)
	})
	if err != nil {
		if errors.Is(err, document.ErrDocumentNotFound) {
			return err
		}
		s.metrics.BlobStoreErrors.WithLabelValues("delete").Inc()
		s.log.Error("failed to delete document",
			zap.String("document_id", id.String()),
			zap.Error(err),
		)
		return fmt.Errorf("deleting document: %w", err)
	}

	s.metrics.DocumentsDeleted.Inc()
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionDelete, resourceDocument, id.String()))
	return nil
}
