package service

import (
	"context"
	"sync"
	"time"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"go.uber.org/zap"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

const (
	auditQueueSize    = 10_000
	auditWriteTimeout = 5 * time.Second
	auditRetryDelay   = 100 * time.Millisecond
)

// AuditService keeps the access trail of clinical records. Entries are queued
// and written by one background worker so handlers never wait on the audit
// table; a full queue drops the entry and counts it.
type AuditService struct {
	repo    AuditRepository
	log     *zap.Logger
	metrics *metrics.Collector

	queue   chan *domain.AuditLog
	drained chan struct{}

	// closeMu guards queue against a send after close.
	closeMu sync.RWMutex
	closed  bool
}

func NewAuditService(repo AuditRepository, m *metrics.Collector, log *zap.Logger) *AuditService {
	return newAuditService(repo, m, log, auditQueueSize)
}

func newAuditService(repo AuditRepository, m *metrics.Collector, log *zap.Logger, size int) *AuditService {
	s := &AuditService{
		repo:    repo,
		log:     log.Named("audit"),
		metrics: m,
		queue:   make(chan *domain.AuditLog, size),
		drained: make(chan struct{}),
	}
	go s.run()
	return s
}

// LogAsync queues entry. It never blocks.
func (s *AuditService) LogAsync(_ context.Context, entry AuditEntry) {
	rec := entry.record()

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.queue <- rec:
	default:
		s.metrics.AuditBufferDropped.Inc()
		s.log.Warn("audit queue full, entry dropped",
			zap.String("action", string(rec.Action)),
			zap.String("resource_type", rec.ResourceType),
			zap.String("resource_id", rec.ResourceID),
		)
	}
}

// Shutdown stops accepting entries and waits for the queue to drain or ctx
// to end, whichever is first. Calling it again is a no-op.
func (s *AuditService) Shutdown(ctx context.Context) error {
	s.closeMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.closeMu.Unlock()

	select {
	case <-s.drained:
		return nil
	case <-ctx.Done():
		s.log.Warn("audit queue not drained before shutdown deadline", zap.Int("pending", len(s.queue)))
		return ctx.Err()
	}
}

func (s *AuditService) run() {
	defer close(s.drained)
	for rec := range s.queue {
		s.persist(rec)
	}
}

// persist gives each record one retry; the audit table sits on the primary
// and brief failovers are the usual cause of a failed write.
func (s *AuditService) persist(rec *domain.AuditLog) {
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		err := s.repo.Create(ctx, rec)
		cancel()

		if err == nil {
			s.metrics.AuditEntriesTotal.Inc()
			return
		}
		if attempt == 2 {
			s.log.Error("failed to persist audit entry",
				zap.String("action", string(rec.Action)),
				zap.String("resource_id", rec.ResourceID),
				zap.Error(err),
			)
			return
		}
		time.Sleep(auditRetryDelay)
	}
}

func (e AuditEntry) record() *domain.AuditLog {
	changes := e.Changes
	if changes == "" {
		changes = "{}"
	}
	return &domain.AuditLog{
		UserID:       e.UserID,
		UserRole:     e.UserRole,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		IPAddress:    e.IPAddress,
		RequestID:    e.RequestID,
		StatusCode:   e.StatusCode,
		Changes:      changes,
	}
}
