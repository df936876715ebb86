package service

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/document"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/illness"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/message"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// In-memory stand-ins for the gorm repositories. One clock drives every
// timestamp so ordering assertions are deterministic.

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) tick() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type store struct {
	mu    sync.Mutex
	clock *fakeClock

	identities map[uuid.UUID]*domain.Identity
	profiles   map[uuid.UUID]*profile.Profile
	illnesses  map[uuid.UUID]*illness.Illness
	messages   []*message.Message
	documents  map[uuid.UUID]*document.Document
	audit      []*domain.AuditLog
}

func newStore() *store {
	return &store{
		clock:      &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		identities: make(map[uuid.UUID]*domain.Identity),
		profiles:   make(map[uuid.UUID]*profile.Profile),
		illnesses:  make(map[uuid.UUID]*illness.Illness),
		documents:  make(map[uuid.UUID]*document.Document),
	}
}

// --- identities ---

var _ IdentityRepository = (*fakeIdentityRepo)(nil)

type fakeIdentityRepo struct{ s *store }

func (r *fakeIdentityRepo) Create(_ context.Context, i *domain.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.identities {
		if strings.EqualFold(existing.Username, i.Username) {
			return domain.ErrUsernameTaken
		}
	}
	i.CreatedAt = r.s.clock.tick()
	cp := *i
	r.s.identities[i.ID] = &cp
	return nil
}

func (r *fakeIdentityRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.identities[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *fakeIdentityRepo) GetByUsername(_ context.Context, username string) (*domain.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, i := range r.s.identities {
		if strings.EqualFold(i.Username, username) {
			cp := *i
			return &cp, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *fakeIdentityRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrIdentityNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeIdentityRepo) RecordLoginFailure(_ context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.identities[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	i.FailedLoginCount++
	if i.FailedLoginCount >= maxAttempts {
		until := time.Now().Add(lockFor)
		i.LockedUntil = &until
	}
	return nil
}

func (r *fakeIdentityRepo) RecordLoginSuccess(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.identities[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	now := time.Now()
	i.FailedLoginCount = 0
	i.LockedUntil = nil
	i.LastLoginAt = &now
	return nil
}

// --- profiles ---

var _ profile.Repository = (*fakeProfileRepo)(nil)

type fakeProfileRepo struct {
	s *store

	SaveFunc      func(ctx context.Context, p *profile.Profile, owner *domain.Identity) error
	SaveCallCount int
}

func (r *fakeProfileRepo) get(id uuid.UUID, kind profile.Kind, notFound error) (*profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok || (kind != "" && p.Kind != kind) {
		return nil, notFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) GetByIdentityID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	return r.get(id, "", profile.ErrProfileNotFound)
}

func (r *fakeProfileRepo) GetPhysician(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	return r.get(id, profile.KindPhysician, profile.ErrPhysicianNotFound)
}

func (r *fakeProfileRepo) GetPatient(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	return r.get(id, profile.KindPatient, profile.ErrPatientNotFound)
}

func (r *fakeProfileRepo) filter(keep func(*profile.Profile) bool) []*profile.Profile {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*profile.Profile
	for _, p := range r.s.profiles {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *profile.Profile) int {
		if c := strings.Compare(a.LastName, b.LastName); c != 0 {
			return c
		}
		return strings.Compare(a.FirstName, b.FirstName)
	})
	return out
}

func (r *fakeProfileRepo) ListPhysicians(context.Context) ([]*profile.Profile, error) {
	return r.filter(func(p *profile.Profile) bool { return p.IsPhysician() }), nil
}

func (r *fakeProfileRepo) ListPatientsOf(_ context.Context, physicianID uuid.UUID) ([]*profile.Profile, error) {
	return r.filter(func(p *profile.Profile) bool {
		return p.IsPatient() && p.AssignedPhysicianID != nil && *p.AssignedPhysicianID == physicianID
	}), nil
}

func (r *fakeProfileRepo) CountPatientsOf(ctx context.Context, physicianID uuid.UUID) (int64, error) {
	patients, _ := r.ListPatientsOf(ctx, physicianID)
	return int64(len(patients)), nil
}

func (r *fakeProfileRepo) Save(ctx context.Context, p *profile.Profile, owner *domain.Identity) error {
	r.SaveCallCount++
	if r.SaveFunc != nil {
		if err := r.SaveFunc(ctx, p, owner); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	identity, ok := r.s.identities[owner.ID]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	cp := *p
	if existing, ok := r.s.profiles[p.IdentityID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = r.s.clock.tick()
	}
	cp.UpdatedAt = r.s.clock.tick()
	r.s.profiles[p.IdentityID] = &cp
	identity.Role = owner.Role
	return nil
}

// --- illnesses ---

var _ illness.Repository = (*fakeIllnessRepo)(nil)

type fakeIllnessRepo struct{ s *store }

func (r *fakeIllnessRepo) Create(_ context.Context, i *illness.Illness) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i.CreatedAt = r.s.clock.tick()
	i.UpdatedAt = i.CreatedAt
	cp := *i
	r.s.illnesses[i.ID] = &cp
	return nil
}

func (r *fakeIllnessRepo) GetForAuthor(_ context.Context, id, authorID uuid.UUID) (*illness.Illness, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.illnesses[id]
	if !ok || i.AuthorID != authorID {
		return nil, illness.ErrIllnessNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *fakeIllnessRepo) Update(_ context.Context, i *illness.Illness) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.illnesses[i.ID]
	if !ok || existing.AuthorID != i.AuthorID {
		return illness.ErrIllnessNotFound
	}
	i.UpdatedAt = r.s.clock.tick()
	cp := *i
	r.s.illnesses[i.ID] = &cp
	return nil
}

func (r *fakeIllnessRepo) list(keep func(*illness.Illness) bool) []*illness.Illness {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*illness.Illness
	for _, i := range r.s.illnesses {
		if keep(i) {
			cp := *i
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *illness.Illness) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (r *fakeIllnessRepo) ListByAuthor(_ context.Context, authorID uuid.UUID) ([]*illness.Illness, error) {
	return r.list(func(i *illness.Illness) bool { return i.AuthorID == authorID }), nil
}

func (r *fakeIllnessRepo) ListByPhysician(_ context.Context, physicianID uuid.UUID) ([]*illness.Illness, error) {
	return r.list(func(i *illness.Illness) bool {
		return i.AttendingPhysicianID != nil && *i.AttendingPhysicianID == physicianID
	}), nil
}

func (r *fakeIllnessRepo) CountByPhysician(ctx context.Context, physicianID uuid.UUID) (int64, error) {
	list, err := r.ListByPhysician(ctx, physicianID)
	return int64(len(list)), err
}

// --- messages ---

var _ message.Repository = (*fakeMessageRepo)(nil)

type fakeMessageRepo struct{ s *store }

func (r *fakeMessageRepo) Create(_ context.Context, m *message.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.CreatedAt = r.s.clock.tick()
	m.ModifiedAt = m.CreatedAt
	cp := *m
	r.s.messages = append(r.s.messages, &cp)
	return nil
}

func (r *fakeMessageRepo) ListConversation(_ context.Context, patientID, physicianID uuid.UUID) ([]*message.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*message.Message
	for _, m := range r.s.messages {
		if m.PatientID == patientID && m.PhysicianID == physicianID {
			cp := *m
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *message.Message) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *fakeMessageRepo) ListForParticipant(_ context.Context, identityID uuid.UUID, limit int) ([]*message.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*message.Message
	for _, m := range r.s.messages {
		if m.PatientID == identityID || m.PhysicianID == identityID {
			cp := *m
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *message.Message) int { return b.ModifiedAt.Compare(a.ModifiedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) CountByPhysician(_ context.Context, physicianID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.messages {
		if m.PhysicianID == physicianID {
			n++
		}
	}
	return n, nil
}

// --- documents ---

var _ document.Repository = (*fakeDocumentRepo)(nil)

type fakeDocumentRepo struct {
	s *store

	CreateFunc func(ctx context.Context, d *document.Document) error
}

func (r *fakeDocumentRepo) Create(ctx context.Context, d *document.Document) error {
	if r.CreateFunc != nil {
		if err := r.CreateFunc(ctx, d); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d.UploadedAt = r.s.clock.tick()
	cp := *d
	r.s.documents[d.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id uuid.UUID) (*document.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.documents[id]
	if !ok {
		return nil, document.ErrDocumentNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocumentRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*document.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*document.Document
	for _, d := range r.s.documents {
		if d.OwnerID == ownerID {
			cp := *d
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *document.Document) int { return b.UploadedAt.Compare(a.UploadedAt) })
	return out, nil
}

// Delete mirrors the transactional repository: the row only goes away when
// release succeeds.
func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID, release func(ctx context.Context) error) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if err := release(ctx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.documents, id)
	return nil
}

// --- audit ---

var _ AuditRepository = (*fakeAuditRepo)(nil)

type fakeAuditRepo struct {
	s *store

	CreateFunc func(ctx context.Context, entry *domain.AuditLog) error
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, entry)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, entry)
	return nil
}

func (s *store) auditEntries() []*domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.audit)
}

// --- blob store ---

var _ BlobStore = (*mockBlobStore)(nil)

type mockBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	PutFunc    func(ctx context.Context, key string) error
	DeleteFunc func(ctx context.Context, key string) error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(ctx context.Context, key string, body io.Reader, _ int64, _ string) error {
	if m.PutFunc != nil {
		if err := m.PutFunc(ctx, key); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		if err := m.DeleteFunc(ctx, key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *mockBlobStore) PresignGet(_ context.Context, key, downloadName string) (string, error) {
	return "https://blobs.example.test/" + key + "?name=" + downloadName, nil
}

func (m *mockBlobStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok
}

func (m *mockBlobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// --- wiring ---

type harness struct {
	store      *store
	metrics    *metrics.Collector
	audit      *AuditService
	blobs      *mockBlobStore
	identities *fakeIdentityRepo
	profileDB  *fakeProfileRepo
	documentDB *fakeDocumentRepo

	profiles  *ProfileService
	illnesses *IllnessService
	messages  *MessageService
	documents *DocumentService
}

const testMaxUpload = 1 << 10

func newHarness(t *testing.T) *harness {
	t.Helper()

	s := newStore()
	log := zap.NewNop()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	auditSvc := NewAuditService(&fakeAuditRepo{s: s}, m, log)
	t.Cleanup(func() { _ = auditSvc.Shutdown(context.Background()) })

	h := &harness{
		store:      s,
		metrics:    m,
		audit:      auditSvc,
		blobs:      newMockBlobStore(),
		identities: &fakeIdentityRepo{s: s},
		profileDB:  &fakeProfileRepo{s: s},
		documentDB: &fakeDocumentRepo{s: s},
	}
	illnessDB := &fakeIllnessRepo{s: s}

	messageDB := &fakeMessageRepo{s: s}
	h.profiles = NewProfileService(h.profileDB, h.identities, illnessDB, messageDB, auditSvc, m, log)
	h.illnesses = NewIllnessService(illnessDB, h.profileDB, auditSvc, m, log)
	h.messages = NewMessageService(messageDB, h.profileDB, auditSvc, m, log)
	h.documents = NewDocumentService(h.documentDB, h.blobs, testMaxUpload, auditSvc, m, log)
	return h
}

// identity registers a bare identity and returns it as a request caller.
func (h *harness) identity(t *testing.T, username string, role domain.Role) domain.Caller {
	t.Helper()
	i := &domain.Identity{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.test",
		Role:     role,
		IsActive: true,
	}
	if err := h.identities.Create(context.Background(), i); err != nil {
		t.Fatalf("creating identity %q: %v", username, err)
	}
	return domain.Caller{ID: i.ID, Role: role, IP: "127.0.0.1"}
}

func (h *harness) physician(t *testing.T, username string) domain.Caller {
	t.Helper()
	c := h.identity(t, username, domain.RolePatient)
	_, err := h.profiles.CreatePhysicianProfile(context.Background(), c, CreatePhysicianCommand{
		FirstName:      strings.ToUpper(username[:1]) + username[1:],
		LastName:       "Doe",
		Specialisation: "General",
	})
	if err != nil {
		t.Fatalf("creating physician %q: %v", username, err)
	}
	c.Role = domain.RolePhysician
	return c
}

func (h *harness) patient(t *testing.T, username string, physicianID uuid.UUID) domain.Caller {
	t.Helper()
	c := h.identity(t, username, domain.RolePatient)
	_, err := h.profiles.CreatePatientProfile(context.Background(), c, CreatePatientCommand{
		FirstName:   strings.ToUpper(username[:1]) + username[1:],
		LastName:    "Smith",
		AgeCategory: "adult",
		PhysicianID: &physicianID,
	})
	if err != nil {
		t.Fatalf("creating patient %q: %v", username, err)
	}
	return c
}

func (h *harness) roleOf(t *testing.T, id uuid.UUID) domain.Role {
	t.Helper()
	i, err := h.identities.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("loading identity: %v", err)
	}
	return i.Role
}

func ptr[T any](v T) *T { return &v }
