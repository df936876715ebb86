package v1

import (
	"context"
	"errors"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/document"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/illness"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/message"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/service"
	"github.com/google/uuid"
)

var errNotMocked = errors.New("not implemented in mock")

// --- auth ---

var _ authService = (*mockAuthService)(nil)

type mockAuthService struct {
	RegisterFunc func(ctx context.Context, cmd service.RegisterCommand, ip string) (*service.IdentityView, error)
	LoginFunc    func(ctx context.Context, username, password, ip string) (*domain.TokenPair, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	MeFunc       func(ctx context.Context, callerID uuid.UUID) (*service.IdentityView, error)
}

func (m *mockAuthService) Register(ctx context.Context, cmd service.RegisterCommand, ip string) (*service.IdentityView, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, cmd, ip)
	}
	return nil, errNotMocked
}

func (m *mockAuthService) Login(ctx context.Context, username, password, ip string) (*domain.TokenPair, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password, ip)
	}
	return nil, errNotMocked
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return nil, errNotMocked
}

func (m *mockAuthService) Me(ctx context.Context, callerID uuid.UUID) (*service.IdentityView, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, callerID)
	}
	return nil, errNotMocked
}

// --- profiles ---

var _ profileService = (*mockProfileService)(nil)

type mockProfileService struct {
	CreatePhysicianFunc       func(ctx context.Context, caller domain.Caller, cmd service.CreatePhysicianCommand) (*profile.Profile, error)
	CreatePatientFunc         func(ctx context.Context, caller domain.Caller, cmd service.CreatePatientCommand) (*profile.Profile, error)
	UpdatePhysicianFunc       func(ctx context.Context, caller domain.Caller, cmd profile.UpdatePhysicianCommand) (*profile.Profile, error)
	UpdatePatientFunc         func(ctx context.Context, caller domain.Caller, cmd profile.UpdatePatientCommand) (*profile.Profile, error)
	GetPatientFunc            func(ctx context.Context, caller domain.Caller, id uuid.UUID) (*service.PatientDetail, error)
	GetPhysicianFunc          func(ctx context.Context, id uuid.UUID) (*service.PhysicianDetail, error)
	ListPhysiciansFunc        func(ctx context.Context) ([]profile.PhysicianSummary, error)
	ListPhysicianPatientsFunc func(ctx context.Context, id uuid.UUID) ([]profile.PatientSummary, error)
}

func (m *mockProfileService) CreatePhysicianProfile(ctx context.Context, caller domain.Caller, cmd service.CreatePhysicianCommand) (*profile.Profile, error) {
	if m.CreatePhysicianFunc != nil {
		return m.CreatePhysicianFunc(ctx, caller, cmd)
	}
	return nil, errNotMocked
}

func (m *mockProfileService) CreatePatientProfile(ctx context.Context, caller domain.Caller, cmd service.CreatePatientCommand) (*profile.Profile, error) {
	if m.CreatePatientFunc != nil {
		return m.CreatePatientFunc(ctx, caller, cmd)
	}
	return nil, errNotMocked
}

func (m *mockProfileService) UpdatePhysicianProfile(ctx context.Context, caller domain.Caller, cmd profile.UpdatePhysicianCommand) (*profile.Profile, error) {
	if m.UpdatePhysicianFunc != nil {
		return m.UpdatePhysicianFunc(ctx, caller, cmd)
	}
	return nil, errNotMocked
}

func (m *mockProfileService) UpdatePatientProfile(ctx context.Context, caller domain.Caller, cmd profile.UpdatePatientCommand) (*profile.Profile, error) {
	if m.UpdatePatientFunc != nil {
		return m.UpdatePatientFunc(ctx, caller, cmd)
	}
	return nil, errNotMocked
}

func (m *mockProfileService) GetPatientProfile(ctx context.Context, caller domain.Caller, id uuid.UUID) (*service.PatientDetail, error) {
	if m.GetPatientFunc != nil {
		return m.GetPatientFunc(ctx, caller, id)
	}
	return nil, errNotMocked
}

func (m *mockProfileService) GetPhysicianProfile(ctx context.Context, id uuid.UUID) (*service.PhysicianDetail, error) {
	if m.GetPhysicianFunc != nil {
		return m.GetPhysicianFunc(ctx, id)
	}
	return nil, errNotMocked
}

func (m *mockProfileService) ListPhysicians(ctx context.Context) ([]profile.PhysicianSummary, error) {
	if m.ListPhysiciansFunc != nil {
		return m.ListPhysiciansFunc(ctx)
	}
	return nil, errNotMocked
}

func (m *mockProfileService) ListPhysicianPatients(ctx context.Context, id uuid.UUID) ([]profile.PatientSummary, error) {
	if m.ListPhysicianPatientsFunc != nil {
		return m.ListPhysicianPatientsFunc(ctx, id)
	}
	return nil, errNotMocked
}

// --- illnesses ---

var _ illnessService = (*mockIllnessService)(nil)

type mockIllnessService struct {
	CreateFunc           func(ctx context.Context, caller domain.Caller, cmd service.CreateIllnessCommand) (*illness.Illness, error)
	UpdateFunc           func(ctx context.Context, caller domain.Caller, id uuid.UUID, cmd illness.UpdateCommand) (*illness.Illness, error)
	ListForPatientFunc   func(ctx context.Context, caller domain.Caller, patientID uuid.UUID) ([]*illness.Illness, error)
	ListForPhysicianFunc func(ctx context.Context, physicianID uuid.UUID) ([]*illness.Illness, error)
}

func (m *mockIllnessService) CreateIllness(ctx context.Context, caller domain.Caller, cmd service.CreateIllnessCommand) (*illness.Illness, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, caller, cmd)
	}
	return nil, errNotMocked
}

func (m *mockIllnessService) UpdateIllness(ctx context.Context, caller domain.Caller, id uuid.UUID, cmd illness.UpdateCommand) (*illness.Illness, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, caller, id, cmd)
	}
	return nil, errNotMocked
}

func (m *mockIllnessService) ListIllnessForPatient(ctx context.Context, caller domain.Caller, patientID uuid.UUID) ([]*illness.Illness, error) {
	if m.ListForPatientFunc != nil {
		return m.ListForPatientFunc(ctx, caller, patientID)
	}
	return nil, errNotMocked
}

func (m *mockIllnessService) ListIllnessForPhysician(ctx context.Context, physicianID uuid.UUID) ([]*illness.Illness, error) {
	if m.ListForPhysicianFunc != nil {
		return m.ListForPhysicianFunc(ctx, physicianID)
	}
	return nil, errNotMocked
}

// --- messages ---

var _ messageService = (*mockMessageService)(nil)

type mockMessageService struct {
	CreateFunc           func(ctx context.Context, caller domain.Caller, cmd service.CreateMessageCommand) (*message.Message, error)
	ListConversationFunc func(ctx context.Context, patientID, physicianID uuid.UUID) ([]*message.Message, error)
	ListRecentFunc       func(ctx context.Context, caller domain.Caller, limit int) ([]*message.Message, error)
}

func (m *mockMessageService) CreateMessage(ctx context.Context, caller domain.Caller, cmd service.CreateMessageCommand) (*message.Message, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, caller, cmd)
	}
	return nil, errNotMocked
}

func (m *mockMessageService) ListConversation(ctx context.Context, patientID, physicianID uuid.UUID) ([]*message.Message, error) {
	if m.ListConversationFunc != nil {
		return m.ListConversationFunc(ctx, patientID, physicianID)
	}
	return nil, errNotMocked
}

func (m *mockMessageService) ListRecent(ctx context.Context, caller domain.Caller, limit int) ([]*message.Message, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, caller, limit)
	}
	return nil, errNotMocked
}

// --- documents ---

var _ documentService = (*mockDocumentService)(nil)

type mockDocumentService struct {
	UploadFunc       func(ctx context.Context, caller domain.Caller, cmd service.UploadCommand) (*document.Document, error)
	ListForOwnerFunc func(ctx context.Context, ownerID uuid.UUID) ([]*document.Document, error)
	GetByIDFunc      func(ctx context.Context, caller domain.Caller, id uuid.UUID) (*document.Document, error)
	DownloadURLFunc  func(ctx context.Context, d *document.Document) (string, error)
	DeleteFunc       func(ctx context.Context, caller domain.Caller, id uuid.UUID) error
}

func (m *mockDocumentService) Upload(ctx context.Context, caller domain.Caller, cmd service.UploadCommand) (*document.Document, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, caller, cmd)
	}
	return nil, errNotMocked
}

func (m *mockDocumentService) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*document.Document, error) {
	if m.ListForOwnerFunc != nil {
		return m.ListForOwnerFunc(ctx, ownerID)
	}
	return nil, errNotMocked
}

func (m *mockDocumentService) GetByID(ctx context.Context, caller domain.Caller, id uuid.UUID) (*document.Document, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, caller, id)
	}
	return nil, errNotMocked
}

func (m *mockDocumentService) DownloadURL(ctx context.Context, d *document.Document) (string, error) {
	if m.DownloadURLFunc != nil {
		return m.DownloadURLFunc(ctx, d)
	}
	return "", errNotMocked
}

func (m *mockDocumentService) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, caller, id)
	}
	return errNotMocked
}
