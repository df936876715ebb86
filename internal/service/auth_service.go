package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/auth"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
)

const maxFailedAttempts = 5

const lockDuration = 15 * time.Minute

const (
	minPasswordLength = 8
	maxUsernameLength = 150
)

type IdentityRepository interface {
	Create(ctx context.Context, i *domain.Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	GetByUsername(ctx context.Context, username string) (*domain.Identity, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error
	RecordLoginSuccess(ctx context.Context, id uuid.UUID) error
}

type AuthService struct {
	identities IdentityRepository
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	metrics    *metrics.Collector
	log        *zap.Logger
	hashCost   int
}

func NewAuthService(identities IdentityRepository, jwtManager *auth.JWTManager, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *AuthService {
	return &AuthService{
		identities: identities,
		jwtManager: jwtManager,
		auditSvc:   auditSvc,
		metrics:    m,
		log:        log,
		hashCost:   bcrypt.DefaultCost,
	}
}

type RegisterCommand struct {
	Username string
	Email    string
	Password string
	// Role seeds the identity role until a profile is saved. Empty means patient.
	Role string
}

// IdentityView is what an identity may see about itself.
type IdentityView struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	IsStaff  bool        `json:"is_staff"`
}

func viewOf(i *domain.Identity) *IdentityView {
	return &IdentityView{ID: i.ID, Username: i.Username, Email: i.Email, Role: i.Role, IsStaff: i.IsStaff}
}

func (s *AuthService) Register(ctx context.Context, cmd RegisterCommand, ip string) (*IdentityView, error) {
	username := strings.TrimSpace(cmd.Username)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	role := domain.Role(strings.TrimSpace(cmd.Role))
	if role == "" {
		role = domain.RolePatient
	}

	var errs fieldErrors
	switch {
	case username == "":
		errs.add("username", "is required")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		errs.add("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs.add("email", "must be a valid email address")
	}
	if err := validatePasswordStrength(cmd.Password); err != nil {
		errs.add("password", err.Error())
	}
	if !role.IsValid() {
		errs.add("role", domain.ErrInvalidRole.Error())
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	exists, err := s.identities.ExistsByUsername(ctx, username)
	if err != nil {
		s.log.Error("failed to check username uniqueness", zap.Error(err))
		return nil, fmt.Errorf("checking uniqueness: %w", err)
	}
	if exists {
		return nil, &ValidationError{Fields: []string{"username: " + domain.ErrUsernameTaken.Error()}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	identity := &domain.Identity{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, &ValidationError{Fields: []string{"username: " + domain.ErrUsernameTaken.Error()}}
		}
		s.log.Error("failed to create identity", zap.Error(err))
		return nil, fmt.Errorf("creating identity: %w", err)
	}

	s.metrics.IdentitiesRegistered.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       identity.ID,
		UserRole:     identity.Role,
		Action:       domain.ActionCreate,
		ResourceType: resourceIdentity,
		ResourceID:   identity.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("identity registered",
		zap.String("identity_id", identity.ID.String()),
		zap.String("role", string(identity.Role)),
	)

	return viewOf(identity), nil
}

func (s *AuthService) Login(ctx context.Context, username, password string, ip string) (*domain.TokenPair, error) {
	identity, err := s.identities.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, domain.ErrIdentityNotFound) {
			s.log.Error("failed to load identity for login", zap.Error(err))
		}
		// Spend the same bcrypt time as a real check so response timing does
		// not reveal whether the username exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
		s.metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	if !identity.IsActive {
		s.metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		return nil, ErrAccountInactive
	}

	if identity.LockedAt(time.Now()) {
		s.metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		if err := s.identities.RecordLoginFailure(ctx, identity.ID, maxFailedAttempts, lockDuration); err != nil {
			s.log.Error("failed to record login failure", zap.Error(err))
		}
		s.log.Warn("failed login attempt",
			zap.String("username", identity.Username),
			zap.String("ip", ip),
		)
		s.metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	if err := s.identities.RecordLoginSuccess(ctx, identity.ID); err != nil {
		s.log.Error("failed to record login success", zap.Error(err))
	}

	pair, err := s.jwtManager.GenerateTokenPair(claimsOf(identity))
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       identity.ID,
		UserRole:     identity.Role,
		Action:       domain.ActionLogin,
		ResourceType: resourceIdentity,
		ResourceID:   identity.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("identity logged in",
		zap.String("identity_id", identity.ID.String()),
		zap.String("ip", ip),
	)

	return pair, nil
}

// RefreshToken issues a new pair from a valid refresh token. The identity is
// re-read so a role changed by a profile save shows up in the new tokens.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	identity, err := s.identities.GetByID(ctx, claims.UserID)
	if err != nil || !identity.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(claimsOf(identity))
}

func (s *AuthService) Me(ctx context.Context, callerID uuid.UUID) (*IdentityView, error) {
	identity, err := s.identities.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return viewOf(identity), nil
}

func claimsOf(i *domain.Identity) *domain.Claims {
	return &domain.Claims{
		UserID:   i.ID,
		Username: i.Username,
		Role:     i.Role,
		IsStaff:  i.IsStaff,
	}
}

func validatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("must be at least %d characters", minPasswordLength)
	}
	return nil
}
