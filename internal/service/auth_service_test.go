package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/config"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/auth"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type authHarness struct {
	*harness
	auth *AuthService
	jwt  *auth.JWTManager
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()
	h := newHarness(t)
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-that-is-long-enough-123",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "carelink-test",
	})
	svc := NewAuthService(h.identities, jwtManager, h.audit, h.metrics, zap.NewNop())
	svc.hashCost = bcrypt.MinCost
	return &authHarness{harness: h, auth: svc, jwt: jwtManager}
}

func TestRegister(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()

	view, err := h.auth.Register(ctx, RegisterCommand{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct-horse",
	}, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "alice@example.com", view.Email)
	assert.Equal(t, domain.RolePatient, view.Role, "role defaults to patient")
	assert.False(t, view.IsStaff)

	stored, err := h.identities.GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.IdentitiesRegistered))
}

func TestRegister_Validation(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	_, err := h.auth.Register(ctx, RegisterCommand{Username: "taken", Email: "t@example.com", Password: "password1"}, "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		cmd   RegisterCommand
		field string
	}{
		{"empty username", RegisterCommand{Username: " ", Email: "a@example.com", Password: "password1"}, "username"},
		{"long username", RegisterCommand{Username: strings.Repeat("u", maxUsernameLength+1), Email: "a@example.com", Password: "password1"}, "username"},
		{"taken username", RegisterCommand{Username: "TAKEN", Email: "a@example.com", Password: "password1"}, "username"},
		{"bad email", RegisterCommand{Username: "a", Email: "not-an-email", Password: "password1"}, "email"},
		{"display name email", RegisterCommand{Username: "a", Email: "Alice <a@example.com>", Password: "password1"}, "email"},
		{"short password", RegisterCommand{Username: "a", Email: "a@example.com", Password: "short"}, "password"},
		{"bad role", RegisterCommand{Username: "a", Email: "a@example.com", Password: "password1", Role: "admin"}, "role"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.auth.Register(ctx, tc.cmd, "")

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.True(t, strings.HasPrefix(verr.Fields[0], tc.field+":"), verr.Fields[0])
		})
	}
}

func TestRegister_PhysicianHint(t *testing.T) {
	h := newAuthHarness(t)

	view, err := h.auth.Register(context.Background(), RegisterCommand{
		Username: "bob", Email: "bob@example.com", Password: "password1", Role: "physician",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePhysician, view.Role)
}

func TestLogin(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	view, err := h.auth.Register(ctx, RegisterCommand{Username: "alice", Email: "a@example.com", Password: "password1"}, "")
	require.NoError(t, err)

	pair, err := h.auth.Login(ctx, "alice", "password1", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := h.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, view.ID, claims.UserID)
	assert.Equal(t, domain.RolePatient, claims.Role)

	_, err = h.auth.Login(ctx, "nobody", "password1", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.LoginsTotal.WithLabelValues("success")))
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	_, err := h.auth.Register(ctx, RegisterCommand{Username: "alice", Email: "a@example.com", Password: "password1"}, "")
	require.NoError(t, err)

	for range maxFailedAttempts {
		_, err := h.auth.Login(ctx, "alice", "wrong-password", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = h.auth.Login(ctx, "alice", "password1", "")
	assert.ErrorIs(t, err, ErrAccountLocked, "even the right password is refused while locked")
}

func TestLogin_Inactive(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	view, err := h.auth.Register(ctx, RegisterCommand{Username: "alice", Email: "a@example.com", Password: "password1"}, "")
	require.NoError(t, err)

	h.store.mu.Lock()
	h.store.identities[view.ID].IsActive = false
	h.store.mu.Unlock()

	_, err = h.auth.Login(ctx, "alice", "password1", "")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

// A refresh after a profile save carries the new role.
func TestRefreshToken_PicksUpRoleChange(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	view, err := h.auth.Register(ctx, RegisterCommand{Username: "bob", Email: "bob@example.com", Password: "password1"}, "")
	require.NoError(t, err)

	pair, err := h.auth.Login(ctx, "bob", "password1", "")
	require.NoError(t, err)

	_, err = h.profiles.CreatePhysicianProfile(ctx, domain.Caller{ID: view.ID}, CreatePhysicianCommand{FirstName: "Bob", LastName: "Doe"})
	require.NoError(t, err)

	refreshed, err := h.auth.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := h.jwt.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RolePhysician, claims.Role)

	_, err = h.auth.RefreshToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "an access token cannot refresh")
}

func TestMe(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	view, err := h.auth.Register(ctx, RegisterCommand{Username: "alice", Email: "a@example.com", Password: "password1"}, "")
	require.NoError(t, err)

	me, err := h.auth.Me(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view, me)
}

func TestNewAuthService_DefaultCost(t *testing.T) {
	svc := NewAuthService(nil, nil, nil, metrics.NewCollector("test", prometheus.NewRegistry()), zap.NewNop())
	assert.Equal(t, bcrypt.DefaultCost, svc.hashCost)
}
