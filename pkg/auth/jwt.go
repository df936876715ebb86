package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/config"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew is tolerated on exp and nbf between hosts.
const clockSkew = 10 * time.Second

type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalid      = errors.New("token is invalid")
	ErrTokenTypeMismatch = errors.New("wrong token type")
)

type careClaims struct {
	jwt.RegisteredClaims
	Username string    `json:"username"`
	Role     string    `json:"role"`
	IsStaff  bool      `json:"is_staff"`
	Kind     tokenKind `json:"token_type"`
}

func (c *careClaims) caller() (*domain.Claims, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &domain.Claims{
		UserID:   id,
		Username: c.Username,
		Role:     domain.Role(c.Role),
		IsStaff:  c.IsStaff,
	}, nil
}

// JWTManager issues and verifies HS256 access/refresh pairs. The pair shares
// a key; the token_type claim keeps one from being used as the other.
type JWTManager struct {
	issuer string
	key    []byte
	ttl    map[tokenKind]time.Duration
	now    func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	return &JWTManager{
		issuer: cfg.Issuer,
		key:    []byte(cfg.Secret),
		ttl: map[tokenKind]time.Duration{
			kindAccess:  cfg.AccessTokenTTL,
			kindRefresh: cfg.RefreshTokenTTL,
		},
		now: time.Now,
	}
}

func (m *JWTManager) GenerateTokenPair(claims *domain.Claims) (*domain.TokenPair, error) {
	access, expiresAt, err := m.sign(claims, kindAccess)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, _, err := m.sign(claims, kindRefresh)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

func (m *JWTManager) ValidateAccessToken(token string) (*domain.Claims, error) {
	return m.verify(token, kindAccess)
}

func (m *JWTManager) ValidateRefreshToken(token string) (*domain.Claims, error) {
	return m.verify(token, kindRefresh)
}

func (m *JWTManager) sign(c *domain.Claims, kind tokenKind) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl[kind])

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, careClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   c.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: c.Username,
		Role:     string(c.Role),
		IsStaff:  c.IsStaff,
		Kind:     kind,
	}).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *JWTManager) verify(raw string, want tokenKind) (*domain.Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(m.now),
	)

	var claims careClaims
	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return m.key, nil })
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenInvalid
	case claims.Kind != want:
		return nil, ErrTokenTypeMismatch
	}
	return claims.caller()
}
