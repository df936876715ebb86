package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrInvalidRole      = errors.New("role must be patient or physician")
	ErrUsernameTaken    = errors.New("username already exists")
)

type Role string

const (
	RolePatient   Role = "patient"
	RolePhysician Role = "physician"
)

func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RolePhysician:
		return true
	}
	return false
}

// Identity is an authenticated account. Role starts from the registration
// hint and afterwards always mirrors the kind of the last saved profile.
type Identity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Username     string `gorm:"column:username;type:varchar(150);uniqueIndex;not null"`
	Email        string `gorm:"column:email;type:varchar(255);not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	Role         Role   `gorm:"column:role;type:varchar(20);not null;index"`

	// Staff accounts may read any patient's illness history. Only settable
	// out of band, never through the API.
	IsStaff bool `gorm:"column:is_staff;default:false"`

	IsActive         bool       `gorm:"column:is_active;default:true;index"`
	FailedLoginCount int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil      *time.Time `gorm:"column:locked_until"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
}

func (Identity) TableName() string {
	return "auth.identities"
}

// LockedAt reports whether repeated login failures still lock the account at now.
func (i *Identity) LockedAt(now time.Time) bool {
	return i.LockedUntil != nil && now.Before(*i.LockedUntil)
}

// AssignRole moves the identity to role and reports whether anything changed.
func (i *Identity) AssignRole(role Role) (bool, error) {
	if !role.IsValid() {
		return false, ErrInvalidRole
	}
	if i.Role == role {
		return false, nil
	}
	i.Role = role
	return true, nil
}

// PublicIdentity is the subset of an identity that other users may see.
type PublicIdentity struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func (i *Identity) Public() PublicIdentity {
	return PublicIdentity{ID: i.ID, Username: i.Username, Email: i.Email}
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole  Role      `gorm:"column:user_role;type:varchar(20);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"`

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID  string `gorm:"column:request_id;type:varchar(50);index"`
	StatusCode int    `gorm:"column:status_code"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access"`
	RefreshToken string    `json:"refresh"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

// Claims is what an access token proves about its bearer.
type Claims struct {
	UserID   uuid.UUID `json:"sub"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
	IsStaff  bool      `json:"is_staff"`
}

// Caller is the authenticated identity behind a request, as seen by services.
type Caller struct {
	ID        uuid.UUID
	Role      Role
	IsStaff   bool
	IP        string
	RequestID string
}
