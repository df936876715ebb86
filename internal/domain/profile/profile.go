package profile

import (
	"strings"
	"time"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain"
	"github.com/google/uuid"
)

type Kind string

const (
	KindPhysician Kind = "physician"
	KindPatient   Kind = "patient"
)

// Role is the identity role a profile of this kind implies.
func (k Kind) Role() domain.Role {
	if k == KindPhysician {
		return domain.RolePhysician
	}
	return domain.RolePatient
}

const (
	MaxNameLength           = 100
	MaxSpecialisationLength = 50
	MaxAgeCategoryLength    = 50
)

// Profile is the single row that extends an identity. Kind decides which of
// the variant columns are meaningful; callers should go through Variant.
type Profile struct {
	IdentityID uuid.UUID `gorm:"column:identity_id;type:uuid;primaryKey"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`

	Kind      Kind   `gorm:"column:kind;type:varchar(20);not null;index"`
	FirstName string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName  string `gorm:"column:last_name;type:varchar(100);not null"`

	// Physician only
	Specialisation string `gorm:"column:specialisation;type:varchar(50)"`

	// Patient only
	AgeCategory         string     `gorm:"column:age_category;type:varchar(50)"`
	AssignedPhysicianID *uuid.UUID `gorm:"column:assigned_physician_id;type:uuid;index"`
}

func (Profile) TableName() string {
	return "clinical.profiles"
}

// Variant is either a Physician or a Patient. The unexported method keeps
// the set closed to this package.
type Variant interface {
	kind() Kind
	applyTo(p *Profile)
}

type Physician struct {
	FirstName      string
	LastName       string
	Specialisation string
}

func (Physician) kind() Kind { return KindPhysician }

func (v Physician) applyTo(p *Profile) {
	p.Kind = KindPhysician
	p.FirstName = v.FirstName
	p.LastName = v.LastName
	p.Specialisation = v.Specialisation
	p.AgeCategory = ""
	p.AssignedPhysicianID = nil
}

type Patient struct {
	FirstName           string
	LastName            string
	AgeCategory         string
	AssignedPhysicianID uuid.UUID
}

func (Patient) kind() Kind { return KindPatient }

func (v Patient) applyTo(p *Profile) {
	physicianID := v.AssignedPhysicianID
	p.Kind = KindPatient
	p.FirstName = v.FirstName
	p.LastName = v.LastName
	p.Specialisation = ""
	p.AgeCategory = v.AgeCategory
	p.AssignedPhysicianID = &physicianID
}

// New builds the row for identityID holding v.
func New(identityID uuid.UUID, v Variant) *Profile {
	p := &Profile{IdentityID: identityID}
	v.applyTo(p)
	return p
}

// Set replaces the variant held by p, keeping its identity and timestamps.
func (p *Profile) Set(v Variant) {
	v.applyTo(p)
}

// Variant returns the typed view of the row, or nil for an unknown kind.
func (p *Profile) Variant() Variant {
	switch p.Kind {
	case KindPhysician:
		return Physician{
			FirstName:      p.FirstName,
			LastName:       p.LastName,
			Specialisation: p.Specialisation,
		}
	case KindPatient:
		v := Patient{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			AgeCategory: p.AgeCategory,
		}
		if p.AssignedPhysicianID != nil {
			v.AssignedPhysicianID = *p.AssignedPhysicianID
		}
		return v
	}
	return nil
}

func (p *Profile) IsPhysician() bool { return p.Kind == KindPhysician }
func (p *Profile) IsPatient() bool   { return p.Kind == KindPatient }

func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Partial updates: nil means "leave unchanged".

type UpdatePhysicianCommand struct {
	FirstName      *string
	LastName       *string
	Specialisation *string
}

type UpdatePatientCommand struct {
	FirstName           *string
	LastName            *string
	AgeCategory         *string
	AssignedPhysicianID *uuid.UUID
}

type PhysicianSummary struct {
	IdentityID     uuid.UUID `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Specialisation string    `json:"specialisation"`
}

func (p *Profile) PhysicianSummary() PhysicianSummary {
	return PhysicianSummary{
		IdentityID:     p.IdentityID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Specialisation: p.Specialisation,
	}
}

type PatientSummary struct {
	IdentityID          uuid.UUID  `json:"user_id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	AgeCategory         string     `json:"age_category"`
	AssignedPhysicianID *uuid.UUID `json:"physician,omitempty"`
}

func (p *Profile) PatientSummary() PatientSummary {
	return PatientSummary{
		IdentityID:          p.IdentityID,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		AgeCategory:         p.AgeCategory,
		AssignedPhysicianID: p.AssignedPhysicianID,
	}
}
