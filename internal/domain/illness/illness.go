package illness

import (
	"time"

	"github.com/google/uuid"
)

const MaxTitleLength = 100

// Illness is one entry in a patient's history. A patient may have many.
type Illness struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	AuthorID             uuid.UUID  `gorm:"column:author_id;type:uuid;not null;index" json:"user"`
	AttendingPhysicianID *uuid.UUID `gorm:"column:attending_physician_id;type:uuid;index" json:"physician,omitempty"`

	Title       string `gorm:"column:title;type:varchar(100);not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`
}

func (Illness) TableName() string {
	return "clinical.illnesses"
}

type UpdateCommand struct {
	Title                *string
	Description          *string
	AttendingPhysicianID *uuid.UUID
}

// Apply copies every supplied field onto i.
func (c UpdateCommand) Apply(i *Illness) {
	if c.Title != nil {
		i.Title = *c.Title
	}
	if c.Description != nil {
		i.Description = *c.Description
	}
	if c.AttendingPhysicianID != nil {
		id := *c.AttendingPhysicianID
		i.AttendingPhysicianID = &id
	}
}
