package message

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxContentLength = 500

// Message is immutable once written. Lists default to modified_at DESC; a
// conversation is read oldest first instead.
type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	ModifiedAt time.Time `gorm:"column:modified_at;autoUpdateTime;index" json:"modified_at"`

	AuthorID    uuid.UUID `gorm:"column:author_id;type:uuid;not null;index" json:"user"`
	PatientID   uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index:idx_chat_pair,priority:1" json:"patient"`
	PhysicianID uuid.UUID `gorm:"column:physician_id;type:uuid;not null;index:idx_chat_pair,priority:2" json:"physician"`

	Content string `gorm:"column:content;type:varchar(500);not null" json:"content"`
}

func (Message) TableName() string {
	return "clinical.chat_messages"
}

// NormalizeContent trims raw and enforces the length limit in runes.
func NormalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrContentRequired
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", ErrContentTooLong
	}
	return content, nil
}
