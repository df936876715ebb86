package document

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultFileName           = "insurance policy"
	MaxInsuranceCompanyLength = 300
	MaxFileNameLength         = 200
)

// Document is the metadata row for an uploaded insurance file. The bytes
// live in the blob store under StorageKey.
type Document struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UploadedAt time.Time `gorm:"autoCreateTime;index" json:"uploaded_at"`

	OwnerID          uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index" json:"user"`
	InsuranceCompany string    `gorm:"column:insurance_company;type:varchar(300);not null;default:''" json:"insurance_company"`
	FileName         string    `gorm:"column:file_name;type:varchar(200);not null;default:'insurance policy'" json:"file_name"`

	StorageKey  string `gorm:"column:storage_key;type:varchar(512);not null;uniqueIndex" json:"-"`
	ContentType string `gorm:"column:content_type;type:varchar(255)" json:"content_type"`
	SizeBytes   int64  `gorm:"column:size_bytes" json:"size_bytes"`
}

func (Document) TableName() string {
	return "insurance.documents"
}

func (d *Document) OwnedBy(identityID uuid.UUID) bool {
	return d.OwnerID == identityID
}
