// models/upload.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upload is a stored bonus photo. Bytes live in the database; the API serves
// them back through /api/uploads/:id, so responses carry only the metadata.
type Upload struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	Filename    *string `json:"filename" gorm:"size:255"`
	ContentType string  `json:"contentType" gorm:"not null;size:100"`
	SizeBytes   int64   `json:"sizeBytes" gorm:"not null"`
	Data        []byte  `json:"-" gorm:"not null"`

	TeamID *string `json:"teamId" gorm:"size:36;index"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Upload) TableName() string {
	return "uploads"
}

func (u *Upload) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
