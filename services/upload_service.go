// services/upload_service.go - Stored photo retrieval
package services

import (
	"errors"
	"fmt"

	"github.com/la7jones92/spooky-race/models"

	"gorm.io/gorm"
)

type UploadService struct {
	db *gorm.DB
}

func NewUploadService(db *gorm.DB) *UploadService {
	return &UploadService{db: db}
}

// GetUpload loads a stored photo, bytes included.
func (s *UploadService) GetUpload(id string) (*models.Upload, error) {
	var upload models.Upload
	err := s.db.First(&upload, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: upload", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}
