package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Yusuf-Babagana/smahi/internal/models"
)

// ApplicantService wraps applicant persistence for the intake and admin
// handlers.
type ApplicantService struct {
	DB *gorm.DB
}

func NewApplicantService(db *gorm.DB) *ApplicantService { return &ApplicantService{DB: db} }

// Create stores a new applicant record. Records are write-once; nothing in
// the portal mutates an applicant after creation.
func (s *ApplicantService) Create(app *models.Applicant) error {
	if err := s.DB.Create(app).Error; err != nil {
		return fmt.Errorf("create applicant: %w", err)
	}
	return nil
}

// Get fetches one applicant by id.
func (s *ApplicantService) Get(id uint) (*models.Applicant, error) {
	var app models.Applicant
	if err := s.DB.First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get applicant %d: %w", id, err)
	}
	return &app, nil
}

// Count returns the total number of submissions (landing page stat).
func (s *ApplicantService) Count() (int64, error) {
	var n int64
	if err := s.DB.Model(&models.Applicant{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count applicants: %w", err)
	}
	return n, nil
}

// List returns applicants newest first.
func (s *ApplicantService) List(limit int) ([]models.Applicant, error) {
	var apps []models.Applicant
	q := s.DB.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return apps, nil
}
