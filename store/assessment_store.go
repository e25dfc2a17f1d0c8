package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadengine/models"
)

// AssessmentStore keeps assessment submissions.
type AssessmentStore interface {
	Save(ctx context.Context, a *models.Assessment) error
	Get(ctx context.Context, id string) (*models.Assessment, error)
	SetReportEmailID(ctx context.Context, id, emailID string) error
	ForProspect(ctx context.Context, prospectID string) ([]models.Assessment, error)
}

// GormAssessmentStore implements AssessmentStore on Postgres.
type GormAssessmentStore struct {
	db *gorm.DB
}

func NewAssessmentStore(db *gorm.DB) *GormAssessmentStore {
	return &GormAssessmentStore{db: db}
}

func (s *GormAssessmentStore) Save(ctx context.Context, a *models.Assessment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(a).Error
}

// Get returns nil, nil for an unknown id.
func (s *GormAssessmentStore) Get(ctx context.Context, id string) (*models.Assessment, error) {
	var a models.Assessment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *GormAssessmentStore) SetReportEmailID(ctx context.Context, id, emailID string) error {
	return s.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ?", id).
		Update("report_email_id", emailID).Error
}

func (s *GormAssessmentStore) ForProspect(ctx context.Context, prospectID string) ([]models.Assessment, error) {
	var out []models.Assessment
	err := s.db.WithContext(ctx).
		Where("prospect_id = ?", prospectID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
