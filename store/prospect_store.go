// Package store persists prospects, their scoring history, assessments and
// scheduled nurture emails through GORM.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leadengine/models"
)

// ErrNotFound is returned when an update targets a missing row.
var ErrNotFound = errors.New("record not found")

// ProspectFilter narrows a prospect listing. Zero values are ignored.
type ProspectFilter struct {
	Category models.Category
	Tier     models.Tier
	Status   models.Status
	MinScore int
	Email    string
	Page     int
	Limit    int
}

// Normalize applies the page and limit defaults Query uses.
func (f ProspectFilter) Normalize() ProspectFilter {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return f
}

func (f ProspectFilter) pagination() (offset, limit int) {
	f = f.Normalize()
	return (f.Page - 1) * f.Limit, f.Limit
}

// ProspectStats summarizes the pipeline.
type ProspectStats struct {
	Total        int64            `json:"total"`
	AverageScore float64          `json:"averageScore"`
	ByTier       map[string]int64 `json:"byTier"`
	ByCategory   map[string]int64 `json:"byCategory"`
	ByStatus     map[string]int64 `json:"byStatus"`
}

// ProspectStore is the persistence boundary for prospect profiles.
type ProspectStore interface {
	Upsert(ctx context.Context, p *models.Prospect) (*models.Prospect, error)
	Get(ctx context.Context, idOrEmail string) (*models.Prospect, error)
	AppendHistory(ctx context.Context, entry *models.ScoringHistory) error
	History(ctx context.Context, prospectID string) ([]models.ScoringHistory, error)
	Query(ctx context.Context, filter ProspectFilter) ([]models.Prospect, int64, error)
	AddPoints(ctx context.Context, id string, delta int) (int, error)
	SaveDerived(ctx context.Context, p *models.Prospect) error
	UpdateStatus(ctx context.Context, id string, status models.Status) error
	Batch(ctx context.Context, afterID string, limit int) ([]models.Prospect, error)
	Stats(ctx context.Context) (*ProspectStats, error)
}

// GormProspectStore implements ProspectStore on Postgres.
type GormProspectStore struct {
	db *gorm.DB
}

// NewProspectStore returns a store over db.
func NewProspectStore(db *gorm.DB) *GormProspectStore {
	return &GormProspectStore{db: db}
}

// Upsert inserts p or merges it into the existing profile with the same email
// (or ID when there is no email). The stored profile is returned.
func (s *GormProspectStore) Upsert(ctx context.Context, p *models.Prospect) (*models.Prospect, error) {
	db := s.db.WithContext(ctx)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))

	var existing models.Prospect
	err := gorm.ErrRecordNotFound
	switch {
	case p.Email != "":
		err = db.Where("email = ?", p.Email).Order("created_at asc").First(&existing).Error
	case p.ID != "":
		err = db.Where("id = ?", p.ID).First(&existing).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.Interests == nil {
			p.Interests = []string{}
		}
		if err := db.Create(p).Error; err != nil {
			return nil, err
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	MergeProspect(&existing, p)
	if err := db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// MergeProspect folds incoming into existing. The lead score never goes
// down, interests accumulate, attribution is kept from the first touch and
// derived fields are overwritten.
func MergeProspect(existing, incoming *models.Prospect) {
	if incoming.LeadScore > existing.LeadScore {
		existing.LeadScore = incoming.LeadScore
	}
	existing.AddInterests(incoming.Interests...)

	if existing.Source == "" {
		existing.Source = incoming.Source
	}
	if len(existing.UTMData) == 0 {
		existing.UTMData = incoming.UTMData
	}

	if incoming.Category != "" && incoming.Category != models.CategoryUndetermined {
		existing.Category = incoming.Category
	}
	if incoming.Tier != "" {
		existing.Tier = incoming.Tier
	}
	if incoming.Status != "" {
		existing.Status = incoming.Status
	}
	if incoming.Temperature != "" {
		existing.Temperature = incoming.Temperature
	}
	if incoming.Priority != 0 {
		existing.Priority = incoming.Priority
	}
	if incoming.NextFollowUpAt != nil {
		existing.NextFollowUpAt = incoming.NextFollowUpAt
	}

	if existing.Name == "" {
		existing.Name = incoming.Name
	}
	if existing.Company == "" {
		existing.Company = incoming.Company
	}
	if existing.Role == "" {
		existing.Role = incoming.Role
	}

	if incoming.AssessmentCompletedAt != nil {
		existing.AssessmentCompletedAt = incoming.AssessmentCompletedAt
		existing.AssessmentScore = incoming.AssessmentScore
	}
	if incoming.CalendarBookedAt != nil {
		existing.CalendarBookedAt = incoming.CalendarBookedAt
	}
	existing.EmailOpened = existing.EmailOpened || incoming.EmailOpened
	existing.EmailClicked = existing.EmailClicked || incoming.EmailClicked
	existing.ChatUsed = existing.ChatUsed || incoming.ChatUsed

	if incoming.LastEngagementAt.After(existing.LastEngagementAt) {
		existing.LastEngagementAt = incoming.LastEngagementAt
	}
}

// Get finds a prospect by ID or, when the key looks like an email, by email.
// It returns nil, nil when nothing matches.
func (s *GormProspectStore) Get(ctx context.Context, idOrEmail string) (*models.Prospect, error) {
	db := s.db.WithContext(ctx)
	key := strings.TrimSpace(idOrEmail)
	if key == "" {
		return nil, nil
	}

	var p models.Prospect
	var err error
	if strings.Contains(key, "@") {
		err = db.Where("email = ?", strings.ToLower(key)).Order("created_at asc").First(&p).Error
	} else {
		err = db.Where("id = ?", key).First(&p).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AppendHistory writes an immutable history entry.
func (s *GormProspectStore) AppendHistory(ctx context.Context, entry *models.ScoringHistory) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// History returns a prospect's history, newest first.
func (s *GormProspectStore) History(ctx context.Context, prospectID string) ([]models.ScoringHistory, error) {
	var entries []models.ScoringHistory
	err := s.db.WithContext(ctx).
		Where("prospect_id = ?", prospectID).
		Order("created_at desc").
		Find(&entries).Error
	return entries, err
}

func applyFilter(tx *gorm.DB, f ProspectFilter) *gorm.DB {
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if f.Tier != "" {
		tx = tx.Where("tier = ?", f.Tier)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.MinScore > 0 {
		tx = tx.Where("lead_score >= ?", f.MinScore)
	}
	if f.Email != "" {
		tx = tx.Where("email LIKE ?", "%"+strings.ToLower(f.Email)+"%")
	}
	return tx
}

// Query lists prospects ordered by score, with the total match count.
func (s *GormProspectStore) Query(ctx context.Context, f ProspectFilter) ([]models.Prospect, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := applyFilter(db.Model(&models.Prospect{}), f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := f.pagination()
	var prospects []models.Prospect
	err := applyFilter(db.Model(&models.Prospect{}), f).
		Order("lead_score desc").
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&prospects).Error
	if err != nil {
		return nil, 0, err
	}
	return prospects, total, nil
}

// AddPoints atomically adds delta to the lead score and returns the new total.
func (s *GormProspectStore) AddPoints(ctx context.Context, id string, delta int) (int, error) {
	var p models.Prospect
	res := s.db.WithContext(ctx).
		Model(&p).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "lead_score"}}}).
		Where("id = ?", id).
		UpdateColumn("lead_score", gorm.Expr("lead_score + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return p.LeadScore, nil
}

var derivedColumns = []string{
	"tier", "status", "temperature", "priority", "next_follow_up_at",
	"assessment_completed_at", "assessment_score", "calendar_booked_at",
	"email_opened", "email_clicked", "chat_used", "last_engagement_at", "updated_at",
}

// SaveDerived writes everything except identity, attribution and the lead
// score, so it never races with AddPoints.
func (s *GormProspectStore) SaveDerived(ctx context.Context, p *models.Prospect) error {
	p.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).
		Model(&models.Prospect{}).
		Where("id = ?", p.ID).
		Select(derivedColumns).
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus moves a prospect along the pipeline.
func (s *GormProspectStore) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	res := s.db.WithContext(ctx).
		Model(&models.Prospect{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Batch pages through every prospect by ID.
func (s *GormProspectStore) Batch(ctx context.Context, afterID string, limit int) ([]models.Prospect, error) {
	var prospects []models.Prospect
	err := s.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Find(&prospects).Error
	return prospects, err
}

type groupCount struct {
	Key   string
	Count int64
}

// Stats counts prospects by tier, category and status.
func (s *GormProspectStore) Stats(ctx context.Context) (*ProspectStats, error) {
	db := s.db.WithContext(ctx)
	stats := &ProspectStats{
		ByTier:     map[string]int64{},
		ByCategory: map[string]int64{},
		ByStatus:   map[string]int64{},
	}

	if err := db.Model(&models.Prospect{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Prospect{}).Select("COALESCE(AVG(lead_score), 0)").Scan(&stats.AverageScore).Error; err != nil {
		return nil, err
	}

	groups := []struct {
		column string
		into   map[string]int64
	}{
		{"tier", stats.ByTier},
		{"category", stats.ByCategory},
		{"status", stats.ByStatus},
	}
	for _, g := range groups {
		var rows []groupCount
		err := db.Model(&models.Prospect{}).
			Select(g.column + " AS key, COUNT(*) AS count").
			Group(g.column).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			g.into[r.Key] = r.Count
		}
	}
	return stats, nil
}
