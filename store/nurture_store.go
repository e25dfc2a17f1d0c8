package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"leadengine/models"
)

// NurtureStore keeps scheduled nurture emails and their delivery state.
type NurtureStore interface {
	Schedule(ctx context.Context, emails []models.ScheduledEmail) error
	Due(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEmail, error)
	MarkSent(ctx context.Context, id uint, messageID string, at time.Time) error
	MarkFailed(ctx context.Context, email *models.ScheduledEmail, cause error, maxAttempts int) error
	CancelForEmail(ctx context.Context, email string) (int64, error)
	FindByMessageID(ctx context.Context, messageID string) (*models.ScheduledEmail, error)
	RecordOpen(ctx context.Context, messageID string, at time.Time) (*models.ScheduledEmail, error)
	RecordClick(ctx context.Context, messageID string, at time.Time) (*models.ScheduledEmail, error)
}

// GormNurtureStore implements NurtureStore on Postgres.
type GormNurtureStore struct {
	db *gorm.DB
}

func NewNurtureStore(db *gorm.DB) *GormNurtureStore {
	return &GormNurtureStore{db: db}
}

// Schedule inserts a whole sequence at once.
func (s *GormNurtureStore) Schedule(ctx context.Context, emails []models.ScheduledEmail) error {
	if len(emails) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&emails).Error
}

// Due returns scheduled emails whose send time has passed, oldest first.
func (s *GormNurtureStore) Due(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEmail, error) {
	var emails []models.ScheduledEmail
	err := s.db.WithContext(ctx).
		Where("status = ? AND send_at <= ?", models.EmailScheduled, now).
		Order("send_at asc").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

func (s *GormNurtureStore) MarkSent(ctx context.Context, id uint, messageID string, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.ScheduledEmail{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.EmailSent,
			"message_id": messageID,
			"sent_at":    at,
			"last_error": "",
		}).Error
}

// MarkFailed records a delivery attempt. The email stays scheduled until it
// has used up maxAttempts.
func (s *GormNurtureStore) MarkFailed(ctx context.Context, email *models.ScheduledEmail, cause error, maxAttempts int) error {
	email.Attempts++
	if cause != nil {
		email.LastError = cause.Error()
	}
	if email.Attempts >= maxAttempts {
		email.Status = models.EmailFailed
	}
	return s.db.WithContext(ctx).
		Model(&models.ScheduledEmail{}).
		Where("id = ?", email.ID).
		Updates(map[string]interface{}{
			"attempts":   email.Attempts,
			"last_error": email.LastError,
			"status":     email.Status,
		}).Error
}

// CancelForEmail cancels every pending email to the address.
func (s *GormNurtureStore) CancelForEmail(ctx context.Context, email string) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.ScheduledEmail{}).
		Where("email = ? AND status = ?", strings.ToLower(strings.TrimSpace(email)), models.EmailScheduled).
		Update("status", models.EmailCancelled)
	return res.RowsAffected, res.Error
}

// FindByMessageID returns nil, nil when no email carries messageID.
func (s *GormNurtureStore) FindByMessageID(ctx context.Context, messageID string) (*models.ScheduledEmail, error) {
	var email models.ScheduledEmail
	err := s.db.WithContext(ctx).Where("message_id = ?", messageID).First(&email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &email, nil
}

func (s *GormNurtureStore) RecordOpen(ctx context.Context, messageID string, at time.Time) (*models.ScheduledEmail, error) {
	return s.recordEngagement(ctx, messageID, "open_count", "opened_at", at)
}

func (s *GormNurtureStore) RecordClick(ctx context.Context, messageID string, at time.Time) (*models.ScheduledEmail, error) {
	return s.recordEngagement(ctx, messageID, "click_count", "clicked_at", at)
}

// recordEngagement bumps a counter and stamps the first occurrence. The
// returned email includes this event, so a count of 1 means first.
func (s *GormNurtureStore) recordEngagement(ctx context.Context, messageID, counter, stamp string, at time.Time) (*models.ScheduledEmail, error) {
	email, err := s.FindByMessageID(ctx, messageID)
	if err != nil || email == nil {
		return nil, err
	}

	updates := map[string]interface{}{
		counter: gorm.Expr(counter+" + ?", 1),
	}
	first := (stamp == "opened_at" && email.OpenedAt == nil) || (stamp == "clicked_at" && email.ClickedAt == nil)
	if first {
		updates[stamp] = at
	}
	err = s.db.WithContext(ctx).
		Model(&models.ScheduledEmail{}).
		Where("id = ?", email.ID).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}

	switch counter {
	case "open_count":
		email.OpenCount++
		if first {
			email.OpenedAt = &at
		}
	case "click_count":
		email.ClickCount++
		if first {
			email.ClickedAt = &at
		}
	}
	return email, nil
}
