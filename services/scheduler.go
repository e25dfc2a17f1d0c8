package services

import (
	"context"
	"strings"
	"time"

	"leadengine/models"
	"leadengine/store"
)

// StoreScheduler persists sequences for the nurture worker to deliver.
type StoreScheduler struct {
	emails store.NurtureStore
	now    func() time.Time
}

func NewStoreScheduler(emails store.NurtureStore) *StoreScheduler {
	return &StoreScheduler{emails: emails, now: time.Now}
}

// ScheduleSequence stores every email with its send time offset from now.
func (s *StoreScheduler) ScheduleSequence(ctx context.Context, req SequenceRequest) (int, error) {
	if len(req.Emails) == 0 {
		return 0, nil
	}

	now := s.now()
	rows := make([]models.ScheduledEmail, 0, len(req.Emails))
	for _, e := range req.Emails {
		rows = append(rows, models.ScheduledEmail{
			AssessmentID: req.AssessmentID,
			ProspectID:   req.ProspectID,
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			Name:         req.Name,
			EmailNumber:  e.EmailNumber,
			Subject:      e.Subject,
			Preheader:    e.Preheader,
			HTML:         e.HTML,
			SendAt:       now.AddDate(0, 0, e.SendAfterDays),
			Status:       models.EmailScheduled,
		})
	}

	if err := s.emails.Schedule(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
