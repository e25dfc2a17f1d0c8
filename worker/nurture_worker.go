package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"leadengine/middleware"
	"leadengine/models"
	"leadengine/services"
	"leadengine/store"
	"leadengine/utils"
)

const (
	nurtureInterval    = 30 * time.Second
	nurtureBatchSize   = 20
	nurtureMaxAttempts = 3
)

// NurtureWorker sends scheduled nurture emails once they fall due.
type NurtureWorker struct {
	Emails    store.NurtureStore
	Mailer    services.EmailTransport
	BaseURL   string
	Secret    string
	FromEmail string
	Logger    *logrus.Entry

	StartDelay  time.Duration
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int

	now func() time.Time
}

func NewNurtureWorker(emails store.NurtureStore, mailer services.EmailTransport, baseURL, secret, fromEmail string) *NurtureWorker {
	return &NurtureWorker{
		Emails:      emails,
		Mailer:      mailer,
		BaseURL:     baseURL,
		Secret:      secret,
		FromEmail:   fromEmail,
		Logger:      utils.ComponentLogger("nurture_worker"),
		StartDelay:  10 * time.Second,
		Interval:    nurtureInterval,
		BatchSize:   nurtureBatchSize,
		MaxAttempts: nurtureMaxAttempts,
		now:         time.Now,
	}
}

func (nw *NurtureWorker) Start(ctx context.Context) {
	// Let the server come up before the first batch
	select {
	case <-ctx.Done():
		return
	case <-time.After(nw.StartDelay):
	}

	nw.Logger.Info("Nurture worker started")

	ticker := time.NewTicker(nw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			nw.Logger.Info("Nurture worker shutting down...")
			return
		case <-ticker.C:
			nw.ProcessDue(ctx)
		}
	}
}

// ProcessDue sends one batch of due emails and returns how many went out.
func (nw *NurtureWorker) ProcessDue(ctx context.Context) int {
	due, err := nw.Emails.Due(ctx, nw.now(), nw.BatchSize)
	if err != nil {
		utils.LogError("nurture_due_failed", err, nil)
		return 0
	}

	sent := 0
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		if nw.send(ctx, &due[i]) {
			sent++
		}
	}

	if len(due) > 0 {
		nw.Logger.WithFields(logrus.Fields{
			"due":  len(due),
			"sent": sent,
		}).Info("Processed nurture batch")
	}
	return sent
}

func (nw *NurtureWorker) send(ctx context.Context, email *models.ScheduledEmail) bool {
	log := nw.Logger.WithFields(logrus.Fields{
		"scheduled_email_id": email.ID,
		"email":              email.Email,
		"email_number":       email.EmailNumber,
	})

	messageID := utils.NewMessageID(nw.FromEmail)
	id, err := nw.Mailer.Send(ctx, utils.Message{
		To:        email.Email,
		ToName:    email.Name,
		Subject:   email.Subject,
		HTML:      utils.InjectTracking(email.HTML, nw.BaseURL, nw.Secret, messageID),
		Tag:       "nurture",
		MessageID: messageID,
	})
	if err != nil {
		middleware.RecordEmail("nurture", false)
		log.WithError(err).WithField("attempt", email.Attempts+1).Warn("Nurture email failed")
		if merr := nw.Emails.MarkFailed(ctx, email, err, nw.MaxAttempts); merr != nil {
			utils.LogError("nurture_mark_failed", merr, map[string]interface{}{"scheduled_email_id": email.ID})
		}
		return false
	}

	middleware.RecordEmail("nurture", true)
	if err := nw.Emails.MarkSent(ctx, email.ID, id, nw.now()); err != nil {
		utils.LogError("nurture_mark_sent", err, map[string]interface{}{"scheduled_email_id": email.ID})
	}
	log.WithField("message_id", id).Debug("Nurture email sent")
	return true
}
