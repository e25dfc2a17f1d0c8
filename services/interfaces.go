package services

import (
	"context"
	"time"

	"leadengine/models"
	"leadengine/nurture"
	"leadengine/utils"
)

// EmailTransport sends a single email and returns the provider message id.
type EmailTransport interface {
	Send(ctx context.Context, msg utils.Message) (string, error)
}

// SequenceRequest hands a generated nurture sequence to a scheduler.
type SequenceRequest struct {
	Email        string
	Name         string
	ProspectID   string
	AssessmentID string
	Emails       []nurture.NurtureEmail
}

// NurtureScheduler queues a nurture sequence for later delivery.
type NurtureScheduler interface {
	ScheduleSequence(ctx context.Context, req SequenceRequest) (int, error)
}

// Completer answers a single prompt.
type Completer interface {
	Complete(ctx context.Context, req utils.CompletionRequest) (string, error)
}

// ScoreEvent is published whenever a prospect's score changes.
type ScoreEvent struct {
	ProspectID string          `json:"prospectId"`
	Email      string          `json:"email"`
	Event      string          `json:"event"`
	Delta      int             `json:"delta"`
	NewTotal   int             `json:"newTotal"`
	Tier       models.Tier     `json:"tier"`
	Category   models.Category `json:"category"`
	At         time.Time       `json:"at"`
}

// EventPublisher fans score events out to live listeners.
type EventPublisher interface {
	Publish(ev ScoreEvent)
}
