package models

import (
	"time"

	"gorm.io/gorm"
)

// Scheduled email states
const (
	EmailScheduled = "scheduled"
	EmailSent      = "sent"
	EmailFailed    = "failed"
	EmailCancelled = "cancelled"
)

// ScheduledEmail is one step of a nurture sequence waiting for (or done with) delivery.
type ScheduledEmail struct {
	gorm.Model
	AssessmentID string `gorm:"type:varchar(36);index" json:"assessment_id"`
	ProspectID   string `gorm:"type:varchar(36);index" json:"prospect_id"`
	Email        string `gorm:"not null;index" json:"email"`
	Name         string `json:"name"`

	EmailNumber int    `gorm:"not null" json:"email_number"`
	Subject     string `gorm:"not null" json:"subject"`
	Preheader   string `json:"preheader"`
	HTML        string `gorm:"type:text" json:"-"`

	SendAt    time.Time  `gorm:"not null;index" json:"send_at"`
	Status    string     `gorm:"type:varchar(16);default:'scheduled';index" json:"status"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	MessageID string     `gorm:"index" json:"message_id,omitempty"`
	LastError string     `gorm:"type:text" json:"last_error,omitempty"`

	// Tracking
	OpenCount  int        `gorm:"default:0" json:"open_count"`
	ClickCount int        `gorm:"default:0" json:"click_count"`
	OpenedAt   *time.Time `json:"opened_at,omitempty"`
	ClickedAt  *time.Time `json:"clicked_at,omitempty"`
}
