package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assessment stores one AI-readiness assessment submission.
type Assessment struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProspectID string `gorm:"type:varchar(36);index" json:"prospect_id"`
	Email      string `gorm:"not null;index" json:"email"`
	Name       string `json:"name"`
	Type       string `gorm:"type:varchar(16);default:'enterprise'" json:"type"` // enterprise, personal

	Industry         string `json:"industry"`
	TeamSize         string `json:"team_size"`
	Role             string `json:"role"`
	BiggestChallenge string `json:"biggest_challenge"`
	Timeline         string `json:"timeline"`

	// Scores
	OverallScore     int    `json:"overall_score"`
	CurrentState     int    `json:"current_state"`
	StrategyVision   int    `json:"strategy_vision"`
	TeamCapabilities int    `json:"team_capabilities"`
	Implementation   int    `json:"implementation"`
	ReadinessLevel   string `gorm:"type:varchar(16)" json:"readiness_level"`

	Responses     datatypes.JSON `json:"responses,omitempty"`
	ReportEmailID string         `json:"report_email_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
