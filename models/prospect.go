package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Category is the prospect segment used for routing and tiering.
type Category string

const (
	CategoryEnterpriseAI        Category = "enterprise_ai"
	CategoryMinistryCoaching    Category = "ministry_coaching"
	CategoryInvestmentFund      Category = "investment_fund"
	CategoryStrategicConsulting Category = "strategic_consulting"
	CategorySpeaking            Category = "speaking_engagement"
	CategoryPlatformUser        Category = "platform_user"
	CategoryUndetermined        Category = "undetermined"
)

// Tier is a coarse value bucket. TierOne is the highest value.
type Tier string

const (
	TierOne   Tier = "tier_1"
	TierTwo   Tier = "tier_2"
	TierThree Tier = "tier_3"
	TierFour  Tier = "tier_4"
)

// Status is the informal pipeline stage of a prospect.
type Status string

const (
	StatusNew         Status = "new"
	StatusQualified   Status = "qualified"
	StatusContacted   Status = "contacted"
	StatusNurturing   Status = "nurturing"
	StatusOpportunity Status = "opportunity"
	StatusClosed      Status = "closed"
)

// ValidStatus reports whether s is one of the known pipeline stages.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusQualified, StatusContacted, StatusNurturing, StatusOpportunity, StatusClosed:
		return true
	}
	return false
}

// Prospect is the durable profile of a single lead.
type Prospect struct {
	ID      string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email   string `gorm:"index" json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Role    string `json:"role,omitempty"`

	// Scoring
	LeadScore int      `gorm:"not null;default:0" json:"lead_score"`
	Category  Category `gorm:"type:varchar(32);index;default:'undetermined'" json:"category"`
	Tier      Tier     `gorm:"type:varchar(16);index;default:'tier_4'" json:"tier"`

	// Last result of the scoring primitives
	Temperature    string     `gorm:"type:varchar(8)" json:"temperature,omitempty"` // hot, warm, cold
	Priority       int        `gorm:"default:1" json:"priority"`
	NextFollowUpAt *time.Time `json:"next_follow_up_at,omitempty"`

	// Behavioral
	Interests pq.StringArray `gorm:"type:text[]" json:"interests"`
	Source    string         `json:"source,omitempty"`
	UTMData   datatypes.JSON `gorm:"column:utm_data" json:"utm_data,omitempty"`
	Status    Status         `gorm:"type:varchar(16);index;default:'new'" json:"status"`

	// Engagement facts
	AssessmentCompletedAt *time.Time `json:"assessment_completed_at,omitempty"`
	AssessmentScore       int        `json:"assessment_score"`
	CalendarBookedAt      *time.Time `json:"calendar_booked_at,omitempty"`
	EmailOpened           bool       `gorm:"default:false" json:"email_opened"`
	EmailClicked          bool       `gorm:"default:false" json:"email_clicked"`
	ChatUsed              bool       `gorm:"default:false" json:"chat_used"`

	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	LastEngagementAt time.Time `json:"last_engagement_at"`

	// Relations
	History []ScoringHistory `gorm:"foreignKey:ProspectID" json:"history,omitempty"`
}

// HasInterest reports whether tag is among the prospect's interests.
func (p *Prospect) HasInterest(tag string) bool {
	for _, i := range p.Interests {
		if i == tag {
			return true
		}
	}
	return false
}

// AddInterests appends tags that are not present yet.
func (p *Prospect) AddInterests(tags ...string) {
	for _, t := range tags {
		if t == "" || p.HasInterest(t) {
			continue
		}
		p.Interests = append(p.Interests, t)
	}
}

// ScoringHistory is an append-only log of lead score changes.
type ScoringHistory struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ProspectID string         `gorm:"type:varchar(36);not null;index" json:"prospect_id"`
	Delta      int            `gorm:"not null" json:"delta"`
	NewTotal   int            `gorm:"not null" json:"new_total"`
	Reason     string         `gorm:"type:text" json:"reason"`
	Event      string         `gorm:"type:varchar(64);index" json:"event"`
	EventData  datatypes.JSON `json:"event_data,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
