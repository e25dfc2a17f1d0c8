package services

import (
	"time"

	"leadengine/models"
	"leadengine/scoring"
)

var statusRank = map[models.Status]int{
	models.StatusNew:         0,
	models.StatusNurturing:   1,
	models.StatusQualified:   2,
	models.StatusContacted:   3,
	models.StatusOpportunity: 4,
	models.StatusClosed:      5,
}

var tierRank = map[models.Tier]int{
	models.TierOne:   1,
	models.TierTwo:   2,
	models.TierThree: 3,
	models.TierFour:  4,
}

// ScoringData builds the scoring snapshot for p as of now.
func ScoringData(p *models.Prospect, breakdown *scoring.ScoreBreakdown, now time.Time) scoring.LeadScoringData {
	data := scoring.LeadScoringData{
		AssessmentCompleted: p.AssessmentCompletedAt != nil,
		OverallScore:        p.AssessmentScore,
		ScoreBreakdown:      breakdown,
		EmailOpened:         p.EmailOpened,
		EmailClicked:        p.EmailClicked,
		CalendarBooked:      p.CalendarBookedAt != nil,
		ChatUsed:            p.ChatUsed,
	}
	if !p.CreatedAt.IsZero() {
		data.DaysSinceSignup = daysBetween(p.CreatedAt, now)
	}
	if p.AssessmentCompletedAt != nil {
		data.DaysSinceAssessment = daysBetween(*p.AssessmentCompletedAt, now)
	}
	return data
}

// Rescore refreshes the derived fields of p from its engagement facts.
// Status and tier only move forward; LeadScore is left alone. The follow-up
// date counts from the last engagement, so rescoring an idle prospect again
// yields the same date.
func Rescore(p *models.Prospect, breakdown *scoring.ScoreBreakdown, now time.Time) scoring.LeadScoreResult {
	result := scoring.CalculateLeadScore(ScoringData(p, breakdown, now))

	p.Temperature = result.Score
	p.Priority = result.Priority
	next := followUpAnchor(p, now).AddDate(0, 0, result.NextFollowUpDays)
	p.NextFollowUpAt = &next

	if derived := scoring.StatusFromScore(result.Score); statusRank[derived] > statusRank[p.Status] {
		p.Status = derived
	}
	if derived := scoring.TierFromPriority(result.Priority); p.Tier == "" || tierRank[derived] < tierRank[p.Tier] {
		p.Tier = derived
	}
	return result
}

func followUpAnchor(p *models.Prospect, now time.Time) time.Time {
	switch {
	case !p.LastEngagementAt.IsZero() && !p.LastEngagementAt.After(now):
		return p.LastEngagementAt
	case !p.CreatedAt.IsZero() && !p.CreatedAt.After(now):
		return p.CreatedAt
	}
	return now
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
