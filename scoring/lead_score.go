// Package scoring holds the additive lead score and the helpers shared by
// every caller that turns a score into a pipeline status or tier.
package scoring

import "leadengine/models"

// Temperature buckets
const (
	Hot  = "hot"
	Warm = "warm"
	Cold = "cold"
)

// LeadTag is a categorical marker attached to a score result.
type LeadTag string

const (
	TagAssessmentComplete LeadTag = "assessment_complete"
	TagHighScore          LeadTag = "high_score"
	TagReadyToBuy         LeadTag = "ready_to_buy"
	TagNeedsNurture       LeadTag = "needs_nurture"
	TagUnengaged          LeadTag = "unengaged"
)

// ScoreBreakdown holds the four assessment dimensions.
type ScoreBreakdown struct {
	CurrentState     int `json:"current_state"`
	StrategyVision   int `json:"strategy_vision"`
	TeamCapabilities int `json:"team_capabilities"`
	Implementation   int `json:"implementation"`
}

// Spread is max minus min over the four dimensions.
func (b ScoreBreakdown) Spread() int {
	values := []int{b.CurrentState, b.StrategyVision, b.TeamCapabilities, b.Implementation}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

// LeadScoringData is a snapshot of what is known about a lead. Every field
// is optional; zero values mean "not observed".
type LeadScoringData struct {
	AssessmentCompleted bool            `json:"assessmentCompleted"`
	OverallScore        int             `json:"overallScore"`
	ScoreBreakdown      *ScoreBreakdown `json:"scoreBreakdown,omitempty"`
	EmailOpened         bool            `json:"emailOpened"`
	EmailClicked        bool            `json:"emailClicked"`
	CalendarBooked      bool            `json:"calendarBooked"`
	ChatUsed            bool            `json:"chatUsed"`
	DaysSinceSignup     int             `json:"daysSinceSignup"`
	DaysSinceAssessment int             `json:"daysSinceAssessment"`
}

// LeadScoreResult is the ephemeral output of CalculateLeadScore.
type LeadScoreResult struct {
	Score             string    `json:"score"`
	Points            int       `json:"points"`
	Tags              []LeadTag `json:"tags"`
	Priority          int       `json:"priority"`
	RecommendedAction string    `json:"recommendedAction"`
	NextFollowUpDays  int       `json:"nextFollowUpDays"`
}

// HasTag reports whether the result carries tag.
func (r LeadScoreResult) HasTag(tag LeadTag) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

const (
	hotThreshold  = 70
	warmThreshold = 40

	imbalanceSpread = 30
)

// CalculateLeadScore runs the additive point system. A booked calendar
// always yields a hot result regardless of the arithmetic.
func CalculateLeadScore(data LeadScoringData) LeadScoreResult {
	points := 0
	var tags []LeadTag
	tag := func(t LeadTag) {
		for _, existing := range tags {
			if existing == t {
				return
			}
		}
		tags = append(tags, t)
	}

	if data.AssessmentCompleted {
		points += 30
		tag(TagAssessmentComplete)
	}

	if data.AssessmentCompleted || data.OverallScore > 0 {
		switch {
		case data.OverallScore >= 70:
			points += 20
			tag(TagHighScore)
			tag(TagReadyToBuy)
		case data.OverallScore >= 50:
			points += 10
		default:
			tag(TagNeedsNurture)
		}
	}

	if data.EmailOpened {
		points += 5
	}
	if data.EmailClicked {
		points += 15
	}
	if data.CalendarBooked {
		points += 35
		tag(TagReadyToBuy)
	}
	if data.ChatUsed {
		points += 15
	}

	if data.DaysSinceSignup > 30 && !data.AssessmentCompleted {
		points -= 10
		tag(TagUnengaged)
	}
	if data.AssessmentCompleted && data.DaysSinceAssessment > 14 && !data.CalendarBooked {
		points -= 5
	}

	if data.ScoreBreakdown != nil && data.ScoreBreakdown.Spread() > imbalanceSpread {
		points += 10
	}

	points = clamp(points, 0, 100)

	result := LeadScoreResult{Points: points, Tags: tags}
	if result.Tags == nil {
		result.Tags = []LeadTag{}
	}

	switch {
	case points >= hotThreshold:
		result.Score = Hot
		result.Priority = 5
		result.NextFollowUpDays = 1
		result.RecommendedAction = "Reach out personally within 24 hours and offer a strategy call."
	case points >= warmThreshold:
		result.Score = Warm
		result.Priority = 3
		result.NextFollowUpDays = 3
		result.RecommendedAction = "Keep nurturing with targeted content and invite to book a call."
	default:
		result.Score = Cold
		result.Priority = 1
		result.NextFollowUpDays = 7
		result.RecommendedAction = "Continue the automated nurture sequence."
	}

	if data.CalendarBooked {
		result.Score = Hot
		result.Priority = 5
		result.NextFollowUpDays = 0
		result.RecommendedAction = "Prepare for the booked call and review the assessment results."
	}

	return result
}

// StatusFromScore maps a temperature to a pipeline status.
func StatusFromScore(temperature string) models.Status {
	switch temperature {
	case Hot:
		return models.StatusQualified
	case Warm:
		return models.StatusNurturing
	default:
		return models.StatusNew
	}
}

// TierFromPriority maps a 1-5 priority to a tier.
func TierFromPriority(priority int) models.Tier {
	switch {
	case priority >= 5:
		return models.TierOne
	case priority >= 4:
		return models.TierTwo
	case priority >= 2:
		return models.TierThree
	default:
		return models.TierFour
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
