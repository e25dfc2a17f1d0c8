package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadengine/models"
)

func TestCalculateLeadScoreCompletionAndHighScoreIsWarm(t *testing.T) {
	result := CalculateLeadScore(LeadScoringData{AssessmentCompleted: true, OverallScore: 85})

	assert.Equal(t, 50, result.Points)
	assert.Equal(t, Warm, result.Score)
	assert.Equal(t, 3, result.Priority)
	assert.Equal(t, 3, result.NextFollowUpDays)
	assert.Equal(t, []LeadTag{TagAssessmentComplete, TagHighScore, TagReadyToBuy}, result.Tags)
}

func TestCalculateLeadScoreImbalanceBonus(t *testing.T) {
	result := CalculateLeadScore(LeadScoringData{
		AssessmentCompleted: true,
		OverallScore:        30,
		ScoreBreakdown: &ScoreBreakdown{
			CurrentState:     10,
			StrategyVision:   80,
			TeamCapabilities: 20,
			Implementation:   15,
		},
	})

	assert.Equal(t, 40, result.Points)
	assert.Equal(t, Warm, result.Score)
	assert.True(t, result.HasTag(TagNeedsNurture))
	assert.False(t, result.HasTag(TagHighScore))
}

func TestCalculateLeadScoreMidScore(t *testing.T) {
	result := CalculateLeadScore(LeadScoringData{AssessmentCompleted: true, OverallScore: 55})

	assert.Equal(t, 40, result.Points)
	assert.False(t, result.HasTag(TagNeedsNurture))
}

func TestCalculateLeadScoreEngagementMakesHot(t *testing.T) {
	result := CalculateLeadScore(LeadScoringData{
		AssessmentCompleted: true,
		OverallScore:        72,
		EmailOpened:         true,
		EmailClicked:        true,
	})

	assert.Equal(t, 70, result.Points)
	assert.Equal(t, Hot, result.Score)
	assert.Equal(t, 5, result.Priority)
	assert.Equal(t, 1, result.NextFollowUpDays)
}

func TestCalculateLeadScorePenalties(t *testing.T) {
	t.Run("unengaged signup", func(t *testing.T) {
		result := CalculateLeadScore(LeadScoringData{DaysSinceSignup: 45, ChatUsed: true})
		assert.Equal(t, 5, result.Points)
		assert.True(t, result.HasTag(TagUnengaged))
		assert.Equal(t, Cold, result.Score)
	})

	t.Run("stale assessment without booking", func(t *testing.T) {
		result := CalculateLeadScore(LeadScoringData{
			AssessmentCompleted: true,
			OverallScore:        60,
			DaysSinceAssessment: 20,
		})
		assert.Equal(t, 35, result.Points)
		assert.Equal(t, Cold, result.Score)
	})

	t.Run("penalty never goes below zero", func(t *testing.T) {
		result := CalculateLeadScore(LeadScoringData{DaysSinceSignup: 90})
		assert.Equal(t, 0, result.Points)
		assert.Equal(t, 1, result.Priority)
		assert.Equal(t, 7, result.NextFollowUpDays)
	})
}

func TestCalculateLeadScorePointsStayInRange(t *testing.T) {
	breakdowns := []*ScoreBreakdown{
		nil,
		{CurrentState: 0, StrategyVision: 100, TeamCapabilities: 0, Implementation: 100},
		{CurrentState: 50, StrategyVision: 50, TeamCapabilities: 50, Implementation: 50},
	}
	bools := []bool{false, true}

	for _, completed := range bools {
		for _, overall := range []int{0, 30, 55, 100} {
			for _, opened := range bools {
				for _, clicked := range bools {
					for _, booked := range bools {
						for _, chat := range bools {
							for _, days := range []int{0, 31, 365} {
								for _, b := range breakdowns {
									result := CalculateLeadScore(LeadScoringData{
										AssessmentCompleted: completed,
										OverallScore:        overall,
										ScoreBreakdown:      b,
										EmailOpened:         opened,
										EmailClicked:        clicked,
										CalendarBooked:      booked,
										ChatUsed:            chat,
										DaysSinceSignup:     days,
										DaysSinceAssessment: days,
									})
									require.GreaterOrEqual(t, result.Points, 0)
									require.LessOrEqual(t, result.Points, 100)
								}
							}
						}
					}
				}
			}
		}
	}
}

func TestCalculateLeadScoreBookingOverride(t *testing.T) {
	cases := []LeadScoringData{
		{CalendarBooked: true},
		{CalendarBooked: true, DaysSinceSignup: 400},
		{CalendarBooked: true, AssessmentCompleted: true, OverallScore: 5, DaysSinceAssessment: 200},
		{CalendarBooked: true, AssessmentCompleted: true, OverallScore: 99, EmailOpened: true, EmailClicked: true, ChatUsed: true},
	}

	for _, data := range cases {
		result := CalculateLeadScore(data)
		assert.Equal(t, Hot, result.Score)
		assert.Equal(t, 5, result.Priority)
		assert.Equal(t, 0, result.NextFollowUpDays)
		assert.True(t, result.HasTag(TagReadyToBuy))
	}
}

func TestCalculateLeadScoreEmptyInput(t *testing.T) {
	result := CalculateLeadScore(LeadScoringData{})

	assert.Equal(t, 0, result.Points)
	assert.Equal(t, Cold, result.Score)
	assert.NotNil(t, result.Tags)
	assert.Empty(t, result.Tags)
}

func TestStatusAndTierHelpers(t *testing.T) {
	assert.Equal(t, models.StatusQualified, StatusFromScore(Hot))
	assert.Equal(t, models.StatusNurturing, StatusFromScore(Warm))
	assert.Equal(t, models.StatusNew, StatusFromScore(Cold))
	assert.Equal(t, models.StatusNew, StatusFromScore(""))

	assert.Equal(t, models.TierOne, TierFromPriority(5))
	assert.Equal(t, models.TierTwo, TierFromPriority(4))
	assert.Equal(t, models.TierThree, TierFromPriority(3))
	assert.Equal(t, models.TierFour, TierFromPriority(1))
}

func TestEvents(t *testing.T) {
	e, err := ParseEvent("calendar_booked")
	require.NoError(t, err)
	assert.Equal(t, EventCalendarBooked, e)
	assert.Equal(t, 35, e.Points())

	_, err = ParseEvent("unsubscribed")
	assert.Error(t, err)

	for name := range eventPoints {
		assert.Positive(t, name.Points(), "event %s", name)
		assert.NotEmpty(t, name.Reason())
	}
}
