package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"leadengine/models"
	"leadengine/nurture"
	"leadengine/qualification"
	"leadengine/scoring"
	"leadengine/utils"
)

// AssessmentSubmission is a completed AI readiness assessment.
type AssessmentSubmission struct {
	Email            string                  `json:"email" validate:"required,email"`
	Name             string                  `json:"name" validate:"required,max=120"`
	Type             string                  `json:"type" validate:"omitempty,oneof=enterprise personal"`
	Company          string                  `json:"company"`
	Industry         string                  `json:"industry"`
	TeamSize         string                  `json:"teamSize"`
	Role             string                  `json:"role"`
	BiggestChallenge string                  `json:"biggestChallenge"`
	Timeline         string                  `json:"timeline"`
	OverallScore     int                     `json:"overallScore" validate:"min=0,max=100"`
	Scores           *scoring.ScoreBreakdown `json:"scores" validate:"required"`
	Responses        map[string]interface{}  `json:"responses,omitempty"`
	Source           string                  `json:"source,omitempty"`
	UTMData          map[string]string       `json:"utmData,omitempty"`
}

// ScoreSummary echoes the scores back to the client.
type ScoreSummary struct {
	Overall        int                    `json:"overall"`
	ReadinessLevel string                 `json:"readinessLevel"`
	Breakdown      scoring.ScoreBreakdown `json:"breakdown"`
}

// AssessmentResult is the response to an assessment submission.
type AssessmentResult struct {
	Message                string       `json:"message"`
	AssessmentID           string       `json:"assessmentId"`
	EmailID                string       `json:"emailId"`
	NurtureEmailsScheduled int          `json:"nurtureEmailsScheduled"`
	Scores                 ScoreSummary `json:"scores"`
}

func (sub *AssessmentSubmission) normalize() {
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Type == "" {
		sub.Type = "enterprise"
	}
	if sub.OverallScore == 0 && sub.Scores != nil {
		b := sub.Scores
		sub.OverallScore = (b.CurrentState + b.StrategyVision + b.TeamCapabilities + b.Implementation) / 4
	}
}

func (sub *AssessmentSubmission) qualificationInput() qualification.QualificationInput {
	responses := make(map[string]interface{}, len(sub.Responses)+2)
	for k, v := range sub.Responses {
		responses[k] = v
	}
	responses["type"] = sub.Type
	if _, ok := responses["timeline"]; !ok && sub.Timeline != "" {
		responses["timeline"] = sub.Timeline
	}

	return qualification.QualificationInput{
		AssessmentResponses: responses,
		FormData: &qualification.FormData{
			Email:       sub.Email,
			Name:        sub.Name,
			Company:     sub.Company,
			Role:        sub.Role,
			CompanySize: qualification.Amount(sub.TeamSize),
		},
		UTMData: sub.UTMData,
		Source:  sub.Source,
	}
}

// SubmitAssessment stores an assessment, mails the report and schedules the
// nurture sequence. Only a failed report email fails the call; storage and
// scheduling problems are logged.
func (s *LeadService) SubmitAssessment(ctx context.Context, sub AssessmentSubmission) (*AssessmentResult, error) {
	if strings.TrimSpace(sub.Email) == "" {
		return nil, invalid("email", "email is required")
	}
	if strings.TrimSpace(sub.Name) == "" {
		return nil, invalid("name", "name is required")
	}
	if sub.Scores == nil {
		return nil, invalid("scores", "scores are required")
	}
	sub.normalize()
	if err := utils.ValidateStruct(sub); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if err := utils.ValidateEmail(sub.Email); err != nil {
		return nil, invalid("email", "email must be a valid email")
	}

	now := s.now()
	readiness := nurture.ReadinessLevel(sub.OverallScore)
	log := s.log.WithFields(logrus.Fields{"email": sub.Email, "overall_score": sub.OverallScore})

	p := qualification.QualifyProspect(sub.qualificationInput())
	p.AssessmentCompletedAt = &now
	p.AssessmentScore = sub.OverallScore
	events := []scoring.Event{scoring.EventAssessmentCompleted}
	if sub.OverallScore >= highAssessmentScore {
		events = append(events, scoring.EventHighAssessmentScore)
	}
	p = s.persist(ctx, p, sub.Scores, events, map[string]interface{}{
		"type":            sub.Type,
		"overall_score":   sub.OverallScore,
		"readiness_level": readiness,
	})

	assessment := &models.Assessment{
		ID:               newAssessmentID(),
		ProspectID:       p.ID,
		Email:            sub.Email,
		Name:             sub.Name,
		Type:             sub.Type,
		Industry:         sub.Industry,
		TeamSize:         sub.TeamSize,
		Role:             sub.Role,
		BiggestChallenge: sub.BiggestChallenge,
		Timeline:         sub.Timeline,
		OverallScore:     sub.OverallScore,
		CurrentState:     sub.Scores.CurrentState,
		StrategyVision:   sub.Scores.StrategyVision,
		TeamCapabilities: sub.Scores.TeamCapabilities,
		Implementation:   sub.Scores.Implementation,
		ReadinessLevel:   readiness,
		CreatedAt:        now,
	}
	if len(sub.Responses) > 0 {
		if raw, err := json.Marshal(sub.Responses); err == nil {
			assessment.Responses = datatypes.JSON(raw)
		}
	}
	assessmentSaved := true
	if err := s.assessments.Save(ctx, assessment); err != nil {
		assessmentSaved = false
		utils.LogError("assessment_save_failed", err, map[string]interface{}{"email": sub.Email})
	}

	emailID, err := s.sendReport(ctx, sub, readiness, p)
	if err != nil {
		return nil, &DeliveryError{Op: "send assessment report", Err: err}
	}
	if assessmentSaved {
		if err := s.assessments.SetReportEmailID(ctx, assessment.ID, emailID); err != nil {
			utils.LogError("assessment_update_failed", err, map[string]interface{}{"assessment_id": assessment.ID})
		}
	}

	scheduled := s.scheduleNurture(ctx, sub, p.ID, assessment.ID)

	if p.Tier == models.TierOne {
		s.notifySales(ctx, p, qualification.GetBookingRecommendation(p, s.cfg.Booking))
	}

	log.WithFields(logrus.Fields{
		"assessment_id":   assessment.ID,
		"readiness_level": readiness,
		"nurture_emails":  scheduled,
	}).Info("Assessment processed")

	return &AssessmentResult{
		Message:                "Assessment submitted successfully",
		AssessmentID:           assessment.ID,
		EmailID:                emailID,
		NurtureEmailsScheduled: scheduled,
		Scores: ScoreSummary{
			Overall:        sub.OverallScore,
			ReadinessLevel: readiness,
			Breakdown:      *sub.Scores,
		},
	}, nil
}

func (s *LeadService) sendReport(ctx context.Context, sub AssessmentSubmission, readiness string, p *models.Prospect) (string, error) {
	rec := qualification.GetBookingRecommendation(p, s.cfg.Booking)
	data := utils.ReportEmailData{
		Subject:          "Your AI Readiness Report",
		Name:             sub.Name,
		OverallScore:     sub.OverallScore,
		ReadinessLevel:   readiness,
		CurrentState:     sub.Scores.CurrentState,
		StrategyVision:   sub.Scores.StrategyVision,
		TeamCapabilities: sub.Scores.TeamCapabilities,
		Implementation:   sub.Scores.Implementation,
		Year:             s.now().Year(),
	}
	if rec.CalendlyURL != "" {
		data.BookingURL = qualification.GenerateTrackingURL(rec.CalendlyURL, p, "assessment", "email")
	}

	body, err := utils.RenderTemplate("assessment_report", data)
	if err != nil {
		return "", err
	}
	return s.mailer.Send(ctx, utils.Message{
		To:      sub.Email,
		ToName:  sub.Name,
		Subject: data.Subject,
		HTML:    body,
		Tag:     "report",
	})
}

func (s *LeadService) scheduleNurture(ctx context.Context, sub AssessmentSubmission, prospectID, assessmentID string) int {
	if s.generator == nil || s.scheduler == nil {
		return 0
	}

	emails := s.generator.GenerateNurtureSequence(nurture.NurtureSequenceData{
		Email:            sub.Email,
		Name:             sub.Name,
		Industry:         sub.Industry,
		TeamSize:         sub.TeamSize,
		Role:             sub.Role,
		BiggestChallenge: sub.BiggestChallenge,
		Timeline:         sub.Timeline,
		OverallScore:     sub.OverallScore,
		Scores:           *sub.Scores,
	})

	n, err := s.scheduler.ScheduleSequence(ctx, SequenceRequest{
		Email:        sub.Email,
		Name:         sub.Name,
		ProspectID:   prospectID,
		AssessmentID: assessmentID,
		Emails:       emails,
	})
	if err != nil {
		utils.LogError("nurture_schedule_failed", err, map[string]interface{}{
			"email":         sub.Email,
			"assessment_id": assessmentID,
		})
		return 0
	}
	return n
}
