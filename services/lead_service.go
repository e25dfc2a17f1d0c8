// Package services runs the lead pipeline: it qualifies submissions, keeps
// prospect profiles and history current, and hands assessment results to the
// report mailer and the nurture scheduler.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"leadengine/models"
	"leadengine/nurture"
	"leadengine/qualification"
	"leadengine/scoring"
	"leadengine/store"
	"leadengine/utils"
)

// LeadDeps are the collaborators of a LeadService. Publisher may be nil.
type LeadDeps struct {
	Prospects   store.ProspectStore
	Assessments store.AssessmentStore
	Emails      store.NurtureStore
	Mailer      EmailTransport
	Scheduler   NurtureScheduler
	Generator   *nurture.Generator
	Publisher   EventPublisher
}

// LeadConfig holds the links and addresses the service writes into mail.
type LeadConfig struct {
	Booking          qualification.BookingLinks
	SalesNotifyEmail string
	AppURL           string
}

type LeadService struct {
	prospects   store.ProspectStore
	assessments store.AssessmentStore
	emails      store.NurtureStore
	mailer      EmailTransport
	scheduler   NurtureScheduler
	generator   *nurture.Generator
	publisher   EventPublisher
	cfg         LeadConfig
	log         *logrus.Entry
	now         func() time.Time
}

func NewLeadService(deps LeadDeps, cfg LeadConfig) *LeadService {
	return &LeadService{
		prospects:   deps.Prospects,
		assessments: deps.Assessments,
		emails:      deps.Emails,
		mailer:      deps.Mailer,
		scheduler:   deps.Scheduler,
		generator:   deps.Generator,
		publisher:   deps.Publisher,
		cfg:         cfg,
		log:         utils.ComponentLogger("lead_service"),
		now:         time.Now,
	}
}

// QualifyResult is returned to the form that triggered qualification.
type QualifyResult struct {
	Prospect   *models.Prospect                    `json:"prospect"`
	Booking    qualification.BookingRecommendation `json:"booking"`
	BookingURL string                              `json:"bookingUrl"`
}

// QualifyLead classifies a form or lead magnet submission and stores the
// profile. Storage failures are logged; the computed profile is returned
// either way.
func (s *LeadService) QualifyLead(ctx context.Context, in qualification.QualificationInput, event scoring.Event) (*QualifyResult, error) {
	email := in.Email()
	if email == "" {
		return nil, invalid("email", "email is required")
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, invalid("email", "email must be a valid email")
	}
	if !event.Valid() {
		event = scoring.EventFormSubmitted
	}

	p := qualification.QualifyProspect(in)
	p = s.persist(ctx, p, nil, []scoring.Event{event}, map[string]interface{}{
		"source":    in.Source,
		"category":  p.Category,
		"tier":      p.Tier,
		"downloads": in.Downloads,
	})

	booking := qualification.GetBookingRecommendation(p, s.cfg.Booking)
	result := &QualifyResult{
		Prospect:   p,
		Booking:    booking,
		BookingURL: qualification.GenerateTrackingURL(booking.CalendlyURL, p, in.Source, ""),
	}

	if p.Tier == models.TierOne {
		s.notifySales(ctx, p, booking)
	}
	return result, nil
}

// highAssessmentScore is the overall score that earns the high score bonus.
const highAssessmentScore = 70

// alreadyScored reports whether p already holds the fact event records.
// Such events are kept in the history but add no points.
func alreadyScored(p *models.Prospect, event scoring.Event) bool {
	switch event {
	case scoring.EventChatUsed:
		return p.ChatUsed
	case scoring.EventCalendarBooked:
		return p.CalendarBookedAt != nil
	case scoring.EventAssessmentCompleted:
		return p.AssessmentCompletedAt != nil
	case scoring.EventHighAssessmentScore:
		return p.AssessmentCompletedAt != nil && p.AssessmentScore >= highAssessmentScore
	}
	return false
}

type scoredEvent struct {
	event scoring.Event
	delta int
	total int
}

// persist stores p, refreshes its derived fields and appends history for
// events. A new profile starts at the classifier score. A returning one keeps
// its score and gains the catalogue points of each event it has not scored
// before. It returns the stored profile, or p itself when the store is
// unavailable.
func (s *LeadService) persist(ctx context.Context, p *models.Prospect, breakdown *scoring.ScoreBreakdown, events []scoring.Event, payload map[string]interface{}) *models.Prospect {
	primary := events[0]
	unsaved := func(op string, err error) *models.Prospect {
		utils.LogError(op, err, map[string]interface{}{
			"email": p.Email,
			"event": string(primary),
		})
		Rescore(p, breakdown, s.now())
		return p
	}

	previous, err := s.prospects.Get(ctx, p.Email)
	if err != nil {
		return unsaved("prospect_lookup_failed", err)
	}
	var pending []scoring.Event
	if previous != nil {
		p.LeadScore = previous.LeadScore
		for _, e := range events {
			if !alreadyScored(previous, e) {
				pending = append(pending, e)
			}
		}
	}

	saved, err := s.prospects.Upsert(ctx, p)
	if err != nil {
		return unsaved("prospect_upsert_failed", err)
	}

	var entries []scoredEvent
	if previous == nil {
		entries = append(entries, scoredEvent{event: primary, delta: saved.LeadScore, total: saved.LeadScore})
	}
	for _, e := range pending {
		total, err := s.prospects.AddPoints(ctx, saved.ID, e.Points())
		if err != nil {
			utils.LogError("prospect_add_points_failed", err, map[string]interface{}{
				"prospect_id": saved.ID,
				"event":       string(e),
			})
			continue
		}
		saved.LeadScore = total
		entries = append(entries, scoredEvent{event: e, delta: e.Points(), total: total})
	}
	if len(entries) == 0 {
		entries = append(entries, scoredEvent{event: primary, total: saved.LeadScore})
	}

	Rescore(saved, breakdown, s.now())
	if err := s.prospects.SaveDerived(ctx, saved); err != nil {
		utils.LogError("prospect_rescore_failed", err, map[string]interface{}{"prospect_id": saved.ID})
	}
	for _, e := range entries {
		s.appendHistory(ctx, saved, e.event, e.delta, e.total, payload)
	}
	return saved
}

func (s *LeadService) appendHistory(ctx context.Context, p *models.Prospect, event scoring.Event, delta, total int, payload map[string]interface{}) {
	entry := &models.ScoringHistory{
		ProspectID: p.ID,
		Delta:      delta,
		NewTotal:   total,
		Reason:     event.Reason(),
		Event:      string(event),
		CreatedAt:  s.now(),
	}
	if len(payload) > 0 {
		if raw, err := json.Marshal(payload); err == nil {
			entry.EventData = datatypes.JSON(raw)
		}
	}
	if err := s.prospects.AppendHistory(ctx, entry); err != nil {
		utils.LogError("scoring_history_failed", err, map[string]interface{}{
			"prospect_id": p.ID,
			"event":       string(event),
		})
		return
	}

	s.log.WithFields(logrus.Fields{
		"prospect_id": p.ID,
		"event":       event,
		"delta":       delta,
		"total":       total,
	}).Info("Lead score updated")

	if s.publisher != nil {
		s.publisher.Publish(ScoreEvent{
			ProspectID: p.ID,
			Email:      p.Email,
			Event:      string(event),
			Delta:      delta,
			NewTotal:   total,
			Tier:       p.Tier,
			Category:   p.Category,
			At:         entry.CreatedAt,
		})
	}
}

// RecordEvent adds the points of event to the prospect identified by key
// (id or email), records it in the history and refreshes derived fields.
// A fact the prospect already has is recorded with no points.
func (s *LeadService) RecordEvent(ctx context.Context, key string, event scoring.Event, payload map[string]interface{}) (*models.Prospect, error) {
	if !event.Valid() {
		return nil, invalid("event", fmt.Sprintf("unknown event %q", string(event)))
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, invalid("prospect", "prospect id or email is required")
	}
	if strings.Contains(key, "@") {
		key = strings.ToLower(key)
	}

	p, err := s.prospects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, store.ErrNotFound
	}

	delta := 0
	if !alreadyScored(p, event) {
		total, err := s.prospects.AddPoints(ctx, p.ID, event.Points())
		if err != nil {
			return nil, err
		}
		p.LeadScore = total
		delta = event.Points()
	}

	now := s.now()
	applyEngagement(p, event, now)
	Rescore(p, nil, now)
	if err := s.prospects.SaveDerived(ctx, p); err != nil {
		utils.LogError("prospect_rescore_failed", err, map[string]interface{}{"prospect_id": p.ID})
	}
	s.appendHistory(ctx, p, event, delta, p.LeadScore, payload)
	return p, nil
}

func applyEngagement(p *models.Prospect, event scoring.Event, now time.Time) {
	p.LastEngagementAt = now
	switch event {
	case scoring.EventEmailOpened:
		p.EmailOpened = true
	case scoring.EventEmailClicked:
		p.EmailOpened = true
		p.EmailClicked = true
	case scoring.EventCalendarBooked:
		if p.CalendarBookedAt == nil {
			p.CalendarBookedAt = &now
		}
	case scoring.EventChatUsed:
		p.ChatUsed = true
	case scoring.EventAssessmentCompleted:
		if p.AssessmentCompletedAt == nil {
			p.AssessmentCompletedAt = &now
		}
	}
}

// TrackOpen records an open of a nurture email. Only the first open scores.
func (s *LeadService) TrackOpen(ctx context.Context, messageID string) error {
	email, err := s.emails.RecordOpen(ctx, messageID, s.now())
	if err != nil {
		return err
	}
	if email == nil || email.OpenCount != 1 {
		return nil
	}
	_, err = s.RecordEvent(ctx, s.prospectKey(email), scoring.EventEmailOpened, map[string]interface{}{
		"message_id":   messageID,
		"email_number": email.EmailNumber,
	})
	return ignoreMissing(err)
}

// TrackClick records a link click in a nurture email. Only the first click scores.
func (s *LeadService) TrackClick(ctx context.Context, messageID, target string) error {
	email, err := s.emails.RecordClick(ctx, messageID, s.now())
	if err != nil {
		return err
	}
	if email == nil || email.ClickCount != 1 {
		return nil
	}
	_, err = s.RecordEvent(ctx, s.prospectKey(email), scoring.EventEmailClicked, map[string]interface{}{
		"message_id":   messageID,
		"email_number": email.EmailNumber,
		"url":          target,
	})
	return ignoreMissing(err)
}

func (s *LeadService) prospectKey(email *models.ScheduledEmail) string {
	if email.ProspectID != "" {
		return email.ProspectID
	}
	return email.Email
}

func ignoreMissing(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Unsubscribe cancels every pending nurture email for address.
func (s *LeadService) Unsubscribe(ctx context.Context, address string) (int64, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if err := utils.ValidateEmail(address); err != nil {
		return 0, invalid("email", "email must be a valid email")
	}
	n, err := s.emails.CancelForEmail(ctx, address)
	if err != nil {
		return 0, err
	}
	utils.LogEvent("nurture_unsubscribed", map[string]interface{}{
		"email":     address,
		"cancelled": n,
	})
	return n, nil
}

// BookingFor returns the recommendation for a stored prospect.
func (s *LeadService) BookingFor(ctx context.Context, key string) (*models.Prospect, qualification.BookingRecommendation, string, error) {
	p, err := s.prospects.Get(ctx, key)
	if err != nil {
		return nil, qualification.BookingRecommendation{}, "", err
	}
	if p == nil {
		return nil, qualification.BookingRecommendation{}, "", store.ErrNotFound
	}
	rec := qualification.GetBookingRecommendation(p, s.cfg.Booking)
	return p, rec, qualification.GenerateTrackingURL(rec.CalendlyURL, p, p.Source, ""), nil
}

func (s *LeadService) notifySales(ctx context.Context, p *models.Prospect, rec qualification.BookingRecommendation) {
	if s.cfg.SalesNotifyEmail == "" || s.mailer == nil {
		return
	}

	data := utils.SalesNotificationData{
		Subject:        fmt.Sprintf("New %s prospect: %s", p.Tier, displayName(p)),
		Name:           p.Name,
		Email:          p.Email,
		Company:        p.Company,
		Role:           p.Role,
		Category:       string(p.Category),
		Tier:           string(p.Tier),
		LeadScore:      p.LeadScore,
		CallType:       rec.CallType,
		EstimatedValue: rec.EstimatedValue,
		Priority:       rec.Priority,
	}
	if s.cfg.AppURL != "" {
		data.DashboardURL = s.cfg.AppURL + "/api/v1/prospects/" + p.ID
	}

	body, err := utils.RenderTemplate("sales_notification", data)
	if err != nil {
		utils.LogError("sales_notification_render_failed", err, map[string]interface{}{"prospect_id": p.ID})
		return
	}
	if _, err := s.mailer.Send(ctx, utils.Message{
		To:      s.cfg.SalesNotifyEmail,
		Subject: data.Subject,
		HTML:    body,
		Tag:     "sales_notification",
	}); err != nil {
		utils.LogError("sales_notification_failed", err, map[string]interface{}{"prospect_id": p.ID})
	}
}

func displayName(p *models.Prospect) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// newAssessmentID is swapped in tests.
var newAssessmentID = func() string {
	return uuid.New().String()
}
