package controller

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"leadengine/middleware"
	"leadengine/models"
	"leadengine/qualification"
	"leadengine/scoring"
	"leadengine/services"
	"leadengine/store"
	"leadengine/utils"
)

// LeadPipeline is the part of services.LeadService the HTTP layer uses.
type LeadPipeline interface {
	QualifyLead(ctx context.Context, in qualification.QualificationInput, event scoring.Event) (*services.QualifyResult, error)
	RecordEvent(ctx context.Context, key string, event scoring.Event, payload map[string]interface{}) (*models.Prospect, error)
	SubmitAssessment(ctx context.Context, sub services.AssessmentSubmission) (*services.AssessmentResult, error)
	Unsubscribe(ctx context.Context, email string) (int64, error)
	TrackOpen(ctx context.Context, messageID string) error
	TrackClick(ctx context.Context, messageID, target string) error
	BookingFor(ctx context.Context, key string) (*models.Prospect, qualification.BookingRecommendation, string, error)
}

// publicEvents may be reported by the website without authentication.
var publicEvents = map[scoring.Event]bool{
	scoring.EventChatUsed:             true,
	scoring.EventLeadMagnetDownloaded: true,
}

type LeadController struct {
	Leads     LeadPipeline
	Prospects store.ProspectStore
	Logger    *logrus.Entry
}

func NewLeadController(leads LeadPipeline, prospects store.ProspectStore) *LeadController {
	return &LeadController{
		Leads:     leads,
		Prospects: prospects,
		Logger:    utils.ComponentLogger("leads"),
	}
}

// Qualify handles contact and intake forms.
func (lc *LeadController) Qualify(c *fiber.Ctx) error {
	var input qualification.QualificationInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	res, err := lc.Leads.QualifyLead(c.UserContext(), input, scoring.EventFormSubmitted)
	if err != nil {
		return respondError(c, err)
	}
	middleware.RecordProspectQualified(string(res.Prospect.Tier))

	return c.JSON(res)
}

type leadMagnetRequest struct {
	Email    string            `json:"email" validate:"required,email"`
	Name     string            `json:"name" validate:"omitempty,max=120"`
	Resource string            `json:"resource" validate:"required,max=200"`
	Source   string            `json:"source"`
	UTMData  map[string]string `json:"utmData"`
}

// LeadMagnet records a resource download.
func (lc *LeadController) LeadMagnet(c *fiber.Ctx) error {
	var req leadMagnetRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	res, err := lc.Leads.QualifyLead(c.UserContext(), qualification.QualificationInput{
		FormData:  &qualification.FormData{Email: req.Email, Name: req.Name},
		Downloads: []string{req.Resource},
		UTMData:   req.UTMData,
		Source:    req.Source,
	}, scoring.EventLeadMagnetDownloaded)
	if err != nil {
		return respondError(c, err)
	}
	middleware.RecordProspectQualified(string(res.Prospect.Tier))

	return c.JSON(fiber.Map{
		"message":    "Thanks! Your resource is on its way.",
		"prospectId": res.Prospect.ID,
	})
}

type eventRequest struct {
	Email   string                 `json:"email"`
	Event   string                 `json:"event" validate:"required"`
	Payload map[string]interface{} `json:"payload"`
}

// PublicEvent lets the website report engagement by email.
func (lc *LeadController) PublicEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "email must be a valid email", nil)
	}
	event, err := scoring.ParseEvent(req.Event)
	if err != nil || !publicEvents[event] {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported event", nil)
	}

	p, err := lc.Leads.RecordEvent(c.UserContext(), req.Email, event, req.Payload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"prospectId": p.ID,
		"leadScore":  p.LeadScore,
	}))
}

// ListProspects returns a filtered page of prospects, best first.
func (lc *LeadController) ListProspects(c *fiber.Ctx) error {
	filter := store.ProspectFilter{
		Category: models.Category(c.Query("category")),
		Tier:     models.Tier(c.Query("tier")),
		Status:   models.Status(c.Query("status")),
		MinScore: utils.QueryInt(c, "min_score", 0),
		Email:    strings.TrimSpace(c.Query("email")),
		Page:     utils.QueryInt(c, "page", 1),
		Limit:    utils.QueryInt(c, "limit", 20),
	}.Normalize()
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status filter", nil)
	}

	prospects, total, err := lc.Prospects.Query(c.UserContext(), filter)
	if err != nil {
		utils.LogError("prospect_query_failed", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch prospects", nil)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  prospects,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

func (lc *LeadController) GetProspect(c *fiber.Ctx) error {
	p, err := lc.Prospects.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		utils.LogError("prospect_get_failed", err, map[string]interface{}{"id": c.Params("id")})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch prospect", nil)
	}
	if p == nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Prospect not found", nil)
	}
	return c.JSON(utils.SuccessResponse(p))
}

func (lc *LeadController) GetHistory(c *fiber.Ctx) error {
	history, err := lc.Prospects.History(c.UserContext(), c.Params("id"))
	if err != nil {
		utils.LogError("prospect_history_failed", err, map[string]interface{}{"id": c.Params("id")})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch history", nil)
	}
	return c.JSON(utils.SuccessResponse(history))
}

func (lc *LeadController) GetBooking(c *fiber.Ctx) error {
	p, rec, link, err := lc.Leads.BookingFor(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"prospectId": p.ID,
		"booking":    rec,
		"bookingUrl": link,
	}))
}

// RecordEvent lets an admin apply any scoring event.
func (lc *LeadController) RecordEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	event, err := scoring.ParseEvent(req.Event)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	if adminID, ok := c.Locals("adminID").(uint); ok {
		payload["recorded_by"] = adminID
	}

	p, err := lc.Leads.RecordEvent(c.UserContext(), c.Params("id"), event, payload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(p))
}

type statusRequest struct {
	Status models.Status `json:"status" validate:"required"`
}

func (lc *LeadController) UpdateStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if !models.ValidStatus(req.Status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status", nil)
	}

	err := lc.Prospects.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}

	lc.Logger.WithFields(logrus.Fields{
		"prospect_id": c.Params("id"),
		"status":      req.Status,
	}).Info("Prospect status updated")
	return c.JSON(utils.SuccessResponse(fiber.Map{"status": req.Status}))
}
