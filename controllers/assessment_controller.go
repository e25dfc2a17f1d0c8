package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"leadengine/middleware"
	"leadengine/services"
	"leadengine/utils"
)

type AssessmentController struct {
	Leads LeadPipeline
}

func NewAssessmentController(leads LeadPipeline) *AssessmentController {
	return &AssessmentController{Leads: leads}
}

// Submit scores an assessment, mails the report and starts the nurture sequence.
func (ac *AssessmentController) Submit(c *fiber.Ctx) error {
	var sub services.AssessmentSubmission
	if err := c.BodyParser(&sub); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	res, err := ac.Leads.SubmitAssessment(c.UserContext(), sub)
	if err != nil {
		var derr *services.DeliveryError
		if errors.As(err, &derr) {
			middleware.RecordEmail("report", false)
		}
		return respondError(c, err)
	}

	middleware.RecordEmail("report", true)
	middleware.RecordAssessment(res.Scores.ReadinessLevel)
	return c.JSON(res)
}
