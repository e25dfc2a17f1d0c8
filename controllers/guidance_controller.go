package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"leadengine/utils"
)

// Advisor answers guidance questions.
type Advisor interface {
	Ask(ctx context.Context, question, extra string) (string, error)
}

type GuidanceController struct {
	Advisor Advisor
}

func NewGuidanceController(a Advisor) *GuidanceController {
	return &GuidanceController{Advisor: a}
}

type guidanceRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

func (gc *GuidanceController) Ask(c *fiber.Ctx) error {
	var req guidanceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	answer, err := gc.Advisor.Ask(c.UserContext(), req.Question, req.Context)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"guidance": answer})
}
