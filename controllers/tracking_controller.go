package controller

import (
	"crypto/subtle"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"leadengine/scoring"
	"leadengine/utils"
)

// 1x1 transparent GIF
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type TrackingController struct {
	Leads         LeadPipeline
	Secret        string
	WebhookSecret string
	Logger        *logrus.Entry
}

func NewTrackingController(leads LeadPipeline, trackingSecret, webhookSecret string) *TrackingController {
	return &TrackingController{
		Leads:         leads,
		Secret:        trackingSecret,
		WebhookSecret: webhookSecret,
		Logger:        utils.ComponentLogger("tracking"),
	}
}

// TrackOpen always answers with the pixel; tracking failures are only logged.
func (tc *TrackingController) TrackOpen(c *fiber.Ctx) error {
	messageID := c.Params("messageID")
	if utils.VerifyTrackingToken(tc.Secret, messageID, c.Params("token")) {
		if err := tc.Leads.TrackOpen(c.UserContext(), messageID); err != nil {
			utils.LogError("track_open_failed", err, map[string]interface{}{"message_id": messageID})
		}
	}

	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
	c.Type("gif")
	return c.Send(trackingPixel)
}

// TrackClick records the click and redirects to the original link.
func (tc *TrackingController) TrackClick(c *fiber.Ctx) error {
	messageID := c.Params("messageID")
	if !utils.VerifyTrackingToken(tc.Secret, messageID, c.Params("token")) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid tracking link", nil)
	}

	target := c.Query("url")
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid redirect target", nil)
	}

	if err := tc.Leads.TrackClick(c.UserContext(), messageID, target); err != nil {
		utils.LogError("track_click_failed", err, map[string]interface{}{"message_id": messageID})
	}
	return c.Redirect(target, fiber.StatusFound)
}

const unsubscribePage = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Unsubscribed</title></head>
<body style="font-family: Arial, sans-serif; text-align: center; padding: 40px;">
<h2>You have been unsubscribed</h2>
<p>You will not receive any more emails from this sequence.</p>
</body></html>`

// Unsubscribe cancels pending nurture emails for ?email=.
func (tc *TrackingController) Unsubscribe(c *fiber.Ctx) error {
	n, err := tc.Leads.Unsubscribe(c.UserContext(), c.Query("email"))
	if err != nil {
		return respondError(c, err)
	}

	tc.Logger.WithField("cancelled", n).Info("Nurture unsubscribe")
	c.Type("html")
	return c.SendString(unsubscribePage)
}

type calendarWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Email          string `json:"email"`
		Name           string `json:"name"`
		ScheduledEvent struct {
			Name      string `json:"name"`
			StartTime string `json:"start_time"`
		} `json:"scheduled_event"`
		Tracking struct {
			UTMSource   string `json:"utm_source"`
			UTMCampaign string `json:"utm_campaign"`
		} `json:"tracking"`
	} `json:"payload"`
}

// CalendarWebhook scores booked calls. Requests must carry the shared secret.
func (tc *TrackingController) CalendarWebhook(c *fiber.Ctx) error {
	secret := c.Get("X-Webhook-Secret")
	if tc.WebhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(tc.WebhookSecret)) != 1 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid webhook secret", nil)
	}

	var hook calendarWebhook
	if err := c.BodyParser(&hook); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if hook.Event != "invitee.created" {
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	email := strings.ToLower(strings.TrimSpace(hook.Payload.Email))
	if err := utils.ValidateEmail(email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid invitee email", nil)
	}

	p, err := tc.Leads.RecordEvent(c.UserContext(), email, scoring.EventCalendarBooked, map[string]interface{}{
		"call":         hook.Payload.ScheduledEvent.Name,
		"start_time":   hook.Payload.ScheduledEvent.StartTime,
		"utm_source":   hook.Payload.Tracking.UTMSource,
		"utm_campaign": hook.Payload.Tracking.UTMCampaign,
	})
	if err != nil {
		if isNotFound(err) {
			tc.Logger.WithField("email", email).Info("Booking for unknown prospect")
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "unknown_prospect"})
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":     "recorded",
		"prospectId": p.ID,
	})
}
