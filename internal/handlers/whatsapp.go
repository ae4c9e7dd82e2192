package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/whatsapp-storefront/backend/internal/logger"
	"github.com/whatsapp-storefront/backend/internal/models"
	"github.com/whatsapp-storefront/backend/internal/services"
)

// fallbackTwiML is sent when the reply itself cannot be rendered
const fallbackTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response><Message>Sorry, something went wrong. Please try again.</Message></Response>`

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	whatsappService *services.WhatsAppService
	timeout         time.Duration
	log             *zap.Logger
}

// NewWhatsAppHandler creates a new WhatsApp handler. timeout bounds all work
// done for one inbound message.
func NewWhatsAppHandler(whatsappService *services.WhatsAppService, timeout time.Duration, log *zap.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		whatsappService: whatsappService,
		timeout:         timeout,
		log:             log,
	}
}

// TwilioWebhookPayload represents incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // whatsapp:+233241234567
	To         string `form:"To"`
	Body       string `form:"Body"`
	NumMedia   string `form:"NumMedia"`
	MediaUrl0  string `form:"MediaUrl0"`
}

// HandleWebhook processes an incoming WhatsApp message and answers with
// exactly one TwiML message, always with status 200.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	log := logger.FromFiber(c, h.log)

	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Warn("Error parsing webhook", zap.Error(err))
		return h.sendTwiML(c, log, services.ApologyReply)
	}

	msg := models.NewInboundMessage(payload.From, payload.Body, payload.NumMedia, payload.MediaUrl0)
	log.Info("📱 WhatsApp message", zap.String("from", msg.From), zap.String("message_sid", payload.MessageSid))

	reply := h.process(c, log, msg)
	return h.sendTwiML(c, log, reply.Text)
}

func (h *WhatsAppHandler) process(c *fiber.Ctx, log *zap.Logger, msg models.InboundMessage) services.Reply {
	ctx, cancel := context.WithTimeout(logger.WithContext(c.UserContext(), log), h.timeout)
	defer cancel()

	reply := h.whatsappService.ProcessMessage(ctx, msg)
	log.Info("📤 Reply generated", zap.Stringer("outcome", reply.Outcome))
	return reply
}

func (h *WhatsAppHandler) sendTwiML(c *fiber.Ctx, log *zap.Logger, text string) error {
	body, err := services.MessagingResponse(text)
	if err != nil {
		log.Error("Failed to render TwiML", zap.Error(err))
		body = fallbackTwiML
	}
	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.Status(fiber.StatusOK).SendString(body)
}

// TestWebhookPayload is the JSON body accepted by the development endpoint
type TestWebhookPayload struct {
	From     string `json:"from"`
	Message  string `json:"message"`
	NumMedia int    `json:"num_media"`
	MediaURL string `json:"media_url"`
}

// HandleTestWebhook processes test WhatsApp messages (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}
	if payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "from is required",
		})
	}

	log := logger.FromFiber(c, h.log)
	log.Info("🧪 Test webhook received", zap.String("from", payload.From))

	msg := models.InboundMessage{
		From:     models.SenderID(payload.From),
		Body:     payload.Message,
		NumMedia: payload.NumMedia,
		MediaURL: payload.MediaURL,
	}
	reply := h.process(c, log, msg)

	return c.JSON(fiber.Map{
		"success":  true,
		"outcome":  reply.Outcome.String(),
		"response": reply.Text,
	})
}
