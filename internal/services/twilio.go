package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"

	"github.com/whatsapp-storefront/backend/internal/config"
)

// Notifier sends an unsolicited WhatsApp message to a seller
type Notifier interface {
	Notify(ctx context.Context, sellerID, message string) error
}

// TwilioService handles outbound WhatsApp messages, TwiML replies and
// webhook signature checks
type TwilioService struct {
	client    *twilio.RestClient
	validator twilioclient.RequestValidator
	from      string // Twilio WhatsApp number, "whatsapp:+14155238886"
	log       *zap.Logger
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg config.TwilioConfig, log *zap.Logger) (*TwilioService, error) {
	if !cfg.Configured() {
		return nil, errors.New("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		client:    client,
		validator: twilioclient.NewRequestValidator(cfg.AuthToken),
		from:      cfg.WhatsAppFrom,
		log:       log.Named("twilio"),
	}, nil
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio. to is a seller id
// or an E.164 number.
func (t *TwilioService) SendWhatsAppMessage(to string, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(WhatsAppAddress(to))
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d", *resp.ErrorCode)
	}

	if resp.Sid != nil {
		t.log.Info("✅ WhatsApp message sent", zap.String("sid", *resp.Sid))
	}
	return nil
}

// Notify implements Notifier. The REST client has no context support, so ctx
// is only checked before sending.
func (t *TwilioService) Notify(ctx context.Context, sellerID, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.SendWhatsAppMessage(sellerID, message)
}

// ValidateSignature checks an X-Twilio-Signature header against the signed URL
// and the POST form parameters
func (t *TwilioService) ValidateSignature(url string, params map[string]string, signature string) bool {
	return t.validator.Validate(url, params, signature)
}

// WhatsAppAddress turns a seller id back into a Twilio WhatsApp address
func WhatsAppAddress(sellerID string) string {
	id := strings.TrimPrefix(sellerID, "whatsapp:")
	if !strings.HasPrefix(id, "+") {
		id = "+" + id
	}
	return "whatsapp:" + id
}

// MessagingResponse renders text as a TwiML messaging reply
func MessagingResponse(text string) (string, error) {
	return twiml.Messages([]twiml.Element{
		&twiml.MessagingMessage{Body: text},
	})
}
