package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/whatsapp-storefront/backend/internal/logger"
	"github.com/whatsapp-storefront/backend/internal/models"
)

// Static replies
const (
	UsageHintReply = "❌ Invalid format.\n\n" +
		"To add a product, send ONE photo with this caption:\n" +
		"/addproduct <currency><amount> <description>\n\n" +
		"Example: /addproduct ₵50 Nice Shirt"
	StoreFailureReply = "❌ Sorry, we couldn't save your product right now. Please send it again in a moment."
	ApologyReply      = "😔 Sorry, our assistant is overloaded right now. Please try again shortly."
	RejectedReply     = "❌ Sorry, we can't list products from this number. Please contact support."
)

// Outcome is the terminal state reached by one inbound message
type Outcome int

const (
	OutcomePersisted Outcome = iota
	OutcomeUsageHint
	OutcomeStoreFailure
	OutcomeFallback
	OutcomeApology
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomePersisted:
		return "persisted"
	case OutcomeUsageHint:
		return "usage_hint"
	case OutcomeStoreFailure:
		return "store_failure"
	case OutcomeFallback:
		return "fallback"
	case OutcomeRejected:
		return "rejected"
	default:
		return "apology"
	}
}

// Reply is the single message sent back for an inbound message
type Reply struct {
	Outcome Outcome
	Text    string
	Product *models.Product // set for OutcomePersisted
}

// WhatsAppService handles WhatsApp message processing
type WhatsAppService struct {
	ingestion *IngestionService
	completer Completer
	baseURL   string
}

// NewWhatsAppService creates a new WhatsApp service. Storefront links in
// confirmations are built as <baseURL>/<sellerId>.
func NewWhatsAppService(ingestion *IngestionService, completer Completer, baseURL string) *WhatsAppService {
	return &WhatsAppService{
		ingestion: ingestion,
		completer: completer,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// ProcessMessage runs one inbound message to its reply. It never fails: every
// error path ends in a static reply.
func (w *WhatsAppService) ProcessMessage(ctx context.Context, msg models.InboundMessage) (reply Reply) {
	log := logger.FromContext(ctx).With(zap.String("from", msg.From))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered while processing message", zap.Any("panic", r))
			reply = Reply{Outcome: OutcomeApology, Text: ApologyReply}
		}
	}()

	parsed := ParseCommand(msg.Body, msg.NumMedia)
	log.Info("Processing message", zap.Stringer("command", parsed.Kind), zap.Int("num_media", msg.NumMedia))

	switch parsed.Kind {
	case CommandMatched:
		return w.handleAddProduct(ctx, log, msg, parsed)
	case CommandMalformed:
		return Reply{Outcome: OutcomeUsageHint, Text: UsageHintReply}
	default:
		return w.handleFallback(ctx, log, msg.Body)
	}
}

func (w *WhatsAppService) handleAddProduct(ctx context.Context, log *zap.Logger, msg models.InboundMessage, parsed ParseResult) Reply {
	product, err := w.ingestion.Ingest(ctx, msg.From, parsed, msg.MediaURL)
	if errors.Is(err, ErrStoreWrite) {
		log.Error("Failed to add product", zap.Error(err))
		return Reply{Outcome: OutcomeStoreFailure, Text: StoreFailureReply}
	}
	if err != nil {
		// resending the same message would fail the same way
		log.Warn("Product rejected", zap.Error(err))
		return Reply{Outcome: OutcomeRejected, Text: RejectedReply}
	}

	log.Info("✅ Product added", zap.String("product_id", product.ID))
	return Reply{
		Outcome: OutcomePersisted,
		Text:    w.confirmation(product),
		Product: product,
	}
}

func (w *WhatsAppService) handleFallback(ctx context.Context, log *zap.Logger, body string) Reply {
	text, err := w.completer.Complete(ctx, body)
	if err != nil {
		log.Warn("Fallback responder failed", zap.Error(err))
		return Reply{Outcome: OutcomeApology, Text: ApologyReply}
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("Fallback responder returned an empty reply")
		return Reply{Outcome: OutcomeApology, Text: ApologyReply}
	}
	return Reply{Outcome: OutcomeFallback, Text: text}
}

// StorefrontURL returns the public storefront link for a seller
func (w *WhatsAppService) StorefrontURL(sellerID string) string {
	return fmt.Sprintf("%s/%s", w.baseURL, sellerID)
}

func (w *WhatsAppService) confirmation(p *models.Product) string {
	return fmt.Sprintf("✅ Product added!\n\n💰 Price: %s\n📝 %s\n\n🛍️ View your store: %s",
		p.Price, p.Description, w.StorefrontURL(p.SellerID))
}
