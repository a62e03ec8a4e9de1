// Package payment verifies Stripe webhooks and extracts completed checkouts.
package payment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Completed is a finished checkout tied to a WhatsApp address through the
// session metadata.
type Completed struct {
	CheckoutID  string
	Address     string
	AmountTotal int64
	Currency    string
}

type WebhookParser struct {
	secret string
}

func NewWebhookParser(secret string) *WebhookParser {
	return &WebhookParser{secret: secret}
}

// Parse verifies the Stripe-Signature header and decodes the event. It
// reports ok=false for events that need no action: other event types and
// checkouts without a "from" metadata entry.
func (p *WebhookParser) Parse(payload []byte, signature string) (Completed, bool, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Completed{}, false, fmt.Errorf("verify stripe event: %w", err)
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted || event.Data == nil {
		return Completed{}, false, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return Completed{}, false, fmt.Errorf("decode checkout session: %w", err)
	}
	from := strings.TrimSpace(cs.Metadata["from"])
	if from == "" {
		return Completed{}, false, nil
	}

	return Completed{
		CheckoutID:  cs.ID,
		Address:     strings.TrimPrefix(from, "whatsapp:"),
		AmountTotal: cs.AmountTotal,
		Currency:    strings.ToUpper(string(cs.Currency)),
	}, true, nil
}
