package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	stripeOrderCodeKey    = "order_code"
)

// StripeVerifier accepts payment_intent webhooks whose metadata carries the
// order code.
type StripeVerifier struct {
	Secret string
}

func (v StripeVerifier) Verify(raw RawCallback) (*Notification, error) {
	event, err := webhook.ConstructEventWithOptions(raw.Body, raw.Header.Get(stripeSignatureHeader), v.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	var outcome models.PaymentOutcome
	switch string(event.Type) {
	case "payment_intent.succeeded":
		outcome = models.OutcomeSuccess
	case "payment_intent.payment_failed":
		outcome = models.OutcomeFailure
	default:
		return nil, fmt.Errorf("%w: unsupported event %s", ErrMalformed, event.Type)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	code := pi.Metadata[stripeOrderCodeKey]
	if code == "" {
		return nil, fmt.Errorf("%w: missing metadata.%s", ErrMalformed, stripeOrderCodeKey)
	}
	return &Notification{
		OrderCode:     code,
		Amount:        pi.Amount,
		Outcome:       outcome,
		TransactionNo: pi.ID,
	}, nil
}
