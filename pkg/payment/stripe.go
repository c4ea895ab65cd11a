package payment

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/resumeforge/resumeforge-backend/internal/models"
)

// ErrInvalidSignature covers every webhook authentication failure:
// missing header, missing configured secret, or a signature mismatch.
// Callers must not tell these apart in their responses; the wrapped
// detail exists for logs only.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Metadata keys attached to every checkout session. submission_id is
// the only channel that ties a later webhook event back to our record.
const (
	MetadataAppID        = "app_id"
	MetadataSubmissionID = "submission_id"
)

type Client struct {
	webhookSecret string
}

func NewClient(secretKey, webhookSecret string) *Client {
	stripe.Key = secretKey
	return &Client{
		webhookSecret: webhookSecret,
	}
}

func (c *Client) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

// VerifyWebhook authenticates a webhook delivery against the exact raw
// bytes Stripe signed. The payload must not be parsed before this call.
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) (*stripe.Event, error) {
	if c.webhookSecret == "" {
		return nil, fmt.Errorf("%w: no webhook secret configured", ErrInvalidSignature)
	}
	if signatureHeader == "" {
		return nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return &event, nil
}

// FixedPriceSessionParams builds a one-time-payment session with an
// inline price, for the fixed-price CV product. No pre-registered
// Stripe price is required.
func FixedPriceSessionParams(productName, currency string, amountCents int64, successURL, cancelURL string, metadata map[string]string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}

	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	return params
}

// PlanSessionParams builds a session for a catalog plan. The session
// mode follows the plan's configured mode: one_time plans charge once,
// recurring plans open a subscription.
func PlanSessionParams(plan models.PlanDefinition, successURL, cancelURL string, metadata map[string]string) *stripe.CheckoutSessionParams {
	mode := stripe.CheckoutSessionModePayment
	if plan.Mode == models.PlanModeRecurring {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(mode)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}

	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	return params
}
