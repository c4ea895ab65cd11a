package models

// Checkout session modes a plan can be sold under.
const (
	PlanModeOneTime   = "one_time"
	PlanModeRecurring = "recurring"
)

// PlanDefinition maps a plan identifier to its Stripe price
// configuration. Defined once at startup, never mutated.
type PlanDefinition struct {
	Type     string `json:"type"`
	Mode     string `json:"mode"`
	PriceID  string `json:"price_id"`
	Currency string `json:"currency"`
	// AmountCents is informational for plan listings; the charge amount
	// itself lives on the Stripe price.
	AmountCents int64 `json:"amount_cents"`
}

type CreateCheckoutRequest struct {
	SubmissionID string `json:"submission_id" validate:"required"`
	SuccessURL   string `json:"success_url" validate:"required,url"`
	CancelURL    string `json:"cancel_url" validate:"required,url"`
}

type CreatePlanCheckoutRequest struct {
	PlanType     string `json:"plan_type" validate:"required"`
	SubmissionID string `json:"submission_id" validate:"required"`
	SuccessURL   string `json:"success_url" validate:"required,url"`
	CancelURL    string `json:"cancel_url" validate:"required,url"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
