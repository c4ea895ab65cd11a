package models

import "time"

// Payment lifecycle of a submission. Completed is terminal; a completed
// submission is never moved back to pending or failed.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Submission is the backend record a checkout session is reconciled
// against. Its ID doubles as the correlation id carried in the Stripe
// session metadata.
type Submission struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	Email           string    `json:"email" gorm:"not null"`
	FullName        string    `json:"full_name"`
	PaymentStatus   string    `json:"payment_status" gorm:"not null;default:'pending'"`
	StripeSessionID string    `json:"stripe_session_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateSubmissionRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
}

type CreateSubmissionResponse struct {
	ID          string `json:"id"`
	AccessToken string `json:"access_token"`
}
