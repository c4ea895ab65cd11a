package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge-backend/internal/config"
	"github.com/resumeforge/resumeforge-backend/internal/models"
	"github.com/resumeforge/resumeforge-backend/pkg/payment"
)

// ErrMalformedEvent marks a verified webhook whose payload could not be
// decoded. Unlike reconciliation failures it is reported back to Stripe
// as a client error.
var ErrMalformedEvent = errors.New("malformed webhook event")

// SubmissionStore is the slice of the backend record store the payment
// flow needs. The update is keyed by submission id and atomic per the
// store's contract.
type SubmissionStore interface {
	GetByID(id string) (*models.Submission, error)
	MarkPaymentCompleted(id, stripeSessionID string) (bool, error)
}

// CheckoutClient is implemented by payment.Client and by test fakes.
type CheckoutClient interface {
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	VerifyWebhook(payload []byte, signatureHeader string) (*stripe.Event, error)
}

// ReceiptSender delivers the payment receipt. Best-effort: failures are
// logged, never propagated into the webhook response.
type ReceiptSender interface {
	SendPaymentReceipt(email, fullName, sessionID string) error
}

type PaymentService struct {
	cfg         *config.Config
	client      CheckoutClient
	submissions SubmissionStore
	receipts    ReceiptSender
	logger      *zap.Logger
}

func NewPaymentService(cfg *config.Config, client CheckoutClient, submissions SubmissionStore, receipts ReceiptSender, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		cfg:         cfg,
		client:      client,
		submissions: submissions,
		receipts:    receipts,
		logger:      logger,
	}
}

// CreateCheckoutSession opens a one-time-payment session for the
// fixed-price CV product with an inline price. Not idempotent: calling
// twice creates two Stripe sessions.
func (s *PaymentService) CreateCheckoutSession(req models.CreateCheckoutRequest) (*models.CheckoutSession, error) {
	params := payment.FixedPriceSessionParams(
		s.cfg.Product.Name,
		s.cfg.Product.Currency,
		s.cfg.Product.AmountCents,
		req.SuccessURL,
		req.CancelURL,
		s.correlationMetadata(req.SubmissionID),
	)

	sess, err := s.client.CreateCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	s.logger.Info("checkout session created",
		zap.String("submission_id", req.SubmissionID),
		zap.String("session_id", sess.ID),
		zap.String("mode", string(stripe.CheckoutSessionModePayment)),
	)

	return &models.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CreatePlanCheckoutSession opens a session for a catalog plan. Unknown
// plan identifiers fail with config.ErrUnknownPlan before Stripe is
// contacted.
func (s *PaymentService) CreatePlanCheckoutSession(req models.CreatePlanCheckoutRequest) (*models.CheckoutSession, error) {
	plan, err := s.cfg.ResolvePlan(req.PlanType)
	if err != nil {
		return nil, err
	}

	params := payment.PlanSessionParams(plan, req.SuccessURL, req.CancelURL, s.correlationMetadata(req.SubmissionID))

	sess, err := s.client.CreateCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	s.logger.Info("checkout session created",
		zap.String("submission_id", req.SubmissionID),
		zap.String("session_id", sess.ID),
		zap.String("plan_type", plan.Type),
		zap.String("mode", plan.Mode),
	)

	return &models.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook authenticates a delivery against the raw request bytes.
func (s *PaymentService) VerifyWebhook(payload []byte, signatureHeader string) (*stripe.Event, error) {
	event, err := s.client.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		// Log the real reason; the HTTP response stays generic.
		s.logger.Warn("webhook rejected", zap.Error(err))
		return nil, err
	}
	return event, nil
}

// HandleWebhookEvent routes a verified event. Only completed checkouts
// trigger reconciliation; every other event type is acknowledged so
// Stripe does not retry deliveries we do not care about.
func (s *PaymentService) HandleWebhookEvent(event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			s.logger.Error("webhook payload did not decode",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return s.reconcileCompletedCheckout(&sess)
	default:
		s.logger.Debug("ignoring stripe event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
		)
		return nil
	}
}

// GetPlans lists the plan catalog for pricing pages.
func (s *PaymentService) GetPlans() []models.PlanDefinition {
	plans := make([]models.PlanDefinition, 0, len(s.cfg.Plans))
	for _, planType := range []string{config.PlanTrial, config.PlanMonthly} {
		if plan, ok := s.cfg.Plans[planType]; ok {
			plans = append(plans, plan)
		}
	}
	return plans
}

func (s *PaymentService) reconcileCompletedCheckout(sess *stripe.CheckoutSession) error {
	if appID := sess.Metadata[payment.MetadataAppID]; appID != "" && appID != s.cfg.Stripe.AppID {
		s.logger.Debug("ignoring event for foreign app",
			zap.String("session_id", sess.ID),
			zap.String("app_id", appID),
		)
		return nil
	}

	submissionID, ok := sess.Metadata[payment.MetadataSubmissionID]
	if !ok || submissionID == "" {
		// Retries cannot repair a structurally absent field, so the
		// delivery is acknowledged and left to manual reconciliation.
		s.logger.Warn("completed checkout without submission id",
			zap.String("session_id", sess.ID),
		)
		return nil
	}

	updated, err := s.submissions.MarkPaymentCompleted(submissionID, sess.ID)
	if err != nil {
		s.logger.Error("payment reconciliation failed",
			zap.String("submission_id", submissionID),
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return fmt.Errorf("mark payment completed: %w", err)
	}
	if !updated {
		s.logger.Info("payment already reconciled",
			zap.String("submission_id", submissionID),
			zap.String("session_id", sess.ID),
		)
		return nil
	}

	s.logger.Info("payment reconciled",
		zap.String("submission_id", submissionID),
		zap.String("session_id", sess.ID),
	)

	s.sendReceipt(submissionID, sess.ID)
	return nil
}

func (s *PaymentService) sendReceipt(submissionID, sessionID string) {
	if s.receipts == nil {
		return
	}

	submission, err := s.submissions.GetByID(submissionID)
	if err != nil {
		s.logger.Warn("receipt skipped, submission not loaded",
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
		return
	}

	if err := s.receipts.SendPaymentReceipt(submission.Email, submission.FullName, sessionID); err != nil {
		s.logger.Warn("receipt email failed",
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
	}
}

func (s *PaymentService) correlationMetadata(submissionID string) map[string]string {
	return map[string]string{
		payment.MetadataAppID:        s.cfg.Stripe.AppID,
		payment.MetadataSubmissionID: submissionID,
	}
}
