package controller

import (
	"github.com/stripe/stripe-go/v74"

	"github.com/resumeforge/resumeforge-backend/internal/models"
	"github.com/resumeforge/resumeforge-backend/internal/service"
)

type PaymentController struct {
	paymentService *service.PaymentService
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

func (c *PaymentController) CreateCheckoutSession(req models.CreateCheckoutRequest) (*models.CheckoutSession, error) {
	return c.paymentService.CreateCheckoutSession(req)
}

func (c *PaymentController) CreatePlanCheckoutSession(req models.CreatePlanCheckoutRequest) (*models.CheckoutSession, error) {
	return c.paymentService.CreatePlanCheckoutSession(req)
}

func (c *PaymentController) VerifyWebhook(payload []byte, signatureHeader string) (*stripe.Event, error) {
	return c.paymentService.VerifyWebhook(payload, signatureHeader)
}

func (c *PaymentController) HandleWebhookEvent(event *stripe.Event) error {
	return c.paymentService.HandleWebhookEvent(event)
}

func (c *PaymentController) GetPlans() []models.PlanDefinition {
	return c.paymentService.GetPlans()
}
