package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/resumeforge/resumeforge-backend/internal/config"
	"github.com/resumeforge/resumeforge-backend/internal/controller"
	"github.com/resumeforge/resumeforge-backend/internal/models"
	"github.com/resumeforge/resumeforge-backend/internal/service"
	"github.com/resumeforge/resumeforge-backend/pkg/utils"
)

type PaymentHandler struct {
	paymentController *controller.PaymentController
	cfg               *config.Config
	validator         *utils.Validator
}

func NewPaymentHandler(paymentController *controller.PaymentController, cfg *config.Config, validator *utils.Validator) *PaymentHandler {
	return &PaymentHandler{
		paymentController: paymentController,
		cfg:               cfg,
		validator:         validator,
	}
}

// CreateCheckoutSession opens a one-time checkout for the fixed-price
// CV product.
func (h *PaymentHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	var req models.CreateCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	session, err := h.paymentController.CreateCheckoutSession(req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"url": session.URL,
	})
}

// CreatePlanCheckoutSession opens a checkout for a catalog plan
// (trial or monthly).
func (h *PaymentHandler) CreatePlanCheckoutSession(c *fiber.Ctx) error {
	var req models.CreatePlanCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	session, err := h.paymentController.CreatePlanCheckoutSession(req)
	if err != nil {
		if errors.Is(err, config.ErrUnknownPlan) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown plan type",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"url": session.URL,
	})
}

// HandleStripeWebhook verifies a delivery against the raw body and the
// Stripe-Signature header, then routes the event. Authentication
// failures get one generic message regardless of which check failed.
func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signatureHeader := c.Get("Stripe-Signature")

	event, err := h.paymentController.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid signature",
		})
	}

	if err := h.paymentController.HandleWebhookEvent(event); err != nil {
		if errors.Is(err, service.ErrMalformedEvent) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Malformed event payload",
			})
		}
		// Reconciliation failure after a verified event: the ack policy
		// decides whether Stripe should retry.
		if !h.cfg.Stripe.AckOnReconcileFailure {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Reconciliation failed",
			})
		}
	}

	return c.JSON(fiber.Map{
		"received": true,
	})
}

func (h *PaymentHandler) GetPlans(c *fiber.Ctx) error {
	return c.JSON(models.SuccessResponse(h.paymentController.GetPlans(), ""))
}
