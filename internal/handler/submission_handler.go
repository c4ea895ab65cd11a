package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/resumeforge/resumeforge-backend/internal/controller"
	"github.com/resumeforge/resumeforge-backend/internal/models"
	"github.com/resumeforge/resumeforge-backend/internal/service"
	"github.com/resumeforge/resumeforge-backend/pkg/utils"
)

type SubmissionHandler struct {
	submissionController *controller.SubmissionController
	validator            *utils.Validator
}

func NewSubmissionHandler(submissionController *controller.SubmissionController, validator *utils.Validator) *SubmissionHandler {
	return &SubmissionHandler{
		submissionController: submissionController,
		validator:            validator,
	}
}

func (h *SubmissionHandler) CreateSubmission(c *fiber.Ctx) error {
	var req models.CreateSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	resp, err := h.submissionController.Create(req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(resp, ""))
}

func (h *SubmissionHandler) GetSubmission(c *fiber.Ctx) error {
	id := c.Params("id")
	if !ownsSubmission(c, id) {
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("Access denied"))
	}

	submission, err := h.submissionController.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Submission not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(submission, ""))
}

// GetDownloadURL hands out a short-lived link to the generated CV once
// the payment behind the submission has been reconciled.
func (h *SubmissionHandler) GetDownloadURL(c *fiber.Ctx) error {
	id := c.Params("id")
	if !ownsSubmission(c, id) {
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("Access denied"))
	}

	url, err := h.submissionController.DownloadURL(id)
	if err != nil {
		if errors.Is(err, service.ErrPaymentRequired) {
			return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("Payment not completed"))
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Submission not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(fiber.Map{"url": url}, ""))
}

// ownsSubmission checks the path id against the submission id the auth
// middleware extracted from the bearer token.
func ownsSubmission(c *fiber.Ctx, id string) bool {
	tokenID, ok := c.Locals("submissionID").(string)
	return ok && tokenID == id
}
