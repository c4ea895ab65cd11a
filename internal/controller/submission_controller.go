package controller

import (
	"github.com/resumeforge/resumeforge-backend/internal/models"
	"github.com/resumeforge/resumeforge-backend/internal/service"
)

type SubmissionController struct {
	submissionService *service.SubmissionService
}

func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{
		submissionService: submissionService,
	}
}

func (c *SubmissionController) Create(req models.CreateSubmissionRequest) (*models.CreateSubmissionResponse, error) {
	return c.submissionService.Create(req)
}

func (c *SubmissionController) Get(id string) (*models.Submission, error) {
	return c.submissionService.Get(id)
}

func (c *SubmissionController) DownloadURL(id string) (string, error) {
	return c.submissionService.DownloadURL(id)
}
