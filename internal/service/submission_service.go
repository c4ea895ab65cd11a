package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge-backend/internal/models"
	"github.com/resumeforge/resumeforge-backend/pkg/jwt"
	"github.com/resumeforge/resumeforge-backend/pkg/utils"
)

// ErrPaymentRequired gates the CV download until the submission's
// payment has been reconciled.
var ErrPaymentRequired = errors.New("payment not completed")

const downloadURLExpiry = 15 * time.Minute

// SubmissionCreator is the store surface the submission flow needs.
type SubmissionCreator interface {
	Create(submission *models.Submission) error
	GetByID(id string) (*models.Submission, error)
}

// ArtifactStorage produces short-lived download URLs for generated CV
// documents.
type ArtifactStorage interface {
	PresignDownload(key string, expiry time.Duration) (string, error)
}

type SubmissionService struct {
	submissions SubmissionCreator
	storage     ArtifactStorage
	jwtSecret   string
	logger      *zap.Logger
}

func NewSubmissionService(submissions SubmissionCreator, storage ArtifactStorage, jwtSecret string, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		storage:     storage,
		jwtSecret:   jwtSecret,
		logger:      logger,
	}
}

// Create registers a pending submission and issues the access token the
// client uses for status and download calls. The submission id is the
// correlation id later attached to the checkout session.
func (s *SubmissionService) Create(req models.CreateSubmissionRequest) (*models.CreateSubmissionResponse, error) {
	submission := &models.Submission{
		ID:            utils.NewSubmissionID(),
		Email:         req.Email,
		FullName:      req.FullName,
		PaymentStatus: models.PaymentStatusPending,
	}

	if err := s.submissions.Create(submission); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	token, err := jwt.GenerateSubmissionToken(submission.ID, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.logger.Info("submission created", zap.String("submission_id", submission.ID))

	return &models.CreateSubmissionResponse{
		ID:          submission.ID,
		AccessToken: token,
	}, nil
}

func (s *SubmissionService) Get(id string) (*models.Submission, error) {
	return s.submissions.GetByID(id)
}

// DownloadURL returns a presigned URL for the generated CV, but only
// once the payment behind the submission is completed.
func (s *SubmissionService) DownloadURL(id string) (string, error) {
	submission, err := s.submissions.GetByID(id)
	if err != nil {
		return "", err
	}

	if submission.PaymentStatus != models.PaymentStatusCompleted {
		return "", ErrPaymentRequired
	}

	url, err := s.storage.PresignDownload(artifactKey(id), downloadURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}

func artifactKey(submissionID string) string {
	return fmt.Sprintf("cv/%s.pdf", submissionID)
}
