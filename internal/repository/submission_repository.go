package repository

import (
	"github.com/resumeforge/resumeforge-backend/internal/models"
	"gorm.io/gorm"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{
		db: db,
	}
}

func (r *SubmissionRepository) Create(submission *models.Submission) error {
	return r.db.Create(submission).Error
}

func (r *SubmissionRepository) GetByID(id string) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.Where("id = ?", id).First(&submission).Error
	return &submission, err
}

// MarkPaymentCompleted flips a submission to completed and records the
// Stripe session id. The status guard makes the write idempotent: a
// re-delivered completion event matches zero rows and reports
// updated=false instead of touching the record again.
func (r *SubmissionRepository) MarkPaymentCompleted(id, stripeSessionID string) (bool, error) {
	result := r.db.Model(&models.Submission{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentStatusCompleted).
		Updates(map[string]interface{}{
			"payment_status":    models.PaymentStatusCompleted,
			"stripe_session_id": stripeSessionID,
		})
	return result.RowsAffected > 0, result.Error
}
