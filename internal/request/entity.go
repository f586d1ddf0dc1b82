// AngelaMos | 2026
// entity.go

package request

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// CompanyRequest is an onboarding application. It stays the system of
// record for the trained model even after an account is issued.
type CompanyRequest struct {
	ID              uuid.UUID  `db:"id"`
	CompanyName     string     `db:"company_name"`
	Email           string     `db:"email"`
	ContactPerson   string     `db:"contact_person"`
	Phone           string     `db:"phone"`
	Message         string     `db:"message"`
	DatasetPath     string     `db:"dataset_path"`
	Status          string     `db:"status"`
	RejectionReason *string    `db:"rejection_reason"`
	ApprovedBy      *string    `db:"approved_by"`
	ApprovedAt      *time.Time `db:"approved_at"`
	ModelFilename   *string    `db:"model_filename"`
	ModelAccuracy   *float64   `db:"model_accuracy"`
	DataPoints      int        `db:"data_points"`
	// PredictionsCount is read off the issued account when listing; it
	// is not a column of company_requests.
	PredictionsCount int       `db:"predictions_count"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r *CompanyRequest) IsPending() bool {
	return r.Status == StatusPending
}

func (r *CompanyRequest) IsApproved() bool {
	return r.Status == StatusApproved
}
