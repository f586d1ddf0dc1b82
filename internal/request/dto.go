// AngelaMos | 2026
// dto.go

package request

import (
	"time"

	"github.com/google/uuid"
)

type SubmitRequest struct {
	CompanyName   string `json:"company_name"   validate:"required,min=2,max=120"`
	Email         string `json:"email"          validate:"required,email,max=255"`
	ContactPerson string `json:"contact_person" validate:"required,min=1,max=100"`
	Phone         string `json:"phone"          validate:"max=30"`
	Message       string `json:"message"        validate:"max=2000"`
	DatasetPath   string `json:"dataset_path"   validate:"required,max=512"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type RequestResponse struct {
	ID               uuid.UUID  `json:"id"`
	CompanyName      string     `json:"company_name"`
	Email            string     `json:"email"`
	ContactPerson    string     `json:"contact_person"`
	Phone            string     `json:"phone,omitempty"`
	Message          string     `json:"message,omitempty"`
	Status           string     `json:"status"`
	RejectionReason  *string    `json:"rejection_reason,omitempty"`
	ApprovedBy       *string    `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ModelAccuracy    *float64   `json:"model_accuracy,omitempty"`
	DataPoints       int        `json:"data_points"`
	PredictionsCount int        `json:"predictions_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ApprovalResponse echoes the issued credentials once. They are never
// retrievable again: the password is stored only as a hash.
type ApprovalResponse struct {
	Request       RequestResponse `json:"request"`
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	ModelAccuracy float64         `json:"model_accuracy"`
	DataPoints    int             `json:"data_points"`
	EmailSent     bool            `json:"email_sent"`
}

func ToResponse(r *CompanyRequest) RequestResponse {
	return RequestResponse{
		ID:               r.ID,
		CompanyName:      r.CompanyName,
		Email:            r.Email,
		ContactPerson:    r.ContactPerson,
		Phone:            r.Phone,
		Message:          r.Message,
		Status:           r.Status,
		RejectionReason:  r.RejectionReason,
		ApprovedBy:       r.ApprovedBy,
		ApprovedAt:       r.ApprovedAt,
		ModelAccuracy:    r.ModelAccuracy,
		DataPoints:       r.DataPoints,
		PredictionsCount: r.PredictionsCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func ToResponseList(requests []CompanyRequest) []RequestResponse {
	responses := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, ToResponse(&requests[i]))
	}
	return responses
}
