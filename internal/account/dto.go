// AngelaMos | 2026
// dto.go

package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/ksdeva/predictor-admin/internal/config"
)

type AccountResponse struct {
	ID               uuid.UUID  `json:"id"`
	RequestID        uuid.UUID  `json:"request_id"`
	CompanyName      string     `json:"company_name"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	ModelAccuracy    float64    `json:"model_accuracy"`
	DataPoints       int        `json:"data_points"`
	PredictionsCount int        `json:"predictions_count"`
	ActivityStatus   string     `json:"activity_status"`
	DaysInactive     int        `json:"days_inactive"`
	LastActivityAt   *time.Time `json:"last_activity_at"`
	WarningsSent     int        `json:"warnings_sent"`
	LastWarningAt    *time.Time `json:"last_warning_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

func ToResponse(
	a *Account,
	now time.Time,
	cfg config.LifecycleConfig,
) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		RequestID:        a.RequestID,
		CompanyName:      a.CompanyName,
		Email:            a.Email,
		Username:         a.Username,
		ModelAccuracy:    a.ModelAccuracy,
		DataPoints:       a.DataPoints,
		PredictionsCount: a.PredictionsCount,
		ActivityStatus:   string(a.ActivityStatus(now, cfg)),
		DaysInactive:     a.DaysInactive(now),
		LastActivityAt:   a.LastActivityAt,
		WarningsSent:     a.WarningsSent,
		LastWarningAt:    a.LastWarningAt,
		CreatedAt:        a.CreatedAt,
	}
}

func ToResponseList(
	accounts []Account,
	now time.Time,
	cfg config.LifecycleConfig,
) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, ToResponse(&accounts[i], now, cfg))
	}
	return out
}
