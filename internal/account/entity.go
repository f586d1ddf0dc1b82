// AngelaMos | 2026
// entity.go

package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/ksdeva/predictor-admin/internal/config"
)

// ActivityStatus classifies how long an account has been idle. It is
// always derived from timestamps, never stored.
type ActivityStatus string

const (
	StatusActive   ActivityStatus = "active"
	StatusWarning1 ActivityStatus = "warning_1"
	StatusWarning2 ActivityStatus = "warning_2"
	StatusWarning3 ActivityStatus = "warning_3"
	StatusCritical ActivityStatus = "critical"
)

// Severity orders statuses for threshold-crossing comparisons.
func (s ActivityStatus) Severity() int {
	switch s {
	case StatusWarning1:
		return 1
	case StatusWarning2:
		return 2
	case StatusWarning3:
		return 3
	case StatusCritical:
		return 4
	default:
		return 0
	}
}

func (s ActivityStatus) IsWarning() bool {
	return s.Severity() > 0
}

type Account struct {
	ID                  uuid.UUID  `db:"id"`
	RequestID           uuid.UUID  `db:"request_id"`
	CompanyName         string     `db:"company_name"`
	Email               string     `db:"email"`
	Username            string     `db:"username"`
	PasswordHash        string     `db:"password_hash"`
	ModelFilename       string     `db:"model_filename"`
	ModelAccuracy       float64    `db:"model_accuracy"`
	DataPoints          int        `db:"data_points"`
	PredictionsCount    int        `db:"predictions_count"`
	LastActivityAt      *time.Time `db:"last_activity_at"`
	LastNotifiedStatus  *string    `db:"last_notified_status"`
	WarningsSent        int        `db:"warnings_sent"`
	LastWarningAt       *time.Time `db:"last_warning_at"`
	AccuracyWarningSent bool       `db:"accuracy_warning_sent"`
	LastAccuracyCheckAt *time.Time `db:"last_accuracy_check_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// referenceTime is the timestamp inactivity is measured from. Accounts
// that never logged in are measured from creation.
func (a *Account) referenceTime() time.Time {
	if a.LastActivityAt != nil {
		return *a.LastActivityAt
	}
	return a.CreatedAt
}

// DaysInactive reports whole days since the last recorded activity.
func (a *Account) DaysInactive(now time.Time) int {
	d := now.Sub(a.referenceTime())
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// ActivityStatus derives the current status from the configured
// thresholds. Thresholds are exclusive: an account exactly at a
// boundary stays in the lower tier.
func (a *Account) ActivityStatus(
	now time.Time,
	cfg config.LifecycleConfig,
) ActivityStatus {
	days := a.DaysInactive(now)

	switch {
	case days > cfg.CriticalDays:
		return StatusCritical
	case days > cfg.Warning3Days:
		return StatusWarning3
	case days > cfg.Warning2Days:
		return StatusWarning2
	case days > cfg.Warning1Days:
		return StatusWarning1
	default:
		return StatusActive
	}
}

// LowAccuracy reports whether the trained model sits below the
// accepted threshold.
func (a *Account) LowAccuracy(threshold float64) bool {
	return a.ModelAccuracy > 0 && a.ModelAccuracy < threshold
}
