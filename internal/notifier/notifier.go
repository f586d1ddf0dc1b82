// AngelaMos | 2026
// notifier.go

package notifier

import "context"

// Credentials carries the login details issued on approval.
type Credentials struct {
	Email       string
	CompanyName string
	Username    string
	Password    string
	LoginURL    string
	Accuracy    float64
	DataPoints  int
}

// Warning describes an inactivity notice for an account.
type Warning struct {
	Email        string
	CompanyName  string
	Status       string
	DaysInactive int
}

// DeletionNotice is sent after an account has been removed.
type DeletionNotice struct {
	Email       string
	CompanyName string
	Reason      string
}

// AccuracyWarning flags a model performing below the accepted threshold.
type AccuracyWarning struct {
	Email       string
	CompanyName string
	Accuracy    float64
	Threshold   float64
}

// Notifier delivers lifecycle notifications to company contacts.
// Implementations must be safe for concurrent use.
type Notifier interface {
	SendCredentials(ctx context.Context, c Credentials) error
	SendWarning(ctx context.Context, w Warning) error
	SendDeletionNotice(ctx context.Context, n DeletionNotice) error
	SendAccuracyWarning(ctx context.Context, w AccuracyWarning) error
}
