// AngelaMos | 2026
// smtp.go

package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/ksdeva/predictor-admin/internal/config"
)

// SMTPNotifier sends notifications through a plain SMTP relay.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

func NewSMTPNotifier(cfg config.SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
		),
		from:   cfg.FromAddress,
		logger: logger,
	}
}

func (n *SMTPNotifier) SendCredentials(ctx context.Context, c Credentials) error {
	subject := fmt.Sprintf("Your account is ready - %s", c.CompanyName)
	body := fmt.Sprintf(
		"Hello,\n\n"+
			"Your request for %s has been approved. A prediction model has "+
			"been trained from your dataset (%d records, %.1f%% accuracy).\n\n"+
			"Login credentials:\n"+
			"  Username: %s\n"+
			"  Password: %s\n\n"+
			"Sign in at %s and change your password after first login.\n",
		c.CompanyName, c.DataPoints, c.Accuracy*100,
		c.Username, c.Password, c.LoginURL,
	)

	return n.send(ctx, c.Email, subject, body)
}

func (n *SMTPNotifier) SendWarning(ctx context.Context, w Warning) error {
	subject := fmt.Sprintf("Inactivity Warning - %s", w.CompanyName)
	body := fmt.Sprintf(
		"Hello,\n\n"+
			"The account for %s has been inactive for %d days "+
			"(status: %s).\n\n"+
			"Accounts that stay inactive are eventually removed along with "+
			"their trained models and data. Log in to keep your account "+
			"active.\n",
		w.CompanyName, w.DaysInactive, w.Status,
	)

	return n.send(ctx, w.Email, subject, body)
}

func (n *SMTPNotifier) SendDeletionNotice(ctx context.Context, d DeletionNotice) error {
	subject := fmt.Sprintf("Account Removed - %s", d.CompanyName)
	body := fmt.Sprintf(
		"Hello,\n\n"+
			"The account for %s has been removed (%s). The trained model "+
			"and all uploaded data have been deleted.\n\n"+
			"You are welcome to submit a new request at any time.\n",
		d.CompanyName, d.Reason,
	)

	return n.send(ctx, d.Email, subject, body)
}

func (n *SMTPNotifier) SendAccuracyWarning(ctx context.Context, w AccuracyWarning) error {
	subject := fmt.Sprintf("Low Model Accuracy Alert - %s", w.CompanyName)
	body := fmt.Sprintf(
		"Hello,\n\n"+
			"The prediction model for %s is performing below the accepted "+
			"threshold (%.1f%% accuracy, minimum %.1f%%).\n\n"+
			"Upload a larger or cleaner dataset to retrain the model. "+
			"Accounts whose models stay below the threshold are eventually "+
			"suspended.\n",
		w.CompanyName, w.Accuracy*100, w.Threshold*100,
	)

	return n.send(ctx, w.Email, subject, body)
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(msg); err != nil {
		n.logger.Error("email delivery failed",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("email sent",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}
