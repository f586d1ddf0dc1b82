// AngelaMos | 2026
// engine.go

package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ksdeva/predictor-admin/internal/account"
	"github.com/ksdeva/predictor-admin/internal/config"
	"github.com/ksdeva/predictor-admin/internal/core"
	"github.com/ksdeva/predictor-admin/internal/notifier"
)

// AccountDeleter removes an issued account together with its request
// row, model artifact, and data.
type AccountDeleter interface {
	ForceDelete(ctx context.Context, requestID uuid.UUID) error
}

type Action struct {
	Action  string `json:"action"`
	Company string `json:"company"`
	Reason  string `json:"reason,omitempty"`
}

type RunResult struct {
	Mode                     Mode     `json:"mode"`
	InactiveAccountsFound    int      `json:"inactiveAccountsFound"`
	LowAccuracyAccountsFound int      `json:"lowAccuracyAccountsFound"`
	WarningsSent             int      `json:"warningsSent"`
	AccountsDeleted          int      `json:"accountsDeleted"`
	Actions                  []Action `json:"actions"`
}

// Engine evaluates every issued account against the inactivity and
// accuracy policies. In manual mode it only reports and warns; in
// automated mode it also deletes accounts that crossed the line.
type Engine struct {
	accounts  account.Repository
	deleter   AccountDeleter
	notifier  notifier.Notifier
	lifecycle config.LifecycleConfig
	logger    *slog.Logger
}

func NewEngine(
	accounts account.Repository,
	deleter AccountDeleter,
	n notifier.Notifier,
	lifecycle config.LifecycleConfig,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		accounts:  accounts,
		deleter:   deleter,
		notifier:  n,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Evaluate runs one full pass. Accounts deleted by a concurrent admin
// action between listing and processing are skipped, not errored.
func (e *Engine) Evaluate(ctx context.Context, mode Mode) (*RunResult, error) {
	now := time.Now().UTC()
	result := &RunResult{Mode: mode, Actions: []Action{}}

	if err := e.evaluateInactivity(ctx, mode, now, result); err != nil {
		return nil, err
	}

	if err := e.evaluateAccuracy(ctx, mode, now, result); err != nil {
		return nil, err
	}

	e.logger.Info("automation run finished",
		slog.String("mode", string(mode)),
		slog.Int("inactive_found", result.InactiveAccountsFound),
		slog.Int("low_accuracy_found", result.LowAccuracyAccountsFound),
		slog.Int("warnings_sent", result.WarningsSent),
		slog.Int("accounts_deleted", result.AccountsDeleted),
	)

	return result, nil
}

func (e *Engine) evaluateInactivity(
	ctx context.Context,
	mode Mode,
	now time.Time,
	result *RunResult,
) error {
	accounts, err := e.accounts.List(ctx)
	if err != nil {
		return err
	}

	for i := range accounts {
		a := &accounts[i]
		status := a.ActivityStatus(now, e.lifecycle)
		if !status.IsWarning() {
			continue
		}

		result.InactiveAccountsFound++

		if mode == ModeAutomated && status == account.StatusCritical {
			if e.deleteAccount(ctx, a, "inactivity", result) {
				continue
			}
		}

		e.maybeWarn(ctx, a, status, now, result)
	}

	return nil
}

// maybeWarn sends an inactivity warning only when the derived status
// crossed past the last notified tier, so each tier warns once.
func (e *Engine) maybeWarn(
	ctx context.Context,
	a *account.Account,
	status account.ActivityStatus,
	now time.Time,
	result *RunResult,
) {
	var lastNotified account.ActivityStatus
	if a.LastNotifiedStatus != nil {
		lastNotified = account.ActivityStatus(*a.LastNotifiedStatus)
	}

	if status.Severity() <= lastNotified.Severity() {
		return
	}

	err := e.notifier.SendWarning(ctx, notifier.Warning{
		Email:        a.Email,
		CompanyName:  a.CompanyName,
		Status:       string(status),
		DaysInactive: a.DaysInactive(now),
	})
	if err != nil {
		e.logger.Warn("inactivity warning not delivered",
			slog.String("account_id", a.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	err = e.accounts.RecordWarning(ctx, a.ID, string(status), now)
	if errors.Is(err, core.ErrNotFound) {
		return
	}
	if err != nil {
		e.logger.Error("record warning failed",
			slog.String("account_id", a.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	result.WarningsSent++
	result.Actions = append(result.Actions, Action{
		Action:  "warning_sent",
		Company: a.CompanyName,
		Reason:  string(status),
	})
}

func (e *Engine) evaluateAccuracy(
	ctx context.Context,
	mode Mode,
	now time.Time,
	result *RunResult,
) error {
	lowAccuracy, err := e.accounts.ListLowAccuracy(
		ctx,
		e.lifecycle.AccuracyThreshold,
	)
	if err != nil {
		return err
	}

	for i := range lowAccuracy {
		a := &lowAccuracy[i]
		result.LowAccuracyAccountsFound++

		if !a.AccuracyWarningSent {
			e.warnLowAccuracy(ctx, a, now, result)
			continue
		}

		graceExpired := a.LastAccuracyCheckAt != nil &&
			now.Sub(*a.LastAccuracyCheckAt) >= e.lifecycle.AccuracyGrace

		if mode == ModeAutomated && graceExpired {
			e.deleteAccount(ctx, a, "low_accuracy", result)
		}
	}

	return nil
}

func (e *Engine) warnLowAccuracy(
	ctx context.Context,
	a *account.Account,
	now time.Time,
	result *RunResult,
) {
	err := e.notifier.SendAccuracyWarning(ctx, notifier.AccuracyWarning{
		Email:       a.Email,
		CompanyName: a.CompanyName,
		Accuracy:    a.ModelAccuracy,
		Threshold:   e.lifecycle.AccuracyThreshold,
	})
	if err != nil {
		e.logger.Warn("accuracy warning not delivered",
			slog.String("account_id", a.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	err = e.accounts.RecordAccuracyWarning(ctx, a.ID, now)
	if errors.Is(err, core.ErrNotFound) {
		return
	}
	if err != nil {
		e.logger.Error("record accuracy warning failed",
			slog.String("account_id", a.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	result.WarningsSent++
	result.Actions = append(result.Actions, Action{
		Action:  "accuracy_warning_sent",
		Company: a.CompanyName,
	})
}

func (e *Engine) deleteAccount(
	ctx context.Context,
	a *account.Account,
	reason string,
	result *RunResult,
) bool {
	err := e.deleter.ForceDelete(ctx, a.RequestID)
	if errors.Is(err, core.ErrNotFound) {
		// already removed by a concurrent action
		return true
	}
	if err != nil {
		e.logger.Error("automated deletion failed",
			slog.String("account_id", a.ID.String()),
			slog.String("error", err.Error()),
		)
		return false
	}

	result.AccountsDeleted++
	result.Actions = append(result.Actions, Action{
		Action:  "account_deleted",
		Company: a.CompanyName,
		Reason:  reason,
	})
	return true
}

// ListInactive reports every account currently past the first warning
// threshold, regardless of notification state.
func (e *Engine) ListInactive(
	ctx context.Context,
	now time.Time,
) ([]account.Account, error) {
	cutoff := now.AddDate(0, 0, -e.lifecycle.Warning1Days)

	return e.accounts.ListInactiveSince(ctx, cutoff)
}

func (e *Engine) ListLowAccuracy(ctx context.Context) ([]account.Account, error) {
	return e.accounts.ListLowAccuracy(ctx, e.lifecycle.AccuracyThreshold)
}

// WarnInactive sends a manual inactivity warning for one account.
func (e *Engine) WarnInactive(ctx context.Context, id uuid.UUID) error {
	a, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	status := a.ActivityStatus(now, e.lifecycle)
	if !status.IsWarning() {
		return core.InvalidStateError("account is not inactive")
	}

	err = e.notifier.SendWarning(ctx, notifier.Warning{
		Email:        a.Email,
		CompanyName:  a.CompanyName,
		Status:       string(status),
		DaysInactive: a.DaysInactive(now),
	})
	if err != nil {
		return core.DependencyError("warning email not delivered", err)
	}

	return e.accounts.RecordWarning(ctx, a.ID, string(status), now)
}

// WarnLowAccuracy sends a manual low-accuracy warning for one account.
func (e *Engine) WarnLowAccuracy(ctx context.Context, id uuid.UUID) error {
	a, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !a.LowAccuracy(e.lifecycle.AccuracyThreshold) {
		return core.InvalidStateError(fmt.Sprintf(
			"model accuracy %.2f is not below the %.2f threshold",
			a.ModelAccuracy,
			e.lifecycle.AccuracyThreshold,
		))
	}

	err = e.notifier.SendAccuracyWarning(ctx, notifier.AccuracyWarning{
		Email:       a.Email,
		CompanyName: a.CompanyName,
		Accuracy:    a.ModelAccuracy,
		Threshold:   e.lifecycle.AccuracyThreshold,
	})
	if err != nil {
		return core.DependencyError("warning email not delivered", err)
	}

	return e.accounts.RecordAccuracyWarning(ctx, a.ID, time.Now().UTC())
}

// DeleteAccount removes one account by hand, independent of mode.
func (e *Engine) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	a, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return e.deleter.ForceDelete(ctx, a.RequestID)
}
