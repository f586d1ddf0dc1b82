// AngelaMos | 2026
// repository.go

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ksdeva/predictor-admin/internal/core"
)

const accountColumns = `
	id, request_id, company_name, email, username, password_hash,
	model_filename, model_accuracy, data_points, predictions_count,
	last_activity_at, last_notified_status, warnings_sent, last_warning_at,
	accuracy_warning_sent, last_accuracy_check_at, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]Account, error)
	ListLowAccuracy(ctx context.Context, threshold float64) ([]Account, error)
	RecordWarning(ctx context.Context, id uuid.UUID, status string, at time.Time) error
	RecordAccuracyWarning(ctx context.Context, id uuid.UUID, at time.Time) error
	TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO active_accounts (
			id, request_id, company_name, email, username, password_hash,
			model_filename, model_accuracy, data_points
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, a, query,
		a.ID,
		a.RequestID,
		a.CompanyName,
		a.Email,
		a.Username,
		a.PasswordHash,
		a.ModelFilename,
		a.ModelAccuracy,
		a.DataPoints,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM active_accounts
		WHERE id = $1`, accountColumns)

	var a Account
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &a, nil
}

func (r *repository) GetByRequestID(
	ctx context.Context,
	requestID uuid.UUID,
) (*Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM active_accounts
		WHERE request_id = $1`, accountColumns)

	var a Account
	err := r.db.GetContext(ctx, &a, query, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account by request: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account by request: %w", err)
	}

	return &a, nil
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM active_accounts
		ORDER BY created_at DESC`, accountColumns)

	var accounts []Account
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, nil
}

// ListInactiveSince returns accounts whose last activity (or creation,
// when they never logged in) falls before the cutoff.
func (r *repository) ListInactiveSince(
	ctx context.Context,
	cutoff time.Time,
) ([]Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM active_accounts
		WHERE COALESCE(last_activity_at, created_at) < $1
		ORDER BY COALESCE(last_activity_at, created_at) ASC`, accountColumns)

	var accounts []Account
	if err := r.db.SelectContext(ctx, &accounts, query, cutoff); err != nil {
		return nil, fmt.Errorf("list inactive accounts: %w", err)
	}

	return accounts, nil
}

func (r *repository) ListLowAccuracy(
	ctx context.Context,
	threshold float64,
) ([]Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM active_accounts
		WHERE model_accuracy > 0 AND model_accuracy < $1
		ORDER BY model_accuracy ASC`, accountColumns)

	var accounts []Account
	if err := r.db.SelectContext(ctx, &accounts, query, threshold); err != nil {
		return nil, fmt.Errorf("list low accuracy accounts: %w", err)
	}

	return accounts, nil
}

func (r *repository) RecordWarning(
	ctx context.Context,
	id uuid.UUID,
	status string,
	at time.Time,
) error {
	query := `
		UPDATE active_accounts
		SET last_notified_status = $2,
		    warnings_sent = warnings_sent + 1,
		    last_warning_at = $3,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, at)
	if err != nil {
		return fmt.Errorf("record warning: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record warning: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("record warning: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RecordAccuracyWarning(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
) error {
	query := `
		UPDATE active_accounts
		SET accuracy_warning_sent = TRUE,
		    last_accuracy_check_at = $2,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("record accuracy warning: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record accuracy warning: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("record accuracy warning: %w", core.ErrNotFound)
	}

	return nil
}

// TouchActivity resets the inactivity clock and clears any pending
// warning state so a recovered account starts clean.
func (r *repository) TouchActivity(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
) error {
	query := `
		UPDATE active_accounts
		SET last_activity_at = $2,
		    last_notified_status = NULL,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("touch activity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch activity: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("touch activity: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM active_accounts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete account: %w", core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
