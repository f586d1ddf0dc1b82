// AngelaMos | 2026
// repository.go

package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ksdeva/predictor-admin/internal/core"
)

const requestColumns = `
	id, company_name, email, contact_person, phone, message, dataset_path,
	status, rejection_reason, approved_by, approved_at, model_filename,
	model_accuracy, data_points, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, r *CompanyRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*CompanyRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*CompanyRequest, error)
	List(
		ctx context.Context,
		status string,
		limit, offset int,
	) ([]CompanyRequest, error)
	Count(ctx context.Context, status string) (int, error)
	MarkApproved(ctx context.Context, r *CompanyRequest) error
	MarkRejected(ctx context.Context, id uuid.UUID, reason string) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasPendingForEmail(ctx context.Context, email string) (bool, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, req *CompanyRequest) error {
	query := `
		INSERT INTO company_requests (
			id, company_name, email, contact_person, phone, message,
			dataset_path, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, req, query,
		req.ID,
		req.CompanyName,
		req.Email,
		req.ContactPerson,
		req.Phone,
		req.Message,
		req.DatasetPath,
		req.Status,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create request: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create request: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*CompanyRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM company_requests
		WHERE id = $1`, requestColumns)

	var req CompanyRequest
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get request: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}

	return &req, nil
}

// GetByIDForUpdate locks the row until the enclosing transaction ends.
// Concurrent state transitions on the same request serialize here.
func (r *repository) GetByIDForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*CompanyRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM company_requests
		WHERE id = $1
		FOR UPDATE`, requestColumns)

	var req CompanyRequest
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock request: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock request: %w", err)
	}

	return &req, nil
}

// List joins the issued account so approved rows carry a live
// predictions count.
func (r *repository) List(
	ctx context.Context,
	status string,
	limit, offset int,
) ([]CompanyRequest, error) {
	query := `
		SELECT
			r.id, r.company_name, r.email, r.contact_person, r.phone,
			r.message, r.dataset_path, r.status, r.rejection_reason,
			r.approved_by, r.approved_at, r.model_filename,
			r.model_accuracy, r.data_points,
			COALESCE(a.predictions_count, 0) AS predictions_count,
			r.created_at, r.updated_at
		FROM company_requests r
		LEFT JOIN active_accounts a ON a.request_id = r.id`

	var args []any
	if status != "" {
		query += ` WHERE r.status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(
		` ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d`,
		len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	var requests []CompanyRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	return requests, nil
}

func (r *repository) Count(
	ctx context.Context,
	status string,
) (int, error) {
	query := `SELECT COUNT(*) FROM company_requests`

	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}

	return total, nil
}

func (r *repository) MarkApproved(
	ctx context.Context,
	req *CompanyRequest,
) error {
	query := `
		UPDATE company_requests
		SET status = $2,
		    approved_by = $3,
		    approved_at = $4,
		    model_filename = $5,
		    model_accuracy = $6,
		    data_points = $7,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &req.UpdatedAt, query,
		req.ID,
		req.Status,
		req.ApprovedBy,
		req.ApprovedAt,
		req.ModelFilename,
		req.ModelAccuracy,
		req.DataPoints,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("mark approved: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("mark approved: %w", err)
	}

	return nil
}

func (r *repository) MarkRejected(
	ctx context.Context,
	id uuid.UUID,
	reason string,
) error {
	query := `
		UPDATE company_requests
		SET status = $2, rejection_reason = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, StatusRejected, reason)
	if err != nil {
		return fmt.Errorf("mark rejected: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark rejected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("mark rejected: %w", core.ErrNotFound)
	}

	return nil
}

// Delete removes the request row. The active_accounts foreign key
// cascades, so any issued account goes with it.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM company_requests WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete request: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) HasPendingForEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM company_requests
			WHERE email = $1 AND status = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, StatusPending); err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}

	return exists, nil
}

func (r *repository) CountByStatus(
	ctx context.Context,
) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM company_requests
		GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
