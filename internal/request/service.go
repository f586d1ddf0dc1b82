// AngelaMos | 2026
// service.go

package request

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ksdeva/predictor-admin/internal/account"
	"github.com/ksdeva/predictor-admin/internal/core"
	"github.com/ksdeva/predictor-admin/internal/notifier"
	"github.com/ksdeva/predictor-admin/internal/training"
)

const (
	issuedPasswordLength = 16

	defaultPageSize = 20
	maxPageSize     = 100
)

// Stores bundles the repositories a lifecycle transaction touches.
type Stores struct {
	Requests Repository
	Accounts account.Repository
}

// Transactor runs fn inside a single database transaction, handing it
// repositories bound to that transaction.
type Transactor func(ctx context.Context, fn func(s Stores) error) error

func NewTransactor(db *sqlx.DB) Transactor {
	return func(ctx context.Context, fn func(s Stores) error) error {
		return core.InTx(ctx, db, func(tx *sqlx.Tx) error {
			return fn(Stores{
				Requests: NewRepository(tx),
				Accounts: account.NewRepository(tx),
			})
		})
	}
}

type Service struct {
	requests Repository
	accounts account.Repository
	inTx     Transactor
	trainer  training.Trainer
	notifier notifier.Notifier
	loginURL string
	logger   *slog.Logger
}

func NewService(
	requests Repository,
	accounts account.Repository,
	inTx Transactor,
	trainer training.Trainer,
	n notifier.Notifier,
	loginURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		requests: requests,
		accounts: accounts,
		inTx:     inTx,
		trainer:  trainer,
		notifier: n,
		loginURL: loginURL,
		logger:   logger,
	}
}

// Submit records a new onboarding application in pending state.
func (s *Service) Submit(
	ctx context.Context,
	req SubmitRequest,
) (*CompanyRequest, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	pending, err := s.requests.HasPendingForEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, core.ConflictError(
			"a pending request already exists for this email",
		)
	}

	cr := &CompanyRequest{
		ID:            uuid.New(),
		CompanyName:   strings.TrimSpace(req.CompanyName),
		Email:         email,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Message:       req.Message,
		DatasetPath:   req.DatasetPath,
		Status:        StatusPending,
	}

	if err := s.requests.Create(ctx, cr); err != nil {
		return nil, err
	}

	s.logger.Info("company request submitted",
		slog.String("request_id", cr.ID.String()),
		slog.String("company", cr.CompanyName),
	)

	return cr, nil
}

func (s *Service) Get(
	ctx context.Context,
	id uuid.UUID,
) (*CompanyRequest, error) {
	return s.requests.GetByID(ctx, id)
}

// RequestPage is one page of the request list.
type RequestPage struct {
	Requests []CompanyRequest
	Total    int
	Page     int
	PageSize int
}

// List returns one page of requests plus the total matching count.
// Out-of-range page arguments are clamped rather than rejected.
func (s *Service) List(
	ctx context.Context,
	status string,
	page, pageSize int,
) (*RequestPage, error) {
	if status != "" && !ValidStatus(status) {
		return nil, core.ValidationError(
			fmt.Sprintf("unknown status filter %q", status),
		)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total, err := s.requests.Count(ctx, status)
	if err != nil {
		return nil, err
	}

	requests, err := s.requests.List(ctx, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &RequestPage{
		Requests: requests,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Approve transitions a pending request to approved. The row stays
// locked for the whole operation, so concurrent approvals of the same
// request serialize and the loser sees a non-pending status. Model
// training is mandatory: if it fails nothing is committed and the
// request stays pending.
func (s *Service) Approve(
	ctx context.Context,
	id uuid.UUID,
	adminID string,
) (*ApprovalResponse, error) {
	var (
		approved *CompanyRequest
		creds    notifier.Credentials
		username string
		password string
	)

	err := s.inTx(ctx, func(st Stores) error {
		req, err := st.Requests.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if !req.IsPending() {
			return core.InvalidStateError(fmt.Sprintf(
				"request is %s, only pending requests can be approved",
				req.Status,
			))
		}

		username, err = core.GenerateUsername(req.CompanyName)
		if err != nil {
			return fmt.Errorf("generate username: %w", err)
		}

		password, err = core.GeneratePassword(issuedPasswordLength)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}

		passwordHash, err := core.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		result, err := s.trainer.Train(ctx, req.ID, req.DatasetPath)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		req.Status = StatusApproved
		req.ApprovedBy = &adminID
		req.ApprovedAt = &now
		req.ModelFilename = &result.ModelFilename
		req.ModelAccuracy = &result.Accuracy
		req.DataPoints = result.DataPoints

		if err := st.Requests.MarkApproved(ctx, req); err != nil {
			return err
		}

		acct := &account.Account{
			ID:            uuid.New(),
			RequestID:     req.ID,
			CompanyName:   req.CompanyName,
			Email:         req.Email,
			Username:      username,
			PasswordHash:  passwordHash,
			ModelFilename: result.ModelFilename,
			ModelAccuracy: result.Accuracy,
			DataPoints:    result.DataPoints,
		}

		if err := st.Accounts.Create(ctx, acct); err != nil {
			return err
		}

		approved = req
		creds = notifier.Credentials{
			Email:       req.Email,
			CompanyName: req.CompanyName,
			Username:    username,
			Password:    password,
			LoginURL:    s.loginURL,
			Accuracy:    result.Accuracy,
			DataPoints:  result.DataPoints,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Credentials delivery is best-effort: the approval already
	// committed and the password is echoed in the response.
	emailSent := true
	if err := s.notifier.SendCredentials(ctx, creds); err != nil {
		emailSent = false
		s.logger.Warn("credentials email not delivered",
			slog.String("request_id", approved.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("company request approved",
		slog.String("request_id", approved.ID.String()),
		slog.String("company", approved.CompanyName),
		slog.String("approved_by", adminID),
	)

	return &ApprovalResponse{
		Request:       ToResponse(approved),
		Username:      username,
		Password:      password,
		ModelAccuracy: *approved.ModelAccuracy,
		DataPoints:    approved.DataPoints,
		EmailSent:     emailSent,
	}, nil
}

// Reject transitions a pending request to rejected with a reason.
func (s *Service) Reject(
	ctx context.Context,
	id uuid.UUID,
	reason string,
) (*CompanyRequest, error) {
	var rejected *CompanyRequest

	err := s.inTx(ctx, func(st Stores) error {
		req, err := st.Requests.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if !req.IsPending() {
			return core.InvalidStateError(fmt.Sprintf(
				"request is %s, only pending requests can be rejected",
				req.Status,
			))
		}

		if err := st.Requests.MarkRejected(ctx, req.ID, reason); err != nil {
			return err
		}

		req.Status = StatusRejected
		req.RejectionReason = &reason
		rejected = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("company request rejected",
		slog.String("request_id", rejected.ID.String()),
		slog.String("company", rejected.CompanyName),
	)

	return rejected, nil
}

// ForceDelete removes an approved request together with its issued
// account (via the cascading foreign key). Pending and rejected
// requests go through Reject or expire on their own; deleting them
// here would silently drop a submission an admin never ruled on.
// Model cleanup and the deletion notice run after commit and are
// best-effort.
func (s *Service) ForceDelete(ctx context.Context, id uuid.UUID) error {
	var (
		modelFilename string
		notice        *notifier.DeletionNotice
	)

	err := s.inTx(ctx, func(st Stores) error {
		req, err := st.Requests.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if !req.IsApproved() {
			return core.InvalidStateError(fmt.Sprintf(
				"only approved requests can be force deleted, request is %s",
				req.Status,
			))
		}

		if req.ModelFilename != nil {
			modelFilename = *req.ModelFilename
		}

		notice = &notifier.DeletionNotice{
			Email:       req.Email,
			CompanyName: req.CompanyName,
			Reason:      "removed by an administrator",
		}

		return st.Requests.Delete(ctx, req.ID)
	})
	if err != nil {
		return err
	}

	if modelFilename != "" {
		if err := s.trainer.Cleanup(ctx, modelFilename); err != nil {
			s.logger.Warn("model cleanup failed",
				slog.String("request_id", id.String()),
				slog.String("model", modelFilename),
				slog.String("error", err.Error()),
			)
		}
	}

	if notice != nil {
		if err := s.notifier.SendDeletionNotice(ctx, *notice); err != nil {
			s.logger.Warn("deletion notice not delivered",
				slog.String("request_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("company request deleted",
		slog.String("request_id", id.String()),
	)

	return nil
}

// RecordActivity resets the inactivity clock for an issued account and
// clears any pending warning state. The predictor backend calls this
// whenever the company logs in or runs a prediction.
func (s *Service) RecordActivity(ctx context.Context, accountID uuid.UUID) error {
	if err := s.accounts.TouchActivity(ctx, accountID, time.Now().UTC()); err != nil {
		return err
	}

	s.logger.Debug("account activity recorded",
		slog.String("account_id", accountID.String()),
	)

	return nil
}

func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	return s.requests.CountByStatus(ctx)
}

// ListCompanies returns the issued accounts, the admin view of
// approved companies.
func (s *Service) ListCompanies(ctx context.Context) ([]account.Account, error) {
	return s.accounts.List(ctx)
}
