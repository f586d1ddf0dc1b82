// AngelaMos | 2026
// service_test.go

package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksdeva/predictor-admin/internal/account"
	"github.com/ksdeva/predictor-admin/internal/core"
	"github.com/ksdeva/predictor-admin/internal/notifier"
	"github.com/ksdeva/predictor-admin/internal/training"
)

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*CompanyRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*CompanyRequest)}
}

func (f *fakeRequestRepo) put(r *CompanyRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.requests[r.ID] = &cp
}

func (f *fakeRequestRepo) Create(_ context.Context, r *CompanyRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	f.requests[r.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) GetByID(
	_ context.Context,
	id uuid.UUID,
) (*CompanyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, fmt.Errorf("get request: %w", core.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequestRepo) GetByIDForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*CompanyRequest, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRequestRepo) List(
	_ context.Context,
	status string,
	limit, offset int,
) ([]CompanyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []CompanyRequest
	for _, r := range f.requests {
		if status == "" || r.Status == status {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeRequestRepo) Count(
	_ context.Context,
	status string,
) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.requests {
		if status == "" || r.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeRequestRepo) MarkApproved(
	_ context.Context,
	r *CompanyRequest,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.requests[r.ID]
	if !ok {
		return fmt.Errorf("mark approved: %w", core.ErrNotFound)
	}
	*stored = *r
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRequestRepo) MarkRejected(
	_ context.Context,
	id uuid.UUID,
	reason string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.requests[id]
	if !ok {
		return fmt.Errorf("mark rejected: %w", core.ErrNotFound)
	}
	stored.Status = StatusRejected
	stored.RejectionReason = &reason
	return nil
}

func (f *fakeRequestRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[id]; !ok {
		return fmt.Errorf("delete request: %w", core.ErrNotFound)
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeRequestRepo) HasPendingForEmail(
	_ context.Context,
	email string,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Email == email && r.Status == StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestRepo) CountByStatus(
	_ context.Context,
) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, r := range f.requests {
		counts[r.Status]++
	}
	return counts, nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*account.Account)}
}

func (f *fakeAccountRepo) Create(_ context.Context, a *account.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.RequestID == a.RequestID {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	f.accounts[a.ID] = &cp
	return nil
}

func (f *fakeAccountRepo) GetByID(
	_ context.Context,
	id uuid.UUID,
) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountRepo) GetByRequestID(
	_ context.Context,
	requestID uuid.UUID,
) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.RequestID == requestID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get account by request: %w", core.ErrNotFound)
}

func (f *fakeAccountRepo) List(_ context.Context) ([]account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []account.Account
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAccountRepo) ListInactiveSince(
	_ context.Context,
	cutoff time.Time,
) ([]account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []account.Account
	for _, a := range f.accounts {
		ref := a.CreatedAt
		if a.LastActivityAt != nil {
			ref = *a.LastActivityAt
		}
		if ref.Before(cutoff) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) ListLowAccuracy(
	_ context.Context,
	threshold float64,
) ([]account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []account.Account
	for _, a := range f.accounts {
		if a.ModelAccuracy > 0 && a.ModelAccuracy < threshold {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) RecordWarning(
	_ context.Context,
	id uuid.UUID,
	status string,
	at time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return fmt.Errorf("record warning: %w", core.ErrNotFound)
	}
	a.LastNotifiedStatus = &status
	a.WarningsSent++
	a.LastWarningAt = &at
	return nil
}

func (f *fakeAccountRepo) RecordAccuracyWarning(
	_ context.Context,
	id uuid.UUID,
	at time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return fmt.Errorf("record accuracy warning: %w", core.ErrNotFound)
	}
	a.AccuracyWarningSent = true
	a.LastAccuracyCheckAt = &at
	return nil
}

func (f *fakeAccountRepo) TouchActivity(
	_ context.Context,
	id uuid.UUID,
	at time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return fmt.Errorf("touch activity: %w", core.ErrNotFound)
	}
	a.LastActivityAt = &at
	a.LastNotifiedStatus = nil
	return nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		return fmt.Errorf("delete account: %w", core.ErrNotFound)
	}
	delete(f.accounts, id)
	return nil
}

type fakeTrainer struct {
	mu      sync.Mutex
	err     error
	result  training.TrainResult
	calls   int
	cleaned []string
}

func (f *fakeTrainer) Train(
	_ context.Context,
	_ uuid.UUID,
	_ string,
) (*training.TrainResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := f.result
	return &r, nil
}

func (f *fakeTrainer) Cleanup(_ context.Context, model string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, model)
	return nil
}

type fakeNotifier struct {
	mu          sync.Mutex
	credsErr    error
	credentials []notifier.Credentials
	warnings    []notifier.Warning
	deletions   []notifier.DeletionNotice
	accuracy    []notifier.AccuracyWarning
}

func (f *fakeNotifier) SendCredentials(
	_ context.Context,
	c notifier.Credentials,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.credsErr != nil {
		return f.credsErr
	}
	f.credentials = append(f.credentials, c)
	return nil
}

func (f *fakeNotifier) SendWarning(_ context.Context, w notifier.Warning) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, w)
	return nil
}

func (f *fakeNotifier) SendDeletionNotice(
	_ context.Context,
	d notifier.DeletionNotice,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletions = append(f.deletions, d)
	return nil
}

func (f *fakeNotifier) SendAccuracyWarning(
	_ context.Context,
	w notifier.AccuracyWarning,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accuracy = append(f.accuracy, w)
	return nil
}

type serviceFixture struct {
	service  *Service
	requests *fakeRequestRepo
	accounts *fakeAccountRepo
	trainer  *fakeTrainer
	notifier *fakeNotifier
}

func newServiceFixture() *serviceFixture {
	requests := newFakeRequestRepo()
	accounts := newFakeAccountRepo()
	trainer := &fakeTrainer{
		result: training.TrainResult{
			ModelFilename: "model_abc.pkl",
			Accuracy:      0.87,
			DataPoints:    1200,
		},
	}
	n := &fakeNotifier{}

	// Serializing transactions on one mutex mirrors the row lock the
	// real transactor takes.
	var txMu sync.Mutex
	inTx := func(_ context.Context, fn func(s Stores) error) error {
		txMu.Lock()
		defer txMu.Unlock()
		return fn(Stores{Requests: requests, Accounts: accounts})
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		requests,
		accounts,
		inTx,
		trainer,
		n,
		"http://localhost:3000/company-login",
		logger,
	)

	return &serviceFixture{
		service:  svc,
		requests: requests,
		accounts: accounts,
		trainer:  trainer,
		notifier: n,
	}
}

func pendingRequest() *CompanyRequest {
	return &CompanyRequest{
		ID:            uuid.New(),
		CompanyName:   "Acme Analytics",
		Email:         "ops@acme.example",
		ContactPerson: "Jordan Reyes",
		DatasetPath:   "uploads/acme.csv",
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC().AddDate(0, 0, -2),
	}
}

func TestApprovePendingRequest(t *testing.T) {
	fx := newServiceFixture()
	req := pendingRequest()
	fx.requests.put(req)

	result, err := fx.service.Approve(context.Background(), req.ID, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, result.Request.Status)
	assert.NotNil(t, result.Request.ApprovedAt)
	assert.Equal(t, "admin-1", *result.Request.ApprovedBy)
	assert.Equal(t, 0.87, result.ModelAccuracy)
	assert.Equal(t, 1200, result.DataPoints)
	assert.NotEmpty(t, result.Username)
	assert.Len(t, result.Password, issuedPasswordLength)
	assert.True(t, result.EmailSent)

	// one account issued, linked to the request, password never stored
	// in the clear
	acct, err := fx.accounts.GetByRequestID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Email, acct.Email)
	assert.Equal(t, result.Username, acct.Username)
	assert.NotEqual(t, result.Password, acct.PasswordHash)

	require.Len(t, fx.notifier.credentials, 1)
	assert.Equal(t, result.Password, fx.notifier.credentials[0].Password)
}

func TestApproveNonPendingRequestFails(t *testing.T) {
	for _, status := range []string{StatusApproved, StatusRejected} {
		t.Run(status, func(t *testing.T) {
			fx := newServiceFixture()
			req := pendingRequest()
			req.Status = status
			fx.requests.put(req)

			_, err := fx.service.Approve(
				context.Background(),
				req.ID,
				"admin-1",
			)
			assert.ErrorIs(t, err, core.ErrInvalidState)
			assert.Equal(t, 0, fx.trainer.calls)
		})
	}
}

func TestApproveTrainingFailureLeavesRequestPending(t *testing.T) {
	fx := newServiceFixture()
	fx.trainer.err = core.DependencyError("model training failed", nil)
	req := pendingRequest()
	fx.requests.put(req)

	_, err := fx.service.Approve(context.Background(), req.ID, "admin-1")
	assert.ErrorIs(t, err, core.ErrDependency)

	stored, err := fx.requests.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Nil(t, stored.ApprovedAt)

	_, err = fx.accounts.GetByRequestID(context.Background(), req.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, fx.notifier.credentials)
}

func TestApproveEmailFailureStillApproves(t *testing.T) {
	fx := newServiceFixture()
	fx.notifier.credsErr = errors.New("smtp down")
	req := pendingRequest()
	fx.requests.put(req)

	result, err := fx.service.Approve(context.Background(), req.ID, "admin-1")
	require.NoError(t, err)

	assert.False(t, result.EmailSent)
	assert.Equal(t, StatusApproved, result.Request.Status)
}

func TestConcurrentApproveOneWinner(t *testing.T) {
	fx := newServiceFixture()
	req := pendingRequest()
	fx.requests.put(req)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.service.Approve(
				context.Background(),
				req.ID,
				"admin-1",
			)
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		if err == nil {
			wins++
		} else if errors.Is(err, core.ErrInvalidState) {
			losses++
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	assert.Equal(t, 1, fx.trainer.calls)

	accounts, err := fx.accounts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestRejectPendingRequest(t *testing.T) {
	fx := newServiceFixture()
	req := pendingRequest()
	fx.requests.put(req)

	rejected, err := fx.service.Reject(
		context.Background(),
		req.ID,
		"dataset too small",
	)
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "dataset too small", *rejected.RejectionReason)
}

func TestRejectApprovedRequestFails(t *testing.T) {
	fx := newServiceFixture()
	req := pendingRequest()
	req.Status = StatusApproved
	fx.requests.put(req)

	_, err := fx.service.Reject(context.Background(), req.ID, "nope")
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestForceDeleteApprovedRequest(t *testing.T) {
	fx := newServiceFixture()
	req := pendingRequest()
	fx.requests.put(req)

	_, err := fx.service.Approve(context.Background(), req.ID, "admin-1")
	require.NoError(t, err)

	err = fx.service.ForceDelete(context.Background(), req.ID)
	require.NoError(t, err)

	_, err = fx.requests.GetByID(context.Background(), req.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t, []string{"model_abc.pkl"}, fx.trainer.cleaned)
	require.Len(t, fx.notifier.deletions, 1)
	assert.Equal(t, req.Email, fx.notifier.deletions[0].Email)
}

func TestForceDeleteNonApprovedRequestFails(t *testing.T) {
	rejectionReason := "dataset too small"

	cases := []struct {
		name   string
		mutate func(req *CompanyRequest)
	}{
		{
			name:   "pending",
			mutate: func(req *CompanyRequest) {},
		},
		{
			name: "rejected",
			mutate: func(req *CompanyRequest) {
				req.Status = StatusRejected
				req.RejectionReason = &rejectionReason
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newServiceFixture()
			req := pendingRequest()
			tc.mutate(req)
			fx.requests.put(req)

			err := fx.service.ForceDelete(context.Background(), req.ID)
			assert.ErrorIs(t, err, core.ErrInvalidState)

			kept, err := fx.requests.GetByID(context.Background(), req.ID)
			require.NoError(t, err)
			assert.Equal(t, req.Status, kept.Status)

			assert.Empty(t, fx.notifier.deletions)
			assert.Empty(t, fx.trainer.cleaned)
		})
	}
}

func TestForceDeleteMissingRequest(t *testing.T) {
	fx := newServiceFixture()

	err := fx.service.ForceDelete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRecordActivityResetsInactivityClock(t *testing.T) {
	fx := newServiceFixture()
	req := pendingRequest()
	fx.requests.put(req)

	_, err := fx.service.Approve(context.Background(), req.ID, "admin-1")
	require.NoError(t, err)

	accounts, err := fx.accounts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	id := accounts[0].ID

	stale := time.Now().UTC().AddDate(0, 0, -40)
	warned := "warning_2"
	fx.accounts.accounts[id].LastActivityAt = &stale
	fx.accounts.accounts[id].LastNotifiedStatus = &warned

	require.NoError(t, fx.service.RecordActivity(context.Background(), id))

	got, err := fx.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got.LastNotifiedStatus)
	require.NotNil(t, got.LastActivityAt)
	assert.WithinDuration(t, time.Now().UTC(), *got.LastActivityAt, time.Minute)
}

func TestRecordActivityUnknownAccount(t *testing.T) {
	fx := newServiceFixture()

	err := fx.service.RecordActivity(context.Background(), uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSubmitRejectsDuplicatePending(t *testing.T) {
	fx := newServiceFixture()

	first := SubmitRequest{
		CompanyName:   "Acme Analytics",
		Email:         "Ops@Acme.example",
		ContactPerson: "Jordan Reyes",
		DatasetPath:   "uploads/acme.csv",
	}

	created, err := fx.service.Submit(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, "ops@acme.example", created.Email)

	_, err = fx.service.Submit(context.Background(), first)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	fx := newServiceFixture()

	_, err := fx.service.List(context.Background(), "archived", 1, 20)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestListPaginates(t *testing.T) {
	fx := newServiceFixture()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		req := pendingRequest()
		req.Email = fmt.Sprintf("ops%d@acme.example", i)
		req.CreatedAt = base.Add(-time.Duration(i) * time.Hour)
		fx.requests.put(req)
	}

	page, err := fx.service.List(context.Background(), StatusPending, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Requests, 2)
	assert.Equal(t, "ops2@acme.example", page.Requests[0].Email)
	assert.Equal(t, "ops3@acme.example", page.Requests[1].Email)

	// out-of-range arguments clamp to sane defaults
	page, err = fx.service.List(context.Background(), "", 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxPageSize, page.PageSize)
	assert.Len(t, page.Requests, 5)
}
