// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksdeva/predictor-admin/internal/config"
	"github.com/ksdeva/predictor-admin/internal/core"
)

type fakeAdminRepo struct {
	mu     sync.Mutex
	admins map[string]*AdminUser
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: make(map[string]*AdminUser)}
}

func (f *fakeAdminRepo) Create(_ context.Context, admin *AdminUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *admin
	f.admins[admin.ID] = &cp
	return nil
}

func (f *fakeAdminRepo) GetByID(
	_ context.Context,
	id string,
) (*AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[id]
	if !ok {
		return nil, fmt.Errorf("get admin: %w", core.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAdminRepo) GetByEmail(
	_ context.Context,
	email string,
) (*AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get admin: %w", core.ErrNotFound)
}

func (f *fakeAdminRepo) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	a.PasswordHash = passwordHash
	return nil
}

func (f *fakeAdminRepo) IncrementTokenVersion(
	_ context.Context,
	id string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[id]
	if !ok {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}
	a.TokenVersion++
	return nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (f *fakeTokenRepo) Create(_ context.Context, token *RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	cp.CreatedAt = time.Now().UTC()
	f.tokens[token.ID] = &cp
	return nil
}

func (f *fakeTokenRepo) FindByHash(
	_ context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find token: %w", core.ErrNotFound)
}

func (f *fakeTokenRepo) MarkAsUsed(
	_ context.Context,
	id, replacedByID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return fmt.Errorf("mark token used: %w", core.ErrNotFound)
	}
	now := time.Now().UTC()
	t.IsUsed = true
	t.UsedAt = &now
	t.ReplacedByID = &replacedByID
	return nil
}

func (f *fakeTokenRepo) RevokeByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return fmt.Errorf("revoke token: %w", core.ErrNotFound)
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	return nil
}

func (f *fakeTokenRepo) RevokeByFamilyID(
	_ context.Context,
	familyID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range f.tokens {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokenRepo) RevokeAllForUser(
	_ context.Context,
	userID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, t := range f.tokens {
		if t.IsExpired() {
			delete(f.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeTokenRepo) get(id string) *RefreshToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.tokens[id]
	return &cp
}

func (f *fakeTokenRepo) all() []RefreshToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RefreshToken
	for _, t := range f.tokens {
		out = append(out, *t)
	}
	return out
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "jwt_private.pem")
	publicPath := filepath.Join(dir, "jwt_public.pem")
	require.NoError(t, GenerateKeyPair(privatePath, publicPath))

	mgr, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privatePath,
		PublicKeyPath:      publicPath,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 720 * time.Hour,
		Issuer:             "predictor-admin",
		Audience:           "predictor-api",
	})
	require.NoError(t, err)
	return mgr
}

const testPassword = "correct-horse-battery"

type authFixture struct {
	service *Service
	admins  *fakeAdminRepo
	tokens  *fakeTokenRepo
	admin   *AdminUser
	jwt     *JWTManager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	admins := newFakeAdminRepo()
	tokens := newFakeTokenRepo()
	mgr := newTestJWTManager(t)

	hash, err := core.HashPassword(testPassword)
	require.NoError(t, err)

	admin := &AdminUser{
		ID:           uuid.New().String(),
		Email:        "admin@predictor.example",
		PasswordHash: hash,
		Name:         "Dana Whitfield",
		Role:         "admin",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, admins.Create(context.Background(), admin))

	return &authFixture{
		service: NewService(admins, tokens, mgr),
		admins:  admins,
		tokens:  tokens,
		admin:   admin,
		jwt:     mgr,
	}
}

func (fx *authFixture) login(t *testing.T) *AuthResponse {
	t.Helper()

	resp, err := fx.service.Login(
		context.Background(),
		LoginRequest{Email: fx.admin.Email, Password: testPassword},
		"test-agent",
		"127.0.0.1",
	)
	require.NoError(t, err)
	return resp
}

func TestLoginIssuesVerifiableTokenPair(t *testing.T) {
	fx := newAuthFixture(t)

	resp := fx.login(t)

	assert.Equal(t, fx.admin.ID, resp.Admin.ID)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	claims, err := fx.jwt.VerifyAccessToken(
		context.Background(),
		resp.Tokens.AccessToken,
	)
	require.NoError(t, err)
	assert.Equal(t, fx.admin.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	stored, err := fx.tokens.FindByHash(
		context.Background(),
		core.HashToken(resp.Tokens.RefreshToken),
	)
	require.NoError(t, err)
	assert.Equal(t, fx.admin.ID, stored.UserID)
	assert.False(t, stored.IsUsed)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Login(
		context.Background(),
		LoginRequest{Email: fx.admin.Email, Password: "wrong"},
		"test-agent",
		"127.0.0.1",
	)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = fx.service.Login(
		context.Background(),
		LoginRequest{Email: "nobody@predictor.example", Password: testPassword},
		"test-agent",
		"127.0.0.1",
	)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesWithinFamily(t *testing.T) {
	fx := newAuthFixture(t)
	first := fx.login(t)

	firstStored, err := fx.tokens.FindByHash(
		context.Background(),
		core.HashToken(first.Tokens.RefreshToken),
	)
	require.NoError(t, err)

	second, err := fx.service.Refresh(
		context.Background(),
		first.Tokens.RefreshToken,
		"test-agent",
		"127.0.0.1",
	)
	require.NoError(t, err)
	assert.NotEqual(
		t,
		first.Tokens.RefreshToken,
		second.Tokens.RefreshToken,
	)

	rotated := fx.tokens.get(firstStored.ID)
	assert.True(t, rotated.IsUsed)
	require.NotNil(t, rotated.ReplacedByID)

	secondStored, err := fx.tokens.FindByHash(
		context.Background(),
		core.HashToken(second.Tokens.RefreshToken),
	)
	require.NoError(t, err)
	assert.Equal(t, firstStored.FamilyID, secondStored.FamilyID)
	assert.Equal(t, secondStored.ID, *rotated.ReplacedByID)
}

func TestRefreshReuseRevokesWholeFamily(t *testing.T) {
	fx := newAuthFixture(t)
	first := fx.login(t)

	_, err := fx.service.Refresh(
		context.Background(),
		first.Tokens.RefreshToken,
		"test-agent",
		"127.0.0.1",
	)
	require.NoError(t, err)

	// Replaying the rotated token must burn every token in the family.
	_, err = fx.service.Refresh(
		context.Background(),
		first.Tokens.RefreshToken,
		"test-agent",
		"127.0.0.1",
	)
	assert.ErrorIs(t, err, ErrTokenReuse)

	for _, stored := range fx.tokens.all() {
		assert.NotNil(t, stored.RevokedAt, "token %s not revoked", stored.ID)
	}
}

func TestRefreshRejectsExpiredAndRevoked(t *testing.T) {
	fx := newAuthFixture(t)

	expired := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    fx.admin.ID,
		TokenHash: core.HashToken("expired-token"),
		FamilyID:  uuid.New().String(),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, fx.tokens.Create(context.Background(), expired))

	_, err := fx.service.Refresh(
		context.Background(),
		"expired-token",
		"test-agent",
		"127.0.0.1",
	)
	assert.ErrorIs(t, err, core.ErrTokenExpired)

	resp := fx.login(t)
	stored, err := fx.tokens.FindByHash(
		context.Background(),
		core.HashToken(resp.Tokens.RefreshToken),
	)
	require.NoError(t, err)
	require.NoError(t, fx.tokens.RevokeByID(context.Background(), stored.ID))

	_, err = fx.service.Refresh(
		context.Background(),
		resp.Tokens.RefreshToken,
		"test-agent",
		"127.0.0.1",
	)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = fx.service.Refresh(
		context.Background(),
		"never-issued",
		"test-agent",
		"127.0.0.1",
	)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestLogoutRevokesOnlyOwnToken(t *testing.T) {
	fx := newAuthFixture(t)
	resp := fx.login(t)

	err := fx.service.Logout(
		context.Background(),
		resp.Tokens.RefreshToken,
		"someone-else",
	)
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, fx.service.Logout(
		context.Background(),
		resp.Tokens.RefreshToken,
		fx.admin.ID,
	))

	stored, err := fx.tokens.FindByHash(
		context.Background(),
		core.HashToken(resp.Tokens.RefreshToken),
	)
	require.NoError(t, err)
	assert.NotNil(t, stored.RevokedAt)
}

func TestChangePasswordRevokesAllSessions(t *testing.T) {
	fx := newAuthFixture(t)
	fx.login(t)

	err := fx.service.ChangePassword(
		context.Background(),
		fx.admin.ID,
		"wrong-current",
		"brand-new-password",
	)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, fx.service.ChangePassword(
		context.Background(),
		fx.admin.ID,
		testPassword,
		"brand-new-password",
	))

	updated, err := fx.admins.GetByID(context.Background(), fx.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TokenVersion)

	valid, _, err := core.VerifyPasswordWithRehash(
		"brand-new-password",
		updated.PasswordHash,
	)
	require.NoError(t, err)
	assert.True(t, valid)

	for _, stored := range fx.tokens.all() {
		assert.NotNil(t, stored.RevokedAt)
	}

	err = fx.service.ValidateTokenVersion(context.Background(), fx.admin.ID, 0)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	assert.NoError(
		t,
		fx.service.ValidateTokenVersion(context.Background(), fx.admin.ID, 1),
	)
}
