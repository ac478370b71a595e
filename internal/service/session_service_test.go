package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/session-api/internal/models"
	"github.com/noah-isme/session-api/internal/repository"
	appErrors "github.com/noah-isme/session-api/pkg/errors"
)

type mockUserRepo struct {
	mu        sync.Mutex
	byEmail   map[string]*models.User
	findErr   error
	createErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: make(map[string]*models.User)}
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	user, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.byEmail[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	user.ID = uuid.NewString()
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) delete(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byEmail, email)
}

type mockRevocationStore struct {
	mu          sync.Mutex
	active      map[string]bool
	down         bool
	failActivate bool
	activations  int
}

func newMockRevocationStore() *mockRevocationStore {
	return &mockRevocationStore{active: make(map[string]bool)}
}

func (m *mockRevocationStore) Activate(ctx context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down || m.failActivate {
		return errors.New("connection refused")
	}
	m.active[fingerprint] = true
	m.activations++
	return nil
}

func (m *mockRevocationStore) Deactivate(ctx context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errors.New("connection refused")
	}
	delete(m.active, fingerprint)
	return nil
}

func (m *mockRevocationStore) IsActive(ctx context.Context, fingerprint string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return false
	}
	return m.active[fingerprint]
}

func (m *mockRevocationStore) ConnectionCount(ctx context.Context) int64 {
	if m.down {
		return 0
	}
	return 1
}

func (m *mockRevocationStore) Health(ctx context.Context) bool {
	return !m.down
}

func (m *mockRevocationStore) liveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *mockRevocationStore) setFailActivate(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failActivate = fail
}

func (m *mockRevocationStore) setDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

type sessionFixture struct {
	svc    *SessionService
	users  *mockUserRepo
	store  *mockRevocationStore
	tokens *TokenService
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	users := newMockUserRepo()
	store := newMockRevocationStore()
	tokens := NewTokenService(TokenConfig{Secret: "secret"})
	svc := NewSessionService(users, store, NewPasswordService(testPasswordParams()), tokens, validator.New(), zap.NewNop(), NewMetricsService())
	return &sessionFixture{svc: svc, users: users, store: store, tokens: tokens}
}

func (f *sessionFixture) signIn(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.SignUp(ctx, models.CredentialsRequest{Email: email, Password: password}))
	res, err := f.svc.SignIn(ctx, models.CredentialsRequest{Email: email, Password: password})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	return res.Token
}

func requireCode(t *testing.T, err error, target *appErrors.Error) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, target.Code, appErr.Code, "unexpected error: %v", err)
	return appErr
}

func TestSessionRoundTrip(t *testing.T) {
	f := newSessionFixture(t)
	token := f.signIn(t, "a@test.com", "pw1")

	claims, err := f.svc.Verify(context.Background(), models.TokenRequest{Token: token})
	require.NoError(t, err)
	assert.Equal(t, "a@test.com", claims.Email)
	assert.True(t, f.store.IsActive(context.Background(), Fingerprint(token)))
}

func TestSignUpStoresHashedPassword(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.svc.SignUp(context.Background(), models.CredentialsRequest{Email: "a@test.com", Password: "pw1"}))

	user := f.users.byEmail["a@test.com"]
	require.NotNil(t, user)
	assert.NotEqual(t, "pw1", user.PasswordHash)
	assert.NotEmpty(t, user.ID)
}

func TestSignUpValidation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	err := f.svc.SignUp(ctx, models.CredentialsRequest{})
	appErr := requireCode(t, err, appErrors.ErrEmailRequired)
	assert.Equal(t, "Email is required", appErr.Message)

	err = f.svc.SignUp(ctx, models.CredentialsRequest{Email: "t"})
	appErr = requireCode(t, err, appErrors.ErrPasswordRequired)
	assert.Equal(t, "Password is required", appErr.Message)
}

func TestSignUpExistingUser(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	req := models.CredentialsRequest{Email: "a@test.com", Password: "pw1"}

	require.NoError(t, f.svc.SignUp(ctx, req))
	err := f.svc.SignUp(ctx, req)
	appErr := requireCode(t, err, appErrors.ErrUserExists)
	assert.Equal(t, 400, appErr.Status)
}

func TestSignUpDuplicateRaceMapsToUserExists(t *testing.T) {
	f := newSessionFixture(t)
	f.users.createErr = repository.ErrDuplicateEmail

	err := f.svc.SignUp(context.Background(), models.CredentialsRequest{Email: "a@test.com", Password: "pw1"})
	requireCode(t, err, appErrors.ErrUserExists)
}

func TestSignUpRepositoryFailureIsInternal(t *testing.T) {
	f := newSessionFixture(t)
	f.users.findErr = errors.New("db down")

	err := f.svc.SignUp(context.Background(), models.CredentialsRequest{Email: "a@test.com", Password: "pw1"})
	appErr := requireCode(t, err, appErrors.ErrInternal)
	assert.Equal(t, 500, appErr.Status)
}

func TestSignInDistinctErrors(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SignUp(ctx, models.CredentialsRequest{Email: "a@test.com", Password: "pw1"}))

	_, err := f.svc.SignIn(ctx, models.CredentialsRequest{Email: "nobody@test.com", Password: "pw1"})
	appErr := requireCode(t, err, appErrors.ErrUserDoesNotExist)
	assert.Equal(t, "User does not exist", appErr.Message)

	_, err = f.svc.SignIn(ctx, models.CredentialsRequest{Email: "a@test.com", Password: "wrong"})
	appErr = requireCode(t, err, appErrors.ErrPasswordIncorrect)
	assert.Equal(t, "Password is incorrect", appErr.Message)

	assert.Equal(t, 0, f.store.activations)
}

func TestSignInStoreDownIsInternal(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SignUp(ctx, models.CredentialsRequest{Email: "a@test.com", Password: "pw1"}))
	f.store.setDown(true)

	_, err := f.svc.SignIn(ctx, models.CredentialsRequest{Email: "a@test.com", Password: "pw1"})
	requireCode(t, err, appErrors.ErrInternal)
}

func TestSignOutRevokesToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	token := f.signIn(t, "a@test.com", "pw1")

	require.NoError(t, f.svc.SignOut(ctx, token))

	_, err := f.svc.Verify(ctx, models.TokenRequest{Token: token})
	appErr := requireCode(t, err, appErrors.ErrTokenInactive)
	assert.Equal(t, 401, appErr.Status)
	assert.Equal(t, "Invalid token", appErr.Message)
}

func TestSignOutIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	token := f.signIn(t, "a@test.com", "pw1")

	require.NoError(t, f.svc.SignOut(ctx, token))
	require.NoError(t, f.svc.SignOut(ctx, token))
	require.NoError(t, f.svc.SignOut(ctx, "never-issued"))
}

func TestSignOutErrors(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	requireCode(t, f.svc.SignOut(ctx, ""), appErrors.ErrTokenRequired)

	f.store.setDown(true)
	appErr := requireCode(t, f.svc.SignOut(ctx, "some-token"), appErrors.ErrLogout)
	assert.Equal(t, "Error logging out", appErr.Message)
	assert.Equal(t, 400, appErr.Status)
}

func TestRefreshInvalidatesPredecessor(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	first := f.signIn(t, "a@test.com", "pw1")

	res, err := f.svc.Refresh(ctx, models.TokenRequest{Token: first})
	require.NoError(t, err)
	second := res.Token
	assert.NotEqual(t, first, second)

	_, err = f.svc.Verify(ctx, models.TokenRequest{Token: first})
	requireCode(t, err, appErrors.ErrTokenInactive)

	_, err = f.svc.Verify(ctx, models.TokenRequest{Token: second})
	require.NoError(t, err)
}

func TestRefreshErrors(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Refresh(ctx, models.TokenRequest{})
	appErr := requireCode(t, err, appErrors.ErrTokenRequired)
	assert.Equal(t, "Token is required", appErr.Message)

	_, err = f.svc.Refresh(ctx, models.TokenRequest{Token: "invalid-token"})
	appErr = requireCode(t, err, appErrors.ErrInvalidToken)
	assert.Equal(t, 401, appErr.Status)
	assert.Equal(t, "Invalid token", appErr.Message)
}

func TestRefreshUserGone(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	token := f.signIn(t, "a@test.com", "pw1")
	f.users.delete("a@test.com")

	_, err := f.svc.Refresh(ctx, models.TokenRequest{Token: token})
	appErr := requireCode(t, err, appErrors.ErrUserNotFound)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "User not found", appErr.Message)
	assert.True(t, f.store.IsActive(ctx, Fingerprint(token)))
}

func TestRefreshStoreDownLeavesNoNewToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	token := f.signIn(t, "a@test.com", "pw1")
	activations := f.store.activations
	f.store.setDown(true)

	_, err := f.svc.Refresh(ctx, models.TokenRequest{Token: token})
	requireCode(t, err, appErrors.ErrInternal)
	assert.Equal(t, activations, f.store.activations)
}

func TestRefreshRetiresOldTokenBeforeActivatingNew(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	token := f.signIn(t, "a@test.com", "pw1")
	require.Equal(t, 1, f.store.liveCount())
	f.store.setFailActivate(true)

	res, err := f.svc.Refresh(ctx, models.TokenRequest{Token: token})
	requireCode(t, err, appErrors.ErrInternal)
	assert.Nil(t, res)

	f.store.setFailActivate(false)
	assert.False(t, f.store.IsActive(ctx, Fingerprint(token)))
	assert.Equal(t, 0, f.store.liveCount())

	_, err = f.svc.Verify(ctx, models.TokenRequest{Token: token})
	requireCode(t, err, appErrors.ErrTokenInactive)
}

func TestVerifyFailsClosedWhenStoreUnreachable(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	token := f.signIn(t, "a@test.com", "pw1")
	f.store.setDown(true)

	_, err := f.svc.Verify(ctx, models.TokenRequest{Token: token})
	requireCode(t, err, appErrors.ErrTokenInactive)
}

func TestVerifyDistinguishesFailures(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Verify(ctx, models.TokenRequest{})
	requireCode(t, err, appErrors.ErrTokenRequired)

	// Active fingerprint but not a signed token.
	require.NoError(t, f.store.Activate(ctx, Fingerprint("forged")))
	_, err = f.svc.Verify(ctx, models.TokenRequest{Token: "forged"})
	requireCode(t, err, appErrors.ErrInvalidToken)

	token := f.signIn(t, "a@test.com", "pw1")
	f.users.delete("a@test.com")
	_, err = f.svc.Verify(ctx, models.TokenRequest{Token: token})
	appErr := requireCode(t, err, appErrors.ErrUserNotFound)
	assert.Equal(t, 404, appErr.Status)
}

func TestVerifyRejectsSignedButNeverActivatedToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.signIn(t, "a@test.com", "pw1")
	user := f.users.byEmail["a@test.com"]

	stray, err := f.tokens.Issue(user.ID, user.Email)
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, models.TokenRequest{Token: stray})
	requireCode(t, err, appErrors.ErrTokenInactive)
}

func TestStoreStatus(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	status := f.svc.StoreStatus(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, int64(1), status.Connections)

	f.store.setDown(true)
	status = f.svc.StoreStatus(ctx)
	assert.False(t, status.Healthy)
	assert.Equal(t, int64(0), status.Connections)
}
