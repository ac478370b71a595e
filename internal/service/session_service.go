package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/session-api/internal/models"
	"github.com/noah-isme/session-api/internal/repository"
	appErrors "github.com/noah-isme/session-api/pkg/errors"
)

type sessionUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// RevocationStore tracks which token fingerprints are live. IsActive must
// report false whenever the store cannot answer.
type RevocationStore interface {
	Activate(ctx context.Context, fingerprint string) error
	Deactivate(ctx context.Context, fingerprint string) error
	IsActive(ctx context.Context, fingerprint string) bool
	ConnectionCount(ctx context.Context) int64
	Health(ctx context.Context) bool
}

type credentialVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(digest, plaintext string) bool
}

type tokenAuthority interface {
	Issue(subjectID, email string) (string, error)
	Validate(tokenString string) (*models.JWTClaims, error)
}

// SessionService drives the token lifecycle: a token is honoured only while its
// fingerprint is active in the revocation store and its signature and expiry hold.
//
// Refresh deactivates the old fingerprint before activating the new one, so a
// failure between the two writes leaves no live token rather than two.
// Concurrent refreshes of the same token are not serialized and may both succeed.
type SessionService struct {
	users     sessionUserRepository
	store     RevocationStore
	passwords credentialVerifier
	tokens    tokenAuthority
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(users sessionUserRepository, store RevocationStore, passwords credentialVerifier, tokens tokenAuthority, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SessionService{
		users:     users,
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// SignUp registers a new user.
func (s *SessionService) SignUp(ctx context.Context, req models.CredentialsRequest) (err error) {
	defer s.record("signup", &err)

	if err := s.validate(req); err != nil {
		return err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if existing != nil {
		return appErrors.ErrUserExists
	}

	digest, err := s.passwords.Hash(req.Password)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{Email: req.Email, PasswordHash: digest}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return appErrors.ErrUserExists
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID))
	return nil
}

// SignIn verifies credentials and issues an active session token.
func (s *SessionService) SignIn(ctx context.Context, req models.CredentialsRequest) (res *models.SignInResult, err error) {
	defer s.record("signin", &err)

	if err := s.validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserDoesNotExist
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !s.passwords.Verify(user.PasswordHash, req.Password) {
		return nil, appErrors.ErrPasswordIncorrect
	}

	token, err := s.issueActive(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logTransition(user.ID, token, models.SessionNonexistent, models.SessionActive)
	return &models.SignInResult{Token: token}, nil
}

// Refresh exchanges a cryptographically valid token for a new one and retires
// the old fingerprint.
func (s *SessionService) Refresh(ctx context.Context, req models.TokenRequest) (res *models.SignInResult, err error) {
	defer s.record("refresh", &err)

	if err := s.validate(req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.Validate(req.Token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithStatus(appErrors.ErrUserNotFound, http.StatusBadRequest)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.deactivate(ctx, Fingerprint(req.Token)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retire token")
	}
	s.logTransition(user.ID, req.Token, models.SessionActive, models.SessionRefreshed)

	token, err := s.issueActive(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logTransition(user.ID, token, models.SessionNonexistent, models.SessionActive)
	return &models.SignInResult{Token: token}, nil
}

// Verify reports whether the token is authoritatively valid: live in the
// revocation store, correctly signed and unexpired, and owned by an existing user.
func (s *SessionService) Verify(ctx context.Context, req models.TokenRequest) (claims *models.JWTClaims, err error) {
	defer s.record("verify", &err)

	if err := s.validate(req); err != nil {
		return nil, err
	}

	start := time.Now()
	active := s.store.IsActive(ctx, Fingerprint(req.Token))
	s.metrics.ObserveStoreOperation("is_active", time.Since(start))
	if !active {
		return nil, appErrors.ErrTokenInactive
	}

	claims, err = s.tokens.Validate(req.Token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}

	if _, err := s.users.FindByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	return claims, nil
}

// SignOut retires the token's fingerprint. Retiring an inactive token succeeds.
func (s *SessionService) SignOut(ctx context.Context, token string) (err error) {
	defer s.record("signout", &err)

	if token == "" {
		return appErrors.ErrTokenRequired
	}

	if err := s.deactivate(ctx, Fingerprint(token)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrLogout.Code, appErrors.ErrLogout.Status, appErrors.ErrLogout.Message)
	}

	s.logger.Info("session revoked", zap.String("fingerprint", Fingerprint(token)[:12]), zap.String("state", string(models.SessionRevoked)))
	return nil
}

// StoreStatus reports revocation store liveness.
func (s *SessionService) StoreStatus(ctx context.Context) models.StoreStatus {
	healthy := s.store.Health(ctx)
	status := models.StoreStatus{Healthy: healthy}
	if healthy {
		status.Connections = s.store.ConnectionCount(ctx)
	}
	return status
}

func (s *SessionService) issueActive(ctx context.Context, user *models.User) (string, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create token")
	}

	start := time.Now()
	err = s.store.Activate(ctx, Fingerprint(token))
	s.metrics.ObserveStoreOperation("activate", time.Since(start))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate token")
	}
	return token, nil
}

func (s *SessionService) deactivate(ctx context.Context, fingerprint string) error {
	start := time.Now()
	err := s.store.Deactivate(ctx, fingerprint)
	s.metrics.ObserveStoreOperation("deactivate", time.Since(start))
	return err
}

// validate maps struct validation failures onto the first missing field's message.
func (s *SessionService) validate(req interface{}) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Field() {
		case "Email":
			return appErrors.ErrEmailRequired
		case "Password":
			return appErrors.ErrPasswordRequired
		case "Token":
			return appErrors.ErrTokenRequired
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
}

func (s *SessionService) record(operation string, errp *error) {
	outcome := "ok"
	if errp != nil && *errp != nil {
		appErr := appErrors.FromError(*errp)
		outcome = appErr.Code
		if appErr.Status >= http.StatusInternalServerError {
			s.logger.Error("session operation failed", zap.String("operation", operation), zap.Error(*errp))
		}
	}
	s.metrics.RecordSessionOperation(operation, outcome)
}

func (s *SessionService) logTransition(userID, token string, from, to models.SessionState) {
	s.logger.Debug("session transition",
		zap.String("user_id", userID),
		zap.String("fingerprint", Fingerprint(token)[:12]),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}
