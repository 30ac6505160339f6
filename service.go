package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Service registers users, checks credentials and issues session tokens.
// It is safe for concurrent use once configured.
type Service struct {
	users           UserRepository
	hasher          PasswordHasher
	tokenService    *TokenService
	tokenValidator  TokenValidator
	logger          Logger
	activitySink    ActivitySink
	claimsDecorator ClaimsDecorator
	dummyHash       func() (string, error)
	now             func() time.Time
}

var _ Authenticator = (*Service)(nil)

// NewService returns a Service backed by users and configured by cfg.
// The signing key is read once here and never again.
func NewService(users UserRepository, cfg Config) (*Service, error) {
	if users == nil {
		return nil, goerrors.New("user repository is required", goerrors.CategoryBadInput)
	}

	if cfg == nil {
		return nil, goerrors.New("auth config is required", goerrors.CategoryBadInput)
	}

	if cfg.GetSigningKey() == "" {
		return nil, ErrMissingSigningKey
	}

	hasher, err := NewPasswordHasher(cfg)
	if err != nil {
		return nil, err
	}

	s := &Service{
		users: users,
		tokenService: NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			defLogger{},
		),
		logger:          defLogger{},
		activitySink:    noopActivitySink{},
		claimsDecorator: noopClaimsDecorator{},
		now:             time.Now,
	}

	return s.WithPasswordHasher(hasher), nil
}

// WithLogger sets the logger for the service and its token service
func (s *Service) WithLogger(logger Logger) *Service {
	s.logger = normalizeLogger(logger)
	s.tokenService.WithLogger(logger)
	return s
}

// WithPasswordHasher replaces the configured hasher
func (s *Service) WithPasswordHasher(hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = NewBcryptHasher()
	}
	s.hasher = hasher
	s.dummyHash = sync.OnceValues(func() (string, error) {
		return RandomPasswordHash(hasher)
	})
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Service) WithActivitySink(sink ActivitySink) *Service {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClaimsDecorator configures a ClaimsDecorator for enriching tokens.
func (s *Service) WithClaimsDecorator(decorator ClaimsDecorator) *Service {
	s.claimsDecorator = normalizeClaimsDecorator(decorator)
	return s
}

// WithTokenValidator sets a custom validator used by VerifyToken.
func (s *Service) WithTokenValidator(validator TokenValidator) *Service {
	s.tokenValidator = validator
	return s
}

// WithClock overrides the time source for issued tokens and events
func (s *Service) WithClock(now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	s.now = now
	s.tokenService.WithClock(now)
	return s
}

// TokenService returns the TokenService used to sign tokens
func (s *Service) TokenService() *TokenService {
	return s.tokenService
}

// Register creates a user and returns a session for it. A taken email is
// reported as a validation error on the email field.
func (s *Service) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	req := RegistrationRequest{Email: email, Password: password, Name: name}
	if err := validateRegistration(req); err != nil {
		s.logger.Debug("Register invalid input", "fields", ValidationFields(err))
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", email, ActivityReasonValidation)
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) || errors.Is(err, ErrNoEmptyString) {
			s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", email, ActivityReasonValidation)
			return nil, NewValidationError("Invalid registration details", map[string]string{
				"password": passwordFieldMessage(err),
			})
		}
		s.logger.Error("Register password hash error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", email, ActivityReasonInternal)
		return nil, err
	}

	user, err := s.users.Create(ctx, email, name, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			s.logger.Info("Register email already taken")
			s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", email, ActivityReasonEmailTaken)
			return nil, newEmailTakenError()
		}
		s.logger.Error("Register create user error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, "", email, ActivityReasonInternal)
		return nil, err
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, user.UserID, email, ActivityReasonInternal)
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventRegisterSuccess, user.UserID, email, "")

	return userWithToken(user, token), nil
}

// Authenticate checks credentials and returns a new session. Unknown email
// and wrong password produce the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := (Credentials{Email: email, Password: password}).Validate(); err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", email, ActivityReasonInvalidCreds)
		return nil, newInvalidCredentialsError()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.burnVerification(password)
			s.logger.Debug("Authenticate unknown email")
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", email, ActivityReasonInvalidCreds)
			return nil, newInvalidCredentialsError()
		}
		s.logger.Error("Authenticate find user error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", email, ActivityReasonInternal)
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("Authenticate password verify error", "user_id", user.UserID, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.UserID, email, ActivityReasonInternal)
		return nil, err
	}

	if !ok {
		s.logger.Debug("Authenticate password mismatch", "user_id", user.UserID)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.UserID, email, ActivityReasonInvalidCreds)
		return nil, newInvalidCredentialsError()
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.UserID, email, ActivityReasonInternal)
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, user.UserID, email, "")

	return userWithToken(user, token), nil
}

// VerifyToken returns the claims of a token issued by this service.
// Every failure is reported as ErrInvalidToken.
func (s *Service) VerifyToken(token string) (*Claims, error) {
	var validator TokenValidator = s.tokenService
	if s.tokenValidator != nil {
		validator = s.tokenValidator
	}

	claims, err := validator.Validate(token)
	if err != nil {
		if !IsInvalidToken(err) {
			s.logger.Warn("VerifyToken validator error", "error", err)
		}
		return nil, ErrInvalidToken
	}

	if claims == nil || claims.UserID() == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) issueToken(ctx context.Context, user *UserIdentity) (string, error) {
	claims := s.tokenService.prepare(user.UserID, NewClaims(user))

	if err := decorateClaims(ctx, s.claimsDecorator, user, claims); err != nil {
		s.logger.Error("claims decorator failed", "user_id", user.UserID, "error", err)
		return "", err
	}

	token, err := s.tokenService.SignClaims(claims)
	if err != nil {
		s.logger.Error("token signing failed", "user_id", user.UserID, "error", err)
		return "", err
	}

	return token, nil
}

// burnVerification runs a verification that cannot succeed so an unknown
// email costs about as much as a wrong password.
func (s *Service) burnVerification(password string) {
	hash, err := s.dummyHash()
	if err != nil {
		s.logger.Warn("dummy password hash unavailable", "error", err)
		return
	}
	_, _ = s.hasher.Verify(password, hash)
}

func (s *Service) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID, email, reason string) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Email:      email,
		Reason:     reason,
		Metadata:   map[string]any{},
		OccurredAt: s.now(),
	}

	if err := normalizeActivitySink(s.activitySink).Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err)
	}
}

func passwordFieldMessage(err error) string {
	if errors.Is(err, ErrPasswordTooLong) {
		return "Password is too long"
	}
	return "Password cannot be empty"
}
