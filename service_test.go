package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-catalog-auth"
	"github.com/goliatone/go-catalog-auth/repository/memory"
)

const testSecret = "test-secret-0123456789abcdef"

func testOptions() auth.Options {
	opts := auth.DefaultOptions()
	opts.SigningKey = testSecret
	opts.BcryptCost = bcrypt.MinCost
	return opts
}

func newTestService(t *testing.T, users auth.UserRepository) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(users, testOptions())
	require.NoError(t, err)
	return svc.WithLogger(&MockLogger{})
}

func TestNewService(t *testing.T) {
	t.Run("requires a repository", func(t *testing.T) {
		_, err := auth.NewService(nil, testOptions())
		assert.Error(t, err)
	})

	t.Run("requires a signing key", func(t *testing.T) {
		opts := testOptions()
		opts.SigningKey = ""
		_, err := auth.NewService(memory.NewUsers(nil), opts)
		assert.ErrorIs(t, err, auth.ErrMissingSigningKey)
	})

	t.Run("rejects unknown hasher", func(t *testing.T) {
		opts := testOptions()
		opts.PasswordHasher = "md5"
		_, err := auth.NewService(memory.NewUsers(nil), opts)
		assert.True(t, auth.IsValidationError(err))
	})

	t.Run("accepts argon2id", func(t *testing.T) {
		opts := testOptions()
		opts.PasswordHasher = auth.HasherArgon2id
		svc, err := auth.NewService(memory.NewUsers(nil), opts)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestService_RegisterAndAuthenticateScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.NewUsers(nil))

	registered, err := svc.Register(ctx, "a@x.com", "secret1", "Ann")
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.NotEmpty(t, registered.UserID)
	assert.Equal(t, "a@x.com", registered.Email)
	assert.Equal(t, "Ann", registered.Name)

	_, err = svc.Register(ctx, "a@x.com", "other", "Ann2")
	require.Error(t, err)
	assert.True(t, auth.IsValidationError(err))
	assert.Contains(t, auth.ValidationFields(err), "email")

	loggedIn, err := svc.Authenticate(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, loggedIn.UserID)
	assert.Equal(t, "Ann", loggedIn.Name)

	claims, err := svc.VerifyToken(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, loggedIn.UserID, claims.UserID())
	assert.Equal(t, loggedIn.UserID, claims.Subject())

	tampered := []byte(loggedIn.Token)
	i := strings.LastIndex(loggedIn.Token, ".") + 1
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}
	_, err = svc.VerifyToken(string(tampered))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestService_AuthenticateFailuresLookTheSame(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.NewUsers(nil))

	_, err := svc.Register(ctx, "a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(ctx, "a@x.com", "wrong")
	_, unknownEmail := svc.Authenticate(ctx, "nouser@x.com", "x")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)

	assert.True(t, auth.IsValidationError(wrongPassword))
	assert.True(t, auth.IsValidationError(unknownEmail))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, auth.ValidationFields(wrongPassword), auth.ValidationFields(unknownEmail))
	assert.Equal(t, map[string]string{"email": "Incorrect email or password"}, auth.ValidationFields(unknownEmail))
}

func TestService_AuthenticateMissingCredentials(t *testing.T) {
	svc := newTestService(t, memory.NewUsers(nil))

	for _, tc := range []struct{ email, password string }{
		{"", "secret"},
		{"a@x.com", ""},
	} {
		_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
		assert.True(t, auth.IsValidationError(err))
		assert.Contains(t, auth.ValidationFields(err), "email")
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc := newTestService(t, memory.NewUsers(nil))

	tests := []struct {
		name     string
		email    string
		password string
		user     string
		field    string
	}{
		{"empty email", "", "secret1", "Ann", "email"},
		{"malformed email", "not-an-email", "secret1", "Ann", "email"},
		{"empty password", "a@x.com", "", "Ann", "password"},
		{"empty name", "a@x.com", "secret1", "", "name"},
		{"name too long", "a@x.com", "secret1", strings.Repeat("n", 201), "name"},
		{"password too long for bcrypt", "a@x.com", strings.Repeat("p", 73), "Ann", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password, tt.user)
			require.Error(t, err)
			assert.True(t, auth.IsValidationError(err))
			assert.Contains(t, auth.ValidationFields(err), tt.field)
		})
	}
}

func TestService_RegisterChecksEmailFormatOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.NewUsers(nil))

	registered, err := svc.Register(ctx, "ann@catalog.invalid", "secret1", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "ann@catalog.invalid", registered.Email)

	loggedIn, err := svc.Authenticate(ctx, "ann@catalog.invalid", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, loggedIn.UserID)
}

func TestService_ConcurrentDuplicateRegistration(t *testing.T) {
	defer goleak.VerifyNone(t)

	users := memory.NewUsers(nil)
	svc := newTestService(t, users)

	const workers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Register(context.Background(), "race@x.com", "secret1", "Racer")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case auth.IsValidationError(err):
				rejected++
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, 1, users.Len())
}

func TestService_StorageErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	storageErr := errors.New("connection refused")

	t.Run("create", func(t *testing.T) {
		repo := &MockUserRepository{}
		repo.On("Create", ctx, "a@x.com", "Ann", mock.AnythingOfType("string")).Return(nil, storageErr)

		_, err := newTestService(t, repo).Register(ctx, "a@x.com", "secret1", "Ann")
		assert.Same(t, storageErr, err)
		assert.False(t, auth.IsValidationError(err))
		repo.AssertExpectations(t)
	})

	t.Run("find", func(t *testing.T) {
		repo := &MockUserRepository{}
		repo.On("FindByEmail", ctx, "a@x.com").Return(nil, storageErr)

		_, err := newTestService(t, repo).Authenticate(ctx, "a@x.com", "secret1")
		assert.Same(t, storageErr, err)
		repo.AssertExpectations(t)
	})
}

func TestService_UnknownEmailStillVerifiesPassword(t *testing.T) {
	ctx := context.Background()

	repo := &MockUserRepository{}
	repo.On("FindByEmail", ctx, "ghost@x.com").Return(nil, auth.ErrUserNotFound)

	hasher := &MockPasswordHasher{}
	hasher.On("Hash", mock.AnythingOfType("string")).Return("dummy-hash", nil).Once()
	hasher.On("Verify", "guess", "dummy-hash").Return(false, nil).Twice()

	svc := newTestService(t, repo).WithPasswordHasher(hasher)

	for i := 0; i < 2; i++ {
		_, err := svc.Authenticate(ctx, "ghost@x.com", "guess")
		assert.True(t, auth.IsValidationError(err))
	}

	hasher.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestService_CorruptHashIsNotACredentialError(t *testing.T) {
	ctx := context.Background()

	repo := &MockUserRepository{}
	repo.On("FindByEmail", ctx, "a@x.com").Return(&auth.UserIdentity{
		UserID:       "user-1",
		Email:        "a@x.com",
		PasswordHash: "garbage",
	}, nil)

	_, err := newTestService(t, repo).Authenticate(ctx, "a@x.com", "secret1")
	assert.ErrorIs(t, err, auth.ErrInvalidPasswordHash)
	assert.False(t, auth.IsValidationError(err))
}

func TestService_RegisterStoresHashNotPassword(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsers(nil)
	svc := newTestService(t, users)

	_, err := svc.Register(ctx, "a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	stored, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	ok, err := auth.NewBcryptHasher().Verify("secret1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_EmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.NewUsers(nil))

	_, err := svc.Register(ctx, "a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "A@x.com", "secret1", "Ann")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "A@X.COM", "secret1")
	assert.True(t, auth.IsValidationError(err))
}

func TestService_ActivityEvents(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	svc := newTestService(t, memory.NewUsers(nil)).
		WithActivitySink(sink).
		WithClock(func() time.Time { return fixed })

	res, err := svc.Register(ctx, "a@x.com", "secret1", "Ann")
	require.NoError(t, err)
	assert.Equal(t, auth.ActivityEventRegisterSuccess, sink.Last().EventType)
	assert.Equal(t, res.UserID, sink.Last().UserID)
	assert.Equal(t, fixed, sink.Last().OccurredAt)

	_, _ = svc.Register(ctx, "a@x.com", "secret1", "Ann")
	assert.Equal(t, auth.ActivityEventRegisterFailure, sink.Last().EventType)
	assert.Equal(t, auth.ActivityReasonEmailTaken, sink.Last().Reason)

	_, _ = svc.Authenticate(ctx, "a@x.com", "wrong")
	assert.Equal(t, auth.ActivityEventLoginFailure, sink.Last().EventType)
	assert.Equal(t, auth.ActivityReasonInvalidCreds, sink.Last().Reason)
	assert.Equal(t, res.UserID, sink.Last().UserID)

	_, err = svc.Authenticate(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, auth.ActivityEventLoginSuccess, sink.Last().EventType)

	for _, event := range sink.Events() {
		for _, v := range event.Metadata {
			assert.NotEqual(t, "secret1", v)
		}
	}
}

func TestService_ActivitySinkErrorsAreIgnored(t *testing.T) {
	sink := auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error {
		return errors.New("sink down")
	})

	svc := newTestService(t, memory.NewUsers(nil)).WithActivitySink(sink)

	_, err := svc.Register(context.Background(), "a@x.com", "secret1", "Ann")
	assert.NoError(t, err)
}

func TestService_ClaimsDecorator(t *testing.T) {
	ctx := context.Background()

	t.Run("adds metadata", func(t *testing.T) {
		svc := newTestService(t, memory.NewUsers(nil)).WithClaimsDecorator(
			auth.ClaimsDecoratorFunc(func(_ context.Context, user *auth.UserIdentity, claims *auth.Claims) error {
				claims.Metadata = map[string]any{"email": user.Email}
				return nil
			}),
		)

		res, err := svc.Register(ctx, "a@x.com", "secret1", "Ann")
		require.NoError(t, err)

		claims, err := svc.VerifyToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", claims.Metadata["email"])
	})

	t.Run("cannot change identity", func(t *testing.T) {
		svc := newTestService(t, memory.NewUsers(nil)).WithClaimsDecorator(
			auth.ClaimsDecoratorFunc(func(_ context.Context, _ *auth.UserIdentity, claims *auth.Claims) error {
				claims.UID = "admin"
				return nil
			}),
		)

		_, err := svc.Register(ctx, "a@x.com", "secret1", "Ann")
		assert.ErrorIs(t, err, auth.ErrImmutableClaimMutation)
	})

	t.Run("errors abort issuing", func(t *testing.T) {
		boom := errors.New("boom")
		svc := newTestService(t, memory.NewUsers(nil)).WithClaimsDecorator(
			auth.ClaimsDecoratorFunc(func(context.Context, *auth.UserIdentity, *auth.Claims) error {
				return boom
			}),
		)

		_, err := svc.Register(ctx, "a@x.com", "secret1", "Ann")
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_VerifyTokenWithCustomValidator(t *testing.T) {
	svc := newTestService(t, memory.NewUsers(nil))

	svc.WithTokenValidator(auth.TokenValidatorFunc(func(token string) (*auth.Claims, error) {
		if token != "external" {
			return nil, errors.New("unknown token")
		}
		return &auth.Claims{UID: "external-user"}, nil
	}))

	claims, err := svc.VerifyToken("external")
	require.NoError(t, err)
	assert.Equal(t, "external-user", claims.UserID())

	_, err = svc.VerifyToken("other")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestService_VerifyTokenRejectsOtherSecret(t *testing.T) {
	svc := newTestService(t, memory.NewUsers(nil))

	opts := testOptions()
	opts.SigningKey = "another-secret"
	other, err := auth.NewService(memory.NewUsers(nil), opts)
	require.NoError(t, err)

	res, err := other.WithLogger(&MockLogger{}).Register(context.Background(), "a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	_, err = svc.VerifyToken(res.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
