package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService signs and validates session tokens with a shared HMAC key.
// The key is read only after construction and safe for concurrent use.
type TokenService struct {
	signingKey      []byte
	tokenExpiration time.Duration
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
	now             func() time.Time
}

var _ TokenValidator = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance. A zero
// tokenExpiration issues tokens without an exp claim.
func NewTokenService(signingKey []byte, tokenExpiration time.Duration, issuer string, audience []string, logger Logger) *TokenService {
	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = append(aud, audience...)
	}

	return &TokenService{
		signingKey:      key,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        aud,
		logger:          normalizeLogger(logger),
		now:             time.Now,
	}
}

// WithLogger sets the logger
func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	ts.logger = normalizeLogger(logger)
	return ts
}

// WithClock overrides the time source used for iat/exp and validation
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	ts.now = now
	return ts
}

// Sign embeds subject and claims into a signed token. Registered claims
// left empty by the caller are filled from the service defaults and the
// caller's claims value is not modified.
func (ts *TokenService) Sign(subject string, claims *Claims) (string, error) {
	if claims == nil {
		claims = &Claims{}
	}
	return ts.SignClaims(ts.prepare(subject, claims))
}

// SignClaims signs claims as given, without applying defaults.
func (ts *TokenService) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	if len(ts.signingKey) == 0 {
		return "", ErrMissingSigningKey
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Validate parses and validates a token string, returning its claims.
// Every failure is reported as ErrInvalidToken.
func (ts *TokenService) Validate(tokenString string) (*Claims, error) {
	if len(ts.signingKey) == 0 || tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, ts.parserOptions()...)

	if err != nil {
		ts.logger.Debug("token validation failed", "reason", err.Error())
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		ts.logger.Error("token validation could not decode claims")
		return nil, ErrInvalidToken
	}

	if claims.Subject() == "" || claims.UID != claims.Subject() {
		ts.logger.Debug("token validation rejected identity claims", "sub", claims.Subject())
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (ts *TokenService) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.tokenExpiration > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		opts = append(opts, jwt.WithAudience(ts.audience[0]))
	}
	return opts
}

func (ts *TokenService) prepare(subject string, in *Claims) *Claims {
	claims := in.clone()
	now := ts.now()

	claims.RegisteredClaims.Subject = subject
	claims.UID = subject
	if claims.RegisteredClaims.Issuer == "" {
		claims.RegisteredClaims.Issuer = ts.issuer
	}
	if len(claims.RegisteredClaims.Audience) == 0 && len(ts.audience) > 0 {
		claims.RegisteredClaims.Audience = append(jwt.ClaimStrings(nil), ts.audience...)
	}
	if claims.RegisteredClaims.IssuedAt == nil {
		claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.RegisteredClaims.ExpiresAt == nil && ts.tokenExpiration > 0 {
		claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ts.tokenExpiration))
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

// SignToken signs subject and claims with secret using default options
func SignToken(subject string, claims *Claims, secret []byte) (string, error) {
	return NewTokenService(secret, 0, "", nil, nil).Sign(subject, claims)
}

// VerifyToken validates token against secret and returns its claims
func VerifyToken(token string, secret []byte) (*Claims, error) {
	return NewTokenService(secret, 0, "", nil, nil).Validate(token)
}
