package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidToken       = "INVALID_TOKEN"
	TextCodeMissingSigningKey  = "MISSING_SIGNING_KEY"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodePasswordTooLong    = "PASSWORD_TOO_LONG"
	TextCodeInvalidHash        = "INVALID_PASSWORD_HASH"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeValidation         = "VALIDATION_FAILED"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeImmutableClaims    = "IMMUTABLE_CLAIM_MUTATION"
	TextCodeClaimsMappingError = "CLAIMS_MAPPING_ERROR"
)

// ErrInvalidToken is returned for any token that fails verification:
// malformed, unsigned, signed with another key or algorithm, or expired.
var ErrInvalidToken = goerrors.New("invalid or expired token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingSigningKey is returned when a token service has no key to sign with
var ErrMissingSigningKey = goerrors.New("token signing key is required", goerrors.CategoryInternal).
	WithTextCode(TextCodeMissingSigningKey)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password cannot be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrPasswordTooLong is returned when the hasher cannot accept the password length
var ErrPasswordTooLong = goerrors.New("password exceeds the maximum supported length", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordTooLong)

// ErrInvalidPasswordHash is returned when a stored hash cannot be decoded
var ErrInvalidPasswordHash = goerrors.New("stored password hash is malformed", goerrors.CategoryInternal).
	WithTextCode(TextCodeInvalidHash)

// ErrUserNotFound is returned by a UserRepository when no user has the email
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrDuplicateEmail is returned by a UserRepository when the email is already
// registered. Stores must detect it atomically on insert.
var ErrDuplicateEmail = goerrors.New("a user with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrImmutableClaimMutation is returned when a ClaimsDecorator touches identity claims
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode(TextCodeImmutableClaims)

// ErrUnableToMapClaims is returned when a context holds no claims
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithTextCode(TextCodeClaimsMappingError)

// NewValidationError builds a user facing validation error. fields maps an
// input field name to a message suitable for display next to that field.
func NewValidationError(message string, fields map[string]string) *goerrors.Error {
	return newValidationError(message, TextCodeValidation, fields)
}

func newValidationError(message, textCode string, fields map[string]string) *goerrors.Error {
	return goerrors.NewValidationFromMap(message, fields).
		WithTextCode(textCode).
		WithCode(goerrors.CodeBadRequest)
}

// newInvalidCredentialsError is shared by the unknown email and the wrong
// password paths so both failures look the same to the caller.
func newInvalidCredentialsError() *goerrors.Error {
	return newValidationError("Incorrect email or password", TextCodeInvalidCreds, map[string]string{
		"email": "Incorrect email or password",
	})
}

func newEmailTakenError() *goerrors.Error {
	return newValidationError("An account already exists with the email address", TextCodeEmailTaken, map[string]string{
		"email": "Email address already taken",
	})
}

// IsValidationError reports whether err is a user facing validation error
func IsValidationError(err error) bool {
	return goerrors.IsValidation(err)
}

// ValidationFields returns the field keyed details of a validation error,
// or nil when err carries none.
func ValidationFields(err error) map[string]string {
	if !goerrors.IsValidation(err) {
		return nil
	}

	fieldErrors, ok := goerrors.GetValidationErrors(err)
	if !ok {
		return nil
	}

	out := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		out[fe.Field] = fe.Message
	}
	return out
}

// IsInvalidToken reports whether err is a token verification failure
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
