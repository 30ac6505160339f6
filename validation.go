package auth

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
)

const (
	maxEmailLength = 254
	maxNameLength  = 200
)

// RegistrationRequest is the input of a registration
type RegistrationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate checks the request shape. The email is checked for format only,
// without any DNS lookup. Password strength is left to callers.
func (r RegistrationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, maxEmailLength), is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Name, validation.Required, validation.Length(1, maxNameLength)),
	)
}

// Validate checks that both halves of the credentials are present
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

func validateRegistration(req RegistrationRequest) error {
	if err := req.Validate(); err != nil {
		return goerrors.FromOzzoValidation(err, "Invalid registration details").
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}
