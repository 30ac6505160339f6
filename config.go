package auth

import "time"

// Supported password hasher names
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// DefaultTokenExpiration is the session lifetime used when none is configured
const DefaultTokenExpiration = 24 * time.Hour

// Options is the default Config implementation
type Options struct {
	SigningKey      string        `koanf:"signing_key" json:"-"`
	TokenExpiration time.Duration `koanf:"token_expiration" json:"token_expiration"`
	Issuer          string        `koanf:"issuer" json:"issuer"`
	Audience        []string      `koanf:"audience" json:"audience"`
	PasswordHasher  string        `koanf:"password_hasher" json:"password_hasher"`
	BcryptCost      int           `koanf:"bcrypt_cost" json:"bcrypt_cost"`
}

var _ Config = Options{}

// DefaultOptions returns options with every field but the signing key set
func DefaultOptions() Options {
	return Options{
		TokenExpiration: DefaultTokenExpiration,
		Issuer:          "catalog-auth",
		Audience:        []string{"catalog"},
		PasswordHasher:  HasherBcrypt,
		BcryptCost:      passwordHashCost(),
	}
}

func (o Options) GetSigningKey() string {
	return o.SigningKey
}

func (o Options) GetTokenExpiration() time.Duration {
	return o.TokenExpiration
}

func (o Options) GetIssuer() string {
	return o.Issuer
}

func (o Options) GetAudience() []string {
	return o.Audience
}

func (o Options) GetPasswordHasher() string {
	return o.PasswordHasher
}

func (o Options) GetBcryptCost() int {
	return o.BcryptCost
}

// NewPasswordHasher resolves the hasher named by cfg. An empty name selects bcrypt.
func NewPasswordHasher(cfg Config) (PasswordHasher, error) {
	switch cfg.GetPasswordHasher() {
	case "", HasherBcrypt:
		return NewBcryptHasher().WithCost(cfg.GetBcryptCost()), nil
	case HasherArgon2id:
		return NewArgon2idHasher(), nil
	default:
		return nil, NewValidationError("Unsupported password hasher", map[string]string{
			"password_hasher": "Must be one of bcrypt, argon2id",
		})
	}
}
