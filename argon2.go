package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/argon2"
)

// Argon2Params are the argon2id cost parameters embedded in every hash
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params follow the OWASP recommendation for argon2id
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

const argon2Prefix = "$argon2id$"

// Argon2idHasher hashes passwords with argon2id and encodes them in PHC
// format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2idHasher struct {
	params Argon2Params
}

var _ PasswordHasher = (*Argon2idHasher)(nil)

// NewArgon2idHasher creates a hasher using DefaultArgon2Params
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2Params}
}

// WithParams overrides the cost parameters for new hashes. Verification
// always uses the parameters stored in the hash.
func (h *Argon2idHasher) WithParams(p Argon2Params) *Argon2idHasher {
	if p.SaltLen == 0 {
		p.SaltLen = DefaultArgon2Params.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultArgon2Params.KeyLen
	}
	if p.Threads == 0 {
		p.Threads = 1
	}
	if p.Time == 0 {
		p.Time = 1
	}
	h.params = p
	return h
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate password salt")
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, encoded string) (bool, error) {
	p, salt, expected, err := decodeArgon2Hash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func decodeArgon2Hash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	if !strings.HasPrefix(encoded, argon2Prefix) {
		return p, nil, nil, ErrInvalidPasswordHash
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return p, nil, nil, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrInvalidPasswordHash
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return p, nil, nil, ErrInvalidPasswordHash
	}

	// threads is stored as uint8 by argon2
	if threads == 0 || threads > 255 || p.Time == 0 {
		return p, nil, nil, ErrInvalidPasswordHash
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrInvalidPasswordHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > 1<<10 {
		return p, nil, nil, ErrInvalidPasswordHash
	}

	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}
