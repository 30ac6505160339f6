package auth

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces opaque, unique user ids
type IDGenerator func() string

// NewUUID generates random UUIDv4 ids
func NewUUID() string {
	return uuid.NewString()
}

// NewULID generates lexicographically sortable ULID ids
func NewULID() string {
	return ulid.Make().String()
}

// IsUUID reports whether id parses as a UUID
func IsUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ResolveIDGenerator maps a configured name to a generator.
// Unknown names resolve to UUIDs.
func ResolveIDGenerator(name string) IDGenerator {
	switch name {
	case "ulid":
		return NewULID
	default:
		return NewUUID
	}
}
