package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateEmail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"sqlite email", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), true},
		{"sqlite primary key", errors.New("constraint failed: UNIQUE constraint failed: users.user_id (1555)"), false},
		{"postgres email", errors.New(`ERROR: duplicate key value violates unique constraint "uq_users_email" (SQLSTATE 23505)`), true},
		{"postgres bun email key", errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`), true},
		{"postgres primary key", errors.New(`ERROR: duplicate key value violates unique constraint "users_pkey" (SQLSTATE 23505)`), false},
		{"other", errors.New("disk I/O error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isDuplicateEmail(tt.err))
		})
	}
}
