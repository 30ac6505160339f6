package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-catalog-auth"
)

func TestActivitySinks_FanOut(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	sinks := auth.ActivitySinks{first, nil, second}

	event := auth.ActivityEvent{EventType: auth.ActivityEventLoginSuccess, UserID: "user-1"}
	require.NoError(t, sinks.Record(context.Background(), event))

	assert.Equal(t, []auth.ActivityEvent{event}, first.Events())
	assert.Equal(t, []auth.ActivityEvent{event}, second.Events())
}

func TestActivitySinks_ReturnsFirstErrorAndKeepsGoing(t *testing.T) {
	errA := errors.New("sink a down")
	errB := errors.New("sink b down")
	tail := &recordingSink{}

	sinks := auth.ActivitySinks{
		auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error { return errA }),
		auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error { return errB }),
		tail,
	}

	err := sinks.Record(context.Background(), auth.ActivityEvent{EventType: auth.ActivityEventRegisterFailure})
	assert.ErrorIs(t, err, errA)
	assert.Len(t, tail.Events(), 1)
}

func TestActivitySinkFunc_Nil(t *testing.T) {
	var fn auth.ActivitySinkFunc
	assert.NoError(t, fn.Record(context.Background(), auth.ActivityEvent{}))
}
