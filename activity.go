package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegisterSuccess ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure ActivityEventType = "auth.register.failure"
	ActivityEventLoginSuccess    ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure    ActivityEventType = "auth.login.failure"
)

// Activity failure reasons, reported in ActivityEvent.Reason
const (
	ActivityReasonValidation   = "validation"
	ActivityReasonEmailTaken   = "email_taken"
	ActivityReasonInvalidCreds = "invalid_credentials"
	ActivityReasonInternal     = "internal"
)

// ActivityEvent captures audit friendly information about an action.
// It never carries a password or a password hash.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	Reason     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// ActivitySinks fans an event out to every sink, returning the first error
type ActivitySinks []ActivitySink

// Record implements ActivitySink.
func (s ActivitySinks) Record(ctx context.Context, event ActivityEvent) error {
	var first error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
