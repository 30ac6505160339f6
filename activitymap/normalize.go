// Package activitymap flattens auth activity events into a transport
// agnostic record for logs and downstream audit stores.
package activitymap

import (
	"strings"
	"time"

	auth "github.com/goliatone/go-catalog-auth"
)

const (
	// MetadataKeyReason stores the failure reason of a failed attempt.
	MetadataKeyReason = "reason"
	// MetadataKeyOutcome stores success or failure.
	MetadataKeyOutcome = "outcome"
)

const (
	defaultChannel    = "auth"
	defaultObjectType = "user"
	defaultActorID    = "anonymous"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
}

// Normalize converts an auth.ActivityEvent into a Normalized record. The
// attempted email is not copied; failed attempts are keyed by reason only.
func Normalize(event auth.ActivityEvent, opts ...Option) Normalized {
	options := normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	userID := strings.TrimSpace(event.UserID)
	actorID := userID
	if actorID == "" {
		actorID = options.actorFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   userID,
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt.UTC(),
	}
}

// LogArgs returns the record as slog key/value pairs
func (n Normalized) LogArgs() []any {
	args := []any{
		"actor_id", n.ActorID,
		"verb", n.Verb,
		"channel", n.Channel,
	}
	if n.ObjectID != "" {
		args = append(args, "object_type", n.ObjectType, "object_id", n.ObjectID)
	}
	for _, key := range []string{MetadataKeyOutcome, MetadataKeyReason} {
		if v, ok := n.Metadata[key]; ok {
			args = append(args, key, v)
		}
	}
	return args
}

// WithDefaultChannel sets the channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when the event has no user id.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

func normalizeMetadata(event auth.ActivityEvent) map[string]any {
	metadata := make(map[string]any, len(event.Metadata)+2)
	for key, value := range event.Metadata {
		metadata[key] = value
	}

	metadata[MetadataKeyOutcome] = outcome(event.EventType)
	if event.Reason != "" {
		metadata[MetadataKeyReason] = event.Reason
	}

	return metadata
}

func outcome(eventType auth.ActivityEventType) string {
	if strings.HasSuffix(string(eventType), ".success") {
		return "success"
	}
	return "failure"
}
