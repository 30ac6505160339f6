package auth

import "context"

// ClaimsDecorator can add extension data to claims before a token is signed.
// Implementations may only touch Metadata; identity and registered claims
// must stay as issued.
type ClaimsDecorator interface {
	Decorate(ctx context.Context, user *UserIdentity, claims *Claims) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(ctx context.Context, user *UserIdentity, claims *Claims) error

// Decorate satisfies the ClaimsDecorator interface.
func (f ClaimsDecoratorFunc) Decorate(ctx context.Context, user *UserIdentity, claims *Claims) error {
	if f == nil {
		return nil
	}
	return f(ctx, user, claims)
}

type noopClaimsDecorator struct{}

func (noopClaimsDecorator) Decorate(context.Context, *UserIdentity, *Claims) error {
	return nil
}

func normalizeClaimsDecorator(d ClaimsDecorator) ClaimsDecorator {
	if d == nil {
		return noopClaimsDecorator{}
	}
	return d
}

// decorateClaims runs the decorator and rejects any change to identity claims
func decorateClaims(ctx context.Context, d ClaimsDecorator, user *UserIdentity, claims *Claims) error {
	snap := snapshotClaims(claims)
	if err := d.Decorate(ctx, user, claims); err != nil {
		return err
	}
	return snap.verify(claims)
}
