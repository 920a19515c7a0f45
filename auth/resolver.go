package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/cppla/inkpost/models"
)

// ErrUserNotFound means the token was valid but names no active user.
var ErrUserNotFound = errors.New("token subject does not resolve to an active user")

// UserLookup finds a user by email. It returns (nil, nil) when no row matches.
type UserLookup interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserLookupFunc adapts a function to UserLookup.
type UserLookupFunc func(ctx context.Context, email string) (*models.User, error)

func (f UserLookupFunc) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f(ctx, email)
}

// PrincipalResolver turns a bearer token into the live user it names.
type PrincipalResolver struct {
	codec *TokenCodec
	users UserLookup
}

// NewPrincipalResolver builds a resolver over the given codec and lookup.
func NewPrincipalResolver(codec *TokenCodec, users UserLookup) *PrincipalResolver {
	return &PrincipalResolver{codec: codec, users: users}
}

// Resolve verifies token and loads its subject. Codec errors are returned unchanged;
// an absent or deactivated user yields ErrUserNotFound. Storage errors are wrapped
// and are neither of those.
func (r *PrincipalResolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	subject, err := r.codec.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := r.users.UserByEmail(ctx, models.NormalizeEmail(subject))
	if err != nil {
		return nil, fmt.Errorf("look up token subject: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// IsCredentialError reports whether err came from the token or the subject lookup
// rather than from storage.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrMissingSubject) ||
		errors.Is(err, ErrUserNotFound)
}

// FailureReason returns a short label for logs and metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrMissingSubject):
		return "missing_subject"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	default:
		return "storage"
	}
}
