package auth

import (
	"context"

	"github.com/cppla/inkpost/models"
)

// CanMutate reports whether the principal owns the resource.
func CanMutate(principalID, resourceOwnerID uint) bool {
	return principalID == resourceOwnerID
}

type principalKey struct{}

// WithPrincipal stores the resolved user on ctx.
func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFrom returns the user stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(principalKey{}).(*models.User)
	return user, ok && user != nil
}
