package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cppla/inkpost/auth"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/repository"
)

// TokenType is returned next to every issued access token.
const TokenType = "bearer"

// AuthService logs users in and resolves bearer tokens to principals.
type AuthService struct {
	store    repository.Store
	hasher   auth.Hasher
	codec    *auth.TokenCodec
	resolver *auth.PrincipalResolver
	// decoy is verified when the email is unknown so both paths cost a hash check.
	decoy string
}

// NewAuthService wires login and token resolution over store.
func NewAuthService(store repository.Store, hasher auth.Hasher, codec *auth.TokenCodec) (*AuthService, error) {
	decoy, err := hasher.Hash("decoy-password")
	if err != nil {
		return nil, fmt.Errorf("prepare decoy hash: %w", err)
	}
	return &AuthService{
		store:    store,
		hasher:   hasher,
		codec:    codec,
		resolver: auth.NewPrincipalResolver(codec, StoreUserLookup(store)),
		decoy:    decoy,
	}, nil
}

// StoreUserLookup adapts a Store to the resolver's lookup contract.
func StoreUserLookup(store repository.Store) auth.UserLookup {
	return auth.UserLookupFunc(func(ctx context.Context, email string) (*models.User, error) {
		var user *models.User
		err := store.Transact(ctx, func(r repository.Repositories) error {
			u, err := r.Users.GetByEmail(ctx, email)
			if err != nil {
				return err
			}
			user = u
			return nil
		})
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return user, err
	})
}

// Login checks credentials and issues an access token whose subject is the email.
// Unknown email, wrong password and deactivated account are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrUnauthenticated
	}

	var user *models.User
	err := s.store.Transact(ctx, func(r repository.Repositories) error {
		u, err := r.Users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", fromStorage(err)
	}

	if user == nil {
		s.hasher.Verify(password, s.decoy)
		return "", ErrUnauthenticated
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		return "", ErrUnauthenticated
	}

	token, err := s.codec.Issue(user.Email, map[string]any{"uid": user.ID}, 0)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token. Credential failures wrap both
// ErrUnauthenticated and the auth package reason; storage failures wrap ErrUnavailable.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	user, err := s.resolver.Resolve(ctx, token)
	if err == nil {
		return user, nil
	}
	if auth.IsCredentialError(err) {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
}
