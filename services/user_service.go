package services

import (
	"context"
	"fmt"

	"github.com/cppla/inkpost/auth"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/repository"
)

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Name     string
	Surname  string
	Email    string
	Password string
}

// UserPatch lists the fields a user may change. Nil means unchanged.
type UserPatch struct {
	Name     *string
	Surname  *string
	Email    *string
	Password *string
}

// Empty reports whether no field is set.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Surname == nil && p.Email == nil && p.Password == nil
}

// UserService manages accounts.
type UserService struct {
	store  repository.Store
	hasher auth.Hasher
}

// NewUserService builds a UserService.
func NewUserService(store repository.Store, hasher auth.Hasher) *UserService {
	return &UserService{store: store, hasher: hasher}
}

// Register creates an active user. A taken email yields ErrConflict.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validatePersonName("name", in.Name); err != nil {
		return nil, err
	}
	if err := validatePersonName("surname", in.Surname); err != nil {
		return nil, err
	}
	email, err := normalizeEmailInput(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Name: in.Name, Surname: in.Surname, Email: email, PasswordHash: hash}
	err = s.store.Transact(ctx, func(r repository.Repositories) error {
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, fromStorage(err)
	}
	return user, nil
}

// Get returns a user, active or not, with their posts.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user *models.User
	err := s.store.Transact(ctx, func(r repository.Repositories) error {
		u, err := r.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		posts, err := r.Posts.ListByOwner(ctx, id)
		if err != nil {
			return err
		}
		u.Posts = posts
		user = u
		return nil
	})
	if err != nil {
		return nil, fromStorage(err)
	}
	return user, nil
}

// Update applies patch to target, which defaults to the principal when zero.
func (s *UserService) Update(ctx context.Context, principal *models.User, target uint, patch UserPatch) (*models.User, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}
	if patch.Empty() {
		return nil, invalid("no fields to update")
	}
	fields, err := s.userFields(patch)
	if err != nil {
		return nil, err
	}
	if target == 0 {
		target = principal.ID
	}

	var updated *models.User
	err = s.store.Transact(ctx, func(r repository.Repositories) error {
		existing, err := r.Users.GetByID(ctx, target)
		if err != nil {
			return err
		}
		if !auth.CanMutate(principal.ID, existing.ID) {
			return ErrForbidden
		}
		if _, err := r.Users.Update(ctx, existing.ID, fields); err != nil {
			return err
		}
		updated, err = r.Users.GetByID(ctx, existing.ID)
		return err
	})
	if err != nil {
		return nil, fromStorage(err)
	}
	return updated, nil
}

// Deactivate soft-deletes target, which defaults to the principal when zero.
// Posts and comments stay in place.
func (s *UserService) Deactivate(ctx context.Context, principal *models.User, target uint) (uint, error) {
	if principal == nil {
		return 0, ErrUnauthenticated
	}
	if target == 0 {
		target = principal.ID
	}

	var id uint
	err := s.store.Transact(ctx, func(r repository.Repositories) error {
		existing, err := r.Users.GetByID(ctx, target)
		if err != nil {
			return err
		}
		if !auth.CanMutate(principal.ID, existing.ID) {
			return ErrForbidden
		}
		id, err = r.Users.SoftDelete(ctx, existing.ID)
		return err
	})
	if err != nil {
		return 0, fromStorage(err)
	}
	return id, nil
}

func (s *UserService) userFields(patch UserPatch) (map[string]any, error) {
	fields := map[string]any{}
	if patch.Name != nil {
		if err := validatePersonName("name", *patch.Name); err != nil {
			return nil, err
		}
		fields["name"] = *patch.Name
	}
	if patch.Surname != nil {
		if err := validatePersonName("surname", *patch.Surname); err != nil {
			return nil, err
		}
		fields["surname"] = *patch.Surname
	}
	if patch.Email != nil {
		email, err := normalizeEmailInput(*patch.Email)
		if err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if patch.Password != nil {
		if err := validatePassword(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		fields["hashed_password"] = hash
	}
	return fields, nil
}
