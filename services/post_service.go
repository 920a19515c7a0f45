package services

import (
	"context"

	"github.com/cppla/inkpost/auth"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/repository"
)

// PostInput is the payload for a new post.
type PostInput struct {
	Title string
	Body  string
}

// PostPatch lists the fields an owner may change. Nil means unchanged.
type PostPatch struct {
	Title *string
	Body  *string
}

// Empty reports whether no field is set.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Body == nil
}

// PostService manages posts.
type PostService struct {
	store repository.Store
}

// NewPostService builds a PostService.
func NewPostService(store repository.Store) *PostService {
	return &PostService{store: store}
}

// Create stores a post owned by the principal.
func (s *PostService) Create(ctx context.Context, principal *models.User, in PostInput) (*models.Post, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	body, err := validateBody("body", in.Body)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:   title,
		Body:    body,
		OwnerID: principal.ID,
	}
	err = s.store.Transact(ctx, func(r repository.Repositories) error {
		return r.Posts.Create(ctx, post)
	})
	if err != nil {
		return nil, fromStorage(err)
	}
	post.Owner = principal
	return post, nil
}

// Get returns a post with its owner.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post *models.Post
	err := s.store.Transact(ctx, func(r repository.Repositories) error {
		p, err := r.Posts.GetByID(ctx, id)
		post = p
		return err
	})
	if err != nil {
		return nil, fromStorage(err)
	}
	return post, nil
}

// Update changes title and/or body of a post the principal owns and returns the stored result.
func (s *PostService) Update(ctx context.Context, principal *models.User, id uint, patch PostPatch) (*models.Post, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}
	if patch.Empty() {
		return nil, invalid("no fields to update")
	}
	fields := map[string]any{}
	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if patch.Body != nil {
		body, err := validateBody("body", *patch.Body)
		if err != nil {
			return nil, err
		}
		fields["body"] = body
	}

	var updated *models.Post
	err := s.store.Transact(ctx, func(r repository.Repositories) error {
		ownerID, err := r.Posts.OwnerID(ctx, id)
		if err != nil {
			return err
		}
		if !auth.CanMutate(principal.ID, ownerID) {
			return ErrForbidden
		}
		if _, err := r.Posts.Update(ctx, id, fields); err != nil {
			return err
		}
		updated, err = r.Posts.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fromStorage(err)
	}
	return updated, nil
}

// Delete removes a post the principal owns and returns its id.
func (s *PostService) Delete(ctx context.Context, principal *models.User, id uint) (uint, error) {
	if principal == nil {
		return 0, ErrUnauthenticated
	}

	var deleted uint
	err := s.store.Transact(ctx, func(r repository.Repositories) error {
		ownerID, err := r.Posts.OwnerID(ctx, id)
		if err != nil {
			return err
		}
		if !auth.CanMutate(principal.ID, ownerID) {
			return ErrForbidden
		}
		deleted, err = r.Posts.Delete(ctx, id)
		return err
	})
	if err != nil {
		return 0, fromStorage(err)
	}
	return deleted, nil
}
