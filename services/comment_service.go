package services

import (
	"context"

	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/repository"
)

// CommentInput is the payload for a new comment.
type CommentInput struct {
	Body   string
	PostID uint
}

// CommentService manages comments.
type CommentService struct {
	store repository.Store
}

// NewCommentService builds a CommentService.
func NewCommentService(store repository.Store) *CommentService {
	return &CommentService{store: store}
}

// Create attaches a comment by the principal to an existing post.
func (s *CommentService) Create(ctx context.Context, principal *models.User, in CommentInput) (*models.Comment, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}
	body, err := validateBody("body", in.Body)
	if err != nil {
		return nil, err
	}
	if in.PostID == 0 {
		return nil, invalid("post_id is required")
	}

	comment := &models.Comment{Body: body, PostID: in.PostID, UserID: principal.ID}
	err = s.store.Transact(ctx, func(r repository.Repositories) error {
		if _, err := r.Posts.OwnerID(ctx, in.PostID); err != nil {
			return err
		}
		return r.Comments.Create(ctx, comment)
	})
	if err != nil {
		return nil, fromStorage(err)
	}
	comment.Author = principal
	return comment, nil
}

// Get returns a comment with its post and author.
func (s *CommentService) Get(ctx context.Context, principal *models.User, id uint) (*models.Comment, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	var comment *models.Comment
	err := s.store.Transact(ctx, func(r repository.Repositories) error {
		c, err := r.Comments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.Post, err = r.Posts.GetByID(ctx, c.PostID); err != nil {
			return err
		}
		if c.Author, err = r.Users.GetByID(ctx, c.UserID); err != nil {
			return err
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, fromStorage(err)
	}
	return comment, nil
}
