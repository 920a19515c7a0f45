// Package repository is the storage collaborator: gorm-backed repositories for users,
// posts and comments, grouped behind a Store that runs each request in one transaction.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/cppla/inkpost/models"
)

var (
	// ErrNotFound marks an absent row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict marks a uniqueness or foreign key violation.
	ErrConflict = errors.New("integrity constraint violated")
	// ErrImmutableField is returned when an update names a column that may not change.
	ErrImmutableField = errors.New("field cannot be updated")
)

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update applies fields to the user and returns the affected id.
	Update(ctx context.Context, id uint, fields map[string]any) (uint, error)
	// SoftDelete clears is_active and returns the affected id.
	SoftDelete(ctx context.Context, id uint) (uint, error)
	CountActive(ctx context.Context) (int64, error)
}

// PostRepository persists posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByID loads the post with its owner.
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	OwnerID(ctx context.Context, id uint) (uint, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Post, error)
	Update(ctx context.Context, id uint, fields map[string]any) (uint, error)
	Delete(ctx context.Context, id uint) (uint, error)
	Count(ctx context.Context) (int64, error)
}

// CommentRepository persists comments. Comments are append-only.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Count(ctx context.Context) (int64, error)
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories struct {
	Users    UserRepository
	Posts    PostRepository
	Comments CommentRepository
}

// Store hands out repositories scoped to a transaction. fn's error rolls the
// transaction back; a nil return commits it. Either way the transaction is
// finished before Transact returns.
type Store interface {
	Transact(ctx context.Context, fn func(Repositories) error) error
}

// GormStore is the relational Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an opened gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Transact runs fn inside db.Transaction.
func (s *GormStore) Transact(ctx context.Context, fn func(Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repositories{
			Users:    &gormUserRepository{db: tx},
			Posts:    &gormPostRepository{db: tx},
			Comments: &gormCommentRepository{db: tx},
		})
	})
}

// translate maps driver and gorm errors onto ErrNotFound and ErrConflict.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if isIntegrityViolation(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isIntegrityViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, // duplicate entry
			1216, 1217, // foreign key (legacy codes)
			1451, // cannot delete parent row
			1452: // cannot add child row
			return true
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 23: integrity constraint violation
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}

// pickColumns copies the allowed keys of fields, rejecting anything else.
func pickColumns(fields map[string]any, allowed ...string) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrImmutableField, k)
		}
		out[k] = v
	}
	return out, nil
}
