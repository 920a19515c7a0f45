// Package repotest provides an in-memory repository.Store for service and handler tests.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/repository"
)

// Store keeps rows in maps and applies the same integrity rules as the relational
// schema: unique email, comments reference existing posts, posts with comments
// cannot be deleted. Transactions are serialized; a failed fn restores the snapshot.
type Store struct {
	mu       sync.Mutex
	users    map[uint]models.User
	posts    map[uint]models.Post
	comments map[uint]models.Comment
	nextID   uint

	// Err, when set, is returned by every Transact call without running fn.
	Err error
	// Writes counts successful mutating repository calls.
	Writes int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:    map[uint]models.User{},
		posts:    map[uint]models.Post{},
		comments: map[uint]models.Comment{},
	}
}

// Transact runs fn against the store, rolling back on error.
func (s *Store) Transact(ctx context.Context, fn func(repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	snapshot := s.snapshot()
	err := fn(repository.Repositories{
		Users:    userRepo{s},
		Posts:    postRepo{s},
		Comments: commentRepo{s},
	})
	if err != nil {
		s.restore(snapshot)
	}
	return err
}

// User returns a copy of the stored user, for assertions.
func (s *Store) User(id uint) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// Post returns a copy of the stored post, for assertions.
func (s *Store) Post(id uint) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	return p, ok
}

type snapshot struct {
	users    map[uint]models.User
	posts    map[uint]models.Post
	comments map[uint]models.Comment
	nextID   uint
	writes   int
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:    make(map[uint]models.User, len(s.users)),
		posts:    make(map[uint]models.Post, len(s.posts)),
		comments: make(map[uint]models.Comment, len(s.comments)),
		nextID:   s.nextID,
		writes:   s.Writes,
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.posts {
		snap.posts[k] = v
	}
	for k, v := range s.comments {
		snap.comments[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users, s.posts, s.comments = snap.users, snap.posts, snap.comments
	s.nextID, s.Writes = snap.nextID, snap.writes
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

func conflict(op, detail string) error {
	return fmt.Errorf("%s: %w: %s", op, repository.ErrConflict, detail)
}

func checkColumns(fields map[string]any, allowed ...string) error {
	for k := range fields {
		ok := false
		for _, a := range allowed {
			ok = ok || k == a
		}
		if !ok {
			return fmt.Errorf("%w: %s", repository.ErrImmutableField, k)
		}
	}
	return nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *models.User) error {
	email := models.NormalizeEmail(user.Email)
	for _, u := range r.s.users {
		if u.Email == email {
			return conflict("create user", "duplicate email")
		}
	}
	now := time.Now()
	user.ID = r.s.id()
	user.Email = email
	user.IsActive = true
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	stored.Posts = nil
	r.s.users[user.ID] = stored
	r.s.Writes++
	return nil
}

func (r userRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("get user")
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, notFound("get user by email")
}

func (r userRepo) Update(_ context.Context, id uint, fields map[string]any) (uint, error) {
	if err := checkColumns(fields, "name", "surname", "email", "hashed_password"); err != nil {
		return 0, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return 0, notFound("update user")
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "surname":
			u.Surname = v.(string)
		case "email":
			email := models.NormalizeEmail(v.(string))
			for otherID, other := range r.s.users {
				if otherID != id && other.Email == email {
					return 0, conflict("update user", "duplicate email")
				}
			}
			u.Email = email
		case "hashed_password":
			u.PasswordHash = v.(string)
		}
	}
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	r.s.Writes++
	return id, nil
}

func (r userRepo) SoftDelete(_ context.Context, id uint) (uint, error) {
	u, ok := r.s.users[id]
	if !ok {
		return 0, notFound("deactivate user")
	}
	u.IsActive = false
	r.s.users[id] = u
	r.s.Writes++
	return id, nil
}

func (r userRepo) CountActive(context.Context) (int64, error) {
	var n int64
	for _, u := range r.s.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

type postRepo struct{ s *Store }

func (r postRepo) Create(_ context.Context, post *models.Post) error {
	if _, ok := r.s.users[post.OwnerID]; !ok {
		return conflict("create post", "unknown owner")
	}
	now := time.Now()
	post.ID = r.s.id()
	post.CreatedAt, post.UpdatedAt = now, now
	stored := *post
	stored.Owner = nil
	r.s.posts[post.ID] = stored
	r.s.Writes++
	return nil
}

func (r postRepo) GetByID(_ context.Context, id uint) (*models.Post, error) {
	p, ok := r.s.posts[id]
	if !ok {
		return nil, notFound("get post")
	}
	if owner, ok := r.s.users[p.OwnerID]; ok {
		p.Owner = &owner
	}
	return &p, nil
}

func (r postRepo) OwnerID(_ context.Context, id uint) (uint, error) {
	p, ok := r.s.posts[id]
	if !ok {
		return 0, notFound("get post owner")
	}
	return p.OwnerID, nil
}

func (r postRepo) ListByOwner(_ context.Context, ownerID uint) ([]models.Post, error) {
	var out []models.Post
	for _, p := range r.s.posts {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r postRepo) Update(_ context.Context, id uint, fields map[string]any) (uint, error) {
	if err := checkColumns(fields, "title", "body"); err != nil {
		return 0, err
	}
	p, ok := r.s.posts[id]
	if !ok {
		return 0, notFound("update post")
	}
	if v, ok := fields["title"]; ok {
		p.Title = v.(string)
	}
	if v, ok := fields["body"]; ok {
		p.Body = v.(string)
	}
	p.UpdatedAt = time.Now()
	r.s.posts[id] = p
	r.s.Writes++
	return id, nil
}

func (r postRepo) Delete(_ context.Context, id uint) (uint, error) {
	if _, ok := r.s.posts[id]; !ok {
		return 0, notFound("delete post")
	}
	for _, c := range r.s.comments {
		if c.PostID == id {
			return 0, conflict("delete post", "post has comments")
		}
	}
	delete(r.s.posts, id)
	r.s.Writes++
	return id, nil
}

func (r postRepo) Count(context.Context) (int64, error) {
	return int64(len(r.s.posts)), nil
}

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, comment *models.Comment) error {
	if _, ok := r.s.posts[comment.PostID]; !ok {
		return conflict("create comment", "unknown post")
	}
	if _, ok := r.s.users[comment.UserID]; !ok {
		return conflict("create comment", "unknown author")
	}
	comment.ID = r.s.id()
	comment.CreatedAt = time.Now()
	stored := *comment
	stored.Post, stored.Author = nil, nil
	r.s.comments[comment.ID] = stored
	r.s.Writes++
	return nil
}

func (r commentRepo) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	c, ok := r.s.comments[id]
	if !ok {
		return nil, notFound("get comment")
	}
	return &c, nil
}

func (r commentRepo) Count(context.Context) (int64, error) {
	return int64(len(r.s.comments)), nil
}
