package services

import (
	"context"

	"github.com/cppla/inkpost/repository"
)

// Stats are site-wide counters.
type Stats struct {
	UserCount    int64 `json:"user_count"`
	PostCount    int64 `json:"post_count"`
	CommentCount int64 `json:"comment_count"`
}

// StatsService reports aggregate counts.
type StatsService struct {
	store repository.Store
}

// NewStatsService builds a StatsService.
func NewStatsService(store repository.Store) *StatsService {
	return &StatsService{store: store}
}

// Get counts active users, posts and comments in one transaction.
func (s *StatsService) Get(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.store.Transact(ctx, func(r repository.Repositories) error {
		var err error
		if st.UserCount, err = r.Users.CountActive(ctx); err != nil {
			return err
		}
		if st.PostCount, err = r.Posts.Count(ctx); err != nil {
			return err
		}
		st.CommentCount, err = r.Comments.Count(ctx)
		return err
	})
	if err != nil {
		return Stats{}, fromStorage(err)
	}
	return st, nil
}
