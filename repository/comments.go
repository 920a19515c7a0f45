package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/inkpost/models"
)

type gormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a CommentRepository outside of any Store transaction.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &gormCommentRepository{db: db}
}

func (r *gormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
	return translate("create comment", err)
}

func (r *gormCommentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Take(&comment, "id = ?", id).Error; err != nil {
		return nil, translate("get comment", err)
	}
	return &comment, nil
}

func (r *gormCommentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Count(&n).Error
	return n, translate("count comments", err)
}
