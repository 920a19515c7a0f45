package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/inkpost/models"
)

// owner_id is immutable.
var postUpdatableColumns = []string{"title", "body"}

type gormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a PostRepository outside of any Store transaction.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &gormPostRepository{db: db}
}

func (r *gormPostRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
	return translate("create post", err)
}

func (r *gormPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Owner").Take(&post, "id = ?", id).Error; err != nil {
		return nil, translate("get post", err)
	}
	return &post, nil
}

func (r *gormPostRepository) OwnerID(ctx context.Context, id uint) (uint, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select("id", "owner_id").Take(&post, "id = ?", id).Error; err != nil {
		return 0, translate("get post owner", err)
	}
	return post.OwnerID, nil
}

func (r *gormPostRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&posts).Error
	if err != nil {
		return nil, translate("list posts", err)
	}
	return posts, nil
}

func (r *gormPostRepository) Update(ctx context.Context, id uint, fields map[string]any) (uint, error) {
	cols, err := pickColumns(fields, postUpdatableColumns...)
	if err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return 0, translate("update post", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, translate("update post", gorm.ErrRecordNotFound)
	}
	return id, nil
}

func (r *gormPostRepository) Delete(ctx context.Context, id uint) (uint, error) {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return 0, translate("delete post", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, translate("delete post", gorm.ErrRecordNotFound)
	}
	return id, nil
}

func (r *gormPostRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error
	return n, translate("count posts", err)
}
