package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/inkpost/models"
)

// Columns a user may change about themselves.
var userUpdatableColumns = []string{"name", "surname", "email", "hashed_password"}

type gormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a UserRepository outside of any Store transaction.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	user.IsActive = true
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	return translate("create user", err)
}

func (r *gormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Take(&user, "id = ?", id).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Take(&user, "email = ?", models.NormalizeEmail(email)).Error; err != nil {
		return nil, translate("get user by email", err)
	}
	return &user, nil
}

func (r *gormUserRepository) Update(ctx context.Context, id uint, fields map[string]any) (uint, error) {
	cols, err := pickColumns(fields, userUpdatableColumns...)
	if err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return 0, translate("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, translate("update user", gorm.ErrRecordNotFound)
	}
	return id, nil
}

func (r *gormUserRepository) SoftDelete(ctx context.Context, id uint) (uint, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return 0, translate("deactivate user", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, translate("deactivate user", gorm.ErrRecordNotFound)
	}
	return id, nil
}

func (r *gormUserRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Count(&n).Error
	return n, translate("count users", err)
}
