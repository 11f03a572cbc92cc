package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"church-manager/internal/domain"
)

type UserRepo struct {
	*Crud[domain.User, *domain.User]
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{Crud: NewCrud[domain.User](db, OrderBy("email"))}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", domain.NormalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) CountActiveAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("is_admin = ? AND is_active = ?", true, true).Count(&n).Error
	return n, err
}

// Search 管理端列表：offset/limit + email 模糊搜，可含已停用
func (r *UserRepo) Search(ctx context.Context, q string, withInactive bool, offset, limit int) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if !withInactive {
		tx = tx.Where("is_active = ?", true)
	}
	if q != "" {
		tx = tx.Where("email LIKE ?", "%"+q+"%")
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := make([]domain.User, 0)
	if err := tx.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
