package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"church-manager/internal/domain"
)

type FinanceRepo struct{ db *gorm.DB }

func NewFinanceRepo(db *gorm.DB) *FinanceRepo { return &FinanceRepo{db: db} }

// OneOffBetween [from, to) 内的非循环交易
func (r *FinanceRepo) OneOffBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0)
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND recurrence = ? AND date >= ? AND date < ?", true, domain.RecurNone, from, to).
		Order("date").Order("id").Find(&out).Error
	return out, err
}

// Recurring 截至 to 之前开始的循环交易
func (r *FinanceRepo) Recurring(ctx context.Context, to time.Time) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0)
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND recurrence <> ? AND date < ?", true, domain.RecurNone, to).
		Order("date").Order("id").Find(&out).Error
	return out, err
}

// Closure 取某月月结（含已撤销的）
func (r *FinanceRepo) Closure(ctx context.Context, year, month int) (*domain.Closure, error) {
	var c domain.Closure
	err := r.db.WithContext(ctx).First(&c, "year = ? AND month = ?", year, month).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *FinanceRepo) IsClosed(ctx context.Context, year, month int) (bool, error) {
	c, err := r.Closure(ctx, year, month)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.IsActive, nil
}

// ClosuresFrom 从 year-month（含）起的有效月结，按时间升序
func (r *FinanceRepo) ClosuresFrom(ctx context.Context, year, month int) ([]domain.Closure, error) {
	out := make([]domain.Closure, 0)
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND (year > ? OR (year = ? AND month >= ?))", true, year, year, month).
		Order("year").Order("month").Find(&out).Error
	return out, err
}

func (r *FinanceRepo) BudgetsIn(ctx context.Context, year, month int) ([]domain.Budget, error) {
	out := make([]domain.Budget, 0)
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND year = ? AND month = ?", true, year, month).
		Order("category_id").Find(&out).Error
	return out, err
}

func (r *FinanceRepo) Closures(ctx context.Context) ([]domain.Closure, error) {
	out := make([]domain.Closure, 0)
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("year DESC").Order("month DESC").Find(&out).Error
	return out, err
}

// ReopenClosure 撤销月结（软删）
func (r *FinanceRepo) ReopenClosure(ctx context.Context, id string, at time.Time) (*domain.Closure, error) {
	res := r.db.WithContext(ctx).Model(&domain.Closure{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "updated_at": at})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	var c domain.Closure
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *FinanceRepo) Categories(ctx context.Context) ([]domain.FinancialCategory, error) {
	out := make([]domain.FinancialCategory, 0)
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Order("id").Find(&out).Error
	return out, err
}

// SaveClosure 新建或重新激活已撤销的月结
func (r *FinanceRepo) SaveClosure(ctx context.Context, c *domain.Closure) error {
	c.IsActive = true
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}
