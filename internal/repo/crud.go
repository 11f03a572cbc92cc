package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"church-manager/internal/domain"
)

// Model 约束：*T 必须嵌入 domain.Base
type Model[T any] interface {
	*T
	Meta() *domain.Base
}

type Scope = func(*gorm.DB) *gorm.DB

// Crud 通用软删仓储：列表只返回 is_active=true，按 OrderBy 再按 id 排序保证稳定
type Crud[T any, PT Model[T]] struct {
	db       *gorm.DB
	orderBy  string
	preloads []preload
	now      func() time.Time
}

type preload struct {
	assoc string
	args  []any
}

type Option func(*crudOpts)

type crudOpts struct {
	orderBy  string
	preloads []preload
	now      func() time.Time
}

// OrderBy 列表排序键（原样传给 ORDER BY），默认 name
func OrderBy(expr string) Option { return func(o *crudOpts) { o.orderBy = expr } }

// Preload 关联预加载，args 原样传给 gorm（可带排序函数）
func Preload(assoc string, args ...any) Option {
	return func(o *crudOpts) { o.preloads = append(o.preloads, preload{assoc: assoc, args: args}) }
}

// WithClock 测试用
func WithClock(now func() time.Time) Option { return func(o *crudOpts) { o.now = now } }

func NewCrud[T any, PT Model[T]](db *gorm.DB, opts ...Option) *Crud[T, PT] {
	o := crudOpts{orderBy: "name", now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return &Crud[T, PT]{db: db, orderBy: o.orderBy, preloads: o.preloads, now: o.now}
}

func (r *Crud[T, PT]) DB() *gorm.DB { return r.db }

// WithDB 同样的排序/预加载，换一个连接（事务里用）
func (r *Crud[T, PT]) WithDB(db *gorm.DB) *Crud[T, PT] {
	cp := *r
	cp.db = db
	return &cp
}

func (r *Crud[T, PT]) withPreloads(q *gorm.DB) *gorm.DB {
	for _, p := range r.preloads {
		q = q.Preload(p.assoc, p.args...)
	}
	return q
}

func (r *Crud[T, PT]) List(ctx context.Context, scopes ...Scope) ([]T, error) {
	q := r.db.WithContext(ctx).Model(PT(new(T))).Where("is_active = ?", true).Scopes(scopes...)
	q = r.withPreloads(q)
	items := make([]T, 0)
	if err := q.Order(r.orderBy).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Get 按 id 取，软删的也能取到
func (r *Crud[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	var m T
	err := r.withPreloads(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Crud[T, PT]) Create(ctx context.Context, m PT) (*T, error) {
	b := m.Meta()
	b.IsActive = true
	now := r.now()
	b.CreatedAt, b.UpdatedAt = now, now
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDupKey(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}
	return r.Get(ctx, b.ID)
}

// Update 合并字段并打 updated_at；id 不存在返回 domain.ErrNotFound
func (r *Crud[T, PT]) Update(ctx context.Context, id string, changes map[string]any) (*T, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	set := make(map[string]any, len(changes)+1)
	for k, v := range changes {
		set[k] = v
	}
	set["updated_at"] = r.now()
	err := r.db.WithContext(ctx).Model(PT(new(T))).Where("id = ?", id).Updates(set).Error
	if err != nil {
		if isDupKey(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}
	return r.Get(ctx, id)
}

// Deactivate 软删：is_active=false，行保留
func (r *Crud[T, PT]) Deactivate(ctx context.Context, id string) (*T, error) {
	return r.Update(ctx, id, map[string]any{"is_active": false})
}
