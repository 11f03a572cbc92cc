package ez

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"church-manager/internal/core/cache"
	"church-manager/internal/repo"
)

// Store 通用仓储接口，repo.Crud 即满足
type Store[T any] interface {
	List(ctx context.Context, scopes ...repo.Scope) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, m *T) (*T, error)
	Update(ctx context.Context, id string, changes map[string]any) (*T, error)
	Deactivate(ctx context.Context, id string) (*T, error)
}

type CrudHooks[T any, C any, P any] struct {
	// Scope 从查询参数构造筛选；返回 nil 表示无额外筛选（可走列表缓存）
	Scope        func(c *gin.Context) (repo.Scope, error)
	BeforeCreate func(c *gin.Context, in *C, m *T) error
	BeforeUpdate func(c *gin.Context, current *T, in *P) error
	// AfterUpdate tx 为更新所在的事务（未配置 DB 时为 nil）
	AfterUpdate  func(c *gin.Context, tx *gorm.DB, m *T, in *P) error
	BeforeDelete func(c *gin.Context, current *T) error
}

// CrudConfig 一个实体的 getAll / get / create / update / delete(软删)
type CrudConfig[T any, C any, P any] struct {
	Store   Store[T]
	Path    string
	Build   func(in *C) *T
	Changes func(in *P) map[string]any
	Hooks   CrudHooks[T, C, P]
	// Where 常驻筛选，getAll 每次都带（如活动列表排除模板）
	Where repo.Scope
	// DB + Bind 配齐时，update 与 AfterUpdate 在同一事务里提交
	DB   *gorm.DB
	Bind func(tx *gorm.DB) Store[T]

	Cache    *cache.Cache
	CacheTTL time.Duration
}

// ListKey getAll 的缓存键；自定义动作改了数据也要按它失效
func ListKey(path string) string { return "list:" + path }

// Invalidate 清列表缓存，失败只记录不影响响应
func Invalidate(c *gin.Context, cc *cache.Cache, paths ...string) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, ListKey(p))
	}
	if err := cc.Invalidate(c.Request.Context(), keys...); err != nil {
		_ = c.Error(err)
	}
}

func (cfg CrudConfig[T, C, P]) invalidate(c *gin.Context) { Invalidate(c, cfg.Cache, cfg.Path) }

func (cfg CrudConfig[T, C, P]) current(c *gin.Context) (*T, error) {
	id := c.Param("id")
	if id == "" {
		return nil, BadRequest("missing id")
	}
	return cfg.Store.Get(c.Request.Context(), id)
}

func (cfg CrudConfig[T, C, P]) update(c *gin.Context, id string, in *P) (*T, error) {
	ctx := c.Request.Context()
	apply := func(store Store[T], tx *gorm.DB) (*T, error) {
		out, err := store.Update(ctx, id, cfg.Changes(in))
		if err != nil || cfg.Hooks.AfterUpdate == nil {
			return out, err
		}
		if err := cfg.Hooks.AfterUpdate(c, tx, out, in); err != nil {
			return nil, err
		}
		return store.Get(ctx, id)
	}
	if cfg.DB == nil || cfg.Bind == nil {
		return apply(cfg.Store, nil)
	}
	var out *T
	err := cfg.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = apply(cfg.Bind(tx), tx)
		return err
	})
	return out, err
}

// Crud 读公开，写需要登录
func Crud[T any, C any, P any](e EZ, cfg CrudConfig[T, C, P]) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}

	// getAll
	RegisterAction(e, nil, Action[struct{}, []T]{
		Method: http.MethodGet,
		Path:   cfg.Path,
		Binder: BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) ([]T, error) {
			ctx := c.Request.Context()
			var scopes []repo.Scope
			if cfg.Where != nil {
				scopes = append(scopes, cfg.Where)
			}
			if cfg.Hooks.Scope != nil {
				s, err := cfg.Hooks.Scope(c)
				if err != nil {
					return nil, err
				}
				if s != nil {
					return cfg.Store.List(ctx, append(scopes, s)...)
				}
			}
			return cache.GetOrLoadJSON(cfg.Cache, ctx, ListKey(cfg.Path), cfg.CacheTTL, func(ctx context.Context) ([]T, error) {
				return cfg.Store.List(ctx, scopes...)
			})
		},
	})

	// get（含已停用）
	RegisterAction(e, nil, Action[struct{}, *T]{
		Method: http.MethodGet,
		Path:   cfg.Path + "/:id",
		Binder: BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*T, error) {
			return cfg.current(c)
		},
	})

	// create
	RegisterAction(e, nil, Action[C, *T]{
		Method: http.MethodPost,
		Path:   cfg.Path,
		Binder: BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *C) (*T, error) {
			m := cfg.Build(in)
			if cfg.Hooks.BeforeCreate != nil {
				if err := cfg.Hooks.BeforeCreate(c, in, m); err != nil {
					return nil, err
				}
			}
			out, err := cfg.Store.Create(c.Request.Context(), m)
			if err != nil {
				return nil, err
			}
			cfg.invalidate(c)
			return out, nil
		},
	})

	// update（部分字段）
	RegisterAction(e, nil, Action[P, *T]{
		Method: http.MethodPatch,
		Path:   cfg.Path + "/:id",
		Binder: BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *P) (*T, error) {
			cur, err := cfg.current(c)
			if err != nil {
				return nil, err
			}
			if cfg.Hooks.BeforeUpdate != nil {
				if err := cfg.Hooks.BeforeUpdate(c, cur, in); err != nil {
					return nil, err
				}
			}
			out, err := cfg.update(c, c.Param("id"), in)
			if err != nil {
				return nil, err
			}
			cfg.invalidate(c)
			return out, nil
		},
	})

	// delete（软删：is_active=false）
	RegisterAction(e, nil, Action[struct{}, *T]{
		Method: http.MethodDelete,
		Path:   cfg.Path + "/:id",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*T, error) {
			cur, err := cfg.current(c)
			if err != nil {
				return nil, err
			}
			if cfg.Hooks.BeforeDelete != nil {
				if err := cfg.Hooks.BeforeDelete(c, cur); err != nil {
					return nil, err
				}
			}
			out, err := cfg.Store.Deactivate(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			cfg.invalidate(c)
			return out, nil
		},
	})
}
