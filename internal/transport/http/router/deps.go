package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"church-manager/internal/core/auth"
	"church-manager/internal/core/cache"
	"church-manager/internal/core/config"
	"church-manager/internal/repo"
	"church-manager/internal/service"
	"church-manager/internal/transport/http/ez"
)

// Deps 引擎构建所需依赖
type Deps struct {
	Log   *zap.Logger
	DB    *gorm.DB
	JWT   *auth.JWTer
	Cache *cache.Cache // nil = 不缓存
	Cfg   *config.Config

	Users    *service.UserService
	Events   *service.EventService
	Finance  *service.FinanceService
	cacheTTL time.Duration
}

// withDefaults 补齐服务；测试只需给 DB + JWT
func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Cfg == nil {
		d.Cfg = config.Default()
	}
	if d.Users == nil {
		d.Users = service.NewUserService(repo.NewUserRepo(d.DB), d.JWT, d.Log)
	}
	if d.Events == nil {
		d.Events = service.NewEventService(d.DB)
	}
	if d.Finance == nil {
		d.Finance = service.NewFinanceService(d.DB, d.Log)
	}
	d.cacheTTL = time.Duration(d.Cfg.Redis.ListTTLSec) * time.Second
	return d
}

const dateLayout = "2006-01-02"

// queryDate ?from=2024-01-01；空值返回 nil
func queryDate(c *gin.Context, key string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return nil, ez.BadRequest(key + ": must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}

func queryInt(c *gin.Context, key string, min, max int) (int, bool, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return 0, false, ez.BadRequest(key + ": must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max))
	}
	return n, true, nil
}

// scopes 合并多个筛选；全部为空返回 nil（走缓存）
func scopes(ss []repo.Scope) repo.Scope {
	if len(ss) == 0 {
		return nil
	}
	return func(q *gorm.DB) *gorm.DB {
		for _, s := range ss {
			q = s(q)
		}
		return q
	}
}

func eq(col string, v any) repo.Scope {
	return func(q *gorm.DB) *gorm.DB { return q.Where(col+" = ?", v) }
}

func like(col, v string) repo.Scope {
	return func(q *gorm.DB) *gorm.DB { return q.Where("LOWER("+col+") LIKE ?", "%"+strings.ToLower(v)+"%") }
}
