package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"church-manager/internal/core/server"
	"church-manager/internal/transport/http/handler"
	mdw "church-manager/internal/transport/http/middleware"
	"church-manager/internal/transport/http/web"
)

// NewAPIEngine 用户端：/api/v1 过程接口 + 落地页 + /app 后台页面
func NewAPIEngine(d Deps) *gin.Engine {
	d = d.withDefaults()
	r := server.NewRouter(d.Log, d.Cfg.App.CORSOrigins)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300, 2*time.Second),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	// 健康检查 / 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", mdw.MetricsHandler())

	// 读公开；带 token（header 或会话 cookie）时写入身份，写操作由 Action.Auth 拦截
	api := r.Group("/api/v1", mdw.AuthOptional(d.JWT, d.Cfg.JWT.CookieName))

	// API 登录与页面登录共用同一组每 IP 桶
	loginLimit := mdw.RateLimitPerIP(rate.Limit(1), 5)

	reg := &Registry{}
	reg.Register(
		authModule{h: &handler.AuthHandler{Users: d.Users, LoginLimit: loginLimit}},
		memberModule{d: d},
		ministryModule{d: d},
		eventModule{d: d},
		songModule{d: d},
		financeModule{d: d},
		callModule{d: d},
	)
	reg.MountAPI(api)

	w := &web.Handler{
		Log:        d.Log,
		DB:         d.DB,
		Users:      d.Users,
		Events:     d.Events,
		Finance:    d.Finance,
		Cache:      d.Cache,
		Home:       d.Cfg.App.Name,
		Cookie:     d.Cfg.JWT.CookieName,
		TTL:        d.JWT.TTL,
		Secure:     d.Cfg.App.Env != "local",
		Guard:      mdw.RequireSession(d.JWT, d.Cfg.JWT.CookieName, "/login"),
		LoginLimit: loginLimit,
	}
	w.Mount(r)

	return r
}
