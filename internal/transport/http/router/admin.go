package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"church-manager/internal/core/server"
	"church-manager/internal/domain"
	"church-manager/internal/transport/http/handler"
	mdw "church-manager/internal/transport/http/middleware"
)

func NewAdminEngine(d Deps) *gin.Engine {
	d = d.withDefaults()
	r := server.NewRouter(d.Log, d.Cfg.App.CORSOrigins)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300, 2*time.Second),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, domain.RoleAdmin))

	reg := &Registry{}
	reg.Register(userAdminModule{h: &handler.UserHandler{Users: d.Users}})
	reg.MountAdmin(admin)

	return r
}
