// Package web 服务端渲染的落地页与 /app 后台页面。
// 每个请求一个页面容器（page.Container），页面处理函数只声明标题/面包屑，
// 共享页头订阅容器，内容有变化时才重新渲染。
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"church-manager/internal/core/cache"
	"church-manager/internal/core/validation"
	"church-manager/internal/feature/page"
	"church-manager/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"date": func(t any) string {
		switch v := t.(type) {
		case time.Time:
			return v.Format("02/01/2006")
		case *time.Time:
			if v != nil {
				return v.Format("02/01/2006")
			}
		}
		return ""
	},
	"datetime": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
	"inputDate": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"last": func(i int, crumbs []page.Breadcrumb) bool { return i == len(crumbs)-1 },
}

func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// Handler 页面依赖
type Handler struct {
	Log     *zap.Logger
	DB      *gorm.DB
	Users   *service.UserService
	Events  *service.EventService
	Finance *service.FinanceService
	// Cache 与 /api/v1 共用的列表缓存，页面写操作后同样要失效
	Cache *cache.Cache
	// Home 站点名，面包屑首项和页面标题用
	Home string

	Cookie string
	TTL    time.Duration
	Secure bool
	// Guard /app 下的会话校验，无会话跳登录
	Guard gin.HandlerFunc
	// LoginLimit 登录提交的每 IP 限速，与 API 登录共用一个实例
	LoginLimit gin.HandlerFunc

	tmpl *template.Template
}

// Header 共享页头组件
type Header struct {
	tmpl    *template.Template
	HTML    template.HTML
	Renders int
	err     error
}

func (h *Header) render(info page.Info) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "header", info); err != nil {
		h.err = err
		return
	}
	h.HTML = template.HTML(buf.String())
	h.Renders++
}

const ctxHeader = "web.header"

// headerMiddleware 挂在 page.Middleware 之后：订阅当前请求的页面容器
func (h *Handler) headerMiddleware(c *gin.Context) {
	pc := page.MustFrom(c)
	hd := &Header{tmpl: h.tmpl}
	hd.render(pc.Info())
	unsubscribe := pc.Subscribe(hd.render)
	defer unsubscribe()
	c.Set(ctxHeader, hd)
	c.Next()
}

func headerOf(c *gin.Context) *Header {
	if v, ok := c.Get(ctxHeader); ok {
		return v.(*Header)
	}
	return nil
}

// view 渲染整页：页头来自订阅结果，正文为 name 模板
func (h *Handler) view(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	hd := headerOf(c)
	if hd != nil && hd.err != nil {
		h.fail(c, hd.err)
		return
	}
	if hd != nil {
		data["Header"] = hd.HTML
	}
	pc := page.MustFrom(c)
	data["Page"] = pc.Info()
	data["Home"] = pc.Home().Label
	data["Path"] = c.Request.URL.Path
	c.HTML(status, name, data)
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	h.Log.Error("page failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.String(http.StatusInternalServerError, "internal error")
}

// Mount 注册页面路由
func (h *Handler) Mount(r *gin.Engine) {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	validation.Register()
	h.tmpl = Templates()
	r.SetHTMLTemplate(h.tmpl)

	pub := r.Group("", page.Middleware(h.Home), h.headerMiddleware)
	pub.GET("/", h.landing)
	pub.GET("/login", h.loginForm)
	if h.LoginLimit != nil {
		pub.POST("/login", h.LoginLimit, h.login)
	} else {
		pub.POST("/login", h.login)
	}
	pub.GET("/logout", h.logout)

	app := r.Group("/app", page.Middleware(h.Home), h.headerMiddleware)
	if h.Guard != nil {
		app.Use(h.Guard)
	}
	app.GET("", h.dashboard)
	app.GET("/members", h.members)
	app.GET("/members/new", h.memberNew)
	app.POST("/members", h.memberCreate)
	app.GET("/members/:id", h.memberEdit)
	app.POST("/members/:id", h.memberUpdate)
	app.POST("/members/:id/delete", h.memberDelete)
	app.GET("/ministries", h.ministries)
	app.GET("/events", h.events)
	app.GET("/songs", h.songs)
	app.GET("/finance", h.finance)
	app.GET("/calls", h.calls)
}

// safeNext 登录后只允许跳回站内 /app 页面
func safeNext(next string) string {
	if strings.HasPrefix(next, "/app") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/app"
}
