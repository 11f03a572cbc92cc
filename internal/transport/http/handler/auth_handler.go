package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"church-manager/internal/core/auth"
	"church-manager/internal/domain"
	"church-manager/internal/service"
	httpez "church-manager/internal/transport/http/ez"
)

// LoginErr 登录错误 → 响应错误（页面登录也复用）
func LoginErr(err error) error {
	switch {
	case errors.Is(err, service.ErrBadCredentials):
		return httpez.Unauthorized("invalid credentials")
	case errors.Is(err, domain.ErrInactive):
		return httpez.Forbidden("account disabled")
	default:
		return err
	}
}

type AuthHandler struct {
	Users *service.UserService
	// LoginLimit 只挂在 /auth 下（防爆破），可为空
	LoginLimit gin.HandlerFunc
}

// Mount /auth/login（公共）+ /me（需登录）
func (h *AuthHandler) Mount(g *gin.RouterGroup) {
	e := httpez.New(g)
	ag := g.Group("/auth")
	if h.LoginLimit != nil {
		ag.Use(h.LoginLimit)
	}

	httpez.RegisterAction(httpez.New(ag), nil, httpez.Action[domain.Credentials, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *gorm.DB, in *domain.Credentials) (*service.LoginResult, error) {
			res, err := h.Users.Login(c.Request.Context(), *in)
			if err != nil {
				return nil, LoginErr(err)
			}
			return res, nil
		},
	})

	httpez.RegisterAction(e, nil, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.User, error) {
			u, err := h.Users.Get(c.Request.Context(), c.GetString(auth.CtxUserID))
			if errors.Is(err, domain.ErrNotFound) {
				return nil, httpez.NotFound("user not found")
			}
			return u, err
		},
	})
}
