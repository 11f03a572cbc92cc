package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"church-manager/internal/domain"
	"church-manager/internal/service"
	httpez "church-manager/internal/transport/http/ez"
)

// UserHandler 管理端用户管理（仅 admin）
type UserHandler struct {
	Users *service.UserService
}

func userErr(err error) error {
	if errors.Is(err, service.ErrLastAdmin) {
		return httpez.Conflict(err.Error())
	}
	return err
}

func (h *UserHandler) Mount(g *gin.RouterGroup) {
	ezAdmin := httpez.New(g)
	admins := []string{domain.RoleAdmin}

	// --- 用户列表 ---
	type listQ struct {
		Offset       int    `form:"offset,default=0"`
		Limit        int    `form:"limit,default=20"`
		Q            string `form:"q"`             // 按 email 模糊搜
		WithInactive bool   `form:"with_inactive"` // 是否包含已停用
	}
	type row struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		MemberID  *string   `json:"memberId"`
		Role      string    `json:"role"`
		IsActive  bool      `json:"isActive"`
		CreatedAt time.Time `json:"createdAt"`
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}
	httpez.RegisterAction(ezAdmin, nil, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Auth:   true,
		Roles:  admins,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) (listOut, error) {
			us, total, err := h.Users.List(c.Request.Context(), in.Q, in.WithInactive, in.Offset, in.Limit)
			if err != nil {
				return listOut{}, httpez.Internal("list users failed", err)
			}
			out := listOut{Total: total, Items: make([]row, 0, len(us))}
			for _, u := range us {
				out.Items = append(out.Items, row{
					ID: u.ID, Email: u.Email, MemberID: u.MemberID, Role: u.Role(), IsActive: u.IsActive, CreatedAt: u.CreatedAt,
				})
			}
			return out, nil
		},
	})

	httpez.RegisterAction(ezAdmin, nil, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  admins,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.User, error) {
			return h.Users.Get(c.Request.Context(), c.Param("id"))
		},
	})

	httpez.RegisterAction(ezAdmin, nil, httpez.Action[domain.UserCreate, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  admins,
		Handler: func(c *gin.Context, _ *gorm.DB, in *domain.UserCreate) (*domain.User, error) {
			return h.Users.Create(c.Request.Context(), in)
		},
	})

	httpez.RegisterAction(ezAdmin, nil, httpez.Action[domain.UserPatch, *domain.User]{
		Method: http.MethodPatch,
		Path:   "/users/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Roles:  admins,
		Handler: func(c *gin.Context, _ *gorm.DB, in *domain.UserPatch) (*domain.User, error) {
			u, err := h.Users.Update(c.Request.Context(), c.Param("id"), in)
			return u, userErr(err)
		},
	})

	// 停用（软删）；/ban 为旧路径别名
	deactivate := func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.User, error) {
		u, err := h.Users.Deactivate(c.Request.Context(), c.Param("id"))
		return u, userErr(err)
	}
	for _, a := range []httpez.Action[struct{}, *domain.User]{
		{Method: http.MethodDelete, Path: "/users/:id"},
		{Method: http.MethodPost, Path: "/users/:id/ban"},
	} {
		a.Binder, a.Auth, a.Roles, a.Handler = httpez.BindNone, true, admins, deactivate
		httpez.RegisterAction(ezAdmin, nil, a)
	}
}
