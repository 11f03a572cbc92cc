package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"church-manager/internal/core/auth"
	resp "church-manager/internal/transport/http/response"
)

// tokenFrom 先看 Authorization: Bearer，再看会话 cookie
func tokenFrom(c *gin.Context, cookie string) string {
	if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
		return strings.TrimPrefix(ah, "Bearer ")
	}
	if cookie != "" {
		if v, err := c.Cookie(cookie); err == nil {
			return v
		}
	}
	return ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(auth.CtxClaims, claims)
	c.Set(auth.CtxUserID, claims.UID)
	c.Set(auth.CtxRole, claims.Role)
}

// AuthJWT 强制登录；requireRole 非空时还要求角色匹配
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := tokenFrom(c, "")
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// AuthOptional 有合法 token 就写入身份，没有也放行（读接口公开，写接口由 Action.Auth 拦）
func AuthOptional(j *auth.JWTer, cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := tokenFrom(c, cookie); tok != "" {
			if claims, err := j.Parse(tok); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireSession 后台页面：无会话跳转登录页
func RequireSession(j *auth.JWTer, cookie, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := tokenFrom(c, cookie)
		claims, err := j.Parse(tok)
		if tok == "" || err != nil {
			c.Redirect(http.StatusFound, loginPath+"?next="+c.Request.URL.Path)
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}
