package page

import "github.com/gin-gonic/gin"

const ctxKey = "page.container"

// Middleware 每个请求挂一个新的 Container，请求结束即丢弃；home 为站点名
func Middleware(home string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKey, NewWithHome(home))
		c.Next()
	}
}

func From(c *gin.Context) (*Container, bool) {
	v, ok := c.Get(ctxKey)
	if !ok {
		return nil, false
	}
	pc, ok := v.(*Container)
	return pc, ok && pc != nil
}

// MustFrom 作用域外调用直接 panic，开发期尽早暴露误用
func MustFrom(c *gin.Context) *Container {
	pc, ok := From(c)
	if !ok {
		panic(ErrNoContainer)
	}
	return pc
}
