package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"church-manager/internal/core/auth"
	resp "church-manager/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

var testJWT = &auth.JWTer{Secret: []byte("test"), Issuer: "church-manager", TTL: time.Hour}

func codeOf(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var r resp.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r), w.Body.String())
	return r.Code
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, resp.OK(gin.H{"uid": c.GetString(auth.CtxUserID), "role": c.GetString(auth.CtxRole)}))
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthJWT(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthJWT(testJWT, "admin"), whoami)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, resp.CodeUnauthorized, codeOf(t, w))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, resp.CodeUnauthorized, codeOf(t, serve(r, req)))

	user, err := testJWT.Issue("u1", "user")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+user)
	assert.Equal(t, resp.CodeForbidden, codeOf(t, serve(r, req)))

	admin, err := testJWT.Issue("root", "admin")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	w = serve(r, req)
	assert.Equal(t, resp.CodeOK, codeOf(t, w))
	assert.Contains(t, w.Body.String(), `"uid":"root"`)
}

func TestAuthOptionalReadsCookie(t *testing.T) {
	r := gin.New()
	r.GET("/x", AuthOptional(testJWT, "session"), whoami)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Contains(t, w.Body.String(), `"uid":""`)

	tok, err := testJWT.Issue("u1", "user")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: tok})
	w = serve(r, req)
	assert.Contains(t, w.Body.String(), `"uid":"u1"`)
	assert.Contains(t, w.Body.String(), `"role":"user"`)
}

func TestRequireSessionRedirects(t *testing.T) {
	r := gin.New()
	r.GET("/app/songs", RequireSession(testJWT, "session", "/login"), whoami)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/app/songs", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=/app/songs", w.Header().Get("Location"))

	tok, err := testJWT.Issue("u1", "user")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/app/songs", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: tok})
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimitPerIP(rate.Limit(0.001), 2), whoami)

	from := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		return req
	}
	assert.Equal(t, resp.CodeOK, codeOf(t, serve(r, from("10.0.0.1"))))
	assert.Equal(t, resp.CodeOK, codeOf(t, serve(r, from("10.0.0.1"))))
	assert.Equal(t, resp.CodeTooMany, codeOf(t, serve(r, from("10.0.0.1"))))
	// 其他 IP 各自一个桶
	assert.Equal(t, resp.CodeOK, codeOf(t, serve(r, from("10.0.0.2"))))
}

func TestIPLimiterEvictsIdleBuckets(t *testing.T) {
	l := newIPLimiter(rate.Limit(0.001), 1, time.Minute)
	t0 := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.True(t, l.allow("10.0.0.1", t0))
	assert.False(t, l.allow("10.0.0.1", t0.Add(time.Second)))
	assert.Equal(t, 1, l.size())

	// 闲置超过一分钟的桶在下次清扫时被回收
	assert.True(t, l.allow("10.0.0.2", t0.Add(2*time.Minute)))
	assert.Equal(t, 1, l.size())
	assert.True(t, l.allow("10.0.0.1", t0.Add(2*time.Minute)))
	assert.Equal(t, 2, l.size())
}

func TestIdleTTLCoversRefill(t *testing.T) {
	assert.Equal(t, 10*time.Minute, idleTTL(rate.Limit(1), 5))
	assert.Equal(t, 4000*time.Second, idleTTL(rate.Limit(0.5), 2000))
	assert.Equal(t, 10*time.Minute, idleTTL(rate.Inf, 1))
}

func TestRequestIDKeepsIncoming(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "abc")
	w := serve(r, req)
	assert.Equal(t, "abc", w.Header().Get(KeyRequestID))
	assert.Equal(t, "abc", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get(KeyRequestID), 36)

	// 非法的上游 id 被替换
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "bad id\nforged=1")
	w = serve(r, req)
	assert.Len(t, w.Header().Get(KeyRequestID), 36)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/slow", Timeout(10*time.Millisecond), func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	w := serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, resp.CodeTimeout, codeOf(t, w))
}

func TestConcurrencyLimitCancelled(t *testing.T) {
	r := gin.New()
	r.GET("/x", ConcurrencyLimit(0, 0), whoami)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/x", nil).WithContext(ctx)
	assert.Equal(t, resp.CodeTooMany, codeOf(t, serve(r, req)))
}

func TestConcurrencyLimitWaitBudget(t *testing.T) {
	r := gin.New()
	r.GET("/x", ConcurrencyLimit(0, 5*time.Millisecond), whoami)
	assert.Equal(t, resp.CodeTooMany, codeOf(t, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))))
}

func TestMaxBodyBytesRejectsDeclaredLength(t *testing.T) {
	r := gin.New()
	r.POST("/x", MaxBodyBytes(4), whoami)
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("0123456789"))
	assert.Equal(t, resp.CodeBadRequest, codeOf(t, serve(r, req)))
}

func TestAccessLogRecordsUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), func(c *gin.Context) { c.Set(auth.CtxUserID, "u1"); c.Next() }, AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusOK)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "u1", entries[0].ContextMap()["uid"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}
