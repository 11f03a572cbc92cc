package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"church-manager/internal/core/auth"
	"church-manager/internal/core/cache"
	"church-manager/internal/domain"
	"church-manager/internal/feature/page"
	"church-manager/internal/repo"
	"church-manager/internal/service"
	"church-manager/internal/testutil"
	mdw "church-manager/internal/transport/http/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	r     *gin.Engine
	db    *gorm.DB
	users *service.UserService
}

func newFixture(t *testing.T, opts ...func(*Handler)) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	j := &auth.JWTer{Secret: []byte("test"), Issuer: "church-manager", TTL: time.Hour}
	users := service.NewUserService(repo.NewUserRepo(db), j, nil)
	h := &Handler{
		DB:      db,
		Users:   users,
		Events:  service.NewEventService(db),
		Finance: service.NewFinanceService(db, nil),
		Home:    "Igreja Central VCP",
		Cookie:  "session",
		TTL:     time.Hour,
		Guard:   mdw.RequireSession(j, "session", "/login"),
	}
	for _, fn := range opts {
		fn(h)
	}
	r := gin.New()
	h.Mount(r)
	return fixture{r: r, db: db, users: users}
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func postForm(path string, v url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func (f fixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	_, err := f.users.Create(context.Background(), &domain.UserCreate{Email: "secretaria@igreja.org", Password: "segredo123"})
	require.NoError(t, err)

	w := f.do(postForm("/login", url.Values{"email": {"secretaria@igreja.org"}, "password": {"segredo123"}, "next": {"/app/members"}}))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/app/members", w.Header().Get("Location"))
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			assert.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestAppRedirectsToLoginWithoutSession(t *testing.T) {
	f := newFixture(t)
	w := f.do(httptest.NewRequest(http.MethodGet, "/app/events", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=/app/events", w.Header().Get("Location"))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Create(context.Background(), &domain.UserCreate{Email: "a@igreja.org", Password: "segredo123"})
	require.NoError(t, err)

	w := f.do(postForm("/login", url.Values{"email": {"a@igreja.org"}, "password": {"errada"}}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
	assert.Empty(t, w.Result().Cookies())
}

func TestHeaderRendersPageDescriptor(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	req := httptest.NewRequest(http.MethodGet, "/app/events", nil)
	req.AddCookie(cookie)
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<a href="/app">Igreja Central VCP</a>`)
	assert.Contains(t, body, `<span aria-current="page">Eventos</span>`)
	assert.Contains(t, body, "<h1>Eventos</h1>")
	assert.Contains(t, body, "<title>Eventos · Igreja Central VCP</title>")
}

func TestMemberFormCreateAndList(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)
	ctx := context.Background()
	min, err := repo.NewCrud[domain.Ministry](f.db).Create(ctx, &domain.Ministry{Name: "Louvor"})
	require.NoError(t, err)

	w := f.do(postForm("/app/members", url.Values{
		"name":       {"  Ana Souza "},
		"gender":     {"X"},
		"status":     {""},
		"birthDate":  {""},
		"ministryId": {min.ID, ""},
		"functionId": {"", ""},
	}, cookie))
	require.Equal(t, http.StatusFound, w.Code)

	list, err := repo.NewCrud[domain.Member](f.db, repo.Preload("Ministries")).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	m := list[0]
	assert.Equal(t, "Ana Souza", m.Name)
	assert.Equal(t, domain.Gender(""), m.Gender)
	assert.Equal(t, domain.MemberActive, m.Status)
	assert.Nil(t, m.BirthDate)
	require.Len(t, m.Ministries, 1)
	assert.Equal(t, min.ID, m.Ministries[0].MinistryID)

	// 校验失败回到表单并显示字段错误
	w = f.do(postForm("/app/members", url.Values{"name": {"A"}, "email": {"not-an-email"}}, cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name: min 2")

	req := httptest.NewRequest(http.MethodGet, "/app/members/"+m.ID, nil)
	req.AddCookie(cookie)
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<a href="/app/members">Membros</a>`)
	assert.Contains(t, w.Body.String(), `value="Ana Souza"`)

	w = f.do(postForm("/app/members/"+m.ID+"/delete", nil, cookie))
	require.Equal(t, http.StatusFound, w.Code)
	again, err := repo.NewCrud[domain.Member](f.db).Get(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)
}

func TestLandingIsPublic(t *testing.T) {
	f := newFixture(t)
	_, err := repo.NewCrud[domain.Ministry](f.db).Create(context.Background(), &domain.Ministry{Name: "Louvor"})
	require.NoError(t, err)

	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Louvor")
	assert.Contains(t, w.Body.String(), "<h1>Bem-vindo</h1>")
}

// 相同描述重复声明，页头只在真正变化时重新渲染
func TestHeaderRerendersOnlyOnChange(t *testing.T) {
	h := &Handler{tmpl: Templates()}
	var renders int
	r := gin.New()
	r.GET("/x", page.Middleware(""), h.headerMiddleware, func(c *gin.Context) {
		pc := page.MustFrom(c)
		pc.Set("Eventos", "")
		pc.Set("Eventos", "")
		pc.Set("Eventos", "", pc.Home(), page.Breadcrumb{Label: "Eventos"})
		renders = headerOf(c).Renders
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	// 初始默认描述 1 次 + 第一次 Set 1 次
	assert.Equal(t, 2, renders)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/app/songs", safeNext("/app/songs"))
	assert.Equal(t, "/app", safeNext("https://evil.example"))
	assert.Equal(t, "/app", safeNext("//evil.example"))
	assert.Equal(t, "/app", safeNext(""))
}

// 编辑页清空的字段要真的清空
func TestMemberEditClearsFields(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)
	ctx := context.Background()
	birth := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	m, err := repo.NewCrud[domain.Member](f.db).Create(ctx, &domain.Member{
		Name: "Ana Souza", Email: "ana@igreja.org", Phone: "1199", Notes: "líder", BirthDate: &birth, Status: domain.MemberActive,
	})
	require.NoError(t, err)

	w := f.do(postForm("/app/members/"+m.ID, url.Values{
		"name":      {"Ana Souza"},
		"email":     {""},
		"phone":     {"  "},
		"notes":     {""},
		"birthDate": {""},
		"status":    {"visiting"},
	}, cookie))
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	got, err := repo.NewCrud[domain.Member](f.db).Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Email)
	assert.Equal(t, "", got.Phone)
	assert.Equal(t, "", got.Notes)
	assert.Nil(t, got.BirthDate)
	assert.Equal(t, domain.MemberVisiting, got.Status)

	// 名字留空是校验错误，原记录不动
	w = f.do(postForm("/app/members/"+m.ID, url.Values{"name": {"   "}, "email": {"x@igreja.org"}}, cookie))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	got, err = repo.NewCrud[domain.Member](f.db).Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", got.Name)
	assert.Equal(t, "", got.Email)
}

// 页面上的成员写操作同样清掉 API 的列表缓存
func TestMemberWritesInvalidateListCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cc := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cc.Close() })

	f := newFixture(t, func(h *Handler) { h.Cache = cc })
	cookie := f.login(t)
	const key = "list:/members"

	require.NoError(t, mr.Set(key, "[]"))
	w := f.do(postForm("/app/members", url.Values{"name": {"Ana Souza"}}, cookie))
	require.Equal(t, http.StatusFound, w.Code)
	assert.False(t, mr.Exists(key))

	list, err := repo.NewCrud[domain.Member](f.db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	require.NoError(t, mr.Set(key, "[]"))
	w = f.do(postForm("/app/members/"+id, url.Values{"name": {"Ana Lima"}}, cookie))
	require.Equal(t, http.StatusFound, w.Code)
	assert.False(t, mr.Exists(key))

	require.NoError(t, mr.Set(key, "[]"))
	w = f.do(postForm("/app/members/"+id+"/delete", nil, cookie))
	require.Equal(t, http.StatusFound, w.Code)
	assert.False(t, mr.Exists(key))
}

func TestLoginFormIsRateLimited(t *testing.T) {
	f := newFixture(t, func(h *Handler) { h.LoginLimit = mdw.RateLimitPerIP(rate.Limit(0.001), 2) })
	bad := url.Values{"email": {"x@igreja.org"}, "password": {"segredo123"}}

	assert.Equal(t, http.StatusUnauthorized, f.do(postForm("/login", bad)).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(postForm("/login", bad)).Code)
	w := f.do(postForm("/login", bad))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "too many requests")
	assert.Empty(t, w.Result().Cookies())
}
