package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"

	"church-manager/internal/core/auth"
	"church-manager/internal/core/validation"
	"church-manager/internal/domain"
	"church-manager/internal/feature/form"
	"church-manager/internal/feature/page"
	"church-manager/internal/repo"
	"church-manager/internal/transport/http/ez"
	"church-manager/internal/transport/http/handler"
)

func crumbs(c *gin.Context, section, href string, extra ...page.Breadcrumb) []page.Breadcrumb {
	out := []page.Breadcrumb{page.MustFrom(c).Home(), {Label: section, Href: href}}
	return append(out, extra...)
}

// ---------- 公共页面 ----------

func (h *Handler) landing(c *gin.Context) {
	ctx := c.Request.Context()
	page.MustFrom(c).Set("Bem-vindo", "Uma igreja para toda a família")

	now := time.Now().UTC()
	upcoming, err := h.Events.Store().List(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("type <> ? AND date >= ?", domain.EventTemplate, now).Limit(6)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ministries, err := repo.NewCrud[domain.Ministry](h.DB).List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.view(c, http.StatusOK, "landing.html", gin.H{"Events": upcoming, "Ministries": ministries})
}

func (h *Handler) loginForm(c *gin.Context) {
	page.MustFrom(c).Set("Entrar", "Acesso à área administrativa")
	h.view(c, http.StatusOK, "login.html", gin.H{"Next": c.Query("next")})
}

func (h *Handler) login(c *gin.Context) {
	page.MustFrom(c).Set("Entrar", "Acesso à área administrativa")
	next := c.PostForm("next")

	var cred domain.Credentials
	if err := c.ShouldBind(&cred); err != nil {
		h.view(c, http.StatusBadRequest, "login.html", gin.H{"Next": next, "Error": validation.Message(err), "Email": cred.Email})
		return
	}
	res, err := h.Users.Login(c.Request.Context(), cred)
	if err != nil {
		msg := "Erro interno"
		if e := handler.LoginErr(err); e != err {
			msg = e.Error()
		} else {
			_ = c.Error(err)
		}
		h.view(c, http.StatusUnauthorized, "login.html", gin.H{"Next": next, "Error": msg, "Email": cred.Email})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie, res.Token, int(h.TTL.Seconds()), "/", "", h.Secure, true)
	c.Redirect(http.StatusFound, safeNext(next))
}

func (h *Handler) logout(c *gin.Context) {
	c.SetCookie(h.Cookie, "", -1, "/", "", h.Secure, true)
	c.Redirect(http.StatusFound, "/")
}

// ---------- /app ----------

func (h *Handler) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	pc := page.MustFrom(c)
	pc.Set("Dashboard", "Visão geral da igreja", pc.Home())

	var members int64
	if err := h.DB.WithContext(ctx).Model(&domain.Member{}).Where("is_active = ?", true).Count(&members).Error; err != nil {
		h.fail(c, err)
		return
	}
	now := time.Now().UTC()
	upcoming, err := h.Events.Store().List(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("type <> ? AND date >= ?", domain.EventTemplate, now).Limit(5)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	y, m := domain.Period(now)
	sum, err := h.Finance.Summary(ctx, y, m)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.view(c, http.StatusOK, "dashboard.html", gin.H{
		"Members": members, "Events": upcoming, "Summary": sum, "User": c.GetString(auth.CtxUserID),
	})
}

func (h *Handler) memberStore() *repo.Crud[domain.Member, *domain.Member] {
	return repo.NewCrud[domain.Member](h.DB, repo.Preload("Ministries", func(q *gorm.DB) *gorm.DB { return q.Order("id") }))
}

func (h *Handler) members(c *gin.Context) {
	page.MustFrom(c).Set("Membros", "Cadastro de membros")
	var scope []repo.Scope
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		scope = append(scope, func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
		})
	}
	list, err := h.memberStore().List(c.Request.Context(), scope...)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.view(c, http.StatusOK, "members.html", gin.H{"Members": list, "Q": c.Query("q")})
}

// memberFormView 新建/编辑共用
func (h *Handler) memberFormView(c *gin.Context, status int, f form.MemberForm, errMsg string) {
	ministries, err := repo.NewCrud[domain.Ministry](h.DB).List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	functions, err := repo.NewCrud[domain.Function](h.DB).List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.view(c, status, "member_form.html", gin.H{
		"Form": f, "Error": errMsg, "Ministries": ministries, "Functions": functions,
		"Genders": domain.Genders, "Statuses": domain.MemberStatuses,
	})
}

func (h *Handler) memberNew(c *gin.Context) {
	page.MustFrom(c).Set("Novo membro", "", crumbs(c, "Membros", "/app/members", page.Breadcrumb{Label: "Novo"})...)
	h.memberFormView(c, http.StatusOK, form.Member(form.MemberRecord{}), "")
}

func (h *Handler) memberEdit(c *gin.Context) {
	m, err := h.memberStore().Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.Redirect(http.StatusFound, "/app/members")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	page.MustFrom(c).Set(m.Name, "Editar membro", crumbs(c, "Membros", "/app/members", page.Breadcrumb{Label: m.Name})...)
	h.memberFormView(c, http.StatusOK, form.Member(form.RecordOf(m)), "")
}

// bindMember HTML 表单 → 清洗后的表单
func bindMember(c *gin.Context) (form.MemberForm, error) {
	var f form.MemberForm
	if err := c.ShouldBind(&f); err != nil {
		return f, err
	}
	f.Ministries = form.Assignments(c.PostFormArray("ministryId"), c.PostFormArray("functionId"))
	return f.Normalize(), nil
}

func (h *Handler) memberCreate(c *gin.Context) {
	page.MustFrom(c).Set("Novo membro", "", crumbs(c, "Membros", "/app/members", page.Breadcrumb{Label: "Novo"})...)
	f, err := bindMember(c)
	if err == nil {
		in := f.Input()
		if err = binding.Validator.ValidateStruct(&in); err == nil {
			_, err = h.memberStore().Create(c.Request.Context(), in.Model())
		}
	}
	if err != nil {
		h.memberFormView(c, http.StatusBadRequest, f, validation.Message(err))
		return
	}
	h.invalidateMembers(c)
	c.Redirect(http.StatusFound, "/app/members")
}

// invalidateMembers 页面写成员后清掉 API 的成员列表缓存
func (h *Handler) invalidateMembers(c *gin.Context) { ez.Invalidate(c, h.Cache, "/members") }

func (h *Handler) memberUpdate(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	f, err := bindMember(c)
	f.ID = id
	page.MustFrom(c).Set(f.Name, "Editar membro", crumbs(c, "Membros", "/app/members", page.Breadcrumb{Label: f.Name})...)
	if err == nil {
		// 整表单提交，按新建规则校验；空字段写回（清空）
		in := f.Input()
		if err = binding.Validator.ValidateStruct(&in); err == nil {
			err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				if _, err := h.memberStore().WithDB(tx).Update(ctx, id, f.Changes()); err != nil {
					return err
				}
				return repo.ReplaceMemberMinistries(ctx, tx, id, in.Ministries)
			})
		}
	}
	if errors.Is(err, domain.ErrNotFound) {
		c.Redirect(http.StatusFound, "/app/members")
		return
	}
	if err != nil {
		h.memberFormView(c, http.StatusBadRequest, f, validation.Message(err))
		return
	}
	h.invalidateMembers(c)
	c.Redirect(http.StatusFound, "/app/members")
}

func (h *Handler) memberDelete(c *gin.Context) {
	_, err := h.memberStore().Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.fail(c, err)
		return
	}
	if err == nil {
		h.invalidateMembers(c)
	}
	c.Redirect(http.StatusFound, "/app/members")
}

func (h *Handler) ministries(c *gin.Context) {
	page.MustFrom(c).Set("Ministérios", "Ministérios e funções")
	ctx := c.Request.Context()
	list, err := repo.NewCrud[domain.Ministry](h.DB).List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	functions, err := repo.NewCrud[domain.Function](h.DB).List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.view(c, http.StatusOK, "ministries.html", gin.H{"Ministries": list, "Functions": functions})
}

func (h *Handler) events(c *gin.Context) {
	page.MustFrom(c).Set("Eventos", "")
	ctx := c.Request.Context()
	list, err := h.Events.Store().List(ctx, func(q *gorm.DB) *gorm.DB { return q.Where("type <> ?", domain.EventTemplate) })
	if err != nil {
		h.fail(c, err)
		return
	}
	templates, err := h.Events.Templates(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.view(c, http.StatusOK, "events.html", gin.H{"Events": list, "Templates": templates})
}

func (h *Handler) songs(c *gin.Context) {
	page.MustFrom(c).Set("Músicas", "Repertório do louvor")
	var scope []repo.Scope
	if cat, ok := domain.ParseSongCategory(c.Query("category")); ok {
		scope = append(scope, func(q *gorm.DB) *gorm.DB { return q.Where("category = ?", cat) })
	}
	list, err := repo.NewCrud[domain.Song](h.DB, repo.OrderBy("title")).List(c.Request.Context(), scope...)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.view(c, http.StatusOK, "songs.html", gin.H{"Songs": list, "Categories": domain.SongCategories, "Category": c.Query("category")})
}

func (h *Handler) finance(c *gin.Context) {
	page.MustFrom(c).Set("Finanças", "")
	ctx := c.Request.Context()
	y, m := domain.Period(time.Now())
	if t, err := time.Parse("2006-01", c.Query("period")); err == nil {
		y, m = domain.Period(t)
	}
	sum, err := h.Finance.Summary(ctx, y, m)
	if err != nil {
		h.fail(c, err)
		return
	}
	from, to := domain.MonthRange(y, m)
	occ, err := h.Finance.Occurrences(ctx, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.view(c, http.StatusOK, "finance.html", gin.H{"Summary": sum, "Occurrences": occ})
}

func (h *Handler) calls(c *gin.Context) {
	page.MustFrom(c).Set("Ligações", "Registro de chamadas")
	list, err := repo.NewCrud[domain.CallRecord](h.DB, repo.OrderBy("called_at DESC")).List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.view(c, http.StatusOK, "calls.html", gin.H{"Calls": list})
}
