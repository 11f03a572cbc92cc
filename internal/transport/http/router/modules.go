package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"church-manager/internal/core/auth"
	"church-manager/internal/domain"
	"church-manager/internal/feature/form"
	"church-manager/internal/repo"
	"church-manager/internal/service"
	"church-manager/internal/transport/http/ez"
	"church-manager/internal/transport/http/handler"
)

func byID(q *gorm.DB) *gorm.DB { return q.Order("id") }

// ---------- 成员 ----------

type memberModule struct{ d Deps }

func memberScope(c *gin.Context) (repo.Scope, error) {
	var ss []repo.Scope
	if v := c.Query("status"); v != "" {
		st, ok := domain.ParseMemberStatus(v)
		if !ok {
			return nil, ez.BadRequest("status: must be one of [active inactive visiting transferred]")
		}
		ss = append(ss, eq("status", st))
	}
	if v := strings.TrimSpace(c.Query("q")); v != "" {
		ss = append(ss, like("name", v))
	}
	if v := strings.TrimSpace(c.Query("ministryId")); v != "" {
		ss = append(ss, func(q *gorm.DB) *gorm.DB {
			return q.Where("id IN (?)", q.Session(&gorm.Session{NewDB: true}).
				Model(&domain.MemberMinistry{}).Select("member_id").Where("ministry_id = ?", v))
		})
	}
	return scopes(ss), nil
}

func (m memberModule) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)
	store := repo.NewCrud[domain.Member](m.d.DB, repo.Preload("Ministries", byID))

	ez.Crud(e, ez.CrudConfig[domain.Member, domain.MemberCreate, domain.MemberPatch]{
		Store:   store,
		Path:    "/members",
		Build:   (*domain.MemberCreate).Model,
		Changes: (*domain.MemberPatch).Changes,
		Hooks: ez.CrudHooks[domain.Member, domain.MemberCreate, domain.MemberPatch]{
			Scope: memberScope,
			// ministries 提供了就整体替换（[] 表示清空）
			AfterUpdate: func(c *gin.Context, tx *gorm.DB, mem *domain.Member, in *domain.MemberPatch) error {
				if in.Ministries == nil {
					return nil
				}
				return repo.ReplaceMemberMinistries(c.Request.Context(), tx, mem.ID, in.Ministries)
			},
		},
		DB:       m.d.DB,
		Bind:     func(tx *gorm.DB) ez.Store[domain.Member] { return store.WithDB(tx) },
		Cache:    m.d.Cache,
		CacheTTL: m.d.cacheTTL,
	})

	// 表单形状（已清洗），编辑页直接用
	ez.RegisterAction(e, nil, ez.Action[struct{}, form.MemberForm]{
		Method: http.MethodGet,
		Path:   "/members/:id/form",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (form.MemberForm, error) {
			mem, err := store.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return form.MemberForm{}, err
			}
			return form.Member(form.RecordOf(mem)), nil
		},
	})
}

// ---------- 事工 / 职能 ----------

type ministryModule struct{ d Deps }

func (m ministryModule) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)
	ez.Crud(e, ez.CrudConfig[domain.Ministry, domain.MinistryCreate, domain.MinistryPatch]{
		Store:    repo.NewCrud[domain.Ministry](m.d.DB),
		Path:     "/ministries",
		Build:    (*domain.MinistryCreate).Model,
		Changes:  (*domain.MinistryPatch).Changes,
		Cache:    m.d.Cache,
		CacheTTL: m.d.cacheTTL,
	})

	ez.Crud(e, ez.CrudConfig[domain.Function, domain.FunctionCreate, domain.FunctionPatch]{
		Store:   repo.NewCrud[domain.Function](m.d.DB),
		Path:    "/functions",
		Build:   (*domain.FunctionCreate).Model,
		Changes: (*domain.FunctionPatch).Changes,
		Hooks: ez.CrudHooks[domain.Function, domain.FunctionCreate, domain.FunctionPatch]{
			Scope: func(c *gin.Context) (repo.Scope, error) {
				if v := strings.TrimSpace(c.Query("ministryId")); v != "" {
					return eq("ministry_id", v), nil
				}
				return nil, nil
			},
		},
		Cache:    m.d.Cache,
		CacheTTL: m.d.cacheTTL,
	})
}

// ---------- 活动 / 模板 / 歌单 ----------

type eventModule struct{ d Deps }

func eventScope(c *gin.Context) (repo.Scope, error) {
	var ss []repo.Scope
	if v := c.Query("type"); v != "" {
		t, ok := domain.ParseEventType(v)
		if !ok {
			return nil, ez.BadRequest("type: must be one of [service rehearsal meeting conference special]")
		}
		ss = append(ss, eq("type", t))
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return nil, err
	}
	if from != nil {
		ss = append(ss, func(q *gorm.DB) *gorm.DB { return q.Where("date >= ?", *from) })
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return nil, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		ss = append(ss, func(q *gorm.DB) *gorm.DB { return q.Where("date < ?", end) })
	}
	if v := strings.TrimSpace(c.Query("q")); v != "" {
		ss = append(ss, like("title", v))
	}
	return scopes(ss), nil
}

func (m eventModule) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g)
	svc := m.d.Events

	ez.Crud(e, ez.CrudConfig[domain.Event, domain.EventCreate, domain.EventPatch]{
		Store:   svc.Store(),
		Path:    "/events",
		Build:   (*domain.EventCreate).Model,
		Changes: (*domain.EventPatch).Changes,
		Where:   func(q *gorm.DB) *gorm.DB { return q.Where("type <> ?", domain.EventTemplate) },
		Hooks: ez.CrudHooks[domain.Event, domain.EventCreate, domain.EventPatch]{
			Scope: eventScope,
			AfterUpdate: func(c *gin.Context, tx *gorm.DB, ev *domain.Event, in *domain.EventPatch) error {
				ctx := c.Request.Context()
				if in.Songs != nil {
					if err := repo.ReplaceEventSongs(ctx, tx, ev.ID, in.Songs); err != nil {
						return err
					}
				}
				if in.Participants != nil {
					return repo.ReplaceEventParticipants(ctx, tx, ev.ID, in.Participants)
				}
				return nil
			},
		},
		DB:       m.d.DB,
		Bind:     func(tx *gorm.DB) ez.Store[domain.Event] { return svc.Store().WithDB(tx) },
		Cache:    m.d.Cache,
		CacheTTL: m.d.cacheTTL,
	})

	ez.RegisterAction(e, nil, ez.Action[struct{}, []domain.Event]{
		Method: http.MethodGet,
		Path:   "/event-templates",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) ([]domain.Event, error) {
			return svc.Templates(c.Request.Context())
		},
	})

	// 复制活动 / 由模板生成 / 另存为模板
	ez.RegisterAction(e, nil, ez.Action[domain.EventDuplicate, *domain.Event]{
		Method: http.MethodPost,
		Path:   "/events/:id/duplicate",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *domain.EventDuplicate) (*domain.Event, error) {
			ev, err := svc.Duplicate(c.Request.Context(), c.Param("id"), *in)
			if err != nil {
				return nil, err
			}
			ez.Invalidate(c, m.d.Cache, "/events")
			return ev, nil
		},
	})

	type setlistIn struct {
		Songs []domain.SetlistItem `json:"songs" binding:"dive"`
	}
	ez.RegisterAction(e, nil, ez.Action[setlistIn, *domain.Event]{
		Method: http.MethodPut,
		Path:   "/events/:id/songs",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *setlistIn) (*domain.Event, error) {
			ev, err := svc.SetSongs(c.Request.Context(), c.Param("id"), in.Songs)
			if err != nil {
				return nil, err
			}
			ez.Invalidate(c, m.d.Cache, "/events")
			return ev, nil
		},
	})

	type participantsIn struct {
		Participants []domain.ParticipantItem `json:"participants" binding:"dive"`
	}
	ez.RegisterAction(e, nil, ez.Action[participantsIn, *domain.Event]{
		Method: http.MethodPut,
		Path:   "/events/:id/participants",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *participantsIn) (*domain.Event, error) {
			ev, err := svc.SetParticipants(c.Request.Context(), c.Param("id"), in.Participants)
			if err != nil {
				return nil, err
			}
			ez.Invalidate(c, m.d.Cache, "/events")
			return ev, nil
		},
	})
}

// ---------- 诗歌 ----------

type songModule struct{ d Deps }

func (m songModule) MountAPI(g *gin.RouterGroup) {
	ez.Crud(ez.New(g), ez.CrudConfig[domain.Song, domain.SongCreate, domain.SongPatch]{
		Store:   repo.NewCrud[domain.Song](m.d.DB, repo.OrderBy("title")),
		Path:    "/songs",
		Build:   (*domain.SongCreate).Model,
		Changes: (*domain.SongPatch).Changes,
		Hooks: ez.CrudHooks[domain.Song, domain.SongCreate, domain.SongPatch]{
			Scope: func(c *gin.Context) (repo.Scope, error) {
				var ss []repo.Scope
				if v := c.Query("category"); v != "" {
					cat, ok := domain.ParseSongCategory(v)
					if !ok {
						return nil, ez.BadRequest("category: must be one of [worship praise hymn offering communion other]")
					}
					ss = append(ss, eq("category", cat))
				}
				if v := strings.TrimSpace(c.Query("q")); v != "" {
					ss = append(ss, like("title", v))
				}
				return scopes(ss), nil
			},
		},
		Cache:    m.d.Cache,
		CacheTTL: m.d.cacheTTL,
	})
}

// ---------- 财务 ----------

type financeModule struct{ d Deps }

func (m financeModule) MountAPI(g *gin.RouterGroup) {
	fin := m.d.Finance
	e := ez.New(g.Group("/finance"))

	ez.Crud(e, ez.CrudConfig[domain.FinancialCategory, domain.CategoryCreate, domain.CategoryPatch]{
		Store:    repo.NewCrud[domain.FinancialCategory](m.d.DB),
		Path:     "/categories",
		Build:    (*domain.CategoryCreate).Model,
		Changes:  (*domain.CategoryPatch).Changes,
		Cache:    m.d.Cache,
		CacheTTL: m.d.cacheTTL,
	})

	// 已月结的月份不允许增删改
	ez.Crud(e, ez.CrudConfig[domain.Transaction, domain.TransactionCreate, domain.TransactionPatch]{
		Store:   repo.NewCrud[domain.Transaction](m.d.DB, repo.OrderBy("date")),
		Path:    "/transactions",
		Build:   (*domain.TransactionCreate).Model,
		Changes: (*domain.TransactionPatch).Changes,
		Hooks: ez.CrudHooks[domain.Transaction, domain.TransactionCreate, domain.TransactionPatch]{
			Scope: transactionScope,
			BeforeCreate: func(c *gin.Context, _ *domain.TransactionCreate, t *domain.Transaction) error {
				return fin.CheckTransaction(c.Request.Context(), *t)
			},
			// 改前改后都不能碰到已月结的月份
			BeforeUpdate: func(c *gin.Context, cur *domain.Transaction, in *domain.TransactionPatch) error {
				if err := fin.CheckTransaction(c.Request.Context(), *cur); err != nil {
					return err
				}
				return fin.CheckTransaction(c.Request.Context(), in.Apply(*cur))
			},
			BeforeDelete: func(c *gin.Context, cur *domain.Transaction) error {
				return fin.CheckTransaction(c.Request.Context(), *cur)
			},
		},
		Cache:    m.d.Cache,
		CacheTTL: m.d.cacheTTL,
	})

	ez.Crud(e, ez.CrudConfig[domain.Budget, domain.BudgetCreate, domain.BudgetPatch]{
		Store:   repo.NewCrud[domain.Budget](m.d.DB, repo.OrderBy("year DESC, month DESC, category_id")),
		Path:    "/budgets",
		Build:   (*domain.BudgetCreate).Model,
		Changes: (*domain.BudgetPatch).Changes,
		Hooks: ez.CrudHooks[domain.Budget, domain.BudgetCreate, domain.BudgetPatch]{
			Scope: func(c *gin.Context) (repo.Scope, error) {
				var ss []repo.Scope
				if y, ok, err := queryInt(c, "year", 2000, 2100); err != nil {
					return nil, err
				} else if ok {
					ss = append(ss, eq("year", y))
				}
				if mo, ok, err := queryInt(c, "month", 1, 12); err != nil {
					return nil, err
				} else if ok {
					ss = append(ss, eq("month", mo))
				}
				return scopes(ss), nil
			},
			BeforeCreate: func(c *gin.Context, _ *domain.BudgetCreate, b *domain.Budget) error {
				return fin.CheckBudgetOpen(c.Request.Context(), b.Year, b.Month)
			},
			BeforeUpdate: func(c *gin.Context, cur *domain.Budget, _ *domain.BudgetPatch) error {
				return fin.CheckBudgetOpen(c.Request.Context(), cur.Year, cur.Month)
			},
			BeforeDelete: func(c *gin.Context, cur *domain.Budget) error {
				return fin.CheckBudgetOpen(c.Request.Context(), cur.Year, cur.Month)
			},
		},
		Cache:    m.d.Cache,
		CacheTTL: m.d.cacheTTL,
	})

	// 月结
	ez.RegisterAction(e, nil, ez.Action[struct{}, []domain.Closure]{
		Method: http.MethodGet,
		Path:   "/closures",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) ([]domain.Closure, error) {
			return fin.Closures(c.Request.Context())
		},
	})
	ez.RegisterAction(e, nil, ez.Action[domain.ClosureCreate, *domain.Closure]{
		Method: http.MethodPost,
		Path:   "/closures",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *domain.ClosureCreate) (*domain.Closure, error) {
			return fin.Close(c.Request.Context(), in.Year, in.Month, c.GetString(auth.CtxUserID))
		},
	})
	ez.RegisterAction(e, nil, ez.Action[struct{}, *domain.Closure]{
		Method: http.MethodDelete,
		Path:   "/closures/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.Closure, error) {
			return fin.Reopen(c.Request.Context(), c.Param("id"))
		},
	})

	type periodQ struct {
		Year  int `form:"year" binding:"required,min=2000,max=2100"`
		Month int `form:"month" binding:"required,min=1,max=12"`
	}
	ez.RegisterAction(e, nil, ez.Action[periodQ, *service.Summary]{
		Method: http.MethodGet,
		Path:   "/summary",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *periodQ) (*service.Summary, error) {
			return fin.Summary(c.Request.Context(), in.Year, in.Month)
		},
	})

	type rangeQ struct {
		From time.Time `form:"from" time_format:"2006-01-02" time_utc:"1" binding:"required"`
		To   time.Time `form:"to" time_format:"2006-01-02" time_utc:"1" binding:"required"`
	}
	// to 含当天
	ez.RegisterAction(e, nil, ez.Action[rangeQ, []service.Occurrence]{
		Method: http.MethodGet,
		Path:   "/occurrences",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ *gorm.DB, in *rangeQ) ([]service.Occurrence, error) {
			if in.To.Sub(in.From) > 366*24*time.Hour {
				return nil, ez.BadRequest("range: at most one year")
			}
			return fin.Occurrences(c.Request.Context(), in.From, in.To.AddDate(0, 0, 1))
		},
	})
}

func transactionScope(c *gin.Context) (repo.Scope, error) {
	var ss []repo.Scope
	if v := c.Query("type"); v != "" {
		t, ok := domain.ParseTransactionType(v)
		if !ok {
			return nil, ez.BadRequest("type: must be one of [income expense transfer]")
		}
		ss = append(ss, eq("type", t))
	}
	if v := strings.TrimSpace(c.Query("categoryId")); v != "" {
		ss = append(ss, eq("category_id", v))
	}
	if v := strings.TrimSpace(c.Query("memberId")); v != "" {
		ss = append(ss, eq("member_id", v))
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return nil, err
	}
	if from != nil {
		ss = append(ss, func(q *gorm.DB) *gorm.DB { return q.Where("date >= ?", *from) })
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return nil, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		ss = append(ss, func(q *gorm.DB) *gorm.DB { return q.Where("date < ?", end) })
	}
	return scopes(ss), nil
}

// ---------- 通话记录 ----------

type callModule struct{ d Deps }

func (m callModule) MountAPI(g *gin.RouterGroup) {
	ez.Crud(ez.New(g), ez.CrudConfig[domain.CallRecord, domain.CallCreate, domain.CallPatch]{
		Store:   repo.NewCrud[domain.CallRecord](m.d.DB, repo.OrderBy("called_at DESC")),
		Path:    "/calls",
		Build:   (*domain.CallCreate).Model,
		Changes: (*domain.CallPatch).Changes,
		Hooks: ez.CrudHooks[domain.CallRecord, domain.CallCreate, domain.CallPatch]{
			Scope: func(c *gin.Context) (repo.Scope, error) {
				var ss []repo.Scope
				if v := strings.TrimSpace(c.Query("memberId")); v != "" {
					ss = append(ss, eq("member_id", v))
				}
				if v := c.Query("direction"); v != "" {
					d, ok := domain.ParseCallDirection(v)
					if !ok {
						return nil, ez.BadRequest("direction: must be one of [inbound outbound]")
					}
					ss = append(ss, eq("direction", d))
				}
				return scopes(ss), nil
			},
		},
		Cache:    m.d.Cache,
		CacheTTL: m.d.cacheTTL,
	})
}

// ---------- 登录 / 当前用户 / 管理端用户 ----------

type authModule struct {
	h *handler.AuthHandler
}

func (m authModule) Priority() int               { return 10 }
func (m authModule) MountAPI(g *gin.RouterGroup) { m.h.Mount(g) }

type userAdminModule struct {
	h *handler.UserHandler
}

func (m userAdminModule) MountAdmin(g *gin.RouterGroup) { m.h.Mount(g) }
