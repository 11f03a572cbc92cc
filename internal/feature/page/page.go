// Package page 维护当前页面的描述（标题 / 副标题 / 面包屑），
// 页面处理器写入，共享页头读取。每个请求一个 Container，不跨会话保留数据。
package page

import (
	"errors"
	"slices"
)

const (
	DefaultHomeLabel = "Igrela Central VCP"
	HomeHref         = "/app"
)

// ErrNoContainer 在页面作用域之外读取描述属于编程错误
var ErrNoContainer = errors.New("page: no page container in scope; mount page.Middleware")

type Breadcrumb struct {
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}

type Info struct {
	Title       string       `json:"title"`
	Subtitle    string       `json:"subtitle,omitempty"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
}

// Default 尚未有页面声明时的固定描述
func Default() Info { return defaultInfo(home(DefaultHomeLabel)) }

func defaultInfo(h Breadcrumb) Info {
	return Info{Title: "Dashboard", Breadcrumbs: []Breadcrumb{h}}
}

func home(label string) Breadcrumb {
	if label == "" {
		label = DefaultHomeLabel
	}
	return Breadcrumb{Label: label, Href: HomeHref}
}

// Equal 逐字段比较，面包屑按结构比较
func Equal(a, b Info) bool {
	return a.Title == b.Title && a.Subtitle == b.Subtitle && slices.Equal(a.Breadcrumbs, b.Breadcrumbs)
}

func (i Info) clone() Info {
	i.Breadcrumbs = slices.Clone(i.Breadcrumbs)
	return i
}

// Container 单一所有者、同步更新，不支持并发写
type Container struct {
	home    Breadcrumb
	info    Info
	version uint64
	subs    map[int]func(Info)
	nextSub int
}

func New() *Container { return NewWithHome("") }

// NewWithHome 首页面包屑用站点名（空则用默认名）
func NewWithHome(label string) *Container {
	h := home(label)
	return &Container{home: h, info: defaultInfo(h), subs: map[int]func(Info){}}
}

// Home 首页面包屑
func (c *Container) Home() Breadcrumb { return c.home }

// Set 替换当前描述；未给面包屑时生成 [首页, title]。
// 内容与当前一致时不做任何状态变更，也不通知订阅者，返回 false。
func (c *Container) Set(title, subtitle string, crumbs ...Breadcrumb) bool {
	next := Info{Title: title, Subtitle: subtitle, Breadcrumbs: slices.Clone(crumbs)}
	if len(next.Breadcrumbs) == 0 {
		next.Breadcrumbs = []Breadcrumb{c.home, {Label: title}}
	}
	if Equal(c.info, next) {
		return false
	}
	c.info = next
	c.version++
	for _, id := range c.subIDs() {
		if fn, ok := c.subs[id]; ok {
			fn(next.clone())
		}
	}
	return true
}

// Info 返回副本，调用方修改不影响容器
func (c *Container) Info() Info { return c.info.clone() }

// Version 每次真实变更加一，用于判断是否需要重绘
func (c *Container) Version() uint64 { return c.version }

// Subscribe 注册变更回调，返回取消函数
func (c *Container) Subscribe(fn func(Info)) func() {
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() { delete(c.subs, id) }
}

// 按注册顺序通知
func (c *Container) subIDs() []int {
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
