// Package form 把 API 载荷（可空、可能含未知枚举值）整理成表单可直接使用的形状。
// 规则：null 一律视为缺省（零值），未识别的枚举值回落到默认值，布尔缺省为 false，
// 嵌套列表只保留表单需要的字段。所有 Normalize 都是幂等的。
package form

import (
	"strings"
	"time"

	"church-manager/internal/domain"
)

type MinistryRecord struct {
	MinistryID   *string    `json:"ministryId"`
	FunctionID   *string    `json:"functionId"`
	MinistryName *string    `json:"ministryName"`
	FunctionName *string    `json:"functionName"`
	JoinedAt     *time.Time `json:"joinedAt"`
}

// MemberRecord 接口返回的成员载荷
type MemberRecord struct {
	ID          *string          `json:"id"`
	Name        *string          `json:"name"`
	Email       *string          `json:"email"`
	Phone       *string          `json:"phone"`
	Gender      *string          `json:"gender"`
	BirthDate   *time.Time       `json:"birthDate"`
	Address     *string          `json:"address"`
	Status      *string          `json:"status"`
	IsBaptized  *bool            `json:"isBaptized"`
	BaptismDate *time.Time       `json:"baptismDate"`
	JoinDate    *time.Time       `json:"joinDate"`
	Notes       *string          `json:"notes"`
	Ministries  []MinistryRecord `json:"ministries"`
}

type MinistryAssignment struct {
	MinistryID string `json:"ministryId" form:"ministryId"`
	FunctionID string `json:"functionId,omitempty" form:"functionId"`
}

type MemberForm struct {
	ID          string               `json:"id,omitempty" form:"id"`
	Name        string               `json:"name" form:"name"`
	Email       string               `json:"email,omitempty" form:"email"`
	Phone       string               `json:"phone,omitempty" form:"phone"`
	Gender      domain.Gender        `json:"gender" form:"gender"`
	BirthDate   *time.Time           `json:"birthDate,omitempty" form:"birthDate" time_format:"2006-01-02"`
	Address     string               `json:"address,omitempty" form:"address"`
	Status      domain.MemberStatus  `json:"status" form:"status"`
	IsBaptized  bool                 `json:"isBaptized" form:"isBaptized"`
	BaptismDate *time.Time           `json:"baptismDate,omitempty" form:"baptismDate" time_format:"2006-01-02"`
	JoinDate    *time.Time           `json:"joinDate,omitempty" form:"joinDate" time_format:"2006-01-02"`
	Notes       string               `json:"notes,omitempty" form:"notes"`
	Ministries  []MinistryAssignment `json:"ministries" form:"-"`
}

// Member 载荷 → 表单
func Member(rec MemberRecord) MemberForm {
	f := MemberForm{
		ID:          str(rec.ID),
		Name:        str(rec.Name),
		Email:       str(rec.Email),
		Phone:       str(rec.Phone),
		Gender:      domain.Gender(str(rec.Gender)),
		BirthDate:   rec.BirthDate,
		Address:     str(rec.Address),
		Status:      domain.MemberStatus(str(rec.Status)),
		IsBaptized:  boolean(rec.IsBaptized),
		BaptismDate: rec.BaptismDate,
		JoinDate:    rec.JoinDate,
		Notes:       str(rec.Notes),
	}
	for _, m := range rec.Ministries {
		f.Ministries = append(f.Ministries, MinistryAssignment{
			MinistryID: str(m.MinistryID),
			FunctionID: str(m.FunctionID),
		})
	}
	return f.Normalize()
}

// RecordOf 模型 → 载荷形状，页面编辑时复用同一套整理规则
func RecordOf(m *domain.Member) MemberRecord {
	rec := MemberRecord{
		ID:          &m.ID,
		Name:        &m.Name,
		Email:       &m.Email,
		Phone:       &m.Phone,
		Address:     &m.Address,
		BirthDate:   m.BirthDate,
		IsBaptized:  &m.IsBaptized,
		BaptismDate: m.BaptismDate,
		JoinDate:    m.JoinDate,
		Notes:       &m.Notes,
	}
	g, s := string(m.Gender), string(m.Status)
	rec.Gender, rec.Status = &g, &s
	for _, mm := range m.Ministries {
		rec.Ministries = append(rec.Ministries, MinistryRecord{MinistryID: &mm.MinistryID, FunctionID: mm.FunctionID})
	}
	return rec
}

func (f MemberForm) Normalize() MemberForm {
	f.ID = strings.TrimSpace(f.ID)
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.Gender = domain.GenderOr(string(f.Gender), "")
	f.Status = domain.MemberStatusOr(string(f.Status), domain.MemberActive)
	f.BirthDate, f.BaptismDate, f.JoinDate = when(f.BirthDate), when(f.BaptismDate), when(f.JoinDate)

	links := make([]MinistryAssignment, 0, len(f.Ministries))
	for _, a := range f.Ministries {
		a.MinistryID = strings.TrimSpace(a.MinistryID)
		a.FunctionID = strings.TrimSpace(a.FunctionID)
		if a.MinistryID == "" {
			continue
		}
		links = append(links, a)
	}
	f.Ministries = links
	return f
}

// Assignments HTML 表单里并列的 ministryId[] / functionId[]
func Assignments(ministryIDs, functionIDs []string) []MinistryAssignment {
	out := make([]MinistryAssignment, 0, len(ministryIDs))
	for i, mid := range ministryIDs {
		a := MinistryAssignment{MinistryID: mid}
		if i < len(functionIDs) {
			a.FunctionID = functionIDs[i]
		}
		out = append(out, a)
	}
	return out
}

func (f MemberForm) links() []domain.MinistryLink {
	out := make([]domain.MinistryLink, 0, len(f.Ministries))
	for _, a := range f.Ministries {
		out = append(out, domain.MinistryLink{MinistryID: a.MinistryID, FunctionID: optional(a.FunctionID)})
	}
	return out
}

// Input 表单 → 新建入参
func (f MemberForm) Input() domain.MemberCreate {
	f = f.Normalize()
	return domain.MemberCreate{
		Name:        f.Name,
		Email:       f.Email,
		Phone:       f.Phone,
		Gender:      string(f.Gender),
		BirthDate:   f.BirthDate,
		Address:     f.Address,
		Status:      string(f.Status),
		IsBaptized:  f.IsBaptized,
		BaptismDate: f.BaptismDate,
		JoinDate:    f.JoinDate,
		Notes:       f.Notes,
		Ministries:  f.links(),
	}
}

// Patch 表单 → 更新入参；整表单提交，文本字段留空即清空，只有 name 缺省时保持原值
func (f MemberForm) Patch() domain.MemberPatch {
	f = f.Normalize()
	baptized := f.IsBaptized
	status := string(f.Status)
	return domain.MemberPatch{
		Name:        optional(f.Name),
		Email:       text(f.Email),
		Phone:       text(f.Phone),
		Gender:      text(string(f.Gender)),
		BirthDate:   f.BirthDate,
		Address:     text(f.Address),
		Status:      &status,
		IsBaptized:  &baptized,
		BaptismDate: f.BaptismDate,
		JoinDate:    f.JoinDate,
		Notes:       text(f.Notes),
		Ministries:  f.links(),
	}
}

// Changes 更新的列；表单里留空的日期写 NULL
func (f MemberForm) Changes() map[string]any {
	f = f.Normalize()
	p := f.Patch()
	m := p.Changes()
	for col, d := range map[string]*time.Time{
		"birth_date":   f.BirthDate,
		"baptism_date": f.BaptismDate,
		"join_date":    f.JoinDate,
	} {
		if d == nil {
			m[col] = nil
		}
	}
	return m
}
