package domain

import (
	"strings"
	"time"
)

type MemberStatus string

const (
	MemberActive      MemberStatus = "active"
	MemberInactive    MemberStatus = "inactive"
	MemberVisiting    MemberStatus = "visiting"
	MemberTransferred MemberStatus = "transferred"
)

var MemberStatuses = []MemberStatus{MemberActive, MemberInactive, MemberVisiting, MemberTransferred}

func ParseMemberStatus(s string) (MemberStatus, bool) { return parseEnum(s, MemberStatuses) }

// MemberStatusOr 未识别的值回落到 def
func MemberStatusOr(s string, def MemberStatus) MemberStatus { return enumOr(s, MemberStatuses, def) }

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

var Genders = []Gender{GenderMale, GenderFemale}

func ParseGender(s string) (Gender, bool)  { return parseEnum(s, Genders) }
func GenderOr(s string, def Gender) Gender { return enumOr(s, Genders, def) }

type Member struct {
	Base
	Name        string           `gorm:"size:128;not null;index" json:"name"`
	Email       string           `gorm:"size:191" json:"email"`
	Phone       string           `gorm:"size:32" json:"phone"`
	Gender      Gender           `gorm:"size:1" json:"gender"`
	BirthDate   *time.Time       `json:"birthDate"`
	Address     string           `gorm:"size:255" json:"address"`
	Status      MemberStatus     `gorm:"size:16;not null;default:active;index" json:"status"`
	IsBaptized  bool             `gorm:"not null;default:false" json:"isBaptized"`
	BaptismDate *time.Time       `json:"baptismDate"`
	JoinDate    *time.Time       `json:"joinDate"`
	Notes       string           `gorm:"type:text" json:"notes"`
	Ministries  []MemberMinistry `gorm:"foreignKey:MemberID" json:"ministries"`
}

func (Member) TableName() string { return "members" }

// MemberMinistry 成员 ↔ 事工 关联（可选职能）
type MemberMinistry struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	MemberID   string    `gorm:"size:36;not null;index" json:"memberId"`
	MinistryID string    `gorm:"size:36;not null;index" json:"ministryId"`
	FunctionID *string   `gorm:"size:36" json:"functionId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (MemberMinistry) TableName() string { return "member_ministries" }

type MinistryLink struct {
	MinistryID string  `json:"ministryId" binding:"required"`
	FunctionID *string `json:"functionId"`
}

func linksToRows(links []MinistryLink) []MemberMinistry {
	rows := make([]MemberMinistry, 0, len(links))
	for _, l := range links {
		rows = append(rows, MemberMinistry{
			MinistryID: strings.TrimSpace(l.MinistryID),
			FunctionID: emptyToNil(l.FunctionID),
		})
	}
	return rows
}

// MinistryRows 供替换关联时使用
func MinistryRows(memberID string, links []MinistryLink) []MemberMinistry {
	rows := linksToRows(links)
	for i := range rows {
		rows[i].MemberID = memberID
	}
	return rows
}

type MemberCreate struct {
	Name        string         `json:"name" binding:"required,notblank,min=2,max=128"`
	Email       string         `json:"email" binding:"omitempty,email,max=191"`
	Phone       string         `json:"phone" binding:"omitempty,max=32"`
	Gender      string         `json:"gender" binding:"omitempty,oneof=M F"`
	BirthDate   *time.Time     `json:"birthDate"`
	Address     string         `json:"address" binding:"omitempty,max=255"`
	Status      string         `json:"status" binding:"omitempty,oneof=active inactive visiting transferred"`
	IsBaptized  bool           `json:"isBaptized"`
	BaptismDate *time.Time     `json:"baptismDate"`
	JoinDate    *time.Time     `json:"joinDate"`
	Notes       string         `json:"notes"`
	Ministries  []MinistryLink `json:"ministries" binding:"omitempty,dive"`
}

func (in *MemberCreate) Model() *Member {
	return &Member{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Gender:      GenderOr(in.Gender, ""),
		BirthDate:   in.BirthDate,
		Address:     strings.TrimSpace(in.Address),
		Status:      MemberStatusOr(in.Status, MemberActive),
		IsBaptized:  in.IsBaptized,
		BaptismDate: in.BaptismDate,
		JoinDate:    in.JoinDate,
		Notes:       in.Notes,
		Ministries:  linksToRows(in.Ministries),
	}
}

type MemberPatch struct {
	Name        *string        `json:"name" binding:"omitempty,notblank,min=2,max=128"`
	Email       *string        `json:"email" binding:"omitempty,email_or_empty,max=191"`
	Phone       *string        `json:"phone" binding:"omitempty,max=32"`
	Gender      *string        `json:"gender" binding:"omitempty,oneof=M F"`
	BirthDate   *time.Time     `json:"birthDate"`
	Address     *string        `json:"address" binding:"omitempty,max=255"`
	Status      *string        `json:"status" binding:"omitempty,oneof=active inactive visiting transferred"`
	IsBaptized  *bool          `json:"isBaptized"`
	BaptismDate *time.Time     `json:"baptismDate"`
	JoinDate    *time.Time     `json:"joinDate"`
	Notes       *string        `json:"notes"`
	Ministries  []MinistryLink `json:"ministries" binding:"omitempty,dive"`
}

func (p *MemberPatch) Changes() map[string]any {
	m := map[string]any{}
	setIf(m, "name", trimPtr(p.Name))
	setIf(m, "email", trimPtr(p.Email))
	setIf(m, "phone", trimPtr(p.Phone))
	setIf(m, "gender", trimPtr(p.Gender))
	setIf(m, "address", trimPtr(p.Address))
	setIf(m, "status", trimPtr(p.Status))
	setIf(m, "is_baptized", p.IsBaptized)
	setIf(m, "notes", p.Notes)
	if p.BirthDate != nil {
		m["birth_date"] = *p.BirthDate
	}
	if p.BaptismDate != nil {
		m["baptism_date"] = *p.BaptismDate
	}
	if p.JoinDate != nil {
		m["join_date"] = *p.JoinDate
	}
	return m
}
