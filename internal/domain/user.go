package domain

import "strings"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 后台登录账号，可关联成员；email 唯一
type User struct {
	Base
	MemberID     *string `gorm:"size:36;index" json:"memberId"`
	Email        string  `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string  `gorm:"size:100;not null" json:"-"`
	IsAdmin      bool    `gorm:"not null;default:false" json:"isAdmin"`
}

func (User) TableName() string { return "users" }

func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

type UserCreate struct {
	MemberID *string `json:"memberId"`
	Email    string  `json:"email" binding:"required,email,max=191"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
	IsAdmin  bool    `json:"isAdmin"`
}

type UserPatch struct {
	MemberID *string `json:"memberId"`
	Email    *string `json:"email" binding:"omitempty,email,max=191"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	IsAdmin  *bool   `json:"isAdmin"`
	IsActive *bool   `json:"isActive"`
}

// Changes 不含密码，密码由服务层单独哈希
func (p *UserPatch) Changes() map[string]any {
	m := map[string]any{}
	setNullable(m, "member_id", p.MemberID)
	if p.Email != nil {
		m["email"] = NormalizeEmail(*p.Email)
	}
	setIf(m, "is_admin", p.IsAdmin)
	setIf(m, "is_active", p.IsActive)
	return m
}

type Credentials struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
