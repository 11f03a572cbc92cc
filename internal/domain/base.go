package domain

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"church-manager/pkg/utils"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrClosedPeriod = errors.New("financial period is closed")
	ErrInactive     = errors.New("record is inactive")
)

// Base 所有实体共用：字符串主键 + 软删标记（is_active），不做物理删除
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) Meta() *Base { return b }

func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = utils.NewID()
	}
	return nil
}

// Lifecycle 软删两态：Active → Inactive
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleInactive Lifecycle = "inactive"
)

func (b Base) Lifecycle() Lifecycle {
	if b.IsActive {
		return LifecycleActive
	}
	return LifecycleInactive
}

// Patch 更新入参：只返回调用方显式提供的列
type Patch interface {
	Changes() map[string]any
}

func parseEnum[E ~string](s string, set []E) (E, bool) {
	s = strings.TrimSpace(s)
	for _, v := range set {
		if string(v) == s {
			return v, true
		}
	}
	var zero E
	return zero, false
}

func enumOr[E ~string](s string, set []E, def E) E {
	if v, ok := parseEnum(s, set); ok {
		return v
	}
	return def
}

func setIf[V any](m map[string]any, col string, v *V) {
	if v != nil {
		m[col] = *v
	}
}

// setNullable 空字符串写 NULL，用于可选外键
func setNullable(m map[string]any, col string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		m[col] = s
	} else {
		m[col] = nil
	}
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

func emptyToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}
