package form

import (
	"strings"
	"time"
)

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func boolean(p *bool) bool { return p != nil && *p }

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// text 空串也下发（表示清空）
func text(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}

// when 零值日期视为缺省（HTML 表单空输入会绑定成零值）
func when(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return t
}
