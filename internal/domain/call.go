package domain

import (
	"strings"
	"time"
)

type CallDirection string

const (
	CallInbound  CallDirection = "inbound"
	CallOutbound CallDirection = "outbound"
)

var CallDirections = []CallDirection{CallInbound, CallOutbound}

func ParseCallDirection(s string) (CallDirection, bool)         { return parseEnum(s, CallDirections) }
func CallDirectionOr(s string, def CallDirection) CallDirection { return enumOr(s, CallDirections, def) }

// CallRecord 电话/来电记录（牧养跟进用）
type CallRecord struct {
	Base
	MemberID    *string       `gorm:"size:36;index" json:"memberId"`
	Direction   CallDirection `gorm:"size:16;not null" json:"direction"`
	Phone       string        `gorm:"size:32;not null" json:"phone"`
	DurationSec int           `gorm:"not null;default:0" json:"durationSec"`
	Notes       string        `gorm:"type:text" json:"notes"`
	CalledAt    time.Time     `gorm:"index" json:"calledAt"`
}

func (CallRecord) TableName() string { return "call_records" }

type CallCreate struct {
	MemberID    *string   `json:"memberId"`
	Direction   string    `json:"direction" binding:"required,oneof=inbound outbound"`
	Phone       string    `json:"phone" binding:"required,notblank,max=32"`
	DurationSec int       `json:"durationSec" binding:"omitempty,min=0"`
	Notes       string    `json:"notes"`
	CalledAt    time.Time `json:"calledAt" binding:"required"`
}

func (in *CallCreate) Model() *CallRecord {
	return &CallRecord{
		MemberID:    emptyToNil(in.MemberID),
		Direction:   CallDirectionOr(in.Direction, CallInbound),
		Phone:       strings.TrimSpace(in.Phone),
		DurationSec: in.DurationSec,
		Notes:       in.Notes,
		CalledAt:    in.CalledAt,
	}
}

type CallPatch struct {
	MemberID    *string    `json:"memberId"`
	Direction   *string    `json:"direction" binding:"omitempty,oneof=inbound outbound"`
	Phone       *string    `json:"phone" binding:"omitempty,max=32"`
	DurationSec *int       `json:"durationSec" binding:"omitempty,min=0"`
	Notes       *string    `json:"notes"`
	CalledAt    *time.Time `json:"calledAt"`
}

func (p *CallPatch) Changes() map[string]any {
	m := map[string]any{}
	setNullable(m, "member_id", p.MemberID)
	setIf(m, "direction", trimPtr(p.Direction))
	setIf(m, "phone", trimPtr(p.Phone))
	setIf(m, "duration_sec", p.DurationSec)
	setIf(m, "notes", p.Notes)
	setIf(m, "called_at", p.CalledAt)
	return m
}
