package domain

import (
	"strings"
	"time"
)

type EventType string

const (
	EventService    EventType = "service"
	EventRehearsal  EventType = "rehearsal"
	EventMeeting    EventType = "meeting"
	EventConference EventType = "conference"
	EventSpecial    EventType = "special"
	EventTemplate   EventType = "template"
)

var EventTypes = []EventType{EventService, EventRehearsal, EventMeeting, EventConference, EventSpecial, EventTemplate}

func ParseEventType(s string) (EventType, bool)     { return parseEnum(s, EventTypes) }
func EventTypeOr(s string, def EventType) EventType { return enumOr(s, EventTypes, def) }
func (t EventType) IsTemplate() bool                { return t == EventTemplate }

type Event struct {
	Base
	Title        string             `gorm:"size:191;not null" json:"title"`
	Type         EventType          `gorm:"size:16;not null;index" json:"type"`
	Date         time.Time          `gorm:"index" json:"date"`
	Location     string             `gorm:"size:255" json:"location"`
	Description  string             `gorm:"type:text" json:"description"`
	Songs        []EventSong        `gorm:"foreignKey:EventID" json:"songs"`
	Participants []EventParticipant `gorm:"foreignKey:EventID" json:"participants"`
}

func (Event) TableName() string { return "events" }

// EventSong 歌单条目，Position 决定顺序
type EventSong struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	EventID  string `gorm:"size:36;not null;index" json:"eventId"`
	SongID   string `gorm:"size:36;not null" json:"songId"`
	Position int    `gorm:"not null" json:"position"`
	Key      string `gorm:"size:8" json:"key"`
}

func (EventSong) TableName() string { return "event_songs" }

type EventParticipant struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	EventID    string  `gorm:"size:36;not null;index" json:"eventId"`
	MemberID   string  `gorm:"size:36;not null" json:"memberId"`
	FunctionID *string `gorm:"size:36" json:"functionId"`
}

func (EventParticipant) TableName() string { return "event_participants" }

type SetlistItem struct {
	SongID string `json:"songId" binding:"required"`
	Key    string `json:"key" binding:"omitempty,max=8"`
}

type ParticipantItem struct {
	MemberID   string  `json:"memberId" binding:"required"`
	FunctionID *string `json:"functionId"`
}

// SongRows 按入参顺序生成 position（从 1 开始）
func SongRows(eventID string, items []SetlistItem) []EventSong {
	rows := make([]EventSong, 0, len(items))
	for i, it := range items {
		rows = append(rows, EventSong{EventID: eventID, SongID: strings.TrimSpace(it.SongID), Position: i + 1, Key: strings.TrimSpace(it.Key)})
	}
	return rows
}

func ParticipantRows(eventID string, items []ParticipantItem) []EventParticipant {
	rows := make([]EventParticipant, 0, len(items))
	for _, it := range items {
		rows = append(rows, EventParticipant{EventID: eventID, MemberID: strings.TrimSpace(it.MemberID), FunctionID: emptyToNil(it.FunctionID)})
	}
	return rows
}

type EventCreate struct {
	Title        string            `json:"title" binding:"required,notblank,min=2,max=191"`
	Type         string            `json:"type" binding:"required,oneof=service rehearsal meeting conference special template"`
	Date         time.Time         `json:"date" binding:"required"`
	Location     string            `json:"location" binding:"omitempty,max=255"`
	Description  string            `json:"description"`
	Songs        []SetlistItem     `json:"songs" binding:"omitempty,dive"`
	Participants []ParticipantItem `json:"participants" binding:"omitempty,dive"`
}

func (in *EventCreate) Model() *Event {
	return &Event{
		Title:        strings.TrimSpace(in.Title),
		Type:         EventTypeOr(in.Type, EventService),
		Date:         in.Date,
		Location:     strings.TrimSpace(in.Location),
		Description:  in.Description,
		Songs:        SongRows("", in.Songs),
		Participants: ParticipantRows("", in.Participants),
	}
}

type EventPatch struct {
	Title        *string           `json:"title" binding:"omitempty,notblank,min=2,max=191"`
	Type         *string           `json:"type" binding:"omitempty,oneof=service rehearsal meeting conference special template"`
	Date         *time.Time        `json:"date"`
	Location     *string           `json:"location" binding:"omitempty,max=255"`
	Description  *string           `json:"description"`
	Songs        []SetlistItem     `json:"songs" binding:"omitempty,dive"`
	Participants []ParticipantItem `json:"participants" binding:"omitempty,dive"`
}

func (p *EventPatch) Changes() map[string]any {
	m := map[string]any{}
	setIf(m, "title", trimPtr(p.Title))
	setIf(m, "type", trimPtr(p.Type))
	setIf(m, "date", p.Date)
	setIf(m, "location", trimPtr(p.Location))
	setIf(m, "description", p.Description)
	return m
}

// EventDuplicate 复制活动 / 由模板生成活动
type EventDuplicate struct {
	Date       time.Time `json:"date" binding:"required"`
	Title      string    `json:"title" binding:"omitempty,notblank,min=2,max=191"`
	Type       string    `json:"type" binding:"omitempty,oneof=service rehearsal meeting conference special template"`
	AsTemplate bool      `json:"asTemplate"`
}
