package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"church-manager/internal/domain"
	"church-manager/internal/repo"
)

// NewEventStore 活动仓储：按日期排序，歌单按 position 预加载
func NewEventStore(db *gorm.DB) *repo.Crud[domain.Event, *domain.Event] {
	return repo.NewCrud[domain.Event](db,
		repo.OrderBy("date"),
		repo.Preload("Songs", func(q *gorm.DB) *gorm.DB { return q.Order("position") }),
		repo.Preload("Participants", func(q *gorm.DB) *gorm.DB { return q.Order("id") }),
	)
}

type EventService struct {
	db     *gorm.DB
	events *repo.Crud[domain.Event, *domain.Event]
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db, events: NewEventStore(db)}
}

func (s *EventService) Store() *repo.Crud[domain.Event, *domain.Event] { return s.events }

// Templates 只列模板
func (s *EventService) Templates(ctx context.Context) ([]domain.Event, error) {
	return s.events.List(ctx, func(q *gorm.DB) *gorm.DB { return q.Where("type = ?", domain.EventTemplate) })
}

// duplicateType 复制后的类型：asTemplate > 显式 type > 模板实例化为 service > 沿用源类型
func duplicateType(src domain.EventType, in domain.EventDuplicate) domain.EventType {
	switch {
	case in.AsTemplate:
		return domain.EventTemplate
	case strings.TrimSpace(in.Type) != "":
		return domain.EventTypeOr(in.Type, domain.EventService)
	case src.IsTemplate():
		return domain.EventService
	default:
		return src
	}
}

// Duplicate 复制活动（含歌单、参与者），一个事务内完成
func (s *EventService) Duplicate(ctx context.Context, id string, in domain.EventDuplicate) (*domain.Event, error) {
	var newID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var src domain.Event
		err := tx.Preload("Songs", func(q *gorm.DB) *gorm.DB { return q.Order("position") }).
			Preload("Participants", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
			First(&src, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if !src.IsActive {
			return domain.ErrInactive
		}

		title := strings.TrimSpace(in.Title)
		if title == "" {
			title = src.Title
		}
		ev := domain.Event{
			Base:        domain.Base{IsActive: true},
			Title:       title,
			Type:        duplicateType(src.Type, in),
			Date:        in.Date,
			Location:    src.Location,
			Description: src.Description,
		}
		for _, sg := range src.Songs {
			ev.Songs = append(ev.Songs, domain.EventSong{SongID: sg.SongID, Position: sg.Position, Key: sg.Key})
		}
		for _, p := range src.Participants {
			ev.Participants = append(ev.Participants, domain.EventParticipant{MemberID: p.MemberID, FunctionID: p.FunctionID})
		}
		if err := tx.Create(&ev).Error; err != nil {
			return err
		}
		newID = ev.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.events.Get(ctx, newID)
}

// SetSongs 整体替换歌单，顺序即入参顺序
func (s *EventService) SetSongs(ctx context.Context, id string, items []domain.SetlistItem) (*domain.Event, error) {
	if _, err := s.events.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := repo.ReplaceEventSongs(ctx, s.db, id, items); err != nil {
		return nil, err
	}
	return s.events.Get(ctx, id)
}

func (s *EventService) SetParticipants(ctx context.Context, id string, items []domain.ParticipantItem) (*domain.Event, error) {
	if _, err := s.events.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := repo.ReplaceEventParticipants(ctx, s.db, id, items); err != nil {
		return nil, err
	}
	return s.events.Get(ctx, id)
}
