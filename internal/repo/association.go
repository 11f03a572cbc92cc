package repo

import (
	"context"

	"gorm.io/gorm"

	"church-manager/internal/domain"
)

// 关联表整体替换：先删后插，放在同一事务里
func replaceRows[R any](ctx context.Context, db *gorm.DB, fk, ownerID string, rows []R) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var zero R
		if err := tx.Where(fk+" = ?", ownerID).Delete(&zero).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func ReplaceMemberMinistries(ctx context.Context, db *gorm.DB, memberID string, links []domain.MinistryLink) error {
	return replaceRows(ctx, db, "member_id", memberID, domain.MinistryRows(memberID, links))
}

func ReplaceEventSongs(ctx context.Context, db *gorm.DB, eventID string, items []domain.SetlistItem) error {
	return replaceRows(ctx, db, "event_id", eventID, domain.SongRows(eventID, items))
}

func ReplaceEventParticipants(ctx context.Context, db *gorm.DB, eventID string, items []domain.ParticipantItem) error {
	return replaceRows(ctx, db, "event_id", eventID, domain.ParticipantRows(eventID, items))
}
