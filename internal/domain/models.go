package domain

// Models 自动迁移清单
func Models() []any {
	return []any{
		&Member{}, &MemberMinistry{},
		&Ministry{}, &Function{},
		&Event{}, &EventSong{}, &EventParticipant{},
		&Song{},
		&FinancialCategory{}, &Transaction{}, &Budget{}, &Closure{},
		&CallRecord{},
		&User{},
	}
}
