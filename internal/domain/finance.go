package domain

import (
	"strings"
	"time"
)

type TransactionType string

const (
	TxIncome   TransactionType = "income"
	TxExpense  TransactionType = "expense"
	TxTransfer TransactionType = "transfer"
)

var TransactionTypes = []TransactionType{TxIncome, TxExpense, TxTransfer}

func ParseTransactionType(s string) (TransactionType, bool) { return parseEnum(s, TransactionTypes) }
func TransactionTypeOr(s string, def TransactionType) TransactionType {
	return enumOr(s, TransactionTypes, def)
}

type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
	RecurYearly  Recurrence = "yearly"
)

var Recurrences = []Recurrence{RecurNone, RecurWeekly, RecurMonthly, RecurYearly}

func ParseRecurrence(s string) (Recurrence, bool)      { return parseEnum(s, Recurrences) }
func RecurrenceOr(s string, def Recurrence) Recurrence { return enumOr(s, Recurrences, def) }

type FinancialCategory struct {
	Base
	Name string          `gorm:"size:128;not null;index" json:"name"`
	Type TransactionType `gorm:"size:16;not null" json:"type"`
}

func (FinancialCategory) TableName() string { return "financial_categories" }

type CategoryCreate struct {
	Name string `json:"name" binding:"required,notblank,min=2,max=128"`
	Type string `json:"type" binding:"required,oneof=income expense transfer"`
}

func (in *CategoryCreate) Model() *FinancialCategory {
	return &FinancialCategory{Name: strings.TrimSpace(in.Name), Type: TransactionTypeOr(in.Type, TxIncome)}
}

type CategoryPatch struct {
	Name *string `json:"name" binding:"omitempty,notblank,min=2,max=128"`
	Type *string `json:"type" binding:"omitempty,oneof=income expense transfer"`
}

func (p *CategoryPatch) Changes() map[string]any {
	m := map[string]any{}
	setIf(m, "name", trimPtr(p.Name))
	setIf(m, "type", trimPtr(p.Type))
	return m
}

// Transaction 金额为字符串十进制（如 "150.00"），方向由 Type 决定
type Transaction struct {
	Base
	Description   string          `gorm:"size:255;not null" json:"description"`
	Amount        string          `gorm:"size:20;not null" json:"amount"`
	Type          TransactionType `gorm:"size:16;not null;index" json:"type"`
	CategoryID    *string         `gorm:"size:36;index" json:"categoryId"`
	MemberID      *string         `gorm:"size:36;index" json:"memberId"`
	Date          time.Time       `gorm:"index" json:"date"`
	Recurrence    Recurrence      `gorm:"size:16;not null;default:none" json:"recurrence"`
	RecurrenceEnd *time.Time      `json:"recurrenceEnd"`
}

func (Transaction) TableName() string { return "transactions" }

type TransactionCreate struct {
	Description   string     `json:"description" binding:"required,notblank,max=255"`
	Amount        string     `json:"amount" binding:"required,decimal"`
	Type          string     `json:"type" binding:"required,oneof=income expense transfer"`
	CategoryID    *string    `json:"categoryId"`
	MemberID      *string    `json:"memberId"`
	Date          time.Time  `json:"date" binding:"required"`
	Recurrence    string     `json:"recurrence" binding:"omitempty,oneof=none weekly monthly yearly"`
	RecurrenceEnd *time.Time `json:"recurrenceEnd"`
}

func (in *TransactionCreate) Model() *Transaction {
	return &Transaction{
		Description:   strings.TrimSpace(in.Description),
		Amount:        strings.TrimSpace(in.Amount),
		Type:          TransactionTypeOr(in.Type, TxIncome),
		CategoryID:    emptyToNil(in.CategoryID),
		MemberID:      emptyToNil(in.MemberID),
		Date:          in.Date,
		Recurrence:    RecurrenceOr(in.Recurrence, RecurNone),
		RecurrenceEnd: in.RecurrenceEnd,
	}
}

type TransactionPatch struct {
	Description   *string    `json:"description" binding:"omitempty,notblank,max=255"`
	Amount        *string    `json:"amount" binding:"omitempty,decimal"`
	Type          *string    `json:"type" binding:"omitempty,oneof=income expense transfer"`
	CategoryID    *string    `json:"categoryId"`
	MemberID      *string    `json:"memberId"`
	Date          *time.Time `json:"date"`
	Recurrence    *string    `json:"recurrence" binding:"omitempty,oneof=none weekly monthly yearly"`
	RecurrenceEnd *time.Time `json:"recurrenceEnd"`
}

func (p *TransactionPatch) Changes() map[string]any {
	m := map[string]any{}
	setIf(m, "description", trimPtr(p.Description))
	setIf(m, "amount", trimPtr(p.Amount))
	setIf(m, "type", trimPtr(p.Type))
	setNullable(m, "category_id", p.CategoryID)
	setNullable(m, "member_id", p.MemberID)
	setIf(m, "date", p.Date)
	setIf(m, "recurrence", trimPtr(p.Recurrence))
	setIf(m, "recurrence_end", p.RecurrenceEnd)
	return m
}

// Apply 补丁后的副本，只套用决定发生日的字段（日期 / 循环 / 截止）
func (p *TransactionPatch) Apply(t Transaction) Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Recurrence != nil {
		t.Recurrence = RecurrenceOr(*p.Recurrence, t.Recurrence)
	}
	if p.RecurrenceEnd != nil {
		end := *p.RecurrenceEnd
		t.RecurrenceEnd = &end
	}
	return t
}

type Budget struct {
	Base
	CategoryID string `gorm:"size:36;not null;index" json:"categoryId"`
	Year       int    `gorm:"not null;index:idx_budget_period" json:"year"`
	Month      int    `gorm:"not null;index:idx_budget_period" json:"month"`
	Amount     string `gorm:"size:20;not null" json:"amount"`
}

func (Budget) TableName() string { return "budgets" }

type BudgetCreate struct {
	CategoryID string `json:"categoryId" binding:"required"`
	Year       int    `json:"year" binding:"required,min=2000,max=2100"`
	Month      int    `json:"month" binding:"required,min=1,max=12"`
	Amount     string `json:"amount" binding:"required,decimal"`
}

func (in *BudgetCreate) Model() *Budget {
	return &Budget{CategoryID: strings.TrimSpace(in.CategoryID), Year: in.Year, Month: in.Month, Amount: strings.TrimSpace(in.Amount)}
}

type BudgetPatch struct {
	Amount *string `json:"amount" binding:"omitempty,decimal"`
}

func (p *BudgetPatch) Changes() map[string]any {
	m := map[string]any{}
	setIf(m, "amount", trimPtr(p.Amount))
	return m
}

// Closure 月结，同一年月只能有一条
type Closure struct {
	Base
	Year     int    `gorm:"not null;uniqueIndex:idx_closure_period" json:"year"`
	Month    int    `gorm:"not null;uniqueIndex:idx_closure_period" json:"month"`
	Income   string `gorm:"size:20;not null" json:"income"`
	Expense  string `gorm:"size:20;not null" json:"expense"`
	Balance  string `gorm:"size:20;not null" json:"balance"`
	ClosedBy string `gorm:"size:36" json:"closedBy"`
}

func (Closure) TableName() string { return "financial_closures" }

type ClosureCreate struct {
	Year  int `json:"year" binding:"required,min=2000,max=2100"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

// MonthRange 某月的 [from, to)，UTC
func MonthRange(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Period 交易所属年月
func Period(t time.Time) (year, month int) {
	t = t.UTC()
	return t.Year(), int(t.Month())
}
