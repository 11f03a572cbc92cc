package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"church-manager/internal/domain"
	"church-manager/internal/repo"
	"church-manager/pkg/utils"
)

// Occurrence 交易在某一天的一次发生（循环交易会展开成多条）
type Occurrence struct {
	TransactionID string                 `json:"transactionId"`
	Description   string                 `json:"description"`
	Amount        string                 `json:"amount"`
	Type          domain.TransactionType `json:"type"`
	CategoryID    *string                `json:"categoryId"`
	Date          time.Time              `json:"date"`
	Recurring     bool                   `json:"recurring"`
}

type CategoryTotal struct {
	CategoryID string                 `json:"categoryId"`
	Name       string                 `json:"name"`
	Type       domain.TransactionType `json:"type"`
	Actual     string                 `json:"actual"`
	Budget     string                 `json:"budget"`
	Remaining  string                 `json:"remaining"`
}

type Summary struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Income     string          `json:"income"`
	Expense    string          `json:"expense"`
	Balance    string          `json:"balance"`
	Closed     bool            `json:"closed"`
	Categories []CategoryTotal `json:"categories"`
}

type FinanceService struct {
	repo *repo.FinanceRepo
	log  *zap.Logger
	now  func() time.Time
}

func NewFinanceService(db *gorm.DB, l *zap.Logger) *FinanceService {
	if l == nil {
		l = zap.NewNop()
	}
	return &FinanceService{repo: repo.NewFinanceRepo(db), log: l, now: time.Now}
}

// CheckOpen 该日期所在月份已月结则拒绝写入
func (s *FinanceService) CheckOpen(ctx context.Context, t time.Time) error {
	y, m := domain.Period(t)
	return s.checkPeriod(ctx, y, m)
}

func (s *FinanceService) checkPeriod(ctx context.Context, year, month int) error {
	closed, err := s.repo.IsClosed(ctx, year, month)
	if err != nil {
		return err
	}
	if closed {
		return fmt.Errorf("%w: %04d-%02d", domain.ErrClosedPeriod, year, month)
	}
	return nil
}

// CheckTransaction 交易的任一发生日落在已月结月份则拒绝；循环交易按展开结果逐月检查
func (s *FinanceService) CheckTransaction(ctx context.Context, tx domain.Transaction) error {
	if tx.Recurrence == domain.RecurNone || tx.Recurrence == "" {
		return s.CheckOpen(ctx, tx.Date)
	}
	y, m := domain.Period(tx.Date)
	closed, err := s.repo.ClosuresFrom(ctx, y, m)
	if err != nil {
		return err
	}
	for _, c := range closed {
		from, to := domain.MonthRange(c.Year, c.Month)
		if len(Expand(tx, from, to)) > 0 {
			return fmt.Errorf("%w: %04d-%02d", domain.ErrClosedPeriod, c.Year, c.Month)
		}
	}
	return nil
}

// CheckBudgetOpen 预算按年月归属
func (s *FinanceService) CheckBudgetOpen(ctx context.Context, year, month int) error {
	return s.checkPeriod(ctx, year, month)
}

// addMonths 月末对齐：1/31 + 1 月 = 2/28（或 2/29）
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func nth(start time.Time, r domain.Recurrence, n int) time.Time {
	switch r {
	case domain.RecurWeekly:
		return start.AddDate(0, 0, 7*n)
	case domain.RecurMonthly:
		return addMonths(start, n)
	case domain.RecurYearly:
		return addMonths(start, 12*n)
	default:
		return start
	}
}

// Expand 单条交易在 [from, to) 内的所有发生日；循环截止于 recurrenceEnd（含当天）
func Expand(tx domain.Transaction, from, to time.Time) []Occurrence {
	occ := func(d time.Time) Occurrence {
		return Occurrence{
			TransactionID: tx.ID,
			Description:   tx.Description,
			Amount:        tx.Amount,
			Type:          tx.Type,
			CategoryID:    tx.CategoryID,
			Date:          d,
			Recurring:     tx.Recurrence != domain.RecurNone,
		}
	}
	if tx.Recurrence == domain.RecurNone || tx.Recurrence == "" {
		if !tx.Date.Before(from) && tx.Date.Before(to) {
			return []Occurrence{occ(tx.Date)}
		}
		return nil
	}
	// 截止日按自然日算：截止日次日 0 点之前的都算
	var until time.Time
	if e := tx.RecurrenceEnd; e != nil {
		y, m, d := e.Date()
		until = time.Date(y, m, d+1, 0, 0, 0, 0, e.Location())
	}
	var out []Occurrence
	for n := 0; ; n++ {
		d := nth(tx.Date, tx.Recurrence, n)
		if !d.Before(to) {
			break
		}
		if tx.RecurrenceEnd != nil && !d.Before(until) {
			break
		}
		if !d.Before(from) {
			out = append(out, occ(d))
		}
	}
	return out
}

// Occurrences [from, to) 内的全部发生（一次性 + 循环展开），按日期排序
func (s *FinanceService) Occurrences(ctx context.Context, from, to time.Time) ([]Occurrence, error) {
	if !from.Before(to) {
		return []Occurrence{}, nil
	}
	oneOff, err := s.repo.OneOffBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	recurring, err := s.repo.Recurring(ctx, to)
	if err != nil {
		return nil, err
	}
	out := make([]Occurrence, 0, len(oneOff))
	for _, tx := range oneOff {
		out = append(out, Expand(tx, from, to)...)
	}
	for _, tx := range recurring {
		out = append(out, Expand(tx, from, to)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TransactionID < out[j].TransactionID
	})
	return out, nil
}

type totals struct {
	income, expense *big.Rat
	byCategory      map[string]*big.Rat
}

func sumOccurrences(occs []Occurrence) (totals, error) {
	t := totals{income: new(big.Rat), expense: new(big.Rat), byCategory: map[string]*big.Rat{}}
	for _, o := range occs {
		amt, err := utils.ParseAmount(o.Amount)
		if err != nil {
			return t, fmt.Errorf("transaction %s: %w", o.TransactionID, err)
		}
		switch o.Type {
		case domain.TxIncome:
			t.income.Add(t.income, amt)
		case domain.TxExpense:
			t.expense.Add(t.expense, amt)
		}
		if o.CategoryID != nil {
			acc, ok := t.byCategory[*o.CategoryID]
			if !ok {
				acc = new(big.Rat)
				t.byCategory[*o.CategoryID] = acc
			}
			acc.Add(acc, amt)
		}
	}
	return t, nil
}

func (s *FinanceService) monthTotals(ctx context.Context, year, month int) (totals, error) {
	from, to := domain.MonthRange(year, month)
	occs, err := s.Occurrences(ctx, from, to)
	if err != nil {
		return totals{}, err
	}
	return sumOccurrences(occs)
}

// Summary 月度汇总：收入/支出/结余 + 各分类实际 vs 预算；transfer 不计入结余
func (s *FinanceService) Summary(ctx context.Context, year, month int) (*Summary, error) {
	t, err := s.monthTotals(ctx, year, month)
	if err != nil {
		return nil, err
	}
	closed, err := s.repo.IsClosed(ctx, year, month)
	if err != nil {
		return nil, err
	}
	cats, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	budgets, err := s.repo.BudgetsIn(ctx, year, month)
	if err != nil {
		return nil, err
	}
	planned := map[string]*big.Rat{}
	for _, b := range budgets {
		amt, err := utils.ParseAmount(b.Amount)
		if err != nil {
			return nil, fmt.Errorf("budget %s: %w", b.ID, err)
		}
		if acc, ok := planned[b.CategoryID]; ok {
			acc.Add(acc, amt)
		} else {
			planned[b.CategoryID] = amt
		}
	}

	out := &Summary{
		Year:       year,
		Month:      month,
		Income:     utils.FormatAmount(t.income),
		Expense:    utils.FormatAmount(t.expense),
		Balance:    utils.FormatAmount(new(big.Rat).Sub(t.income, t.expense)),
		Closed:     closed,
		Categories: make([]CategoryTotal, 0, len(cats)),
	}
	for _, c := range cats {
		actual, budget := t.byCategory[c.ID], planned[c.ID]
		if actual == nil && budget == nil {
			continue
		}
		if actual == nil {
			actual = new(big.Rat)
		}
		if budget == nil {
			budget = new(big.Rat)
		}
		out.Categories = append(out.Categories, CategoryTotal{
			CategoryID: c.ID,
			Name:       c.Name,
			Type:       c.Type,
			Actual:     utils.FormatAmount(actual),
			Budget:     utils.FormatAmount(budget),
			Remaining:  utils.FormatAmount(new(big.Rat).Sub(budget, actual)),
		})
	}
	return out, nil
}

// Close 月结：已结 → ErrDuplicate；撤销过的月份重新结算并激活
func (s *FinanceService) Close(ctx context.Context, year, month int, userID string) (*domain.Closure, error) {
	c, err := s.repo.Closure(ctx, year, month)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c = &domain.Closure{Year: year, Month: month}
	case err != nil:
		return nil, err
	case c.IsActive:
		return nil, domain.ErrDuplicate
	}

	t, err := s.monthTotals(ctx, year, month)
	if err != nil {
		return nil, err
	}
	c.Income = utils.FormatAmount(t.income)
	c.Expense = utils.FormatAmount(t.expense)
	c.Balance = utils.FormatAmount(new(big.Rat).Sub(t.income, t.expense))
	c.ClosedBy = userID
	if err := s.repo.SaveClosure(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("finance period closed",
		zap.Int("year", year), zap.Int("month", month),
		zap.String("balance", c.Balance), zap.String("by", userID))
	return c, nil
}

func (s *FinanceService) Closures(ctx context.Context) ([]domain.Closure, error) {
	return s.repo.Closures(ctx)
}

// Reopen 撤销月结，该月重新允许写入
func (s *FinanceService) Reopen(ctx context.Context, id string) (*domain.Closure, error) {
	c, err := s.repo.ReopenClosure(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.log.Info("finance period reopened", zap.Int("year", c.Year), zap.Int("month", c.Month))
	return c, nil
}
