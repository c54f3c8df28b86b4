package ledger

import (
	"context"
	"errors"
	"time"

	"cajadiaria/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateRecord = errors.New("daily sales already recorded for this date")
	ErrInvalidRecord   = errors.New("invalid record")
	ErrUnavailable     = errors.New("ledger unavailable")
)

// ExpenseFilter narrows GetExpenses. Nil fields mean "any".
type ExpenseFilter struct {
	Status  *domain.ExpenseStatus
	IsFixed *bool
}

// Ledger is the data-access contract for the shop's books. Date-range
// reads are inclusive on both ends; all dates are UTC calendar dates.
type Ledger interface {
	GetDailySales(ctx context.Context, from, to time.Time) ([]domain.DailySales, error)
	GetDailySalesByDate(ctx context.Context, date time.Time) (*domain.DailySales, error)
	CreateDailySales(ctx context.Context, sales domain.DailySales) (*domain.DailySales, error)
	ReplaceDailySales(ctx context.Context, sales domain.DailySales) (*domain.DailySales, error)
	DeleteDailySales(ctx context.Context, id string) error

	GetExpenses(ctx context.Context, from, to time.Time, filter ExpenseFilter) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	UpdateExpenseStatus(ctx context.Context, id string, status domain.ExpenseStatus) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	GetPurchases(ctx context.Context, from, to time.Time) ([]domain.Purchase, error)
	CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error)

	GetOtherIncomes(ctx context.Context, from, to time.Time) ([]domain.OtherIncome, error)
	CreateOtherIncome(ctx context.Context, income domain.OtherIncome) (*domain.OtherIncome, error)

	GetFixedExpenseTemplates(ctx context.Context) ([]domain.FixedExpenseTemplate, error)
	CreateFixedExpenseTemplate(ctx context.Context, tpl domain.FixedExpenseTemplate) (*domain.FixedExpenseTemplate, error)
	DeleteFixedExpenseTemplate(ctx context.Context, id string) error

	GetExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error)
	CreateExpenseCategory(ctx context.Context, category domain.ExpenseCategory) (*domain.ExpenseCategory, error)

	GetJournalEntries(ctx context.Context) ([]domain.JournalEntry, error)
	AppendJournalEntry(ctx context.Context, entry domain.JournalEntry) error
	DeleteJournalEntriesByReference(ctx context.Context, referenceID string) error
}
