package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar-date form used everywhere: storage columns,
// request payloads and CLI flags. Records carry no time-of-day component.
const DateFormat = "2006-01-02"

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodWallet   PaymentMethod = "wallet"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
	MethodOther    PaymentMethod = "other"
)

// ParsePaymentMethod maps free-text method values onto the closed set,
// keeping unknown user-defined values as MethodOther.
func ParsePaymentMethod(s string) PaymentMethod {
	switch PaymentMethod(s) {
	case MethodCash, MethodWallet, MethodCard, MethodTransfer:
		return PaymentMethod(s)
	default:
		return MethodOther
	}
}

type CashLocation string

const (
	LocationTill CashLocation = "till"
	LocationBank CashLocation = "bank"
)

type Currency string

const (
	CurrencyLocal   Currency = "PEN"
	CurrencyForeign Currency = "USD"
)

type ExpenseStatus string

const (
	ExpenseStatusPaid    ExpenseStatus = "paid"
	ExpenseStatusPending ExpenseStatus = "pending"
)

type EntryType string

const (
	EntryIncome     EntryType = "income"
	EntryExpense    EntryType = "expense"
	EntryAdjustment EntryType = "adjustment"
)

// DailySales is one worker-declared sales record. Exactly one exists per
// calendar date; the ledger enforces uniqueness.
type DailySales struct {
	ID               string          `json:"id"`
	Date             time.Time       `json:"date"`
	InvoicedAmount   decimal.Decimal `json:"invoiced_amount"`
	ReceiptAmount    decimal.Decimal `json:"receipt_amount"`
	SalesNoteAmount  decimal.Decimal `json:"sales_note_amount"`
	EstimatedCost    decimal.Decimal `json:"estimated_cost"`
	DifferenceAmount decimal.Decimal `json:"difference_amount"`
	DifferenceReason string          `json:"difference_reason,omitempty"`
	DifferenceNote   string          `json:"difference_note,omitempty"`
	Responsible      string          `json:"responsible,omitempty"`
	Payments         []Payment       `json:"payments"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TotalSales is the declared total: invoiced + receipt + sales-note.
func (d DailySales) TotalSales() decimal.Decimal {
	return d.InvoicedAmount.Add(d.ReceiptAmount).Add(d.SalesNoteAmount)
}

type Payment struct {
	ID           string          `json:"id"`
	DailySalesID string          `json:"daily_sales_id"`
	Method       PaymentMethod   `json:"method"`
	Amount       decimal.Decimal `json:"amount"`
	CashLocation *CashLocation   `json:"cash_location,omitempty"`
}

type Expense struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Category     string          `json:"category"`
	Description  string          `json:"description,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     Currency        `json:"currency"`
	Method       PaymentMethod   `json:"payment_method"`
	CashLocation *CashLocation   `json:"cash_location,omitempty"`
	IsFixed      bool            `json:"is_fixed"`
	Status       ExpenseStatus   `json:"status"`
	TemplateID   string          `json:"template_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// FixedExpenseTemplate describes a recurring monthly obligation. It moves
// no money itself; GenerateFixedExpenses materializes it into pending
// Expense rows for a target month.
type FixedExpenseTemplate struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   Currency        `json:"currency"`
	Category   string          `json:"category"`
	DayOfMonth int             `json:"day_of_month"`
}

type Purchase struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Supplier    string          `json:"supplier,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Method      PaymentMethod   `json:"payment_method"`
	CreatedAt   time.Time       `json:"created_at"`
}

type OtherIncome struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"payment_method"`
	Currency    Currency        `json:"currency"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// JournalEntry is one all-time cash-movement row: signed amount, tagged
// with where the money sits. The health calculator folds the full journal
// into till/bank liquidity.
type JournalEntry struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Type        EntryType       `json:"type"`
	Location    CashLocation    `json:"location"`
	Method      PaymentMethod   `json:"method"`
	Currency    Currency        `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	ReferenceID string          `json:"reference_id,omitempty"`
}

type ExchangeRate struct {
	Buy      decimal.Decimal `json:"buy"`
	Sell     decimal.Decimal `json:"sell"`
	Source   string          `json:"source"`
	Currency Currency        `json:"currency"`
	Date     time.Time       `json:"date"`
}

type ExpenseCategory struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsFixed bool   `json:"is_fixed"`
}

// SalesSubmitRequest is the worker-facing submission shape: declared
// totals plus the per-method payment amounts collected that day. Zero
// payment amounts are omitted from the stored record.
type SalesSubmitRequest struct {
	Date              string  `json:"date" validate:"required"`
	InvoicedAmount    float64 `json:"invoiced_amount" validate:"min=0"`
	ReceiptAmount     float64 `json:"receipt_amount" validate:"min=0"`
	SalesNoteAmount   float64 `json:"sales_note_amount" validate:"min=0"`
	EstimatedCost     float64 `json:"estimated_cost" validate:"min=0"`
	CashAmount        float64 `json:"cash_amount" validate:"min=0"`
	CashLocation      string  `json:"cash_location,omitempty" validate:"omitempty,oneof=till bank"`
	WalletAmount      float64 `json:"wallet_amount" validate:"min=0"`
	CardAmount        float64 `json:"card_amount" validate:"min=0"`
	TransferAmount    float64 `json:"transfer_amount" validate:"min=0"`
	PaidExpensesTotal float64 `json:"paid_expenses_total" validate:"min=0"`
	DifferenceReason  string  `json:"difference_reason,omitempty"`
	DifferenceNote    string  `json:"difference_note,omitempty"`
	Responsible       string  `json:"responsible,omitempty"`
}

type ExpenseCreateRequest struct {
	Date         string  `json:"date" validate:"required"`
	Category     string  `json:"category" validate:"required"`
	Description  string  `json:"description,omitempty"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	Currency     string  `json:"currency,omitempty" validate:"omitempty,oneof=PEN USD"`
	Method       string  `json:"payment_method" validate:"required"`
	CashLocation string  `json:"cash_location,omitempty" validate:"omitempty,oneof=till bank"`
}

type TemplateCreateRequest struct {
	Title      string  `json:"title" validate:"required"`
	Amount     float64 `json:"amount" validate:"gt=0"`
	Currency   string  `json:"currency,omitempty" validate:"omitempty,oneof=PEN USD"`
	Category   string  `json:"category" validate:"required"`
	DayOfMonth int     `json:"day_of_month" validate:"min=1,max=31"`
}

type PurchaseCreateRequest struct {
	Date        string  `json:"date" validate:"required"`
	Supplier    string  `json:"supplier,omitempty"`
	TotalAmount float64 `json:"total_amount" validate:"gt=0"`
	Method      string  `json:"payment_method" validate:"required"`
}

type OtherIncomeCreateRequest struct {
	Date        string  `json:"date" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Method      string  `json:"payment_method" validate:"required"`
	Currency    string  `json:"currency,omitempty" validate:"omitempty,oneof=PEN USD"`
	Description string  `json:"description,omitempty"`
}

// DefaultExpenseCategories seeds a fresh ledger. IsFixed drives the
// derived is_fixed flag on expenses created under the category.
var DefaultExpenseCategories = []ExpenseCategory{
	{Name: "Bolsas y Empaques", IsFixed: false},
	{Name: "Limpieza", IsFixed: false},
	{Name: "Transporte / Pasajes", IsFixed: false},
	{Name: "Publicidad", IsFixed: false},
	{Name: "Mantenimiento", IsFixed: false},
	{Name: "Alimentación", IsFixed: false},
	{Name: "Otros Gastos Operativos", IsFixed: false},
	{Name: "Planilla / Salarios", IsFixed: true},
	{Name: "Luz / Agua / Internet", IsFixed: true},
	{Name: "Alquiler", IsFixed: true},
}

// ParseDate parses a DateFormat string to a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DateOnly truncates t to a UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
