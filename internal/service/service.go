// Package service orchestrates the ledger and the pure engines:
// request validation, persistence, journal upkeep, and the fetch-then-
// fold wiring for forecasts, health checks and reports.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
	"cajadiaria/internal/forecast"
	"cajadiaria/internal/health"
	"cajadiaria/internal/ledger"
	"cajadiaria/internal/logger"
	"cajadiaria/internal/rates"
	"cajadiaria/internal/reconcile"
	"cajadiaria/internal/report"
)

const (
	trailingSalesDays   = 15
	healthSalesDays     = 30
	healthFixedDays     = 90
	pendingLookbackDays = 365
)

type Service struct {
	ledger   ledger.Ledger
	rates    rates.Provider
	validate *validator.Validate
	log      zerolog.Logger
}

func New(lg ledger.Ledger, rateProvider rates.Provider) *Service {
	if rateProvider == nil {
		rateProvider = rates.Fixed(rates.DefaultSellRate)
	}
	return &Service{
		ledger:   lg,
		rates:    rateProvider,
		validate: validator.New(),
		log:      logger.WithComponent("service"),
	}
}

// unavailable marks a failed collection load. The engines never fold
// over a partially fetched dataset.
func unavailable(what string, err error) error {
	return fmt.Errorf("%s: %w", what, errors.Join(ledger.ErrUnavailable, err))
}

// ValidateSubmission runs the full validation chain without persisting
// anything. The CLI uses it for dry-run reconciliation checks.
func (s *Service) ValidateSubmission(req domain.SalesSubmitRequest) (reconcile.Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return reconcile.Result{}, fmt.Errorf("invalid submission: %w", err)
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}
	sales := salesFromRequest(req, date)
	return s.reconcileSales(&sales, req)
}

// SubmitDailySales validates a day's declaration, reconciles it against
// the collected payments, and persists the record with its journal
// entries only when validation passes.
func (s *Service) SubmitDailySales(ctx context.Context, req domain.SalesSubmitRequest) (*domain.DailySales, *reconcile.Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("invalid submission: %w", err)
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	sales := salesFromRequest(req, date)
	result, err := s.reconcileSales(&sales, req)
	if err != nil {
		return nil, nil, err
	}

	created, err := s.ledger.CreateDailySales(ctx, sales)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateRecord) {
			return nil, nil, fmt.Errorf("%s: edit the existing record instead: %w", req.Date, err)
		}
		return nil, nil, fmt.Errorf("persist daily sales: %w", err)
	}

	if err := s.writeSalesJournal(ctx, created); err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("date", req.Date).
		Str("status", string(result.Status)).
		Str("difference", result.Difference.String()).
		Msg("daily sales recorded")
	return created, &result, nil
}

// UpdateDailySales revalidates and replaces the record for a date,
// payments wholesale, and rebuilds its journal entries.
func (s *Service) UpdateDailySales(ctx context.Context, id string, req domain.SalesSubmitRequest) (*domain.DailySales, *reconcile.Result, error) {
	if id == "" {
		return nil, nil, ledger.ErrInvalidRecord
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("invalid submission: %w", err)
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	sales := salesFromRequest(req, date)
	sales.ID = id
	result, err := s.reconcileSales(&sales, req)
	if err != nil {
		return nil, nil, err
	}

	updated, err := s.ledger.ReplaceDailySales(ctx, sales)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateRecord) {
			return nil, nil, fmt.Errorf("%s: edit the existing record instead: %w", req.Date, err)
		}
		return nil, nil, fmt.Errorf("replace daily sales: %w", err)
	}

	if err := s.ledger.DeleteJournalEntriesByReference(ctx, id); err != nil {
		return nil, nil, fmt.Errorf("rebuild journal: %w", err)
	}
	if err := s.writeSalesJournal(ctx, updated); err != nil {
		return nil, nil, err
	}
	return updated, &result, nil
}

func (s *Service) DeleteDailySales(ctx context.Context, id string) error {
	if err := s.ledger.DeleteDailySales(ctx, id); err != nil {
		return err
	}
	return s.ledger.DeleteJournalEntriesByReference(ctx, id)
}

func (s *Service) GetDailySales(ctx context.Context, from, to time.Time) ([]domain.DailySales, error) {
	return s.ledger.GetDailySales(ctx, from, to)
}

func (s *Service) reconcileSales(sales *domain.DailySales, req domain.SalesSubmitRequest) (reconcile.Result, error) {
	input := reconcile.Input{
		TotalSales:        sales.TotalSales(),
		Payments:          sales.Payments,
		PaidExpensesTotal: decimal.NewFromFloat(req.PaidExpensesTotal),
	}
	if strings.TrimSpace(req.DifferenceReason) != "" {
		input.Justification = &reconcile.Justification{
			Reason: req.DifferenceReason,
			Note:   req.DifferenceNote,
		}
	}
	result, err := reconcile.Validate(input)
	if err != nil {
		return reconcile.Result{}, err
	}
	sales.DifferenceAmount = result.Difference
	return result, nil
}

func salesFromRequest(req domain.SalesSubmitRequest, date time.Time) domain.DailySales {
	sales := domain.DailySales{
		Date:             date,
		InvoicedAmount:   decimal.NewFromFloat(req.InvoicedAmount),
		ReceiptAmount:    decimal.NewFromFloat(req.ReceiptAmount),
		SalesNoteAmount:  decimal.NewFromFloat(req.SalesNoteAmount),
		EstimatedCost:    decimal.NewFromFloat(req.EstimatedCost),
		DifferenceReason: strings.TrimSpace(req.DifferenceReason),
		DifferenceNote:   strings.TrimSpace(req.DifferenceNote),
		Responsible:      strings.TrimSpace(req.Responsible),
	}

	add := func(method domain.PaymentMethod, amount float64, loc *domain.CashLocation) {
		if amount <= 0 {
			return
		}
		sales.Payments = append(sales.Payments, domain.Payment{
			Method:       method,
			Amount:       decimal.NewFromFloat(amount),
			CashLocation: loc,
		})
	}

	var cashLoc *domain.CashLocation
	if req.CashLocation != "" {
		loc := domain.CashLocation(req.CashLocation)
		cashLoc = &loc
	}
	add(domain.MethodCash, req.CashAmount, cashLoc)
	add(domain.MethodWallet, req.WalletAmount, nil)
	add(domain.MethodCard, req.CardAmount, nil)
	add(domain.MethodTransfer, req.TransferAmount, nil)
	return sales
}

func (s *Service) writeSalesJournal(ctx context.Context, sales *domain.DailySales) error {
	for _, p := range sales.Payments {
		entry := domain.JournalEntry{
			Date:        sales.Date,
			Type:        domain.EntryIncome,
			Location:    paymentLocation(p),
			Method:      p.Method,
			Currency:    domain.CurrencyLocal,
			Amount:      p.Amount,
			Description: methodDescription(p.Method),
			ReferenceID: sales.ID,
		}
		if err := s.ledger.AppendJournalEntry(ctx, entry); err != nil {
			return fmt.Errorf("append journal: %w", err)
		}
	}
	return nil
}

func paymentLocation(p domain.Payment) domain.CashLocation {
	if p.Method == domain.MethodCash && (p.CashLocation == nil || *p.CashLocation == domain.LocationTill) {
		return domain.LocationTill
	}
	if p.Method == domain.MethodCash && p.CashLocation != nil {
		return *p.CashLocation
	}
	return domain.LocationBank
}

func methodDescription(m domain.PaymentMethod) string {
	switch m {
	case domain.MethodCash:
		return "Venta efectivo"
	case domain.MethodWallet:
		return "Cobro Yape"
	case domain.MethodCard:
		return "Venta tarjeta"
	case domain.MethodTransfer:
		return "Transferencia"
	default:
		return "Otro cobro"
	}
}

// CreateExpense persists a paid expense. IsFixed comes from the
// category's flag at submit time, never from the caller.
func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (*domain.Expense, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid expense: %w", err)
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}
	method := domain.ParsePaymentMethod(req.Method)

	isFixed, err := s.categoryIsFixed(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	expense := domain.Expense{
		Date:        date,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Amount:      decimal.NewFromFloat(req.Amount),
		Currency:    currencyOrLocal(req.Currency),
		Method:      method,
		IsFixed:     isFixed,
		Status:      domain.ExpenseStatusPaid,
	}
	if req.CashLocation != "" {
		loc := domain.CashLocation(req.CashLocation)
		expense.CashLocation = &loc
	}

	created, err := s.ledger.CreateExpense(ctx, expense)
	if err != nil {
		return nil, fmt.Errorf("persist expense: %w", err)
	}
	if err := s.writeExpenseJournal(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) categoryIsFixed(ctx context.Context, category string) (bool, error) {
	categories, err := s.ledger.GetExpenseCategories(ctx)
	if err != nil {
		return false, unavailable("load expense categories", err)
	}
	name := strings.TrimSpace(category)
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.IsFixed, nil
		}
	}
	return false, nil
}

func (s *Service) writeExpenseJournal(ctx context.Context, e *domain.Expense) error {
	entry := domain.JournalEntry{
		Date:        e.Date,
		Type:        domain.EntryExpense,
		Location:    expenseLocation(e),
		Method:      e.Method,
		Currency:    e.Currency,
		Amount:      e.Amount.Neg(),
		Description: e.Category,
		ReferenceID: e.ID,
	}
	if err := s.ledger.AppendJournalEntry(ctx, entry); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

func expenseLocation(e *domain.Expense) domain.CashLocation {
	if e.Method == domain.MethodCash && (e.CashLocation == nil || *e.CashLocation == domain.LocationTill) {
		return domain.LocationTill
	}
	return domain.LocationBank
}

// ConfirmExpense flips a pending expense to paid and records the cash
// movement.
func (s *Service) ConfirmExpense(ctx context.Context, id string) (*domain.Expense, error) {
	updated, err := s.ledger.UpdateExpenseStatus(ctx, id, domain.ExpenseStatusPaid)
	if err != nil {
		return nil, err
	}
	if err := s.writeExpenseJournal(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if err := s.ledger.DeleteExpense(ctx, id); err != nil {
		return err
	}
	return s.ledger.DeleteJournalEntriesByReference(ctx, id)
}

// GenerateFixedExpenses materializes every template into a pending
// expense for the given month, clamping day-of-month to the month's
// last day. Templates already materialized for the month are skipped;
// the returned count covers new records only.
func (s *Service) GenerateFixedExpenses(ctx context.Context, year int, month time.Month) (int, error) {
	templates, err := s.ledger.GetFixedExpenseTemplates(ctx)
	if err != nil {
		return 0, unavailable("load fixed expense templates", err)
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	existing, err := s.ledger.GetExpenses(ctx, monthStart, monthEnd, ledger.ExpenseFilter{})
	if err != nil {
		return 0, unavailable("load expenses", err)
	}
	generated := make(map[string]bool, len(existing))
	for _, e := range existing {
		if e.TemplateID != "" {
			generated[e.TemplateID] = true
		}
	}

	lastDay := monthEnd.Day()
	count := 0
	for _, tpl := range templates {
		if generated[tpl.ID] {
			continue
		}
		day := tpl.DayOfMonth
		if day > lastDay {
			day = lastDay
		}
		expense := domain.Expense{
			Date:        time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
			Category:    tpl.Category,
			Description: tpl.Title,
			Amount:      tpl.Amount,
			Currency:    tpl.Currency,
			Method:      domain.MethodTransfer,
			IsFixed:     true,
			Status:      domain.ExpenseStatusPending,
			TemplateID:  tpl.ID,
		}
		if _, err := s.ledger.CreateExpense(ctx, expense); err != nil {
			return count, fmt.Errorf("materialize template %s: %w", tpl.Title, err)
		}
		count++
	}

	s.log.Info().Int("count", count).Str("month", monthStart.Format("2006-01")).Msg("fixed expenses generated")
	return count, nil
}

func (s *Service) CreatePurchase(ctx context.Context, req domain.PurchaseCreateRequest) (*domain.Purchase, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid purchase: %w", err)
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	purchase := domain.Purchase{
		Date:        date,
		Supplier:    strings.TrimSpace(req.Supplier),
		TotalAmount: decimal.NewFromFloat(req.TotalAmount),
		Method:      domain.ParsePaymentMethod(req.Method),
	}
	created, err := s.ledger.CreatePurchase(ctx, purchase)
	if err != nil {
		return nil, fmt.Errorf("persist purchase: %w", err)
	}

	entry := domain.JournalEntry{
		Date:        created.Date,
		Type:        domain.EntryExpense,
		Location:    methodJournalLocation(created.Method),
		Method:      created.Method,
		Currency:    domain.CurrencyLocal,
		Amount:      created.TotalAmount.Neg(),
		Description: "Compra mercadería",
		ReferenceID: created.ID,
	}
	if err := s.ledger.AppendJournalEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append journal: %w", err)
	}
	return created, nil
}

func (s *Service) CreateOtherIncome(ctx context.Context, req domain.OtherIncomeCreateRequest) (*domain.OtherIncome, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid income: %w", err)
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	income := domain.OtherIncome{
		Date:        date,
		Amount:      decimal.NewFromFloat(req.Amount),
		Method:      domain.ParsePaymentMethod(req.Method),
		Currency:    currencyOrLocal(req.Currency),
		Description: strings.TrimSpace(req.Description),
	}
	created, err := s.ledger.CreateOtherIncome(ctx, income)
	if err != nil {
		return nil, fmt.Errorf("persist income: %w", err)
	}

	entry := domain.JournalEntry{
		Date:        created.Date,
		Type:        domain.EntryIncome,
		Location:    methodJournalLocation(created.Method),
		Method:      created.Method,
		Currency:    created.Currency,
		Amount:      created.Amount,
		Description: created.Description,
		ReferenceID: created.ID,
	}
	if err := s.ledger.AppendJournalEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append journal: %w", err)
	}
	return created, nil
}

func methodJournalLocation(m domain.PaymentMethod) domain.CashLocation {
	if m == domain.MethodCash {
		return domain.LocationTill
	}
	return domain.LocationBank
}

func currencyOrLocal(v string) domain.Currency {
	if v == "" {
		return domain.CurrencyLocal
	}
	return domain.Currency(v)
}

func (s *Service) CreateFixedExpenseTemplate(ctx context.Context, req domain.TemplateCreateRequest) (*domain.FixedExpenseTemplate, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	tpl := domain.FixedExpenseTemplate{
		Title:      strings.TrimSpace(req.Title),
		Amount:     decimal.NewFromFloat(req.Amount),
		Currency:   currencyOrLocal(req.Currency),
		Category:   strings.TrimSpace(req.Category),
		DayOfMonth: req.DayOfMonth,
	}
	return s.ledger.CreateFixedExpenseTemplate(ctx, tpl)
}

func (s *Service) DeleteFixedExpenseTemplate(ctx context.Context, id string) error {
	// Already-generated expenses keep their template reference; deleting
	// the template does not touch them.
	return s.ledger.DeleteFixedExpenseTemplate(ctx, id)
}

func (s *Service) ListFixedExpenseTemplates(ctx context.Context) ([]domain.FixedExpenseTemplate, error) {
	return s.ledger.GetFixedExpenseTemplates(ctx)
}

func (s *Service) ListExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error) {
	return s.ledger.GetExpenseCategories(ctx)
}

func (s *Service) CreateExpenseCategory(ctx context.Context, name string, isFixed bool) (*domain.ExpenseCategory, error) {
	return s.ledger.CreateExpenseCategory(ctx, domain.ExpenseCategory{
		Name:    strings.TrimSpace(name),
		IsFixed: isFixed,
	})
}

// Forecast projects the calendar month containing asOf. A failed
// collection load aborts; a failed rate fetch degrades to the fixed
// reference rate with a warning.
func (s *Service) Forecast(ctx context.Context, asOf time.Time) (forecast.Output, error) {
	windowStart, windowEnd := forecast.MonthWindow(asOf)

	templates, err := s.ledger.GetFixedExpenseTemplates(ctx)
	if err != nil {
		return forecast.Output{}, unavailable("load fixed expense templates", err)
	}

	salesFrom := domain.DateOnly(asOf).AddDate(0, 0, -trailingSalesDays)
	if windowStart.Before(salesFrom) {
		salesFrom = windowStart
	}
	sales, err := s.ledger.GetDailySales(ctx, salesFrom, windowEnd)
	if err != nil {
		return forecast.Output{}, unavailable("load daily sales", err)
	}

	return forecast.Project(forecast.Input{
		AsOf:            asOf,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		Templates:       templates,
		HistoricalSales: sales,
		Convert:         s.converter(ctx),
	}), nil
}

func (s *Service) converter(ctx context.Context) rates.Converter {
	rate, err := s.rates.Rate(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("fallback", rates.DefaultSellRate.String()).Msg("rate fetch failed, using reference rate")
		rate = domain.ExchangeRate{Sell: rates.DefaultSellRate, Currency: domain.CurrencyForeign}
	}
	return rates.ConverterFor(rate)
}

// Health assesses liquidity and runway from the journal and recent
// history.
func (s *Service) Health(ctx context.Context, asOf time.Time) (health.Metrics, error) {
	asOf = domain.DateOnly(asOf)

	journal, err := s.ledger.GetJournalEntries(ctx)
	if err != nil {
		return health.Metrics{}, unavailable("load cash journal", err)
	}

	fixed := true
	fixed90, err := s.ledger.GetExpenses(ctx, asOf.AddDate(0, 0, -healthFixedDays), asOf, ledger.ExpenseFilter{IsFixed: &fixed})
	if err != nil {
		return health.Metrics{}, unavailable("load fixed expenses", err)
	}

	sales30, err := s.ledger.GetDailySales(ctx, asOf.AddDate(0, 0, -healthSalesDays), asOf)
	if err != nil {
		return health.Metrics{}, unavailable("load daily sales", err)
	}

	variable := false
	var30, err := s.ledger.GetExpenses(ctx, asOf.AddDate(0, 0, -healthSalesDays), asOf, ledger.ExpenseFilter{IsFixed: &variable})
	if err != nil {
		return health.Metrics{}, unavailable("load variable expenses", err)
	}

	pendingStatus := domain.ExpenseStatusPending
	pending, err := s.ledger.GetExpenses(ctx, asOf.AddDate(0, 0, -pendingLookbackDays), asOf.AddDate(0, 1, 0), ledger.ExpenseFilter{Status: &pendingStatus})
	if err != nil {
		return health.Metrics{}, unavailable("load pending expenses", err)
	}

	return health.Assess(health.Input{
		Journal:             journal,
		FixedExpenses90d:    fixed90,
		Sales30d:            sales30,
		VariableExpenses30d: var30,
		PendingExpenses:     pending,
	}), nil
}

// Report aggregates the inclusive date range into the P&L summary.
func (s *Service) Report(ctx context.Context, from, to time.Time) (report.Summary, error) {
	sales, err := s.ledger.GetDailySales(ctx, from, to)
	if err != nil {
		return report.Summary{}, unavailable("load daily sales", err)
	}

	paid := domain.ExpenseStatusPaid
	expenses, err := s.ledger.GetExpenses(ctx, from, to, ledger.ExpenseFilter{Status: &paid})
	if err != nil {
		return report.Summary{}, unavailable("load expenses", err)
	}

	purchases, err := s.ledger.GetPurchases(ctx, from, to)
	if err != nil {
		return report.Summary{}, unavailable("load purchases", err)
	}

	otherIncomes, err := s.ledger.GetOtherIncomes(ctx, from, to)
	if err != nil {
		return report.Summary{}, unavailable("load other incomes", err)
	}

	return report.Aggregate(report.Input{
		Start:        from,
		End:          to,
		Sales:        sales,
		PaidExpenses: expenses,
		Purchases:    purchases,
		OtherIncomes: otherIncomes,
	}), nil
}

// ExchangeRate returns the current foreign conversion rate.
func (s *Service) ExchangeRate(ctx context.Context) (domain.ExchangeRate, error) {
	return s.rates.Rate(ctx)
}
