// Package memory implements the ledger on in-process maps. It backs
// dev/demo mode and the service tests; PostgreSQL takes over when
// DATABASE_URL is set.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
	"cajadiaria/internal/ledger"
	"cajadiaria/internal/ident"
)

type Store struct {
	mu               sync.RWMutex
	salesByID        map[string]domain.DailySales
	salesIDByDate    map[string]string
	expensesByID     map[string]domain.Expense
	purchasesByID    map[string]domain.Purchase
	otherIncomesByID map[string]domain.OtherIncome
	templatesByID    map[string]domain.FixedExpenseTemplate
	categoriesByID   map[string]domain.ExpenseCategory
	journal          []domain.JournalEntry
}

func New() *Store {
	return &Store{
		salesByID:        map[string]domain.DailySales{},
		salesIDByDate:    map[string]string{},
		expensesByID:     map[string]domain.Expense{},
		purchasesByID:    map[string]domain.Purchase{},
		otherIncomesByID: map[string]domain.OtherIncome{},
		templatesByID:    map[string]domain.FixedExpenseTemplate{},
		categoriesByID:   map[string]domain.ExpenseCategory{},
	}
}

// NewSeeded fills the store with a plausible few weeks of a small
// bodega's books so projections and reports have something to chew on.
func NewSeeded() *Store {
	s := New()

	for _, c := range domain.DefaultExpenseCategories {
		c.ID = ident.New("cat")
		s.categoriesByID[c.ID] = c
	}

	templates := []domain.FixedExpenseTemplate{
		{Title: "Alquiler del local", Amount: dec("1200"), Currency: domain.CurrencyLocal, Category: "Alquiler", DayOfMonth: 5},
		{Title: "Luz y agua", Amount: dec("180"), Currency: domain.CurrencyLocal, Category: "Luz / Agua / Internet", DayOfMonth: 18},
		{Title: "Internet", Amount: dec("90"), Currency: domain.CurrencyLocal, Category: "Luz / Agua / Internet", DayOfMonth: 18},
		{Title: "Contador", Amount: dec("100"), Currency: domain.CurrencyForeign, Category: "Otros Gastos Operativos", DayOfMonth: 15},
		{Title: "Planilla", Amount: dec("1500"), Currency: domain.CurrencyLocal, Category: "Planilla / Salarios", DayOfMonth: 28},
	}
	for _, t := range templates {
		t.ID = ident.New("tpl")
		s.templatesByID[t.ID] = t
	}

	// Three weeks of trailing sales ending yesterday, with the weekly
	// rhythm of a corner shop: stronger weekends, one skipped Monday.
	totals := []string{"820", "940", "760", "0", "890", "1010", "1240", "1380",
		"790", "910", "840", "880", "970", "1190", "1330",
		"805", "950", "870", "920", "1005", "1260"}
	today := domain.DateOnly(time.Now().UTC())
	for i, total := range totals {
		if total == "0" {
			continue
		}
		day := today.AddDate(0, 0, -(len(totals) - i))
		amount := dec(total)
		cashPart := amount.Mul(dec("0.6")).Round(2)
		walletPart := amount.Mul(dec("0.25")).Round(2)
		cardPart := amount.Sub(cashPart).Sub(walletPart)
		till := domain.LocationTill
		sale := domain.DailySales{
			ID:             ident.New("sale"),
			Date:           day,
			InvoicedAmount: amount.Mul(dec("0.3")).Round(2),
			ReceiptAmount:  amount.Mul(dec("0.5")).Round(2),
			EstimatedCost:  amount.Mul(dec("0.62")).Round(2),
			Responsible:    "Rosa",
			Payments: []domain.Payment{
				{ID: ident.New("pay"), Method: domain.MethodCash, Amount: cashPart, CashLocation: &till},
				{ID: ident.New("pay"), Method: domain.MethodWallet, Amount: walletPart},
				{ID: ident.New("pay"), Method: domain.MethodCard, Amount: cardPart},
			},
			CreatedAt: day,
		}
		sale.SalesNoteAmount = amount.Sub(sale.InvoicedAmount).Sub(sale.ReceiptAmount)
		s.salesByID[sale.ID] = sale
		s.salesIDByDate[day.Format(domain.DateFormat)] = sale.ID

		s.journal = append(s.journal,
			domain.JournalEntry{ID: ident.New("jrn"), Date: day, Type: domain.EntryIncome, Location: domain.LocationTill, Method: domain.MethodCash, Currency: domain.CurrencyLocal, Amount: cashPart, Description: "Venta efectivo", ReferenceID: sale.ID},
			domain.JournalEntry{ID: ident.New("jrn"), Date: day, Type: domain.EntryIncome, Location: domain.LocationBank, Method: domain.MethodWallet, Currency: domain.CurrencyLocal, Amount: walletPart, Description: "Cobro Yape", ReferenceID: sale.ID},
			domain.JournalEntry{ID: ident.New("jrn"), Date: day, Type: domain.EntryIncome, Location: domain.LocationBank, Method: domain.MethodCard, Currency: domain.CurrencyLocal, Amount: cardPart, Description: "Venta tarjeta", ReferenceID: sale.ID},
		)
	}

	expenses := []domain.Expense{
		{Date: today.AddDate(0, 0, -20), Category: "Alquiler", Description: "Alquiler del local", Amount: dec("1200"), Method: domain.MethodTransfer, IsFixed: true, Status: domain.ExpenseStatusPaid},
		{Date: today.AddDate(0, 0, -12), Category: "Luz / Agua / Internet", Description: "Recibo de luz", Amount: dec("145"), Method: domain.MethodWallet, IsFixed: true, Status: domain.ExpenseStatusPaid},
		{Date: today.AddDate(0, 0, -9), Category: "Bolsas y Empaques", Amount: dec("65"), Method: domain.MethodCash, IsFixed: false, Status: domain.ExpenseStatusPaid},
		{Date: today.AddDate(0, 0, -6), Category: "Limpieza", Amount: dec("38.50"), Method: domain.MethodCash, IsFixed: false, Status: domain.ExpenseStatusPaid},
		{Date: today.AddDate(0, 0, -3), Category: "Transporte / Pasajes", Amount: dec("24"), Method: domain.MethodCash, IsFixed: false, Status: domain.ExpenseStatusPaid},
		{Date: today.AddDate(0, 0, 4), Category: "Planilla / Salarios", Description: "Planilla", Amount: dec("1500"), Method: domain.MethodTransfer, IsFixed: true, Status: domain.ExpenseStatusPending},
	}
	till := domain.LocationTill
	for i := range expenses {
		e := expenses[i]
		e.ID = ident.New("exp")
		e.Currency = domain.CurrencyLocal
		e.CreatedAt = e.Date
		if e.Method == domain.MethodCash {
			e.CashLocation = &till
		}
		s.expensesByID[e.ID] = e
		if e.Status == domain.ExpenseStatusPaid {
			s.journal = append(s.journal, domain.JournalEntry{
				ID: ident.New("jrn"), Date: e.Date, Type: domain.EntryExpense,
				Location: expenseLocation(e), Method: e.Method, Currency: domain.CurrencyLocal,
				Amount: e.Amount.Neg(), Description: e.Category, ReferenceID: e.ID,
			})
		}
	}

	purchases := []domain.Purchase{
		{Date: today.AddDate(0, 0, -14), Supplier: "Distribuidora Norte", TotalAmount: dec("640"), Method: domain.MethodTransfer},
		{Date: today.AddDate(0, 0, -7), Supplier: "Mercado Mayorista", TotalAmount: dec("415"), Method: domain.MethodCash},
	}
	for _, p := range purchases {
		p.ID = ident.New("pur")
		p.CreatedAt = p.Date
		s.purchasesByID[p.ID] = p
	}

	oi := domain.OtherIncome{
		ID: ident.New("oin"), Date: today.AddDate(0, 0, -10), Amount: dec("150"),
		Method: domain.MethodCash, Currency: domain.CurrencyLocal,
		Description: "Venta de cajas usadas", CreatedAt: today.AddDate(0, 0, -10),
	}
	s.otherIncomesByID[oi.ID] = oi

	return s
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func expenseLocation(e domain.Expense) domain.CashLocation {
	if e.Method == domain.MethodCash && (e.CashLocation == nil || *e.CashLocation == domain.LocationTill) {
		return domain.LocationTill
	}
	return domain.LocationBank
}

func inRange(d, from, to time.Time) bool {
	d = domain.DateOnly(d)
	return !d.Before(domain.DateOnly(from)) && !d.After(domain.DateOnly(to))
}

func cloneSales(src domain.DailySales) domain.DailySales {
	dup := src
	dup.Payments = make([]domain.Payment, len(src.Payments))
	copy(dup.Payments, src.Payments)
	for i, p := range src.Payments {
		if p.CashLocation != nil {
			loc := *p.CashLocation
			dup.Payments[i].CashLocation = &loc
		}
	}
	return dup
}

func (s *Store) GetDailySales(_ context.Context, from, to time.Time) ([]domain.DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DailySales, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if inRange(sale.Date, from, to) {
			result = append(result, cloneSales(sale))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *Store) GetDailySalesByDate(_ context.Context, date time.Time) (*domain.DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.salesIDByDate[domain.DateOnly(date).Format(domain.DateFormat)]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	sale := cloneSales(s.salesByID[id])
	return &sale, nil
}

func (s *Store) CreateDailySales(_ context.Context, sales domain.DailySales) (*domain.DailySales, error) {
	if sales.Date.IsZero() {
		return nil, ledger.ErrInvalidRecord
	}
	sales.Date = domain.DateOnly(sales.Date)
	if sales.ID == "" {
		sales.ID = ident.New("sale")
	}
	if sales.CreatedAt.IsZero() {
		sales.CreatedAt = time.Now().UTC()
	}
	for i := range sales.Payments {
		if sales.Payments[i].ID == "" {
			sales.Payments[i].ID = ident.New("pay")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := sales.Date.Format(domain.DateFormat)
	if _, exists := s.salesIDByDate[key]; exists {
		return nil, ledger.ErrDuplicateRecord
	}
	s.salesByID[sales.ID] = cloneSales(sales)
	s.salesIDByDate[key] = sales.ID
	created := cloneSales(sales)
	return &created, nil
}

func (s *Store) ReplaceDailySales(_ context.Context, sales domain.DailySales) (*domain.DailySales, error) {
	if sales.ID == "" || sales.Date.IsZero() {
		return nil, ledger.ErrInvalidRecord
	}
	sales.Date = domain.DateOnly(sales.Date)
	for i := range sales.Payments {
		if sales.Payments[i].ID == "" {
			sales.Payments[i].ID = ident.New("pay")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.salesByID[sales.ID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	key := sales.Date.Format(domain.DateFormat)
	if otherID, exists := s.salesIDByDate[key]; exists && otherID != sales.ID {
		return nil, ledger.ErrDuplicateRecord
	}
	if sales.CreatedAt.IsZero() {
		sales.CreatedAt = prev.CreatedAt
	}
	delete(s.salesIDByDate, prev.Date.Format(domain.DateFormat))
	s.salesByID[sales.ID] = cloneSales(sales)
	s.salesIDByDate[key] = sales.ID
	updated := cloneSales(sales)
	return &updated, nil
}

func (s *Store) DeleteDailySales(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return ledger.ErrNotFound
	}
	delete(s.salesByID, id)
	delete(s.salesIDByDate, sale.Date.Format(domain.DateFormat))
	return nil
}

func (s *Store) GetExpenses(_ context.Context, from, to time.Time, filter ledger.ExpenseFilter) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Expense, 0, len(s.expensesByID))
	for _, e := range s.expensesByID {
		if !inRange(e.Date, from, to) {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.IsFixed != nil && e.IsFixed != *filter.IsFixed {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Date.IsZero() || strings.TrimSpace(expense.Category) == "" || expense.Amount.IsNegative() {
		return nil, ledger.ErrInvalidRecord
	}
	expense.Date = domain.DateOnly(expense.Date)
	if expense.ID == "" {
		expense.ID = ident.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) UpdateExpenseStatus(_ context.Context, id string, status domain.ExpenseStatus) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expensesByID[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	e.Status = status
	s.expensesByID[id] = e
	updated := e
	return &updated, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expensesByID[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.expensesByID, id)
	return nil
}

func (s *Store) GetPurchases(_ context.Context, from, to time.Time) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Purchase, 0, len(s.purchasesByID))
	for _, p := range s.purchasesByID {
		if inRange(p.Date, from, to) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *Store) CreatePurchase(_ context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	if purchase.Date.IsZero() || purchase.TotalAmount.IsNegative() {
		return nil, ledger.ErrInvalidRecord
	}
	purchase.Date = domain.DateOnly(purchase.Date)
	if purchase.ID == "" {
		purchase.ID = ident.New("pur")
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purchasesByID[purchase.ID] = purchase
	created := purchase
	return &created, nil
}

func (s *Store) GetOtherIncomes(_ context.Context, from, to time.Time) ([]domain.OtherIncome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.OtherIncome, 0, len(s.otherIncomesByID))
	for _, o := range s.otherIncomesByID {
		if inRange(o.Date, from, to) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *Store) CreateOtherIncome(_ context.Context, income domain.OtherIncome) (*domain.OtherIncome, error) {
	if income.Date.IsZero() || income.Amount.IsNegative() {
		return nil, ledger.ErrInvalidRecord
	}
	income.Date = domain.DateOnly(income.Date)
	if income.ID == "" {
		income.ID = ident.New("oin")
	}
	if income.CreatedAt.IsZero() {
		income.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.otherIncomesByID[income.ID] = income
	created := income
	return &created, nil
}

func (s *Store) GetFixedExpenseTemplates(_ context.Context) ([]domain.FixedExpenseTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.FixedExpenseTemplate, 0, len(s.templatesByID))
	for _, t := range s.templatesByID {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfMonth != result[j].DayOfMonth {
			return result[i].DayOfMonth < result[j].DayOfMonth
		}
		return result[i].Title < result[j].Title
	})
	return result, nil
}

func (s *Store) CreateFixedExpenseTemplate(_ context.Context, tpl domain.FixedExpenseTemplate) (*domain.FixedExpenseTemplate, error) {
	if strings.TrimSpace(tpl.Title) == "" || tpl.Amount.IsNegative() || tpl.DayOfMonth < 1 || tpl.DayOfMonth > 31 {
		return nil, ledger.ErrInvalidRecord
	}
	if tpl.ID == "" {
		tpl.ID = ident.New("tpl")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.templatesByID[tpl.ID] = tpl
	created := tpl
	return &created, nil
}

func (s *Store) DeleteFixedExpenseTemplate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templatesByID[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.templatesByID, id)
	return nil
}

func (s *Store) GetExpenseCategories(_ context.Context) ([]domain.ExpenseCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ExpenseCategory, 0, len(s.categoriesByID))
	for _, c := range s.categoriesByID {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) CreateExpenseCategory(_ context.Context, category domain.ExpenseCategory) (*domain.ExpenseCategory, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, ledger.ErrInvalidRecord
	}
	if category.ID == "" {
		category.ID = ident.New("cat")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.categoriesByID[category.ID] = category
	created := category
	return &created, nil
}

func (s *Store) GetJournalEntries(_ context.Context) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.JournalEntry, len(s.journal))
	copy(result, s.journal)
	return result, nil
}

func (s *Store) AppendJournalEntry(_ context.Context, entry domain.JournalEntry) error {
	if entry.Date.IsZero() {
		return ledger.ErrInvalidRecord
	}
	entry.Date = domain.DateOnly(entry.Date)
	if entry.ID == "" {
		entry.ID = ident.New("jrn")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = append(s.journal, entry)
	return nil
}

func (s *Store) DeleteJournalEntriesByReference(_ context.Context, referenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.journal[:0]
	for _, entry := range s.journal {
		if entry.ReferenceID != referenceID {
			kept = append(kept, entry)
		}
	}
	s.journal = kept
	return nil
}
