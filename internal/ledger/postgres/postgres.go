// Package postgres implements the ledger on PostgreSQL. Amounts are
// stored as NUMERIC and scanned through shopspring decimal to keep
// centimo arithmetic exact.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"cajadiaria/internal/domain"
	"cajadiaria/internal/ledger"
	"cajadiaria/internal/ident"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetDailySales(ctx context.Context, from, to time.Time) ([]domain.DailySales, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, invoiced_amount, receipt_amount, sales_note_amount,
		       estimated_cost, difference_amount, difference_reason, difference_note,
		       responsible, created_at
		FROM daily_sales
		WHERE date >= $1 AND date <= $2
		ORDER BY date
	`, dateUTC(from), dateUTC(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.DailySales, 0, 32)
	ids := make([]string, 0, 32)
	for rows.Next() {
		sale, err := scanDailySales(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	payments, err := s.paymentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Payments = payments[sales[i].ID]
	}
	return sales, nil
}

func (s *Store) GetDailySalesByDate(ctx context.Context, date time.Time) (*domain.DailySales, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, date, invoiced_amount, receipt_amount, sales_note_amount,
		       estimated_cost, difference_amount, difference_reason, difference_note,
		       responsible, created_at
		FROM daily_sales
		WHERE date = $1
	`, dateUTC(date))

	sale, err := scanDailySales(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}

	payments, err := s.paymentsFor(ctx, []string{sale.ID})
	if err != nil {
		return nil, err
	}
	sale.Payments = payments[sale.ID]
	return &sale, nil
}

func (s *Store) CreateDailySales(ctx context.Context, sales domain.DailySales) (*domain.DailySales, error) {
	if sales.Date.IsZero() {
		return nil, ledger.ErrInvalidRecord
	}
	sales.Date = dateUTC(sales.Date)
	if sales.ID == "" {
		sales.ID = ident.New("sale")
	}
	if sales.CreatedAt.IsZero() {
		sales.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_sales (id, date, invoiced_amount, receipt_amount, sales_note_amount,
		                         estimated_cost, difference_amount, difference_reason, difference_note,
		                         responsible, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, sales.ID, sales.Date, sales.InvoicedAmount, sales.ReceiptAmount, sales.SalesNoteAmount,
		sales.EstimatedCost, sales.DifferenceAmount, nullIfEmpty(sales.DifferenceReason),
		nullIfEmpty(sales.DifferenceNote), nullIfEmpty(sales.Responsible), sales.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ledger.ErrDuplicateRecord
		}
		return nil, err
	}

	if err := insertPayments(ctx, tx, &sales); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := sales
	return &created, nil
}

func (s *Store) ReplaceDailySales(ctx context.Context, sales domain.DailySales) (*domain.DailySales, error) {
	if sales.ID == "" || sales.Date.IsZero() {
		return nil, ledger.ErrInvalidRecord
	}
	sales.Date = dateUTC(sales.Date)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE daily_sales
		SET date = $2, invoiced_amount = $3, receipt_amount = $4, sales_note_amount = $5,
		    estimated_cost = $6, difference_amount = $7, difference_reason = $8,
		    difference_note = $9, responsible = $10
		WHERE id = $1
	`, sales.ID, sales.Date, sales.InvoicedAmount, sales.ReceiptAmount, sales.SalesNoteAmount,
		sales.EstimatedCost, sales.DifferenceAmount, nullIfEmpty(sales.DifferenceReason),
		nullIfEmpty(sales.DifferenceNote), nullIfEmpty(sales.Responsible))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ledger.ErrDuplicateRecord
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ledger.ErrNotFound
	}

	// Edits replace the full payment set for the record.
	if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE daily_sales_id = $1`, sales.ID); err != nil {
		return nil, err
	}
	if err := insertPayments(ctx, tx, &sales); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	updated := sales
	return &updated, nil
}

func (s *Store) DeleteDailySales(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM daily_sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) GetExpenses(ctx context.Context, from, to time.Time, filter ledger.ExpenseFilter) ([]domain.Expense, error) {
	query := `
		SELECT id, date, category, description, amount, currency, payment_method,
		       cash_location, is_fixed, status, template_id, created_at
		FROM expenses
		WHERE date >= $1 AND date <= $2
	`
	args := []any{dateUTC(from), dateUTC(to)}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += ` AND status = $3`
	}
	if filter.IsFixed != nil {
		args = append(args, *filter.IsFixed)
		if filter.Status != nil {
			query += ` AND is_fixed = $4`
		} else {
			query += ` AND is_fixed = $3`
		}
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var e domain.Expense
		var description, location, templateID sql.NullString
		var method, status string
		if err := rows.Scan(&e.ID, &e.Date, &e.Category, &description, &e.Amount, &e.Currency,
			&method, &location, &e.IsFixed, &status, &templateID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Description = description.String
		e.TemplateID = templateID.String
		e.Method = domain.PaymentMethod(method)
		e.Status = domain.ExpenseStatus(status)
		if location.Valid {
			loc := domain.CashLocation(location.String)
			e.CashLocation = &loc
		}
		e.Date = dateUTC(e.Date)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Date.IsZero() || expense.Category == "" || expense.Amount.IsNegative() {
		return nil, ledger.ErrInvalidRecord
	}
	expense.Date = dateUTC(expense.Date)
	if expense.ID == "" {
		expense.ID = ident.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	var location any
	if expense.CashLocation != nil {
		location = string(*expense.CashLocation)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, date, category, description, amount, currency, payment_method,
		                      cash_location, is_fixed, status, template_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, expense.ID, expense.Date, expense.Category, nullIfEmpty(expense.Description), expense.Amount,
		string(expense.Currency), string(expense.Method), location, expense.IsFixed,
		string(expense.Status), nullIfEmpty(expense.TemplateID), expense.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) UpdateExpenseStatus(ctx context.Context, id string, status domain.ExpenseStatus) (*domain.Expense, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses SET status = $2 WHERE id = $1
	`, id, string(status))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ledger.ErrNotFound
	}
	return s.getExpenseByID(ctx, id)
}

func (s *Store) getExpenseByID(ctx context.Context, id string) (*domain.Expense, error) {
	var e domain.Expense
	var description, location, templateID sql.NullString
	var method, status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, category, description, amount, currency, payment_method,
		       cash_location, is_fixed, status, template_id, created_at
		FROM expenses
		WHERE id = $1
	`, id).Scan(&e.ID, &e.Date, &e.Category, &description, &e.Amount, &e.Currency,
		&method, &location, &e.IsFixed, &status, &templateID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	e.Description = description.String
	e.TemplateID = templateID.String
	e.Method = domain.PaymentMethod(method)
	e.Status = domain.ExpenseStatus(status)
	if location.Valid {
		loc := domain.CashLocation(location.String)
		e.CashLocation = &loc
	}
	e.Date = dateUTC(e.Date)
	return &e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) GetPurchases(ctx context.Context, from, to time.Time) ([]domain.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, supplier, total_amount, payment_method, created_at
		FROM purchases
		WHERE date >= $1 AND date <= $2
		ORDER BY date
	`, dateUTC(from), dateUTC(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0, 16)
	for rows.Next() {
		var p domain.Purchase
		var supplier sql.NullString
		var method string
		if err := rows.Scan(&p.ID, &p.Date, &supplier, &p.TotalAmount, &method, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Supplier = supplier.String
		p.Method = domain.PaymentMethod(method)
		p.Date = dateUTC(p.Date)
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	if purchase.Date.IsZero() || purchase.TotalAmount.IsNegative() {
		return nil, ledger.ErrInvalidRecord
	}
	purchase.Date = dateUTC(purchase.Date)
	if purchase.ID == "" {
		purchase.ID = ident.New("pur")
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (id, date, supplier, total_amount, payment_method, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, purchase.ID, purchase.Date, nullIfEmpty(purchase.Supplier), purchase.TotalAmount,
		string(purchase.Method), purchase.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := purchase
	return &created, nil
}

func (s *Store) GetOtherIncomes(ctx context.Context, from, to time.Time) ([]domain.OtherIncome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, amount, payment_method, currency, description, created_at
		FROM other_incomes
		WHERE date >= $1 AND date <= $2
		ORDER BY date
	`, dateUTC(from), dateUTC(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	incomes := make([]domain.OtherIncome, 0, 8)
	for rows.Next() {
		var o domain.OtherIncome
		var description sql.NullString
		var method, currency string
		if err := rows.Scan(&o.ID, &o.Date, &o.Amount, &method, &currency, &description, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Description = description.String
		o.Method = domain.PaymentMethod(method)
		o.Currency = domain.Currency(currency)
		o.Date = dateUTC(o.Date)
		incomes = append(incomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return incomes, nil
}

func (s *Store) CreateOtherIncome(ctx context.Context, income domain.OtherIncome) (*domain.OtherIncome, error) {
	if income.Date.IsZero() || income.Amount.IsNegative() {
		return nil, ledger.ErrInvalidRecord
	}
	income.Date = dateUTC(income.Date)
	if income.ID == "" {
		income.ID = ident.New("oin")
	}
	if income.CreatedAt.IsZero() {
		income.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO other_incomes (id, date, amount, payment_method, currency, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, income.ID, income.Date, income.Amount, string(income.Method), string(income.Currency),
		nullIfEmpty(income.Description), income.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := income
	return &created, nil
}

func (s *Store) GetFixedExpenseTemplates(ctx context.Context) ([]domain.FixedExpenseTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, amount, currency, category, day_of_month
		FROM fixed_expense_templates
		ORDER BY day_of_month, title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]domain.FixedExpenseTemplate, 0, 8)
	for rows.Next() {
		var t domain.FixedExpenseTemplate
		var currency string
		if err := rows.Scan(&t.ID, &t.Title, &t.Amount, &currency, &t.Category, &t.DayOfMonth); err != nil {
			return nil, err
		}
		t.Currency = domain.Currency(currency)
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *Store) CreateFixedExpenseTemplate(ctx context.Context, tpl domain.FixedExpenseTemplate) (*domain.FixedExpenseTemplate, error) {
	if tpl.Title == "" || tpl.Amount.IsNegative() || tpl.DayOfMonth < 1 || tpl.DayOfMonth > 31 {
		return nil, ledger.ErrInvalidRecord
	}
	if tpl.ID == "" {
		tpl.ID = ident.New("tpl")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fixed_expense_templates (id, title, amount, currency, category, day_of_month)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, tpl.ID, tpl.Title, tpl.Amount, string(tpl.Currency), tpl.Category, tpl.DayOfMonth)
	if err != nil {
		return nil, err
	}

	created := tpl
	return &created, nil
}

func (s *Store) DeleteFixedExpenseTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fixed_expense_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) GetExpenseCategories(ctx context.Context) ([]domain.ExpenseCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_fixed
		FROM expense_categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.ExpenseCategory, 0, 16)
	for rows.Next() {
		var c domain.ExpenseCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.IsFixed); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateExpenseCategory(ctx context.Context, category domain.ExpenseCategory) (*domain.ExpenseCategory, error) {
	if category.Name == "" {
		return nil, ledger.ErrInvalidRecord
	}
	if category.ID == "" {
		category.ID = ident.New("cat")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expense_categories (id, name, is_fixed)
		VALUES ($1,$2,$3)
	`, category.ID, category.Name, category.IsFixed)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ledger.ErrDuplicateRecord
		}
		return nil, err
	}

	created := category
	return &created, nil
}

func (s *Store) GetJournalEntries(ctx context.Context) ([]domain.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, type, location, method, currency, amount, description, reference_id
		FROM cash_journal
		ORDER BY date, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, 128)
	for rows.Next() {
		var e domain.JournalEntry
		var description, referenceID sql.NullString
		var typ, location, method, currency string
		if err := rows.Scan(&e.ID, &e.Date, &typ, &location, &method, &currency, &e.Amount, &description, &referenceID); err != nil {
			return nil, err
		}
		e.Type = domain.EntryType(typ)
		e.Location = domain.CashLocation(location)
		e.Method = domain.PaymentMethod(method)
		e.Currency = domain.Currency(currency)
		e.Description = description.String
		e.ReferenceID = referenceID.String
		e.Date = dateUTC(e.Date)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) AppendJournalEntry(ctx context.Context, entry domain.JournalEntry) error {
	if entry.Date.IsZero() {
		return ledger.ErrInvalidRecord
	}
	entry.Date = dateUTC(entry.Date)
	if entry.ID == "" {
		entry.ID = ident.New("jrn")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_journal (id, date, type, location, method, currency, amount, description, reference_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.Date, string(entry.Type), string(entry.Location), string(entry.Method),
		string(entry.Currency), entry.Amount, nullIfEmpty(entry.Description), nullIfEmpty(entry.ReferenceID))
	return err
}

func (s *Store) DeleteJournalEntriesByReference(ctx context.Context, referenceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cash_journal WHERE reference_id = $1`, referenceID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailySales(row rowScanner) (domain.DailySales, error) {
	var sale domain.DailySales
	var reason, note, responsible sql.NullString
	err := row.Scan(&sale.ID, &sale.Date, &sale.InvoicedAmount, &sale.ReceiptAmount,
		&sale.SalesNoteAmount, &sale.EstimatedCost, &sale.DifferenceAmount,
		&reason, &note, &responsible, &sale.CreatedAt)
	if err != nil {
		return domain.DailySales{}, err
	}
	sale.DifferenceReason = reason.String
	sale.DifferenceNote = note.String
	sale.Responsible = responsible.String
	sale.Date = dateUTC(sale.Date)
	return sale, nil
}

func (s *Store) paymentsFor(ctx context.Context, salesIDs []string) (map[string][]domain.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, daily_sales_id, method, amount, cash_location
		FROM payments
		WHERE daily_sales_id = ANY($1)
		ORDER BY daily_sales_id, id
	`, salesIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.Payment, len(salesIDs))
	for rows.Next() {
		var p domain.Payment
		var method string
		var location sql.NullString
		if err := rows.Scan(&p.ID, &p.DailySalesID, &method, &p.Amount, &location); err != nil {
			return nil, err
		}
		p.Method = domain.PaymentMethod(method)
		if location.Valid {
			loc := domain.CashLocation(location.String)
			p.CashLocation = &loc
		}
		result[p.DailySalesID] = append(result[p.DailySalesID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func insertPayments(ctx context.Context, tx *sql.Tx, sales *domain.DailySales) error {
	for i := range sales.Payments {
		p := &sales.Payments[i]
		if p.Amount.IsZero() {
			continue
		}
		if p.ID == "" {
			p.ID = ident.New("pay")
		}
		p.DailySalesID = sales.ID
		var location any
		if p.CashLocation != nil {
			location = string(*p.CashLocation)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO payments (id, daily_sales_id, method, amount, cash_location)
			VALUES ($1,$2,$3,$4,$5)
		`, p.ID, p.DailySalesID, string(p.Method), p.Amount, location)
		if err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func dateUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
