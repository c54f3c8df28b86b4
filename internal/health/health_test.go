package health

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func entry(loc domain.CashLocation, typ domain.EntryType, method domain.PaymentMethod, amount, desc string) domain.JournalEntry {
	return domain.JournalEntry{
		Date:        time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Type:        typ,
		Location:    loc,
		Method:      method,
		Amount:      dec(amount),
		Description: desc,
	}
}

func TestLiquidityFold(t *testing.T) {
	m := Assess(Input{Journal: []domain.JournalEntry{
		entry(domain.LocationTill, domain.EntryIncome, domain.MethodCash, "500", "Venta efectivo"),
		entry(domain.LocationTill, domain.EntryExpense, domain.MethodCash, "-120", "Compra insumos"),
		entry(domain.LocationBank, domain.EntryIncome, domain.MethodCard, "200", "Venta tarjeta"),
		entry(domain.LocationBank, domain.EntryIncome, domain.MethodCash, "100", "Depósito efectivo"),
		entry(domain.LocationBank, domain.EntryExpense, domain.MethodTransfer, "-50", "Pago proveedor"),
	}})

	if !m.Liquidity.CashOnHand.Equal(dec("380")) {
		t.Fatalf("cash on hand = %s, want 380", m.Liquidity.CashOnHand)
	}
	// Card income discounted to 192; cash deposit untouched; expense
	// subtracted at face value regardless of channel.
	if !m.Liquidity.CashInBank.Equal(dec("242")) {
		t.Fatalf("cash in bank = %s, want 242", m.Liquidity.CashInBank)
	}
	if !m.Liquidity.Total.Equal(dec("622")) {
		t.Fatalf("total liquidity = %s, want 622", m.Liquidity.Total)
	}
}

func TestCommissionFallsBackToDescription(t *testing.T) {
	m := Assess(Input{Journal: []domain.JournalEntry{
		entry(domain.LocationBank, domain.EntryIncome, domain.MethodOther, "100", "Cobro por Yape"),
		entry(domain.LocationBank, domain.EntryIncome, domain.MethodOther, "100", "Depósito de la dueña"),
	}})

	// 100*0.96 + 100 untouched.
	if !m.Liquidity.CashInBank.Equal(dec("196")) {
		t.Fatalf("cash in bank = %s, want 196", m.Liquidity.CashInBank)
	}
}

func TestRunwayAndProjection(t *testing.T) {
	day := time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC)
	m := Assess(Input{
		Journal: []domain.JournalEntry{
			entry(domain.LocationTill, domain.EntryIncome, domain.MethodCash, "155", ""),
		},
		FixedExpenses90d: []domain.Expense{
			{Date: day, Amount: dec("300"), IsFixed: true},
			{Date: day, Amount: dec("600"), IsFixed: true},
		},
		Sales30d: []domain.DailySales{
			{Date: day, InvoicedAmount: dec("3000"), EstimatedCost: dec("1500")},
		},
		VariableExpenses30d: []domain.Expense{
			{Date: day, Amount: dec("150")},
		},
	})

	// 900 of fixed spend over the quarter: 300 a month, 10 a day.
	if !m.Obligations.MonthlyFixedExpenses.Equal(dec("300")) {
		t.Fatalf("monthly fixed = %s, want 300", m.Obligations.MonthlyFixedExpenses)
	}
	if !m.Projections.DailyBurn.Equal(dec("10")) {
		t.Fatalf("daily burn = %s, want 10", m.Projections.DailyBurn)
	}
	if m.Projections.DaysRunway != 15 {
		t.Fatalf("runway = %d days, want 15", m.Projections.DaysRunway)
	}

	if !m.Projections.AvgDailySales.Equal(dec("100")) {
		t.Fatalf("avg daily sales = %s, want 100", m.Projections.AvgDailySales)
	}
	// (1500 cost + 150 variable) / 30.
	if !m.Projections.AvgDailyCost.Equal(dec("55")) {
		t.Fatalf("avg daily cost = %s, want 55", m.Projections.AvgDailyCost)
	}
	// 100 - 55 - 10.
	if !m.Projections.AvgDailyProfit.Equal(dec("35")) {
		t.Fatalf("avg daily profit = %s, want 35", m.Projections.AvgDailyProfit)
	}
	// 155 + 35*30.
	if !m.Projections.ProjectedBalance30d.Equal(dec("1205")) {
		t.Fatalf("projected balance = %s, want 1205", m.Projections.ProjectedBalance30d)
	}
	// One month of fixed obligations held back.
	if !m.Obligations.SafeToInvest.Equal(dec("-145")) {
		t.Fatalf("safe to invest = %s, want -145", m.Obligations.SafeToInvest)
	}
}

func TestCostFallbackWhenNoStoredCost(t *testing.T) {
	day := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	m := Assess(Input{
		Sales30d: []domain.DailySales{
			{Date: day, InvoicedAmount: dec("1000")},
		},
	})

	// 65% of sales when no cost recorded: 650/30.
	want := dec("650").Div(decimal.NewFromInt(30))
	if !m.Projections.AvgDailyCost.Equal(want) {
		t.Fatalf("avg daily cost = %s, want %s", m.Projections.AvgDailyCost, want)
	}
}

func TestBurnFloorWithoutFixedExpenses(t *testing.T) {
	m := Assess(Input{Journal: []domain.JournalEntry{
		entry(domain.LocationTill, domain.EntryIncome, domain.MethodCash, "45.70", ""),
	}})

	if !m.Projections.DailyBurn.Equal(dec("1")) {
		t.Fatalf("daily burn = %s, want floor of 1", m.Projections.DailyBurn)
	}
	if m.Projections.DaysRunway != 45 {
		t.Fatalf("runway = %d days, want 45", m.Projections.DaysRunway)
	}
}

func TestRunwayNeverNegative(t *testing.T) {
	m := Assess(Input{Journal: []domain.JournalEntry{
		entry(domain.LocationTill, domain.EntryExpense, domain.MethodCash, "-200", ""),
	}})

	if m.Projections.DaysRunway != 0 {
		t.Fatalf("runway = %d days, want 0 for negative liquidity", m.Projections.DaysRunway)
	}
}

func TestPendingPayablesSummed(t *testing.T) {
	m := Assess(Input{PendingExpenses: []domain.Expense{
		{Amount: dec("80"), Status: domain.ExpenseStatusPending},
		{Amount: dec("40"), Status: domain.ExpenseStatusPending},
	}})

	if !m.Obligations.PendingPayables.Equal(dec("120")) {
		t.Fatalf("pending payables = %s, want 120", m.Obligations.PendingPayables)
	}
}
