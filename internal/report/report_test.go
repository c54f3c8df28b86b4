package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func till() *domain.CashLocation {
	loc := domain.LocationTill
	return &loc
}

func bank() *domain.CashLocation {
	loc := domain.LocationBank
	return &loc
}

func TestCommissionFromGrossCardAndWallet(t *testing.T) {
	sum := Aggregate(Input{
		Start: date(1), End: date(30),
		Sales: []domain.DailySales{{
			Date:           date(5),
			InvoicedAmount: dec("500"),
			Payments: []domain.Payment{
				{Method: domain.MethodCard, Amount: dec("400")},
				{Method: domain.MethodWallet, Amount: dec("100")},
			},
		}},
		// Paying an expense by card must not shrink the commission.
		PaidExpenses: []domain.Expense{
			{Date: date(6), Amount: dec("200"), Method: domain.MethodCard, Status: domain.ExpenseStatusPaid},
		},
	})

	if !sum.Commissions.Equal(dec("20.00")) {
		t.Fatalf("commissions = %s, want 20.00", sum.Commissions)
	}
	if !sum.IncomeByMethod.Card.Equal(dec("200")) {
		t.Fatalf("net card flow = %s, want 200", sum.IncomeByMethod.Card)
	}
}

func TestProfitAndLossIdentity(t *testing.T) {
	sum := Aggregate(Input{
		Start: date(1), End: date(31),
		Sales: []domain.DailySales{
			{
				Date:           date(3),
				InvoicedAmount: dec("600"),
				ReceiptAmount:  dec("300"),
				EstimatedCost:  dec("400"),
				Payments: []domain.Payment{
					{Method: domain.MethodCash, Amount: dec("900"), CashLocation: till()},
				},
			},
			{
				// No stored cost: falls back to 65% of the day's total.
				Date:            date(4),
				SalesNoteAmount: dec("200"),
				Payments: []domain.Payment{
					{Method: domain.MethodWallet, Amount: dec("200")},
				},
			},
		},
		PaidExpenses: []domain.Expense{
			{Date: date(3), Amount: dec("150"), Method: domain.MethodCash, IsFixed: false, Status: domain.ExpenseStatusPaid},
			{Date: date(10), Amount: dec("300"), Method: domain.MethodTransfer, IsFixed: true, Status: domain.ExpenseStatusPaid},
		},
		Purchases: []domain.Purchase{
			{Date: date(7), TotalAmount: dec("250"), Method: domain.MethodCash},
		},
		OtherIncomes: []domain.OtherIncome{
			{Date: date(8), Amount: dec("80"), Method: domain.MethodCash},
		},
	})

	if !sum.GrossIncome.Equal(dec("1100")) {
		t.Fatalf("gross income = %s, want 1100", sum.GrossIncome)
	}
	if !sum.CostOfSales.Equal(dec("530")) {
		t.Fatalf("cost of sales = %s, want 530", sum.CostOfSales)
	}
	if !sum.OperationalExpenses.Equal(dec("150")) || !sum.FixedExpenses.Equal(dec("300")) {
		t.Fatalf("expense split = %s/%s, want 150/300", sum.OperationalExpenses, sum.FixedExpenses)
	}
	if !sum.TotalExpenses.Equal(sum.OperationalExpenses.Add(sum.FixedExpenses)) {
		t.Fatalf("total expenses %s != operational+fixed", sum.TotalExpenses)
	}
	if !sum.Commissions.Equal(dec("8.00")) {
		t.Fatalf("commissions = %s, want 8.00", sum.Commissions)
	}
	// Other income and purchases stay out of net profit.
	want := sum.GrossIncome.Sub(sum.CostOfSales).Sub(sum.TotalExpenses).Sub(sum.Commissions)
	if !sum.NetProfit.Equal(want) || !sum.NetProfit.Equal(dec("112.00")) {
		t.Fatalf("net profit = %s, want %s (112.00)", sum.NetProfit, want)
	}
	if !sum.OtherIncomeTotal.Equal(dec("80")) {
		t.Fatalf("other income = %s, want 80", sum.OtherIncomeTotal)
	}
	if !sum.PurchasesTotal.Equal(dec("250")) {
		t.Fatalf("purchases = %s, want 250", sum.PurchasesTotal)
	}
}

func TestNetFlowByMethod(t *testing.T) {
	sum := Aggregate(Input{
		Start: date(1), End: date(31),
		Sales: []domain.DailySales{{
			Date:           date(2),
			InvoicedAmount: dec("1000"),
			Payments: []domain.Payment{
				{Method: domain.MethodCash, Amount: dec("500"), CashLocation: till()},
				{Method: domain.MethodCash, Amount: dec("100"), CashLocation: bank()},
				{Method: domain.MethodTransfer, Amount: dec("400")},
			},
		}},
		PaidExpenses: []domain.Expense{
			{Date: date(2), Amount: dec("120"), Method: domain.MethodCash, Status: domain.ExpenseStatusPaid},
		},
		Purchases: []domain.Purchase{
			{Date: date(9), TotalAmount: dec("50"), Method: domain.MethodTransfer},
		},
	})

	// Banked cash never enters the channel view: 500 - 120.
	if !sum.IncomeByMethod.CashTill.Equal(dec("380")) {
		t.Fatalf("net till cash = %s, want 380", sum.IncomeByMethod.CashTill)
	}
	if !sum.IncomeByMethod.Transfer.Equal(dec("350")) {
		t.Fatalf("net transfer = %s, want 350", sum.IncomeByMethod.Transfer)
	}
	if !sum.NetBalance.Equal(dec("730")) {
		t.Fatalf("net balance = %s, want 730", sum.NetBalance)
	}
}

func TestDailyStatsSortedWithUtility(t *testing.T) {
	sum := Aggregate(Input{
		Start: date(1), End: date(31),
		Sales: []domain.DailySales{
			{Date: date(20), InvoicedAmount: dec("100"), EstimatedCost: dec("40")},
			{Date: date(5), InvoicedAmount: dec("200"), EstimatedCost: dec("90")},
		},
		PaidExpenses: []domain.Expense{
			{Date: date(5), Amount: dec("30"), Method: domain.MethodCash, Status: domain.ExpenseStatusPaid},
			// A day with only an expense still gets a row.
			{Date: date(12), Amount: dec("25"), Method: domain.MethodCash, Status: domain.ExpenseStatusPaid},
		},
	})

	if len(sum.DailyStats) != 3 {
		t.Fatalf("got %d daily stats, want 3", len(sum.DailyStats))
	}
	for i, wantDay := range []int{5, 12, 20} {
		if sum.DailyStats[i].Date.Day() != wantDay {
			t.Fatalf("stat %d is day %d, want %d", i, sum.DailyStats[i].Date.Day(), wantDay)
		}
	}

	first := sum.DailyStats[0]
	// 200 - 90 - 30.
	if !first.Utility.Equal(dec("80")) {
		t.Fatalf("day 5 utility = %s, want 80", first.Utility)
	}
	onlyExpense := sum.DailyStats[1]
	if !onlyExpense.Income.IsZero() || !onlyExpense.Expense.Equal(dec("25")) {
		t.Fatalf("day 12 = income %s expense %s, want 0 and 25", onlyExpense.Income, onlyExpense.Expense)
	}
}
