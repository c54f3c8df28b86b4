package forecast

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sale(day time.Time, total string) domain.DailySales {
	return domain.DailySales{Date: day, InvoicedAmount: decimal.RequireFromString(total)}
}

func TestMonthWindow(t *testing.T) {
	start, end := MonthWindow(date(2024, time.February, 18))
	if !start.Equal(date(2024, time.February, 1)) {
		t.Fatalf("start = %s, want 2024-02-01", start.Format(domain.DateFormat))
	}
	if !end.Equal(date(2024, time.February, 29)) {
		t.Fatalf("end = %s, want 2024-02-29", end.Format(domain.DateFormat))
	}
}

func TestRunningBalanceAndStatuses(t *testing.T) {
	// Net flows +5, -1, -2, +10, -1 over five days. The balance dips but
	// never crosses zero, so no deficit day and no recommendation.
	templates := []domain.FixedExpenseTemplate{
		{Title: "Luz", Amount: decimal.RequireFromString("1"), Currency: domain.CurrencyLocal, DayOfMonth: 2},
		{Title: "Agua", Amount: decimal.RequireFromString("2"), Currency: domain.CurrencyLocal, DayOfMonth: 3},
		{Title: "Internet", Amount: decimal.RequireFromString("1"), Currency: domain.CurrencyLocal, DayOfMonth: 5},
	}
	out := Project(Input{
		AsOf:        date(2025, time.March, 5),
		WindowStart: date(2025, time.March, 1),
		WindowEnd:   date(2025, time.March, 5),
		Templates:   templates,
		HistoricalSales: []domain.DailySales{
			sale(date(2025, time.March, 1), "5"),
			sale(date(2025, time.March, 4), "10"),
		},
	})

	wantBalances := []string{"5", "4", "2", "12", "11"}
	wantStatuses := []DayStatus{StatusSurplus, StatusWarning, StatusWarning, StatusSurplus, StatusWarning}
	if len(out.Days) != len(wantBalances) {
		t.Fatalf("got %d days, want %d", len(out.Days), len(wantBalances))
	}
	for i, day := range out.Days {
		if !day.RunningBalance.Equal(decimal.RequireFromString(wantBalances[i])) {
			t.Fatalf("day %d balance = %s, want %s", i+1, day.RunningBalance, wantBalances[i])
		}
		if day.Status != wantStatuses[i] {
			t.Fatalf("day %d status = %s, want %s", i+1, day.Status, wantStatuses[i])
		}
		if day.IsProjected {
			t.Fatalf("day %d marked projected inside the actual range", i+1)
		}
	}
	if len(out.Recommendations) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(out.Recommendations))
	}
}

func TestForeignTemplateConvertedAtSellRate(t *testing.T) {
	out := Project(Input{
		AsOf:        date(2025, time.March, 10),
		WindowStart: date(2025, time.March, 1),
		WindowEnd:   date(2025, time.March, 31),
		Templates: []domain.FixedExpenseTemplate{
			{Title: "Alquiler", Amount: decimal.RequireFromString("100"), Currency: domain.CurrencyForeign, DayOfMonth: 15},
		},
	})

	day := out.Days[14]
	if day.Date.Day() != 15 {
		t.Fatalf("day index 14 is %s, want the 15th", day.Date.Format(domain.DateFormat))
	}
	want := decimal.RequireFromString("375.00")
	if !day.ExpensesTotal.Equal(want) {
		t.Fatalf("expenses total = %s, want %s", day.ExpensesTotal, want)
	}
	if len(day.FixedExpenses) != 1 || day.FixedExpenses[0].Title != "Alquiler" {
		t.Fatalf("fixed expenses = %+v, want the single rent template", day.FixedExpenses)
	}
}

func TestProjectedDaysUseTrailingAverage(t *testing.T) {
	// 450 in sales over the trailing window, fixed divisor of 15: avg 30.
	sales := []domain.DailySales{
		sale(date(2025, time.March, 8), "150"),
		sale(date(2025, time.March, 9), "150"),
		sale(date(2025, time.March, 10), "150"),
	}
	out := Project(Input{
		AsOf:            date(2025, time.March, 10),
		WindowStart:     date(2025, time.March, 1),
		WindowEnd:       date(2025, time.March, 31),
		HistoricalSales: sales,
	})

	want := decimal.RequireFromString("30")
	if !out.AvgDailyIncome.Equal(want) {
		t.Fatalf("avg daily income = %s, want %s", out.AvgDailyIncome, want)
	}

	for _, day := range out.Days {
		switch {
		case day.Date.After(date(2025, time.March, 10)):
			if !day.IsProjected || !day.Income.Equal(want) {
				t.Fatalf("%s: projected=%v income=%s, want projected avg %s",
					day.Date.Format(domain.DateFormat), day.IsProjected, day.Income, want)
			}
		case day.Date.Day() >= 8:
			if day.IsProjected || !day.Income.Equal(decimal.RequireFromString("150")) {
				t.Fatalf("%s: projected=%v income=%s, want actual 150",
					day.Date.Format(domain.DateFormat), day.IsProjected, day.Income)
			}
		default:
			// Recorded nothing: actual day, zero income.
			if day.IsProjected || !day.Income.IsZero() {
				t.Fatalf("%s: projected=%v income=%s, want actual 0",
					day.Date.Format(domain.DateFormat), day.IsProjected, day.Income)
			}
		}
	}
}

func TestDeficitRunsAreMaximal(t *testing.T) {
	// Day 1 pushes the balance to -10, day 2 recovers, day 3 sinks it
	// again with nothing after to recover: one closed run, one open run
	// that extends to the end of the window.
	templates := []domain.FixedExpenseTemplate{
		{Title: "Planilla", Amount: decimal.RequireFromString("10"), Currency: domain.CurrencyLocal, DayOfMonth: 1},
		{Title: "Alquiler", Amount: decimal.RequireFromString("50"), Currency: domain.CurrencyLocal, DayOfMonth: 3},
	}
	out := Project(Input{
		AsOf:        date(2025, time.March, 5),
		WindowStart: date(2025, time.March, 1),
		WindowEnd:   date(2025, time.March, 5),
		Templates:   templates,
		HistoricalSales: []domain.DailySales{
			sale(date(2025, time.March, 2), "30"),
		},
	})

	if len(out.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2: %+v", len(out.Recommendations), out.Recommendations)
	}

	first := out.Recommendations[0]
	if !first.Start.Equal(date(2025, time.March, 1)) || !first.End.Equal(date(2025, time.March, 1)) {
		t.Fatalf("first run = %s..%s, want a single day on the 1st",
			first.Start.Format(domain.DateFormat), first.End.Format(domain.DateFormat))
	}

	second := out.Recommendations[1]
	if !second.Start.Equal(date(2025, time.March, 3)) || !second.End.Equal(date(2025, time.March, 5)) {
		t.Fatalf("second run = %s..%s, want 3rd through the window end",
			second.Start.Format(domain.DateFormat), second.End.Format(domain.DateFormat))
	}
	if second.Message == "" {
		t.Fatal("open run recommendation has no message")
	}
}
