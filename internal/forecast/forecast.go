// Package forecast builds the day-by-day cash projection for a calendar
// window: actual sales up to the reference date, the trailing average
// beyond it, and scheduled fixed obligations on their day of month.
package forecast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
	"cajadiaria/internal/rates"
)

// The trailing-average window. Days with no sales record count as zero;
// the divisor stays fixed regardless of how many days actually have one.
const trailingDays = 15

type DayStatus string

const (
	StatusSurplus DayStatus = "surplus"
	StatusWarning DayStatus = "warning"
	StatusDeficit DayStatus = "deficit"
)

type Input struct {
	AsOf            time.Time
	WindowStart     time.Time
	WindowEnd       time.Time
	OpeningBalance  decimal.Decimal
	Templates       []domain.FixedExpenseTemplate
	HistoricalSales []domain.DailySales
	Convert         rates.Converter
}

type DailyProjection struct {
	Date           time.Time                     `json:"date"`
	Income         decimal.Decimal               `json:"income"`
	IsProjected    bool                          `json:"is_projected"`
	FixedExpenses  []domain.FixedExpenseTemplate `json:"fixed_expenses"`
	ExpensesTotal  decimal.Decimal               `json:"expenses_total"`
	NetFlow        decimal.Decimal               `json:"net_flow"`
	RunningBalance decimal.Decimal               `json:"running_balance"`
	Status         DayStatus                     `json:"status"`
}

// Recommendation marks one maximal contiguous run of days whose running
// balance is negative.
type Recommendation struct {
	Start   time.Time `json:"start_date"`
	End     time.Time `json:"end_date"`
	Message string    `json:"message"`
}

type Output struct {
	AvgDailyIncome  decimal.Decimal   `json:"avg_daily_income"`
	Days            []DailyProjection `json:"days"`
	Recommendations []Recommendation  `json:"recommendations"`
}

// MonthWindow returns the calendar month containing asOf, the window the
// reference calendar view projects over.
func MonthWindow(asOf time.Time) (time.Time, time.Time) {
	asOf = domain.DateOnly(asOf)
	start := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// Project is pure: identical inputs produce identical output. The only
// notion of "today" is the supplied AsOf.
func Project(in Input) Output {
	convert := in.Convert
	if convert == nil {
		convert = rates.ConverterFor(domain.ExchangeRate{Sell: rates.DefaultSellRate, Currency: domain.CurrencyForeign})
	}

	asOf := domain.DateOnly(in.AsOf)
	start := domain.DateOnly(in.WindowStart)
	end := domain.DateOnly(in.WindowEnd)

	incomeByDate := make(map[string]decimal.Decimal, len(in.HistoricalSales))
	for _, sale := range in.HistoricalSales {
		incomeByDate[domain.DateOnly(sale.Date).Format(domain.DateFormat)] = sale.TotalSales()
	}

	avg := trailingAverage(asOf, incomeByDate)

	days := make([]DailyProjection, 0, 31)
	running := in.OpeningBalance
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		var income decimal.Decimal
		projected := false
		if !d.After(asOf) {
			income = incomeByDate[d.Format(domain.DateFormat)]
		} else {
			income = avg
			projected = true
		}

		dayTemplates := make([]domain.FixedExpenseTemplate, 0, 2)
		expensesTotal := decimal.Zero
		for _, tpl := range in.Templates {
			if tpl.DayOfMonth != d.Day() {
				continue
			}
			dayTemplates = append(dayTemplates, tpl)
			expensesTotal = expensesTotal.Add(convert(tpl.Amount, tpl.Currency))
		}

		netFlow := income.Sub(expensesTotal)
		running = running.Add(netFlow)

		status := StatusSurplus
		if running.IsNegative() {
			status = StatusDeficit
		} else if netFlow.IsNegative() {
			status = StatusWarning
		}

		days = append(days, DailyProjection{
			Date:           d,
			Income:         income,
			IsProjected:    projected,
			FixedExpenses:  dayTemplates,
			ExpensesTotal:  expensesTotal,
			NetFlow:        netFlow,
			RunningBalance: running,
			Status:         status,
		})
	}

	return Output{
		AvgDailyIncome:  avg,
		Days:            days,
		Recommendations: deficitRuns(days, end),
	}
}

func trailingAverage(asOf time.Time, incomeByDate map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for i := 0; i < trailingDays; i++ {
		d := asOf.AddDate(0, 0, -i)
		sum = sum.Add(incomeByDate[d.Format(domain.DateFormat)])
	}
	return sum.Div(decimal.NewFromInt(trailingDays))
}

// deficitRuns scans days in order and emits one recommendation per
// maximal run of negative running balance. A run still open at the end
// of the window spans to the window's last day.
func deficitRuns(days []DailyProjection, windowEnd time.Time) []Recommendation {
	recs := make([]Recommendation, 0, 2)
	var runStart *time.Time

	for i, day := range days {
		if day.RunningBalance.IsNegative() {
			if runStart == nil {
				d := day.Date
				runStart = &d
			}
			continue
		}
		if runStart != nil {
			end := days[i-1].Date
			recs = append(recs, Recommendation{
				Start:   *runStart,
				End:     end,
				Message: fmt.Sprintf("Evita gastos extra entre el %s y el %s por bajo flujo.", runStart.Format("02/01"), end.Format("02/01")),
			})
			runStart = nil
		}
	}

	if runStart != nil {
		recs = append(recs, Recommendation{
			Start:   *runStart,
			End:     windowEnd,
			Message: fmt.Sprintf("Precaución: proyección negativa desde el %s hasta el final de la ventana.", runStart.Format("02/01")),
		})
	}

	return recs
}
