// Package health derives the shop's liquidity position and survival
// metrics: how much cash sits in the till and the bank, what the fixed
// obligations burn per day, and how long the current cash would last.
package health

import (
	"strings"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

var (
	// Processor fee retained on digital collections landing in the bank.
	commissionFactor = decimal.RequireFromString("0.96")
	// Fallback cost of sales when a day has no explicit cost recorded.
	costFallbackRatio = decimal.RequireFromString("0.65")

	monthsInQuarter = decimal.NewFromInt(3)
	daysInMonth     = decimal.NewFromInt(30)
	minimumBurn     = decimal.NewFromInt(1)
)

type Liquidity struct {
	CashOnHand decimal.Decimal `json:"cash_on_hand"`
	CashInBank decimal.Decimal `json:"cash_in_bank"`
	Total      decimal.Decimal `json:"total"`
}

type Obligations struct {
	MonthlyFixedExpenses decimal.Decimal `json:"monthly_fixed_expenses"`
	PendingPayables      decimal.Decimal `json:"pending_payables"`
	ReserveRecommended   decimal.Decimal `json:"reserve_recommended"`
	SafeToInvest         decimal.Decimal `json:"safe_to_invest"`
}

type Projections struct {
	AvgDailySales       decimal.Decimal `json:"avg_daily_sales"`
	AvgDailyCost        decimal.Decimal `json:"avg_daily_cost"`
	AvgDailyProfit      decimal.Decimal `json:"avg_daily_profit"`
	DailyBurn           decimal.Decimal `json:"daily_burn"`
	DaysRunway          int64           `json:"days_runway"`
	ProjectedBalance30d decimal.Decimal `json:"projected_balance_30d"`
}

type Metrics struct {
	Liquidity   Liquidity   `json:"liquidity"`
	Obligations Obligations `json:"obligations"`
	Projections Projections `json:"projections"`
}

// Input carries the pre-fetched slices the assessment folds over. The
// journal is all-time; the expense and sales slices are already filtered
// to their trailing windows by the caller.
type Input struct {
	Journal             []domain.JournalEntry
	FixedExpenses90d    []domain.Expense
	Sales30d            []domain.DailySales
	VariableExpenses30d []domain.Expense
	PendingExpenses     []domain.Expense
}

// Assess is pure and safe to call concurrently.
func Assess(in Input) Metrics {
	hand, bank := foldJournal(in.Journal)
	total := hand.Add(bank)

	fixed90 := decimal.Zero
	for _, e := range in.FixedExpenses90d {
		fixed90 = fixed90.Add(e.Amount)
	}
	avgMonthlyFixed := fixed90.Div(monthsInQuarter)

	sales30 := decimal.Zero
	cost30 := decimal.Zero
	for _, s := range in.Sales30d {
		dayTotal := s.TotalSales()
		sales30 = sales30.Add(dayTotal)
		if s.EstimatedCost.IsPositive() {
			cost30 = cost30.Add(s.EstimatedCost)
		} else {
			cost30 = cost30.Add(dayTotal.Mul(costFallbackRatio))
		}
	}

	varExp30 := decimal.Zero
	for _, e := range in.VariableExpenses30d {
		varExp30 = varExp30.Add(e.Amount)
	}

	pending := decimal.Zero
	for _, e := range in.PendingExpenses {
		pending = pending.Add(e.Amount)
	}

	avgDailySales := sales30.Div(daysInMonth)
	avgDailyCost := cost30.Add(varExp30).Div(daysInMonth)
	dailyFixedShare := avgMonthlyFixed.Div(daysInMonth)
	avgDailyProfit := avgDailySales.Sub(avgDailyCost).Sub(dailyFixedShare)

	burn := dailyFixedShare
	if !burn.IsPositive() {
		burn = minimumBurn
	}
	runway := total.Div(burn).Floor().IntPart()
	if runway < 0 {
		runway = 0
	}

	return Metrics{
		Liquidity: Liquidity{
			CashOnHand: hand,
			CashInBank: bank,
			Total:      total,
		},
		Obligations: Obligations{
			MonthlyFixedExpenses: avgMonthlyFixed,
			PendingPayables:      pending,
			ReserveRecommended:   avgMonthlyFixed,
			SafeToInvest:         total.Sub(avgMonthlyFixed),
		},
		Projections: Projections{
			AvgDailySales:       avgDailySales,
			AvgDailyCost:        avgDailyCost,
			AvgDailyProfit:      avgDailyProfit,
			DailyBurn:           burn,
			DaysRunway:          runway,
			ProjectedBalance30d: total.Add(avgDailyProfit.Mul(daysInMonth)),
		},
	}
}

// foldJournal sums signed amounts per location. Digital collections
// deposited at the bank arrive net of the processor fee, so bank income
// entries from wallet, card or transfer channels are discounted before
// accumulation. The same discount is applied by the period aggregator's
// commission line; the two must not drift apart.
func foldJournal(entries []domain.JournalEntry) (hand, bank decimal.Decimal) {
	for _, entry := range entries {
		amount := entry.Amount
		switch entry.Location {
		case domain.LocationTill:
			hand = hand.Add(amount)
		case domain.LocationBank:
			if entry.Type == domain.EntryIncome && isDigitalChannel(entry) {
				amount = amount.Mul(commissionFactor)
			}
			bank = bank.Add(amount)
		}
	}
	return hand, bank
}

func isDigitalChannel(entry domain.JournalEntry) bool {
	switch entry.Method {
	case domain.MethodWallet, domain.MethodCard, domain.MethodTransfer:
		return true
	case domain.MethodCash:
		return false
	}
	// Older entries carry no typed method; fall back to sniffing the
	// description the way the dashboard did.
	desc := strings.ToLower(entry.Description)
	return strings.Contains(desc, "yape") ||
		strings.Contains(desc, "card") ||
		strings.Contains(desc, "transfer")
}
