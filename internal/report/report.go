// Package report folds a date range of sales, paid expenses, purchases
// and other incomes into a simplified profit-and-loss summary with
// per-payment-method net flows and a per-day breakdown.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

var (
	// Processor fee charged on card and wallet collections.
	commissionRate = decimal.RequireFromString("0.04")
	// Fallback cost of sales when a day has no explicit cost recorded.
	costFallbackRatio = decimal.RequireFromString("0.65")
)

// MethodBreakdown is a net cash-movement view per channel, not gross
// revenue: expenses and purchases paid through a channel are subtracted
// from it. Cash flows count only when they sit in the till.
type MethodBreakdown struct {
	CashTill decimal.Decimal `json:"cash_till"`
	Wallet   decimal.Decimal `json:"wallet"`
	Card     decimal.Decimal `json:"card"`
	Transfer decimal.Decimal `json:"transfer"`
}

func (b MethodBreakdown) Total() decimal.Decimal {
	return b.CashTill.Add(b.Wallet).Add(b.Card).Add(b.Transfer)
}

type DailyStat struct {
	Date        time.Time       `json:"date"`
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Purchase    decimal.Decimal `json:"purchase"`
	CostOfSales decimal.Decimal `json:"cost_of_sales"`
	Utility     decimal.Decimal `json:"utility"`
	Methods     MethodBreakdown `json:"methods"`
}

type Summary struct {
	GrossIncome         decimal.Decimal `json:"total_income"`
	NetBalance          decimal.Decimal `json:"total_net_balance"`
	TotalExpenses       decimal.Decimal `json:"total_expenses"`
	OperationalExpenses decimal.Decimal `json:"total_operational_expenses"`
	FixedExpenses       decimal.Decimal `json:"total_fixed_expenses"`
	PurchasesTotal      decimal.Decimal `json:"total_purchases"`
	CostOfSales         decimal.Decimal `json:"total_cost_of_sales"`
	Commissions         decimal.Decimal `json:"total_commissions"`
	OtherIncomeTotal    decimal.Decimal `json:"total_other_income"`
	NetProfit           decimal.Decimal `json:"net_profit"`
	InvoicedTotal       decimal.Decimal `json:"total_invoiced"`
	ReceiptTotal        decimal.Decimal `json:"total_receipts"`
	SalesNoteTotal      decimal.Decimal `json:"total_sales_notes"`
	IncomeByMethod      MethodBreakdown `json:"income_by_method"`
	DailyStats          []DailyStat     `json:"daily_stats"`
}

type Input struct {
	Start        time.Time
	End          time.Time
	Sales        []domain.DailySales
	PaidExpenses []domain.Expense
	Purchases    []domain.Purchase
	OtherIncomes []domain.OtherIncome
}

type dayAccum struct {
	income      decimal.Decimal
	expense     decimal.Decimal
	purchase    decimal.Decimal
	costOfSales decimal.Decimal
	methods     MethodBreakdown
}

// Aggregate is pure and safe to call concurrently.
func Aggregate(in Input) Summary {
	sum := Summary{}
	days := make(map[string]*dayAccum)

	at := func(d time.Time) *dayAccum {
		key := domain.DateOnly(d).Format(domain.DateFormat)
		acc, ok := days[key]
		if !ok {
			acc = &dayAccum{}
			days[key] = acc
		}
		return acc
	}

	// Commission is computed from gross card and wallet collections,
	// never from the net figures: paying an expense by card does not
	// refund the processor's cut.
	grossCard := decimal.Zero
	grossWallet := decimal.Zero

	for _, s := range in.Sales {
		income := s.TotalSales()

		sum.GrossIncome = sum.GrossIncome.Add(income)
		sum.InvoicedTotal = sum.InvoicedTotal.Add(s.InvoicedAmount)
		sum.ReceiptTotal = sum.ReceiptTotal.Add(s.ReceiptAmount)
		sum.SalesNoteTotal = sum.SalesNoteTotal.Add(s.SalesNoteAmount)

		cost := s.EstimatedCost
		if !cost.IsPositive() {
			cost = income.Mul(costFallbackRatio)
		}
		sum.CostOfSales = sum.CostOfSales.Add(cost)

		acc := at(s.Date)
		acc.income = acc.income.Add(income)
		acc.costOfSales = acc.costOfSales.Add(cost)

		for _, p := range s.Payments {
			switch p.Method {
			case domain.MethodCash:
				// Cash banked straight away does not move through
				// the till, so it stays out of the channel view.
				if p.CashLocation == nil || *p.CashLocation == domain.LocationTill {
					sum.IncomeByMethod.CashTill = sum.IncomeByMethod.CashTill.Add(p.Amount)
					acc.methods.CashTill = acc.methods.CashTill.Add(p.Amount)
				}
			case domain.MethodWallet:
				sum.IncomeByMethod.Wallet = sum.IncomeByMethod.Wallet.Add(p.Amount)
				acc.methods.Wallet = acc.methods.Wallet.Add(p.Amount)
				grossWallet = grossWallet.Add(p.Amount)
			case domain.MethodCard:
				sum.IncomeByMethod.Card = sum.IncomeByMethod.Card.Add(p.Amount)
				acc.methods.Card = acc.methods.Card.Add(p.Amount)
				grossCard = grossCard.Add(p.Amount)
			case domain.MethodTransfer:
				sum.IncomeByMethod.Transfer = sum.IncomeByMethod.Transfer.Add(p.Amount)
				acc.methods.Transfer = acc.methods.Transfer.Add(p.Amount)
			}
		}
	}

	for _, e := range in.PaidExpenses {
		sum.TotalExpenses = sum.TotalExpenses.Add(e.Amount)
		if e.IsFixed {
			sum.FixedExpenses = sum.FixedExpenses.Add(e.Amount)
		} else {
			sum.OperationalExpenses = sum.OperationalExpenses.Add(e.Amount)
		}

		acc := at(e.Date)
		acc.expense = acc.expense.Add(e.Amount)
		deduct(&sum.IncomeByMethod, &acc.methods, e.Method, e.Amount)
	}

	for _, p := range in.Purchases {
		sum.PurchasesTotal = sum.PurchasesTotal.Add(p.TotalAmount)

		acc := at(p.Date)
		acc.purchase = acc.purchase.Add(p.TotalAmount)
		deduct(&sum.IncomeByMethod, &acc.methods, p.Method, p.TotalAmount)
	}

	for _, o := range in.OtherIncomes {
		sum.OtherIncomeTotal = sum.OtherIncomeTotal.Add(o.Amount)
	}

	sum.Commissions = grossCard.Add(grossWallet).Mul(commissionRate)
	// Purchases and other income stay out of the headline profit:
	// purchases are stock movements, other income is non-operating.
	sum.NetProfit = sum.GrossIncome.Sub(sum.CostOfSales).Sub(sum.TotalExpenses).Sub(sum.Commissions)
	sum.NetBalance = sum.IncomeByMethod.Total()
	sum.DailyStats = sortedStats(days)

	return sum
}

func deduct(total, day *MethodBreakdown, method domain.PaymentMethod, amount decimal.Decimal) {
	switch method {
	case domain.MethodCash:
		total.CashTill = total.CashTill.Sub(amount)
		day.CashTill = day.CashTill.Sub(amount)
	case domain.MethodWallet:
		total.Wallet = total.Wallet.Sub(amount)
		day.Wallet = day.Wallet.Sub(amount)
	case domain.MethodCard:
		total.Card = total.Card.Sub(amount)
		day.Card = day.Card.Sub(amount)
	case domain.MethodTransfer:
		total.Transfer = total.Transfer.Sub(amount)
		day.Transfer = day.Transfer.Sub(amount)
	}
}

func sortedStats(days map[string]*dayAccum) []DailyStat {
	stats := make([]DailyStat, 0, len(days))
	for key, acc := range days {
		// Keys come from DateOnly formatting, the parse cannot fail.
		d, _ := domain.ParseDate(key)
		stats = append(stats, DailyStat{
			Date:        d,
			Income:      acc.income,
			Expense:     acc.expense,
			Purchase:    acc.purchase,
			CostOfSales: acc.costOfSales,
			Utility:     acc.income.Sub(acc.costOfSales).Sub(acc.expense),
			Methods:     acc.methods,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date.Before(stats[j].Date) })
	return stats
}
