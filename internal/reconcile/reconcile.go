// Package reconcile decides whether a day's declared sales are explained
// by the payments collected plus the expenses settled from the drawer.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

type Status string

const (
	// StatusMatched: difference below floating-point noise.
	StatusMatched Status = "matched"
	// StatusTolerated: accepted, but the UI should surface a warning.
	StatusTolerated Status = "tolerated"
	// StatusRequiresJustification: only valid with a non-empty reason.
	StatusRequiresJustification Status = "requires_justification"
)

type Action string

const (
	ActionNone    Action = "none"
	ActionWarn    Action = "warn"
	ActionJustify Action = "justify"
)

// Tolerance bands in local currency. The numbers come from how the shop
// actually operates: anything under a centimo is rounding, up to S/ 3.00
// is accepted drawer slack, beyond that the worker must explain.
var (
	exactTolerance = decimal.RequireFromString("0.01")
	acceptedBand   = decimal.RequireFromString("3.00")
)

type Justification struct {
	Reason string
	Note   string
}

type Input struct {
	TotalSales        decimal.Decimal
	Payments          []domain.Payment
	PaidExpensesTotal decimal.Decimal
	Justification     *Justification
}

type Result struct {
	Status         Status
	Difference     decimal.Decimal
	TotalPayments  decimal.Decimal
	RequiredAction Action
}

// ValidationError is a user-facing rejection; the caller must not
// persist the submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate compares declared sales against collected payments plus
// same-day paid expenses. Pure: the caller persists only on success.
func Validate(in Input) (Result, error) {
	totalPayments := in.PaidExpensesTotal
	for _, p := range in.Payments {
		if p.Amount.IsNegative() {
			return Result{}, &ValidationError{Field: "payments", Message: "payment amounts must not be negative"}
		}
		if p.Method == domain.MethodCash && p.Amount.IsPositive() && p.CashLocation == nil {
			return Result{}, &ValidationError{Field: "cash_location", Message: "cash payments must declare till or bank"}
		}
		totalPayments = totalPayments.Add(p.Amount)
	}
	if in.TotalSales.IsNegative() {
		return Result{}, &ValidationError{Field: "total_sales", Message: "declared sales must not be negative"}
	}

	difference := in.TotalSales.Sub(totalPayments)
	abs := difference.Abs()

	result := Result{
		Difference:    difference,
		TotalPayments: totalPayments,
	}

	switch {
	case abs.LessThan(exactTolerance):
		result.Status = StatusMatched
		result.RequiredAction = ActionNone
	case abs.LessThanOrEqual(acceptedBand):
		result.Status = StatusTolerated
		result.RequiredAction = ActionWarn
	default:
		if in.Justification == nil || strings.TrimSpace(in.Justification.Reason) == "" {
			return Result{}, &ValidationError{
				Field:   "difference_reason",
				Message: fmt.Sprintf("differences above %s require a reason", acceptedBand.StringFixed(2)),
			}
		}
		result.Status = StatusRequiresJustification
		result.RequiredAction = ActionJustify
	}

	return result, nil
}
