package reconcile

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tillPayment(method domain.PaymentMethod, amount string) domain.Payment {
	p := domain.Payment{Method: method, Amount: dec(amount)}
	if method == domain.MethodCash {
		loc := domain.LocationTill
		p.CashLocation = &loc
	}
	return p
}

func TestToleranceBands(t *testing.T) {
	cases := []struct {
		name       string
		totalSales string
		payments   string
		want       Status
	}{
		{"exact match", "1000", "1000", StatusMatched},
		{"sub-centimo noise", "1000.009", "1000.00", StatusMatched},
		{"lower band edge", "1000.01", "1000.00", StatusTolerated},
		{"inside band", "1001.50", "1000.00", StatusTolerated},
		{"upper band edge", "1003.00", "1000.00", StatusTolerated},
		{"negative difference inside band", "997.00", "1000.00", StatusTolerated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Validate(Input{
				TotalSales: dec(tc.totalSales),
				Payments:   []domain.Payment{tillPayment(domain.MethodCash, tc.payments)},
			})
			if err != nil {
				t.Fatalf("validate failed: %v", err)
			}
			if result.Status != tc.want {
				t.Fatalf("expected status %s, got %s (difference %s)", tc.want, result.Status, result.Difference)
			}
		})
	}
}

func TestDifferenceAboveBandNeedsReason(t *testing.T) {
	// 1000 declared, 995 collected: the 5-sol gap is past the accepted
	// band, so the submission is invalid without a reason.
	_, err := Validate(Input{
		TotalSales: dec("1000"),
		Payments: []domain.Payment{
			tillPayment(domain.MethodCash, "500"),
			tillPayment(domain.MethodWallet, "200"),
			tillPayment(domain.MethodCard, "295"),
		},
	})
	if err == nil {
		t.Fatalf("expected justification to be required for difference of 5")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "difference_reason" {
		t.Fatalf("expected difference_reason field, got %s", verr.Field)
	}
}

func TestScenarioFiveUnderTolerated(t *testing.T) {
	result, err := Validate(Input{
		TotalSales: dec("1000"),
		Payments: []domain.Payment{
			tillPayment(domain.MethodCash, "500"),
			tillPayment(domain.MethodWallet, "200"),
			tillPayment(domain.MethodCard, "297"),
		},
	})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Status != StatusTolerated {
		t.Fatalf("expected tolerated, got %s", result.Status)
	}
	if !result.Difference.Equal(dec("3")) {
		t.Fatalf("expected difference 3, got %s", result.Difference)
	}
	if result.RequiredAction != ActionWarn {
		t.Fatalf("expected warn action, got %s", result.RequiredAction)
	}
}

func TestLargeDifferenceRequiresReason(t *testing.T) {
	input := Input{
		TotalSales: dec("1000"),
		Payments: []domain.Payment{
			tillPayment(domain.MethodCash, "500"),
			tillPayment(domain.MethodWallet, "200"),
			tillPayment(domain.MethodCard, "290"),
		},
	}

	if _, err := Validate(input); err == nil {
		t.Fatalf("expected validation to fail without a reason for difference of 10")
	}

	input.Justification = &Justification{Reason: "Pago no registrado"}
	result, err := Validate(input)
	if err != nil {
		t.Fatalf("validate with reason failed: %v", err)
	}
	if result.Status != StatusRequiresJustification {
		t.Fatalf("expected requires_justification, got %s", result.Status)
	}
	if !result.Difference.Equal(dec("10")) {
		t.Fatalf("expected difference 10, got %s", result.Difference)
	}
}

func TestBlankReasonRejected(t *testing.T) {
	_, err := Validate(Input{
		TotalSales:    dec("1000"),
		Payments:      []domain.Payment{tillPayment(domain.MethodCash, "990")},
		Justification: &Justification{Reason: "   "},
	})
	if err == nil {
		t.Fatalf("expected whitespace-only reason to be rejected")
	}
}

func TestCashWithoutLocationAlwaysRejected(t *testing.T) {
	// Even an exact match fails if cash has no sub-location.
	_, err := Validate(Input{
		TotalSales: dec("500"),
		Payments: []domain.Payment{
			{Method: domain.MethodCash, Amount: dec("500")},
		},
	})
	if err == nil {
		t.Fatalf("expected cash payment without location to be rejected")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "cash_location" {
		t.Fatalf("expected cash_location field, got %s", verr.Field)
	}
}

func TestZeroCashNeedsNoLocation(t *testing.T) {
	result, err := Validate(Input{
		TotalSales: dec("300"),
		Payments: []domain.Payment{
			{Method: domain.MethodCash, Amount: decimal.Zero},
			tillPayment(domain.MethodCard, "300"),
		},
	})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Status != StatusMatched {
		t.Fatalf("expected matched, got %s", result.Status)
	}
}

func TestPaidExpensesCountTowardPayments(t *testing.T) {
	// 1000 declared, 900 collected, 100 paid out of the drawer same day.
	result, err := Validate(Input{
		TotalSales:        dec("1000"),
		Payments:          []domain.Payment{tillPayment(domain.MethodCash, "900")},
		PaidExpensesTotal: dec("100"),
	})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Status != StatusMatched {
		t.Fatalf("expected matched, got %s", result.Status)
	}
	if !result.TotalPayments.Equal(dec("1000")) {
		t.Fatalf("expected total payments 1000, got %s", result.TotalPayments)
	}
}

func TestZeroSalesZeroPayments(t *testing.T) {
	result, err := Validate(Input{TotalSales: decimal.Zero})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Status != StatusMatched {
		t.Fatalf("expected matched for empty day, got %s", result.Status)
	}
}
