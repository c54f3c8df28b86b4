package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cajadiaria/internal/domain"
	"cajadiaria/internal/ledger"
)

func TestDailySalesRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("CAJADIARIA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set CAJADIARIA_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	saleID := fmt.Sprintf("sale-it-%d", stamp)
	// A date far enough back not to collide with real rows.
	day := time.Date(1990, time.June, int(stamp%27)+1, 0, 0, 0, 0, time.UTC)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM payments WHERE daily_sales_id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM daily_sales WHERE id = $1`, saleID)
	})

	till := domain.LocationTill
	created, err := s.CreateDailySales(ctx, domain.DailySales{
		ID:             saleID,
		Date:           day,
		InvoicedAmount: decimal.RequireFromString("300"),
		ReceiptAmount:  decimal.RequireFromString("450.50"),
		Responsible:    "Rosa",
		Payments: []domain.Payment{
			{Method: domain.MethodCash, Amount: decimal.RequireFromString("500"), CashLocation: &till},
			{Method: domain.MethodWallet, Amount: decimal.RequireFromString("250.50")},
		},
	})
	if err != nil {
		t.Fatalf("create daily sales: %v", err)
	}

	_, err = s.CreateDailySales(ctx, domain.DailySales{
		Date:           day,
		InvoicedAmount: decimal.RequireFromString("100"),
	})
	if !errors.Is(err, ledger.ErrDuplicateRecord) {
		t.Fatalf("duplicate create = %v, want ErrDuplicateRecord", err)
	}

	got, err := s.GetDailySalesByDate(ctx, day)
	if err != nil {
		t.Fatalf("get by date: %v", err)
	}
	if got.ID != created.ID || len(got.Payments) != 2 {
		t.Fatalf("got %s with %d payments, want %s with 2", got.ID, len(got.Payments), created.ID)
	}
	if !got.TotalSales().Equal(decimal.RequireFromString("750.50")) {
		t.Fatalf("total sales = %s, want 750.50", got.TotalSales())
	}

	// Replace swaps the full payment set.
	replacement := *got
	replacement.Payments = []domain.Payment{
		{Method: domain.MethodCard, Amount: decimal.RequireFromString("750.50")},
	}
	if _, err := s.ReplaceDailySales(ctx, replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = s.GetDailySalesByDate(ctx, day)
	if err != nil {
		t.Fatalf("get after replace: %v", err)
	}
	if len(got.Payments) != 1 || got.Payments[0].Method != domain.MethodCard {
		t.Fatalf("payments after replace = %+v, want a single card payment", got.Payments)
	}
}
