package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cajadiaria/internal/domain"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short:   "Profit and loss summary for a date range",
	Example: `  cajadiaria report --from 2025-03-01 --to 2025-03-31`,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("from", "", "Start date (YYYY-MM-DD)")
	reportCmd.Flags().String("to", "", "End date (YYYY-MM-DD)")
	_ = reportCmd.MarkFlagRequired("from")
	_ = reportCmd.MarkFlagRequired("to")
}

func runReport(cmd *cobra.Command, _ []string) error {
	from, err := dateFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := dateFlag(cmd, "to")
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("--to %s is before --from %s", to.Format(domain.DateFormat), from.Format(domain.DateFormat))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sum, err := svc.Report(ctx, from, to)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Period\t%s to %s\n", from.Format(domain.DateFormat), to.Format(domain.DateFormat))
	fmt.Fprintf(w, "Gross income\t%s\n", sum.GrossIncome.StringFixed(2))
	fmt.Fprintf(w, "  Invoiced\t%s\n", sum.InvoicedTotal.StringFixed(2))
	fmt.Fprintf(w, "  Receipts\t%s\n", sum.ReceiptTotal.StringFixed(2))
	fmt.Fprintf(w, "  Sales notes\t%s\n", sum.SalesNoteTotal.StringFixed(2))
	fmt.Fprintf(w, "Other income\t%s\n", sum.OtherIncomeTotal.StringFixed(2))
	fmt.Fprintf(w, "Cost of sales\t%s\n", sum.CostOfSales.StringFixed(2))
	fmt.Fprintf(w, "Expenses\t%s\n", sum.TotalExpenses.StringFixed(2))
	fmt.Fprintf(w, "  Operational\t%s\n", sum.OperationalExpenses.StringFixed(2))
	fmt.Fprintf(w, "  Fixed\t%s\n", sum.FixedExpenses.StringFixed(2))
	fmt.Fprintf(w, "Purchases\t%s\n", sum.PurchasesTotal.StringFixed(2))
	fmt.Fprintf(w, "Commissions\t%s\n", sum.Commissions.StringFixed(2))
	fmt.Fprintf(w, "Net profit\t%s\n", sum.NetProfit.StringFixed(2))
	fmt.Fprintf(w, "Net balance\t%s\n", sum.NetBalance.StringFixed(2))
	fmt.Fprintln(w, "Net flow by method")
	fmt.Fprintf(w, "  Cash (till)\t%s\n", sum.IncomeByMethod.CashTill.StringFixed(2))
	fmt.Fprintf(w, "  Wallet\t%s\n", sum.IncomeByMethod.Wallet.StringFixed(2))
	fmt.Fprintf(w, "  Card\t%s\n", sum.IncomeByMethod.Card.StringFixed(2))
	fmt.Fprintf(w, "  Transfer\t%s\n", sum.IncomeByMethod.Transfer.StringFixed(2))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(sum.DailyStats) == 0 {
		return nil
	}
	fmt.Println()
	dw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(dw, "DATE\tINCOME\tCOST\tEXPENSE\tPURCHASE\tUTILITY")
	for _, day := range sum.DailyStats {
		fmt.Fprintf(dw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			day.Date.Format(domain.DateFormat),
			day.Income.StringFixed(2),
			day.CostOfSales.StringFixed(2),
			day.Expense.StringFixed(2),
			day.Purchase.StringFixed(2),
			day.Utility.StringFixed(2))
	}
	return dw.Flush()
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, use YYYY-MM-DD: %w", name, raw, err)
	}
	return d, nil
}
