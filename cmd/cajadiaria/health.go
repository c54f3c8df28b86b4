package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Assess liquidity, runway and investment headroom",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().String("as-of", "", "Reference date (YYYY-MM-DD, default: today)")
}

func runHealth(cmd *cobra.Command, _ []string) error {
	asOf, err := asOfFlag(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := svc.Health(ctx, asOf)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Liquidity")
	fmt.Fprintf(w, "  Cash on hand\t%s\n", m.Liquidity.CashOnHand.StringFixed(2))
	fmt.Fprintf(w, "  Cash in bank\t%s\n", m.Liquidity.CashInBank.StringFixed(2))
	fmt.Fprintf(w, "  Total\t%s\n", m.Liquidity.Total.StringFixed(2))
	fmt.Fprintln(w, "Obligations")
	fmt.Fprintf(w, "  Monthly fixed expenses\t%s\n", m.Obligations.MonthlyFixedExpenses.StringFixed(2))
	fmt.Fprintf(w, "  Pending payables\t%s\n", m.Obligations.PendingPayables.StringFixed(2))
	fmt.Fprintf(w, "  Recommended reserve\t%s\n", m.Obligations.ReserveRecommended.StringFixed(2))
	fmt.Fprintf(w, "  Safe to invest\t%s\n", m.Obligations.SafeToInvest.StringFixed(2))
	fmt.Fprintln(w, "Projections")
	fmt.Fprintf(w, "  Avg daily sales\t%s\n", m.Projections.AvgDailySales.StringFixed(2))
	fmt.Fprintf(w, "  Avg daily cost\t%s\n", m.Projections.AvgDailyCost.StringFixed(2))
	fmt.Fprintf(w, "  Avg daily profit\t%s\n", m.Projections.AvgDailyProfit.StringFixed(2))
	fmt.Fprintf(w, "  Daily burn\t%s\n", m.Projections.DailyBurn.StringFixed(2))
	fmt.Fprintf(w, "  Days of runway\t%d\n", m.Projections.DaysRunway)
	fmt.Fprintf(w, "  Projected balance (30d)\t%s\n", m.Projections.ProjectedBalance30d.StringFixed(2))
	return w.Flush()
}
