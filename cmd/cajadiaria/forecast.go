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

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project cash flow over the current calendar month",
	Example: `  cajadiaria forecast
  cajadiaria forecast --as-of 2025-03-10`,
	RunE: runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.Flags().String("as-of", "", "Reference date (YYYY-MM-DD, default: today)")
}

func runForecast(cmd *cobra.Command, _ []string) error {
	asOf, err := asOfFlag(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out, err := svc.Forecast(ctx, asOf)
	if err != nil {
		return err
	}

	fmt.Printf("Average daily income: %s\n\n", out.AvgDailyIncome.StringFixed(2))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tINCOME\tEXPENSES\tNET\tBALANCE\tSTATUS")
	for _, day := range out.Days {
		marker := ""
		if day.IsProjected {
			marker = " *"
		}
		fmt.Fprintf(w, "%s\t%s%s\t%s\t%s\t%s\t%s\n",
			day.Date.Format(domain.DateFormat),
			day.Income.StringFixed(2), marker,
			day.ExpensesTotal.StringFixed(2),
			day.NetFlow.StringFixed(2),
			day.RunningBalance.StringFixed(2),
			day.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println("\n* projected from the trailing average")

	for _, rec := range out.Recommendations {
		fmt.Printf("! %s\n", rec.Message)
	}
	return nil
}

func asOfFlag(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("as-of")
	if raw == "" {
		return domain.DateOnly(time.Now().UTC()), nil
	}
	asOf, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q, use YYYY-MM-DD: %w", raw, err)
	}
	return asOf, nil
}
