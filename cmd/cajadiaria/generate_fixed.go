package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var generateFixedCmd = &cobra.Command{
	Use:   "generate-fixed",
	Short: "Create pending expenses from the fixed-expense templates",
	Long: `Instantiates every fixed-expense template for the given month as a
pending expense. Templates that already produced an expense that month
are skipped, so the command is safe to re-run.`,
	Example: `  cajadiaria generate-fixed --month 3 --year 2025`,
	RunE:    runGenerateFixed,
}

func init() {
	rootCmd.AddCommand(generateFixedCmd)
	now := time.Now().UTC()
	generateFixedCmd.Flags().Int("month", int(now.Month()), "Month to generate (1-12)")
	generateFixedCmd.Flags().Int("year", now.Year(), "Year to generate")
}

func runGenerateFixed(cmd *cobra.Command, _ []string) error {
	month, _ := cmd.Flags().GetInt("month")
	year, _ := cmd.Flags().GetInt("year")
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid --month %d, must be 1-12", month)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := svc.GenerateFixedExpenses(ctx, year, time.Month(month))
	if err != nil {
		return err
	}

	fmt.Printf("Created %d pending expense(s) for %04d-%02d\n", created, year, month)
	return nil
}
