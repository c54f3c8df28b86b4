package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cajadiaria/internal/domain"
	"cajadiaria/internal/reconcile"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Reconcile a daily submission without persisting it",
	Long: `Reads a daily sales submission, reconciles the declared totals against
the collected payments, and prints the result. Nothing is written.

The submission comes either from a JSON file (--file) or from the
individual amount flags.`,
	Example: `  cajadiaria validate --file dia.json
  cajadiaria validate --date 2025-03-10 --invoiced 300 --receipts 500 \
      --cash 500 --cash-location till --wallet 200 --card 100`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("file", "", "Path to a submission JSON file")
	validateCmd.Flags().String("date", "", "Sales date (YYYY-MM-DD)")
	validateCmd.Flags().Float64("invoiced", 0, "Invoiced sales total")
	validateCmd.Flags().Float64("receipts", 0, "Receipt sales total")
	validateCmd.Flags().Float64("sales-notes", 0, "Sales-note total")
	validateCmd.Flags().Float64("estimated-cost", 0, "Estimated cost of the day's sales")
	validateCmd.Flags().Float64("cash", 0, "Cash collected")
	validateCmd.Flags().String("cash-location", "", "Where the cash ended up (till or bank)")
	validateCmd.Flags().Float64("wallet", 0, "Digital wallet collections")
	validateCmd.Flags().Float64("card", 0, "Card collections")
	validateCmd.Flags().Float64("transfer", 0, "Bank transfer collections")
	validateCmd.Flags().Float64("paid-expenses", 0, "Expenses paid out of the day's takings")
	validateCmd.Flags().String("reason", "", "Justification for a large difference")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	req, err := submissionFromFlags(cmd)
	if err != nil {
		return err
	}

	res, err := svc.ValidateSubmission(req)
	var verr *reconcile.ValidationError
	if errors.As(err, &verr) {
		fmt.Println("Status:          rejected")
		fmt.Printf("Field:           %s\n", verr.Field)
		fmt.Printf("Reason:          %s\n", verr.Message)
		return fmt.Errorf("submission rejected")
	}
	if err != nil {
		return err
	}

	fmt.Printf("Status:          %s\n", res.Status)
	fmt.Printf("Total payments:  %s\n", res.TotalPayments.StringFixed(2))
	fmt.Printf("Difference:      %s\n", res.Difference.StringFixed(2))
	fmt.Printf("Required action: %s\n", res.RequiredAction)
	return nil
}

func submissionFromFlags(cmd *cobra.Command) (domain.SalesSubmitRequest, error) {
	var req domain.SalesSubmitRequest

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("read submission file: %w", err)
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return req, fmt.Errorf("parse submission file: %w", err)
		}
		return req, nil
	}

	req.Date, _ = cmd.Flags().GetString("date")
	if req.Date == "" {
		return req, fmt.Errorf("either --file or --date is required")
	}
	req.InvoicedAmount, _ = cmd.Flags().GetFloat64("invoiced")
	req.ReceiptAmount, _ = cmd.Flags().GetFloat64("receipts")
	req.SalesNoteAmount, _ = cmd.Flags().GetFloat64("sales-notes")
	req.EstimatedCost, _ = cmd.Flags().GetFloat64("estimated-cost")
	req.CashAmount, _ = cmd.Flags().GetFloat64("cash")
	req.CashLocation, _ = cmd.Flags().GetString("cash-location")
	req.WalletAmount, _ = cmd.Flags().GetFloat64("wallet")
	req.CardAmount, _ = cmd.Flags().GetFloat64("card")
	req.TransferAmount, _ = cmd.Flags().GetFloat64("transfer")
	req.PaidExpensesTotal, _ = cmd.Flags().GetFloat64("paid-expenses")
	req.DifferenceReason, _ = cmd.Flags().GetString("reason")
	return req, nil
}
