package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"faktura/internal/core"
	"faktura/internal/storage"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "List recurring and one-off expenses",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			res, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = res.Cleanup() }()

			recurring, err := svc.Expenses.ListRecurring(ctx)
			if err != nil {
				return fmt.Errorf("list recurring expenses: %w", err)
			}
			oneOff, err := svc.Expenses.ListOneOff(ctx)
			if err != nil {
				return fmt.Errorf("list one-off expenses: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render("Recurring expenses"))
			if err := renderRecurring(out, recurring); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("One-off expenses"))
			return renderOneOff(out, oneOff)
		},
	})
	return cmd
}

func invoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "List invoices",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices ordered by due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("status")
			filter, err := parseStatusFilter(raw)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			res, svc, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = res.Cleanup() }()

			invoices, err := svc.Invoices.List(ctx, filter)
			if err != nil {
				return fmt.Errorf("list invoices: %w", err)
			}
			return renderInvoices(cmd.OutOrStdout(), invoices)
		},
	}
	list.Flags().String("status", "", "comma separated statuses (draft, sent, paid, cancelled)")
	cmd.AddCommand(list)
	return cmd
}

func parseStatusFilter(raw string) (storage.InvoiceFilter, error) {
	var f storage.InvoiceFilter
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		status, err := core.ParseInvoiceStatus(part)
		if err != nil {
			return storage.InvoiceFilter{}, fmt.Errorf("invalid status %q: %w", part, err)
		}
		f.Statuses = append(f.Statuses, status)
	}
	return f, nil
}
