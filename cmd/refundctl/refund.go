package main

import (
	"fmt"
	"strings"
	"time"

	"refund-lifecycle-be/internal/bootstrap"
	"refund-lifecycle-be/internal/config"
	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/internal/pkg/mailer"
	"refund-lifecycle-be/pkg/refund"
	"refund-lifecycle-be/pkg/workflow"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// openContainer wires the same stores and gateway the server uses, with console logging.
func openContainer() (*bootstrap.Container, error) {
	cfg := config.Load()
	return bootstrap.NewContainer(cfg, logger.NewConsoleLogger())
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Retry every failed refund whose retry is due, once",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := refund.Sweep(cmd.Context(), c.Processor, c.Logger)
			if err != nil {
				return err
			}

			fmt.Println("Retry sweep")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  %-12s %d\n", "Due:", res.Due)
			color.Green("  %-12s %d", "Completed:", res.Completed)
			color.Yellow("  %-12s %d", "Failed:", res.Failed)
			color.Red("  %-12s %d", "Cancelled:", res.Cancelled)
			if res.Errors > 0 {
				color.Red("  %-12s %d", "Errors:", res.Errors)
			}
			return nil
		},
	}
}

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate [refund-id]",
		Short: "Run the automation rules for a pending refund",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid refund id %q", args[0])
			}
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			r, err := c.Processor.Evaluate(cmd.Context(), id)
			if err != nil {
				return err
			}
			printRefund(r)
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [refund-id]",
		Short: "Print a refund and its ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid refund id %q", args[0])
			}
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			r, err := c.Processor.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printRefund(r)
			return nil
		},
	}
}

func statusColor(s entity.RefundStatus) *color.Color {
	switch s {
	case entity.RefundStatusCompleted, entity.RefundStatusApproved:
		return color.New(color.FgGreen)
	case entity.RefundStatusRejected, entity.RefundStatusCancelled, entity.RefundStatusFailed:
		return color.New(color.FgRed)
	case entity.RefundStatusProcessing:
		return color.New(color.FgCyan)
	}
	return color.New(color.FgYellow)
}

func printRefund(r *entity.Refund) {
	fmt.Printf("Refund %s\n", r.ID)
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("  %-14s %s\n", "Order:", r.OrderNumber)
	fmt.Printf("  %-14s %s <%s>\n", "Customer:", r.CustomerName, r.CustomerEmail)
	fmt.Printf("  %-14s %s of %s\n", "Amount:",
		mailer.FormatAmount(r.RefundAmount, r.Currency), mailer.FormatAmount(r.OriginalAmount, r.Currency))
	fmt.Printf("  %-14s %s / %s / %s\n", "Kind:", r.Reason, r.Type, r.Method)
	fmt.Printf("  %-14s ", "Status:")
	statusColor(r.Status).Println(r.Status)

	a := r.Automation
	rule := "-"
	if a.RuleID != nil {
		rule = *a.RuleID
	}
	fmt.Printf("  %-14s rule=%s confidence=%d automatic=%t\n", "Automation:", rule, a.Confidence, a.IsAutomatic)
	if r.RetryCount > 0 || r.NextRetryAt != nil {
		next := "-"
		if r.NextRetryAt != nil {
			next = r.NextRetryAt.Format(time.RFC3339)
		}
		fmt.Printf("  %-14s %d (next %s)\n", "Retries:", r.RetryCount, next)
	}

	fmt.Println("\nLedger:")
	for _, e := range r.Ledger {
		marker := "→"
		if e.Kind == workflow.KindNote {
			marker = "·"
		}
		fmt.Printf("  %s %s ", e.Timestamp.Format(time.RFC3339), marker)
		statusColor(e.Status).Printf("%-10s", e.Status)
		fmt.Printf(" %s (%s)\n", e.Description, e.Actor)
	}
}
