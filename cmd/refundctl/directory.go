package main

import (
	"fmt"
	"time"

	"refund-lifecycle-be/pkg/refund"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage the order read model",
	}

	var o refund.OrderInfo
	var placedAt string
	add := &cobra.Command{
		Use:   "add",
		Short: "Insert or replace an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			o.PlacedAt = time.Now().UTC()
			if placedAt != "" {
				t, err := time.Parse(time.RFC3339, placedAt)
				if err != nil {
					return fmt.Errorf("invalid --placed-at: %w", err)
				}
				o.PlacedAt = t.UTC()
			}

			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Stores.Directory.UpsertOrder(cmd.Context(), o); err != nil {
				return err
			}
			color.Green("Order %s stored", o.Ref)
			return nil
		},
	}
	add.Flags().StringVar(&o.Ref, "ref", "", "Order reference")
	add.Flags().StringVar(&o.Number, "number", "", "Human-facing order number")
	add.Flags().StringVar(&o.CustomerRef, "customer", "", "Customer reference")
	add.Flags().Int64Var(&o.Amount, "amount", 0, "Order total in minor units")
	add.Flags().StringVar(&o.Currency, "currency", "USD", "ISO currency code")
	add.Flags().StringVar(&o.GatewayRef, "gateway-ref", "", "Payment reference at the gateway")
	add.Flags().StringVar(&o.OriginalTransactionRef, "transaction-ref", "", "Original charge or payment intent")
	add.Flags().StringVar(&o.DuplicateOf, "duplicate-of", "", "Order this one duplicates")
	add.Flags().StringVar(&placedAt, "placed-at", "", "Placement time (RFC3339), default now")
	_ = add.MarkFlagRequired("ref")
	_ = add.MarkFlagRequired("customer")
	_ = add.MarkFlagRequired("amount")

	cmd.AddCommand(add)
	return cmd
}

func customerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage the customer read model",
	}

	var cu refund.CustomerInfo
	add := &cobra.Command{
		Use:   "add",
		Short: "Insert or replace a customer",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Stores.Directory.UpsertCustomer(cmd.Context(), cu); err != nil {
				return err
			}
			color.Green("Customer %s stored", cu.Ref)
			return nil
		},
	}
	add.Flags().StringVar(&cu.Ref, "ref", "", "Customer reference")
	add.Flags().StringVar(&cu.Name, "name", "", "Display name")
	add.Flags().StringVar(&cu.Email, "email", "", "Email for notifications")
	add.Flags().BoolVar(&cu.Flagged, "flagged", false, "Mark the customer as flagged for fraud review")
	_ = add.MarkFlagRequired("ref")

	cmd.AddCommand(add)
	return cmd
}
