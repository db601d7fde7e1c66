package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"refund-lifecycle-be/internal/config"
	"refund-lifecycle-be/internal/pkg/serverutils"
	"refund-lifecycle-be/pkg/events"

	pktNats "refund-lifecycle-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var durable string
	cmd := &cobra.Command{
		Use:   "watch [event-type]",
		Short: "Stream back-office events from NATS (default: all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.App.NatsURL == "" {
				return errors.New("NATS_URL is not set")
			}
			sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
			if err != nil {
				return err
			}
			defer sub.Close()

			subject := pktNats.Subject(">")
			if len(args) == 1 {
				subject = pktNats.Subject(args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			unsubscribe, err := sub.Subscribe(ctx, subject, durable, func(_ context.Context, evt events.Event) error {
				color.New(color.FgCyan).Printf("%s ", evt.Timestamp().Format(time.RFC3339))
				color.New(color.Bold).Printf("%-22s", evt.EventType())
				fmt.Printf(" %v\n", evt.Payload())
				return nil
			})
			if err != nil {
				return err
			}
			defer unsubscribe()

			fmt.Printf("Watching %s (Ctrl+C to stop)\n", subject)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&durable, "durable", "", "Durable consumer name (resume where it left off)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Sign an API token for a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.Keys.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := serverutils.SignToken(cfg.Keys.JWTSecret, args[0], role)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", serverutils.RoleStaff, "Role claim (customer, staff, admin, gateway)")
	return cmd
}
