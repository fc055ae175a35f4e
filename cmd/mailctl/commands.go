package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/illegalcall/storefront-mailer/internal/api"
	"github.com/illegalcall/storefront-mailer/internal/bootstrap"
	"github.com/illegalcall/storefront-mailer/internal/config"
	"github.com/illegalcall/storefront-mailer/internal/email"
	"github.com/illegalcall/storefront-mailer/internal/models"
	"github.com/illegalcall/storefront-mailer/internal/subscriber"
	"github.com/illegalcall/storefront-mailer/pkg/database"
)

var errNoStore = errors.New("SUBSCRIBER_BACKEND is none")

// app is the state shared by every subcommand, filled in by the root
// command's PersistentPreRunE.
type app struct {
	out     io.Writer
	cfg     *config.Config
	logger  *slog.Logger
	timeout time.Duration
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "mailctl",
		Short:         "Operate the storefront mailer",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = bootstrap.NewLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "deadline for network operations")

	root.AddCommand(
		a.verifyCommand(),
		a.sendTestCommand(),
		a.subscribersCommand(),
		a.tokenCommand(),
	)
	return root
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

func (a *app) dispatcher() (*email.Dispatcher, error) {
	t, err := bootstrap.NewTransport(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	return bootstrap.NewDispatcher(a.cfg, t, a.logger)
}

func (a *app) store(ctx context.Context) (subscriber.Store, *database.Clients, error) {
	store, clients, err := bootstrap.NewStore(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		clients.Close()
		return nil, nil, errNoStore
	}
	return store, clients, nil
}

func (a *app) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the mail transport accepts a connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			d, err := a.dispatcher()
			if err != nil {
				return err
			}
			if err := d.TestConnection(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "✅ %s transport verified\n", a.cfg.Mail.Transport)
			return nil
		},
	}
}

func (a *app) sendTestCommand() *cobra.Command {
	var payload models.TestPayload

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send a test email through the configured transport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			d, err := a.dispatcher()
			if err != nil {
				return err
			}
			body, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			receipt, err := d.Handle(ctx, string(email.ActionTest), body)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "📨 Sent to %s (message id %s)\n", receipt.Recipient, receipt.MessageID)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload.To, "to", "", "recipient address")
	cmd.Flags().StringVar(&payload.Subject, "subject", "Test email", "subject line")
	cmd.Flags().StringVar(&payload.Message, "message", "This is a test email from mailctl.", "message body")
	cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) subscribersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Inspect and edit newsletter subscribers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List subscribers, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			store, clients, err := a.store(ctx)
			if err != nil {
				return err
			}
			defer clients.Close()

			subs, err := store.List(ctx)
			if err != nil {
				return err
			}
			return writeSubscribers(a.out, subs)
		},
	}

	var code string
	add := &cobra.Command{
		Use:   "add EMAIL",
		Short: "Add or reactivate a subscriber without sending the welcome email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			discount := code
			if discount == "" {
				generated, err := email.NewDiscountCode()
				if err != nil {
					return err
				}
				discount = generated
			}

			store, clients, err := a.store(ctx)
			if err != nil {
				return err
			}
			defer clients.Close()

			sub := models.Subscriber{
				Email:        subscriber.NormalizeEmail(args[0]),
				IsActive:     true,
				DiscountCode: discount,
				SubscribedAt: time.Now().UTC(),
			}
			if err := store.Upsert(ctx, sub); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "✅ %s subscribed with code %s\n", sub.Email, sub.DiscountCode)
			return nil
		},
	}
	add.Flags().StringVar(&code, "code", "", "discount code (generated when empty)")

	cmd.AddCommand(list, add)
	return cmd
}

func (a *app) tokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ttl := ttl
			if ttl == 0 {
				ttl = a.cfg.JWT.Expiration
			}
			token, err := api.IssueAdminToken(a.cfg.JWT.Secret, subject, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "mailctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_EXPIRATION)")
	return cmd
}

func writeSubscribers(w io.Writer, subs []models.Subscriber) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tACTIVE\tCODE\tSUBSCRIBED")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", s.Email, s.IsActive, s.DiscountCode, s.SubscribedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
