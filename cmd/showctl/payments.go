package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iliyamo/band-manager/internal/reconcile"
)

func newPaymentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "payments", Short: "Per-member payment ledger of a show"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <show-id>",
			Short: "Print the ledger and totals",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				sum, err := a.client.Ledger().Summary(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printSummary(a.out, sum)
			},
		},
		newPaymentAddCmd(a),
		&cobra.Command{
			Use:   "rm <show-id> <entry-id>",
			Short: "Remove a ledger entry",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				entryID, err := parseID(args[1])
				if err != nil {
					return err
				}
				return a.withLedger(cmd.Context(), args[0], func(s *reconcile.Session) error {
					if err := s.RemoveLedgerEntry(cmd.Context(), entryID); err != nil {
						return err
					}
					fmt.Fprintf(a.out, "removed entry %d, %d left\n", entryID, len(s.Ledger()))
					return nil
				})
			},
		},
	)
	return cmd
}

func newPaymentAddCmd(a *app) *cobra.Command {
	var member, amount, notes string
	cmd := &cobra.Command{
		Use:   "add <show-id>",
		Short: "Record a payment to a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("--amount %q: not a number", amount)
			}
			var notesPtr *string
			if notes != "" {
				notesPtr = &notes
			}
			return a.withLedger(cmd.Context(), args[0], func(s *reconcile.Session) error {
				entry, err := s.AddLedgerEntry(cmd.Context(), member, &value, notesPtr)
				if err != nil {
					return err
				}
				return printJSON(a.out, entry)
			})
		},
	}
	cmd.Flags().StringVar(&member, "member", "", "member name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount paid")
	cmd.Flags().StringVar(&notes, "notes", "", "optional notes")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// withLedger opens a session on a paid show and runs fn with the ledger
// visible.  The show record itself is never submitted.
func (a *app) withLedger(ctx context.Context, rawID string, fn func(*reconcile.Session) error) error {
	s, err := a.openEdit(ctx, rawID)
	if err != nil {
		return err
	}
	defer func() { _ = s.Cancel() }()
	if s.State() != reconcile.StateLedgerReady {
		return errors.New("the ledger is only editable while the show is \"Complete - Payment Received\"")
	}
	return fn(s)
}
