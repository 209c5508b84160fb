package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/band-manager/internal/reconcile"
)

func newShowsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "shows", Short: "List, create and edit shows"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the shows of --band",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if a.cfg.BandID == 0 {
					return errors.New("--band is required")
				}
				shows, err := a.client.Shows().List(cmd.Context(), a.cfg.BandID)
				if err != nil {
					return err
				}
				return printShows(a.out, shows)
			},
		},
		&cobra.Command{
			Use:   "get <show-id>",
			Short: "Print one show as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				s, err := a.client.Shows().Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(a.out, s)
			},
		},
		&cobra.Command{
			Use:   "delete <show-id>",
			Short: "Delete a show and its ledger",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.client.Shows().Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "deleted show %d\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "candidates <show-id>",
			Short: "Suggest member names for the ledger of a show",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.openEdit(cmd.Context(), args[0])
				if err != nil && s == nil {
					return err
				}
				for _, name := range s.Candidates(cmd.Context()) {
					fmt.Fprintln(a.out, name)
				}
				_ = s.Cancel()
				return nil
			},
		},
		newShowCreateCmd(a),
		newShowEditCmd(a),
	)
	return cmd
}

type editFlags struct {
	set    []string
	poster string
}

func (f *editFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "field=value, repeatable; fields: "+strings.Join(reconcile.EditableFields, ", "))
	cmd.Flags().StringVar(&f.poster, "poster", "", "image file to upload as the poster")
}

// apply feeds the flags into a session in order, then queues the poster.
func (f *editFlags) apply(ctx context.Context, s *reconcile.Session) error {
	assigns, err := parseAssignments(f.set)
	if err != nil {
		return err
	}
	for _, as := range assigns {
		if err := s.SetField(ctx, as.field, as.value); err != nil {
			return err
		}
	}
	if f.poster == "" {
		return nil
	}
	data, err := os.ReadFile(f.poster)
	if err != nil {
		return err
	}
	return s.SetPoster(data, filepath.Base(f.poster))
}

func newShowCreateCmd(a *app) *cobra.Command {
	var flags editFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a show for --band",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.BandID == 0 {
				return errors.New("--band is required")
			}
			s := a.controller().OpenForCreate(a.cfg.BandID)
			if err := flags.apply(cmd.Context(), s); err != nil {
				return err
			}
			saved, err := s.Submit(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(a.out, saved)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newShowEditCmd(a *app) *cobra.Command {
	var flags editFlags
	cmd := &cobra.Command{
		Use:   "edit <show-id>",
		Short: "Change fields of a show",
		Long: "Change fields of a show.  Moving a show away from\n" +
			"\"Complete - Payment Received\" deletes its payment ledger.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openEdit(ctx, args[0])
			if err != nil {
				return err
			}
			if err := flags.apply(ctx, s); err != nil {
				return err
			}
			if s.ClearsLedger() {
				if n := len(s.Ledger()); s.LedgerLoaded() && n > 0 {
					fmt.Fprintf(a.errOut, "clearing %d ledger entries\n", n)
				} else {
					fmt.Fprintln(a.errOut, "clearing payment ledger")
				}
			}
			saved, err := s.Submit(ctx)
			if err != nil {
				return err
			}
			return printJSON(a.out, saved)
		},
	}
	flags.bind(cmd)
	return cmd
}

// openEdit loads a show and opens a session on it.  A failed ledger fetch
// still returns the session together with the error.
func (a *app) openEdit(ctx context.Context, rawID string) (*reconcile.Session, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	show, err := a.client.Shows().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.controller().OpenForEdit(ctx, show)
}

type assignment struct {
	field string
	value string
}

func parseAssignments(raw []string) ([]assignment, error) {
	out := make([]assignment, 0, len(raw))
	for _, r := range raw {
		field, value, ok := strings.Cut(r, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("--set %q: want field=value", r)
		}
		out = append(out, assignment{field: field, value: value})
	}
	return out, nil
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
