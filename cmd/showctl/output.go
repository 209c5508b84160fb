package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/iliyamo/band-manager/internal/apiclient"
	"github.com/iliyamo/band-manager/internal/model"
	"github.com/iliyamo/band-manager/internal/reconcile"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printShows(w io.Writer, shows []model.Show) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tVENUE\tSTATUS\tPAYMENT")
	for _, s := range shows {
		tod := "-"
		if s.ShowTime != nil {
			tod = s.ShowTime.String()
		}
		pay := "-"
		if s.Payment != nil {
			pay = s.Payment.StringFixed(2)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.ShowDate, tod, s.Venue, s.Status, pay)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, sum model.PaymentSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMEMBER\tAMOUNT\tNOTES")
	for _, e := range sum.MemberPayments {
		notes := ""
		if e.Notes != nil {
			notes = *e.Notes
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.MemberName, e.Amount.StringFixed(2), notes)
	}
	fmt.Fprintf(tw, "\ttotal payment\t%s\t\n", sum.TotalPayment.StringFixed(2))
	fmt.Fprintf(tw, "\tband fund\t%s\t\n", sum.BandFundAmount.StringFixed(2))
	fmt.Fprintf(tw, "\tpaid to members\t%s\t\n", sum.TotalMemberPayments.StringFixed(2))
	return tw.Flush()
}

// describe renders err for the terminal, listing field problems one per
// line.
func describe(err error) string {
	if apiclient.IsUnauthorized(err) {
		return "not logged in or token expired; run showctl login"
	}
	var re *reconcile.Error
	if errors.As(err, &re) && len(re.Fields) > 0 {
		names := make([]string, 0, len(re.Fields))
		for name := range re.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		var b strings.Builder
		b.WriteString(re.Op + ": invalid input")
		for _, name := range names {
			fmt.Fprintf(&b, "\n  %s: %s", name, re.Fields[name])
		}
		return b.String()
	}
	if errors.Is(err, reconcile.ErrSessionState) {
		return err.Error() + "; reload the show and try again"
	}
	return err.Error()
}
