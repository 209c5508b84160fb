// Command showctl edits band shows and their payment ledgers through the
// REST API.  Every change runs through a reconcile session, so leaving
// Complete - Payment Received clears the ledger the same way the UI does.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}
