package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/band-manager/internal/apiclient"
	"github.com/iliyamo/band-manager/internal/config"
	"github.com/iliyamo/band-manager/internal/logger"
	"github.com/iliyamo/band-manager/internal/reconcile"
)

// app carries the flags shared by every subcommand.
type app struct {
	cfg     config.ClientConfig
	verbose bool
	out     io.Writer
	errOut  io.Writer

	log    *zap.Logger
	client *apiclient.Client
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{cfg: config.LoadClientConfig(), out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "showctl",
		Short:         "Manage band shows and payment ledgers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.APIURL, "api", a.cfg.APIURL, "API base URL (BANDCTL_API_URL)")
	pf.StringVar(&a.cfg.Token, "token", a.cfg.Token, "bearer token (BANDCTL_TOKEN)")
	pf.Uint64Var(&a.cfg.BandID, "band", a.cfg.BandID, "band id (BANDCTL_BAND_ID)")
	pf.IntVar(&a.cfg.Timeout, "timeout", a.cfg.Timeout, "request timeout in seconds")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log API calls and session transitions")

	root.AddCommand(newLoginCmd(a), newShowsCmd(a), newPaymentsCmd(a))
	return root
}

func (a *app) setup() {
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.log = logger.NewTo(config.LogConfig{Level: level, Format: "console"}, a.errOut)
	timeout := time.Duration(a.cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	a.client = apiclient.New(a.cfg.APIURL,
		apiclient.WithToken(a.cfg.Token),
		apiclient.WithTimeout(timeout),
		apiclient.WithLogger(a.log))
}

func (a *app) controller() *reconcile.Controller {
	c := a.client
	return reconcile.NewController(c.Shows(), c.Ledger(), c.Directory(), reconcile.WithLogger(a.log))
}
