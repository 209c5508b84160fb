package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print an access token for BANDCTL_TOKEN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("BANDCTL_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password (or BANDCTL_PASSWORD) are required")
			}
			s, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "logged in as %s, token expires %s\n", s.User.Email, s.Access.Expires.Format("2006-01-02 15:04"))
			fmt.Fprintln(a.out, s.Access.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}
