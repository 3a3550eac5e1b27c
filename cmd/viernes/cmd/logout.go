package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.session()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			token, ok := res.Token()
			if !ok {
				// Still clear: a half-finished password change may be pending.
				if err := res.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}

			// The server call is best effort; the local session goes regardless.
			if c, err := a.client(); err == nil {
				if err := c.Logout(cmd.Context(), token); err != nil {
					a.logger.Warn("remote logout failed", "error", err)
				}
			}
			if err := res.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Signed out.")
			return nil
		},
	}
}
