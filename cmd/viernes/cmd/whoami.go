package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/consorcioci/viernes/access"
	"github.com/consorcioci/viernes/client"
	"github.com/consorcioci/viernes/session"
)

// errSessionExpired is returned when the server no longer accepts the
// stored token. The local session has been cleared by then.
var errSessionExpired = errors.New("session expired; run `viernes login` again")

func newWhoamiCmd(a *app) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, token, user, err := a.signedIn()
			if err != nil {
				return err
			}
			if verify {
				if user, err = a.verify(cmd, res, token); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:   %s\n", user.Name)
			fmt.Fprintf(out, "Cedula: %s\n", user.Cedula)
			if user.Cargo != "" {
				fmt.Fprintf(out, "Cargo:  %s\n", user.Cargo)
			}
			fmt.Fprintf(out, "Role:   %s\n", user.Role)

			var perms []string
			for _, p := range access.Permissions() {
				if res.HasPermission(p) {
					perms = append(perms, string(p))
				}
			}
			if len(perms) > 0 {
				fmt.Fprintf(out, "Permissions: %s\n", strings.Join(perms, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "Check the token with the server and refresh the stored identity")
	return cmd
}

// verify asks the server who the token belongs to and refreshes the stored
// identity. A rejected token clears the whole session. Network failures
// keep the cached identity.
func (a *app) verify(cmd *cobra.Command, res *session.Resolver, token string) (session.User, error) {
	c, err := a.client()
	if err != nil {
		return session.User{}, err
	}
	profile, err := c.VerifyToken(cmd.Context(), token)
	switch {
	case err == nil:
		if err := res.Refresh(session.Identity{Cedula: profile.Cedula, Name: profile.Name, Cargo: profile.Cargo}); err != nil {
			return session.User{}, err
		}
	case errors.Is(err, client.ErrUnauthorized):
		if cerr := res.Clear(); cerr != nil {
			return session.User{}, cerr
		}
		return session.User{}, errSessionExpired
	case client.IsTransport(err):
		a.logger.Warn("token verification unavailable, showing cached identity", "error", err)
	default:
		return session.User{}, fmt.Errorf("verifying token: %w", err)
	}
	user, ok := res.CurrentUser()
	if !ok {
		return session.User{}, errNotSignedIn
	}
	return user, nil
}
