package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/consorcioci/viernes/access"
	"github.com/consorcioci/viernes/auth"
	"github.com/consorcioci/viernes/internal/util"
)

// backKeyword, entered at a password prompt, returns to the previous step.
const backKeyword = "<"

func newLoginCmd(a *app) *cobra.Command {
	var cedula string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your cedula",
		Long: `Sign in with your cedula. First-time users enter the temporary password
they were given and then choose a permanent one.

Enter "<" at a password prompt to go back one step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			res, err := a.session()
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if u, ok := res.CurrentUser(); ok {
				fmt.Fprintf(out, "Currently signed in as %s; a new login replaces that session.\n", u.Name)
			}

			flow := auth.NewFlow(c, res, auth.WithLogger(a.logger))
			defer flow.Close()
			p := newPrompter(cmd.InOrStdin(), out)
			if err := runLogin(ctx, flow, p, cedula); err != nil {
				return err
			}

			user, _ := res.CurrentUser()
			fmt.Fprintf(out, "Welcome, %s (%s).\n", user.Name, user.Role)
			printTabs(out, res.VisibleTabs(access.Menu))
			return nil
		},
	}
	cmd.Flags().StringVar(&cedula, "cedula", "", "Cedula to sign in with (prompted when empty)")
	return cmd
}

// runLogin drives flow to StepAuthenticated, re-prompting after each
// recoverable error.
func runLogin(ctx context.Context, flow *auth.Flow, p *prompter, cedula string) error {
	for flow.Step() != auth.StepAuthenticated {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := loginStep(ctx, flow, p, &cedula)
		var fe *auth.FlowError
		switch {
		case err == nil:
		case errors.As(err, &fe):
			fmt.Fprintf(p.out, "✗ %s\n", fe.Message)
		default:
			return err
		}
	}
	return nil
}

func loginStep(ctx context.Context, flow *auth.Flow, p *prompter, cedula *string) error {
	switch flow.Step() {
	case auth.StepCedula:
		c := *cedula
		*cedula = ""
		if c == "" {
			var err error
			if c, err = p.line("Cédula: "); err != nil {
				return err
			}
		}
		return flow.SubmitCedula(ctx, c)

	case auth.StepTemporaryPassword:
		if name := flow.State().Name; name != "" {
			fmt.Fprintf(p.out, "Hello %s. This is your first login.\n", name)
		}
		pw, err := p.secret("Temporary password: ")
		if err != nil {
			return err
		}
		if isBack(pw) {
			return flow.Back()
		}
		return flow.SubmitTemporaryPassword(ctx, pw)

	case auth.StepNormalPassword:
		pw, err := p.secret("Password: ")
		if err != nil {
			return err
		}
		if isBack(pw) {
			return flow.Back()
		}
		return flow.SubmitNormalPassword(ctx, pw)

	case auth.StepChangePassword:
		fmt.Fprintf(p.out, "Choose a new password: at least %d characters with an upper-case letter, a lower-case letter and a digit.\n",
			auth.MinPasswordLength)
		pw, err := p.secret("New password: ")
		if err != nil {
			return err
		}
		if isBack(pw) {
			return flow.Back()
		}
		if len(pw) > 0 {
			fmt.Fprintf(p.out, "Strength: %s\n", auth.PasswordStrength(string(pw)))
		}
		confirm, err := p.secret("Confirm password: ")
		if err != nil {
			util.WipeBytes(pw)
			return err
		}
		return flow.SubmitChangePassword(ctx, pw, confirm)
	}
	return fmt.Errorf("unexpected step %s", flow.Step())
}

func isBack(pw []byte) bool {
	if strings.TrimSpace(string(pw)) != backKeyword {
		return false
	}
	util.WipeBytes(pw)
	return true
}

func printTabs(w io.Writer, tabs []access.MenuTab) {
	if len(tabs) == 0 {
		return
	}
	labels := make([]string, len(tabs))
	for i, t := range tabs {
		labels[i] = t.Label
	}
	fmt.Fprintf(w, "Available: %s\n", strings.Join(labels, ", "))
}
