package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/consorcioci/viernes/access"
)

func newTabsCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "List the dashboard tabs your role may open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.session()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Role: %s\n", res.Role())

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			defer tw.Flush()
			if !all {
				for _, t := range res.VisibleTabs(access.Menu) {
					fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.Label)
				}
				return nil
			}

			policy := res.Policy()
			fmt.Fprintln(tw, "TAB\tACCESS\tROLES")
			for _, id := range policy.Tabs() {
				mark := "-"
				if res.CanAccessTab(id) {
					mark = "yes"
				}
				roles := policy.AllowedRoles(id)
				names := make([]string, len(roles))
				for i, r := range roles {
					names[i] = string(r)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", id, mark, strings.Join(names, ","))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Show every tab, including denied ones, with the roles that may open it")
	return cmd
}
