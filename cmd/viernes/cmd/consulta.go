package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/consorcioci/viernes/access"
	"github.com/consorcioci/viernes/client"
	"github.com/consorcioci/viernes/dashboard"
)

// chartWidth is the length of the longest bar in consumption charts.
const chartWidth = 40

func newConsultaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consulta",
		Short: "Run reading-times consultations",
	}
	cmd.AddCommand(newTiemposCmd(a), newMedidorSacCmd(a), newHistorialCmd(a))
	return cmd
}

func newTiemposCmd(a *app) *cobra.Command {
	var tipo string
	cmd := &cobra.Command{
		Use:   "tiempos VALUE",
		Short: "Look up the reading record of a client or meter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, token, user, err := a.signedInFor(access.TabConsulta)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			result, err := c.ConsultaTiempos(cmd.Context(), token, tipo, args[0], user.Name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if m := result.Month(); m != "" {
				fmt.Fprintf(out, "Mes consultado: %s\n", m)
			}
			printRecord(out, res.Role(), result.Registro)
			if pt, ok := dashboard.MapPointFor(result.Registro); ok {
				fmt.Fprintf(out, "\n%s, %s\n  %.6f, %.6f\n", pt.Name, pt.Address, pt.Lat, pt.Lng)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tipo, "tipo", client.TipoCliente, "What VALUE is: cliente or medidor")
	return cmd
}

func newMedidorSacCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "medidor-sac MEDIDOR",
		Short: "Look up a meter in the commercial system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, token, user, err := a.signedInFor(access.TabConsulta)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			rec, err := c.ConsultaMedidorSac(cmd.Context(), token, args[0], user.Name)
			if err != nil {
				return err
			}
			printRecord(cmd.OutOrStdout(), res.Role(), rec)
			return nil
		},
	}
}

func newHistorialCmd(a *app) *cobra.Command {
	var rows bool
	cmd := &cobra.Command{
		Use:   "historial CLIENTE",
		Short: "Chart a client's monthly consumption",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, token, user, err := a.signedInFor(access.TabTiempos)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			hist, err := c.ConsultaTiemposCliente(cmd.Context(), token, args[0], user.Name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cliente %s: %d lecturas\n", args[0], hist.Total)
			if len(hist.Rows) == 0 {
				return nil
			}
			if rows {
				printRows(out, res.Role(), hist.Rows)
				fmt.Fprintln(out)
			}
			printChart(out, dashboard.MonthlyConsumption(hist.Rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&rows, "rows", false, "Also print the raw rows")
	return cmd
}

// printRecord prints the fields role may see, one per line.
func printRecord(w io.Writer, role access.Role, rec client.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	for _, col := range dashboard.VisibleColumns(role, rec) {
		fmt.Fprintf(tw, "%s\t%s\n", col, dashboard.DisplayValue(rec, col))
	}
}

// printRows prints rows as a table with the union of visible columns.
func printRows(w io.Writer, role access.Role, rows []client.Record) {
	seen := make(map[string]struct{})
	var cols []string
	for _, rec := range rows {
		for _, col := range dashboard.VisibleColumns(role, rec) {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				cols = append(cols, col)
			}
		}
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, rec := range rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = dashboard.DisplayValue(rec, col)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
}

// printChart draws one bar per month. Derived values are marked with *,
// anomalies (meter changes) with !.
func printChart(w io.Writer, months []dashboard.Month) {
	bars := dashboard.BarLayout(months, chartWidth)
	for i, b := range bars {
		mark := " "
		switch {
		case b.Anomaly:
			mark = "!"
		case months[i].Derived:
			mark = "*"
		case !months[i].Known:
			mark = "?"
		}
		fmt.Fprintf(w, "%-8s %8.0f%s %s\n", b.Label, b.Value, mark, strings.Repeat("█", b.Length))
	}
	fmt.Fprintln(w, "* derived from readings   ! meter change   ? unknown")
}
