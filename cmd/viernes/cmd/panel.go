package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/consorcioci/viernes/client"
	"github.com/consorcioci/viernes/dashboard"
)

func newPanelCmd(a *app) *cobra.Command {
	var watch bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Show the dashboard summary counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.session()
			if err != nil {
				return err
			}
			token, _ := res.Token()
			c, err := a.client()
			if err != nil {
				return err
			}
			fetch := func(ctx context.Context) (client.PanelInfo, error) {
				return c.PanelInfo(ctx, token)
			}
			out := cmd.OutOrStdout()

			if !watch {
				info, err := fetch(cmd.Context())
				if err != nil {
					return err
				}
				printPanel(out, dashboard.Snapshot{Info: info, FetchedAt: time.Now()})
				return nil
			}
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.PanelInterval
			}
			return watchPanel(cmd.Context(), out, fetch, interval, a)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", dashboard.DefaultPollInterval, "Refresh period with --watch (VIERNES_PANEL_INTERVAL)")
	return cmd
}

// watchPanel prints every refresh until SIGINT or SIGTERM.
func watchPanel(parent context.Context, out io.Writer, fetch dashboard.PanelFetcher, interval time.Duration, a *app) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates := make(chan dashboard.Snapshot, 1)
	poller := dashboard.NewPoller(fetch,
		dashboard.WithInterval(interval),
		dashboard.WithLogger(a.logger),
		dashboard.WithOnUpdate(func(s dashboard.Snapshot) {
			select {
			case updates <- s:
			default:
			}
		}),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(ctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case s := <-updates:
				printPanel(out, s)
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printPanel(w io.Writer, s dashboard.Snapshot) {
	fmt.Fprintf(w, "Panel at %s\n", s.FetchedAt.Format("2006-01-02 15:04:05"))
	keys := make([]string, 0, len(s.Info))
	for k := range s.Info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s\t%s\n", k, client.Record(s.Info).Text(k))
	}
	tw.Flush()
}
