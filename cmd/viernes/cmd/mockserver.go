package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/consorcioci/viernes/api"
)

type mockServerOptions struct {
	port           int
	seed           uint64
	persist        bool
	tlsCert        string
	tlsKey         string
	webhookURL     string
	webhookHeader  string
	trustedProxies []string
}

func newMockServerCmd(a *app) *cobra.Command {
	var o mockServerOptions
	cmd := &cobra.Command{
		Use:   "mockserver",
		Short: "Run a local stand-in for the portal API",
		Long: `Run a development server implementing the portal's authentication and
consultation endpoints with demo users and synthetic readings. Point
VIERNES_API_URL at http://localhost:<port>/api to use it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMockServer(cmd, o)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&o.port, "port", "p", 3005, "Port to listen on")
	f.Uint64Var(&o.seed, "seed", 1, "Seed of the synthetic readings")
	f.BoolVar(&o.persist, "persist", false, "Keep tokens and the consultation log in the configured store")
	f.StringVar(&o.tlsCert, "tls-cert", "", "Path to TLS certificate file")
	f.StringVar(&o.tlsKey, "tls-key", "", "Path to TLS key file")
	f.StringVar(&o.webhookURL, "audit-webhook", "", "POST audit events to this URL")
	f.StringVar(&o.webhookHeader, "audit-webhook-header", "", `Header sent with audit events, "Name: value"`)
	f.StringSliceVar(&o.trustedProxies, "trusted-proxy", nil, "CIDR of a reverse proxy whose X-Forwarded-For is trusted")
	return cmd
}

func (a *app) runMockServer(cmd *cobra.Command, o mockServerOptions) error {
	out := cmd.OutOrStdout()
	logger := a.logger.With("component", "mockserver")

	dir := api.NewDirectory()
	temps := make(map[string]string)
	for _, u := range api.DemoUsers() {
		temp, err := dir.Add(u)
		if err != nil {
			return fmt.Errorf("seeding users: %w", err)
		}
		temps[u.Cedula] = temp
	}

	proxies := make([]netip.Prefix, 0, len(o.trustedProxies))
	for _, s := range o.trustedProxies {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return fmt.Errorf("invalid --trusted-proxy %q: %w", s, err)
		}
		proxies = append(proxies, p)
	}

	opts := []api.Option{
		api.WithLogger(a.logger),
		api.WithSeed(o.seed),
		api.WithTrustedProxies(proxies...),
		api.WithAlertFunc(func(e api.AlertEvent) {
			logger.Warn("anomaly detected", "type", e.Type, "count", e.Count, "threshold", e.Threshold)
		}),
	}
	if o.webhookURL != "" {
		opts = append(opts, api.WithAuditWebhook(o.webhookURL, o.webhookHeader))
	}
	if o.persist {
		repo, closeRepo, err := openStore(a.cfg, mockServerFile)
		if err != nil {
			return err
		}
		defer closeRepo()
		store := api.NewPersistentSessionStore(repo, 0)
		defer store.Close()
		opts = append(opts, api.WithSessionStore(store), api.WithRepository(repo))
	}
	srv := api.New(dir, opts...)
	defer srv.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Mount("/api", srv.Router())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", o.port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	useTLS := o.tlsCert != "" && o.tlsKey != ""
	if useTLS {
		cert, err := tls.LoadX509KeyPair(o.tlsCert, o.tlsKey)
		if err != nil {
			return fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}

	done := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- fmt.Errorf("server failed: %w", err)
			return
		}
		done <- nil
	}()

	printBanner(out, "Portal API mock server")
	scheme := "http"
	if useTLS {
		scheme = "https"
	}
	fmt.Fprintf(out, "Listening on %s://localhost:%d/api (docs at /api/docs)\n\n", scheme, o.port)
	printDemoUsers(out, temps)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return <-done
	case err := <-done:
		return err
	}
}

func printDemoUsers(w io.Writer, temps map[string]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "CEDULA\tNAME\tCARGO\tPASSWORD")
	for _, u := range api.DemoUsers() {
		pw := u.Password
		switch {
		case u.Inactive:
			pw = "(inactive)"
		case temps[u.Cedula] != "":
			pw = temps[u.Cedula] + " (temporary)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Cedula, u.Name, u.Cargo, pw)
	}
}
