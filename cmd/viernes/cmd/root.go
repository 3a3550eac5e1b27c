// Package cmd implements the viernes command line.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/consorcioci/viernes/access"
	"github.com/consorcioci/viernes/client"
	"github.com/consorcioci/viernes/config"
	"github.com/consorcioci/viernes/session"
	"github.com/consorcioci/viernes/storage"
)

// errNotSignedIn is returned by commands that need a session.
var errNotSignedIn = errors.New("not signed in; run `viernes login` first")

// errTabDenied is returned when the role may not open a command's tab.
var errTabDenied = errors.New("access denied")

// app is the state shared by the commands of one invocation.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	// policy overrides access.DefaultPolicy when set.
	policy *access.Policy

	repo      storage.Repository
	closeRepo func() error
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	var (
		apiURL    string
		store     string
		dataDir   string
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:   "viernes",
		Short: "Operations portal client",
		Long: `viernes signs you in to the operations portal with your cedula, keeps the
session between invocations and runs the consultations your role allows.

Settings come from VIERNES_* environment variables or a .env file; flags
override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if flags.Changed("store") {
				cfg.Store = store
			}
			if flags.Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.NewLogger(cmd.ErrOrStderr())
			slog.SetDefault(a.logger)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&apiURL, "api-url", "", "Portal API base URL (VIERNES_API_URL)")
	pf.StringVar(&store, "store", "", "Session store: memory, bbolt, postgres or redis (VIERNES_STORE)")
	pf.StringVar(&dataDir, "data-dir", "", "Directory of the bbolt session file (VIERNES_DATA_DIR)")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (VIERNES_LOG_LEVEL)")
	pf.StringVar(&logFormat, "log-format", "", "text or json (VIERNES_LOG_FORMAT)")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newTabsCmd(a),
		newConsultaCmd(a),
		newPanelCmd(a),
		newMockServerCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	root, a := newRootCmd()
	err := root.Execute()
	// PersistentPostRunE is skipped when a command fails.
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
		fmt.Fprintln(os.Stderr, "Error:", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// session opens the configured store on first use.
func (a *app) session() (*session.Resolver, error) {
	if a.repo == nil {
		repo, closeFn, err := openStore(a.cfg, sessionFile)
		if err != nil {
			return nil, err
		}
		a.repo, a.closeRepo = repo, closeFn
	}
	opts := []session.Option{session.WithLogger(a.logger)}
	if a.policy != nil {
		opts = append(opts, session.WithPolicy(a.policy))
	}
	return session.New(a.repo, opts...), nil
}

func (a *app) close() error {
	if a.closeRepo == nil {
		return nil
	}
	err := a.closeRepo()
	a.repo, a.closeRepo = nil, nil
	return err
}

func (a *app) client() (*client.Client, error) {
	c, err := client.New(a.cfg.APIURL,
		client.WithTimeout(a.cfg.RequestTimeout),
		client.WithRateLimit(a.cfg.RateLimit, 1),
		client.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}
	return c, nil
}

// signedInFor is signedIn for commands that belong to a dashboard tab. It
// fails when the current role may not open tab.
func (a *app) signedInFor(tab string) (*session.Resolver, string, session.User, error) {
	res, token, user, err := a.signedIn()
	if err != nil {
		return nil, "", session.User{}, err
	}
	if !res.CanAccessTab(tab) {
		return nil, "", session.User{}, fmt.Errorf("%w: role %s may not open %q", errTabDenied, user.Role, tab)
	}
	return res, token, user, nil
}

// signedIn returns the resolver, token and user of the current session.
func (a *app) signedIn() (*session.Resolver, string, session.User, error) {
	res, err := a.session()
	if err != nil {
		return nil, "", session.User{}, err
	}
	token, ok := res.Token()
	if !ok {
		return nil, "", session.User{}, errNotSignedIn
	}
	user, ok := res.CurrentUser()
	if !ok {
		return nil, "", session.User{}, errNotSignedIn
	}
	return res, token, user, nil
}
