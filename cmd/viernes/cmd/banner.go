package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

const banner = `
 __   ___                         
 \ \ / (_) ___ _ __ _ __   ___  ___ 
  \ V /| |/ _ \ '__| '_ \ / _ \/ __|
   | | | |  __/ |  | | | |  __/\__ \
   |_| |_|\___|_|  |_| |_|\___||___/
`

func printBanner(w io.Writer, subtitle string) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  %s - Version %s\x1b[0m\n\n", subtitle, Version)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "viernes %s\n", Version)
		},
	}
}
