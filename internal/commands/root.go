package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loanlens/loanlens/internal/buildinfo"
	"github.com/loanlens/loanlens/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	asOf       string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "loanlens",
		Short:   "Borrower risk and recovery metrics from loan snapshots",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", config.FileName, "path to loanlens.yaml")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&flags.asOf, "as-of", "", "ignore snapshots reported after this date (YYYY-MM-DD)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCleanCommand(flags))
	rootCmd.AddCommand(newReportCommand(flags))

	return rootCmd
}
