// Package cmd implements the cigarscout CLI commands.
package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cigarscout/cigarscout/internal/config"
	"github.com/cigarscout/cigarscout/pkg/errors"
	"github.com/cigarscout/cigarscout/pkg/logging"
)

// Exit codes. Scripts branch on these: 0 means the tracked data is
// current, 1 means a human must look at the run before trusting it
// (listings flagged for review, or a runtime failure that left data
// stale), and 2 means the configuration is wrong and an operator must fix
// it before rerunning.
const (
	ExitOK           = 0
	ExitManualReview = 1
	ExitConfig       = 2
)

var (
	configFile string
	logLevel   string
	verbose    bool

	cfg *config.Config

	// Version is set by main.
	Version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "cigarscout",
	Short: "Cigar price tracker",
	Long: `Cigarscout tracks box prices across cigar retailers. It extracts
price, stock, and quantity from retailer product pages, reconciles every
listing against the master catalog, and audits the tracked files for
drift.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		if logLevel != "" {
			level = logLevel
		}
		logging.Configure(&logging.Config{
			Level:  level,
			Format: cfg.LogFormat,
			Output: "stderr",
		})
		if cfg.ConfigFile != "" {
			logging.Debug().Str("config", cfg.ConfigFile).Msg("loaded config file")
		}
		return nil
	},
}

// exitError carries an explicit process exit code out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, version string) int {
	Version = version
	rootCmd.Version = version

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exit *exitError
	if stderrors.As(err, &exit) {
		fmt.Fprintln(os.Stderr, exit.msg)
		return exit.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	if errors.IsConfiguration(err) {
		return ExitConfig
	}
	// Every other failure leaves the tracked data stale, so it shares the
	// needs-a-human code rather than claiming a third exit value.
	return ExitManualReview
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is ./cigarscout.yaml or $HOME/cigarscout.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"shorthand for --log-level debug")
}
