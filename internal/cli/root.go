// Package cli implements the multisecret command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisecret/internal/config"
	"github.com/mrz1836/multisecret/internal/metrics"
	"github.com/mrz1836/multisecret/internal/output"
	"github.com/mrz1836/multisecret/internal/version"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// BuildInfo carries release metadata injected into main.
type BuildInfo = version.Info

// Command group IDs shown in root help.
const (
	groupSharing = "sharing"
	groupFiles   = "files"
	groupConfig  = "config"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	buildInfo BuildInfo
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "multisecret",
	Short: "Share several secrets among participants with per-secret access groups",
	Long: `multisecret splits several secrets at once among n participants.

Each secret has its own access structure: a list of qualified groups, any one
of which can reconstruct it. A participant receives one private share per
group they belong to, and everything else needed for reconstruction is
published in a public bundle.

Three schemes are supported: roy-adhikari, lin-yeh and herranz-ruiz-saez.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command and prints any error in the active format.
func Execute(info BuildInfo) error {
	buildInfo = version.Resolve(info)

	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return mserr.ExitCode(err)
}

func formatVersion(info BuildInfo) string {
	return info.String()
}

// initGlobals loads configuration, then applies environment and flag overrides.
func initGlobals() error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		cfg = config.Defaults()
		cfg.Home = home
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	logger, err = config.OpenLogger(cfg.Logging)
	if err != nil {
		logger = config.NullLogger()
	}

	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), os.Stdout)
	return nil
}

// cleanup logs the run's metrics and releases resources.
func cleanup() {
	if logger == nil {
		return
	}
	if snap := metrics.Global.Snapshot(); !snap.IsZero() {
		logger.DebugAttrs("metrics", snap.Attrs()...)
	}
	_ = logger.Close()
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupSharing, Title: "Secret Sharing:"},
		&cobra.Group{ID: groupFiles, Title: "Share Files:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)

	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "multisecret data directory (default: ~/.multisecret)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
