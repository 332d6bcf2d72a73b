// Package cli implements the versiontext command tree.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	clicfg "github.com/ariel-frischer/versiontext/internal/cli/config"
	"github.com/ariel-frischer/versiontext/internal/cli/shared"
	"github.com/ariel-frischer/versiontext/internal/config"
	clierrors "github.com/ariel-frischer/versiontext/internal/errors"
	"github.com/ariel-frischer/versiontext/internal/git"
)

var rootCmd = &cobra.Command{
	Use:   "versiontext",
	Short: "Reconcile VERSION.txt with git tags and commits",
	Long: `versiontext keeps a VERSION.txt release history in sync with git.

For the current project version it finds the tag of the previous release
recorded in VERSION.txt, walks the commits since that tag, and merges the
issue references it finds into the current version's section.

Configuration is loaded with the following priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (VERSIONTEXT_*)
  3. Project config (.versiontext.yml)
  4. User config (~/.config/versiontext/config.yml)
  5. Built-in defaults`,
	Example: `  # Add the issues fixed since the last release to 9.4.1
  versiontext update --version 9.4.1

  # Refresh tags first and stamp today's date
  versiontext update --refresh-tags --update-date

  # Validate the document
  versiontext check

  # Show the three most recent releases
  versiontext show --last 3`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: shared.GroupReconcile, Title: "Reconcile:"},
		&cobra.Group{ID: shared.GroupInspect, Title: "Inspect:"},
		&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration:"},
	)
	addPersistentFlags(rootCmd)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(),
			"Use 'versiontext "+cmd.Name()+" --help' to see valid options")
	})

	clicfg.ConfigCmd.GroupID = shared.GroupConfiguration
	rootCmd.AddCommand(clicfg.ConfigCmd)
}

// addPersistentFlags registers the flags shared by every command.
func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Project config file (default .versiontext.yml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("repo", "", "Directory inside the git repository (overrides git.dir)")
}

// Execute runs the root command and prints any error with remediation.
// The returned error carries the exit code.
func Execute() error {
	return execute(context.Background(), rootCmd, os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) error {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	var exitErr *shared.ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	cliErr := clierrors.AsCLIError(err)
	if cliErr == nil {
		cliErr = clierrors.Wrap(err, clierrors.Runtime)
	}
	clierrors.FprintError(stderr, cliErr)
	return shared.NewExitError(shared.CategoryExitCode(cliErr.Category))
}

// loadConfig loads the layered configuration with the command's changed
// flags as overrides, and returns a logger configured from it.
func loadConfig(cmd *cobra.Command, flagKeys map[string]string) (*config.Configuration, *logrus.Logger, error) {
	overrides, err := flagOverrides(cmd, flagKeys)
	if err != nil {
		return nil, nil, err
	}
	if repo, _ := cmd.Flags().GetString("repo"); repo != "" {
		overrides["git.dir"] = repo
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: configPath,
		Overrides:         overrides,
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, clierrors.ConfigInvalid(err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, verbose)
	git.SetDebugLogger(logger.Debugf)

	return cfg, logger, nil
}

// newLogger returns a logrus logger writing plain text to w.
func newLogger(w io.Writer, level string, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if verbose && lvl < logrus.DebugLevel {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}
