package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/versiontext/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a commented configuration file",
	Long: `Write a configuration file with every key at its default value.

By default .versiontext.yml is created in the current directory (or in dir).
With --user the user-level config is written instead. Existing files are
left unchanged unless --force is given.`,
	Example: `  versiontext config init
  versiontext config init ~/src/jetty
  versiontext config init --user --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().Bool("user", false, "Write the user-level config")
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	userLevel, _ := cmd.Flags().GetBool("user")
	force, _ := cmd.Flags().GetBool("force")

	path, err := initTargetPath(args, userLevel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(out, "%s Config exists: %s (use --force to overwrite)\n", color.YellowString("!"), path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "%s Created %s\n", color.GreenString("✓"), path)
	return nil
}
