package config

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/versiontext/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert .versiontext.json to .versiontext.yml",
	Long: `Convert the legacy JSON project config to YAML.

The JSON file is renamed to .versiontext.json.bak once the YAML file is
written. Nothing happens when a YAML config already exists.`,
	Example: `  versiontext config migrate --dry-run
  versiontext config migrate`,
	Args: cobra.NoArgs,
	RunE: runConfigMigrate,
}

func init() {
	migrateCmd.Flags().Bool("dry-run", false, "Report what would be done")
}

func runConfigMigrate(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	res, err := config.MigrateProjectConfig(dryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.Success {
		fmt.Fprintln(out, res.Message)
		return nil
	}

	fmt.Fprintf(out, "%s %s\n", color.GreenString("✓"), res.Message)
	if dryRun {
		return nil
	}
	if err := config.RemoveLegacyConfig(res.SourcePath, false); err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s renamed to %s.bak\n", res.SourcePath, res.SourcePath)
	return nil
}
