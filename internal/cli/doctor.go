package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/versiontext/internal/cli/shared"
	"github.com/ariel-frischer/versiontext/internal/git"
	"github.com/ariel-frischer/versiontext/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that update can run here",
	Long: `Run health checks for the current project: the git executable (cli
backend only), the repository, VERSION.txt, release header keys, tags for
the current version and the tag of the prior release.

Exits with code 4 when a check fails. Checks marked ! pass but change what
update does.`,
	Example: `  versiontext doctor
  versiontext doctor --backend cli --tag-key vVERSION`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

// doctorFlagKeys maps doctor flags to config keys.
var doctorFlagKeys = map[string]string{
	"input":    "input",
	"text-key": "text_key",
	"tag-key":  "tag_key",
	"version":  "version",
	"backend":  "git.backend",
}

func init() {
	doctorCmd.GroupID = shared.GroupInspect
	addDoctorFlags(doctorCmd)
	rootCmd.AddCommand(doctorCmd)
}

func addDoctorFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "VERSION.txt to check")
	cmd.Flags().String("text-key", "", "Identifier template in VERSION.txt")
	cmd.Flags().String("tag-key", "", "Identifier template of git tags")
	cmd.Flags().String("version", "", "Raw project version")
	cmd.Flags().String("backend", "", "Git backend: go-git or cli")
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd, doctorFlagKeys)
	if err != nil {
		return err
	}

	var gw git.Gateway
	opts, gwErr := cfg.GatewayOptions()
	if gwErr == nil {
		gw, gwErr = openBackend(cmd.Context(), cfg, opts)
	}

	report := health.RunHealthChecks(cmd.Context(), cfg, gw, gwErr)
	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
	if !report.Passed {
		return shared.NewExitError(shared.ExitMissingDependency)
	}
	return nil
}
