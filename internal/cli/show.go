package cli

import (
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/versiontext/internal/cli/shared"
	clierrors "github.com/ariel-frischer/versiontext/internal/errors"
	"github.com/ariel-frischer/versiontext/internal/progress"
	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

var showCmd = &cobra.Command{
	Use:   "show [version]",
	Short: "Print releases from VERSION.txt",
	Long: `Print releases from VERSION.txt, newest first.

The version argument may be a raw version (9.4.1) or a full identifier
(jetty-9.4.1).`,
	Example: `  # Everything
  versiontext show

  # One release
  versiontext show 9.4.1

  # The last three releases as YAML
  versiontext show --last 3 --yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.GroupID = shared.GroupInspect
	addDocumentFlags(showCmd)
	showCmd.Flags().IntP("last", "n", 0, "Show only the N most recent releases")
	showCmd.Flags().Bool("plain", false, "Plain output without colors")
	showCmd.Flags().Bool("yaml", false, "Output YAML")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, documentFlagKeys)
	if err != nil {
		return err
	}

	doc, textPattern, err := readDocument(cfg)
	if err != nil {
		return err
	}

	releases := doc.Releases()
	if len(args) == 1 {
		rel := doc.FindRelease(args[0])
		if rel == nil {
			rel = doc.FindRelease(textPattern.ToVersionID(args[0]))
		}
		if rel == nil {
			return clierrors.ReleaseNotFound(args[0])
		}
		releases = []*versiontext.Release{rel}
	}

	last, _ := cmd.Flags().GetInt("last")
	if last < 0 {
		return clierrors.NewArgumentError("--last must not be negative")
	}
	if last > 0 && last < len(releases) {
		releases = releases[:last]
	}

	out := cmd.OutOrStdout()
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		data, err := versiontext.MarshalYAML(releases)
		if err != nil {
			return clierrors.Wrap(err, clierrors.Runtime)
		}
		_, err = out.Write(data)
		return err
	}

	plain, _ := cmd.Flags().GetBool("plain")
	caps := progress.DetectTerminalCapabilities()
	return versiontext.FormatReleases(releases, out, versiontext.FormatOptions{
		Plain:    plain || !caps.SupportsColor,
		MaxWidth: caps.Width,
	})
}
