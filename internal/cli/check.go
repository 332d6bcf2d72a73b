package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/versiontext/internal/cli/shared"
	"github.com/ariel-frischer/versiontext/internal/config"
	clierrors "github.com/ariel-frischer/versiontext/internal/errors"
	"github.com/ariel-frischer/versiontext/internal/pattern"
	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// documentFlagKeys maps the flags of read-only commands to config keys.
var documentFlagKeys = map[string]string{
	"input":       "input",
	"text-key":    "text_key",
	"date-format": "date_format",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate VERSION.txt",
	Long: `Parse VERSION.txt and report its releases and issues.

Exits non-zero when the document is malformed. Release headers that do not
follow text_key are reported as warnings, since update would reject them as
a prior version.`,
	Example: `  versiontext check
  versiontext check --input docs/VERSION.txt --text-key vVERSION`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.GroupID = shared.GroupInspect
	addDocumentFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "VERSION.txt to read")
	cmd.Flags().String("text-key", "", "Identifier template in VERSION.txt")
	cmd.Flags().String("date-format", "", "Release date layout in Go time format")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd, documentFlagKeys)
	if err != nil {
		return err
	}

	doc, textPattern, err := readDocument(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	nonConforming := 0
	for _, rel := range doc.Releases() {
		if !textPattern.IsMatch(rel.Version) {
			nonConforming++
			fmt.Fprintf(out, "%s release %s does not match %s\n", yellow("warning:"), rel.Version, textPattern.Key())
		}
	}

	fmt.Fprintf(out, "%s %s: %d release(s), %d issue(s)\n", green("ok"), cfg.Input, doc.Len(), doc.IssueCount())
	if top := doc.Top(); top != nil {
		fmt.Fprintf(out, "latest: %s\n", top.Version)
	}
	if nonConforming > 0 {
		fmt.Fprintf(out, "%d release(s) do not match text_key\n", nonConforming)
	}
	return nil
}

// readDocument reads the configured input document.
func readDocument(cfg *config.Configuration) (*versiontext.Document, *pattern.Pattern, error) {
	textPattern, err := pattern.Compile(cfg.TextKey)
	if err != nil {
		return nil, nil, clierrors.ConfigInvalid(err)
	}

	doc := versiontext.New(textPattern, versiontext.WithDateFormat(cfg.DateFormat))
	if err := doc.Read(cfg.Input); err != nil {
		switch {
		case versiontext.IsMalformed(err):
			return nil, nil, clierrors.MalformedDocument(cfg.Input, err)
		case errors.Is(err, fs.ErrNotExist):
			return nil, nil, clierrors.DocumentNotFound(cfg.Input)
		default:
			return nil, nil, clierrors.Wrap(err, clierrors.Runtime)
		}
	}
	return doc, textPattern, nil
}
