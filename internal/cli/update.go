package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/versiontext/internal/artifact"
	"github.com/ariel-frischer/versiontext/internal/cli/shared"
	"github.com/ariel-frischer/versiontext/internal/config"
	clierrors "github.com/ariel-frischer/versiontext/internal/errors"
	"github.com/ariel-frischer/versiontext/internal/pattern"
	"github.com/ariel-frischer/versiontext/internal/progress"
	"github.com/ariel-frischer/versiontext/internal/reconcile"
	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// updateFlagKeys maps update flags to config keys.
var updateFlagKeys = map[string]string{
	"version":        "version",
	"text-key":       "text_key",
	"tag-key":        "tag_key",
	"input":          "input",
	"output":         "output",
	"date-format":    "date_format",
	"sort-existing":  "sort_existing",
	"refresh-tags":   "refresh_tags",
	"update-date":    "update_date",
	"copy-generated": "copy_generated",
	"attach":         "attach",
	"skip":           "skip",
	"backend":        "git.backend",
	"remote":         "git.remote",
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Merge issues from git history into VERSION.txt",
	Long: `Update the current version's section of VERSION.txt.

The prior release is the entry below the current version (or the top entry
when the current version is new). Commits reachable from the current commit
but not from the prior release's tag are scanned for issue references, which
are added to the current section. When the prior release has no tag, an
empty section is added instead.

The current commit is HEAD, or the current version's tag when --refresh-tags
is set and that tag exists. The result is written to --output; the input is
only replaced with --copy-generated.`,
	Example: `  # Reconcile 9.4.1 and write target/VERSION.txt
  versiontext update --version 9.4.1

  # Overwrite VERSION.txt in place
  versiontext update --version 9.4.1 --copy-generated

  # Tags named v9.4.1 while VERSION.txt uses jetty-9.4.1
  versiontext update --tag-key vVERSION`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.GroupID = shared.GroupReconcile
	addUpdateFlags(updateCmd)
	rootCmd.AddCommand(updateCmd)
}

func addUpdateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("version", "", "Raw project version, e.g. 9.4.1 (default: latest matching tag)")
	f.String("text-key", "", "Identifier template in VERSION.txt (default jetty-VERSION)")
	f.String("tag-key", "", "Identifier template of git tags (default jetty-VERSION)")
	f.StringP("input", "i", "", "VERSION.txt to reconcile")
	f.StringP("output", "o", "", "Where to write the regenerated document")
	f.String("date-format", "", "Release date layout in Go time format")
	f.Bool("sort-existing", false, "Sort the issues of releases not touched by this run")
	f.Bool("refresh-tags", false, "Fetch tags from the remote first")
	f.Bool("update-date", false, "Stamp today's date on the release when it has none")
	f.Bool("copy-generated", false, "Copy the output over the input")
	f.Bool("attach", false, "Record the output in artifacts.yml")
	f.Bool("skip", false, "Do nothing")
	f.String("backend", "", "Git backend: go-git or cli")
	f.String("remote", "", "Remote used by --refresh-tags")
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, updateFlagKeys)
	if err != nil {
		return err
	}

	opts := cfg.ReconcileOptions()
	if skip, reason := reconcile.ShouldSkip(opts); skip {
		logger.Infof("Skipping VERSION.txt update: %s", reason)
		return nil
	}

	ctx := cmd.Context()
	gw, err := openGateway(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.RefreshTags {
		gw = newSpinningGateway(gw, cmd.ErrOrStderr(), progress.DetectTerminalCapabilities(), cfg.Git.Remote)
	}

	r := reconcile.New(gw,
		reconcile.WithLogger(logger),
		reconcile.WithAttacher(artifact.NewManifestAttacher("")),
	)
	res, err := r.Run(ctx, opts)
	if err != nil {
		return classifyRunError(err, cfg)
	}

	printUpdateResult(cmd.OutOrStdout(), res)
	return nil
}

// classifyRunError turns a reconciliation failure into a CLIError.
func classifyRunError(err error, cfg *config.Configuration) error {
	switch {
	case versiontext.IsMalformed(err):
		return clierrors.MalformedDocument(cfg.Input, err)
	case errors.Is(err, reconcile.ErrInvalidVersionIdentifier):
		return clierrors.InvalidPriorVersion(cfg.TextKey, err)
	case errors.Is(err, reconcile.ErrUnableToFetchTags):
		return clierrors.TagRefreshFailed(cfg.Git.Remote, err)
	case errors.Is(err, reconcile.ErrOutput):
		return clierrors.OutputFailure(cfg.Output, err)
	case errors.Is(err, pattern.ErrNoMatchingTag):
		return clierrors.NoVersion(cfg.TagKey, err)
	case errors.Is(err, pattern.ErrNoPlaceholder):
		return clierrors.ConfigInvalid(err)
	default:
		return clierrors.Wrap(err, clierrors.Runtime)
	}
}

func printUpdateResult(w io.Writer, res *reconcile.Result) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	action := "Updated"
	if res.Created {
		action = "Created"
	}

	switch {
	case res.Bootstrapped:
		fmt.Fprintf(w, "%s %s %s\n", green(action), bold(res.Version),
			dim("(no tag for prior version "+orNone(res.PriorVersion)+", history not scanned)"))
	default:
		fmt.Fprintf(w, "%s %s: %d new issue(s) since %s %s\n", green(action), bold(res.Version),
			res.IssuesAdded, res.PriorVersion, dim(shortRange(res.PriorCommit, res.Commit)))
	}
	fmt.Fprintf(w, "Wrote %s\n", filepath.ToSlash(res.OutputPath))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Update complete. Here's your git command...")
	fmt.Fprintln(w, res.CommitCommand)
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

func shortRange(from, to string) string {
	return "(" + short(from) + ".." + short(to) + ")"
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
