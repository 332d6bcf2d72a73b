// Package health provides the checks behind 'versiontext doctor'. They
// validate that the repository, the git executable (for the cli backend),
// VERSION.txt and the release tags are in a state where update can run,
// returning a structured report.
package health

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/ariel-frischer/versiontext/internal/config"
	"github.com/ariel-frischer/versiontext/internal/git"
	"github.com/ariel-frischer/versiontext/internal/pattern"
	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Warning marks a passed check whose condition changes what update does
	// without making it fail.
	Warning bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

func (r *HealthReport) add(check CheckResult) {
	r.Checks = append(r.Checks, check)
	if !check.Passed {
		r.Passed = false
	}
}

// RunHealthChecks runs all checks for cfg. gw is the opened gateway, or nil
// with gwErr set when it could not be opened; history checks are skipped then.
func RunHealthChecks(ctx context.Context, cfg *config.Configuration, gw git.Gateway, gwErr error) *HealthReport {
	report := &HealthReport{Passed: true}

	report.add(CheckGitCLI(cfg.Git.Backend, exec.LookPath))
	report.add(CheckRepository(cfg.Git.Dir, cfg.Git.Backend, gwErr))

	textPattern, textErr := pattern.Compile(cfg.TextKey)
	tagPattern, tagErr := pattern.Compile(cfg.TagKey)
	if err := errors.Join(textErr, tagErr); err != nil {
		report.add(CheckResult{Name: "Version keys", Message: err.Error()})
		return report
	}

	docCheck, doc := CheckDocument(cfg.Input, textPattern, cfg.DateFormat)
	report.add(docCheck)
	if doc != nil {
		report.add(CheckTextKey(doc, textPattern))
	}

	if gwErr != nil || gw == nil {
		return report
	}
	report.add(CheckTags(ctx, gw, tagPattern, cfg.Version))
	if doc != nil && doc.Top() != nil {
		report.add(CheckPriorTag(ctx, gw, doc, textPattern, tagPattern))
	}
	return report
}

// CheckGitCLI checks if the git executable is available. It only fails for
// the cli backend.
func CheckGitCLI(backend string, lookPath func(string) (string, error)) CheckResult {
	path, err := lookPath("git")
	switch {
	case err == nil:
		return CheckResult{Name: "Git CLI", Passed: true, Message: "found at " + path}
	case backend == "cli":
		return CheckResult{Name: "Git CLI", Message: "git not found in PATH (required by the cli backend)"}
	default:
		return CheckResult{Name: "Git CLI", Passed: true, Warning: true, Message: "git not found in PATH (not needed by the go-git backend)"}
	}
}

// CheckRepository reports whether the repository could be opened.
func CheckRepository(dir, backend string, err error) CheckResult {
	if err != nil {
		return CheckResult{Name: "Repository", Message: err.Error()}
	}
	return CheckResult{Name: "Repository", Passed: true, Message: fmt.Sprintf("opened %s with %s", dir, backend)}
}

// CheckDocument parses the input document. The document is nil when the
// check fails.
func CheckDocument(path string, textPattern *pattern.Pattern, dateFormat string) (CheckResult, *versiontext.Document) {
	doc := versiontext.New(textPattern, versiontext.WithDateFormat(dateFormat))
	if err := doc.Read(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Name: "VERSION.txt", Message: path + " not found (update will skip)"}, nil
		}
		return CheckResult{Name: "VERSION.txt", Message: err.Error()}, nil
	}
	return CheckResult{
		Name:    "VERSION.txt",
		Passed:  true,
		Message: fmt.Sprintf("%d release(s), %d issue(s)", doc.Len(), doc.IssueCount()),
	}, doc
}

// CheckTextKey checks that every release header follows the text key.
func CheckTextKey(doc *versiontext.Document, textPattern *pattern.Pattern) CheckResult {
	var bad []string
	for _, rel := range doc.Releases() {
		if !textPattern.IsMatch(rel.Version) {
			bad = append(bad, rel.Version)
		}
	}
	if len(bad) > 0 {
		return CheckResult{
			Name:    "Text key",
			Message: fmt.Sprintf("%d release(s) do not match %s: %s", len(bad), textPattern.Key(), strings.Join(bad, ", ")),
		}
	}
	return CheckResult{Name: "Text key", Passed: true, Message: "all releases match " + textPattern.Key()}
}

// CheckTags checks that the current version can be determined: either it
// is configured or a tag matches the tag key.
func CheckTags(ctx context.Context, gw git.Gateway, tagPattern *pattern.Pattern, version string) CheckResult {
	latest, err := tagPattern.LastVersion(ctx, gw)
	switch {
	case err == nil:
		return CheckResult{Name: "Tags", Passed: true, Message: "latest " + tagPattern.Key() + " tag is " + latest}
	case errors.Is(err, pattern.ErrNoMatchingTag) && version != "":
		return CheckResult{Name: "Tags", Passed: true, Warning: true, Message: "no tag matches " + tagPattern.Key() + "; using version " + version}
	case errors.Is(err, pattern.ErrNoMatchingTag):
		return CheckResult{Name: "Tags", Message: "no tag matches " + tagPattern.Key() + "; set version or pass --version"}
	default:
		return CheckResult{Name: "Tags", Message: err.Error()}
	}
}

// CheckPriorTag checks that the newest release in the document has a tag,
// which update needs to walk history.
func CheckPriorTag(ctx context.Context, gw git.Gateway, doc *versiontext.Document, textPattern, tagPattern *pattern.Pattern) CheckResult {
	prior := doc.Top().Version
	tag, ok := textPattern.Convert(prior, tagPattern)
	if !ok {
		return CheckResult{Name: "Prior tag", Message: prior + " does not match " + textPattern.Key()}
	}

	_, found, err := gw.FindTagMatching(ctx, tag)
	switch {
	case err != nil:
		return CheckResult{Name: "Prior tag", Message: err.Error()}
	case !found:
		return CheckResult{Name: "Prior tag", Passed: true, Warning: true, Message: "no tag " + tag + " for " + prior + " (update will add an empty section)"}
	default:
		return CheckResult{Name: "Prior tag", Passed: true, Message: tag + " found for " + prior}
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var sb strings.Builder
	for _, check := range report.Checks {
		marker := "✓"
		switch {
		case !check.Passed:
			marker = "✗"
		case check.Warning:
			marker = "!"
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", marker, check.Name, check.Message)
	}
	return sb.String()
}
