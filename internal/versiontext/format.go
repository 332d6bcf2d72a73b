package versiontext

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

var (
	headerStyle = color.New(color.Bold, color.FgCyan)
	dateStyle   = color.New(color.Faint)
	idStyle     = color.New(color.FgYellow)
)

// issueIndent is the prefix of issue lines in terminal output.
const issueIndent = "  + "

// FormatReleases writes releases to w with terminal styling, one block per
// release separated by blank lines.
func FormatReleases(releases []*Release, w io.Writer, opts FormatOptions) error {
	for i, rel := range releases {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := FormatRelease(rel, w, opts); err != nil {
			return fmt.Errorf("formatting %s: %w", rel.Version, err)
		}
	}
	return nil
}

// FormatRelease writes a single release with its issues.
func FormatRelease(rel *Release, w io.Writer, opts FormatOptions) error {
	width := resolveWidth(opts.MaxWidth)

	if err := writeHeader(rel, w, opts); err != nil {
		return err
	}

	if len(rel.Issues) == 0 {
		_, err := fmt.Fprintf(w, "%s(no issues)\n", strings.Repeat(" ", len(issueIndent)))
		return err
	}

	for _, issue := range rel.Issues {
		if err := writeIssue(issue, w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(rel *Release, w io.Writer, opts FormatOptions) error {
	date := "unreleased"
	if rel.ReleasedOn != nil {
		date = rel.ReleasedOn.Format("2006-01-02")
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "%s (%s)\n", rel.Version, date)
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s\n", headerStyle.Sprint(rel.Version), dateStyle.Sprintf("(%s)", date))
	return err
}

// writeIssue writes one issue, wrapping the description to the width.
func writeIssue(issue Issue, w io.Writer, opts FormatOptions, width int) error {
	text := issue.Text
	for _, cont := range issue.Continuation {
		text += " " + strings.TrimSpace(cont)
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "%s%s %s\n", issueIndent, issue.ID, text)
		return err
	}

	hanging := strings.Repeat(" ", len(issueIndent)+len(issue.ID)+1)
	limit := width - len(hanging)
	if limit < 20 {
		limit = 20
	}
	wrapped := wordwrap.WrapString(text, uint(limit))
	wrapped = strings.ReplaceAll(wrapped, "\n", "\n"+hanging)

	_, err := fmt.Fprintf(w, "%s%s %s\n", issueIndent, idStyle.Sprint(issue.ID), wrapped)
	return err
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// releaseView is the YAML shape of a release.
type releaseView struct {
	Version    string      `yaml:"version"`
	ReleasedOn string      `yaml:"released_on,omitempty"`
	Issues     []issueView `yaml:"issues"`
}

type issueView struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text,omitempty"`
}

// MarshalYAML renders releases as a YAML document.
func MarshalYAML(releases []*Release) ([]byte, error) {
	views := make([]releaseView, 0, len(releases))
	for _, rel := range releases {
		view := releaseView{Version: rel.Version, Issues: []issueView{}}
		if rel.ReleasedOn != nil {
			view.ReleasedOn = rel.ReleasedOn.Format("2006-01-02")
		}
		for _, issue := range rel.Issues {
			text := issue.Text
			for _, cont := range issue.Continuation {
				text += " " + strings.TrimSpace(cont)
			}
			view.Issues = append(view.Issues, issueView{ID: issue.ID, Text: text})
		}
		views = append(views, view)
	}

	out, err := yaml.Marshal(map[string]any{"releases": views})
	if err != nil {
		return nil, fmt.Errorf("marshaling releases: %w", err)
	}
	return out, nil
}
