package versiontext

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Write serializes the document to path, replacing any existing file.
// The parent directory must exist.
func (d *Document) Write(path string) error {
	content := d.String()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing VERSION.txt: %w", err)
	}
	return nil
}

// WriteTo serializes the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}

// String renders the document in VERSION.txt layout.
// The output is stable: parsing it reproduces the same releases.
func (d *Document) String() string {
	var sb strings.Builder
	for i, rel := range d.releases {
		if i > 0 {
			sb.WriteString("\n")
		}
		d.renderRelease(&sb, rel)
	}
	return sb.String()
}

func (d *Document) renderRelease(sb *strings.Builder, rel *Release) {
	sb.WriteString(d.formatHeader(rel))
	sb.WriteString("\n")

	issues := rel.Issues
	if d.sortExisting && rel.existing && rel.Version != d.merged {
		issues = rel.sortedIssues()
	}

	for _, issue := range issues {
		sb.WriteString(formatIssue(issue))
		sb.WriteString("\n")
		for _, cont := range issue.Continuation {
			sb.WriteString(cont)
			sb.WriteString("\n")
		}
	}
}

// formatHeader formats the header line of a release.
func (d *Document) formatHeader(rel *Release) string {
	if rel.ReleasedOn == nil {
		return rel.Version
	}
	return fmt.Sprintf("%s - %s", rel.Version, rel.ReleasedOn.Format(d.dateFormat))
}

func formatIssue(issue Issue) string {
	if issue.Text == "" {
		return " + " + issue.ID
	}
	return " + " + issue.ID + " " + issue.Text
}
