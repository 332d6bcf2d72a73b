package versiontext

import (
	"sort"
	"time"

	"github.com/ariel-frischer/versiontext/internal/pattern"
)

// Issue is a single ticket reference listed under a release.
type Issue struct {
	ID   string
	Text string
	// Continuation holds wrapped description lines exactly as they appeared
	// in the source document, indentation included.
	Continuation []string
}

// Release is one version block of the document.
type Release struct {
	Version    string
	ReleasedOn *time.Time
	Issues     []Issue

	// existing marks releases that were read from the input document.
	existing bool
}

// NewRelease creates an empty release for the given version identifier.
func NewRelease(version string) *Release {
	return &Release{Version: version}
}

// HasIssue returns true if an issue with the given id is already listed.
func (r *Release) HasIssue(id string) bool {
	for _, issue := range r.Issues {
		if issue.ID == id {
			return true
		}
	}
	return false
}

// AddIssue appends the issue unless one with the same id exists.
// Returns true if the issue was added.
func (r *Release) AddIssue(issue Issue) bool {
	if issue.ID == "" || r.HasIssue(issue.ID) {
		return false
	}
	r.Issues = append(r.Issues, issue)
	return true
}

// SetReleasedOn sets the release date, truncated to the day.
func (r *Release) SetReleasedOn(t time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	r.ReleasedOn = &day
}

// IssueIDs returns the issue ids in listing order.
func (r *Release) IssueIDs() []string {
	ids := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		ids[i] = issue.ID
	}
	return ids
}

// sortedIssues returns a copy of the issues ordered by id.
func (r *Release) sortedIssues() []Issue {
	issues := make([]Issue, len(r.Issues))
	copy(issues, r.Issues)
	sort.SliceStable(issues, func(i, j int) bool {
		return pattern.Compare(issues[i].ID, issues[j].ID) < 0
	})
	return issues
}
