package git

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// DefaultIssuePatterns recognize the usual ways a commit references a ticket:
//
//	[JETTY-100] text    JETTY-100 text    JETTY-100: text
//	Issue #612 text     Bug 123 - text    #612 text
//
// Ticket keys are anchored to the JETTY project. A generic KEY-123 form
// would also match subjects such as "HTTP-2 push support" or "UTF-8
// decoding"; projects with other keys opt in with JiraIssuePattern or their
// own expression in issue_patterns.
var DefaultIssuePatterns = []string{
	`^\[?(?P<id>JETTY-[0-9]+)\]?[\s:-]*(?P<text>.*)$`,
	`^(?i:issue|bug)\s+#?(?P<id>[0-9]+)[\s:-]*(?P<text>.*)$`,
	`^#(?P<id>[0-9]+)[\s:-]*(?P<text>.*)$`,
}

// JiraIssuePattern matches any upper-case project key, e.g. "ABC-12 text".
// It is not a default since technical terms share the shape.
const JiraIssuePattern = `^\[?(?P<id>[A-Z][A-Z0-9]+-[0-9]+)\]?[\s:-]*(?P<text>.*)$`

// IssueMatcher extracts issue references from commit messages.
type IssueMatcher struct {
	patterns []issuePattern
}

type issuePattern struct {
	re      *regexp.Regexp
	idIndex int
	// textIndex is -1 when the expression has no text group.
	textIndex int
}

// NewIssueMatcher compiles the given expressions. Each one must define a
// named group "id"; a "text" group is optional.
func NewIssueMatcher(exprs []string) (*IssueMatcher, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("at least one issue pattern is required")
	}

	m := &IssueMatcher{}
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling issue pattern %q: %w", expr, err)
		}
		idIndex := re.SubexpIndex("id")
		if idIndex < 0 {
			return nil, fmt.Errorf("issue pattern %q has no (?P<id>...) group", expr)
		}
		m.patterns = append(m.patterns, issuePattern{
			re:        re,
			idIndex:   idIndex,
			textIndex: re.SubexpIndex("text"),
		})
	}
	return m, nil
}

// DefaultIssueMatcher returns a matcher for DefaultIssuePatterns.
func DefaultIssueMatcher() *IssueMatcher {
	m, err := NewIssueMatcher(DefaultIssuePatterns)
	if err != nil {
		panic(err)
	}
	return m
}

// Extract returns the issues referenced by a commit message, in the order
// they appear. Every line is tried against the patterns; the first pattern
// that matches a line wins. When a match on a body line carries no text the
// commit subject is used instead.
func (m *IssueMatcher) Extract(message string) []versiontext.Issue {
	subject := commitSubject(message)
	seen := make(map[string]bool)

	var issues []versiontext.Issue
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		issue, ok := m.matchLine(line)
		if !ok || seen[issue.ID] {
			continue
		}
		if issue.Text == "" && line != subject {
			issue.Text = subject
		}
		seen[issue.ID] = true
		issues = append(issues, issue)
	}
	return issues
}

func (m *IssueMatcher) matchLine(line string) (versiontext.Issue, bool) {
	for _, p := range m.patterns {
		match := p.re.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		id := strings.TrimSpace(match[p.idIndex])
		if id == "" {
			continue
		}
		// Without a text group the whole line describes the issue.
		text := line
		if p.textIndex >= 0 {
			text = strings.TrimSpace(match[p.textIndex])
		}
		return versiontext.Issue{ID: id, Text: text}, true
	}
	return versiontext.Issue{}, false
}

// commitSubject returns the first non-blank line of a message.
func commitSubject(message string) string {
	for _, line := range strings.Split(message, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
