package config

import (
	"github.com/ariel-frischer/versiontext/internal/git"
	"github.com/ariel-frischer/versiontext/internal/pattern"
	"github.com/ariel-frischer/versiontext/internal/reconcile"
	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# versiontext configuration
# See 'versiontext config keys' for all options

# Version identifiers
version: ""                           # Raw version (empty = latest tag matching tag_key)
text_key: jetty-VERSION               # Header template in VERSION.txt
tag_key: jetty-VERSION                # Git tag template

# Files
input: VERSION.txt                    # Document to reconcile
output: target/VERSION.txt            # Where the regenerated document is written
copy_generated: false                 # Copy the output over the input
date_format: 02 January 2006          # Release date layout (Go time format)

# Behavior
sort_existing: false                  # Sort issues of untouched releases by id
refresh_tags: false                   # Fetch tags from the remote first
update_date: false                    # Stamp today's date on the release if unset
skip: false                           # Do nothing (useful in CI matrices)

# Issue references in commit messages (default: JETTY-123, Issue #123,
# Bug 123, #123). To accept any tracker key such as ABC-123:
# issue_patterns:
#   - '^\[?(?P<id>[A-Z][A-Z0-9]+-[0-9]+)\]?[\s:-]*(?P<text>.*)$'
#   - '^#(?P<id>[0-9]+)[\s:-]*(?P<text>.*)$'

# Build artifact
attach: false                         # Record the output in artifacts.yml
attach_type: txt
attach_classifier: version

# Git
git:
  backend: go-git                     # go-git | cli
  dir: .                              # Repository location (parents are searched)
  remote: origin                      # Remote used by refresh_tags
  fetch_timeout: 60s                  # Tag refresh timeout

log_level: info                       # error | warn | info | debug | trace
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"version":           "",
		"text_key":          pattern.DefaultKey,
		"tag_key":           pattern.DefaultKey,
		"input":             reconcile.DefaultInput,
		"output":            reconcile.DefaultOutput,
		"date_format":       versiontext.DefaultDateFormat,
		"sort_existing":     false,
		"refresh_tags":      false,
		"update_date":       false,
		"copy_generated":    false,
		"skip":              false,
		"attach":            false,
		"attach_type":       reconcile.DefaultAttachType,
		"attach_classifier": reconcile.DefaultAttachClassifier,
		"issue_patterns":    append([]string(nil), git.DefaultIssuePatterns...),
		"git": map[string]interface{}{
			"backend":       "go-git",
			"dir":           ".",
			"remote":        git.DefaultRemote,
			"fetch_timeout": git.DefaultFetchTimeout.String(),
		},
		"log_level": "info",
	}
}
