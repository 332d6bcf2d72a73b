package versiontext

import (
	"github.com/ariel-frischer/versiontext/internal/pattern"
)

// DefaultDateFormat is the layout used for release dates on header lines.
const DefaultDateFormat = "02 January 2006"

// Document is an in-memory VERSION.txt: releases ordered newest first.
type Document struct {
	pattern      *pattern.Pattern
	dateFormat   string
	releases     []*Release
	sortExisting bool
	merged       string
}

// Option configures a Document.
type Option func(*Document)

// WithDateFormat sets the layout used to read and write release dates.
func WithDateFormat(layout string) Option {
	return func(d *Document) {
		if layout != "" {
			d.dateFormat = layout
		}
	}
}

// New creates an empty document whose headers are recognized with p.
func New(p *pattern.Pattern, opts ...Option) *Document {
	d := &Document{
		pattern:    p,
		dateFormat: DefaultDateFormat,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pattern returns the version pattern used for header lines.
func (d *Document) Pattern() *pattern.Pattern {
	return d.pattern
}

// Releases returns the releases in document order (newest first).
func (d *Document) Releases() []*Release {
	return d.releases
}

// Len returns the number of releases.
func (d *Document) Len() int {
	return len(d.releases)
}

// Top returns the topmost (most recent) release, or nil for an empty document.
func (d *Document) Top() *Release {
	if len(d.releases) == 0 {
		return nil
	}
	return d.releases[0]
}

// ListVersions returns all version identifiers in document order.
func (d *Document) ListVersions() []string {
	versions := make([]string, len(d.releases))
	for i, rel := range d.releases {
		versions[i] = rel.Version
	}
	return versions
}

// FindRelease returns the release with exactly the given version identifier.
func (d *Document) FindRelease(version string) *Release {
	if i := d.indexOf(version); i >= 0 {
		return d.releases[i]
	}
	return nil
}

// PriorVersion returns the identifier of the release listed right after
// version, i.e. the next older one. The second result is false when version
// is not in the document or is the last entry.
func (d *Document) PriorVersion(version string) (string, bool) {
	i := d.indexOf(version)
	if i < 0 || i+1 >= len(d.releases) {
		return "", false
	}
	return d.releases[i+1].Version, true
}

// ReplaceOrPrepend replaces the release with the same version identifier in
// place, or inserts rel at the top when there is none. The release is
// remembered as the one merged in this run.
func (d *Document) ReplaceOrPrepend(rel *Release) {
	d.merged = rel.Version
	if i := d.indexOf(rel.Version); i >= 0 {
		d.releases[i] = rel
		return
	}
	d.releases = append([]*Release{rel}, d.releases...)
}

// SetSortExisting enables sorting of the issues of releases that came from
// the input document, except the one merged in this run. Sorting happens
// when the document is written; the in-memory order is not changed.
func (d *Document) SetSortExisting(sortExisting bool) {
	d.sortExisting = sortExisting
}

// IssueCount returns the total number of issues across all releases.
func (d *Document) IssueCount() int {
	count := 0
	for _, rel := range d.releases {
		count += len(rel.Issues)
	}
	return count
}

func (d *Document) indexOf(version string) int {
	for i, rel := range d.releases {
		if rel.Version == version {
			return i
		}
	}
	return -1
}
