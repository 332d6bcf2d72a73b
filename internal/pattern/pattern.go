// Package pattern translates between raw project versions (e.g. "9.4.1") and
// the templated identifiers used in VERSION.txt headers and git tag names
// (e.g. "jetty-9.4.1").
//
// A version key is a template containing exactly one VERSION placeholder.
// Compiling a key splits it into a literal prefix and a literal suffix;
// matching is anchored on both ends.
package pattern

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Placeholder is the token substituted with the raw version.
const Placeholder = "VERSION"

// DefaultKey is the version key used when none is configured.
const DefaultKey = "jetty-" + Placeholder

var (
	// ErrNoPlaceholder is returned when a key does not contain exactly one placeholder.
	ErrNoPlaceholder = errors.New("version key must contain exactly one " + Placeholder + " placeholder")

	// ErrNoMatchingTag is returned by LastVersion when no tag conforms to the key.
	ErrNoMatchingTag = errors.New("no tag matches version key")
)

// rawVersionPattern is the shape a substituted value must have to count as a
// version: a leading digit followed by version-ish characters.
var rawVersionPattern = regexp.MustCompile(`^[0-9][0-9A-Za-z._+-]*$`)

// Pattern is a compiled version key.
type Pattern struct {
	key    string
	prefix string
	suffix string
}

// TagLister lists the tag names known to a repository.
type TagLister interface {
	ListTags(ctx context.Context) ([]string, error)
}

// Compile parses a version key such as "jetty-VERSION".
func Compile(key string) (*Pattern, error) {
	if strings.Count(key, Placeholder) != 1 {
		return nil, fmt.Errorf("%w: %q", ErrNoPlaceholder, key)
	}
	prefix, suffix, _ := strings.Cut(key, Placeholder)
	return &Pattern{key: key, prefix: prefix, suffix: suffix}, nil
}

// MustCompile is like Compile but panics on an invalid key.
func MustCompile(key string) *Pattern {
	p, err := Compile(key)
	if err != nil {
		panic(err)
	}
	return p
}

// Key returns the version key the pattern was compiled from.
func (p *Pattern) Key() string {
	return p.key
}

func (p *Pattern) String() string {
	return p.key
}

// ToVersionID substitutes raw into the placeholder. The raw value is not validated.
func (p *Pattern) ToVersionID(raw string) string {
	return p.prefix + raw + p.suffix
}

// HasShape reports whether candidate carries the literal prefix and suffix of
// the key around a non-empty value. Unlike IsMatch it does not look at the
// value itself, so "jetty-bogus" has the shape of "jetty-VERSION".
func (p *Pattern) HasShape(candidate string) bool {
	_, ok := p.cut(candidate)
	return ok
}

// IsMatch reports whether candidate is a version identifier for this key:
// the literal portions must match exactly and the substituted value must
// look like a version.
func (p *Pattern) IsMatch(candidate string) bool {
	_, ok := p.Extract(candidate)
	return ok
}

// Extract recovers the raw version from a conforming identifier.
func (p *Pattern) Extract(candidate string) (string, bool) {
	raw, ok := p.cut(candidate)
	if !ok || !rawVersionPattern.MatchString(raw) {
		return "", false
	}
	return raw, true
}

// Convert re-renders an identifier of this key under another key, for
// example from the VERSION.txt form to the git tag form.
func (p *Pattern) Convert(id string, to *Pattern) (string, bool) {
	raw, ok := p.Extract(id)
	if !ok {
		return "", false
	}
	return to.ToVersionID(raw), true
}

// LastVersion returns the most recent tag conforming to this key, ordering
// candidates by their raw version.
func (p *Pattern) LastVersion(ctx context.Context, tags TagLister) (string, error) {
	names, err := tags.ListTags(ctx)
	if err != nil {
		return "", fmt.Errorf("listing tags: %w", err)
	}

	var best, bestRaw string
	for _, name := range names {
		raw, ok := p.Extract(name)
		if !ok {
			continue
		}
		if best == "" || Compare(raw, bestRaw) > 0 {
			best, bestRaw = name, raw
		}
	}

	if best == "" {
		return "", fmt.Errorf("%w %q", ErrNoMatchingTag, p.key)
	}
	return best, nil
}

// cut strips the literal prefix and suffix, requiring a non-empty remainder.
func (p *Pattern) cut(candidate string) (string, bool) {
	if len(candidate) <= len(p.prefix)+len(p.suffix) {
		return "", false
	}
	if !strings.HasPrefix(candidate, p.prefix) || !strings.HasSuffix(candidate, p.suffix) {
		return "", false
	}
	return candidate[len(p.prefix) : len(candidate)-len(p.suffix)], true
}
