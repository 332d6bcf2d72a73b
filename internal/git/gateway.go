// Package git resolves VERSION.txt identifiers against a git repository: it
// lists and fetches tags, peels tags to commits and walks commit ranges to
// collect issue references. It uses the go-git library by default and can
// fall back to the git CLI for repositories go-git cannot handle.
package git

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// DefaultFetchTimeout bounds a tag refresh from the remote.
const DefaultFetchTimeout = 60 * time.Second

// DefaultRemote is the remote used for tag refreshes.
const DefaultRemote = "origin"

var (
	// ErrNotRepository is returned when no repository contains the directory.
	ErrNotRepository = errors.New("not a git repository")
	// ErrGitNotFound is returned by the CLI backend when git is not installed.
	ErrGitNotFound = errors.New("git executable not found")
)

// Gateway is everything the reconciler needs from version control.
type Gateway interface {
	// FetchTags updates local tags from the remote. It reports failure
	// instead of returning an error; the caller decides whether it is fatal.
	FetchTags(ctx context.Context) bool

	// ListTags returns all local tag names.
	ListTags(ctx context.Context) ([]string, error)

	// FindTagMatching returns the tag whose name equals versionID.
	// A missing tag is reported with found == false and a nil error.
	FindTagMatching(ctx context.Context, versionID string) (tag string, found bool, err error)

	// TagCommitID resolves a tag, annotated or lightweight, to its commit id.
	TagCommitID(ctx context.Context, tag string) (string, error)

	// HeadCommitID returns the commit id HEAD points at.
	HeadCommitID(ctx context.Context) (string, error)

	// PopulateIssuesForRange appends the issues referenced by commits
	// reachable from to but not from from, newest first, skipping ids the
	// release already lists.
	PopulateIssuesForRange(ctx context.Context, from, to string, rel *versiontext.Release) error
}

// Commit is a commit id with its full message.
type Commit struct {
	ID      string
	Message string
}

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// options is shared by both backends.
type options struct {
	remote       string
	fetchTimeout time.Duration
	matcher      *IssueMatcher
	command      CommandFunc
}

// Option configures a gateway backend.
type Option func(*options)

// WithRemote sets the remote used by FetchTags.
func WithRemote(name string) Option {
	return func(o *options) {
		if name != "" {
			o.remote = name
		}
	}
}

// WithFetchTimeout bounds FetchTags. Zero keeps the default.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithIssueMatcher sets the matcher used to extract issues from commit messages.
func WithIssueMatcher(m *IssueMatcher) Option {
	return func(o *options) {
		if m != nil {
			o.matcher = m
		}
	}
}

// CommandFunc builds the process the CLI backend runs.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// WithCommand replaces how the CLI backend starts git.
func WithCommand(f CommandFunc) Option {
	return func(o *options) {
		if f != nil {
			o.command = f
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		remote:       DefaultRemote,
		fetchTimeout: DefaultFetchTimeout,
		matcher:      DefaultIssueMatcher(),
		command:      exec.CommandContext,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// populate merges the issues of commits into rel and returns how many were added.
func populate(rel *versiontext.Release, commits []Commit, m *IssueMatcher) int {
	added := 0
	for _, c := range commits {
		for _, issue := range m.Extract(c.Message) {
			if rel.AddIssue(issue) {
				added++
			}
		}
	}
	return added
}
