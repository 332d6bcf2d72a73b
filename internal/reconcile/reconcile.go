// Package reconcile brings a VERSION.txt document up to date with the git
// history between the prior release tag and the current version.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ariel-frischer/versiontext/internal/artifact"
	"github.com/ariel-frischer/versiontext/internal/git"
	"github.com/ariel-frischer/versiontext/internal/pattern"
	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

var (
	// ErrInvalidVersionIdentifier means the prior version found in the
	// document does not conform to the text key.
	ErrInvalidVersionIdentifier = errors.New("invalid version identifier")
	// ErrUnableToFetchTags means the requested tag refresh failed.
	ErrUnableToFetchTags = errors.New("unable to fetch git tags")
	// ErrOutput wraps every failure to read the input or produce the output.
	ErrOutput = errors.New("unable to generate replacement VERSION.txt")
)

// Result describes what a run did.
type Result struct {
	// Skipped is set when generation was disabled; nothing else is set.
	Skipped    bool
	SkipReason string

	// Created is true when the current version had no entry yet.
	Created bool
	// Bootstrapped is true when no tag existed for the prior version and an
	// empty entry was added instead of walking history.
	Bootstrapped bool

	Version      string
	PriorVersion string
	PriorCommit  string
	Commit       string
	IssuesAdded  int
	Release      *versiontext.Release

	OutputPath    string
	CommitMessage string
	// CommitCommand is the suggested command for committing the result.
	CommitCommand string
}

// Reconciler runs the reconciliation against a Gateway.
type Reconciler struct {
	gateway  git.Gateway
	logger   logrus.FieldLogger
	attacher artifact.Attacher
	now      func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger for progress messages.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithAttacher sets where attached artifacts are registered.
func WithAttacher(a artifact.Attacher) Option {
	return func(r *Reconciler) {
		if a != nil {
			r.attacher = a
		}
	}
}

// WithClock replaces time.Now for date stamping.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// New returns a Reconciler using gw for all version control queries.
func New(gw git.Gateway, opts ...Option) *Reconciler {
	r := &Reconciler{
		gateway:  gw,
		logger:   logrus.StandardLogger(),
		attacher: &artifact.ManifestAttacher{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one reconciliation. Steps run strictly in order and the
// first failure ends the run.
func (r *Reconciler) Run(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	if skip, reason := ShouldSkip(opts); skip {
		r.logger.Infof("Skipping VERSION.txt update: %s", reason)
		return &Result{Skipped: true, SkipReason: reason}, nil
	}

	textPattern, err := pattern.Compile(opts.TextKey)
	if err != nil {
		return nil, fmt.Errorf("version text key: %w", err)
	}
	tagPattern, err := pattern.Compile(opts.TagKey)
	if err != nil {
		return nil, fmt.Errorf("version tag key: %w", err)
	}

	doc := versiontext.New(textPattern, versiontext.WithDateFormat(opts.DateFormat))
	if err := doc.Read(opts.InputPath); err != nil {
		if versiontext.IsMalformed(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrOutput, err)
	}
	doc.SetSortExisting(opts.SortExisting)

	raw, err := r.resolveRawVersion(ctx, opts, tagPattern)
	if err != nil {
		return nil, err
	}
	currentText := textPattern.ToVersionID(raw)
	currentTag := tagPattern.ToVersionID(raw)

	res := &Result{Version: currentText, OutputPath: opts.OutputPath}

	rel := doc.FindRelease(currentText)
	if rel == nil {
		rel = doc.FindRelease(currentTag)
	}
	if rel == nil {
		rel = versiontext.NewRelease(currentText)
		res.Created = true
		res.CommitMessage = "Creating new version " + currentText + " in VERSION.txt"
	} else {
		res.CommitMessage = "Updating version " + currentText + " in VERSION.txt"
	}
	res.Release = rel
	res.CommitCommand = "git commit -m " + shellQuote(res.CommitMessage) + " " + shellQuote(filepath.Base(opts.InputPath))
	r.logger.Infof("Updating version section: %s", raw)

	prior, ok := doc.PriorVersion(rel.Version)
	if !ok {
		// Assume the top of the document is the most recent release.
		if top := doc.Top(); top != nil {
			prior = top.Version
		}
	}
	res.PriorVersion = prior
	r.logger.Debugf("Prior version in VERSION.txt is %q", prior)

	if opts.RefreshTags {
		r.logger.Info("Fetching git tags from remote ...")
		if !r.gateway.FetchTags(ctx) {
			return nil, ErrUnableToFetchTags
		}
	}

	var (
		priorTag  string
		tagID     string
		tagExists bool
	)
	if prior != "" {
		if !textPattern.IsMatch(prior) {
			return nil, fmt.Errorf("%w: prior version [%s] does not conform to expected pattern [%s]",
				ErrInvalidVersionIdentifier, prior, opts.TextKey)
		}
		priorTag, _ = textPattern.Convert(prior, tagPattern)
		tagID, tagExists, err = r.gateway.FindTagMatching(ctx, priorTag)
		if err != nil {
			return nil, err
		}
	}

	if !tagExists {
		if prior != "" {
			r.logger.Warnf("Unable to find git tag id for prior version id [%s] (defined in VERSION.txt as [%s])", priorTag, prior)
		}
		r.logger.Infof("Adding empty version section to top for version id [%s]", currentText)
		doc.ReplaceOrPrepend(rel)
		if err := r.generate(doc, opts); err != nil {
			return nil, err
		}
		res.Bootstrapped = true
		return res, nil
	}
	r.logger.Debugf("Tag for prior version [%s] is %s", priorTag, tagID)

	res.PriorCommit, err = r.gateway.TagCommitID(ctx, tagID)
	if err != nil {
		return nil, err
	}

	res.Commit, err = r.currentCommit(ctx, opts, currentTag)
	if err != nil {
		return nil, err
	}
	r.logger.Debugf("Commit range for [%s]: %s..%s", currentTag, res.PriorCommit, res.Commit)

	before := len(rel.Issues)
	if err := r.gateway.PopulateIssuesForRange(ctx, res.PriorCommit, res.Commit, rel); err != nil {
		return nil, err
	}
	res.IssuesAdded = len(rel.Issues) - before

	if rel.ReleasedOn == nil && opts.UpdateDate {
		rel.SetReleasedOn(r.now())
	}

	doc.ReplaceOrPrepend(rel)
	if err := r.generate(doc, opts); err != nil {
		return nil, err
	}

	r.logger.Infof("Update complete: %d new issue(s) in %s", res.IssuesAdded, currentText)
	return res, nil
}

// resolveRawVersion returns the configured raw version or discovers it from
// the most recent conforming tag.
func (r *Reconciler) resolveRawVersion(ctx context.Context, opts Options, tagPattern *pattern.Pattern) (string, error) {
	if opts.Version != "" {
		return opts.Version, nil
	}

	tag, err := tagPattern.LastVersion(ctx, r.gateway)
	if err != nil {
		return "", fmt.Errorf("discovering current version: %w", err)
	}
	raw, _ := tagPattern.Extract(tag)
	r.logger.Infof("No version given, using %s from tag %s", raw, tag)
	return raw, nil
}

// currentCommit is HEAD, or the commit of the current version's tag when
// tags were refreshed and that tag exists.
func (r *Reconciler) currentCommit(ctx context.Context, opts Options, currentTag string) (string, error) {
	if opts.RefreshTags {
		tagID, found, err := r.gateway.FindTagMatching(ctx, currentTag)
		if err != nil {
			return "", err
		}
		if found {
			return r.gateway.TagCommitID(ctx, tagID)
		}
	}
	return r.gateway.HeadCommitID(ctx)
}

// generate writes the document and performs the optional attach and copy.
func (r *Reconciler) generate(doc *versiontext.Document, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return fmt.Errorf("%w: creating output directory: %w", ErrOutput, err)
	}
	if err := doc.Write(opts.OutputPath); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	r.logger.Debugf("New VERSION.txt written at %s", opts.OutputPath)

	if opts.Attach {
		r.logger.Info("Attaching generated VERSION.txt")
		r.logger.Debugf("Type = %s, Classifier = %s", opts.AttachType, opts.AttachClassifier)
		err := r.attacher.Attach(artifact.Artifact{
			Path:       opts.OutputPath,
			Type:       opts.AttachType,
			Classifier: opts.AttachClassifier,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutput, err)
		}
	}

	if opts.CopyGenerated {
		r.logger.Info("Copying generated VERSION.txt over input VERSION.txt")
		if err := copyFile(opts.OutputPath, opts.InputPath); err != nil {
			return fmt.Errorf("%w: %w", ErrOutput, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	if same, err := samePath(src, dst); err == nil && same {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

// shellQuote quotes s for a POSIX shell. Words made only of safe characters
// are returned as is; anything else is single-quoted, and an embedded single
// quote closes the quoting, is backslash-escaped and reopens it.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, isUnsafeShellRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isUnsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./+=:,@%", r):
		return false
	}
	return true
}
