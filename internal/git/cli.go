package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// CLI is a Gateway that shells out to the git executable. It covers
// repositories go-git cannot read, such as ones using reftable or partial
// clone filters.
type CLI struct {
	dir  string
	opts options
}

var _ Gateway = (*CLI)(nil)

// NewCLI returns a CLI gateway for the repository containing dir. It fails
// when git is not installed or dir is not inside a work tree.
func NewCLI(ctx context.Context, dir string, opts ...Option) (*CLI, error) {
	c := &CLI{dir: dir, opts: buildOptions(opts)}
	if _, err := c.run(ctx, "rev-parse", "--git-dir"); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrGitNotFound, err)
		}
		return nil, fmt.Errorf("opening repository at %s: %w: %w", dir, ErrNotRepository, err)
	}
	return c, nil
}

// FetchTags runs git fetch --tags against the configured remote.
func (c *CLI) FetchTags(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.opts.fetchTimeout)
	defer cancel()

	if _, err := c.run(ctx, "fetch", "--tags", "--force", c.opts.remote); err != nil {
		logDebug("[git] fetch from remote '%s' failed: %v", c.opts.remote, err)
		return false
	}
	return true
}

// ListTags returns all local tag names.
func (c *CLI) ListTags(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "tag", "--list")
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	tags := splitLines(out)
	logDebug("[git] ListTags: found %d tags", len(tags))
	return tags, nil
}

// FindTagMatching checks whether refs/tags/<versionID> exists.
func (c *CLI) FindTagMatching(ctx context.Context, versionID string) (string, bool, error) {
	_, err := c.run(ctx, "rev-parse", "--quiet", "--verify", "refs/tags/"+versionID)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		logDebug("[git] FindTagMatching: no tag %s", versionID)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up tag %s: %w", versionID, err)
	}
	return versionID, true, nil
}

// TagCommitID resolves tag to its commit; rev-list peels annotated tags.
func (c *CLI) TagCommitID(ctx context.Context, tag string) (string, error) {
	out, err := c.run(ctx, "rev-list", "-n", "1", "refs/tags/"+tag)
	if err != nil {
		return "", fmt.Errorf("peeling tag %s: %w", tag, err)
	}
	return strings.TrimSpace(out), nil
}

// HeadCommitID returns the commit HEAD points at.
func (c *CLI) HeadCommitID(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// PopulateIssuesForRange reads git log for from..to and merges the
// referenced issues into rel.
func (c *CLI) PopulateIssuesForRange(ctx context.Context, from, to string, rel *versiontext.Release) error {
	commits, err := c.Commits(ctx, from, to)
	if err != nil {
		return err
	}
	added := populate(rel, commits, c.opts.matcher)
	logDebug("[git] PopulateIssuesForRange %s..%s: %d commits, %d issues added", from, to, len(commits), added)
	return nil
}

// Commits returns the commits of from..to, newest first. An empty from
// means the whole history of to.
func (c *CLI) Commits(ctx context.Context, from, to string) ([]Commit, error) {
	rangeSpec := to
	if from != "" {
		rangeSpec = from + ".." + to
	}

	out, err := c.run(ctx, "log", "--format=%H%x1f%B%x1e", rangeSpec)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", rangeSpec, err)
	}
	return parseLog(out), nil
}

// parseLog splits git log output written with the record and field
// separators used by Commits.
func parseLog(out string) []Commit {
	var commits []Commit
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		id, message, ok := strings.Cut(record, fieldSep)
		if !ok {
			continue
		}
		commits = append(commits, Commit{
			ID:      strings.TrimSpace(id),
			Message: strings.TrimRight(message, "\n"),
		})
	}
	return commits
}

func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := c.opts.command(ctx, "git", args...)
	cmd.Dir = c.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logDebug("[git] running git %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
