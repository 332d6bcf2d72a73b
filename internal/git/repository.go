package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// tagRefSpec mirrors every remote tag locally, moving tags that were re-pointed.
const tagRefSpec = config.RefSpec("+refs/tags/*:refs/tags/*")

// Repository is the go-git backed Gateway.
type Repository struct {
	repo *git.Repository
	opts options
}

var _ Gateway = (*Repository)(nil)

// Open opens the repository containing path. An empty path means the
// current working directory.
func Open(path string, opts ...Option) (*Repository, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	return &Repository{repo: repo, opts: buildOptions(opts)}, nil
}

// openRepo opens a git repository at the specified path or current working directory.
// It uses go-git's PlainOpenWithOptions with DetectDotGit enabled to traverse
// up the directory tree to find the repository root.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("opening repository at %s: %w", path, ErrNotRepository)
	}
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	logDebug("[git] repository opened successfully")
	return repo, nil
}

// FetchTags fetches all tags from the configured remote. SSH remotes are
// skipped when no SSH agent is available, which counts as a failure.
func (r *Repository) FetchTags(ctx context.Context) bool {
	remote, err := r.repo.Remote(r.opts.remote)
	if err != nil {
		logDebug("[git] FetchTags: remote %q: %v", r.opts.remote, err)
		return false
	}

	remoteConfig := remote.Config()
	if len(remoteConfig.URLs) == 0 {
		logDebug("[git] FetchTags: remote %q has no URL", remoteConfig.Name)
		return false
	}
	url := remoteConfig.URLs[0]

	if isSSHURL(url) && !isSSHAgentAvailable() {
		logDebug("[git] FetchTags: skipping '%s': SSH URL without SSH agent available", remoteConfig.Name)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.fetchTimeout)
	defer cancel()

	logDebug("[git] fetching tags from remote '%s' (%s)", remoteConfig.Name, url)
	err = r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteConfig.Name,
		Auth:       fetchAuth(url),
		RefSpecs:   []config.RefSpec{tagRefSpec},
		Tags:       git.AllTags,
		Force:      true,
	})

	if ctx.Err() != nil {
		logDebug("[git] fetch from remote '%s' timed out or cancelled", remoteConfig.Name)
		return false
	}
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		logDebug("[git] fetch from remote '%s' failed: %v", remoteConfig.Name, err)
		return false
	}
	return true
}

// ListTags returns the short names of all local tags, sorted by name.
func (r *Repository) ListTags(ctx context.Context) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}

	sort.Strings(tags)
	logDebug("[git] ListTags: found %d tags", len(tags))
	return tags, nil
}

// FindTagMatching looks up the tag named versionID.
func (r *Repository) FindTagMatching(_ context.Context, versionID string) (string, bool, error) {
	ref, err := r.repo.Tag(versionID)
	if errors.Is(err, git.ErrTagNotFound) {
		logDebug("[git] FindTagMatching: no tag %s", versionID)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up tag %s: %w", versionID, err)
	}
	return ref.Name().Short(), true, nil
}

// TagCommitID resolves tag to the commit it marks. Annotated tags are peeled.
func (r *Repository) TagCommitID(_ context.Context, tag string) (string, error) {
	ref, err := r.repo.Tag(tag)
	if err != nil {
		return "", fmt.Errorf("looking up tag %s: %w", tag, err)
	}

	annotated, err := r.repo.TagObject(ref.Hash())
	switch {
	case errors.Is(err, plumbing.ErrObjectNotFound):
		// Lightweight tag: the reference points straight at the commit.
		return ref.Hash().String(), nil
	case err != nil:
		return "", fmt.Errorf("reading tag object %s: %w", tag, err)
	}

	commit, err := annotated.Commit()
	if err != nil {
		return "", fmt.Errorf("peeling tag %s: %w", tag, err)
	}
	return commit.Hash.String(), nil
}

// HeadCommitID returns the commit HEAD points at.
func (r *Repository) HeadCommitID(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	return head.Hash().String(), nil
}

// PopulateIssuesForRange walks from..to and merges the referenced issues into rel.
func (r *Repository) PopulateIssuesForRange(ctx context.Context, from, to string, rel *versiontext.Release) error {
	commits, err := r.Commits(ctx, from, to)
	if err != nil {
		return err
	}
	added := populate(rel, commits, r.opts.matcher)
	logDebug("[git] PopulateIssuesForRange %s..%s: %d commits, %d issues added", from, to, len(commits), added)
	return nil
}

// Commits returns the commits reachable from to but not from from, newest
// first by committer time. An empty from means the whole history of to.
func (r *Repository) Commits(ctx context.Context, from, to string) ([]Commit, error) {
	toHash, err := r.resolve(to)
	if err != nil {
		return nil, err
	}

	excluded := make(map[plumbing.Hash]bool)
	if from != "" {
		fromHash, err := r.resolve(from)
		if err != nil {
			return nil, err
		}
		if err := r.markAncestors(ctx, fromHash, excluded); err != nil {
			return nil, err
		}
	}

	iter, err := r.repo.Log(&git.LogOptions{From: toHash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("reading log of %s: %w", to, err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if excluded[c.Hash] {
			return nil
		}
		commits = append(commits, Commit{ID: c.Hash.String(), Message: c.Message})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s..%s: %w", from, to, err)
	}
	return commits, nil
}

func (r *Repository) markAncestors(ctx context.Context, from plumbing.Hash, seen map[plumbing.Hash]bool) error {
	iter, err := r.repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return fmt.Errorf("reading log of %s: %w", from, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking ancestors of %s: %w", from, err)
	}
	return nil
}

// resolve turns a commit id, tag or other revision into a commit hash.
func (r *Repository) resolve(rev string) (plumbing.Hash, error) {
	if plumbing.IsHash(rev) {
		return plumbing.NewHash(rev), nil
	}
	if _, err := r.repo.Tag(rev); err == nil {
		id, err := r.TagCommitID(context.Background(), rev)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return plumbing.NewHash(id), nil
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving %s: %w", rev, err)
	}
	return *hash, nil
}
