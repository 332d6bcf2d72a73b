package cli

import (
	"context"
	"errors"
	"io"

	"github.com/ariel-frischer/versiontext/internal/config"
	clierrors "github.com/ariel-frischer/versiontext/internal/errors"
	"github.com/ariel-frischer/versiontext/internal/git"
	"github.com/ariel-frischer/versiontext/internal/progress"
)

// openGateway opens the configured git backend, reporting failures as
// CLI errors.
func openGateway(ctx context.Context, cfg *config.Configuration) (git.Gateway, error) {
	opts, err := cfg.GatewayOptions()
	if err != nil {
		return nil, clierrors.ConfigInvalid(err)
	}

	gw, err := openBackend(ctx, cfg, opts)
	switch {
	case err == nil:
		return gw, nil
	case errors.Is(err, git.ErrGitNotFound):
		return nil, clierrors.GitNotFound()
	case errors.Is(err, git.ErrNotRepository):
		return nil, clierrors.GitNotRepository(cfg.Git.Dir)
	default:
		return nil, clierrors.Wrap(err, clierrors.Prerequisite)
	}
}

func openBackend(ctx context.Context, cfg *config.Configuration, opts []git.Option) (git.Gateway, error) {
	if cfg.Git.Backend == "cli" {
		c, err := git.NewCLI(ctx, cfg.Git.Dir, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	r, err := git.Open(cfg.Git.Dir, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// spinningGateway shows a spinner while tags are fetched.
type spinningGateway struct {
	git.Gateway
	spinner *progress.Spinner
	remote  string
}

func newSpinningGateway(gw git.Gateway, out io.Writer, caps progress.TerminalCapabilities, remote string) *spinningGateway {
	return &spinningGateway{
		Gateway: gw,
		spinner: progress.NewSpinner(out, caps),
		remote:  remote,
	}
}

func (s *spinningGateway) FetchTags(ctx context.Context) bool {
	s.spinner.Start("Fetching tags from " + s.remote)
	if !s.Gateway.FetchTags(ctx) {
		s.spinner.Fail("")
		return false
	}
	s.spinner.Success("Fetched tags from " + s.remote)
	return true
}
