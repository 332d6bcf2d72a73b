package git

import (
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// Credential variables for HTTPS tag fetches, in lookup order. The
// VERSIONTEXT_GIT_* names take precedence over the generic ones so CI jobs
// can give the release tooling its own credentials.
const (
	envUsername = "VERSIONTEXT_GIT_USERNAME"
	envPassword = "VERSIONTEXT_GIT_PASSWORD"
	envToken    = "VERSIONTEXT_GIT_TOKEN"

	envGenericUsername = "GIT_USERNAME"
	envGenericPassword = "GIT_PASSWORD"
	envGitHubToken     = "GITHUB_TOKEN"

	// tokenUsername is sent with token auth; hosts only check the token.
	tokenUsername = "x-access-token"
)

// fetchAuth returns the authentication for fetching from url, or nil for
// anonymous access. SSH remotes use the SSH agent.
func fetchAuth(url string) transport.AuthMethod {
	if isSSHURL(url) {
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}
	if auth := httpAuth(os.Getenv); auth != nil {
		return auth
	}
	return nil
}

// httpAuth resolves basic auth from the environment: a username and
// password pair first, then a token.
func httpAuth(getenv func(string) string) *http.BasicAuth {
	pairs := [][2]string{
		{envUsername, envPassword},
		{envGenericUsername, envGenericPassword},
	}
	for _, pair := range pairs {
		if user := getenv(pair[0]); user != "" {
			logDebug("[git] using credentials from %s", pair[0])
			return &http.BasicAuth{Username: user, Password: getenv(pair[1])}
		}
	}

	for _, name := range []string{envToken, envGitHubToken} {
		if token := getenv(name); token != "" {
			logDebug("[git] using token from %s", name)
			return &http.BasicAuth{Username: tokenUsername, Password: token}
		}
	}
	return nil
}

// isSSHURL reports whether url is SCP-style (git@host:path) or uses an
// ssh:// or git+ssh:// scheme.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

func isSSHAgentAvailable() bool {
	return strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK")) != ""
}
