package errors

import "fmt"

// Common error messages for the versiontext CLI.
// These templates ensure consistent, actionable error messages.

// MalformedDocument creates an error for a VERSION.txt that cannot be parsed.
func MalformedDocument(path string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		fmt.Sprintf("cannot parse %s", path),
		"Fix the reported line so every release starts with '<identifier>' or '<identifier> - <date>'",
		"Indent wrapped issue descriptions so they continue the previous issue",
		"Re-check with: versiontext check --input "+path,
	)
}

// InvalidPriorVersion creates an error when the prior release header does
// not follow the configured text key.
func InvalidPriorVersion(textKey string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"prior release does not match text_key",
		fmt.Sprintf("Current text_key is %q; set it to the form used by VERSION.txt headers", textKey),
		"Example: versiontext update --text-key jetty-VERSION",
	)
}

// TagRefreshFailed creates an error when tags cannot be fetched.
func TagRefreshFailed(remote string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		fmt.Sprintf("tag refresh from remote %q failed", remote),
		"Check network access and credentials for the remote (ssh-agent for SSH remotes)",
		"Check the remote name with: git remote -v",
		"Or run without --refresh-tags to use local tags only",
	)
}

// OutputFailure creates an error when the regenerated document cannot be
// read, written or copied.
func OutputFailure(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"unable to generate replacement VERSION.txt",
		"Check that "+path+" and its directory are writable",
		"Or choose another location with --output",
	)
}

// NoVersion creates an error when no version was given and none could be
// discovered from tags.
func NoVersion(tagKey string, err error) *CLIError {
	cliErr := WrapWithMessage(err, Argument,
		"no project version",
		"Pass the version explicitly: versiontext update --version 9.4.1",
		fmt.Sprintf("Or create a tag matching %q", tagKey),
	)
	cliErr.Usage = "versiontext update --version <version>"
	return cliErr
}

// ConfigInvalid creates an error for a configuration that failed to load.
func ConfigInvalid(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"invalid configuration",
		"Check .versiontext.yml and VERSIONTEXT_* environment variables",
		"List valid keys with: versiontext config keys",
		"Reset to defaults with: versiontext config init --force",
	)
}

// InvalidFlagValue creates an error for a flag whose value has the wrong type.
func InvalidFlagValue(flag string, err error) *CLIError {
	return WrapWithMessage(err, Argument,
		fmt.Sprintf("invalid value for --%s", flag),
		"Use 'versiontext <command> --help' to see valid options",
	)
}

// GitNotRepository creates an error when not in a git repository.
func GitNotRepository(dir string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("not a git repository: %s", dir),
		"Run versiontext from inside the project checkout",
		"Or point at it with --repo <dir>",
	)
}

// GitNotFound creates an error when the cli backend cannot find git.
func GitNotFound() *CLIError {
	return NewPrerequisiteError(
		"git command not found",
		"Install git or check that it is in your PATH",
		"Or use the built-in backend: --backend go-git",
	)
}

// DocumentNotFound creates an error when a command needs VERSION.txt and it
// is missing.
func DocumentNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("%s not found", path),
		"Run from the project root or pass --input <file>",
	)
}

// ReleaseNotFound creates an error when show is asked for an unknown release.
func ReleaseNotFound(version string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("no release %s in VERSION.txt", version),
		"List releases with: versiontext show --last 10",
	)
}
