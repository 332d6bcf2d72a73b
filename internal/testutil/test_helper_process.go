// Package testutil provides test utilities and helpers for versiontext tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// HelperResponse is what the helper process prints for one invocation.
type HelperResponse struct {
	// ExitCode is the exit code to return (default 0).
	ExitCode int `json:"exit_code"`
	// Stdout is the content to write to stdout.
	Stdout string `json:"stdout"`
	// Stderr is the content to write to stderr.
	Stderr string `json:"stderr"`
}

// HelperProcessConfig configures the behavior of TestHelperProcess.
type HelperProcessConfig struct {
	// Default is used when no entry of Responses matches.
	Default HelperResponse `json:"default"`
	// Responses maps the space-joined arguments of an invocation, without
	// the program name, to its scripted response.
	Responses map[string]HelperResponse `json:"responses,omitempty"`
}

// HelperProcessEnvVars contains the environment variable names used by TestHelperProcess.
const (
	// EnvWantHelperProcess signals that the test binary should run as a helper process.
	EnvWantHelperProcess = "GO_WANT_HELPER_PROCESS"
	// EnvHelperProcessConfig contains JSON-encoded HelperProcessConfig.
	EnvHelperProcessConfig = "GO_HELPER_PROCESS_CONFIG"
)

// TestHelperProcess is a function to be called from a test function
// to implement the helper process pattern. When invoked with GO_WANT_HELPER_PROCESS=1,
// it behaves as a mock subprocess and exits without returning.
//
// Usage in test file:
//
//	func TestGitHelperProcess(t *testing.T) {
//	    testutil.TestHelperProcess(t)
//	}
//
// If GO_WANT_HELPER_PROCESS is not set, it returns immediately, allowing
// normal test execution.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(EnvWantHelperProcess) != "1" {
		return
	}

	config := parseHelperConfig()
	runHelperProcess(config.responseFor(helperArgs(os.Args)))
	// runHelperProcess calls os.Exit, so this line is never reached
}

// parseHelperConfig parses HelperProcessConfig from environment variable.
func parseHelperConfig() HelperProcessConfig {
	config := HelperProcessConfig{}
	configJSON := os.Getenv(EnvHelperProcessConfig)
	if configJSON != "" {
		// Ignore parse errors; use defaults on failure
		_ = json.Unmarshal([]byte(configJSON), &config)
	}
	return config
}

// helperArgs returns the arguments after "--" minus the program name.
func helperArgs(argv []string) []string {
	for i, arg := range argv {
		if arg == "--" {
			rest := argv[i+1:]
			if len(rest) > 0 {
				return rest[1:]
			}
			return nil
		}
	}
	return nil
}

func (c HelperProcessConfig) responseFor(args []string) HelperResponse {
	if resp, ok := c.Responses[strings.Join(args, " ")]; ok {
		return resp
	}
	return c.Default
}

// runHelperProcess writes the configured output and always exits.
func runHelperProcess(resp HelperResponse) {
	if resp.Stdout != "" {
		fmt.Fprint(os.Stdout, resp.Stdout)
	}
	if resp.Stderr != "" {
		fmt.Fprint(os.Stderr, resp.Stderr)
	}
	os.Exit(resp.ExitCode)
}

// CommandFunc builds a command the way exec.CommandContext does.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// HelperCommand returns a CommandFunc that runs the test binary as a helper
// process instead of the real program. testName must be the test function
// that calls TestHelperProcess.
func HelperCommand(t *testing.T, testName string, config HelperProcessConfig) CommandFunc {
	t.Helper()

	// Get the test binary path
	testBinary, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to get test binary path: %v", err)
	}

	env := buildHelperEnv(t, config)
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmdArgs := append([]string{"-test.run=^" + testName + "$", "--", name}, args...)
		cmd := exec.CommandContext(ctx, testBinary, cmdArgs...)
		cmd.Env = env
		return cmd
	}
}

// buildHelperEnv constructs the environment variables for helper process.
func buildHelperEnv(t *testing.T, config HelperProcessConfig) []string {
	t.Helper()

	env := append(os.Environ(), EnvWantHelperProcess+"=1")

	configJSON, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("encoding helper config: %v", err)
	}
	return append(env, EnvHelperProcessConfig+"="+string(configJSON))
}
