package testutil

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

var (
	// binaryPath caches the built versiontext binary path.
	binaryPath string
	buildOnce  sync.Once
	buildErr   error
)

// E2EEnv provides an isolated project for E2E testing: a temp directory
// holding a git repository, a HOME without user config, and a freshly built
// versiontext binary.
type E2EEnv struct {
	t         *testing.T
	tempDir   string
	binDir    string
	env       []string
	cleanedUp bool
	clock     time.Time
}

// CommandResult captures the result of running a versiontext command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// NewE2EEnv creates a new E2E test environment. Tests are skipped when git
// is not installed, since the fixture repository is built with it.
func NewE2EEnv(t *testing.T) *E2EEnv {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	env := &E2EEnv{
		t:     t,
		clock: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}

	env.setup()
	t.Cleanup(env.Cleanup)

	return env
}

func (e *E2EEnv) setup() {
	e.t.Helper()

	tempDir, err := os.MkdirTemp("", "e2e-test-*")
	if err != nil {
		e.t.Fatalf("creating temp directory: %v", err)
	}
	e.tempDir = tempDir

	e.binDir = filepath.Join(tempDir, ".bin")
	if err := os.MkdirAll(e.binDir, 0o755); err != nil {
		e.t.Fatalf("creating bin directory: %v", err)
	}

	e.buildVersiontext()
	e.env = e.buildIsolatedEnv()
}

func (e *E2EEnv) buildVersiontext() {
	e.t.Helper()

	buildOnce.Do(func() {
		binaryPath, buildErr = doBuild()
	})
	if buildErr != nil {
		e.t.Fatalf("building versiontext: %v", buildErr)
	}

	content, err := os.ReadFile(binaryPath)
	if err != nil {
		e.t.Fatalf("reading versiontext binary: %v", err)
	}
	if err := os.WriteFile(filepath.Join(e.binDir, "versiontext"), content, 0o755); err != nil {
		e.t.Fatalf("writing versiontext binary: %v", err)
	}
}

func doBuild() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("determining current file location")
	}
	// Navigate from internal/testutil/ to repo root
	repoRoot := filepath.Join(filepath.Dir(currentFile), "..", "..")

	tmpDir, err := os.MkdirTemp("", "versiontext-build-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir for build: %w", err)
	}
	path := filepath.Join(tmpDir, "versiontext")

	cmd := exec.Command("go", "build", "-o", path, "./cmd/versiontext")
	cmd.Dir = repoRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("building versiontext: %w\nOutput: %s", err, output)
	}
	return path, nil
}

func (e *E2EEnv) buildIsolatedEnv() []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + e.tempDir,
		"XDG_CONFIG_HOME=" + filepath.Join(e.tempDir, ".config"),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@test.com",
	}

	// VERSIONTEXT_* variables are left out so the host cannot change results.
	safeVars := []string{"TERM", "LANG", "LC_ALL", "TMPDIR", "TMP", "TEMP"}
	for _, key := range safeVars {
		if val, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+val)
		}
	}
	return env
}

// Run executes a versiontext command in the project directory.
func (e *E2EEnv) Run(args ...string) CommandResult {
	e.t.Helper()
	return e.RunIn(e.tempDir, args...)
}

// RunIn executes a versiontext command in dir.
func (e *E2EEnv) RunIn(dir string, args ...string) CommandResult {
	e.t.Helper()

	start := time.Now()
	cmd := exec.Command(filepath.Join(e.binDir, "versiontext"), args...)
	cmd.Dir = dir
	cmd.Env = e.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
		}
	}
	return result
}

// TempDir returns the project directory of this test environment.
func (e *E2EEnv) TempDir() string {
	return e.tempDir
}

// SetEnv adds or replaces an environment variable for later runs.
func (e *E2EEnv) SetEnv(key, value string) {
	prefix := key + "="
	for i, kv := range e.env {
		if strings.HasPrefix(kv, prefix) {
			e.env[i] = prefix + value
			return
		}
	}
	e.env = append(e.env, prefix+value)
}

// InitGitRepo initializes a git repository in the project directory.
func (e *E2EEnv) InitGitRepo() {
	e.t.Helper()
	e.git("init", "--quiet")
}

// Commit records an empty commit with message and returns its hash.
// Commits are one hour apart so history order is deterministic.
func (e *E2EEnv) Commit(message string) string {
	e.t.Helper()

	e.clock = e.clock.Add(time.Hour)
	date := e.clock.Format(time.RFC3339)
	e.gitWithEnv([]string{"GIT_AUTHOR_DATE=" + date, "GIT_COMMITTER_DATE=" + date},
		"commit", "--quiet", "--allow-empty", "-m", message)
	return strings.TrimSpace(e.git("rev-parse", "HEAD"))
}

// Tag creates a lightweight tag at HEAD.
func (e *E2EEnv) Tag(name string) {
	e.t.Helper()
	e.git("tag", name)
}

// WriteFile writes a file relative to the project directory.
func (e *E2EEnv) WriteFile(name, content string) {
	e.t.Helper()

	path := filepath.Join(e.tempDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatalf("writing %s: %v", name, err)
	}
}

// ReadFile reads a file relative to the project directory.
func (e *E2EEnv) ReadFile(name string) string {
	e.t.Helper()

	content, err := os.ReadFile(filepath.Join(e.tempDir, name))
	if err != nil {
		e.t.Fatalf("reading %s: %v", name, err)
	}
	return string(content)
}

// FileExists reports whether a file exists relative to the project directory.
func (e *E2EEnv) FileExists(name string) bool {
	_, err := os.Stat(filepath.Join(e.tempDir, name))
	return err == nil
}

func (e *E2EEnv) git(args ...string) string {
	e.t.Helper()
	return e.gitWithEnv(nil, args...)
}

func (e *E2EEnv) gitWithEnv(extra []string, args ...string) string {
	e.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = e.tempDir
	cmd.Env = append(append([]string{}, e.env...), extra...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		e.t.Fatalf("git %s failed: %v\nOutput: %s", strings.Join(args, " "), err, output)
	}
	return string(output)
}

// Cleanup removes temp files.
func (e *E2EEnv) Cleanup() {
	if e.cleanedUp {
		return
	}
	e.cleanedUp = true

	if e.tempDir != "" {
		if err := os.RemoveAll(e.tempDir); err != nil {
			e.t.Logf("note: could not remove temp directory: %v", err)
		}
	}
}
