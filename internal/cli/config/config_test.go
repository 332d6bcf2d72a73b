// Package config tests the config init, show, keys and migrate commands.
// Related: internal/cli/config/config_cmd.go, internal/cli/config/init_cmd.go, internal/cli/config/migrate_cmd.go
// Tags: config, cli, show, init, migrate

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty project with no user config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".xdg"))
	return dir
}

func run(t *testing.T, runE func(*cobra.Command, []string) error, setup func(*cobra.Command), args ...string) (string, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: runE}
	cmd.Flags().String("config", "", "")
	if setup != nil {
		setup(cmd)
	}

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRunConfigShow(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".versiontext.yml"), []byte("tag_key: vVERSION\n"), 0o644))
	t.Setenv("VERSIONTEXT_GIT_BACKEND", "cli")

	out, err := run(t, runConfigShow, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "Configuration Sources")
	assert.Contains(t, out, ".versiontext.yml")
	assert.Contains(t, out, "VERSIONTEXT_GIT_BACKEND")
	assert.Contains(t, out, "tag_key: vVERSION")
	assert.Contains(t, out, "backend: cli")
	assert.Contains(t, out, "fetch_timeout: 1m0s")
}

func TestRunConfigShowInvalid(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".versiontext.yml"), []byte("git:\n  backend: svn\n"), 0o644))

	_, err := run(t, runConfigShow, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRunConfigKeys(t *testing.T) {
	isolate(t)

	out, err := run(t, runConfigKeys, nil)
	require.NoError(t, err)

	for _, want := range []string{"KEY", "git.backend", "go-git|cli", "tag_key", "jetty-VERSION", "git.fetch_timeout", "60s"} {
		assert.Contains(t, out, want)
	}
}

func TestRunConfigInit(t *testing.T) {
	tests := map[string]struct {
		existing  string
		args      []string
		force     bool
		wantMsg   string
		wantFresh bool
	}{
		"creates in current directory": {
			wantMsg:   "Created",
			wantFresh: true,
		},
		"creates in directory argument": {
			args:      []string{"nested/project"},
			wantMsg:   "Created",
			wantFresh: true,
		},
		"keeps existing config": {
			existing: "tag_key: vVERSION\n",
			wantMsg:  "Config exists",
		},
		"force overwrites": {
			existing:  "tag_key: vVERSION\n",
			force:     true,
			wantMsg:   "Created",
			wantFresh: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			target := filepath.Join(dir, ".versiontext.yml")
			if len(tt.args) > 0 {
				target = filepath.Join(dir, tt.args[0], ".versiontext.yml")
			}
			if tt.existing != "" {
				require.NoError(t, os.WriteFile(target, []byte(tt.existing), 0o644))
			}

			args := tt.args
			if tt.force {
				args = append(args, "--force")
			}
			out, err := run(t, runConfigInit, func(cmd *cobra.Command) {
				cmd.Flags().Bool("user", false, "")
				cmd.Flags().BoolP("force", "f", false, "")
			}, args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantMsg)

			data, err := os.ReadFile(target)
			require.NoError(t, err)
			if tt.wantFresh {
				assert.Contains(t, string(data), "# versiontext configuration")
			} else {
				assert.Equal(t, tt.existing, string(data))
			}
		})
	}
}

func TestRunConfigInitUser(t *testing.T) {
	dir := isolate(t)

	_, err := run(t, runConfigInit, func(cmd *cobra.Command) {
		cmd.Flags().Bool("user", false, "")
		cmd.Flags().BoolP("force", "f", false, "")
	}, "--user")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, ".xdg", "versiontext", "config.yml"))
}

func TestRunConfigMigrate(t *testing.T) {
	tests := map[string]struct {
		dryRun   bool
		wantYAML bool
		wantBak  bool
		wantMsg  string
	}{
		"dry run": {
			dryRun:  true,
			wantMsg: "Would migrate",
		},
		"migrates and backs up": {
			wantYAML: true,
			wantBak:  true,
			wantMsg:  "renamed to",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, ".versiontext.json"), []byte(`{"tag_key": "vVERSION"}`), 0o644))

			var args []string
			if tt.dryRun {
				args = append(args, "--dry-run")
			}
			out, err := run(t, runConfigMigrate, func(cmd *cobra.Command) {
				cmd.Flags().Bool("dry-run", false, "")
			}, args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantMsg)

			_, yamlErr := os.Stat(filepath.Join(dir, ".versiontext.yml"))
			assert.Equal(t, tt.wantYAML, yamlErr == nil)
			_, bakErr := os.Stat(filepath.Join(dir, ".versiontext.json.bak"))
			assert.Equal(t, tt.wantBak, bakErr == nil)
		})
	}
}

func TestRunConfigMigrateNothingToDo(t *testing.T) {
	isolate(t)

	out, err := run(t, runConfigMigrate, func(cmd *cobra.Command) {
		cmd.Flags().Bool("dry-run", false, "")
	})
	require.NoError(t, err)
	assert.Contains(t, out, "No JSON config")
}

func TestResolvePath(t *testing.T) {
	dir := isolate(t)

	tests := map[string]struct {
		raw  string
		want string
	}{
		"empty":    {raw: "", want: dir},
		"dot":      {raw: ".", want: dir},
		"relative": {raw: "sub", want: filepath.Join(dir, "sub")},
		"absolute": {raw: filepath.Join(dir, "abs"), want: filepath.Join(dir, "abs")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ResolvePath(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, evalSymlinks(t, tt.want), evalSymlinks(t, got))
		})
	}
}

func TestEnsureDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.NoError(t, EnsureDirectory(filepath.Join(dir, "a", "b")))
	assert.DirExists(t, filepath.Join(dir, "a", "b"))
	assert.NoError(t, EnsureDirectory(dir))
	assert.Error(t, EnsureDirectory(file))
}

// evalSymlinks resolves path components that exist, since temp dirs may
// live behind a symlink (e.g. /var on macOS).
func evalSymlinks(t *testing.T, path string) string {
	t.Helper()
	dir, base := filepath.Split(path)
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(resolved, base)
	}
	return path
}
