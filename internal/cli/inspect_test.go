// Package cli tests the read-only commands: check, show, doctor and version.
// Related: internal/cli/check.go, internal/cli/show.go, internal/cli/doctor.go, internal/cli/version.go
// Tags: cli, check, show, doctor, version, health

package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/versiontext/internal/build"
	"github.com/ariel-frischer/versiontext/internal/cli/shared"
)

const twoReleases = "jetty-1.1\n" +
	" + JETTY-102 Second fix\n" +
	"\n" +
	"jetty-1.0 - 01 March 2024\n" +
	" + JETTY-101 First fix\n" +
	" + 612 Request log\n"

func addShowFlags(cmd *cobra.Command) {
	addDocumentFlags(cmd)
	cmd.Flags().IntP("last", "n", 0, "")
	cmd.Flags().Bool("plain", false, "")
	cmd.Flags().Bool("yaml", false, "")
}

func TestRunCheck(t *testing.T) {
	tests := map[string]struct {
		versionText string
		args        []string
		wantStdout  []string
		wantCode    int
		wantErr     string
	}{
		"valid document": {
			versionText: twoReleases,
			wantStdout: []string{
				"ok VERSION.txt: 2 release(s), 3 issue(s)",
				"latest: jetty-1.1",
			},
		},
		"non-conforming header is a warning": {
			versionText: "jetty-bogus\n + JETTY-1 Something\n",
			wantStdout: []string{
				"warning: release jetty-bogus does not match jetty-VERSION",
				"ok VERSION.txt: 1 release(s), 1 issue(s)",
				"1 release(s) do not match text_key",
			},
		},
		"missing custom input": {
			versionText: twoReleases,
			args:        []string{"--input", "missing.txt"},
			wantCode:    shared.ExitMissingDependency,
			wantErr:     "missing.txt not found",
		},
		"missing document": {
			wantCode: shared.ExitMissingDependency,
			wantErr:  "VERSION.txt not found",
		},
		"malformed document": {
			versionText: " + JETTY-1 orphan issue\n",
			wantCode:    shared.ExitMissingDependency,
			wantErr:     "cannot parse VERSION.txt",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			if tt.versionText != "" {
				writeVersionText(t, dir, tt.versionText)
			}

			stdout, _, err := runCommand(t, runCheck, addDocumentFlags, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.wantCode, shared.ExitCode(err))
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantStdout {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestRunShow(t *testing.T) {
	tests := map[string]struct {
		args         []string
		want         string
		wantContains []string
		wantErr      string
	}{
		"all releases": {
			args: []string{"--plain"},
			want: "jetty-1.1 (unreleased)\n" +
				"  + JETTY-102 Second fix\n" +
				"\n" +
				"jetty-1.0 (2024-03-01)\n" +
				"  + JETTY-101 First fix\n" +
				"  + 612 Request log\n",
		},
		"by identifier": {
			args: []string{"--plain", "jetty-1.0"},
			want: "jetty-1.0 (2024-03-01)\n" +
				"  + JETTY-101 First fix\n" +
				"  + 612 Request log\n",
		},
		"by raw version": {
			args: []string{"--plain", "1.1"},
			want: "jetty-1.1 (unreleased)\n" +
				"  + JETTY-102 Second fix\n",
		},
		"last": {
			args: []string{"--plain", "--last", "1"},
			want: "jetty-1.1 (unreleased)\n" +
				"  + JETTY-102 Second fix\n",
		},
		"yaml": {
			args:         []string{"--yaml", "-n", "1"},
			wantContains: []string{"releases:", "version: jetty-1.1", "id: JETTY-102", "text: Second fix"},
		},
		"unknown release": {
			args:    []string{"2.0"},
			wantErr: "no release 2.0 in VERSION.txt",
		},
		"negative last": {
			args:    []string{"--last=-1"},
			wantErr: "--last must not be negative",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			writeVersionText(t, dir, twoReleases)

			stdout, _, err := runCommand(t, runShow, addShowFlags, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, shared.ExitInvalidArguments, shared.ExitCode(err))
				return
			}
			require.NoError(t, err)
			if tt.wantContains != nil {
				for _, want := range tt.wantContains {
					assert.Contains(t, stdout, want)
				}
				assert.NotContains(t, stdout, "jetty-1.0")
				return
			}
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestRunDoctor(t *testing.T) {
	t.Run("healthy project", func(t *testing.T) {
		newProject(t, releasedOne)

		stdout, _, err := runCommand(t, runDoctor, addDoctorFlags)
		require.NoError(t, err)

		assert.Contains(t, stdout, "✓ Repository: opened . with go-git")
		assert.Contains(t, stdout, "✓ VERSION.txt:")
		assert.Contains(t, stdout, "✓ Text key: all releases match jetty-VERSION")
		assert.Contains(t, stdout, "✓ Tags: latest jetty-VERSION tag is jetty-1.0")
		assert.Contains(t, stdout, "✓ Prior tag: jetty-1.0 found for jetty-1.0")
		assert.NotContains(t, stdout, "✗")
	})

	t.Run("untagged prior release warns", func(t *testing.T) {
		newProject(t, "jetty-0.9\n + JETTY-50 Old\n")

		stdout, _, err := runCommand(t, runDoctor, addDoctorFlags, "--version", "1.1")
		require.NoError(t, err)
		assert.Contains(t, stdout, "! Prior tag: no tag jetty-0.9 for jetty-0.9")
	})

	t.Run("not a repository", func(t *testing.T) {
		dir := isolate(t)
		writeVersionText(t, dir, releasedOne)

		stdout, _, err := runCommand(t, runDoctor, addDoctorFlags)
		require.Error(t, err)

		var exitErr *shared.ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, shared.ExitMissingDependency, exitErr.Code)
		assert.Contains(t, stdout, "✗ Repository:")
		assert.Contains(t, stdout, "✓ VERSION.txt:")
		assert.NotContains(t, stdout, "Tags:")
	})
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		print func(w *bytes.Buffer)
		want  []string
	}{
		"plain": {
			print: func(w *bytes.Buffer) { printPlainVersion(w) },
			want:  []string{"versiontext " + build.Version + "\n", "commit: " + build.Commit + "\n", "go: "},
		},
		"pretty": {
			print: func(w *bytes.Buffer) { printPrettyVersion(w) },
			want:  []string{"versiontext", "Commit", build.SourceURL},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.print(&buf)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
