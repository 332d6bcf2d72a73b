// Package git tests the git CLI backed Gateway using a scripted helper process.
// Related: internal/git/cli.go, internal/testutil/test_helper_process.go
// Tags: git, cli, helper-process
package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/versiontext/internal/testutil"
	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// TestGitHelperProcess stands in for the git executable.
func TestGitHelperProcess(t *testing.T) {
	testutil.TestHelperProcess(t)
}

const (
	headID = "4444444444444444444444444444444444444444"
	tagID  = "1111111111111111111111111111111111111111"
)

var scriptedGit = testutil.HelperProcessConfig{
	Default: testutil.HelperResponse{ExitCode: 129, Stderr: "usage: git\n"},
	Responses: map[string]testutil.HelperResponse{
		"rev-parse --git-dir": {Stdout: ".git\n"},
		"rev-parse HEAD":      {Stdout: headID + "\n"},
		"tag --list":          {Stdout: "jetty-1.0\njetty-1.1\n\n"},
		"rev-parse --quiet --verify refs/tags/jetty-1.0": {Stdout: tagID + "\n"},
		"rev-parse --quiet --verify refs/tags/jetty-2.0": {ExitCode: 1},
		"rev-parse --quiet --verify refs/tags/bad..name": {ExitCode: 128, Stderr: "fatal: bad name\n"},
		"rev-list -n 1 refs/tags/jetty-1.0":              {Stdout: tagID + "\n"},
		"fetch --tags --force origin":                    {},
		"fetch --tags --force upstream":                  {ExitCode: 128, Stderr: "fatal: 'upstream' does not appear to be a git repository\n"},
		"log --format=%H%x1f%B%x1e " + tagID + ".." + headID: {
			Stdout: "3333333333333333333333333333333333333333\x1f#700 newest change\n\x1e\n" +
				"2222222222222222222222222222222222222222\x1fIssue #612 fix request log\n\nJETTY-102 also fixes the access log\n\x1e\n",
		},
	},
}

func newScriptedCLI(t *testing.T, opts ...Option) *CLI {
	t.Helper()

	command := testutil.HelperCommand(t, "TestGitHelperProcess", scriptedGit)
	opts = append([]Option{WithCommand(CommandFunc(command))}, opts...)

	c, err := NewCLI(context.Background(), t.TempDir(), opts...)
	require.NoError(t, err)
	return c
}

func TestNewCLINotARepository(t *testing.T) {
	config := testutil.HelperProcessConfig{
		Default: testutil.HelperResponse{ExitCode: 128, Stderr: "fatal: not a git repository\n"},
	}
	command := testutil.HelperCommand(t, "TestGitHelperProcess", config)

	_, err := NewCLI(context.Background(), t.TempDir(), WithCommand(CommandFunc(command)))
	require.ErrorIs(t, err, ErrNotRepository)
	assert.Contains(t, err.Error(), "fatal: not a git repository")
}

func TestCLIListTags(t *testing.T) {
	c := newScriptedCLI(t)

	tags, err := c.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"jetty-1.0", "jetty-1.1"}, tags)
}

func TestCLIFindTagMatching(t *testing.T) {
	c := newScriptedCLI(t)

	tests := map[string]struct {
		version   string
		wantTag   string
		wantFound bool
		wantErr   bool
	}{
		"existing tag":   {version: "jetty-1.0", wantTag: "jetty-1.0", wantFound: true},
		"missing tag":    {version: "jetty-2.0"},
		"git error":      {version: "bad..name", wantErr: true},
		"unscripted tag": {version: "jetty-3.0", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tag, found, err := c.FindTagMatching(context.Background(), tt.version)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantTag, tag)
		})
	}
}

func TestCLICommitIDs(t *testing.T) {
	c := newScriptedCLI(t)
	ctx := context.Background()

	id, err := c.TagCommitID(ctx, "jetty-1.0")
	require.NoError(t, err)
	assert.Equal(t, tagID, id)

	id, err = c.HeadCommitID(ctx)
	require.NoError(t, err)
	assert.Equal(t, headID, id)
}

func TestCLIFetchTags(t *testing.T) {
	tests := map[string]struct {
		remote string
		want   bool
	}{
		"default remote": {want: true},
		"failing remote": {remote: "upstream", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newScriptedCLI(t, WithRemote(tt.remote))
			assert.Equal(t, tt.want, c.FetchTags(context.Background()))
		})
	}
}

func TestCLIPopulateIssuesForRange(t *testing.T) {
	c := newScriptedCLI(t)

	rel := versiontext.NewRelease("jetty-1.2")
	err := c.PopulateIssuesForRange(context.Background(), tagID, headID, rel)
	require.NoError(t, err)

	assert.Equal(t, []string{"700", "612", "JETTY-102"}, rel.IssueIDs())
	assert.Equal(t, "also fixes the access log", rel.Issues[2].Text)
}

func TestParseLog(t *testing.T) {
	tests := map[string]struct {
		out  string
		want []Commit
	}{
		"empty output": {},
		"single commit": {
			out:  "abc\x1fsubject\n\nbody\n\x1e\n",
			want: []Commit{{ID: "abc", Message: "subject\n\nbody"}},
		},
		"multiple commits": {
			out: "abc\x1fone\n\x1e\ndef\x1ftwo\n\x1e\n",
			want: []Commit{
				{ID: "abc", Message: "one"},
				{ID: "def", Message: "two"},
			},
		},
		"record without separator is skipped": {
			out:  "garbage\x1e\nabc\x1fone\n\x1e",
			want: []Commit{{ID: "abc", Message: "one"}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLog(tt.out))
		})
	}
}
