// Package versiontext tests VERSION.txt parsing and malformed document detection.
// Related: internal/versiontext/parser.go
// Tags: versiontext, parser, malformed

package versiontext

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ariel-frischer/versiontext/internal/pattern"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `jetty-9.4.1 - 20 January 2017
 + JETTY-101 Support HTTP Trailer
 + 612 Fix request log
   wrapped continuation line

jetty-9.4.0
 + JETTY-100 Initial import
`

func newTestDocument(t *testing.T, content string) *Document {
	t.Helper()

	doc := New(pattern.MustCompile("jetty-VERSION"))
	require.NoError(t, doc.Parse(strings.NewReader(content)))
	return doc
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestParse(t *testing.T) {
	t.Parallel()

	doc := newTestDocument(t, sampleDoc)

	want := []*Release{
		{
			Version:    "jetty-9.4.1",
			ReleasedOn: date(2017, time.January, 20),
			Issues: []Issue{
				{ID: "JETTY-101", Text: "Support HTTP Trailer"},
				{ID: "612", Text: "Fix request log", Continuation: []string{"   wrapped continuation line"}},
			},
		},
		{
			Version: "jetty-9.4.0",
			Issues:  []Issue{{ID: "JETTY-100", Text: "Initial import"}},
		},
	}

	if diff := cmp.Diff(want, doc.Releases(), cmpopts.IgnoreUnexported(Release{})); diff != "" {
		t.Errorf("parsed releases mismatch (-want +got):\n%s", diff)
	}
	for _, rel := range doc.Releases() {
		assert.True(t, rel.existing, "%s should be marked as read from the document", rel.Version)
	}
}

func TestParseVariants(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content      string
		wantVersions []string
		wantIssues   map[string][]string
		wantDates    map[string]string
	}{
		"empty document": {
			content:      "",
			wantVersions: []string{},
		},
		"blank lines only": {
			content:      "\n\n   \n",
			wantVersions: []string{},
		},
		"header without issues": {
			content:      "jetty-1.0\n",
			wantVersions: []string{"jetty-1.0"},
			wantIssues:   map[string][]string{"jetty-1.0": nil},
		},
		"crlf line endings": {
			content:      "jetty-1.0\r\n + 1 first\r\n\r\njetty-0.9\r\n",
			wantVersions: []string{"jetty-1.0", "jetty-0.9"},
			wantIssues:   map[string][]string{"jetty-1.0": {"1"}},
		},
		"standalone released line": {
			content:      "jetty-1.0\n  released 2017-01-20\n + 1 first\n",
			wantVersions: []string{"jetty-1.0"},
			wantDates:    map[string]string{"jetty-1.0": "2017-01-20"},
		},
		"single digit day": {
			content:      "jetty-1.0 - 8 December 2016\n",
			wantVersions: []string{"jetty-1.0"},
			wantDates:    map[string]string{"jetty-1.0": "2016-12-08"},
		},
		"duplicate issue ids keep the first": {
			content:      "jetty-1.0\n + 1 first\n + 1 again\n + 2 second\n",
			wantVersions: []string{"jetty-1.0"},
			wantIssues:   map[string][]string{"jetty-1.0": {"1", "2"}},
		},
		"non-version header value has the key shape": {
			content:      "jetty-bogus\n + 1 first\n",
			wantVersions: []string{"jetty-bogus"},
		},
		"dangling date separator means no date": {
			content:      "jetty-1.0 -\n + 1 first\n",
			wantVersions: []string{"jetty-1.0"},
			wantIssues:   map[string][]string{"jetty-1.0": {"1"}},
		},
		"dangling date separator with trailing space": {
			content:      "jetty-1.0 - \n",
			wantVersions: []string{"jetty-1.0"},
		},
		"tab indented issue": {
			content:      "jetty-1.0\n\t+ 7 tabbed\n",
			wantVersions: []string{"jetty-1.0"},
			wantIssues:   map[string][]string{"jetty-1.0": {"7"}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc := newTestDocument(t, tt.content)
			assert.Equal(t, tt.wantVersions, doc.ListVersions())

			for version, ids := range tt.wantIssues {
				rel := doc.FindRelease(version)
				require.NotNil(t, rel)
				if ids == nil {
					assert.Empty(t, rel.Issues)
					continue
				}
				assert.Equal(t, ids, rel.IssueIDs())
			}
			for version, want := range tt.wantDates {
				rel := doc.FindRelease(version)
				require.NotNil(t, rel)
				require.NotNil(t, rel.ReleasedOn)
				assert.Equal(t, want, rel.ReleasedOn.Format("2006-01-02"))
			}
		})
	}
}

func TestParseDanglingDateSeparator(t *testing.T) {
	t.Parallel()

	doc := newTestDocument(t, "jetty-1.0 -\n + 1 first\n")

	rel := doc.FindRelease("jetty-1.0")
	require.NotNil(t, rel)
	assert.Nil(t, rel.ReleasedOn)
	assert.Equal(t, "jetty-1.0\n + 1 first\n", doc.String())
}

func TestParseDuplicateIssueDropsItsContinuation(t *testing.T) {
	t.Parallel()

	content := "jetty-1.0\n" +
		" + 100 first\n" +
		" + 200 second\n" +
		" + 100 dup of first\n" +
		"   continuation of dup\n" +
		" + 300 third\n" +
		"   continuation of third\n"
	doc := newTestDocument(t, content)

	want := []Issue{
		{ID: "100", Text: "first"},
		{ID: "200", Text: "second"},
		{ID: "300", Text: "third", Continuation: []string{"   continuation of third"}},
	}
	assert.Equal(t, want, doc.FindRelease("jetty-1.0").Issues)
	assert.Equal(t, "jetty-1.0\n"+
		" + 100 first\n"+
		" + 200 second\n"+
		" + 300 third\n"+
		"   continuation of third\n", doc.String())
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content    string
		wantLine   int
		wantReason string
	}{
		"issue before any header": {
			content:    " + JETTY-1 orphan\n",
			wantLine:   1,
			wantReason: "content before first version header",
		},
		"header with another product key": {
			content:    "jetty-1.0\n\nhightide-1.0\n",
			wantLine:   3,
			wantReason: "header does not match version key",
		},
		"unparseable date": {
			content:    "jetty-1.0 - someday\n",
			wantLine:   1,
			wantReason: "invalid release date",
		},
		"duplicate version": {
			content:    "jetty-1.0\n + 1 a\n\njetty-1.0\n",
			wantLine:   4,
			wantReason: "duplicate version",
		},
		"stray text before issues": {
			content:    "jetty-1.0\n   stray text\n",
			wantLine:   2,
			wantReason: "expected an issue line",
		},
		"issue without id": {
			content:    "jetty-1.0\n +\n",
			wantLine:   2,
			wantReason: "issue line without id",
		},
		"bad released line": {
			content:    "jetty-1.0\n  released whenever\n",
			wantLine:   2,
			wantReason: "invalid release date",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc := New(pattern.MustCompile("jetty-VERSION"))
			err := doc.Parse(strings.NewReader(tt.content))
			require.Error(t, err)

			assert.True(t, errors.Is(err, ErrMalformedDocument))
			assert.True(t, IsMalformed(err))

			var me *MalformedDocumentError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.wantLine, me.Line)
			assert.Contains(t, me.Reason, tt.wantReason)
		})
	}
}

func TestParseReplacesPreviousContent(t *testing.T) {
	t.Parallel()

	doc := newTestDocument(t, sampleDoc)
	require.NoError(t, doc.Parse(strings.NewReader("jetty-2.0\n")))

	assert.Equal(t, []string{"jetty-2.0"}, doc.ListVersions())
}

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "VERSION.txt")
		require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

		doc := New(pattern.MustCompile("jetty-VERSION"))
		require.NoError(t, doc.Read(path))
		assert.Equal(t, 2, doc.Len())
		assert.Equal(t, 3, doc.IssueCount())
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		doc := New(pattern.MustCompile("jetty-VERSION"))
		err := doc.Read(filepath.Join(t.TempDir(), "missing.txt"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
		assert.False(t, IsMalformed(err))
	})

	t.Run("malformed file keeps the sentinel", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "VERSION.txt")
		require.NoError(t, os.WriteFile(path, []byte("not a header\n"), 0o644))

		doc := New(pattern.MustCompile("jetty-VERSION"))
		err := doc.Read(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedDocument))
		assert.Contains(t, err.Error(), path)
	})
}

func TestCustomDateFormat(t *testing.T) {
	t.Parallel()

	doc := New(pattern.MustCompile("jetty-VERSION"), WithDateFormat("2006/01/02"))
	require.NoError(t, doc.Parse(strings.NewReader("jetty-1.0 - 2020/03/04\n")))

	rel := doc.FindRelease("jetty-1.0")
	require.NotNil(t, rel)
	require.NotNil(t, rel.ReleasedOn)
	assert.Equal(t, "jetty-1.0 - 2020/03/04\n", doc.String())
}
