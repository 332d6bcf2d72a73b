package versiontext

import (
	"bytes"
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

func TestWriteReproducesInput(t *testing.T) {
	t.Parallel()

	doc := newTestDocument(t, sampleDoc)
	assert.Equal(t, sampleDoc, doc.String())

	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(sampleDoc)), n)
	assert.Equal(t, sampleDoc, buf.String())
}

func TestWriteNormalizesLayout(t *testing.T) {
	t.Parallel()

	input := "jetty-1.1\n  released 2017-01-20\n   +   5    spaced out\n\n\n\njetty-1.0\n"
	want := "jetty-1.1 - 20 January 2017\n + 5 spaced out\n\njetty-1.0\n"

	doc := newTestDocument(t, input)
	assert.Equal(t, want, doc.String())
}

func TestWriteRoundTripIsStable(t *testing.T) {
	t.Parallel()

	p := pattern.MustCompile("jetty-VERSION")

	tests := map[string]func() *Document{
		"empty document": func() *Document {
			return New(p)
		},
		"releases built in memory": func() *Document {
			doc := New(p)
			older := NewRelease("jetty-1.0")
			older.SetReleasedOn(time.Date(2016, time.December, 8, 0, 0, 0, 0, time.UTC))
			older.AddIssue(Issue{ID: "JETTY-1", Text: "first"})
			older.AddIssue(Issue{ID: "2"})
			doc.ReplaceOrPrepend(older)

			newer := NewRelease("jetty-1.1")
			newer.AddIssue(Issue{ID: "JETTY-3", Text: "third", Continuation: []string{"     more detail"}})
			doc.ReplaceOrPrepend(newer)

			doc.ReplaceOrPrepend(NewRelease("jetty-1.2"))
			return doc
		},
		"parsed sample": func() *Document {
			doc := New(p)
			_ = doc.Parse(strings.NewReader(sampleDoc))
			return doc
		},
	}

	for name, build := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			original := build()
			first := original.String()

			reparsed := New(p)
			require.NoError(t, reparsed.Parse(strings.NewReader(first)))

			assert.Equal(t, first, reparsed.String())
			if diff := cmp.Diff(original.Releases(), reparsed.Releases(), cmpopts.IgnoreUnexported(Release{}), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("reparsed releases mismatch (-original +reparsed):\n%s", diff)
			}
		})
	}
}

func TestWriteSortExisting(t *testing.T) {
	t.Parallel()

	const input = `jetty-1.0
 + JETTY-300 c

jetty-0.9
 + JETTY-200 b
 + JETTY-100 a
 + JETTY-99 z
`

	t.Run("new release keeps its order", func(t *testing.T) {
		t.Parallel()

		doc := newTestDocument(t, input)
		doc.SetSortExisting(true)

		merged := NewRelease("jetty-1.1")
		merged.AddIssue(Issue{ID: "JETTY-20", Text: "newest"})
		merged.AddIssue(Issue{ID: "JETTY-10", Text: "older"})
		doc.ReplaceOrPrepend(merged)

		want := `jetty-1.1
 + JETTY-20 newest
 + JETTY-10 older

jetty-1.0
 + JETTY-300 c

jetty-0.9
 + JETTY-99 z
 + JETTY-100 a
 + JETTY-200 b
`
		assert.Equal(t, want, doc.String())
		assert.Equal(t, []string{"JETTY-200", "JETTY-100", "JETTY-99"}, doc.FindRelease("jetty-0.9").IssueIDs(),
			"sorting only applies to the written output")
	})

	t.Run("existing release merged in place is not sorted", func(t *testing.T) {
		t.Parallel()

		doc := newTestDocument(t, input)
		doc.SetSortExisting(true)

		rel := doc.FindRelease("jetty-0.9")
		require.NotNil(t, rel)
		rel.AddIssue(Issue{ID: "JETTY-50", Text: "new"})
		doc.ReplaceOrPrepend(rel)

		out := doc.String()
		assert.Contains(t, out, " + JETTY-200 b\n + JETTY-100 a\n + JETTY-99 z\n + JETTY-50 new\n")
	})

	t.Run("sorting disabled", func(t *testing.T) {
		t.Parallel()

		doc := newTestDocument(t, input)
		assert.Equal(t, input, doc.String())
	})
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	t.Run("writes and reads back", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "VERSION.txt")
		doc := newTestDocument(t, sampleDoc)
		require.NoError(t, doc.Write(path))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, sampleDoc, string(content))

		again := New(pattern.MustCompile("jetty-VERSION"))
		require.NoError(t, again.Read(path))
		assert.Equal(t, doc.ListVersions(), again.ListVersions())
	})

	t.Run("missing parent directory", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "no", "such", "dir", "VERSION.txt")
		doc := newTestDocument(t, sampleDoc)
		assert.Error(t, doc.Write(path))
	})
}
