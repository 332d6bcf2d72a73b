package reconcile

import (
	"context"
	"errors"
	"sort"

	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// fakeGateway is an in-memory git history. Ranges are keyed "from..to" and
// list the issues the range references, newest first.
type fakeGateway struct {
	tags    map[string]string
	head    string
	ranges  map[string][]versiontext.Issue
	fetchOK bool

	findErr error

	fetchCalls    int
	populateCalls []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		tags:    map[string]string{},
		head:    "HEAD-COMMIT",
		ranges:  map[string][]versiontext.Issue{},
		fetchOK: true,
	}
}

func (f *fakeGateway) FetchTags(context.Context) bool {
	f.fetchCalls++
	return f.fetchOK
}

func (f *fakeGateway) ListTags(context.Context) ([]string, error) {
	tags := make([]string, 0, len(f.tags))
	for tag := range f.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (f *fakeGateway) FindTagMatching(_ context.Context, versionID string) (string, bool, error) {
	if f.findErr != nil {
		return "", false, f.findErr
	}
	if _, ok := f.tags[versionID]; ok {
		return versionID, true, nil
	}
	return "", false, nil
}

func (f *fakeGateway) TagCommitID(_ context.Context, tag string) (string, error) {
	commit, ok := f.tags[tag]
	if !ok {
		return "", errors.New("no such tag " + tag)
	}
	return commit, nil
}

func (f *fakeGateway) HeadCommitID(context.Context) (string, error) {
	return f.head, nil
}

func (f *fakeGateway) PopulateIssuesForRange(_ context.Context, from, to string, rel *versiontext.Release) error {
	key := from + ".." + to
	f.populateCalls = append(f.populateCalls, key)
	for _, issue := range f.ranges[key] {
		rel.AddIssue(issue)
	}
	return nil
}
