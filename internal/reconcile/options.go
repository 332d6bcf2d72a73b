package reconcile

import (
	"errors"
	"io/fs"
	"os"

	"github.com/ariel-frischer/versiontext/internal/pattern"
	"github.com/ariel-frischer/versiontext/internal/versiontext"
)

// Default values for Options fields left empty.
const (
	DefaultInput            = "VERSION.txt"
	DefaultOutput           = "target/VERSION.txt"
	DefaultAttachType       = "txt"
	DefaultAttachClassifier = "version"
)

// Options is the complete input of one run. It is built once by the caller
// and never modified by the Reconciler.
type Options struct {
	// Version is the raw project version, e.g. "9.4.1". When empty the most
	// recent tag conforming to TagKey supplies it.
	Version string
	// TextKey is the identifier template used in the document.
	TextKey string
	// TagKey is the identifier template used for git tags.
	TagKey string

	InputPath  string
	OutputPath string
	DateFormat string

	SortExisting  bool
	RefreshTags   bool
	UpdateDate    bool
	CopyGenerated bool
	Attach        bool
	Skip          bool

	AttachType       string
	AttachClassifier string
}

// withDefaults fills empty fields.
func (o Options) withDefaults() Options {
	if o.TextKey == "" {
		o.TextKey = pattern.DefaultKey
	}
	if o.TagKey == "" {
		o.TagKey = pattern.DefaultKey
	}
	if o.InputPath == "" {
		o.InputPath = DefaultInput
	}
	if o.OutputPath == "" {
		o.OutputPath = DefaultOutput
	}
	if o.DateFormat == "" {
		o.DateFormat = versiontext.DefaultDateFormat
	}
	if o.AttachType == "" {
		o.AttachType = DefaultAttachType
	}
	if o.AttachClassifier == "" {
		o.AttachClassifier = DefaultAttachClassifier
	}
	return o
}

// ShouldSkip reports whether generation is disabled for this run: either
// explicitly or because there is no input document to reconcile.
func ShouldSkip(opts Options) (bool, string) {
	opts = opts.withDefaults()
	if opts.Skip {
		return true, "generation disabled"
	}
	if _, err := os.Stat(opts.InputPath); errors.Is(err, fs.ErrNotExist) {
		return true, "no " + opts.InputPath + " found"
	}
	return false, ""
}
