package versiontext

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ErrMalformedDocument is matched by every MalformedDocumentError.
var ErrMalformedDocument = errors.New("malformed VERSION.txt")

// MalformedDocumentError reports a line that could not be parsed.
type MalformedDocumentError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return e.Reason
}

// Is lets errors.Is(err, ErrMalformedDocument) match.
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// IsMalformed returns true if the error is a MalformedDocumentError.
func IsMalformed(err error) bool {
	var me *MalformedDocumentError
	return errors.As(err, &me)
}

// releasedPrefix introduces a standalone release-date line under a header.
const releasedPrefix = "released "

// fallbackDateFormats are tried after the configured layout.
var fallbackDateFormats = []string{"2 January 2006", "2006-01-02"}

// Read replaces the document content with the releases parsed from path.
func (d *Document) Read(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening VERSION.txt: %w", err)
	}
	defer f.Close()

	if err := d.Parse(f); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// Parse replaces the document content with the releases parsed from r.
func (d *Document) Parse(r io.Reader) error {
	p := &parser{doc: d, seen: make(map[string]bool)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.lineNo++
		if err := p.parseLine(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning VERSION.txt: %w", err)
	}

	d.releases = p.releases
	d.merged = ""
	return nil
}

// parser holds the state of a single Parse call.
type parser struct {
	doc      *Document
	releases []*Release
	current  *Release
	seen     map[string]bool
	lineNo   int
	// dropping is set after a duplicate issue line; its continuation lines
	// are dropped with it.
	dropping bool
}

func (p *parser) parseLine(raw string) error {
	line := strings.TrimRight(raw, " \t\r")
	if line == "" {
		return nil
	}

	if !isIndented(line) {
		return p.parseHeader(line)
	}

	if p.current == nil {
		return p.malformed(line, "content before first version header")
	}

	body := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(body, "+"):
		return p.parseIssue(line, body)
	case p.isReleasedLine(body):
		return p.parseReleasedLine(line, body)
	case p.dropping:
		return nil
	case len(p.current.Issues) > 0:
		last := &p.current.Issues[len(p.current.Issues)-1]
		last.Continuation = append(last.Continuation, line)
		return nil
	default:
		return p.malformed(line, "expected an issue line")
	}
}

// parseHeader handles "<version>" and "<version> - <date>". A dangling
// " -" with no date is treated as no date.
func (p *parser) parseHeader(line string) error {
	p.dropping = false
	line = strings.TrimSuffix(line, " -")
	version, dateText, hasDate := strings.Cut(line, " - ")
	version = strings.TrimSpace(version)

	if !p.doc.pattern.HasShape(version) {
		return p.malformed(line, fmt.Sprintf("header does not match version key %q", p.doc.pattern.Key()))
	}
	if p.seen[version] {
		return p.malformed(line, "duplicate version "+version)
	}

	rel := &Release{Version: version, existing: true}
	if hasDate {
		date, err := p.doc.parseDate(strings.TrimSpace(dateText))
		if err != nil {
			return p.malformed(line, "invalid release date")
		}
		rel.ReleasedOn = &date
	}

	p.seen[version] = true
	p.releases = append(p.releases, rel)
	p.current = rel
	return nil
}

// parseIssue handles " + <id> <text>". Later duplicates of an id are dropped.
func (p *parser) parseIssue(line, body string) error {
	rest := strings.TrimSpace(strings.TrimPrefix(body, "+"))
	if rest == "" {
		return p.malformed(line, "issue line without id")
	}

	id, text, _ := strings.Cut(rest, " ")
	p.dropping = !p.current.AddIssue(Issue{ID: id, Text: strings.TrimSpace(text)})
	return nil
}

func (p *parser) isReleasedLine(body string) bool {
	return len(p.current.Issues) == 0 &&
		p.current.ReleasedOn == nil &&
		strings.HasPrefix(strings.ToLower(body), releasedPrefix)
}

func (p *parser) parseReleasedLine(line, body string) error {
	date, err := p.doc.parseDate(strings.TrimSpace(body[len(releasedPrefix):]))
	if err != nil {
		return p.malformed(line, "invalid release date")
	}
	p.current.ReleasedOn = &date
	return nil
}

func (p *parser) malformed(line, reason string) error {
	return &MalformedDocumentError{Line: p.lineNo, Text: line, Reason: reason}
}

// parseDate parses a release date with the document layout, then the fallbacks.
func (d *Document) parseDate(text string) (time.Time, error) {
	var firstErr error
	for _, layout := range append([]string{d.dateFormat}, fallbackDateFormats...) {
		t, err := time.Parse(layout, text)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func isIndented(line string) bool {
	return line[0] == ' ' || line[0] == '\t'
}
