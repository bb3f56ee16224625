// Package attachment pulls binary artifacts referenced from test output
// into the reported event.
package attachment

import (
	"encoding/base64"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/prettymuchbryce/testwire/internal/fs"
	"github.com/spf13/afero"
)

// Kind describes one recognized "[Tag]: <path>" marker.
type Kind struct {
	Name    string
	Pattern *regexp.Regexp
}

// Group is a set of kinds that share one slot in the event. Kinds are tried
// in order and the first line matching the earliest kind provides the path.
type Group []Kind

// Screenshots is the only group testwire reports.
var Screenshots = Group{
	{Name: "Screenshot Image", Pattern: regexp.MustCompile(`\[Screenshot Image\]: (.*)$`)},
	{Name: "Screenshot", Pattern: regexp.MustCompile(`\[Screenshot\]: (.*)$`)},
}

// DefaultGroups lists the slots of an event, in order.
var DefaultGroups = []Group{Screenshots}

// Attachment is an artifact read from disk.
type Attachment struct {
	Path   string
	MIME   string
	Base64 string
}

// Result is the outcome of scanning a test's output.
type Result struct {
	// Attachments has one slot per group; a slot is nil when the group had
	// no marker or the referenced file could not be read.
	Attachments []*Attachment

	// Output is the captured output without marker lines. HasOutput is
	// false when there was no output or only marker lines.
	Output    string
	HasOutput bool
}

// Extractor scans output for attachment markers and reads the files they
// reference.
type Extractor struct {
	fs     fs.FileSystem
	groups []Group
}

// NewExtractor creates an Extractor for groups. With no groups it uses
// DefaultGroups.
func NewExtractor(fsys fs.FileSystem, groups ...Group) *Extractor {
	if len(groups) == 0 {
		groups = DefaultGroups
	}
	return &Extractor{fs: fsys, groups: groups}
}

// Extract scans output (as returned by a capture session) for markers.
func (e *Extractor) Extract(output string, hasOutput bool) Result {
	res := Result{Attachments: make([]*Attachment, len(e.groups))}
	if !hasOutput {
		return res
	}

	lines := strings.Split(output, "\n")
	for i, g := range e.groups {
		if path := g.firstPath(lines); path != "" {
			res.Attachments[i] = e.read(path)
		}
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if !e.isMarker(line) {
			kept = append(kept, line)
		}
	}
	res.Output = strings.Join(kept, "\n")
	res.HasOutput = strings.TrimSpace(res.Output) != ""
	if !res.HasOutput {
		res.Output = ""
	}
	return res
}

// firstPath returns the path of the strongest marker found in lines.
func (g Group) firstPath(lines []string) string {
	for _, k := range g {
		for _, line := range lines {
			if m := k.Pattern.FindStringSubmatch(line); m != nil {
				if p := strings.TrimSpace(m[1]); p != "" {
					return p
				}
			}
		}
	}
	return ""
}

func (e *Extractor) isMarker(line string) bool {
	for _, g := range e.groups {
		for _, k := range g {
			if k.Pattern.MatchString(line) {
				return true
			}
		}
	}
	return false
}

func (e *Extractor) read(path string) *Attachment {
	if !e.fs.IsRegular(path) {
		slog.Debug("attachment not found", "path", path)
		return nil
	}
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		slog.Debug("attachment unreadable", "path", path, "error", err)
		return nil
	}

	a := &Attachment{
		Path:   path,
		MIME:   mimetype.Detect(data).String(),
		Base64: base64.StdEncoding.EncodeToString(data),
	}
	slog.Debug("attached file", "path", path, "mime", a.MIME, "bytes", len(data))
	return a
}

// Payloads returns the base64 payload of each slot, nil for empty slots.
func (r Result) Payloads() []*string {
	out := make([]*string, len(r.Attachments))
	for i, a := range r.Attachments {
		if a != nil {
			s := a.Base64
			out[i] = &s
		}
	}
	return out
}
