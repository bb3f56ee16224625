// Package event builds the structured record emitted for a finished test.
package event

import (
	"regexp"
	"strings"

	"github.com/prettymuchbryce/testwire/internal/location"
	"github.com/prettymuchbryce/testwire/internal/outcome"
)

// TestRecord is what the host engine knows about a test. It is finalized
// once, right before the reporter is told the test ended.
type TestRecord struct {
	// QualifiedName combines the declaring type and the test's own name.
	QualifiedName string
	// Name is the test's own name as the engine reports it.
	Name string
	// Class is the test class (or package) shown to consumers.
	Class string
	// DeclaringType keys the location cache.
	DeclaringType string

	AssertionCount int
	// Elapsed is in seconds; nil when the test never finished.
	Elapsed *float64
	Outcome outcome.Outcome

	StaticLocation location.Static
}

// Record is the payload of a minitest_test_finished message.
type Record struct {
	TestClass         string    `json:"test_class"`
	TestName          string    `json:"test_name"`
	AssertionsCount   int       `json:"assertions_count"`
	Location          string    `json:"location"`
	Status            string    `json:"status"`
	RunTime           *float64  `json:"run_time"`
	FullyFormatted    *string   `json:"fully_formatted"`
	OutputInside      *string   `json:"output_inside"`
	ScreenshotsBase64 []*string `json:"screenshots_base64"`
}

// Options controls failure formatting.
type Options struct {
	// TraceFilters drops every backtrace frame containing one of these substrings.
	TraceFilters []string
	// ColorFrames wraps kept frames in ANSI cyan.
	ColorFrames bool
}

// Format assembles the event for rec. output is the captured output with
// attachment markers already removed; hasOutput is false when there is none.
func Format(rec TestRecord, loc string, status outcome.Status, output string, hasOutput bool, attachments []*string, opts Options) Record {
	r := Record{
		TestClass:         rec.Class,
		TestName:          DisplayName(rec.Name),
		AssertionsCount:   rec.AssertionCount,
		Location:          loc,
		Status:            string(status),
		RunTime:           rec.Elapsed,
		ScreenshotsBase64: attachments,
	}
	if r.ScreenshotsBase64 == nil {
		r.ScreenshotsBase64 = []*string{}
	}

	if msg, trace, ok := outcome.Failure(rec.Outcome); ok {
		f := FormatFailure(msg, trace, opts)
		r.FullyFormatted = &f
	}
	if hasOutput {
		r.OutputInside = &output
	}
	return r
}

const (
	frameIndent = "    "
	cyan        = "\x1b[36m"
	reset       = "\x1b[0m"
)

// FormatFailure renders the first line of message followed by every frame
// of trace not matching opts.TraceFilters, one per line.
func FormatFailure(message string, trace []string, opts Options) string {
	first, _, _ := strings.Cut(message, "\n")

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(first)
	for _, frame := range KeptFrames(trace, opts.TraceFilters) {
		b.WriteString("\n")
		b.WriteString(frameIndent)
		if opts.ColorFrames {
			b.WriteString(cyan + frame + reset)
		} else {
			b.WriteString(frame)
		}
	}
	return b.String()
}

// KeptFrames returns the frames of trace that contain none of filters.
func KeptFrames(trace, filters []string) []string {
	kept := make([]string, 0, len(trace))
outer:
	for _, frame := range trace {
		for _, f := range filters {
			if f != "" && strings.Contains(frame, f) {
				continue outer
			}
		}
		kept = append(kept, frame)
	}
	return kept
}

var (
	numberedPrefix = regexp.MustCompile(`^test_\d+`)
	specPrefix     = regexp.MustCompile(`^test_: `)
)

// DisplayName strips engine-generated prefixes from a test name:
// "test_0001_adds" and "test_: adds" both become "adds".
func DisplayName(name string) string {
	name = numberedPrefix.ReplaceAllString(name, "")
	name = specPrefix.ReplaceAllString(name, "")
	name = strings.TrimPrefix(name, "_")
	return strings.TrimSpace(name)
}
