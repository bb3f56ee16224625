package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/itchyny/timefmt-go"
	"github.com/prettymuchbryce/testwire/internal/capture"
	"github.com/prettymuchbryce/testwire/internal/event"
	"github.com/prettymuchbryce/testwire/internal/outcome"
	"github.com/xlab/treeprint"
)

// Styles for the spec reporter
var (
	classStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // Cyan
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))            // Green
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))            // Red
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))            // Yellow
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // Gray
)

const (
	testPadding = 2
	testWidth   = 63
)

// SpecOptions configures a SpecReporter.
type SpecOptions struct {
	// PrintFailureSummary collects failures at the end of the run instead of
	// printing them after each test.
	PrintFailureSummary bool
	// TimeFormat is a strftime layout for the footer timestamp.
	TimeFormat string
	// Format controls how failure text is rendered.
	Format event.Options
}

// specEntry is a finished test kept for the summary.
type specEntry struct {
	rec    event.TestRecord
	status outcome.Status
}

// SpecReporter prints a human-readable report that reads like a spec.
// It is used when structured output is disabled.
type SpecReporter struct {
	mu   sync.Mutex
	lc   lifecycle
	w    io.Writer
	opts SpecOptions
	now  func() time.Time

	session   *capture.Session
	lastClass string
	entries   []specEntry
	counts    map[outcome.Status]int
	asserts   int
	started   time.Time
}

// NewSpec creates a SpecReporter writing to stdout.
func NewSpec(opts SpecOptions) *SpecReporter {
	return NewSpecWithWriter(os.Stdout, opts)
}

// NewSpecWithWriter creates a SpecReporter writing to a custom writer.
func NewSpecWithWriter(w io.Writer, opts SpecOptions) *SpecReporter {
	if opts.TimeFormat == "" {
		opts.TimeFormat = "%Y-%m-%d %H:%M:%S"
	}
	return &SpecReporter{
		w:      w,
		opts:   opts,
		now:    time.Now,
		counts: make(map[outcome.Status]int),
	}
}

// SuiteStart begins the report.
func (r *SpecReporter) SuiteStart(ctx context.Context, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lc.suiteStart(); err != nil {
		return err
	}
	r.started = r.now()
	_, err := fmt.Fprintf(r.w, "Started with %d tests\n", total)
	return err
}

// TestStart prints the class header when the class changes. Test output is
// collected in a buffer and printed under the test's status line.
func (r *SpecReporter) TestStart(ctx context.Context, rec event.TestRecord) (*capture.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lc.testStart(rec.QualifiedName); err != nil {
		return nil, err
	}
	if rec.Class != r.lastClass {
		r.lastClass = rec.Class
		if _, err := fmt.Fprintf(r.w, "\n%s\n", classStyle.Render(rec.Class)); err != nil {
			return nil, err
		}
	}
	r.session = capture.NewBuffer()
	return r.session, nil
}

// TestEnd prints the status line for rec.
func (r *SpecReporter) TestEnd(ctx context.Context, rec event.TestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lc.testEnd(rec.QualifiedName); err != nil {
		return err
	}
	output, hasOutput := r.session.Close()
	r.session = nil

	status, err := outcome.Classify(rec.QualifiedName, rec.Outcome)
	if err != nil {
		return err
	}
	r.entries = append(r.entries, specEntry{rec: rec, status: status})
	r.counts[status]++
	r.asserts += rec.AssertionCount

	var b strings.Builder
	b.WriteString(statusLine(rec, status))
	b.WriteString("\n")
	if hasOutput {
		for _, line := range strings.Split(output, "\n") {
			b.WriteString(strings.Repeat(" ", testPadding*2) + detailStyle.Render(line) + "\n")
		}
	}
	if !r.opts.PrintFailureSummary {
		if text := failureText(rec, r.opts.Format); text != "" {
			b.WriteString(text + "\n\n")
		}
	}
	_, err = io.WriteString(r.w, b.String())
	return err
}

// SuiteEnd prints the failure summary, if enabled, and the totals.
func (r *SpecReporter) SuiteEnd(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lc.suiteEnd(); err != nil {
		return err
	}

	var b strings.Builder
	if r.opts.PrintFailureSummary {
		if summary := r.failureSummary(); summary != "" {
			b.WriteString("\n" + failStyle.Render("Failures and errors:") + "\n")
			b.WriteString(summary)
		}
	}

	finished := r.now()
	b.WriteString(fmt.Sprintf("\nFinished in %.5fs at %s\n", finished.Sub(r.started).Seconds(), timefmt.Format(finished, r.opts.TimeFormat)))
	b.WriteString(fmt.Sprintf("%d tests, %d assertions, ", len(r.entries), r.asserts))

	style := passStyle
	if r.counts[outcome.StatusFailed]+r.counts[outcome.StatusError] > 0 {
		style = failStyle
	}
	b.WriteString(style.Render(fmt.Sprintf("%d failures, %d errors, ", r.counts[outcome.StatusFailed], r.counts[outcome.StatusError])))
	b.WriteString(skipStyle.Render(fmt.Sprintf("%d skips", r.counts[outcome.StatusSkipped])))
	b.WriteString("\n")

	_, err := io.WriteString(r.w, b.String())
	return err
}

// failureSummary renders failed and errored tests grouped by class, sorted
// by class then name.
func (r *SpecReporter) failureSummary() string {
	groups := make(map[string][]specEntry)
	for _, e := range r.entries {
		if e.status == outcome.StatusFailed || e.status == outcome.StatusError {
			groups[e.rec.Class] = append(groups[e.rec.Class], e)
		}
	}
	if len(groups) == 0 {
		return ""
	}

	classes := make([]string, 0, len(groups))
	for c := range groups {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	var b strings.Builder
	for _, class := range classes {
		entries := groups[class]
		sort.Slice(entries, func(i, j int) bool { return entries[i].rec.Name < entries[j].rec.Name })

		tree := treeprint.NewWithRoot(classStyle.Render(class))
		for _, e := range entries {
			branch := tree.AddBranch(statusLabel(e.status) + " " + event.DisplayName(e.rec.Name))
			msg, trace, _ := outcome.Failure(e.rec.Outcome)
			first, _, _ := strings.Cut(msg, "\n")
			branch.AddNode(first)
			for _, frame := range event.KeptFrames(trace, r.opts.Format.TraceFilters) {
				branch.AddNode(detailStyle.Render(frame))
			}
		}
		b.WriteString("\n" + tree.String())
	}
	return b.String()
}

func statusLine(rec event.TestRecord, status outcome.Status) string {
	line := fmt.Sprintf("%s%-*s %s", strings.Repeat(" ", testPadding), testWidth, event.DisplayName(rec.Name), statusLabel(status))
	if rec.Elapsed != nil {
		line += fmt.Sprintf(" (%.2fs)", *rec.Elapsed)
	}
	return line
}

func statusLabel(status outcome.Status) string {
	switch status {
	case outcome.StatusPassed:
		return passStyle.Render("PASS")
	case outcome.StatusSkipped:
		return skipStyle.Render("SKIP")
	case outcome.StatusError:
		return failStyle.Render("ERROR")
	default:
		return failStyle.Render("FAIL")
	}
}

func failureText(rec event.TestRecord, opts event.Options) string {
	msg, trace, ok := outcome.Failure(rec.Outcome)
	if !ok {
		return ""
	}
	return strings.TrimPrefix(event.FormatFailure(msg, trace, opts), "\n")
}
