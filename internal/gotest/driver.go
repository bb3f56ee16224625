package gotest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prettymuchbryce/testwire/internal/event"
	"github.com/prettymuchbryce/testwire/internal/outcome"
	"github.com/prettymuchbryce/testwire/internal/report"
)

type testKey struct {
	pkg  string
	test string
}

func keyOf(ev Event) testKey {
	return testKey{pkg: ev.Package, test: ev.RootTest()}
}

// pending is a top-level test that has started but not yet finished.
type pending struct {
	key    testKey
	output strings.Builder
}

// Summary counts the tests reported by a Driver.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Errored int
	Skipped int
}

// Failures reports whether any test failed or errored.
func (s Summary) Failures() bool {
	return s.Failed+s.Errored > 0
}

// Driver turns a test2json stream into reporter lifecycle calls. Tests in a
// stream may run in parallel and interleave; the driver buffers each
// top-level test, subtests included, and reports it start-to-end when it
// finishes, so the reporter only ever sees one test at a time.
type Driver struct {
	reporter report.Reporter
	stray    io.Writer

	pending map[testKey]*pending
	order   []testKey
	summary Summary
}

// NewDriver creates a Driver. Lines that are not events are copied to stray
// when it is non-nil.
func NewDriver(r report.Reporter, stray io.Writer) *Driver {
	return &Driver{
		reporter: r,
		stray:    stray,
		pending:  make(map[testKey]*pending),
	}
}

// Start begins the suite.
func (d *Driver) Start(ctx context.Context, total int) error {
	d.summary.Total = total
	return d.reporter.SuiteStart(ctx, total)
}

// Stream handles every event read from r.
func (d *Driver) Stream(ctx context.Context, r io.Reader) error {
	sc := NewScanner(r)
	for sc.Scan() {
		ev, ok := sc.Event()
		if !ok {
			if d.stray != nil {
				fmt.Fprintln(d.stray, sc.Stray())
			}
			continue
		}
		if err := d.Handle(ctx, ev); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Handle processes one event.
func (d *Driver) Handle(ctx context.Context, ev Event) error {
	if ev.Test == "" {
		if ev.Action == ActionOutput && d.stray != nil && strings.Contains(ev.Output, "[build failed]") {
			fmt.Fprint(d.stray, ev.Output)
		}
		return nil
	}

	key := keyOf(ev)
	p := d.pending[key]
	if p == nil {
		p = &pending{key: key}
		d.pending[key] = p
		d.order = append(d.order, key)
	}

	switch {
	case ev.Action == ActionOutput:
		p.output.WriteString(ev.Output)
	case ev.Terminal() && ev.Test == key.test:
		return d.finish(ctx, p, ev.Action, ev.Elapsed)
	}
	return nil
}

// Finish reports every test still pending as errored and ends the suite.
func (d *Driver) Finish(ctx context.Context) error {
	for _, key := range append([]testKey(nil), d.order...) {
		if p, ok := d.pending[key]; ok {
			slog.Warn("test did not finish", "package", key.pkg, "test", key.test)
			if err := d.finish(ctx, p, "", nil); err != nil {
				return err
			}
		}
	}
	return d.reporter.SuiteEnd(ctx)
}

// Summary returns the counts so far.
func (d *Driver) Summary() Summary {
	return d.summary
}

func (d *Driver) finish(ctx context.Context, p *pending, action string, elapsed *float64) error {
	delete(d.pending, p.key)
	d.removeOrder(p.key)

	raw := p.output.String()
	var rec event.TestRecord
	if action == "" {
		rec = d.record(p.key, outcome.Errored{Message: "test did not finish"}, nil)
	} else {
		o, static := classifyOutput(action, raw, p.key.test)
		rec = d.record(p.key, o, elapsed)
		rec.StaticLocation = static
	}
	d.count(rec.Outcome)

	session, err := d.reporter.TestStart(ctx, rec)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(session, replayOutput(rec.Outcome, raw)); err != nil {
		return fmt.Errorf("failed to replay output of %s: %w", rec.QualifiedName, err)
	}
	err = d.reporter.TestEnd(ctx, rec)
	if errors.Is(err, outcome.ErrClassification) {
		slog.Error("dropped test event", "test", rec.QualifiedName, "error", err)
		return nil
	}
	return err
}

func (d *Driver) record(key testKey, o outcome.Outcome, elapsed *float64) event.TestRecord {
	return event.TestRecord{
		QualifiedName: key.pkg + "." + key.test,
		Name:          key.test,
		Class:         key.pkg,
		DeclaringType: key.test,
		Elapsed:       elapsed,
		Outcome:       o,
	}
}

func (d *Driver) count(o outcome.Outcome) {
	switch o.(type) {
	case outcome.Passed:
		d.summary.Passed++
	case outcome.Failed:
		d.summary.Failed++
	case outcome.Errored:
		d.summary.Errored++
	case outcome.Skipped:
		d.summary.Skipped++
	}
}

func (d *Driver) removeOrder(key testKey) {
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return
		}
	}
}
