package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prettymuchbryce/testwire/internal/attachment"
	"github.com/prettymuchbryce/testwire/internal/capture"
	"github.com/prettymuchbryce/testwire/internal/event"
	"github.com/prettymuchbryce/testwire/internal/location"
	"github.com/prettymuchbryce/testwire/internal/outcome"
	"github.com/prettymuchbryce/testwire/internal/protocol"
)

// Resolver turns a declaring type and static location into a location string.
type Resolver interface {
	Resolve(ctx context.Context, declaringType string, static location.Static) string
}

// Components are the collaborators of a StructuredReporter.
type Components struct {
	Emitter   *protocol.Emitter
	Resolver  Resolver
	Extractor *attachment.Extractor
	Opener    capture.Opener
	Format    event.Options
}

// StructuredReporter emits one framed message per lifecycle event.
type StructuredReporter struct {
	mu sync.Mutex
	lc lifecycle

	session *capture.Session
	c       Components
}

// NewStructured creates a StructuredReporter. A nil Opener captures by
// redirecting os.Stdout.
func NewStructured(c Components) *StructuredReporter {
	if c.Opener == nil {
		c.Opener = capture.StdoutOpener{}
	}
	return &StructuredReporter{c: c}
}

// SuiteStart emits minitest_start with the total test count.
func (r *StructuredReporter) SuiteStart(ctx context.Context, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lc.suiteStart(); err != nil {
		return err
	}
	return r.c.Emitter.Emit(protocol.KindStart, protocol.StartPayload{TestCount: total})
}

// TestStart opens a capture session for rec.
func (r *StructuredReporter) TestStart(ctx context.Context, rec event.TestRecord) (*capture.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lc.testStart(rec.QualifiedName); err != nil {
		return nil, err
	}

	session, err := r.c.Opener.Open()
	if err != nil {
		r.lc.state = StateSuiteRunning
		return nil, fmt.Errorf("failed to capture output of %s: %w", rec.QualifiedName, err)
	}
	r.session = session
	return session, nil
}

// TestEnd closes the capture session and emits minitest_test_finished.
// A classification error drops only this test's message.
func (r *StructuredReporter) TestEnd(ctx context.Context, rec event.TestRecord) error {
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

	loc := r.c.Resolver.Resolve(ctx, rec.DeclaringType, rec.StaticLocation)
	res := r.c.Extractor.Extract(output, hasOutput)
	record := event.Format(rec, loc, status, res.Output, res.HasOutput, res.Payloads(), r.c.Format)

	slog.Debug("test finished", "test", rec.QualifiedName, "status", status, "location", loc)
	return r.c.Emitter.Emit(protocol.KindTestFinished, record)
}

// SuiteEnd ends the suite. Structured mode emits nothing here.
func (r *StructuredReporter) SuiteEnd(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lc.suiteEnd()
}
