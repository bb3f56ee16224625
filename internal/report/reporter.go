package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/prettymuchbryce/testwire/internal/capture"
	"github.com/prettymuchbryce/testwire/internal/event"
)

// Reporter receives lifecycle notifications from the host engine.
// Calls arrive in the order SuiteStart, (TestStart, TestEnd)*, SuiteEnd, with
// at most one test in flight.
type Reporter interface {
	// SuiteStart is called once with the number of tests about to run.
	SuiteStart(ctx context.Context, total int) error

	// TestStart opens the capture window for rec. The host writes the
	// test's output into the returned session when it does not come from
	// the process's own stdout.
	TestStart(ctx context.Context, rec event.TestRecord) (*capture.Session, error)

	// TestEnd closes the capture window and reports the finished test.
	// rec must be finalized.
	TestEnd(ctx context.Context, rec event.TestRecord) error

	// SuiteEnd is called once after the last test.
	SuiteEnd(ctx context.Context) error
}

// ErrLifecycle is matched by every *LifecycleError.
var ErrLifecycle = errors.New("lifecycle violation")

// LifecycleError reports a notification that arrived out of order. It is a
// bug in the host engine and is never repaired by the reporter.
type LifecycleError struct {
	Call  string
	State State
	Test  string
}

func (e *LifecycleError) Error() string {
	if e.Test != "" {
		return fmt.Sprintf("%v: %s(%s) called while %s", ErrLifecycle, e.Call, e.Test, e.State)
	}
	return fmt.Sprintf("%v: %s called while %s", ErrLifecycle, e.Call, e.State)
}

func (e *LifecycleError) Unwrap() error {
	return ErrLifecycle
}

// State is the position of a reporter in the suite lifecycle.
type State int

const (
	StateIdle State = iota
	StateSuiteRunning
	StateTestRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSuiteRunning:
		return "suite running"
	case StateTestRunning:
		return "test running"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// lifecycle tracks the state machine shared by every reporter mode.
type lifecycle struct {
	state   State
	current string
}

func (l *lifecycle) suiteStart() error {
	if l.state != StateIdle {
		return &LifecycleError{Call: "SuiteStart", State: l.state}
	}
	l.state = StateSuiteRunning
	return nil
}

func (l *lifecycle) testStart(name string) error {
	if l.state != StateSuiteRunning {
		return &LifecycleError{Call: "TestStart", State: l.state, Test: name}
	}
	l.state = StateTestRunning
	l.current = name
	return nil
}

func (l *lifecycle) testEnd(name string) error {
	if l.state != StateTestRunning || l.current != name {
		return &LifecycleError{Call: "TestEnd", State: l.state, Test: name}
	}
	l.state = StateSuiteRunning
	l.current = ""
	return nil
}

func (l *lifecycle) suiteEnd() error {
	if l.state != StateSuiteRunning {
		return &LifecycleError{Call: "SuiteEnd", State: l.state}
	}
	l.state = StateFinished
	return nil
}
