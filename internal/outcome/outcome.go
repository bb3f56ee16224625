// Package outcome models how a test ended and maps it to a reported status.
package outcome

import (
	"errors"
	"fmt"
)

// Status is the result state reported for a finished test.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Outcome is how a test ended. The set of implementations is closed:
// Passed, Skipped, Failed and Errored.
type Outcome interface {
	outcome()
}

// Passed is a clean pass.
type Passed struct{}

// Skipped is an explicit skip.
type Skipped struct {
	Reason string
}

// Failed is an assertion mismatch.
type Failed struct {
	Message string
	Trace   []string
}

// Errored is an unexpected exception or panic inside the test.
type Errored struct {
	Message string
	Trace   []string
}

func (Passed) outcome()  {}
func (Skipped) outcome() {}
func (Failed) outcome()  {}
func (Errored) outcome() {}

// ErrClassification is matched by every *ClassificationError.
var ErrClassification = errors.New("test ended in no known state")

// ClassificationError reports a test whose outcome is none of the four states.
type ClassificationError struct {
	Test    string
	Outcome Outcome
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %v (outcome %T)", e.Test, ErrClassification, e.Outcome)
}

func (e *ClassificationError) Unwrap() error {
	return ErrClassification
}

// Classify returns the status for o. Checks run in priority order: passed,
// error, skipped, failed. A nil outcome is an inconsistency in the host
// engine and yields a *ClassificationError.
func Classify(test string, o Outcome) (Status, error) {
	switch o.(type) {
	case Passed, *Passed:
		return StatusPassed, nil
	case Errored, *Errored:
		return StatusError, nil
	case Skipped, *Skipped:
		return StatusSkipped, nil
	case Failed, *Failed:
		return StatusFailed, nil
	}
	return "", &ClassificationError{Test: test, Outcome: o}
}

// Failure returns the message and trace of a Failed or Errored outcome.
func Failure(o Outcome) (message string, trace []string, ok bool) {
	switch v := o.(type) {
	case Failed:
		return v.Message, v.Trace, true
	case *Failed:
		if v != nil {
			return v.Message, v.Trace, true
		}
	case Errored:
		return v.Message, v.Trace, true
	case *Errored:
		if v != nil {
			return v.Message, v.Trace, true
		}
	}
	return "", nil, false
}
