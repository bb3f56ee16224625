// Package protocol frames structured messages inside a free-text stream.
//
// A message has the form
//
//	\n|||NEW_MESSAGE|||RUNNING|||<kind>|||<json>|||\n
//
// and may appear between arbitrary lines of ordinary program output.
package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Kind names a message type.
type Kind string

const (
	KindStart        Kind = "minitest_start"
	KindTestFinished Kind = "minitest_test_finished"
)

const (
	delimiter = "|||"
	header    = delimiter + "NEW_MESSAGE" + delimiter + "RUNNING" + delimiter
)

// StartPayload is the payload of a minitest_start message.
type StartPayload struct {
	TestCount int `json:"test_count"`
}

// Emitter writes framed messages to a stream. It is safe for concurrent use:
// each frame is written with a single Write call while holding a lock, so
// frames from concurrent callers never interleave.
type Emitter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEmitter creates an Emitter writing to w. w must be the real output
// stream, never a capture session.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit serializes payload as single-line JSON and writes one frame.
func (e *Emitter) Emit(kind Kind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}

	frame := Frame(kind, data)

	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.w.Write(frame)
	if err == nil && n < len(frame) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("failed to write %s message: %w", kind, err)
	}
	if f, ok := e.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to flush %s message: %w", kind, err)
		}
	}
	return nil
}

// Frame returns the framed bytes for one message.
func Frame(kind Kind, payload []byte) []byte {
	buf := make([]byte, 0, len(header)+len(kind)+len(payload)+2*len(delimiter)+2)
	buf = append(buf, '\n')
	buf = append(buf, header...)
	buf = append(buf, kind...)
	buf = append(buf, delimiter...)
	buf = append(buf, payload...)
	buf = append(buf, delimiter...)
	buf = append(buf, '\n')
	return buf
}
