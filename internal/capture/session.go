// Package capture collects the output a test produces while it runs.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ErrClosed is returned when writing to a Session after Close.
var ErrClosed = errors.New("capture session closed")

// Session collects the output of exactly one test window. A Session is
// created when the test starts and closed once when it ends; the zero value
// is not usable, use NewBuffer or Redirect.
type Session struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool

	// Set only for redirecting sessions.
	target **os.File
	orig   *os.File
	pipeW  *os.File
	done   chan struct{}
}

// NewBuffer returns a Session that only collects what is written to it.
func NewBuffer() *Session {
	return &Session{}
}

// Redirect swaps *target for the write end of a pipe and collects everything
// written to it until Close restores the original file.
// Typical use is Redirect(&os.Stdout).
func Redirect(target **os.File) (*Session, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create capture pipe: %w", err)
	}

	s := &Session{
		target: target,
		orig:   *target,
		pipeW:  w,
		done:   make(chan struct{}),
	}
	*target = w

	go func() {
		defer close(s.done)
		if _, err := io.Copy(s, r); err != nil {
			slog.Debug("capture drain stopped", "error", err)
		}
		r.Close()
	}()

	return s, nil
}

// Write appends p to the captured output.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.buf.Write(p)
}

// Redirected reports whether the session swapped a process-wide file.
func (s *Session) Redirected() bool {
	return s.target != nil
}

// Close restores the redirected file, if any, and returns the captured output
// trimmed of surrounding whitespace. ok is false when nothing but whitespace
// was written. Calling Close again returns ("", false).
func (s *Session) Close() (output string, ok bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", false
	}
	s.mu.Unlock()

	if s.target != nil {
		*s.target = s.orig
		if err := s.pipeW.Close(); err != nil {
			slog.Debug("failed to close capture pipe", "error", err)
		}
		<-s.done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false
	}
	s.closed = true

	output = strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	if output == "" {
		return "", false
	}
	return output, true
}

// Opener starts a capture session for a test window.
type Opener interface {
	Open() (*Session, error)
}

// StdoutOpener redirects os.Stdout for the duration of each session.
type StdoutOpener struct{}

// Open redirects os.Stdout.
func (StdoutOpener) Open() (*Session, error) {
	return Redirect(&os.Stdout)
}

// BufferOpener opens plain buffer sessions. Hosts that receive test output as
// data write it into the returned session themselves.
type BufferOpener struct{}

// Open returns a new buffer session.
func (BufferOpener) Open() (*Session, error) {
	return NewBuffer(), nil
}
