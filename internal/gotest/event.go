// Package gotest drives a Reporter from the event stream of `go test -json`.
package gotest

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// Actions emitted by test2json.
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPause  = "pause"
	ActionCont   = "cont"
	ActionOutput = "output"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionBench  = "bench"
)

// Event is one line of `go test -json` output.
type Event struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test,omitempty"`
	Elapsed *float64  `json:"Elapsed,omitempty"`
	Output  string    `json:"Output,omitempty"`
}

// Terminal reports whether the action ends a test.
func (e Event) Terminal() bool {
	return e.Action == ActionPass || e.Action == ActionFail || e.Action == ActionSkip
}

// RootTest returns the top-level test name, without any subtest path.
func (e Event) RootTest() string {
	root, _, _ := strings.Cut(e.Test, "/")
	return root
}

// Scanner reads events line by line. Lines that are not JSON events, such as
// build errors printed by older toolchains, are returned as stray text.
type Scanner struct {
	s     *bufio.Scanner
	event Event
	stray string
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Scanner{s: s}
}

// Scan advances to the next line. It returns false at the end of the input.
func (sc *Scanner) Scan() bool {
	for sc.s.Scan() {
		line := sc.s.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		sc.event = Event{}
		sc.stray = ""
		if line[0] != '{' || json.Unmarshal(line, &sc.event) != nil || sc.event.Action == "" {
			sc.event = Event{}
			sc.stray = string(line)
		}
		return true
	}
	return false
}

// Event returns the current event. ok is false for a stray line.
func (sc *Scanner) Event() (Event, bool) {
	return sc.event, sc.stray == ""
}

// Stray returns the current line when it is not an event.
func (sc *Scanner) Stray() string {
	return sc.stray
}

// Err returns the first read error.
func (sc *Scanner) Err() error {
	return sc.s.Err()
}

// ReadAll reads every event from r, dropping stray lines.
func ReadAll(r io.Reader) ([]Event, error) {
	sc := NewScanner(r)
	var events []Event
	for sc.Scan() {
		if ev, ok := sc.Event(); ok {
			events = append(events, ev)
		}
	}
	return events, sc.Err()
}
