package gotest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/prettymuchbryce/testwire/internal/location"
	"github.com/prettymuchbryce/testwire/internal/outcome"
)

var (
	// "    calc_test.go:12: expected 3, got 4"
	logLine = regexp.MustCompile(`^\s+([\w.\-/]+\.go:\d+): (.*)$`)
	// "\t/src/app/calc_test.go:12 +0x1d"
	frameLine = regexp.MustCompile(`^\t(\S+\.go):(\d+)(?: \+0x[0-9a-f]+)?$`)
	// "=== RUN   TestFoo", "--- FAIL: TestFoo (0.00s)"
	framingLine = regexp.MustCompile(`^\s*(=== (RUN|PAUSE|CONT|NAME)|--- (PASS|FAIL|SKIP):)`)
	// "goroutine 7 [running]:"
	goroutineHeader = regexp.MustCompile(`^goroutine \d+ \[[^\]]+\]:$`)
)

// userOutput drops the framing lines the testing package prints around a
// test, keeping what the test itself wrote.
func userOutput(output string) string {
	lines := strings.Split(output, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if framingLine.MatchString(line) || line == "PASS" || line == "FAIL" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// failureDetails collects t.Error/t.Log style lines as messages and their
// file:line prefixes as trace frames.
func failureDetails(output string) (messages []string, trace []string) {
	for _, line := range strings.Split(output, "\n") {
		if m := logLine.FindStringSubmatch(line); m != nil {
			trace = append(trace, m[1])
			messages = append(messages, m[2])
		}
	}
	return messages, trace
}

// panicStart returns the index of the runtime's "panic: " line, or -1. The
// runtime writes it at column 0 and follows it with a goroutine header;
// t.Log output is always indented, so logged text mentioning a panic does
// not match.
func panicStart(lines []string) int {
	for i, line := range lines {
		if !strings.HasPrefix(line, "panic: ") {
			continue
		}
		for _, l := range lines[i+1:] {
			if goroutineHeader.MatchString(l) {
				return i
			}
		}
	}
	return -1
}

// panicDetails extracts the panic message and the goroutine stack frames.
func panicDetails(output string) (message string, trace []string, ok bool) {
	lines := strings.Split(output, "\n")
	start := panicStart(lines)
	if start < 0 {
		return "", nil, false
	}
	message = strings.TrimSpace(lines[start])
	for _, l := range lines[start+1:] {
		if m := frameLine.FindStringSubmatch(l); m != nil {
			trace = append(trace, m[1]+":"+m[2])
		}
	}
	return message, trace, true
}

// replayOutput is the output handed to the reporter for o. Text already
// carried by the failure message is left out: the panic block of an
// Errored test and the file:line lines of a Failed one.
func replayOutput(o outcome.Outcome, output string) string {
	lines := strings.Split(userOutput(output), "\n")
	switch o.(type) {
	case outcome.Errored:
		if start := panicStart(lines); start >= 0 {
			lines = lines[:start]
		}
	case outcome.Failed:
		kept := lines[:0]
		for _, line := range lines {
			if !logLine.MatchString(line) {
				kept = append(kept, line)
			}
		}
		lines = kept
	}
	return strings.Join(lines, "\n")
}

// panicLocation returns the frame of rootTest's own function in a panic
// stack, if any.
func panicLocation(output, rootTest string) location.Static {
	lines := strings.Split(output, "\n")
	needle := "." + rootTest + "("
	for i, line := range lines {
		if !strings.Contains(line, needle) || i+1 >= len(lines) {
			continue
		}
		if m := frameLine.FindStringSubmatch(lines[i+1]); m != nil {
			n, _ := strconv.Atoi(m[2])
			return location.Static{File: m[1], Line: n}
		}
	}
	return location.Static{}
}

// classifyOutput turns a terminal action and the test's output into an
// Outcome.
func classifyOutput(action, output, rootTest string) (outcome.Outcome, location.Static) {
	switch action {
	case ActionPass:
		return outcome.Passed{}, location.Static{}
	case ActionSkip:
		msgs, _ := failureDetails(output)
		return outcome.Skipped{Reason: strings.Join(msgs, "\n")}, location.Static{}
	}

	if msg, trace, ok := panicDetails(output); ok {
		return outcome.Errored{Message: msg, Trace: trace}, panicLocation(output, rootTest)
	}
	msgs, trace := failureDetails(output)
	msg := strings.Join(msgs, "\n")
	if msg == "" {
		msg = "test failed"
	}
	return outcome.Failed{Message: msg, Trace: trace}, location.Static{}
}
