package gotest

import (
	"bufio"
	"io"
	"regexp"
)

var listedTest = regexp.MustCompile(`^(Test|Example|Fuzz)\S*$`)

// CountListed counts the tests printed by `go test -list .`. Package status
// lines ("ok  pkg 0.01s") and blank lines are ignored.
func CountListed(r io.Reader) (int, error) {
	n := 0
	s := bufio.NewScanner(r)
	for s.Scan() {
		if listedTest.MatchString(s.Text()) {
			n++
		}
	}
	return n, s.Err()
}

// CountEvents counts the distinct top-level tests that start in events.
func CountEvents(events []Event) int {
	seen := make(map[testKey]bool)
	for _, ev := range events {
		if ev.Action == ActionRun && ev.Test != "" {
			seen[keyOf(ev)] = true
		}
	}
	return len(seen)
}
