package gotest

import "testing"

func TestCountEvents(t *testing.T) {
	events := []Event{
		{Action: ActionRun, Package: "a", Test: "TestX"},
		{Action: ActionRun, Package: "a", Test: "TestX/sub"},
		{Action: ActionRun, Package: "b", Test: "TestX"},
		{Action: ActionPass, Package: "a", Test: "TestX"},
		{Action: ActionStart, Package: "a"},
	}
	if got := CountEvents(events); got != 2 {
		t.Errorf("CountEvents() = %d, want 2", got)
	}
}
