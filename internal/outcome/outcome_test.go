package outcome

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    Status
	}{
		{"passed", Passed{}, StatusPassed},
		{"passed pointer", &Passed{}, StatusPassed},
		{"errored", Errored{Message: "boom"}, StatusError},
		{"skipped", Skipped{Reason: "later"}, StatusSkipped},
		{"failed", Failed{Message: "expected true, got false"}, StatusFailed},
		{"failed pointer", &Failed{}, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify("TestX", tt.outcome)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	_, err := Classify("TestBroken", nil)
	if err == nil {
		t.Fatal("expected error for nil outcome")
	}
	if !errors.Is(err, ErrClassification) {
		t.Errorf("error %v does not match ErrClassification", err)
	}
	var ce *ClassificationError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not *ClassificationError", err)
	}
	if ce.Test != "TestBroken" {
		t.Errorf("Test = %q, want %q", ce.Test, "TestBroken")
	}
}

func TestFailure(t *testing.T) {
	trace := []string{"a_test.go:10"}

	tests := []struct {
		name    string
		outcome Outcome
		wantMsg string
		wantOK  bool
	}{
		{"failed", Failed{Message: "mismatch", Trace: trace}, "mismatch", true},
		{"errored", &Errored{Message: "panic", Trace: trace}, "panic", true},
		{"passed", Passed{}, "", false},
		{"skipped", Skipped{Reason: "todo"}, "", false},
		{"nil", nil, "", false},
		{"nil pointer", (*Failed)(nil), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, tr, ok := Failure(tt.outcome)
			if ok != tt.wantOK || msg != tt.wantMsg {
				t.Errorf("Failure() = (%q, %v), want (%q, %v)", msg, ok, tt.wantMsg, tt.wantOK)
			}
			if ok && len(tr) != 1 {
				t.Errorf("trace = %v, want %v", tr, trace)
			}
		})
	}
}
