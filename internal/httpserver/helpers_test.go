package httpserver

import (
	"testing"

	"github.com/codearena/judgecore/types"
)

func TestParseUint32RoundTrip(t *testing.T) {
	v, err := parseUint32("42")
	if err != nil {
		t.Fatalf("parseUint32: %v", err)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
	if got := formatUint32(v); got != "42" {
		t.Fatalf("formatUint32 = %q, want %q", got, "42")
	}
}

func TestParseUint32Invalid(t *testing.T) {
	for _, s := range []string{"", "-1", "abc", "3.5"} {
		if _, err := parseUint32(s); err == nil {
			t.Errorf("parseUint32(%q): expected error, got nil", s)
		}
	}
}

func TestParseJobState(t *testing.T) {
	cases := []struct {
		in   string
		want types.JobState
	}{
		{"Queueing", types.JobQueueing},
		{"Running", types.JobRunning},
		{"Finished", types.JobFinished},
		{"Canceled", types.JobCanceled},
	}
	for _, c := range cases {
		got, err := parseJobState(c.in)
		if err != nil {
			t.Fatalf("parseJobState(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseJobState(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	if _, err := parseJobState("bogus"); err == nil {
		t.Fatal("expected an error for an unknown state name")
	}
}
