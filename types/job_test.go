package types

import "testing"

func TestJobCanCancel(t *testing.T) {
	if !(Job{State: JobQueueing}).CanCancel() {
		t.Fatal("a Queueing job should be cancelable")
	}
	for _, s := range []JobState{JobRunning, JobFinished, JobCanceled} {
		if (Job{State: s}).CanCancel() {
			t.Fatalf("a %v job should not be cancelable", s)
		}
	}
}

func TestJobCanRejudge(t *testing.T) {
	if !(Job{State: JobFinished}).CanRejudge() {
		t.Fatal("a Finished job should be rejudgeable")
	}
	for _, s := range []JobState{JobQueueing, JobRunning, JobCanceled} {
		if (Job{State: s}).CanRejudge() {
			t.Fatalf("a %v job should not be rejudgeable", s)
		}
	}
}

func TestJobIsTerminal(t *testing.T) {
	terminal := []JobState{JobFinished, JobCanceled}
	nonTerminal := []JobState{JobQueueing, JobRunning}

	for _, s := range terminal {
		if !(Job{State: s}).IsTerminal() {
			t.Fatalf("%v should be terminal", s)
		}
	}
	for _, s := range nonTerminal {
		if (Job{State: s}).IsTerminal() {
			t.Fatalf("%v should not be terminal", s)
		}
	}
}

func TestJobStateWireNames(t *testing.T) {
	cases := map[JobState]string{
		JobQueueing: "Queueing",
		JobRunning:  "Running",
		JobFinished: "Finished",
		JobCanceled: "Canceled",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", state, got, want)
		}
	}
}

func TestNewWaitingCases(t *testing.T) {
	cases := NewWaitingCases(3)
	if len(cases) != 4 {
		t.Fatalf("expected 4 entries (compilation + 3 cases), got %d", len(cases))
	}
	for i, c := range cases {
		if c.ID != i {
			t.Errorf("cases[%d].ID = %d, want %d", i, c.ID, i)
		}
		if c.Result != ResultWaiting {
			t.Errorf("cases[%d].Result = %v, want ResultWaiting", i, c.Result)
		}
	}
}
