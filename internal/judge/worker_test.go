package judge

import (
	"testing"

	"github.com/codearena/judgecore/types"
)

// TestIsTerminalRunningIsReprocessed pins down the crash/redelivery
// invariant: a job a worker killed mid-pipeline is left in Running by
// its last persisted Update, and the bus redelivers that job's message
// to the next worker to consume it. isTerminal must say false for
// Running (and Queueing) so process() falls through and reruns the
// pipeline from scratch instead of silently acking a stuck job.
func TestIsTerminalRunningIsReprocessed(t *testing.T) {
	if isTerminal(types.JobRunning) {
		t.Fatal("Running must not be terminal: a redelivered Running job has to be reprocessed, not dropped")
	}
	if isTerminal(types.JobQueueing) {
		t.Fatal("Queueing must not be terminal: it hasn't been picked up yet")
	}
}

func TestIsTerminalFinishedAndCanceledAreSkipped(t *testing.T) {
	for _, state := range []types.JobState{types.JobFinished, types.JobCanceled} {
		if !isTerminal(state) {
			t.Fatalf("%v must be terminal: a redelivered message for it was already handled", state)
		}
	}
}
