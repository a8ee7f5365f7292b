package types

import (
	"encoding/json"
	"fmt"
)

// ResultKind is the outcome of judging a Job or one of its cases.
//
// A Job's overall result is not derived from this declaration order;
// see judge.reduceResult, which takes the first non-Accepted case in
// case order.
type ResultKind int

const (
	ResultWaiting ResultKind = iota
	ResultRunning
	ResultAccepted
	ResultCompilationError
	ResultCompilationSuccess
	ResultWrongAnswer
	ResultRuntimeError
	ResultTimeLimitExceeded
	ResultMemoryLimitExceeded
	ResultSystemError
)

// resultNames is indexed by ResultKind; the order only needs to match
// the constant values, not the judging precedence above.
var resultNames = [...]string{
	ResultWaiting:            "Waiting",
	ResultRunning:            "Running",
	ResultAccepted:           "Accepted",
	ResultCompilationError:   "Compilation Error",
	ResultCompilationSuccess: "Compilation Success",
	ResultWrongAnswer:        "Wrong Answer",
	ResultRuntimeError:       "Runtime Error",
	ResultTimeLimitExceeded:  "Time Limit Exceeded",
	ResultMemoryLimitExceeded: "Memory Limit Exceeded",
	ResultSystemError:        "System Error",
}

// String returns the wire name of the result kind.
func (r ResultKind) String() string {
	if int(r) < 0 || int(r) >= len(resultNames) {
		return "Unknown"
	}
	return resultNames[r]
}

// MarshalJSON renders the result kind using its wire name.
func (r ResultKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the result kind's wire name.
func (r *ResultKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range resultNames {
		if name == s {
			*r = ResultKind(i)
			return nil
		}
	}
	return fmt.Errorf("types: unknown result %q", s)
}
