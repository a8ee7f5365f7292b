package httpserver

import (
	"fmt"
	"strconv"

	"github.com/codearena/judgecore/types"
)

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func formatUint32(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

func parseJobState(s string) (types.JobState, error) {
	switch s {
	case "Queueing":
		return types.JobQueueing, nil
	case "Running":
		return types.JobRunning, nil
	case "Finished":
		return types.JobFinished, nil
	case "Canceled":
		return types.JobCanceled, nil
	default:
		return 0, fmt.Errorf("unknown state %q", s)
	}
}
