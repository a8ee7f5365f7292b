package contest

import (
	"context"

	"github.com/codearena/judgecore/internal/store"
	"github.com/codearena/judgecore/types"
)

// StoreJobSource adapts *store.JobRepository to JobSource.
type StoreJobSource struct {
	Jobs *store.JobRepository
}

func (s StoreJobSource) FinishedJobs(ctx context.Context, userID, contestID, problemID uint32) ([]types.Job, error) {
	finished := types.JobFinished
	return s.Jobs.Query(ctx, store.JobFilter{
		UserID:    &userID,
		ContestID: &contestID,
		ProblemID: &problemID,
		State:     &finished,
	})
}

func (s StoreJobSource) SubmissionCount(ctx context.Context, userID, contestID, problemID uint32) (uint32, error) {
	return s.Jobs.CountActive(ctx, userID, contestID, problemID)
}
