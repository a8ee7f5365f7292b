// Package intake implements Job Intake (spec §4.3): validating a new
// submission against static config and contest membership, enforcing
// the per-(user,contest,problem) submission limit, and handing the
// freshly allocated job to the Judge Worker over the message bus.
// Grounded on the original_source jobs.rs new_job handler, generalized
// from its single-process synchronous judge() call into an
// allocate-then-publish handoff across the bus.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/codearena/judgecore/config"
	"github.com/codearena/judgecore/internal/apperr"
	"github.com/codearena/judgecore/internal/mq"
	"github.com/codearena/judgecore/internal/store"
	"github.com/codearena/judgecore/types"
)

// UserLookup resolves users by id; satisfied by *store.UserRepository.
type UserLookup interface {
	GetByID(ctx context.Context, id uint32) (types.User, error)
}

// ContestLookup resolves contests; satisfied by *store.ContestRepository,
// with id 0 special-cased by Service before reaching it.
type ContestLookup interface {
	Get(ctx context.Context, id uint32) (types.Contest, error)
}

// JobInserter is the subset of the Job Store Intake needs.
type JobInserter interface {
	NextID(ctx context.Context) (uint32, error)
	InsertIfUnderLimit(ctx context.Context, job types.Job, limit uint32) (types.Job, error)
}

// Service implements the POST /jobs validation and allocation pipeline.
type Service struct {
	static   config.Static
	users    UserLookup
	contests ContestLookup
	jobs     JobInserter
	bus      mq.Backend
	queue    string
}

func New(static config.Static, users UserLookup, contests ContestLookup, jobs JobInserter, bus mq.Backend, queue string) *Service {
	return &Service{static: static, users: users, contests: contests, jobs: jobs, bus: bus, queue: queue}
}

// Submit runs the full intake pipeline of spec §4.3 and returns the
// freshly created, Queueing job.
func (s *Service) Submit(ctx context.Context, sub types.Submission) (types.Job, error) {
	_, ok := s.static.LanguageByName(sub.Language)
	if !ok {
		return types.Job{}, apperr.NotFound(fmt.Sprintf("no such language: %s", sub.Language))
	}

	problem, ok := s.static.ProblemByID(sub.ProblemID)
	if !ok {
		return types.Job{}, apperr.NotFound(fmt.Sprintf("no such problem: %d", sub.ProblemID))
	}

	if _, err := s.users.GetByID(ctx, sub.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Job{}, apperr.NotFound(fmt.Sprintf("no such user: %d", sub.UserID))
		}
		return types.Job{}, apperr.Internal(err.Error())
	}

	contest, err := s.resolveContest(ctx, sub.ContestID)
	if err != nil {
		return types.Job{}, err
	}

	if !contest.IsGlobal() {
		if !contest.HasProblem(sub.ProblemID) {
			return types.Job{}, apperr.InvalidArgument(fmt.Sprintf("problem %d is not part of contest %d", sub.ProblemID, contest.ID))
		}
		if !contest.HasUser(sub.UserID) {
			return types.Job{}, apperr.InvalidArgument(fmt.Sprintf("user %d is not part of contest %d", sub.UserID, contest.ID))
		}

		now := time.Now().UTC()
		if !contest.Within(now) {
			// Preserves original_source behavior of reporting an
			// out-of-window contest as not-found rather than a
			// separate "contest closed" reason.
			return types.Job{}, apperr.NotFound(fmt.Sprintf("contest %d is not currently open", contest.ID))
		}
	}

	id, err := s.jobs.NextID(ctx)
	if err != nil {
		return types.Job{}, apperr.Internal(err.Error())
	}

	now := types.NewTime(time.Now().UTC())
	job := types.Job{
		ID:          id,
		CreatedTime: now,
		UpdatedTime: now,
		Submission:  sub,
		State:       types.JobQueueing,
		Result:      types.ResultWaiting,
		Score:       0,
		Cases:       types.NewWaitingCases(problem.CaseCount()),
	}

	job, err = s.jobs.InsertIfUnderLimit(ctx, job, contest.SubmissionLimit)
	if err != nil {
		if errors.Is(err, store.ErrRateLimited) {
			return types.Job{}, apperr.RateLimit("submission limit reached for this problem")
		}
		return types.Job{}, apperr.Internal(err.Error())
	}

	payload := []byte(strconv.FormatUint(uint64(job.ID), 10))
	if err := s.bus.Publish(ctx, s.queue, payload); err != nil {
		log.Printf("intake: publish failed for job %d: %v", job.ID, err)
		return types.Job{}, apperr.External(fmt.Sprintf("could not enqueue job: %v", err))
	}

	return job, nil
}

// Republish re-enqueues an already-allocated job id, used by PUT
// /jobs/{id} rejudge once the Job Store has reset the job to Queueing.
func (s *Service) Republish(ctx context.Context, payload []byte) error {
	return s.bus.Publish(ctx, s.queue, payload)
}

func (s *Service) resolveContest(ctx context.Context, id uint32) (types.Contest, error) {
	if id == types.GlobalContestID {
		return types.GlobalContest(s.static.ProblemIDs(), nil), nil
	}
	contest, err := s.contests.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Contest{}, apperr.NotFound(fmt.Sprintf("no such contest: %d", id))
		}
		return types.Contest{}, apperr.Internal(err.Error())
	}
	return contest, nil
}
