package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codearena/judgecore/config"
	"github.com/codearena/judgecore/internal/apperr"
	"github.com/codearena/judgecore/internal/mq"
	"github.com/codearena/judgecore/internal/store"
	"github.com/codearena/judgecore/types"
)

type fakeUsers struct {
	byID map[uint32]types.User
}

func (f fakeUsers) GetByID(ctx context.Context, id uint32) (types.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

type fakeContests struct {
	byID map[uint32]types.Contest
}

func (f fakeContests) Get(ctx context.Context, id uint32) (types.Contest, error) {
	c, ok := f.byID[id]
	if !ok {
		return types.Contest{}, store.ErrNotFound
	}
	return c, nil
}

type fakeJobs struct {
	nextID    uint32
	limitHits int
	inserted  []types.Job
}

func (f *fakeJobs) NextID(ctx context.Context) (uint32, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeJobs) InsertIfUnderLimit(ctx context.Context, job types.Job, limit uint32) (types.Job, error) {
	if limit > 0 && uint32(len(f.inserted)) >= limit {
		f.limitHits++
		return types.Job{}, store.ErrRateLimited
	}
	f.inserted = append(f.inserted, job)
	return job, nil
}

type fakeBus struct {
	published [][]byte
	failNext  bool
}

func (b *fakeBus) Publish(ctx context.Context, queue string, payload []byte) error {
	if b.failNext {
		return errors.New("broker unavailable")
	}
	b.published = append(b.published, payload)
	return nil
}

func (b *fakeBus) Consume(ctx context.Context, queue string) (<-chan mq.Delivery, error) {
	return nil, nil
}

func (b *fakeBus) Close() error { return nil }

func newTestService(static config.Static, users fakeUsers, contests fakeContests, jobs *fakeJobs, bus *fakeBus) *Service {
	return New(static, users, contests, jobs, bus, "jobs")
}

func testStatic() config.Static {
	return config.Static{
		Problems: []types.Problem{
			{ID: 1, Name: "A+B", Kind: types.KindStandard, Cases: []types.Case{{Score: 100}}},
		},
		Languages: []types.Language{
			{Name: "cpp17", SourceFileName: "main.cpp", CompileArgv: []string{types.PlaceholderInput, types.PlaceholderOutput}},
		},
	}
}

func TestSubmitUnknownLanguage(t *testing.T) {
	svc := newTestService(testStatic(),
		fakeUsers{byID: map[uint32]types.User{1: {ID: 1}}},
		fakeContests{}, &fakeJobs{}, &fakeBus{})

	_, err := svc.Submit(context.Background(), types.Submission{Language: "brainfuck", ProblemID: 1, UserID: 1})
	assertReason(t, err, apperr.ReasonNotFound)
}

func TestSubmitUnknownProblem(t *testing.T) {
	svc := newTestService(testStatic(),
		fakeUsers{byID: map[uint32]types.User{1: {ID: 1}}},
		fakeContests{}, &fakeJobs{}, &fakeBus{})

	_, err := svc.Submit(context.Background(), types.Submission{Language: "cpp17", ProblemID: 999, UserID: 1})
	assertReason(t, err, apperr.ReasonNotFound)
}

func TestSubmitUnknownUser(t *testing.T) {
	svc := newTestService(testStatic(), fakeUsers{byID: map[uint32]types.User{}}, fakeContests{}, &fakeJobs{}, &fakeBus{})

	_, err := svc.Submit(context.Background(), types.Submission{Language: "cpp17", ProblemID: 1, UserID: 42})
	assertReason(t, err, apperr.ReasonNotFound)
}

func TestSubmitGlobalContestSucceeds(t *testing.T) {
	bus := &fakeBus{}
	svc := newTestService(testStatic(),
		fakeUsers{byID: map[uint32]types.User{1: {ID: 1}}},
		fakeContests{}, &fakeJobs{}, bus)

	job, err := svc.Submit(context.Background(), types.Submission{Language: "cpp17", ProblemID: 1, UserID: 1, ContestID: 0})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.State != types.JobQueueing {
		t.Fatalf("expected Queueing state, got %v", job.State)
	}
	if len(job.Cases) != 2 {
		t.Fatalf("expected 2 cases (compilation + 1 case), got %d", len(job.Cases))
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected exactly one publish, got %d", len(bus.published))
	}
	if string(bus.published[0]) != "1" {
		t.Fatalf("expected plain decimal job id payload %q, got %q", "1", bus.published[0])
	}
}

func TestSubmitContestProblemNotMember(t *testing.T) {
	contest := types.Contest{ID: 5, ProblemIDs: []uint32{2}, UserIDs: []uint32{1}, From: types.NewTime(pastTime()), To: types.NewTime(futureTime())}
	svc := newTestService(testStatic(),
		fakeUsers{byID: map[uint32]types.User{1: {ID: 1}}},
		fakeContests{byID: map[uint32]types.Contest{5: contest}}, &fakeJobs{}, &fakeBus{})

	_, err := svc.Submit(context.Background(), types.Submission{Language: "cpp17", ProblemID: 1, UserID: 1, ContestID: 5})
	assertReason(t, err, apperr.ReasonInvalidArgument)
}

func TestSubmitContestUserNotMember(t *testing.T) {
	contest := types.Contest{ID: 5, ProblemIDs: []uint32{1}, UserIDs: []uint32{99}, From: types.NewTime(pastTime()), To: types.NewTime(futureTime())}
	svc := newTestService(testStatic(),
		fakeUsers{byID: map[uint32]types.User{1: {ID: 1}}},
		fakeContests{byID: map[uint32]types.Contest{5: contest}}, &fakeJobs{}, &fakeBus{})

	_, err := svc.Submit(context.Background(), types.Submission{Language: "cpp17", ProblemID: 1, UserID: 1, ContestID: 5})
	assertReason(t, err, apperr.ReasonInvalidArgument)
}

func TestSubmitContestOutsideWindowIsNotFound(t *testing.T) {
	contest := types.Contest{ID: 5, ProblemIDs: []uint32{1}, UserIDs: []uint32{1}, From: types.NewTime(futureTime()), To: types.NewTime(futureTime().Add(time.Hour))}
	svc := newTestService(testStatic(),
		fakeUsers{byID: map[uint32]types.User{1: {ID: 1}}},
		fakeContests{byID: map[uint32]types.Contest{5: contest}}, &fakeJobs{}, &fakeBus{})

	_, err := svc.Submit(context.Background(), types.Submission{Language: "cpp17", ProblemID: 1, UserID: 1, ContestID: 5})
	assertReason(t, err, apperr.ReasonNotFound)
}

func TestSubmitRateLimitExceeded(t *testing.T) {
	contest := types.Contest{ID: 5, ProblemIDs: []uint32{1}, UserIDs: []uint32{1}, From: types.NewTime(pastTime()), To: types.NewTime(futureTime()), SubmissionLimit: 1}
	jobs := &fakeJobs{}
	svc := newTestService(testStatic(),
		fakeUsers{byID: map[uint32]types.User{1: {ID: 1}}},
		fakeContests{byID: map[uint32]types.Contest{5: contest}}, jobs, &fakeBus{})

	sub := types.Submission{Language: "cpp17", ProblemID: 1, UserID: 1, ContestID: 5}
	if _, err := svc.Submit(context.Background(), sub); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.Submit(context.Background(), sub)
	assertReason(t, err, apperr.ReasonRateLimit)
	if jobs.limitHits != 1 {
		t.Fatalf("expected the rate limit to trip exactly once, got %d", jobs.limitHits)
	}
}

func TestSubmitPublishFailureReportsExternal(t *testing.T) {
	bus := &fakeBus{failNext: true}
	svc := newTestService(testStatic(),
		fakeUsers{byID: map[uint32]types.User{1: {ID: 1}}},
		fakeContests{}, &fakeJobs{}, bus)

	_, err := svc.Submit(context.Background(), types.Submission{Language: "cpp17", ProblemID: 1, UserID: 1})
	assertReason(t, err, apperr.ReasonExternal)
}

func assertReason(t *testing.T, err error, want apperr.Reason) {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an *apperr.Error, got %v (%T)", err, err)
	}
	if appErr.Reason != want {
		t.Fatalf("reason = %s, want %s", appErr.Reason, want)
	}
}

func pastTime() time.Time   { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) }
func futureTime() time.Time { return time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC) }
