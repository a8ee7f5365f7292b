package contest

import (
	"context"
	"testing"
	"time"

	"github.com/codearena/judgecore/types"
)

// fakeJobSource serves fixtures keyed by (userID, problemID), ignoring
// contestID, so tests can build a small in-memory scoreboard.
type fakeJobSource struct {
	jobs  map[[2]uint32][]types.Job
	counts map[[2]uint32]uint32
}

func newFakeJobSource() *fakeJobSource {
	return &fakeJobSource{
		jobs:   make(map[[2]uint32][]types.Job),
		counts: make(map[[2]uint32]uint32),
	}
}

func (f *fakeJobSource) add(userID, problemID uint32, job types.Job) {
	key := [2]uint32{userID, problemID}
	f.jobs[key] = append(f.jobs[key], job)
	f.counts[key]++
}

func (f *fakeJobSource) FinishedJobs(ctx context.Context, userID, contestID, problemID uint32) ([]types.Job, error) {
	return f.jobs[[2]uint32{userID, problemID}], nil
}

func (f *fakeJobSource) SubmissionCount(ctx context.Context, userID, contestID, problemID uint32) (uint32, error) {
	return f.counts[[2]uint32{userID, problemID}], nil
}

func job(id uint32, score float64, createdAt time.Time) types.Job {
	return types.Job{ID: id, Score: score, CreatedTime: types.NewTime(createdAt), State: types.JobFinished}
}

func TestRankOrdersByTotalScoreDescending(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeJobSource()
	src.add(1, 100, job(1, 50, base))
	src.add(2, 100, job(2, 90, base))

	engine := New(src)
	entries, err := engine.Rank(context.Background(), 0, []uint32{1, 2}, []uint32{100}, types.ScoringLatest, types.TieBreakerNone)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if entries[0].UserID != 2 || entries[0].Rank != 1 {
		t.Fatalf("expected user 2 ranked 1st, got %+v", entries[0])
	}
	if entries[1].UserID != 1 || entries[1].Rank != 2 {
		t.Fatalf("expected user 1 ranked 2nd, got %+v", entries[1])
	}
}

func TestRankTiesShareRankWithoutTieBreaker(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeJobSource()
	src.add(1, 100, job(1, 50, base))
	src.add(2, 100, job(2, 50, base.Add(time.Hour)))
	src.add(3, 100, job(3, 10, base))

	engine := New(src)
	entries, err := engine.Rank(context.Background(), 0, []uint32{1, 2, 3}, []uint32{100}, types.ScoringLatest, types.TieBreakerNone)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	ranks := map[uint32]uint32{}
	for _, e := range entries {
		ranks[e.UserID] = e.Rank
	}
	if ranks[1] != 1 || ranks[2] != 1 {
		t.Fatalf("expected users 1 and 2 tied for rank 1, got %v", ranks)
	}
	if ranks[3] != 3 {
		t.Fatalf("expected user 3 at rank 3 (standard competition ranking skips 2), got %v", ranks)
	}
}

func TestRankTieBreakerSubmissionTimeFavorsEarlier(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeJobSource()
	src.add(1, 100, job(1, 50, base.Add(2*time.Hour)))
	src.add(2, 100, job(2, 50, base))

	engine := New(src)
	entries, err := engine.Rank(context.Background(), 0, []uint32{1, 2}, []uint32{100}, types.ScoringLatest, types.TieBreakerSubmissionTime)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if entries[0].UserID != 2 {
		t.Fatalf("expected user 2 (earlier submission) ranked first, got %+v", entries[0])
	}
	if entries[1].Rank == entries[0].Rank {
		t.Fatalf("expected a strict ordering once the tie-breaker resolves, got %+v", entries)
	}
}

func TestRankTieBreakerSubmissionCountFavorsFewer(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeJobSource()
	src.add(1, 100, job(1, 50, base))
	src.add(1, 100, job(2, 40, base))
	src.add(2, 100, job(3, 50, base))

	engine := New(src)
	entries, err := engine.Rank(context.Background(), 0, []uint32{1, 2}, []uint32{100}, types.ScoringHighest, types.TieBreakerSubmissionCount)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if entries[0].UserID != 2 {
		t.Fatalf("expected user 2 (fewer submissions) ranked first, got %+v", entries)
	}
}

func TestRankTieBreakerUserID(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeJobSource()
	src.add(5, 100, job(1, 50, base))
	src.add(2, 100, job(2, 50, base))

	engine := New(src)
	entries, err := engine.Rank(context.Background(), 0, []uint32{5, 2}, []uint32{100}, types.ScoringLatest, types.TieBreakerUserID)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if entries[0].UserID != 2 || entries[1].UserID != 5 {
		t.Fatalf("expected smaller user id first, got %+v", entries)
	}
}

func TestPickRepresentativeHighestPrefersGreatestScoreThenEarliest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := []types.Job{
		job(1, 70, base.Add(time.Hour)),
		job(2, 90, base),
		job(3, 90, base.Add(time.Minute)),
	}

	rep, ok := pickRepresentative(jobs, types.ScoringHighest)
	if !ok {
		t.Fatal("expected a representative")
	}
	if rep.ID != 2 {
		t.Fatalf("expected job 2 (highest score, earliest of the ties), got job %d", rep.ID)
	}
}

func TestPickRepresentativeLatestPrefersGreatestCreatedTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := []types.Job{
		job(1, 90, base),
		job(2, 10, base.Add(time.Hour)),
	}

	rep, ok := pickRepresentative(jobs, types.ScoringLatest)
	if !ok {
		t.Fatal("expected a representative")
	}
	if rep.ID != 2 {
		t.Fatalf("expected the most recently created job (2) regardless of score, got job %d", rep.ID)
	}
}

func TestPickRepresentativeNoJobs(t *testing.T) {
	if _, ok := pickRepresentative(nil, types.ScoringLatest); ok {
		t.Fatal("expected no representative for an empty job list")
	}
}

func TestRankHandlesNoSubmissions(t *testing.T) {
	src := newFakeJobSource()
	engine := New(src)
	entries, err := engine.Rank(context.Background(), 0, []uint32{1, 2}, []uint32{100}, types.ScoringLatest, types.TieBreakerNone)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected one entry per user even with zero submissions, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Rank != 1 {
			t.Fatalf("expected every zero-score user tied at rank 1, got %+v", e)
		}
	}
}
