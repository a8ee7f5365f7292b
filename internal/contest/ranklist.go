// Package contest implements the Contest Engine: representative
// submission selection per (user, problem) and the three-level
// ranklist ordering of spec §4.4. Grounded on the original_source
// contests.rs get_rank_list handler: Finished jobs and submission
// counts are fetched per (user, problem) pair through JobSource and
// reduced in memory.
package contest

import (
	"context"
	"sort"

	"github.com/codearena/judgecore/types"
)

// Engine computes ranklists from a contest's membership and jobs.
type Engine struct {
	jobs JobSource
}

// JobSource abstracts job retrieval so Engine can be driven by the
// real Job Store or, in tests, an in-memory fixture.
type JobSource interface {
	// FinishedJobs returns every Finished job for (userID, contestID,
	// problemID), in no particular order.
	FinishedJobs(ctx context.Context, userID, contestID, problemID uint32) ([]types.Job, error)
	// SubmissionCount returns the count of all non-Canceled jobs for
	// (userID, contestID, problemID), regardless of terminal state.
	SubmissionCount(ctx context.Context, userID, contestID, problemID uint32) (uint32, error)
}

func New(jobs JobSource) *Engine {
	return &Engine{jobs: jobs}
}

// problemResult is a user's representative outcome on one problem.
type problemResult struct {
	score           float64
	submissionTime  int64 // unix nanos; left 0 when hasSubmission is false
	submissionCount uint32
	hasSubmission   bool
}

// Entry is one row of a computed ranklist.
type Entry struct {
	UserID uint32
	Rank   uint32
	Scores []float64 // one per problem, in the same order as the ProblemIDs passed to Rank
}

const noSubmissionSentinel = int64(1<<63 - 1)

// Rank computes the ranklist for userIDs ranked over problemIDs within
// contestID, using scoringRule to pick each (user,problem) pair's
// representative job and tieBreaker to order equal-score users.
func (e *Engine) Rank(ctx context.Context, contestID uint32, userIDs, problemIDs []uint32, scoringRule types.ScoringRule, tieBreaker types.TieBreaker) ([]Entry, error) {
	results := make(map[uint32]map[uint32]problemResult, len(userIDs))

	for _, userID := range userIDs {
		perProblem := make(map[uint32]problemResult, len(problemIDs))
		for _, problemID := range problemIDs {
			jobs, err := e.jobs.FinishedJobs(ctx, userID, contestID, problemID)
			if err != nil {
				return nil, err
			}

			// SubmissionCount covers every non-Canceled submission,
			// including ones still in flight with no Finished
			// representative yet, so it's fetched regardless of
			// whether pickRepresentative finds one.
			count, err := e.jobs.SubmissionCount(ctx, userID, contestID, problemID)
			if err != nil {
				return nil, err
			}

			rep, ok := pickRepresentative(jobs, scoringRule)
			if !ok {
				perProblem[problemID] = problemResult{submissionCount: count}
				continue
			}

			perProblem[problemID] = problemResult{
				score:           rep.Score,
				submissionTime:  rep.CreatedTime.UnixNano(),
				submissionCount: count,
				hasSubmission:   true,
			}
		}
		results[userID] = perProblem
	}

	order := make([]uint32, len(userIDs))
	copy(order, userIDs)
	sort.Slice(order, func(i, j int) bool {
		return less(order[i], results[order[i]], order[j], results[order[j]], tieBreaker)
	})

	entries := make([]Entry, len(order))
	var lastRank uint32
	for i, userID := range order {
		scores := make([]float64, len(problemIDs))
		for pi, pid := range problemIDs {
			scores[pi] = results[userID][pid].score
		}

		var rank uint32
		if i == 0 {
			rank = 1
		} else if tiesByBreaker(order[i-1], results[order[i-1]], userID, results[userID], tieBreaker) {
			rank = lastRank
		} else {
			rank = uint32(i) + 1
		}
		lastRank = rank

		entries[i] = Entry{UserID: userID, Rank: rank, Scores: scores}
	}

	return entries, nil
}

// pickRepresentative selects the representative job for a
// (user,problem) pair per scoringRule: latest favors greatest
// created_time (then greatest id); highest favors greatest score
// (then earliest created_time, then smallest id).
func pickRepresentative(jobs []types.Job, rule types.ScoringRule) (types.Job, bool) {
	if len(jobs) == 0 {
		return types.Job{}, false
	}

	best := jobs[0]
	for _, j := range jobs[1:] {
		if betterRepresentative(j, best, rule) {
			best = j
		}
	}
	return best, true
}

func betterRepresentative(candidate, current types.Job, rule types.ScoringRule) bool {
	switch rule {
	case types.ScoringHighest:
		if candidate.Score != current.Score {
			return candidate.Score > current.Score
		}
		if !candidate.CreatedTime.Equal(current.CreatedTime.Time) {
			return candidate.CreatedTime.Before(current.CreatedTime.Time)
		}
		return candidate.ID < current.ID
	default: // ScoringLatest
		if !candidate.CreatedTime.Equal(current.CreatedTime.Time) {
			return candidate.CreatedTime.After(current.CreatedTime.Time)
		}
		return candidate.ID > current.ID
	}
}

func totalScore(results map[uint32]problemResult) float64 {
	var total float64
	for _, r := range results {
		total += r.score
	}
	return total
}

// less implements the three-level ordering of spec §4.4: total score
// descending, then tie-breaker, then user id ascending.
func less(idA uint32, a map[uint32]problemResult, idB uint32, b map[uint32]problemResult, tb types.TieBreaker) bool {
	ta, tbv := totalScore(a), totalScore(b)
	if ta != tbv {
		return ta > tbv
	}
	switch cmp := compareTieBreaker(idA, a, idB, b, tb); {
	case cmp != 0:
		return cmp < 0
	default:
		return idA < idB
	}
}

// tiesByBreaker reports whether two users remain tied once the
// tie-breaker itself is applied (used to decide standard competition
// ranking: equal rows share a rank).
func tiesByBreaker(idA uint32, a map[uint32]problemResult, idB uint32, b map[uint32]problemResult, tb types.TieBreaker) bool {
	if totalScore(a) != totalScore(b) {
		return false
	}
	return compareTieBreaker(idA, a, idB, b, tb) == 0
}

// compareTieBreaker returns <0, 0, >0 as a orders before, ties with,
// or orders after b under tb. Assumes totals are already known equal.
func compareTieBreaker(idA uint32, a map[uint32]problemResult, idB uint32, b map[uint32]problemResult, tb types.TieBreaker) int {
	switch tb {
	case types.TieBreakerSubmissionTime:
		ta, tbv := latestSubmissionTime(a), latestSubmissionTime(b)
		switch {
		case ta < tbv:
			return -1
		case ta > tbv:
			return 1
		default:
			return 0
		}
	case types.TieBreakerSubmissionCount:
		ca, cb := totalSubmissionCount(a), totalSubmissionCount(b)
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		default:
			return 0
		}
	case types.TieBreakerUserID:
		switch {
		case idA < idB:
			return -1
		case idA > idB:
			return 1
		default:
			return 0
		}
	default: // TieBreakerNone: ties share rank
		return 0
	}
}

func latestSubmissionTime(results map[uint32]problemResult) int64 {
	max := int64(-1)
	found := false
	for _, r := range results {
		if !r.hasSubmission {
			continue
		}
		if r.submissionTime > max {
			max = r.submissionTime
		}
		found = true
	}
	if !found {
		return noSubmissionSentinel
	}
	return max
}

func totalSubmissionCount(results map[uint32]problemResult) uint32 {
	var total uint32
	for _, r := range results {
		total += r.submissionCount
	}
	return total
}
