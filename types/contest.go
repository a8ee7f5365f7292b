package types

import (
	"fmt"
	"time"
)

// GlobalContestID is the implicit contest covering all users and
// problems with no time bound or submission limit. It is never
// persisted or editable.
const GlobalContestID uint32 = 0

// ScoringRule selects how a representative submission is chosen for
// a (user, problem) pair when computing a ranklist.
type ScoringRule string

const (
	// ScoringLatest picks the submission with the greatest created_time.
	ScoringLatest ScoringRule = "latest"

	// ScoringHighest picks the submission with the greatest score.
	ScoringHighest ScoringRule = "highest"
)

// ParseScoringRule defaults empty input to ScoringLatest.
func ParseScoringRule(s string) (ScoringRule, error) {
	switch ScoringRule(s) {
	case "":
		return ScoringLatest, nil
	case ScoringLatest, ScoringHighest:
		return ScoringRule(s), nil
	default:
		return "", fmt.Errorf("types: unknown scoring_rule %q", s)
	}
}

// TieBreaker selects the secondary ranking key applied when two users
// share the same total score.
type TieBreaker string

const (
	// TieBreakerNone leaves tied users sharing a rank.
	TieBreakerNone TieBreaker = "none"

	// TieBreakerSubmissionTime favors the earlier latest representative created_time.
	TieBreakerSubmissionTime TieBreaker = "submission_time"

	// TieBreakerSubmissionCount favors fewer total submissions.
	TieBreakerSubmissionCount TieBreaker = "submission_count"

	// TieBreakerUserID favors the smaller user id.
	TieBreakerUserID TieBreaker = "user_id"
)

// ParseTieBreaker defaults empty input to TieBreakerNone.
func ParseTieBreaker(s string) (TieBreaker, error) {
	switch TieBreaker(s) {
	case "":
		return TieBreakerNone, nil
	case TieBreakerNone, TieBreakerSubmissionTime, TieBreakerSubmissionCount, TieBreakerUserID:
		return TieBreaker(s), nil
	default:
		return "", fmt.Errorf("types: unknown tie_breaker %q", s)
	}
}

// Contest groups a set of problems and users over a time window with
// an optional per-(user,problem) submission cap.
type Contest struct {
	ID   uint32 `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	From Time `json:"from" db:"from_time"`
	To   Time `json:"to" db:"to_time"`

	// ProblemIDs is ordered; duplicates are disallowed.
	ProblemIDs []uint32 `json:"problem_ids" db:"problem_ids"`

	// UserIDs is the contest membership set.
	UserIDs []uint32 `json:"user_ids" db:"user_ids"`

	// SubmissionLimit caps non-Canceled jobs per (user, problem); 0 is unlimited.
	SubmissionLimit uint32 `json:"submission_limit" db:"submission_limit"`
}

// IsGlobal reports whether c is the implicit id=0 contest.
func (c Contest) IsGlobal() bool {
	return c.ID == GlobalContestID
}

// HasProblem reports whether p is a member of the contest's problem set.
func (c Contest) HasProblem(p uint32) bool {
	for _, id := range c.ProblemIDs {
		if id == p {
			return true
		}
	}
	return false
}

// HasUser reports whether u is a member of the contest.
func (c Contest) HasUser(u uint32) bool {
	for _, id := range c.UserIDs {
		if id == u {
			return true
		}
	}
	return false
}

// Within reports whether t falls inside the contest's [from, to] window.
func (c Contest) Within(t time.Time) bool {
	return !t.Before(c.From.Time) && !t.After(c.To.Time)
}

// GlobalContest builds the implicit id=0 contest given the full
// static problem table and the full registered user id set.
func GlobalContest(problemIDs, userIDs []uint32) Contest {
	return Contest{
		ID:              GlobalContestID,
		Name:            "Global",
		From:            NewTime(time.Unix(0, 0).UTC()),
		To:              NewTime(time.Unix(1<<62, 0).UTC()),
		ProblemIDs:      problemIDs,
		UserIDs:         userIDs,
		SubmissionLimit: 0,
	}
}
