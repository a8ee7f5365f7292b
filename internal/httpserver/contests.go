package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codearena/judgecore/internal/apperr"
	"github.com/codearena/judgecore/internal/store"
	"github.com/codearena/judgecore/types"
)

type contestRequest struct {
	Name            string     `json:"name"`
	From            types.Time `json:"from"`
	To              types.Time `json:"to"`
	ProblemIDs      []uint32   `json:"problem_ids"`
	UserIDs         []uint32   `json:"user_ids"`
	SubmissionLimit uint32     `json:"submission_limit"`
}

// createContest is POST /contests.
func (h *handlers) createContest(w http.ResponseWriter, r *http.Request) {
	var req contestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("malformed request body"))
		return
	}

	seenProblem := make(map[uint32]struct{}, len(req.ProblemIDs))
	for _, pid := range req.ProblemIDs {
		if _, dup := seenProblem[pid]; dup {
			apperr.WriteHTTP(w, apperr.InvalidArgument("duplicate problem id in problem_ids"))
			return
		}
		seenProblem[pid] = struct{}{}
		if _, ok := h.deps.Static.ProblemByID(pid); !ok {
			apperr.WriteHTTP(w, apperr.NotFound("no such problem"))
			return
		}
	}

	userCount, err := h.deps.Users.Count(r.Context())
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	for _, uid := range req.UserIDs {
		if uid >= userCount {
			apperr.WriteHTTP(w, apperr.NotFound("no such user"))
			return
		}
	}

	created, err := h.deps.Contests.Create(r.Context(), types.Contest{
		Name:            req.Name,
		From:            req.From,
		To:              req.To,
		ProblemIDs:      req.ProblemIDs,
		UserIDs:         req.UserIDs,
		SubmissionLimit: req.SubmissionLimit,
	})
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// listContests is GET /contests: the persisted contests plus the
// implicit global contest.
func (h *handlers) listContests(w http.ResponseWriter, r *http.Request) {
	contests, err := h.deps.Contests.List(r.Context())
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	users, err := h.deps.Users.List(r.Context())
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	global := types.GlobalContest(h.deps.Static.ProblemIDs(), userIDs(users))

	out := make([]types.Contest, 0, len(contests)+1)
	out = append(out, global)
	out = append(out, contests...)
	writeJSON(w, http.StatusOK, out)
}

// getContest is GET /contests/{id}. Id 0 returns the implicit global
// contest.
func (h *handlers) getContest(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("invalid contest id"))
		return
	}

	if id == types.GlobalContestID {
		users, err := h.deps.Users.List(r.Context())
		if err != nil {
			apperr.WriteHTTP(w, apperr.Internal(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, types.GlobalContest(h.deps.Static.ProblemIDs(), userIDs(users)))
		return
	}

	c, err := h.deps.Contests.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.WriteHTTP(w, apperr.NotFound("no such contest"))
			return
		}
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ranklistUser is the ranklist entry's user field (spec §4.4/§6): just
// enough to identify the row, deliberately narrower than userWithRole
// so a ranklist response never leaks a user's role.
type ranklistUser struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

type ranklistEntry struct {
	User   ranklistUser `json:"user"`
	Rank   uint32       `json:"rank"`
	Scores []float64    `json:"scores"`
}

// ranklist is GET /contests/{id}/ranklist.
func (h *handlers) ranklist(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("invalid contest id"))
		return
	}

	c, err := h.resolveContestForRanklist(r, id)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}

	scoringRule, err := types.ParseScoringRule(r.URL.Query().Get("scoring_rule"))
	if err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument(err.Error()))
		return
	}
	tieBreaker, err := types.ParseTieBreaker(r.URL.Query().Get("tie_breaker"))
	if err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument(err.Error()))
		return
	}

	entries, err := h.deps.Ranklist.Rank(r.Context(), c.ID, c.UserIDs, c.ProblemIDs, scoringRule, tieBreaker)
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	out := make([]ranklistEntry, 0, len(entries))
	for _, e := range entries {
		user, err := h.deps.Users.GetByID(r.Context(), e.UserID)
		if err != nil {
			apperr.WriteHTTP(w, apperr.Internal(err.Error()))
			return
		}
		out = append(out, ranklistEntry{
			User:   ranklistUser{ID: user.ID, Name: user.Name},
			Rank:   e.Rank,
			Scores: e.Scores,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) resolveContestForRanklist(r *http.Request, id uint32) (types.Contest, error) {
	if id == types.GlobalContestID {
		users, err := h.deps.Users.List(r.Context())
		if err != nil {
			return types.Contest{}, apperr.Internal(err.Error())
		}
		return types.GlobalContest(h.deps.Static.ProblemIDs(), userIDs(users)), nil
	}

	c, err := h.deps.Contests.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Contest{}, apperr.NotFound("no such contest")
		}
		return types.Contest{}, apperr.Internal(err.Error())
	}
	return c, nil
}

func userIDs(users []types.User) []uint32 {
	ids := make([]uint32, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
