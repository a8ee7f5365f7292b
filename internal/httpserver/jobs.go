package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/codearena/judgecore/internal/apperr"
	"github.com/codearena/judgecore/internal/auth"
	"github.com/codearena/judgecore/internal/store"
	"github.com/codearena/judgecore/types"
)

// createJob is POST /jobs: validates and enqueues a new submission.
func (h *handlers) createJob(w http.ResponseWriter, r *http.Request) {
	var sub types.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("malformed request body"))
		return
	}

	if h.deps.AuthMode {
		if callerID, ok := auth.UserID(r.Context()); !ok || callerID != sub.UserID {
			apperr.WriteHTTP(w, apperr.Forbidden("cannot submit on behalf of another user"))
			return
		}
	}

	job, err := h.deps.Intake.Submit(r.Context(), sub)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// listJobs is GET /jobs: filters from query parameters.
func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.JobFilter{
		UserName: q.Get("user_name"),
		Language: q.Get("language"),
	}
	if v := q.Get("user_id"); v != "" {
		id, err := parseUint32(v)
		if err != nil {
			apperr.WriteHTTP(w, apperr.InvalidArgument("invalid user_id"))
			return
		}
		filter.UserID = &id
	}
	if v := q.Get("contest_id"); v != "" {
		id, err := parseUint32(v)
		if err != nil {
			apperr.WriteHTTP(w, apperr.InvalidArgument("invalid contest_id"))
			return
		}
		filter.ContestID = &id
	}
	if v := q.Get("problem_id"); v != "" {
		id, err := parseUint32(v)
		if err != nil {
			apperr.WriteHTTP(w, apperr.InvalidArgument("invalid problem_id"))
			return
		}
		filter.ProblemID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			apperr.WriteHTTP(w, apperr.InvalidArgument("invalid from"))
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			apperr.WriteHTTP(w, apperr.InvalidArgument("invalid to"))
			return
		}
		filter.To = &t
	}
	if v := q.Get("state"); v != "" {
		state, err := parseJobState(v)
		if err != nil {
			apperr.WriteHTTP(w, apperr.InvalidArgument(err.Error()))
			return
		}
		filter.State = &state
	}
	if v := q.Get("result"); v != "" {
		var result types.ResultKind
		if err := result.UnmarshalJSON([]byte(`"` + v + `"`)); err != nil {
			apperr.WriteHTTP(w, apperr.InvalidArgument("invalid result"))
			return
		}
		filter.Result = &result
	}

	jobs, err := h.deps.Jobs.Query(r.Context(), filter)
	if err != nil {
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// getJob is GET /jobs/{id}.
func (h *handlers) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("invalid job id"))
		return
	}
	job, err := h.deps.Jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.WriteHTTP(w, apperr.NotFound("no such job"))
			return
		}
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// rejudgeJob is PUT /jobs/{id}: resets a Finished job to Queueing and
// republishes it.
func (h *handlers) rejudgeJob(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("invalid job id"))
		return
	}

	job, err := h.deps.Jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.WriteHTTP(w, apperr.NotFound("no such job"))
			return
		}
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	problem, ok := h.deps.Static.ProblemByID(job.Submission.ProblemID)
	if !ok {
		apperr.WriteHTTP(w, apperr.Internal("problem no longer exists in static config"))
		return
	}

	// The Get above is only a pre-check for a fast 404; the state
	// that actually governs the transition is re-checked here against
	// the row locked by Update's SELECT ... FOR UPDATE, so a rejudge
	// racing a worker's own transition can't clobber it.
	job, err = h.deps.Jobs.Update(r.Context(), id, func(j *types.Job) error {
		if !j.CanRejudge() {
			return apperr.InvalidState("job is not Finished")
		}
		j.State = types.JobQueueing
		j.Result = types.ResultWaiting
		j.Score = 0
		j.Cases = types.NewWaitingCases(problem.CaseCount())
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			apperr.WriteHTTP(w, appErr)
			return
		}
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	payload := []byte(formatUint32(job.ID))
	if err := h.deps.Intake.Republish(r.Context(), payload); err != nil {
		apperr.WriteHTTP(w, apperr.External(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// cancelJob is DELETE /jobs/{id}: cancels a still-Queueing job.
func (h *handlers) cancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(r, "id")
	if err != nil {
		apperr.WriteHTTP(w, apperr.InvalidArgument("invalid job id"))
		return
	}

	job, err := h.deps.Jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.WriteHTTP(w, apperr.NotFound("no such job"))
			return
		}
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	// As with rejudge, the state that governs the transition is the
	// row locked inside Update, not this pre-check Get: a job picked
	// up by a worker between the Get and the Update must fail here
	// rather than have its Running/Finished state overwritten.
	job, err = h.deps.Jobs.Update(r.Context(), id, func(j *types.Job) error {
		if !j.CanCancel() {
			return apperr.InvalidState("job is not Queueing")
		}
		j.State = types.JobCanceled
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			apperr.WriteHTTP(w, appErr)
			return
		}
		apperr.WriteHTTP(w, apperr.Internal(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
