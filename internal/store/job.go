package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codearena/judgecore/types"
)

// JobFilter narrows a Query call. Zero-valued fields are not applied.
type JobFilter struct {
	UserID    *uint32
	UserName  string
	ContestID *uint32
	ProblemID *uint32
	Language  string
	From      *time.Time
	To        *time.Time
	State     *types.JobState
	Result    *types.ResultKind
}

// JobRepository is the Job Store of spec §4.6: insert, get,
// update-with-mutator under row-level serialization, and a
// filter-based query ordered by created_time ascending.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// NextID allocates the next monotonic job id. Postgres sequences give
// this for free; exposed as its own call so Intake can allocate before
// insert when needed.
func (r *JobRepository) NextID(ctx context.Context) (uint32, error) {
	const query = `SELECT nextval('jobs_id_seq')`
	var id uint32
	if err := r.db.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Insert writes a freshly allocated job. CreatedTime/UpdatedTime are
// stamped if zero.
func (r *JobRepository) Insert(ctx context.Context, job types.Job) (types.Job, error) {
	now := types.NewTime(time.Now().UTC())
	if job.CreatedTime.IsZero() {
		job.CreatedTime = now
	}
	if job.UpdatedTime.IsZero() {
		job.UpdatedTime = now
	}

	casesJSON, err := json.Marshal(job.Cases)
	if err != nil {
		return types.Job{}, err
	}

	const query = `
		INSERT INTO jobs (
			id, created_time, updated_time,
			source_code, language, user_id, contest_id, problem_id,
			state, result, score, cases
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.CreatedTime, job.UpdatedTime,
		job.Submission.SourceCode, job.Submission.Language, job.Submission.UserID,
		job.Submission.ContestID, job.Submission.ProblemID,
		job.State, job.Result, job.Score, casesJSON,
	)
	if err != nil {
		return types.Job{}, err
	}
	return job, nil
}

// ErrRateLimited is returned by InsertIfUnderLimit when the
// (user, contest, problem) tuple has already reached its submission
// limit.
var ErrRateLimited = errors.New("store: submission rate limit reached")

// InsertIfUnderLimit atomically counts existing non-Canceled jobs for
// job's (user, contest, problem) tuple and inserts job only if the
// count is still below limit (0 = unlimited), implementing spec §5's
// "read-count-then-insert must be atomic" requirement. The count and
// insert run inside one serializable transaction.
func (r *JobRepository) InsertIfUnderLimit(ctx context.Context, job types.Job, limit uint32) (types.Job, error) {
	var result types.Job
	err := withSerializableRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if limit > 0 {
			const countQuery = `
				SELECT COUNT(*) FROM jobs
				WHERE user_id = $1 AND contest_id = $2 AND problem_id = $3 AND state != $4`
			var count uint32
			if err := tx.QueryRowContext(ctx, countQuery,
				job.Submission.UserID, job.Submission.ContestID, job.Submission.ProblemID, types.JobCanceled,
			).Scan(&count); err != nil {
				return err
			}
			if count >= limit {
				return ErrRateLimited
			}
		}

		now := types.NewTime(time.Now().UTC())
		if job.CreatedTime.IsZero() {
			job.CreatedTime = now
		}
		if job.UpdatedTime.IsZero() {
			job.UpdatedTime = now
		}
		casesJSON, err := json.Marshal(job.Cases)
		if err != nil {
			return err
		}

		const insertQuery = `
			INSERT INTO jobs (
				id, created_time, updated_time,
				source_code, language, user_id, contest_id, problem_id,
				state, result, score, cases
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
		if _, err := tx.ExecContext(ctx, insertQuery,
			job.ID, job.CreatedTime, job.UpdatedTime,
			job.Submission.SourceCode, job.Submission.Language, job.Submission.UserID,
			job.Submission.ContestID, job.Submission.ProblemID,
			job.State, job.Result, job.Score, casesJSON,
		); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		result = job
		return nil
	})
	return result, err
}

// Get loads a job by id.
func (r *JobRepository) Get(ctx context.Context, id uint32) (types.Job, error) {
	const query = `
		SELECT id, created_time, updated_time,
		       source_code, language, user_id, contest_id, problem_id,
		       state, result, score, cases
		FROM jobs WHERE id = $1`
	return scanJob(r.db.QueryRowContext(ctx, query, id))
}

func scanJob(row *sql.Row) (types.Job, error) {
	var job types.Job
	var casesJSON []byte
	err := row.Scan(
		&job.ID, &job.CreatedTime, &job.UpdatedTime,
		&job.Submission.SourceCode, &job.Submission.Language, &job.Submission.UserID,
		&job.Submission.ContestID, &job.Submission.ProblemID,
		&job.State, &job.Result, &job.Score, &casesJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Job{}, ErrNotFound
		}
		return types.Job{}, err
	}
	if err := json.Unmarshal(casesJSON, &job.Cases); err != nil {
		return types.Job{}, fmt.Errorf("store: decoding cases for job %d: %w", job.ID, err)
	}
	return job, nil
}

// Mutator transforms a loaded job in place, returning an error to
// abort the update (the transaction is rolled back, nothing is
// persisted).
type Mutator func(job *types.Job) error

// Update loads the job inside a transaction, applies mutator, and
// writes the result back — linearizable per row via SELECT ... FOR
// UPDATE, with bounded retry on serialization conflicts (spec §4.6,
// §9).
func (r *JobRepository) Update(ctx context.Context, id uint32, mutate Mutator) (types.Job, error) {
	var result types.Job
	err := withSerializableRetry(ctx, func() error {
		tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return err
		}
		defer tx.Rollback()

		const selectQuery = `
			SELECT id, created_time, updated_time,
			       source_code, language, user_id, contest_id, problem_id,
			       state, result, score, cases
			FROM jobs WHERE id = $1 FOR UPDATE`
		job, err := scanJob(tx.QueryRowContext(ctx, selectQuery, id))
		if err != nil {
			return err
		}

		if err := mutate(&job); err != nil {
			return err
		}
		job.UpdatedTime = types.NewTime(time.Now().UTC())

		casesJSON, err := json.Marshal(job.Cases)
		if err != nil {
			return err
		}

		const updateQuery = `
			UPDATE jobs
			SET updated_time = $1, state = $2, result = $3, score = $4, cases = $5
			WHERE id = $6`
		if _, err := tx.ExecContext(ctx, updateQuery,
			job.UpdatedTime, job.State, job.Result, job.Score, casesJSON, job.ID,
		); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		result = job
		return nil
	})
	return result, err
}

// Query returns jobs matching filter, ordered by created_time ascending.
func (r *JobRepository) Query(ctx context.Context, filter JobFilter) ([]types.Job, error) {
	var where []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != nil {
		where = append(where, "user_id = "+arg(*filter.UserID))
	}
	if filter.UserName != "" {
		where = append(where, "user_id IN (SELECT id FROM users WHERE name = "+arg(filter.UserName)+")")
	}
	if filter.ContestID != nil {
		where = append(where, "contest_id = "+arg(*filter.ContestID))
	}
	if filter.ProblemID != nil {
		where = append(where, "problem_id = "+arg(*filter.ProblemID))
	}
	if filter.Language != "" {
		where = append(where, "language = "+arg(filter.Language))
	}
	if filter.From != nil {
		where = append(where, "created_time >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "created_time <= "+arg(*filter.To))
	}
	if filter.State != nil {
		where = append(where, "state = "+arg(*filter.State))
	}
	if filter.Result != nil {
		where = append(where, "result = "+arg(*filter.Result))
	}

	query := `
		SELECT id, created_time, updated_time,
		       source_code, language, user_id, contest_id, problem_id,
		       state, result, score, cases
		FROM jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_time ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		var job types.Job
		var casesJSON []byte
		if err := rows.Scan(
			&job.ID, &job.CreatedTime, &job.UpdatedTime,
			&job.Submission.SourceCode, &job.Submission.Language, &job.Submission.UserID,
			&job.Submission.ContestID, &job.Submission.ProblemID,
			&job.State, &job.Result, &job.Score, &casesJSON,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(casesJSON, &job.Cases); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CountActive counts non-Canceled jobs for (user, contest, problem),
// used by the Contest Engine's submission count (via
// contest.StoreJobSource).
func (r *JobRepository) CountActive(ctx context.Context, userID, contestID, problemID uint32) (uint32, error) {
	const query = `
		SELECT COUNT(*) FROM jobs
		WHERE user_id = $1 AND contest_id = $2 AND problem_id = $3 AND state != $4`
	var count uint32
	err := r.db.QueryRowContext(ctx, query, userID, contestID, problemID, types.JobCanceled).Scan(&count)
	return count, err
}

