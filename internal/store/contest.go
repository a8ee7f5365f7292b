package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/codearena/judgecore/types"
)

// ContestRepository persists contests. Contest id 0 (the global
// contest) is never stored; callers must special-case it before
// reaching this repository.
type ContestRepository struct {
	db *sql.DB
}

func NewContestRepository(db *sql.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

func (r *ContestRepository) Get(ctx context.Context, id uint32) (types.Contest, error) {
	const query = `
		SELECT id, name, from_time, to_time, problem_ids, user_ids, submission_limit
		FROM contests WHERE id = $1`
	return scanContest(r.db.QueryRowContext(ctx, query, id))
}

func (r *ContestRepository) List(ctx context.Context) ([]types.Contest, error) {
	const query = `
		SELECT id, name, from_time, to_time, problem_ids, user_ids, submission_limit
		FROM contests ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contests []types.Contest
	for rows.Next() {
		var (
			c                      types.Contest
			problemIDs, userIDs    string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.From, &c.To, &problemIDs, &userIDs, &c.SubmissionLimit); err != nil {
			return nil, err
		}
		c.ProblemIDs = decodeIDList(problemIDs)
		c.UserIDs = decodeIDList(userIDs)
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

func scanContest(row *sql.Row) (types.Contest, error) {
	var (
		c                   types.Contest
		problemIDs, userIDs string
	)
	err := row.Scan(&c.ID, &c.Name, &c.From, &c.To, &problemIDs, &userIDs, &c.SubmissionLimit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contest{}, ErrNotFound
		}
		return types.Contest{}, err
	}
	c.ProblemIDs = decodeIDList(problemIDs)
	c.UserIDs = decodeIDList(userIDs)
	return c, nil
}

// Create inserts a new contest with an id allocated by the database;
// any id already set on c is ignored and replaced by the allocated one.
func (r *ContestRepository) Create(ctx context.Context, c types.Contest) (types.Contest, error) {
	const query = `
		INSERT INTO contests (name, from_time, to_time, problem_ids, user_ids, submission_limit)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.From, c.To, encodeIDList(c.ProblemIDs), encodeIDList(c.UserIDs), c.SubmissionLimit,
	).Scan(&c.ID)
	if err != nil {
		return types.Contest{}, err
	}
	return c, nil
}

// encodeIDList/decodeIDList implement spec §9's "ordered id sequences
// as comma-separated text" column encoding.
func encodeIDList(ids []uint32) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

func decodeIDList(s string) []uint32 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]uint32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(v))
	}
	return ids
}
