package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/jmbouzan/ardora/app/enums"
)

// JobRecord is one learner attempt/session on an activity, row of ardora_jobs
type JobRecord struct {
	ID        int64          `db:"id" json:"id"`
	CourseID  int64          `db:"courseid" json:"courseid"`
	UserID    int64          `db:"userid" json:"userid"`
	DataJob   string         `db:"datajob" json:"datajob"`
	DataJobTS int64          `db:"datajob_ts" json:"-"` // unix seconds of datajob, the sort key
	Father    string         `db:"father" json:"father"`
	Type      string         `db:"type" json:"type"`
	PaqName   string         `db:"paq_name" json:"paq_name"`
	ArdoraID  string         `db:"ardora_id" json:"ardora_id"`
	Activity  string         `db:"activity" json:"activity"`
	HStart    string         `db:"hstart" json:"hstart"`
	HEnd      string         `db:"hend" json:"hend"`
	Attemps   int            `db:"attemps" json:"attemps"`
	Points    float64        `db:"points" json:"points"`
	State     enums.JobState `db:"state" json:"state"`
	TypeGrade string         `db:"typegrade" json:"typegrade"`
}

// JobFilter selects jobs by the package tuple, optionally narrowed to one user
type JobFilter struct {
	Type     string
	Father   string
	PaqName  string
	ArdoraID string
	UserID   int64 // 0 means all users
	DoneOnly bool  // only completed/reviewed records
}

// JobStats is an aggregate over the jobs of one activity
type JobStats struct {
	Jobs          int     `db:"jobs"`
	Users         int     `db:"users"`
	Completed     int     `db:"completed"`
	MaxPoints     float64 `db:"max_points"`
	AvgPoints     float64 `db:"avg_points"`
	LatestDataJob string  `db:"latest_datajob"`
}

const jobColumns = "id, courseid, userid, datajob, datajob_ts, father, type, paq_name, ardora_id, activity, " +
	"hstart, hend, attemps, points, state, typegrade"

var jobCriteriaKeys = map[string]bool{
	"id": true, "courseid": true, "userid": true, "datajob": true, "father": true, "type": true,
	"paq_name": true, "ardora_id": true, "activity": true, "state": true, "typegrade": true,
}

const insertJobQuery = `INSERT INTO ardora_jobs
	(courseid, userid, datajob, datajob_ts, father, type, paq_name, ardora_id, activity, hstart, hend, attemps, points,
	state, typegrade)
	VALUES (:courseid, :userid, :datajob, :datajob_ts, :father, :type, :paq_name, :ardora_id, :activity, :hstart, :hend,
	:attemps, :points, :state, :typegrade)`

// insertJobUniqueQuery checks and inserts in one statement, sqlite takes the write lock before reading
const insertJobUniqueQuery = `INSERT INTO ardora_jobs
	(courseid, userid, datajob, datajob_ts, father, type, paq_name, ardora_id, activity, hstart, hend, attemps, points,
	state, typegrade)
	SELECT :courseid, :userid, :datajob, :datajob_ts, :father, :type, :paq_name, :ardora_id, :activity, :hstart, :hend,
	:attemps, :points, :state, :typegrade
	WHERE NOT EXISTS (SELECT 1 FROM ardora_jobs WHERE userid = :userid AND ardora_id = :ardora_id AND datajob = :datajob)`

// InsertJob adds a job record and returns its new id. Identical records are not deduplicated.
func (s *SQLiteStore) InsertJob(ctx context.Context, rec JobRecord) (int64, error) {
	if err := checkJobKeys(rec); err != nil {
		return 0, err
	}
	res, err := s.db.NamedExecContext(ctx, insertJobQuery, rec)
	if err != nil {
		return 0, fmt.Errorf("failed to insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted job id: %w", err)
	}
	return id, nil
}

// InsertJobUnique adds a job record unless one with the same user, activity and datajob exists
func (s *SQLiteStore) InsertJobUnique(ctx context.Context, rec JobRecord) (int64, error) {
	if err := checkJobKeys(rec); err != nil {
		return 0, err
	}
	res, err := s.db.NamedExecContext(ctx, insertJobUniqueQuery, rec)
	if err != nil {
		return 0, fmt.Errorf("failed to insert job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("job %s/%s for user %d: %w", rec.ArdoraID, rec.DataJob, rec.UserID, ErrDuplicate)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted job id: %w", err)
	}
	return id, nil
}

// UpdateJob replaces all fields of the job with rec.ID
func (s *SQLiteStore) UpdateJob(ctx context.Context, rec JobRecord) error {
	if err := checkJobKeys(rec); err != nil {
		return err
	}
	res, err := s.db.NamedExecContext(ctx, `UPDATE ardora_jobs SET
		courseid = :courseid, userid = :userid, datajob = :datajob, datajob_ts = :datajob_ts, father = :father, type = :type,
		paq_name = :paq_name, ardora_id = :ardora_id, activity = :activity, hstart = :hstart, hend = :hend,
		attemps = :attemps, points = :points, state = :state, typegrade = :typegrade
		WHERE id = :id`, rec)
	if err != nil {
		return fmt.Errorf("failed to update job %d: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %d: %w", rec.ID, ErrNotFound)
	}
	return nil
}

// DeleteJobs removes all jobs matching criteria exactly and returns how many were removed
func (s *SQLiteStore) DeleteJobs(ctx context.Context, c Criteria) (int64, error) {
	where, args, err := whereClause(c, jobCriteriaKeys)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM ardora_jobs"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// GetJob returns the first job (lowest id) matching criteria exactly, ErrNotFound on miss
func (s *SQLiteStore) GetJob(ctx context.Context, c Criteria) (JobRecord, error) {
	where, args, err := whereClause(c, jobCriteriaKeys)
	if err != nil {
		return JobRecord{}, err
	}
	var rec JobRecord
	err = s.db.GetContext(ctx, &rec, "SELECT "+jobColumns+" FROM ardora_jobs"+where+" ORDER BY id LIMIT 1", args...)
	if errors.Is(err, sql.ErrNoRows) {
		return JobRecord{}, ErrNotFound
	}
	if err != nil {
		return JobRecord{}, fmt.Errorf("failed to get job: %w", err)
	}
	return rec, nil
}

// FindJobs returns a lazy sequence of jobs matching the filter, ordered by the datajob instant then id.
// The query runs when iteration starts and rows are closed when it stops.
func (s *SQLiteStore) FindJobs(ctx context.Context, f JobFilter) iter.Seq2[JobRecord, error] {
	return func(yield func(JobRecord, error) bool) {
		conds := []string{"ardora_id = ?", "type = ?", "father = ?", "paq_name = ?"}
		args := []any{f.ArdoraID, f.Type, f.Father, f.PaqName}
		if f.UserID > 0 {
			conds = append(conds, "userid = ?")
			args = append(args, f.UserID)
		}
		if f.DoneOnly {
			conds = append(conds, "state >= ?")
			args = append(args, enums.JobStateCompleted.Index())
		}
		query := "SELECT " + jobColumns + " FROM ardora_jobs WHERE " + strings.Join(conds, " AND ") +
			" ORDER BY datajob_ts, id"

		rows, err := s.db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(JobRecord{}, fmt.Errorf("failed to query jobs: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var rec JobRecord
			if err := rows.StructScan(&rec); err != nil {
				yield(JobRecord{}, fmt.Errorf("failed to scan job row: %w", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(JobRecord{}, fmt.Errorf("error iterating rows: %w", err))
		}
	}
}

// ActivityJobs returns all jobs bound to an ardora id in a course, ordered by id
func (s *SQLiteStore) ActivityJobs(ctx context.Context, courseID int64, ardoraID string) ([]JobRecord, error) {
	jobs := []JobRecord{}
	err := s.db.SelectContext(ctx, &jobs, "SELECT "+jobColumns+
		" FROM ardora_jobs WHERE courseid = ? AND ardora_id = ? ORDER BY id", courseID, ardoraID)
	if err != nil {
		return nil, fmt.Errorf("failed to select jobs of %s: %w", ardoraID, err)
	}
	return jobs, nil
}

// JobStats aggregates jobs of an ardora id, restricted to a content type when typ is not empty.
// The latest datajob is the one of the latest instant.
func (s *SQLiteStore) JobStats(ctx context.Context, typ, ardoraID string) (JobStats, error) {
	where, whereArgs := "ardora_id = ?", []any{ardoraID}
	if typ != "" {
		where += " AND type = ?"
		whereArgs = append(whereArgs, typ)
	}
	query := `SELECT COUNT(*) AS jobs, COUNT(DISTINCT userid) AS users,
		COALESCE(SUM(CASE WHEN state >= ? THEN 1 ELSE 0 END), 0) AS completed,
		COALESCE(MAX(points), 0) AS max_points, COALESCE(AVG(points), 0) AS avg_points,
		COALESCE((SELECT datajob FROM ardora_jobs WHERE ` + where + `
			ORDER BY datajob_ts DESC, id DESC LIMIT 1), '') AS latest_datajob
		FROM ardora_jobs WHERE ` + where
	args := append([]any{enums.JobStateCompleted.Index()}, whereArgs...)
	args = append(args, whereArgs...)

	var st JobStats
	if err := s.db.GetContext(ctx, &st, query, args...); err != nil {
		return JobStats{}, fmt.Errorf("failed to aggregate jobs of %s: %w", ardoraID, err)
	}
	return st, nil
}

func checkJobKeys(rec JobRecord) error {
	switch {
	case rec.ArdoraID == "":
		return fmt.Errorf("%w: ardora_id is required", ErrInvalidRecord)
	case rec.UserID <= 0:
		return fmt.Errorf("%w: userid is required", ErrInvalidRecord)
	case rec.DataJob == "":
		return fmt.Errorf("%w: datajob is required", ErrInvalidRecord)
	}
	return nil
}
