package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Activity is one ardora activity instance bound to a course, row of ardora
type Activity struct {
	ID              int64         `db:"id" json:"id"`
	Course          int64         `db:"course" json:"course"`
	Name            string        `db:"name" json:"name"`
	ArdoraID        string        `db:"ardora_id" json:"ardora_id"`
	Intro           string        `db:"intro" json:"intro"`
	IntroFormat     int           `db:"introformat" json:"introformat"`
	ToBeMigrated    int           `db:"tobemigrated" json:"tobemigrated"`
	LegacyFiles     int           `db:"legacyfiles" json:"legacyfiles"`
	LegacyFilesLast sql.NullInt64 `db:"legacyfileslast" json:"-"`
	Display         int           `db:"display" json:"display"`
	DisplayOptions  string        `db:"displayoptions" json:"displayoptions"`
	FilterFiles     int           `db:"filterfiles" json:"filterfiles"`
	Revision        int           `db:"revision" json:"revision"`
	GradeMax        float64       `db:"grademax" json:"grademax"`
	TimeModified    int64         `db:"timemodified" json:"timemodified"`
}

// ActivityBundle is an activity with its jobs, unit of import
type ActivityBundle struct {
	Activity Activity
	Jobs     []JobRecord
}

const activityColumns = "id, course, name, ardora_id, intro, introformat, tobemigrated, legacyfiles, " +
	"legacyfileslast, display, displayoptions, filterfiles, revision, grademax, timemodified"

const insertActivityQuery = `INSERT INTO ardora
	(course, name, ardora_id, intro, introformat, tobemigrated, legacyfiles, legacyfileslast, display,
	displayoptions, filterfiles, revision, grademax, timemodified)
	VALUES (:course, :name, :ardora_id, :intro, :introformat, :tobemigrated, :legacyfiles, :legacyfileslast,
	:display, :displayoptions, :filterfiles, :revision, :grademax, :timemodified)`

// InsertActivity adds an activity and returns its id. TimeModified is set to now when zero.
func (s *SQLiteStore) InsertActivity(ctx context.Context, a Activity) (int64, error) {
	if err := checkActivity(a); err != nil {
		return 0, err
	}
	if a.TimeModified == 0 {
		a.TimeModified = nowUnix()
	}
	res, err := s.db.NamedExecContext(ctx, insertActivityQuery, a)
	if err != nil {
		return 0, fmt.Errorf("failed to insert activity %q: %w", a.ArdoraID, uniqueErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted activity id: %w", err)
	}
	return id, nil
}

// UpdateActivity replaces all fields of the activity with a.ID
func (s *SQLiteStore) UpdateActivity(ctx context.Context, a Activity) error {
	if err := checkActivity(a); err != nil {
		return err
	}
	res, err := s.db.NamedExecContext(ctx, `UPDATE ardora SET
		course = :course, name = :name, ardora_id = :ardora_id, intro = :intro, introformat = :introformat,
		tobemigrated = :tobemigrated, legacyfiles = :legacyfiles, legacyfileslast = :legacyfileslast,
		display = :display, displayoptions = :displayoptions, filterfiles = :filterfiles, revision = :revision,
		grademax = :grademax, timemodified = :timemodified
		WHERE id = :id`, a)
	if err != nil {
		return fmt.Errorf("failed to update activity %d: %w", a.ID, uniqueErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("activity %d: %w", a.ID, ErrNotFound)
	}
	return nil
}

// DeleteActivity removes the activity and all its jobs in one transaction
func (s *SQLiteStore) DeleteActivity(ctx context.Context, id int64) (jobs int64, err error) {
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		var a Activity
		if err := tx.GetContext(ctx, &a, "SELECT "+activityColumns+" FROM ardora WHERE id = ?", id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("activity %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get activity %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM ardora_jobs WHERE courseid = ? AND ardora_id = ?", a.Course, a.ArdoraID)
		if err != nil {
			return fmt.Errorf("failed to delete jobs of activity %d: %w", id, err)
		}
		if jobs, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM ardora WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete activity %d: %w", id, err)
		}
		return nil
	})
	return jobs, err
}

// GetActivity returns the activity by id
func (s *SQLiteStore) GetActivity(ctx context.Context, id int64) (Activity, error) {
	var a Activity
	err := s.db.GetContext(ctx, &a, "SELECT "+activityColumns+" FROM ardora WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Activity{}, fmt.Errorf("activity %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Activity{}, fmt.Errorf("failed to get activity %d: %w", id, err)
	}
	return a, nil
}

// ActivitiesByArdoraID returns activities bound to the package id across courses, ordered by id
func (s *SQLiteStore) ActivitiesByArdoraID(ctx context.Context, ardoraID string) ([]Activity, error) {
	res := []Activity{}
	err := s.db.SelectContext(ctx, &res, "SELECT "+activityColumns+" FROM ardora WHERE ardora_id = ? ORDER BY id", ardoraID)
	if err != nil {
		return nil, fmt.Errorf("failed to select activities for %q: %w", ardoraID, err)
	}
	return res, nil
}

// ActivitiesByCourses returns activities of the given courses ordered by course and id
func (s *SQLiteStore) ActivitiesByCourses(ctx context.Context, courseIDs []int64) ([]Activity, error) {
	res := []Activity{}
	if len(courseIDs) == 0 {
		return res, nil
	}
	query, args, err := sqlx.In("SELECT "+activityColumns+" FROM ardora WHERE course IN (?) ORDER BY course, id", courseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	if err := s.db.SelectContext(ctx, &res, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to select activities: %w", err)
	}
	return res, nil
}

// Courses returns ids of all courses having at least one activity
func (s *SQLiteStore) Courses(ctx context.Context) ([]int64, error) {
	res := []int64{}
	if err := s.db.SelectContext(ctx, &res, "SELECT DISTINCT course FROM ardora ORDER BY course"); err != nil {
		return nil, fmt.Errorf("failed to select courses: %w", err)
	}
	return res, nil
}

// ImportActivities inserts activities with their jobs into a course in one transaction.
// Activity and job ids are reassigned, course ids are replaced with courseID.
func (s *SQLiteStore) ImportActivities(ctx context.Context, courseID int64, bundles []ActivityBundle) ([]int64, error) {
	ids := make([]int64, 0, len(bundles))
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, b := range bundles {
			a := b.Activity
			a.ID, a.Course = 0, courseID
			if a.TimeModified == 0 {
				a.TimeModified = nowUnix()
			}
			if err := checkActivity(a); err != nil {
				return err
			}
			res, err := tx.NamedExecContext(ctx, insertActivityQuery, a)
			if err != nil {
				return fmt.Errorf("failed to import activity %q: %w", a.ArdoraID, uniqueErr(err))
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get imported activity id: %w", err)
			}
			ids = append(ids, id)

			for _, j := range b.Jobs {
				j.ID, j.CourseID, j.ArdoraID = 0, courseID, a.ArdoraID
				if err := checkJobKeys(j); err != nil {
					return err
				}
				if _, err := tx.NamedExecContext(ctx, insertJobQuery, j); err != nil {
					return fmt.Errorf("failed to import job %s of %q: %w", j.DataJob, a.ArdoraID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func checkActivity(a Activity) error {
	switch {
	case a.Course <= 0:
		return fmt.Errorf("%w: course is required", ErrInvalidRecord)
	case a.ArdoraID == "":
		return fmt.Errorf("%w: ardora_id is required", ErrInvalidRecord)
	case strings.TrimSpace(a.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	return nil
}

// uniqueErr maps sqlite unique constraint failures to ErrDuplicate
func uniqueErr(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
