// Package backup exports a course's activities with optional learner jobs into a portable YAML archive
// and restores such archives into another course. Scheduler runs periodic backups of every course.
package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/jmbouzan/ardora/app/enums"
	"github.com/jmbouzan/ardora/app/jobs/check"
	"github.com/jmbouzan/ardora/app/store"
)

// Store defines storage operations used for backup and restore
type Store interface {
	GetActivity(ctx context.Context, id int64) (store.Activity, error)
	ActivitiesByCourses(ctx context.Context, courseIDs []int64) ([]store.Activity, error)
	ActivityJobs(ctx context.Context, courseID int64, ardoraID string) ([]store.JobRecord, error)
	ImportActivities(ctx context.Context, courseID int64, bundles []store.ActivityBundle) ([]int64, error)
	Courses(ctx context.Context) ([]int64, error)
}

// Options selects the archive content
type Options struct {
	IncludeJobs bool
	ActivityID  int64 // single activity backup when set
}

// Service makes and restores archives
type Service struct {
	store Store
}

// New makes backup service
func New(st Store) *Service {
	return &Service{store: st}
}

// Backup makes an archive of the course, or of a single activity of it
func (s *Service) Backup(ctx context.Context, courseID int64, opts Options) (Archive, error) {
	var acts []store.Activity
	if opts.ActivityID > 0 {
		a, err := s.store.GetActivity(ctx, opts.ActivityID)
		if err != nil {
			return Archive{}, fmt.Errorf("failed to get activity %d: %w", opts.ActivityID, err)
		}
		if a.Course != courseID {
			return Archive{}, fmt.Errorf("activity %d in course %d: %w", opts.ActivityID, courseID, store.ErrNotFound)
		}
		acts = []store.Activity{a}
	} else {
		var err error
		if acts, err = s.store.ActivitiesByCourses(ctx, []int64{courseID}); err != nil {
			return Archive{}, fmt.Errorf("failed to list activities of course %d: %w", courseID, err)
		}
	}

	res := Archive{
		ID:           uuid.NewString(),
		Version:      FormatVersion,
		Created:      time.Now().UTC().Truncate(time.Second),
		SourceCourse: courseID,
		WithJobs:     opts.IncludeJobs,
		Activities:   make([]Activity, 0, len(acts)),
	}
	for _, a := range acts {
		aa := fromActivity(a)
		if opts.IncludeJobs {
			jobs, err := s.store.ActivityJobs(ctx, a.Course, a.ArdoraID)
			if err != nil {
				return Archive{}, fmt.Errorf("failed to get jobs of activity %d: %w", a.ID, err)
			}
			for _, j := range jobs {
				aa.Jobs = append(aa.Jobs, fromJob(j))
			}
		}
		res.Activities = append(res.Activities, aa)
	}
	log.Printf("[DEBUG] archive %s of course %d, %d activities, jobs:%v", res.ID, courseID, len(res.Activities), opts.IncludeJobs)
	return res, nil
}

// Restore creates archived activities with their jobs in the target course, all or nothing.
// Jobs follow the same rules as recorded ones. Returns ids of the new activities.
func (s *Service) Restore(ctx context.Context, a Archive, targetCourse int64) ([]int64, error) {
	if targetCourse <= 0 {
		return nil, fmt.Errorf("%w: invalid target course %d", ErrBadArchive, targetCourse)
	}
	if a.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadArchive, a.Version)
	}
	bundles := make([]store.ActivityBundle, 0, len(a.Activities))
	for i, aa := range a.Activities {
		if err := check.GradeMax(aa.GradeMax); err != nil {
			return nil, fmt.Errorf("%w: activity %d: %v", ErrBadArchive, i, err)
		}
		b := store.ActivityBundle{Activity: toActivity(aa, targetCourse)}
		for j, job := range aa.Jobs {
			rec, err := toJob(job, targetCourse, aa.ArdoraID)
			if err != nil {
				return nil, fmt.Errorf("%w: activity %d, job %d: %v", ErrBadArchive, i, j, err)
			}
			if err := check.Job(&rec, aa.GradeMax); err != nil {
				return nil, fmt.Errorf("%w: activity %d, job %d: %v", ErrBadArchive, i, j, err)
			}
			b.Jobs = append(b.Jobs, rec)
		}
		bundles = append(bundles, b)
	}
	ids, err := s.store.ImportActivities(ctx, targetCourse, bundles)
	if err != nil {
		if errors.Is(err, store.ErrInvalidRecord) {
			return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		return nil, fmt.Errorf("failed to restore archive %s into course %d: %w", a.ID, targetCourse, err)
	}
	log.Printf("[INFO] archive %s restored into course %d, %d activities", a.ID, targetCourse, len(ids))
	return ids, nil
}

func fromActivity(a store.Activity) Activity {
	res := Activity{
		Name: a.Name, ArdoraID: a.ArdoraID, Intro: a.Intro, IntroFormat: a.IntroFormat, ToBeMigrated: a.ToBeMigrated,
		LegacyFiles: a.LegacyFiles, Display: a.Display, DisplayOptions: a.DisplayOptions, FilterFiles: a.FilterFiles,
		Revision: a.Revision, GradeMax: a.GradeMax, TimeModified: a.TimeModified,
	}
	if a.LegacyFilesLast.Valid {
		v := a.LegacyFilesLast.Int64
		res.LegacyFilesLast = &v
	}
	return res
}

func toActivity(a Activity, courseID int64) store.Activity {
	res := store.Activity{
		Course: courseID, Name: a.Name, ArdoraID: a.ArdoraID, Intro: a.Intro, IntroFormat: a.IntroFormat,
		ToBeMigrated: a.ToBeMigrated, LegacyFiles: a.LegacyFiles, Display: a.Display, DisplayOptions: a.DisplayOptions,
		FilterFiles: a.FilterFiles, Revision: a.Revision, GradeMax: a.GradeMax, TimeModified: a.TimeModified,
	}
	if res.Revision < 1 {
		res.Revision = 1
	}
	if a.LegacyFilesLast != nil {
		res.LegacyFilesLast.Int64, res.LegacyFilesLast.Valid = *a.LegacyFilesLast, true
	}
	return res
}

func fromJob(j store.JobRecord) Job {
	return Job{
		UserID: j.UserID, DataJob: j.DataJob, Father: j.Father, Type: j.Type, PaqName: j.PaqName, Activity: j.Activity,
		HStart: j.HStart, HEnd: j.HEnd, Attemps: j.Attemps, Points: j.Points, State: j.State.Index(), TypeGrade: j.TypeGrade,
	}
}

func toJob(j Job, courseID int64, ardoraID string) (store.JobRecord, error) {
	state, err := enums.JobStateFromCode(j.State)
	if err != nil {
		return store.JobRecord{}, err
	}
	return store.JobRecord{
		CourseID: courseID, UserID: j.UserID, DataJob: j.DataJob, Father: j.Father, Type: j.Type, PaqName: j.PaqName,
		ArdoraID: ardoraID, Activity: j.Activity, HStart: j.HStart, HEnd: j.HEnd, Attemps: j.Attemps, Points: j.Points,
		State: state, TypeGrade: j.TypeGrade,
	}, nil
}
