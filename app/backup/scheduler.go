package backup

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"
	"github.com/robfig/cron/v3"
)

// SchedulerParams configures periodic backups
type SchedulerParams struct {
	Spec        string // standard 5-field cron spec or descriptor like @daily
	Dir         string // location of archive files
	IncludeJobs bool
	Concurrency int // courses archived in parallel, 1 if not set
}

// Scheduler writes archives of every course on a cron schedule
type Scheduler struct {
	SchedulerParams
	svc    *Service
	sched  cron.Schedule
	active *deDup
}

// NewScheduler makes a scheduler, spec is validated here
func NewScheduler(svc *Service, p SchedulerParams) (*Scheduler, error) {
	sched, err := cron.ParseStandard(p.Spec)
	if err != nil {
		return nil, fmt.Errorf("can't parse backup schedule %q: %w", p.Spec, err)
	}
	if p.Dir == "" {
		return nil, fmt.Errorf("backup location is required")
	}
	if p.Concurrency < 1 {
		p.Concurrency = 1
	}
	return &Scheduler{SchedulerParams: p, svc: svc, sched: sched, active: newDeDup()}, nil
}

// Run schedules backups and blocks until ctx is canceled
func (s *Scheduler) Run(ctx context.Context) {
	c := cron.New()
	c.Schedule(s.sched, cron.FuncJob(func() {
		if _, err := s.BackupAll(ctx); err != nil {
			log.Printf("[WARN] scheduled backup failed, %v", err)
		}
	}))
	log.Printf("[INFO] backup scheduled %q to %s, next at %s", s.Spec, s.Dir,
		s.sched.Next(time.Now()).Format(time.RFC3339))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Printf("[DEBUG] backup scheduler stopped")
}

// BackupAll writes an archive file per course and returns the written file names. Courses still
// archived by a previous run are skipped.
func (s *Scheduler) BackupAll(ctx context.Context) ([]string, error) {
	courses, err := s.svc.store.Courses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	if err = os.MkdirAll(s.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to make backup location %s: %w", s.Dir, err)
	}

	files := make([]string, len(courses))
	gr := syncs.NewErrSizedGroup(s.Concurrency)
	for i, courseID := range courses {
		gr.Go(func() error {
			if !s.active.add(courseID) {
				log.Printf("[WARN] course %d is archived since %s, skipped", courseID,
					s.active.since(courseID).Format(time.RFC3339))
				return nil
			}
			defer s.active.remove(courseID)
			fname, err := s.backupCourse(ctx, courseID)
			if err != nil {
				return fmt.Errorf("course %d: %w", courseID, err)
			}
			files[i] = fname
			return nil
		})
	}
	if err := gr.Wait(); err != nil {
		return nil, err
	}
	files = slices.DeleteFunc(files, func(f string) bool { return f == "" })
	log.Printf("[INFO] %d course archive(s) written to %s", len(files), s.Dir)
	return files, nil
}

// backupCourse writes the course archive to a temp file renamed on success
func (s *Scheduler) backupCourse(ctx context.Context, courseID int64) (string, error) {
	a, err := s.svc.Backup(ctx, courseID, Options{IncludeJobs: s.IncludeJobs})
	if err != nil {
		return "", err
	}
	buf := bytes.Buffer{}
	if err = Encode(&buf, a); err != nil {
		return "", err
	}
	fname := filepath.Join(s.Dir, fmt.Sprintf("course-%d-%s.yaml", courseID, a.Created.Format("20060102-150405")))
	tmp := fname + ".tmp"
	if err = os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, fname); err != nil {
		return "", fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return fname, nil
}
