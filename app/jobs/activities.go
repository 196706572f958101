package jobs

import (
	"context"
	"strconv"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/jmbouzan/ardora/app/events"
	"github.com/jmbouzan/ardora/app/jobs/request"
	"github.com/jmbouzan/ardora/app/store"
)

const defaultGradeMax = 100

// Warning reports a skipped item of a batch request
type Warning struct {
	Item        string `json:"item"`
	ItemID      int64  `json:"itemid"`
	WarningCode string `json:"warningcode"`
	Message     string `json:"message"`
}

// ViewResult is returned by ViewActivity
type ViewResult struct {
	Status   bool      `json:"status"`
	Warnings []Warning `json:"warnings"`
}

// AddActivity creates an activity, grading/management callers only
func (s *Service) AddActivity(ctx context.Context, caller CallerContext, req request.AddActivity) (store.Activity, error) {
	if err := s.requireGrader(caller, "add activities"); err != nil {
		return store.Activity{}, err
	}
	if err := validateRequest(req); err != nil {
		return store.Activity{}, err
	}
	a := store.Activity{
		Course: req.Course, Name: req.Name, ArdoraID: req.ArdoraID, Intro: req.Intro, IntroFormat: req.IntroFormat,
		Display: req.Display, DisplayOptions: req.DisplayOptions, FilterFiles: req.FilterFiles,
		GradeMax: req.GradeMax, Revision: 1, TimeModified: time.Now().Unix(),
	}
	if a.GradeMax == 0 {
		a.GradeMax = defaultGradeMax
	}
	id, err := s.store.InsertActivity(ctx, a)
	if err != nil {
		return store.Activity{}, storeErr("insert activity", "activity", req.ArdoraID, err)
	}
	a.ID = id
	log.Printf("[INFO] activity %d %q added to course %d, ardora:%s", id, a.Name, a.Course, a.ArdoraID)
	return a, nil
}

// UpdateActivity replaces activity settings, bumping its revision. Course and ardora id are fixed
// once created as jobs are bound to them.
func (s *Service) UpdateActivity(ctx context.Context, caller CallerContext, req request.UpdateActivity) (store.Activity, error) {
	if err := s.requireGrader(caller, "update activities"); err != nil {
		return store.Activity{}, err
	}
	if err := validateRequest(req); err != nil {
		return store.Activity{}, err
	}
	a, err := s.store.GetActivity(ctx, req.ID)
	if err != nil {
		return store.Activity{}, storeErr("get activity", "activity", strconv.FormatInt(req.ID, 10), err)
	}
	if a.Course != req.Course {
		return store.Activity{}, &ValidationError{Field: "course", Msg: "can't be changed"}
	}
	if a.ArdoraID != req.ArdoraID {
		return store.Activity{}, &ValidationError{Field: "ardora_id", Msg: "can't be changed"}
	}

	a.Name, a.Intro, a.IntroFormat = req.Name, req.Intro, req.IntroFormat
	a.Display, a.DisplayOptions, a.FilterFiles = req.Display, req.DisplayOptions, req.FilterFiles
	a.GradeMax = req.GradeMax
	if a.GradeMax == 0 {
		a.GradeMax = defaultGradeMax
	}
	a.Revision++
	a.TimeModified = time.Now().Unix()
	if err := s.store.UpdateActivity(ctx, a); err != nil {
		return store.Activity{}, storeErr("update activity", "activity", strconv.FormatInt(a.ID, 10), err)
	}
	log.Printf("[INFO] activity %d updated, revision %d", a.ID, a.Revision)
	return a, nil
}

// DeleteActivity removes an activity with all its jobs and returns the number of removed jobs
func (s *Service) DeleteActivity(ctx context.Context, caller CallerContext, id int64) (int64, error) {
	if err := s.requireGrader(caller, "delete activities"); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteActivity(ctx, id)
	if err != nil {
		return 0, storeErr("delete activity", "activity", strconv.FormatInt(id, 10), err)
	}
	log.Printf("[INFO] activity %d deleted with %d job(s) by user %d", id, n, caller.UserID)
	return n, nil
}

// Activity returns an activity by id
func (s *Service) Activity(ctx context.Context, id int64) (store.Activity, error) {
	a, err := s.store.GetActivity(ctx, id)
	if err != nil {
		return store.Activity{}, storeErr("get activity", "activity", strconv.FormatInt(id, 10), err)
	}
	return a, nil
}

// ViewActivity marks an activity as viewed by the caller and fires the instance viewed event
func (s *Service) ViewActivity(ctx context.Context, caller CallerContext, id int64) (ViewResult, error) {
	a, err := s.Activity(ctx, id)
	if err != nil {
		return ViewResult{}, err
	}
	s.fire(ctx, events.InstanceViewed(a.ID, a.Course, caller.UserID, a.ArdoraID))
	return ViewResult{Status: true, Warnings: []Warning{}}, nil
}

// CourseActivities lists activities of a course and fires the list viewed event
func (s *Service) CourseActivities(ctx context.Context, caller CallerContext, courseID int64) ([]store.Activity, error) {
	if courseID <= 0 {
		return nil, &ValidationError{Field: "course", Msg: "must be positive"}
	}
	res, err := s.store.ActivitiesByCourses(ctx, []int64{courseID})
	if err != nil {
		return nil, storeErr("list activities", "course", strconv.FormatInt(courseID, 10), err)
	}
	s.fire(ctx, events.ListViewed(courseID, caller.UserID))
	return res, nil
}

// ActivitiesByCourses returns activities of the listed courses, invalid course ids are reported as warnings
func (s *Service) ActivitiesByCourses(ctx context.Context, courseIDs []int64) ([]store.Activity, []Warning, error) {
	warnings := []Warning{}
	ids := make([]int64, 0, len(courseIDs))
	seen := map[int64]bool{}
	for _, id := range courseIDs {
		if id <= 0 {
			warnings = append(warnings, Warning{Item: "course", ItemID: id, WarningCode: "1", Message: "invalid course id"})
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	res, err := s.store.ActivitiesByCourses(ctx, ids)
	if err != nil {
		return nil, nil, storeErr("list activities", "course", "", err)
	}
	return res, warnings, nil
}
