package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/jmbouzan/ardora/app/enums"
	"github.com/jmbouzan/ardora/app/jobs/check"
	"github.com/jmbouzan/ardora/app/jobs/request"
	"github.com/jmbouzan/ardora/app/store"
)

// AddJob records a new job of the caller. The owning activity is resolved by ardora id and stamps
// the course id, the user id always comes from the caller.
func (s *Service) AddJob(ctx context.Context, caller CallerContext, req request.AddJob) (store.JobRecord, error) {
	if caller.UserID <= 0 {
		return store.JobRecord{}, &ValidationError{Field: "userid", Msg: "caller user id is required"}
	}
	req.DataJob = strings.TrimSpace(req.DataJob)
	if err := validateRequest(req); err != nil {
		return store.JobRecord{}, err
	}
	act, err := s.resolveActivity(ctx, req.CourseID, req.ArdoraID)
	if err != nil {
		return store.JobRecord{}, err
	}
	rec, err := makeRecord(act, caller.UserID, req)
	if err != nil {
		return store.JobRecord{}, err
	}

	insert := s.store.InsertJob
	if s.strict {
		insert = s.store.InsertJobUnique
	}
	id, err := insert(ctx, rec)
	if err != nil {
		return store.JobRecord{}, storeErr("insert job", "job", rec.DataJob, err)
	}
	rec.ID = id
	log.Printf("[DEBUG] job %d added, user:%d, ardora:%s, datajob:%s", id, rec.UserID, rec.ArdoraID, rec.DataJob)
	return rec, nil
}

// SaveJob records a job of the caller against an activity instance id
func (s *Service) SaveJob(ctx context.Context, caller CallerContext, req request.SaveJob) (store.JobRecord, error) {
	if err := validateRequest(req); err != nil {
		return store.JobRecord{}, err
	}
	act, err := s.store.GetActivity(ctx, req.ActivityID)
	if err != nil {
		return store.JobRecord{}, storeErr("get activity", "activity", strconv.FormatInt(req.ActivityID, 10), err)
	}
	return s.AddJob(ctx, caller, request.AddJob{
		CourseID: act.Course, ArdoraID: act.ArdoraID, DataJob: req.DataJob, Father: req.Father, Type: req.Type,
		PaqName: req.PaqName, Activity: req.Activity, HStart: req.HStart, HEnd: req.HEnd, Attemps: req.Attemps,
		Points: req.Points, State: req.State, TypeGrade: req.TypeGrade,
	})
}

// UpdateJob replaces all fields of an existing job, grading/management callers only
func (s *Service) UpdateJob(ctx context.Context, caller CallerContext, req request.UpdateJob) (store.JobRecord, error) {
	if err := s.requireGrader(caller, "update jobs"); err != nil {
		return store.JobRecord{}, err
	}
	req.DataJob = strings.TrimSpace(req.DataJob)
	if err := validateRequest(req); err != nil {
		return store.JobRecord{}, err
	}
	act, err := s.resolveActivity(ctx, req.CourseID, req.ArdoraID)
	if err != nil {
		return store.JobRecord{}, err
	}
	rec, err := makeRecord(act, req.UserID, req.AddJob)
	if err != nil {
		return store.JobRecord{}, err
	}
	rec.ID = req.ID
	if err := s.store.UpdateJob(ctx, rec); err != nil {
		return store.JobRecord{}, storeErr("update job", "job", strconv.FormatInt(req.ID, 10), err)
	}
	log.Printf("[DEBUG] job %d updated by user %d", rec.ID, caller.UserID)
	return rec, nil
}

// DeleteJob removes jobs of one user, one datajob and one ardora id. Returns removed count, 0 on miss.
func (s *Service) DeleteJob(ctx context.Context, caller CallerContext, req request.DeleteJob) (int64, error) {
	if err := s.requireGrader(caller, "delete jobs"); err != nil {
		return 0, err
	}
	req.DataJob = strings.TrimSpace(req.DataJob)
	if err := validateRequest(req); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteJobs(ctx, store.Criteria{"userid": req.UserID, "datajob": req.DataJob, "ardora_id": req.ArdoraID})
	if err != nil {
		return 0, storeErr("delete jobs", "job", req.DataJob, err)
	}
	log.Printf("[DEBUG] %d job(s) deleted, user:%d, ardora:%s, datajob:%s, by %d",
		n, req.UserID, req.ArdoraID, req.DataJob, caller.UserID)
	return n, nil
}

// resolveActivity finds the activity owning ardoraID, courseID narrows it when the id is bound in several courses
func (s *Service) resolveActivity(ctx context.Context, courseID int64, ardoraID string) (store.Activity, error) {
	acts, err := s.store.ActivitiesByArdoraID(ctx, ardoraID)
	if err != nil {
		return store.Activity{}, storeErr("find activity", "activity", ardoraID, err)
	}
	if courseID > 0 {
		res := acts[:0:0]
		for _, a := range acts {
			if a.Course == courseID {
				res = append(res, a)
			}
		}
		acts = res
	}
	switch len(acts) {
	case 0:
		return store.Activity{}, &NotFoundError{Kind: "activity", Key: ardoraID}
	case 1:
		return acts[0], nil
	}
	return store.Activity{}, &ValidationError{Field: "courseid", Msg: fmt.Sprintf("ardora id %s is bound in %d courses", ardoraID, len(acts))}
}

// makeRecord builds the record and validates it against the grading range of the activity
func makeRecord(act store.Activity, userID int64, req request.AddJob) (store.JobRecord, error) {
	state, err := enums.JobStateFromCode(req.State)
	if err != nil {
		return store.JobRecord{}, &ValidationError{Field: "state", Msg: err.Error()}
	}
	rec := store.JobRecord{
		CourseID: act.Course, UserID: userID, DataJob: req.DataJob, Father: req.Father,
		Type: req.Type, PaqName: req.PaqName, ArdoraID: act.ArdoraID, Activity: req.Activity,
		HStart: req.HStart, HEnd: req.HEnd, Attemps: req.Attemps, Points: req.Points, State: state,
		TypeGrade: req.TypeGrade,
	}
	if err := check.Job(&rec, act.GradeMax); err != nil {
		var fe *check.FieldError
		if errors.As(err, &fe) {
			return store.JobRecord{}, &ValidationError{Field: fe.Field, Msg: fe.Msg}
		}
		return store.JobRecord{}, err
	}
	return rec, nil
}
