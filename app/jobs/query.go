package jobs

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/jmbouzan/ardora/app/enums"
	"github.com/jmbouzan/ardora/app/jobs/check"
	"github.com/jmbouzan/ardora/app/jobs/request"
	"github.com/jmbouzan/ardora/app/store"
)

// Evaluation is the best completed record of one user on one activity
type Evaluation struct {
	UserID    int64          `json:"userid"`
	Activity  string         `json:"activity"`
	Type      string         `json:"type"`
	Father    string         `json:"father"`
	PaqName   string         `json:"paq_name"`
	ArdoraID  string         `json:"ardora_id"`
	DataJob   string         `json:"datajob"`
	HStart    string         `json:"hstart"`
	HEnd      string         `json:"hend"`
	State     enums.JobState `json:"state"`
	TypeGrade string         `json:"typegrade"`
	Points    float64        `json:"points"`
	Attemps   int            `json:"attemps"` // sum over all completed records of the group
	Count     int            `json:"count"`   // completed records in the group
}

// Info is the activity-level projection of jobs, not scoped to a user
type Info struct {
	Activity      *store.Activity `json:"activity,omitempty"`
	Jobs          int             `json:"jobs"`
	Users         int             `json:"users"`
	Completed     int             `json:"completed"`
	MaxPoints     float64         `json:"max_points"`
	AvgPoints     float64         `json:"avg_points"`
	LatestDataJob string          `json:"latest_datajob"`
}

// ListJobs returns jobs matching the filter ordered by datajob. Callers without grading rights
// see only their own records.
func (s *Service) ListJobs(ctx context.Context, caller CallerContext, f request.Filter) (iter.Seq2[store.JobRecord, error], error) {
	sf, err := s.scopedFilter(caller, f)
	if err != nil {
		return nil, err
	}
	return once(wrapErrors(s.store.FindJobs(ctx, sf))), nil
}

// ListEvaluations returns one summary per (userid, activity) among completed records, in order of
// the first record of each group. The best record has max points, ties go to the latest hend.
func (s *Service) ListEvaluations(ctx context.Context, caller CallerContext, f request.Filter) (iter.Seq2[Evaluation, error], error) {
	sf, err := s.scopedFilter(caller, f)
	if err != nil {
		return nil, err
	}
	sf.DoneOnly = true

	seq := func(yield func(Evaluation, error) bool) {
		type groupKey struct {
			userID   int64
			activity string
		}
		type group struct {
			best  store.JobRecord
			eval  Evaluation
			valid bool
		}
		var order []groupKey
		groups := map[groupKey]*group{}

		for rec, err := range wrapErrors(s.store.FindJobs(ctx, sf)) {
			if err != nil {
				yield(Evaluation{}, err)
				return
			}
			k := groupKey{userID: rec.UserID, activity: rec.Activity}
			g, ok := groups[k]
			if !ok {
				g = &group{}
				groups[k] = g
				order = append(order, k)
			}
			g.eval.Attemps += rec.Attemps
			g.eval.Count++
			if !g.valid || better(rec, g.best) {
				g.best, g.valid = rec, true
			}
		}

		for _, k := range order {
			g := groups[k]
			ev := g.eval
			b := g.best
			ev.UserID, ev.Activity, ev.Type, ev.Father, ev.PaqName, ev.ArdoraID = b.UserID, b.Activity, b.Type, b.Father, b.PaqName, b.ArdoraID
			ev.DataJob, ev.HStart, ev.HEnd, ev.State, ev.TypeGrade, ev.Points = b.DataJob, b.HStart, b.HEnd, b.State, b.TypeGrade, b.Points
			if !yield(ev, nil) {
				return
			}
		}
	}
	return once(seq), nil
}

// GetInfo returns a single activity projection for ardora id, restricted to one content type when set.
// Unknown activities give a zero projection.
func (s *Service) GetInfo(ctx context.Context, req request.Info) (iter.Seq2[Info, error], error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	seq := func(yield func(Info, error) bool) {
		acts, err := s.store.ActivitiesByArdoraID(ctx, req.ArdoraID)
		if err != nil {
			yield(Info{}, storeErr("find activity", "activity", req.ArdoraID, err))
			return
		}
		st, err := s.store.JobStats(ctx, req.Type, req.ArdoraID)
		if err != nil {
			yield(Info{}, storeErr("aggregate jobs", "activity", req.ArdoraID, err))
			return
		}
		info := Info{Jobs: st.Jobs, Users: st.Users, Completed: st.Completed, MaxPoints: st.MaxPoints,
			AvgPoints: st.AvgPoints, LatestDataJob: st.LatestDataJob}
		if len(acts) > 0 {
			info.Activity = &acts[0]
		}
		yield(info, nil)
	}
	return once(seq), nil
}

func (s *Service) scopedFilter(caller CallerContext, f request.Filter) (store.JobFilter, error) {
	if caller.UserID <= 0 {
		return store.JobFilter{}, &ValidationError{Field: "userid", Msg: "caller user id is required"}
	}
	if err := validateRequest(f); err != nil {
		return store.JobFilter{}, err
	}
	sf := store.JobFilter{Type: f.Type, Father: f.Father, PaqName: f.PaqName, ArdoraID: f.ArdoraID}
	if !caller.CanGrade() {
		sf.UserID = caller.UserID
	}
	return sf, nil
}

// better reports whether a beats the current best b: more points, then later hend, then later id
func better(a, b store.JobRecord) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if c := compareTimestamps(a.HEnd, b.HEnd); c != 0 {
		return c > 0
	}
	return a.ID > b.ID
}

// compareTimestamps compares parsed times, falling back to string order for unparsable values
func compareTimestamps(a, b string) int {
	ta, errA := check.Timestamp(a)
	tb, errB := check.Timestamp(b)
	if errA == nil && errB == nil {
		return ta.Compare(tb)
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// wrapErrors classifies store errors yielded by a sequence
func wrapErrors[T any](seq iter.Seq2[T, error]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v, err := range seq {
			if err != nil {
				yield(v, &StoreError{Op: "read jobs", Err: err})
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// once makes a sequence single use, iterating it again yields nothing
func once[T any](seq iter.Seq2[T, error]) iter.Seq2[T, error] {
	var used atomic.Bool
	return func(yield func(T, error) bool) {
		if used.Swap(true) {
			return
		}
		seq(yield)
	}
}
