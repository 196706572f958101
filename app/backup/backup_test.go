package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmbouzan/ardora/app/enums"
	"github.com/jmbouzan/ardora/app/store"
)

func prepStore(t *testing.T) (*store.SQLiteStore, []int64) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	var ids []int64
	for _, a := range []store.Activity{
		{Course: 10, Name: "Crossword", ArdoraID: "a1", Intro: "solve it", Revision: 3, GradeMax: 100},
		{Course: 10, Name: "Puzzle", ArdoraID: "a2", GradeMax: 10},
		{Course: 12, Name: "Other", ArdoraID: "a3", GradeMax: 10},
	} {
		id, err := st.InsertActivity(ctx, a)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for _, j := range []store.JobRecord{
		{CourseID: 10, UserID: 2, DataJob: "2024-08-15T10:00", Type: "quiz", ArdoraID: "a1", Points: 60, State: enums.JobStateCompleted},
		{CourseID: 10, UserID: 3, DataJob: "2024-08-15T11:00", Type: "quiz", ArdoraID: "a1", Points: 90, State: enums.JobStateReviewed},
		{CourseID: 10, UserID: 2, DataJob: "2024-08-15T12:00", Type: "quiz", ArdoraID: "a2", Points: 5},
	} {
		_, err := st.InsertJob(ctx, j)
		require.NoError(t, err)
	}
	return st, ids
}

func TestService_Backup(t *testing.T) {
	st, ids := prepStore(t)
	svc := New(st)
	ctx := context.Background()

	a, err := svc.Backup(ctx, 10, Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, FormatVersion, a.Version)
	assert.Equal(t, int64(10), a.SourceCourse)
	assert.False(t, a.WithJobs)
	require.Len(t, a.Activities, 2)
	assert.Equal(t, "Crossword", a.Activities[0].Name)
	assert.Equal(t, 3, a.Activities[0].Revision)
	assert.Empty(t, a.Activities[0].Jobs)

	a, err = svc.Backup(ctx, 10, Options{IncludeJobs: true})
	require.NoError(t, err)
	require.Len(t, a.Activities, 2)
	assert.Len(t, a.Activities[0].Jobs, 2)
	assert.Len(t, a.Activities[1].Jobs, 1)
	assert.Equal(t, 2, a.Activities[0].Jobs[1].State)

	a, err = svc.Backup(ctx, 10, Options{ActivityID: ids[1], IncludeJobs: true})
	require.NoError(t, err)
	require.Len(t, a.Activities, 1)
	assert.Equal(t, "a2", a.Activities[0].ArdoraID)

	_, err = svc.Backup(ctx, 10, Options{ActivityID: ids[2]})
	assert.ErrorIs(t, err, store.ErrNotFound, "activity of another course")

	a, err = svc.Backup(ctx, 99, Options{})
	require.NoError(t, err)
	assert.Empty(t, a.Activities)
}

func TestService_BackupRestore(t *testing.T) {
	st, _ := prepStore(t)
	svc := New(st)
	ctx := context.Background()

	a, err := svc.Backup(ctx, 10, Options{IncludeJobs: true})
	require.NoError(t, err)

	buf := bytes.Buffer{}
	require.NoError(t, Encode(&buf, a))
	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, a.ID, decoded.ID)

	ids, err := svc.Restore(ctx, decoded, 20)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	restored, err := st.ActivitiesByCourses(ctx, []int64{20})
	require.NoError(t, err)
	require.Len(t, restored, 2)
	for i, r := range restored {
		assert.Equal(t, a.Activities[i].Name, r.Name)
		assert.Equal(t, a.Activities[i].ArdoraID, r.ArdoraID)
		assert.Equal(t, int64(20), r.Course)
		assert.Equal(t, ids[i], r.ID)
	}
	jobs, err := st.ActivityJobs(ctx, 20, "a1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, int64(20), jobs[0].CourseID)
	assert.Equal(t, enums.JobStateReviewed, jobs[1].State)

	t.Run("clash fails whole restore", func(t *testing.T) {
		_, err := svc.Restore(ctx, decoded, 20)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		restored, err := st.ActivitiesByCourses(ctx, []int64{20})
		require.NoError(t, err)
		assert.Len(t, restored, 2)
	})

	t.Run("without jobs", func(t *testing.T) {
		a, err := svc.Backup(ctx, 10, Options{})
		require.NoError(t, err)
		_, err = svc.Restore(ctx, a, 21)
		require.NoError(t, err)
		jobs, err := st.ActivityJobs(ctx, 21, "a1")
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})

	t.Run("bad archives", func(t *testing.T) {
		_, err := svc.Restore(ctx, Archive{Version: 2}, 30)
		assert.ErrorIs(t, err, ErrBadArchive)
		_, err = svc.Restore(ctx, a, 0)
		assert.ErrorIs(t, err, ErrBadArchive)

		bad := Archive{Version: FormatVersion, Activities: []Activity{{Name: "x", ArdoraID: "z", GradeMax: 10,
			Jobs: []Job{{UserID: 2, DataJob: "2024-08-15T10:00", State: 5}}}}}
		_, err = svc.Restore(ctx, bad, 30)
		assert.ErrorIs(t, err, ErrBadArchive)

		bad = Archive{Version: FormatVersion, Activities: []Activity{{ArdoraID: "z", GradeMax: 10}}}
		_, err = svc.Restore(ctx, bad, 30)
		assert.ErrorIs(t, err, ErrBadArchive, "activity without name")
	})

	t.Run("jobs breaking grading rules", func(t *testing.T) {
		job := func() Job {
			return Job{UserID: 2, DataJob: "2024-08-15T10:00", Type: "quiz", HStart: "2024-08-15 10:00:00",
				HEnd: "2024-08-15 10:05:00", Attemps: 1, Points: 8}
		}
		tbl := []struct {
			name     string
			gradeMax float64
			mod      func(j *Job)
		}{
			{"negative attemps", 10, func(j *Job) { j.Attemps = -5 }},
			{"points above grademax", 10, func(j *Job) { j.Points = 500 }},
			{"negative points", 10, func(j *Job) { j.Points = -1 }},
			{"hend before hstart", 10, func(j *Job) { j.HEnd = "2024-08-15 09:00:00" }},
			{"datajob not a timestamp", 10, func(j *Job) { j.DataJob = "not a timestamp" }},
			{"zero grademax", 0, func(j *Job) {}},
		}
		for _, tt := range tbl {
			t.Run(tt.name, func(t *testing.T) {
				j := job()
				tt.mod(&j)
				arch := Archive{Version: FormatVersion, Activities: []Activity{
					{Name: "Quiz", ArdoraID: "q1", GradeMax: tt.gradeMax, Jobs: []Job{j}}}}
				_, err := svc.Restore(ctx, arch, 40)
				assert.ErrorIs(t, err, ErrBadArchive)
				acts, err := st.ActivitiesByCourses(ctx, []int64{40})
				require.NoError(t, err)
				assert.Empty(t, acts, "nothing restored")
			})
		}

		arch := Archive{Version: FormatVersion, Activities: []Activity{
			{Name: "Quiz", ArdoraID: "q1", GradeMax: 10, Jobs: []Job{job()}}}}
		_, err := svc.Restore(ctx, arch, 40)
		require.NoError(t, err)
		jobs, err := st.ActivityJobs(ctx, 40, "q1")
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC).Unix(), jobs[0].DataJobTS)
	})
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", "id: x\nversion: 1\nsource_course: 10\nactivities:\n  - name: a\n    ardora_id: a1\n    revision: 1\n    grademax: 10\n", false},
		{"unknown field", "id: x\nversion: 1\nfoo: bar\n", true},
		{"wrong version", "id: x\nversion: 7\n", true},
		{"not yaml", "{{{", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Decode(strings.NewReader(tt.in))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadArchive)
				return
			}
			require.NoError(t, err)
			require.Len(t, a.Activities, 1)
			assert.Equal(t, "a1", a.Activities[0].ArdoraID)
		})
	}
}

func TestSchema(t *testing.T) {
	data, err := json.Marshal(Schema())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Ardora Course Archive"`)
	assert.Contains(t, string(data), `"source_course"`)
	assert.Contains(t, string(data), `"ardora_id"`)
}

func TestScheduler(t *testing.T) {
	st, _ := prepStore(t)
	svc := New(st)

	_, err := NewScheduler(svc, SchedulerParams{Spec: "bad spec", Dir: t.TempDir()})
	require.Error(t, err)
	_, err = NewScheduler(svc, SchedulerParams{Spec: "@daily"})
	require.Error(t, err)

	dir := filepath.Join(t.TempDir(), "archives")
	sched, err := NewScheduler(svc, SchedulerParams{Spec: "@daily", Dir: dir, IncludeJobs: true, Concurrency: 2})
	require.NoError(t, err)

	files, err := sched.BackupAll(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, filepath.Base(files[0]), "course-10-")
	assert.Contains(t, filepath.Base(files[1]), "course-12-")

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()
	a, err := Decode(f)
	require.NoError(t, err)
	assert.Len(t, a.Activities, 2)
	assert.True(t, a.WithJobs)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sched.Run(ctx) // returns on ctx cancellation
}

func TestScheduler_SkipsActiveCourse(t *testing.T) {
	st, _ := prepStore(t)
	sched, err := NewScheduler(New(st), SchedulerParams{Spec: "0 3 * * *", Dir: t.TempDir()})
	require.NoError(t, err)

	require.True(t, sched.active.add(10))
	files, err := sched.BackupAll(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, filepath.Base(files[0]), "course-12-")

	sched.active.remove(10)
	files, err = sched.BackupAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
