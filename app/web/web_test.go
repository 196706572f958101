package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmbouzan/ardora/app/backup"
	"github.com/jmbouzan/ardora/app/enums"
	"github.com/jmbouzan/ardora/app/events"
	"github.com/jmbouzan/ardora/app/jobs"
	"github.com/jmbouzan/ardora/app/jobs/mocks"
	"github.com/jmbouzan/ardora/app/store"
)

const (
	student = "student"
	teacher = "editingteacher"
)

type testEnv struct {
	srv      *Server
	handler  http.Handler
	store    *store.SQLiteStore
	observer *mocks.ObserverMock
	actID    int64 // activity "Crossword", course 10, ardora id 123456
}

func prepServer(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	actID, err := st.InsertActivity(context.Background(), store.Activity{Course: 10, Name: "Crossword", ArdoraID: "123456", GradeMax: 100})
	require.NoError(t, err)

	obs := &mocks.ObserverMock{NotifyFunc: func(context.Context, events.Event) {}}
	cfg.Tracker = jobs.New(st, jobs.Config{Observer: obs})
	if cfg.Archiver == nil {
		cfg.Archiver = backup.New(st)
	}
	cfg.Version = "test"
	srv, err := New(cfg)
	require.NoError(t, err)
	return &testEnv{srv: srv, handler: srv.routes(), store: st, observer: obs, actID: actID}
}

func (e *testEnv) ajax(t *testing.T, user int64, roles string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ajax", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	setCaller(req, user, roles)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) call(t *testing.T, method, path string, user int64, roles string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	setCaller(req, user, roles)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func setCaller(req *http.Request, user int64, roles string) {
	if user != 0 {
		req.Header.Set(headerUser, fmt.Sprintf("%d", user))
	}
	if roles != "" {
		req.Header.Set(headerRoles, roles)
	}
}

func jobForm(datajob string, points string) url.Values {
	return url.Values{"action": {"add_job"}, "datajob": {datajob}, "type": {"quiz"}, "father": {"f1"},
		"paq_name": {"pkg"}, "ardora_id": {"123456"}, "activity": {"act1"}, "hstart": {"2024-08-15T12:00"},
		"hend": {"2024-08-15T12:05"}, "attemps": {"3"}, "points": {points}, "state": {"1"}}
}

var filterForm = url.Values{"type": {"quiz"}, "father": {"f1"}, "paq_name": {"pkg"}, "ardora_id": {"123456"}}

func withAction(action string, v url.Values) url.Values {
	res := url.Values{"action": {action}}
	for k, vv := range v {
		res[k] = vv
	}
	return res
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var res T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res), rec.Body.String())
	return res
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()
	_, err = New(Config{Tracker: jobs.New(st, jobs.Config{}), RateLimit: -1})
	require.Error(t, err)

	srv, err := New(Config{Tracker: jobs.New(st, jobs.Config{})})
	require.NoError(t, err)
	assert.Equal(t, int64(1024*1024), srv.maxRequestSize)
	assert.Nil(t, srv.limiter)
}

func TestServer_AjaxEndToEnd(t *testing.T) {
	env := prepServer(t, Config{})

	rec := env.ajax(t, 2, student, jobForm("2024-08-15T12:00", "80"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	added := decodeBody[StatusResponse](t, rec)
	assert.True(t, added.Status)
	assert.Positive(t, added.ID)

	rec = env.ajax(t, 2, student, withAction("get_job", filterForm))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]store.JobRecord](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].UserID)
	assert.Equal(t, int64(10), list[0].CourseID)
	assert.Equal(t, 3, list[0].Attemps)
	assert.InDelta(t, 80, list[0].Points, 0.001)
	assert.Equal(t, enums.JobStateCompleted, list[0].State)

	rec = env.ajax(t, 3, student, withAction("get_job", filterForm))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]store.JobRecord](t, rec), "other student sees nothing")

	rec = env.ajax(t, 5, teacher, withAction("get_job", filterForm))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]store.JobRecord](t, rec), 1, "teacher sees all")

	del := url.Values{"action": {"del_job"}, "user_id": {"2"}, "datajob": {"2024-08-15T12:00"}, "ardora_id": {"123456"}}
	rec = env.ajax(t, 2, student, del)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, decodeBody[DeleteResponse](t, rec).Status)

	rec = env.ajax(t, 5, teacher, del)
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decodeBody[DeleteResponse](t, rec)
	assert.True(t, deleted.Status)
	assert.Equal(t, int64(1), deleted.Deleted)

	rec = env.ajax(t, 5, teacher, del)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decodeBody[DeleteResponse](t, rec).Deleted, "second delete is a no-op")

	rec = env.ajax(t, 2, student, withAction("get_job", filterForm))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]store.JobRecord](t, rec))
}

func TestServer_AjaxEvaluationsAndInfo(t *testing.T) {
	env := prepServer(t, Config{})

	first := jobForm("2024-08-14T11:00", "60")
	second := jobForm("2024-08-14T12:00", "90")
	second.Set("hstart", "2024-08-15T13:00")
	second.Set("hend", "2024-08-15T13:05")
	for _, f := range []url.Values{first, second} {
		rec := env.ajax(t, 2, student, f)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := env.ajax(t, 2, student, withAction("get_eval", filterForm))
	require.Equal(t, http.StatusOK, rec.Code)
	evals := decodeBody[[]jobs.Evaluation](t, rec)
	require.Len(t, evals, 1)
	assert.InDelta(t, 90, evals[0].Points, 0.001)
	assert.Equal(t, "2024-08-14T12:00", evals[0].DataJob)
	assert.Equal(t, 6, evals[0].Attemps)
	assert.Equal(t, 2, evals[0].Count)

	rec = env.ajax(t, 2, student, url.Values{"action": {"get_info"}, "type": {"quiz"}, "ardora_id": {"123456"}})
	require.Equal(t, http.StatusOK, rec.Code)
	info := decodeBody[jobs.Info](t, rec)
	require.NotNil(t, info.Activity)
	assert.Equal(t, "Crossword", info.Activity.Name)
	assert.Equal(t, 2, info.Jobs)
	assert.Equal(t, 1, info.Users)

	rec = env.ajax(t, 2, student, url.Values{"action": {"get_info"}, "type": {"quiz"}, "ardora_id": {"unknown"}})
	require.Equal(t, http.StatusOK, rec.Code)
	info = decodeBody[jobs.Info](t, rec)
	assert.Nil(t, info.Activity)
	assert.Zero(t, info.Jobs)
}

func TestServer_AjaxErrors(t *testing.T) {
	env := prepServer(t, Config{})

	tests := []struct {
		name     string
		user     int64
		form     url.Values
		wantCode int
		wantErr  string
	}{
		{name: "unknown action", user: 2, form: url.Values{"action": {"nope"}}, wantCode: http.StatusBadRequest,
			wantErr: "unknown action"},
		{name: "no action", user: 2, form: url.Values{}, wantCode: http.StatusBadRequest, wantErr: "unknown action"},
		{name: "no caller", user: 0, form: jobForm("2024-08-14T11:00", "10"), wantCode: http.StatusUnauthorized,
			wantErr: "caller user id is required"},
		{name: "bad number", user: 2, form: jobForm("2024-08-14T11:00", "lots"), wantCode: http.StatusBadRequest,
			wantErr: "points"},
		{name: "missing datajob", user: 2, form: jobForm("", "10"), wantCode: http.StatusBadRequest, wantErr: "datajob"},
		{name: "blank datajob", user: 2, form: jobForm("  ", "10"), wantCode: http.StatusBadRequest, wantErr: "datajob"},
		{name: "datajob not a timestamp", user: 2, form: jobForm("not a timestamp", "10"), wantCode: http.StatusBadRequest,
			wantErr: "datajob"},
		{name: "bad state", user: 2,
			form:     func() url.Values { f := jobForm("2024-08-14T11:00", "10"); f.Set("state", "7"); return f }(),
			wantCode: http.StatusBadRequest, wantErr: "state"},
		{name: "unknown ardora id", user: 2,
			form:     func() url.Values { f := jobForm("2024-08-14T11:00", "10"); f.Set("ardora_id", "x"); return f }(),
			wantCode: http.StatusNotFound, wantErr: "not found"},
		{name: "filter without type", user: 2, form: url.Values{"action": {"get_job"}, "ardora_id": {"123456"}},
			wantCode: http.StatusBadRequest, wantErr: "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.ajax(t, tt.user, student, tt.form)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantErr)
		})
	}

	t.Run("invalid user header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/ajax", strings.NewReader("action=get_job"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set(headerUser, "abc")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestServer_RPCActivities(t *testing.T) {
	env := prepServer(t, Config{})

	rec := env.call(t, http.MethodPost, "/api/v1/add_ardora", 2, student, `{"course":10,"name":"Puzzle","ardora_id":"a2"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, decodeBody[StatusResponse](t, rec).Status)

	rec = env.call(t, http.MethodPost, "/api/v1/add_ardora", 5, teacher, `{"course":10,"name":"Puzzle","ardora_id":"a2","grademax":20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	added := decodeBody[StatusResponse](t, rec)
	assert.True(t, added.Status)
	assert.Positive(t, added.ID)

	rec = env.call(t, http.MethodPost, "/api/v1/add_ardora", 5, teacher, `{"course":10,"name":"Again","ardora_id":"a2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "same ardora id in the course")

	body := fmt.Sprintf(`{"id":%d,"course":10,"name":"Puzzle 2","ardora_id":"a2","grademax":20}`, added.ID)
	rec = env.call(t, http.MethodPost, "/api/v1/update_ardora", 5, "manager", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a, err := env.store.GetActivity(context.Background(), added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Puzzle 2", a.Name)
	assert.Equal(t, 2, a.Revision)

	rec = env.call(t, http.MethodGet, "/api/v1/courses/10/ardoras", 2, student, "")
	require.Equal(t, http.StatusOK, rec.Code)
	acts := decodeBody[[]store.Activity](t, rec)
	require.Len(t, acts, 2)
	assert.Equal(t, "Crossword", acts[0].Name)

	rec = env.call(t, http.MethodGet, "/api/v1/courses/abc/ardoras", 2, student, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.call(t, http.MethodPost, "/api/v1/get_ardoras_by_courses", 2, student, `{"courseids":[10,-1,99]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	byCourses := decodeBody[ActivitiesResponse](t, rec)
	assert.Len(t, byCourses.Activities, 2)
	require.Len(t, byCourses.Warnings, 1)
	assert.Equal(t, int64(-1), byCourses.Warnings[0].ItemID)

	rec = env.call(t, http.MethodPost, "/api/v1/view_ardora", 2, student, fmt.Sprintf(`{"ardoraid":%d}`, env.actID))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[jobs.ViewResult](t, rec)
	assert.True(t, view.Status)
	assert.Empty(t, view.Warnings)

	rec = env.call(t, http.MethodPost, "/api/v1/view_ardora", 2, student, `{"ardoraid":9999}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.call(t, http.MethodPost, "/api/v1/view_ardora", 2, student, `{"ardoraid":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.call(t, http.MethodPost, "/api/v1/view_ardora", 2, student, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	calls := env.observer.NotifyCalls()
	require.Len(t, calls, 2, "one list view and one instance view")
	assert.Equal(t, enums.EventTypeListed, calls[0].Ev.Type)
	assert.Equal(t, enums.EventTypeViewed, calls[1].Ev.Type)
	assert.Equal(t, env.actID, calls[1].Ev.ObjectID)

	rec = env.call(t, http.MethodPost, "/api/v1/delete_ardora", 5, teacher, fmt.Sprintf(`{"id":%d}`, added.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[DeleteResponse](t, rec).Status)
	rec = env.call(t, http.MethodPost, "/api/v1/delete_ardora", 5, teacher, fmt.Sprintf(`{"id":%d}`, added.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RPCJobs(t *testing.T) {
	env := prepServer(t, Config{})

	body := fmt.Sprintf(`{"params":{"ardoraid":%d,"datajob":"2024-08-14T11:00","type":"quiz","father":"f1",`+
		`"paq_name":"pkg","activity":"act1","hstart":"2024-08-15T12:00","hend":"2024-08-15T12:05","state":1,"attemps":1,"points":50}}`, env.actID)
	rec := env.call(t, http.MethodPost, "/api/v1/save_job", 2, student, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decodeBody[StatusResponse](t, rec)
	assert.True(t, saved.Status)

	rec = env.call(t, http.MethodPost, "/api/v1/save_job", 2, student,
		`{"params":{"ardoraid":9999,"datajob":"2024-08-14T11:00","type":"quiz"}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decodeBody[StatusResponse](t, rec).Status)

	upd := fmt.Sprintf(`{"id":%d,"userid":2,"courseid":10,"datajob":"2024-08-14T11:00","type":"quiz","father":"f1",`+
		`"paq_name":"pkg","ardora_id":"123456","activity":"act1","state":2,"attemps":1,"points":70}`, saved.ID)
	rec = env.call(t, http.MethodPost, "/api/v1/update_job", 2, student, upd)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(t, http.MethodPost, "/api/v1/update_job", 5, teacher, upd)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.ajax(t, 2, student, withAction("get_job", filterForm))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]store.JobRecord](t, rec)
	require.Len(t, list, 1)
	assert.InDelta(t, 70, list[0].Points, 0.001)
	assert.Equal(t, enums.JobStateReviewed, list[0].State)
}

func TestServer_BackupRestore(t *testing.T) {
	env := prepServer(t, Config{})
	rec := env.ajax(t, 2, student, jobForm("2024-08-14T11:00", "80"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.call(t, http.MethodGet, "/api/v1/courses/10/backup?jobs=true", 2, student, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.call(t, http.MethodGet, "/api/v1/courses/10/backup?jobs=maybe", 5, teacher, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.call(t, http.MethodGet, "/api/v1/courses/10/backup?activity=9999", 5, teacher, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.call(t, http.MethodGet, "/api/v1/courses/10/backup?jobs=true", 5, teacher, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "course-10.yaml")
	archive := rec.Body.String()
	a, err := backup.Decode(strings.NewReader(archive))
	require.NoError(t, err)
	require.Len(t, a.Activities, 1)
	assert.Len(t, a.Activities[0].Jobs, 1)

	rec = env.call(t, http.MethodPost, "/api/v1/courses/20/restore", 2, student, archive)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.call(t, http.MethodPost, "/api/v1/courses/20/restore", 5, teacher, archive)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	restored := decodeBody[RestoreResponse](t, rec)
	assert.True(t, restored.Status)
	require.Len(t, restored.Activities, 1)
	act, err := env.store.GetActivity(context.Background(), restored.Activities[0])
	require.NoError(t, err)
	assert.Equal(t, "Crossword", act.Name)
	assert.Equal(t, "123456", act.ArdoraID)
	assert.Equal(t, int64(20), act.Course)

	rec = env.call(t, http.MethodPost, "/api/v1/courses/20/restore", 5, teacher, archive)
	assert.Equal(t, http.StatusConflict, rec.Code, "activities already restored")

	rec = env.call(t, http.MethodPost, "/api/v1/courses/21/restore", 5, teacher, "version: 9\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad archive")

	rec = env.call(t, http.MethodGet, "/api/v1/schema/archive", 0, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ardora Course Archive")
}

func TestServer_HostAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	env := prepServer(t, Config{SecretHash: string(hash)})

	tests := []struct {
		name     string
		user     string
		pass     string
		useAuth  bool
		wantCode int
	}{
		{name: "no auth", wantCode: http.StatusUnauthorized},
		{name: "wrong password", user: "ardora", pass: "bad", useAuth: true, wantCode: http.StatusUnauthorized},
		{name: "wrong user", user: "admin", pass: "secret", useAuth: true, wantCode: http.StatusUnauthorized},
		{name: "valid", user: "ardora", pass: "secret", useAuth: true, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/10/ardoras", http.NoBody)
			setCaller(req, 2, student)
			if tt.useAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
			}
		})
	}
}

func TestServer_RateLimit(t *testing.T) {
	env := prepServer(t, Config{RateLimit: 1})

	rec := env.ajax(t, 2, student, jobForm("2024-08-14T11:00", "10"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.ajax(t, 2, student, jobForm("2024-08-14T12:00", "10"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// read routes are not limited
	for range 3 {
		rec = env.call(t, http.MethodGet, "/api/v1/courses/10/ardoras", 2, student, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestParseCaller(t *testing.T) {
	tests := []struct {
		name      string
		user      string
		roles     string
		wantErr   bool
		wantRoles []enums.Role
		canGrade  bool
	}{
		{name: "student", user: "2", roles: "student", wantRoles: []enums.Role{enums.RoleStudent}},
		{name: "teacher alias", user: "2", roles: "Student, editingteacher", canGrade: true,
			wantRoles: []enums.Role{enums.RoleStudent, enums.RoleTeacher}},
		{name: "unknown role skipped", user: "7", roles: "guest,manager", canGrade: true, wantRoles: []enums.Role{enums.RoleManager}},
		{name: "no roles", user: "7"},
		{name: "missing user", wantErr: true},
		{name: "zero user", user: "0", wantErr: true},
		{name: "not a number", user: "x1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(headerUser, tt.user)
			req.Header.Set(headerRoles, tt.roles)
			c, err := parseCaller(req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoles, c.Roles)
			assert.Equal(t, tt.canGrade, c.CanGrade())
		})
	}
}

func TestServer_Run(t *testing.T) {
	env := prepServer(t, Config{})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.Run(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && string(body) == "pong"
	}, time.Second*2, 20*time.Millisecond)

	resp, err := http.Get("http://" + addr + "/api/v1/schema/archive")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "ardora", resp.Header.Get("App-Name"))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
