package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"

	log "github.com/go-pkgz/lgr"

	"github.com/jmbouzan/ardora/app/backup"
	"github.com/jmbouzan/ardora/app/jobs"
	"github.com/jmbouzan/ardora/app/jobs/request"
	"github.com/jmbouzan/ardora/app/store"
)

// StatusResponse is returned by mutating actions
type StatusResponse struct {
	Status bool   `json:"status"`
	ID     int64  `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// DeleteResponse is returned by delete actions
type DeleteResponse struct {
	Status  bool   `json:"status"`
	Deleted int64  `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// ActivitiesResponse is returned by get_ardoras_by_courses
type ActivitiesResponse struct {
	Activities []store.Activity `json:"ardoras"`
	Warnings   []jobs.Warning   `json:"warnings"`
}

// RestoreResponse is returned by the restore route
type RestoreResponse struct {
	Status     bool    `json:"status"`
	Activities []int64 `json:"activities"`
}

type viewRequest struct {
	ActivityID int64 `json:"ardoraid"`
}

type coursesRequest struct {
	CourseIDs []int64 `json:"courseids"`
}

type saveJobRequest struct {
	Params request.SaveJob `json:"params"`
}

type deleteActivityRequest struct {
	ID int64 `json:"id"`
}

// handleViewActivity is POST /api/v1/view_ardora
func (s *Server) handleViewActivity(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeStatusError(w, err)
		return
	}
	if req.ActivityID <= 0 {
		s.writeStatusError(w, &jobs.ValidationError{Field: "ardoraid", Msg: "must be positive"})
		return
	}
	res, err := s.tracker.ViewActivity(r.Context(), callerFrom(r.Context()), req.ActivityID)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleActivitiesByCourses is POST /api/v1/get_ardoras_by_courses
func (s *Server) handleActivitiesByCourses(w http.ResponseWriter, r *http.Request) {
	var req coursesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	acts, warnings, err := s.tracker.ActivitiesByCourses(r.Context(), req.CourseIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if acts == nil {
		acts = []store.Activity{}
	}
	s.writeJSON(w, http.StatusOK, ActivitiesResponse{Activities: acts, Warnings: warnings})
}

// handleCourseActivities is GET /api/v1/courses/{id}/ardoras
func (s *Server) handleCourseActivities(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	acts, err := s.tracker.CourseActivities(r.Context(), callerFrom(r.Context()), courseID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if acts == nil {
		acts = []store.Activity{}
	}
	s.writeJSON(w, http.StatusOK, acts)
}

// handleSaveJob is POST /api/v1/save_job
func (s *Server) handleSaveJob(w http.ResponseWriter, r *http.Request) {
	var req saveJobRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeStatusError(w, err)
		return
	}
	rec, err := s.tracker.SaveJob(r.Context(), callerFrom(r.Context()), req.Params)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: true, ID: rec.ID})
}

// handleUpdateJob is POST /api/v1/update_job
func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateJob
	if err := decodeJSON(r, &req); err != nil {
		s.writeStatusError(w, err)
		return
	}
	rec, err := s.tracker.UpdateJob(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: true, ID: rec.ID})
}

// handleAddActivity is POST /api/v1/add_ardora
func (s *Server) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	var req request.AddActivity
	if err := decodeJSON(r, &req); err != nil {
		s.writeStatusError(w, err)
		return
	}
	a, err := s.tracker.AddActivity(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: true, ID: a.ID})
}

// handleUpdateActivity is POST /api/v1/update_ardora
func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateActivity
	if err := decodeJSON(r, &req); err != nil {
		s.writeStatusError(w, err)
		return
	}
	a, err := s.tracker.UpdateActivity(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: true, ID: a.ID})
}

// handleDeleteActivity is POST /api/v1/delete_ardora
func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	var req deleteActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDeleteError(w, err)
		return
	}
	n, err := s.tracker.DeleteActivity(r.Context(), callerFrom(r.Context()), req.ID)
	if err != nil {
		s.writeDeleteError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DeleteResponse{Status: true, Deleted: n})
}

// handleBackup is GET /api/v1/courses/{id}/backup, responds with yaml archive
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if s.archiver == nil {
		s.writeJSONError(w, http.StatusNotFound, "backup is not enabled")
		return
	}
	caller := callerFrom(r.Context())
	if !caller.CanGrade() {
		s.writeError(w, &jobs.AuthorizationError{UserID: caller.UserID, Action: "backup courses"})
		return
	}
	courseID, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := backup.Options{}
	if v := r.URL.Query().Get("jobs"); v != "" {
		if opts.IncludeJobs, err = strconv.ParseBool(v); err != nil {
			s.writeError(w, &jobs.ValidationError{Field: "jobs", Msg: "must be a boolean"})
			return
		}
	}
	if v := r.URL.Query().Get("activity"); v != "" {
		if opts.ActivityID, err = strconv.ParseInt(v, 10, 64); err != nil || opts.ActivityID <= 0 {
			s.writeError(w, &jobs.ValidationError{Field: "activity", Msg: "must be a positive number"})
			return
		}
	}

	a, err := s.archiver.Backup(r.Context(), courseID, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	buf := bytes.Buffer{}
	if err := backup.Encode(&buf, a); err != nil {
		s.writeError(w, err)
		return
	}
	log.Printf("[INFO] course %d backup %s made by user %d, %d activities", courseID, a.ID, caller.UserID, len(a.Activities))
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("course-%d.yaml", courseID)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("[WARN] failed to write backup of course %d: %v", courseID, err)
	}
}

// handleRestore is POST /api/v1/courses/{id}/restore, the body is a yaml archive
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if s.archiver == nil {
		s.writeJSONError(w, http.StatusNotFound, "backup is not enabled")
		return
	}
	caller := callerFrom(r.Context())
	if !caller.CanGrade() {
		s.writeStatusError(w, &jobs.AuthorizationError{UserID: caller.UserID, Action: "restore courses"})
		return
	}
	courseID, err := pathID(r)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	a, err := backup.Decode(r.Body)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	ids, err := s.archiver.Restore(r.Context(), a, courseID)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	log.Printf("[INFO] archive %s restored into course %d by user %d", a.ID, courseID, caller.UserID)
	s.writeJSON(w, http.StatusOK, RestoreResponse{Status: true, Activities: ids})
}

// handleArchiveSchema is GET /api/v1/schema/archive
func (s *Server) handleArchiveSchema(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, backup.Schema())
}

// errorStatus maps service errors to http status and the message shown to the client
func errorStatus(err error) (int, string) {
	var verr *jobs.ValidationError
	var nferr *jobs.NotFoundError
	var aerr *jobs.AuthorizationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &nferr):
		return http.StatusNotFound, nferr.Error()
	case errors.As(err, &aerr):
		return http.StatusForbidden, aerr.Error()
	case errors.Is(err, jobs.ErrDuplicate):
		return http.StatusConflict, "duplicate record"
	case errors.Is(err, backup.ErrBadArchive):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found"
	}
	log.Printf("[ERROR] %v", err)
	return http.StatusInternalServerError, "internal error"
}

// writeError writes {"error": msg} with the status of err
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	s.writeJSONError(w, status, msg)
}

// writeStatusError writes {"status": false, "error": msg} with the status of err
func (s *Server) writeStatusError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	s.writeJSON(w, status, StatusResponse{Status: false, Error: msg})
}

// writeDeleteError writes {"status": false, "deleted": 0, "error": msg} with the status of err
func (s *Server) writeDeleteError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	s.writeJSON(w, status, DeleteResponse{Status: false, Error: msg})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &jobs.ValidationError{Field: "body", Msg: err.Error()}
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &jobs.ValidationError{Field: "id", Msg: "must be a positive number"}
	}
	return id, nil
}

// collect drains a sequence, the first error stops it
func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	res := []T{}
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}
