package web

import (
	"net/http"
	"strconv"

	log "github.com/go-pkgz/lgr"

	"github.com/jmbouzan/ardora/app/jobs"
	"github.com/jmbouzan/ardora/app/jobs/request"
)

// handleAjax is POST /ajax, the form field "action" selects the operation
func (s *Server) handleAjax(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	action := r.FormValue("action")
	log.Printf("[DEBUG] ajax action %q from user %d", action, callerFrom(r.Context()).UserID)
	switch action {
	case "add_job":
		s.ajaxAddJob(w, r)
	case "get_job":
		s.ajaxGetJobs(w, r)
	case "get_eval":
		s.ajaxGetEvaluations(w, r)
	case "get_info":
		s.ajaxGetInfo(w, r)
	case "del_job":
		s.ajaxDeleteJob(w, r)
	default:
		s.writeJSONError(w, http.StatusBadRequest, "unknown action "+strconv.Quote(action))
	}
}

func (s *Server) ajaxAddJob(w http.ResponseWriter, r *http.Request) {
	f := formReader{r: r}
	req := request.AddJob{
		CourseID:  f.integer("courseid"),
		DataJob:   f.str("datajob"),
		Father:    f.str("father"),
		Type:      f.str("type"),
		PaqName:   f.str("paq_name"),
		ArdoraID:  f.str("ardora_id"),
		Activity:  f.str("activity"),
		HStart:    f.str("hstart"),
		HEnd:      f.str("hend"),
		Attemps:   int(f.integer("attemps")),
		Points:    f.float("points"),
		State:     int(f.integer("state")),
		TypeGrade: f.str("typegrade"),
	}
	if f.err != nil {
		s.writeStatusError(w, f.err)
		return
	}
	rec, err := s.tracker.AddJob(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		s.writeStatusError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: true, ID: rec.ID})
}

func (s *Server) ajaxGetJobs(w http.ResponseWriter, r *http.Request) {
	seq, err := s.tracker.ListJobs(r.Context(), callerFrom(r.Context()), filterFromForm(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := collect(seq)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) ajaxGetEvaluations(w http.ResponseWriter, r *http.Request) {
	seq, err := s.tracker.ListEvaluations(r.Context(), callerFrom(r.Context()), filterFromForm(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := collect(seq)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) ajaxGetInfo(w http.ResponseWriter, r *http.Request) {
	seq, err := s.tracker.GetInfo(r.Context(), request.Info{Type: r.FormValue("type"), ArdoraID: r.FormValue("ardora_id")})
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := collect(seq)
	if err != nil {
		s.writeError(w, err)
		return
	}
	info := jobs.Info{}
	if len(res) > 0 {
		info = res[0]
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) ajaxDeleteJob(w http.ResponseWriter, r *http.Request) {
	f := formReader{r: r}
	req := request.DeleteJob{UserID: f.integer("user_id"), DataJob: f.str("datajob"), ArdoraID: f.str("ardora_id")}
	if f.err != nil {
		s.writeDeleteError(w, f.err)
		return
	}
	n, err := s.tracker.DeleteJob(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		s.writeDeleteError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DeleteResponse{Status: true, Deleted: n})
}

func filterFromForm(r *http.Request) request.Filter {
	return request.Filter{Type: r.FormValue("type"), Father: r.FormValue("father"),
		PaqName: r.FormValue("paq_name"), ArdoraID: r.FormValue("ardora_id")}
}

// formReader reads typed form values, keeping the first conversion error
type formReader struct {
	r   *http.Request
	err error
}

func (f *formReader) str(name string) string { return f.r.FormValue(name) }

func (f *formReader) integer(name string) int64 {
	v := f.r.FormValue(name)
	if v == "" {
		return 0
	}
	res, err := strconv.ParseInt(v, 10, 64)
	if err != nil && f.err == nil {
		f.err = &jobs.ValidationError{Field: name, Msg: "must be an integer"}
	}
	return res
}

func (f *formReader) float(name string) float64 {
	v := f.r.FormValue(name)
	if v == "" {
		return 0
	}
	res, err := strconv.ParseFloat(v, 64)
	if err != nil && f.err == nil {
		f.err = &jobs.ValidationError{Field: name, Msg: "must be a number"}
	}
	return res
}
