// Package check holds the rules a job record must satisfy before it is stored,
// shared by the tracker and by archive restore.
package check

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmbouzan/ardora/app/store"
)

// timestamp layouts accepted for datajob, hstart and hend, unix seconds are accepted too
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.RFC3339,
}

// FieldError names the record field breaking a rule
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Msg }

// Timestamp parses v in one of the accepted layouts or as unix seconds
func Timestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", v)
}

// Job verifies rec against the grading range of its activity and sets rec.DataJobTS,
// the sort key of the datajob instant.
func Job(rec *store.JobRecord, gradeMax float64) error {
	ts, err := Timestamp(rec.DataJob)
	if err != nil {
		return &FieldError{Field: "datajob", Msg: err.Error()}
	}
	if err := times(rec.HStart, rec.HEnd); err != nil {
		return err
	}
	switch {
	case rec.Attemps < 0:
		return &FieldError{Field: "attemps", Msg: "must not be negative"}
	case rec.Points < 0:
		return &FieldError{Field: "points", Msg: "must not be negative"}
	case rec.Points > gradeMax:
		return &FieldError{Field: "points", Msg: fmt.Sprintf("%g is above the grading range of %g", rec.Points, gradeMax)}
	}
	rec.DataJobTS = ts.Unix()
	return nil
}

// GradeMax verifies the grading range of an activity
func GradeMax(v float64) error {
	if v <= 0 {
		return &FieldError{Field: "grademax", Msg: fmt.Sprintf("%g is not a positive grading range", v)}
	}
	return nil
}

// times parses present timestamps and requires hend not before hstart
func times(hstart, hend string) error {
	var start, end time.Time
	var err error
	if hstart != "" {
		if start, err = Timestamp(hstart); err != nil {
			return &FieldError{Field: "hstart", Msg: err.Error()}
		}
	}
	if hend != "" {
		if end, err = Timestamp(hend); err != nil {
			return &FieldError{Field: "hend", Msg: err.Error()}
		}
	}
	if hstart != "" && hend != "" && end.Before(start) {
		return &FieldError{Field: "hend", Msg: "is before hstart"}
	}
	return nil
}
